// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Config holds all service configuration.
// Environment determines whether secrets load from env vars (development)
// or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// DataDir is where the settings database lives.
	DataDir string

	// GCP settings (required in production)
	GCPProject string
	SiteID     string

	// Site-specific configuration (loaded from secrets)
	Site SiteConfig
}

// SiteConfig contains per-store settings.
// In production, this is loaded from Secret Manager as JSON.
// In development, loaded from individual env vars or CONFIG_FILE.
type SiteConfig struct {
	StoreURL       string `json:"store_url"`
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`

	// MinStoreVersion gates startup on the store's WooCommerce version.
	// Empty disables the check.
	MinStoreVersion string `json:"min_store_version,omitempty"`

	// StripeKey is the Stripe secret key for the account the store
	// charges through.
	StripeKey string `json:"stripe_key"`

	// AdminToken authorizes the settings and metadata endpoints.
	AdminToken string `json:"admin_token"`

	// NonceSecret signs the anti-forgery header mutations must carry.
	NonceSecret string `json:"nonce_secret"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	// Otherwise, use ENV vars / Secret Manager approach
	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		DataDir:     envOrDefault("DATA_DIR", "data"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		SiteID:      os.Getenv("SITE_ID"),
	}

	// SiteID required in all environments
	if cfg.SiteID == "" {
		return nil, fmt.Errorf("SITE_ID environment variable required")
	}

	// Load site config based on environment
	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading site config: %w", err)
	}

	// Validate required site fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Use a struct that matches the JSON structure
	var fileConfig struct {
		Port        string     `json:"port"`
		Environment string     `json:"environment"`
		LogLevel    string     `json:"log_level"`
		DataDir     string     `json:"data_dir"`
		SiteID      string     `json:"site_id"`
		Site        SiteConfig `json:"site"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, "8080"),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		DataDir:     withDefault(fileConfig.DataDir, "data"),
		SiteID:      fileConfig.SiteID,
		Site:        fileConfig.Site,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches site config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{site_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.SiteID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Site); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads site config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Site = SiteConfig{
		StoreURL:        os.Getenv("SITE_STORE_URL"),
		ConsumerKey:     os.Getenv("SITE_CONSUMER_KEY"),
		ConsumerSecret:  os.Getenv("SITE_CONSUMER_SECRET"),
		MinStoreVersion: os.Getenv("SITE_MIN_STORE_VERSION"),
		StripeKey:       os.Getenv("SITE_STRIPE_KEY"),
		AdminToken:      os.Getenv("SITE_ADMIN_TOKEN"),
		NonceSecret:     os.Getenv("SITE_NONCE_SECRET"),
	}
	return nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.SiteID == "" {
		return fmt.Errorf("site_id is required")
	}
	if c.Site.StoreURL == "" {
		return fmt.Errorf("store_url is required")
	}
	if c.Site.ConsumerKey == "" {
		return fmt.Errorf("consumer_key is required")
	}
	if c.Site.ConsumerSecret == "" {
		return fmt.Errorf("consumer_secret is required")
	}
	if c.Site.StripeKey == "" {
		return fmt.Errorf("stripe_key is required")
	}
	if c.Site.AdminToken == "" {
		return fmt.Errorf("admin_token is required")
	}
	if c.Site.NonceSecret == "" {
		return fmt.Errorf("nonce_secret is required")
	}

	// Validate store URL is well-formed
	if _, err := url.Parse(c.Site.StoreURL); err != nil {
		return fmt.Errorf("invalid store_url: %w", err)
	}

	return nil
}

// envOrDefault returns the environment variable value or a default.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
