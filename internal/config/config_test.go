package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// siteEnv is every variable Load reads; tests scrub them all up front so
// the host environment cannot leak in.
var siteEnv = []string{
	"CONFIG_FILE", "ENVIRONMENT", "PORT", "LOG_LEVEL", "DATA_DIR",
	"GCP_PROJECT", "SITE_ID", "SITE_STORE_URL", "SITE_CONSUMER_KEY",
	"SITE_CONSUMER_SECRET", "SITE_MIN_STORE_VERSION", "SITE_STRIPE_KEY",
	"SITE_ADMIN_TOKEN", "SITE_NONCE_SECRET",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range siteEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("SITE_ID", "test-site")
	t.Setenv("SITE_STORE_URL", "https://shop.example.com")
	t.Setenv("SITE_CONSUMER_KEY", "ck_test123")
	t.Setenv("SITE_CONSUMER_SECRET", "cs_test456")
	t.Setenv("SITE_STRIPE_KEY", "sk_test_789")
	t.Setenv("SITE_ADMIN_TOKEN", "tok_admin")
	t.Setenv("SITE_NONCE_SECRET", "nonce-secret")
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	setValidEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SITE_MIN_STORE_VERSION", "7.0.0")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %s, want data", cfg.DataDir)
	}
	if cfg.SiteID != "test-site" {
		t.Errorf("SiteID = %s, want test-site", cfg.SiteID)
	}
	if cfg.Site.StoreURL != "https://shop.example.com" {
		t.Errorf("StoreURL = %s, want https://shop.example.com", cfg.Site.StoreURL)
	}
	if cfg.Site.ConsumerKey != "ck_test123" {
		t.Errorf("ConsumerKey = %s, want ck_test123", cfg.Site.ConsumerKey)
	}
	if cfg.Site.MinStoreVersion != "7.0.0" {
		t.Errorf("MinStoreVersion = %s, want 7.0.0", cfg.Site.MinStoreVersion)
	}
}

func TestLoadMissingSiteID(t *testing.T) {
	clearEnv(t)

	_, err := Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "SITE_ID") {
		t.Errorf("Load() error = %v, want missing SITE_ID", err)
	}
}

func TestLoadMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name  string
		unset string
		want  string
	}{
		{"store URL", "SITE_STORE_URL", "store_url"},
		{"consumer key", "SITE_CONSUMER_KEY", "consumer_key"},
		{"consumer secret", "SITE_CONSUMER_SECRET", "consumer_secret"},
		{"stripe key", "SITE_STRIPE_KEY", "stripe_key"},
		{"admin token", "SITE_ADMIN_TOKEN", "admin_token"},
		{"nonce secret", "SITE_NONCE_SECRET", "nonce_secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			setValidEnv(t)
			os.Unsetenv(tt.unset)

			_, err := Load(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestLoadProductionRequiresProject(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SITE_ID", "test-site")

	_, err := Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "GCP_PROJECT") {
		t.Errorf("Load() error = %v, want missing GCP_PROJECT", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"port": "9191",
		"site_id": "file-site",
		"site": {
			"store_url": "https://shop.example.com",
			"consumer_key": "ck_file",
			"consumer_secret": "cs_file",
			"stripe_key": "sk_test_file",
			"admin_token": "tok_file",
			"nonce_secret": "nonce-file"
		}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "9191" {
		t.Errorf("Port = %s, want 9191", cfg.Port)
	}
	if cfg.SiteID != "file-site" {
		t.Errorf("SiteID = %s, want file-site", cfg.SiteID)
	}
	if cfg.Site.ConsumerKey != "ck_file" {
		t.Errorf("ConsumerKey = %s, want ck_file", cfg.Site.ConsumerKey)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %s, want development default", cfg.Environment)
	}
}

func TestLoadFromFileMissingFields(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"site_id": "x", "site": {}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(context.Background()); err == nil {
		t.Error("Load() = nil error for incomplete file config")
	}
}
