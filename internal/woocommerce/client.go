// Package woocommerce reads orders, customers, products and subscriptions
// from a WooCommerce store over the REST API v3, and adapts them to the
// model interfaces the metadata pipeline consumes.
package woocommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"stripemeta-proxy/internal/catalog"
	"stripemeta-proxy/internal/model"
	"stripemeta-proxy/internal/transport"
)

// =============================================================================
// AUTHENTICATION
// =============================================================================
//
// The REST API v3 authenticates server-to-server callers with a consumer
// key/secret pair sent as HTTP Basic Auth. That only works over HTTPS —
// over plain HTTP many WordPress hosts strip the Authorization header —
// so production store URLs should always be https.
//
// All access here is read-only (orders, customers, products, attributes,
// subscriptions, system status); the key can and should be provisioned
// with Read permissions only.
// =============================================================================

// restAPIPath is the base path for WooCommerce REST API v3 endpoints.
const restAPIPath = "/wp-json/wc/v3"

// acfAPIPath is the base path of the ACF REST bridge, used to discover
// externally defined custom field groups. Stores without the bridge
// return 404, which is treated as "no field groups".
const acfAPIPath = "/wp-json/acf/v3"

// userAgent identifies this client to the store.
// Required: common WAF setups rate-limit requests without a User-Agent.
const userAgent = "StripeMeta-Proxy/1.0"

// Config holds WooCommerce client configuration.
type Config struct {
	StoreURL       string
	ConsumerKey    string
	ConsumerSecret string

	// MinVersion is the lowest WooCommerce version the proxy supports.
	// Empty disables the compatibility check.
	MinVersion string
}

// Client is a read-only WooCommerce REST API v3 client.
type Client struct {
	httpClient *http.Client
	storeURL   string
	key        string
	secret     string
	minVersion string
	logger     *slog.Logger
}

// New creates a WooCommerce client with the given configuration.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.StoreURL == "" {
		return nil, fmt.Errorf("store URL is required")
	}
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return nil, fmt.Errorf("API credentials are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Chrome TLS fingerprint transport: see internal/transport for why.
	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport.NewBrowserTransport(30 * time.Second),
		},
		storeURL:   strings.TrimSuffix(cfg.StoreURL, "/"),
		key:        cfg.ConsumerKey,
		secret:     cfg.ConsumerSecret,
		minVersion: cfg.MinVersion,
		logger:     logger,
	}, nil
}

// === Resources ===

// Order fetches an order and the products its line items reference.
// Product lookups are best-effort: a deleted or otherwise unreadable
// product leaves its line item unresolved rather than failing the order.
func (c *Client) Order(ctx context.Context, id int) (model.Order, error) {
	var raw wooOrder
	if err := c.get(ctx, restAPIPath+"/orders/"+strconv.Itoa(id), nil, &raw); err != nil {
		return nil, err
	}

	products := make(map[int]*Product)
	for _, item := range raw.LineItems {
		if item.ProductID == 0 {
			continue
		}
		if _, done := products[item.ProductID]; done {
			continue
		}
		p, err := c.product(ctx, item.ProductID)
		if err != nil {
			c.logger.Warn("product unresolvable for order",
				"order_id", id, "product_id", item.ProductID, "error", err)
			products[item.ProductID] = nil
			continue
		}
		products[item.ProductID] = p
	}

	return &Order{raw: raw, products: products}, nil
}

// Customer fetches a registered customer.
func (c *Client) Customer(ctx context.Context, id int) (model.User, error) {
	var raw wooCustomer
	if err := c.get(ctx, restAPIPath+"/customers/"+strconv.Itoa(id), nil, &raw); err != nil {
		return nil, err
	}
	return &Customer{raw: raw}, nil
}

func (c *Client) product(ctx context.Context, id int) (*Product, error) {
	var raw wooProduct
	if err := c.get(ctx, restAPIPath+"/products/"+strconv.Itoa(id), nil, &raw); err != nil {
		return nil, err
	}
	return &Product{raw: raw}, nil
}

// ProductAttributes lists the store's global product attribute taxonomies.
// Implements catalog.AttributeProvider.
func (c *Client) ProductAttributes(ctx context.Context) ([]catalog.Attribute, error) {
	var raw []wooAttributeTerm
	query := url.Values{"per_page": {"100"}}
	if err := c.get(ctx, restAPIPath+"/products/attributes", query, &raw); err != nil {
		return nil, err
	}
	attrs := make([]catalog.Attribute, 0, len(raw))
	for _, a := range raw {
		slug := strings.TrimPrefix(a.Slug, "pa_")
		if slug == "" {
			continue
		}
		attrs = append(attrs, catalog.Attribute{Slug: slug, Label: a.Name})
	}
	return attrs, nil
}

// FieldGroups lists custom field groups declared through the ACF REST
// bridge. Stores without the bridge plugin yield no groups.
// Implements catalog.FieldDefinitionProvider.
func (c *Client) FieldGroups(ctx context.Context) ([]catalog.FieldGroup, error) {
	var raw []acfFieldGroup
	err := c.get(ctx, acfAPIPath+"/field-groups", nil, &raw)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	groups := make([]catalog.FieldGroup, 0, len(raw))
	for _, g := range raw {
		scope, ok := groupScope(g)
		if !ok {
			continue
		}
		fields := make([]catalog.FieldDefinition, 0, len(g.Fields))
		for _, f := range g.Fields {
			fields = append(fields, catalog.FieldDefinition{
				Key:    f.Key,
				Name:   f.Name,
				Label:  f.Label,
				Parent: f.Parent,
			})
		}
		groups = append(groups, catalog.FieldGroup{Key: g.Key, Scope: scope, Fields: fields})
	}
	return groups, nil
}

// groupScope maps a field group's location rules to a catalog scope.
// Groups attached to anything else (pages, posts) are out of scope.
func groupScope(g acfFieldGroup) (catalog.Scope, bool) {
	for _, and := range g.Location {
		for _, rule := range and {
			switch {
			case rule.Param == "user_form" || rule.Param == "user_role":
				return catalog.ScopeUser, true
			case rule.Param == "post_type" && rule.Value == "product":
				return catalog.ScopeProduct, true
			}
		}
	}
	return "", false
}

// systemStatus fetches the store's environment report.
func (c *Client) systemStatus(ctx context.Context) (*wooSystemStatus, error) {
	var raw wooSystemStatus
	if err := c.get(ctx, restAPIPath+"/system_status", nil, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

// CheckCompatibility verifies the store runs at least the configured
// minimum WooCommerce version. Returns the detected version either way.
func (c *Client) CheckCompatibility(ctx context.Context) (string, error) {
	status, err := c.systemStatus(ctx)
	if err != nil {
		return "", err
	}
	got := status.Environment.Version
	if c.minVersion == "" {
		return got, nil
	}
	if !semver.IsValid(normalizeVersion(got)) {
		return got, fmt.Errorf("store reports unparseable WooCommerce version %q", got)
	}
	if semver.Compare(normalizeVersion(got), normalizeVersion(c.minVersion)) < 0 {
		return got, fmt.Errorf("store runs WooCommerce %s, need %s or newer", got, c.minVersion)
	}
	return got, nil
}

// normalizeVersion adds the "v" prefix semver comparison requires.
func normalizeVersion(v string) string {
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// === HTTP plumbing ===

// get performs an authenticated GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.storeURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.key, c.secret)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewUpstreamError("WooCommerce", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// parseErrorResponse converts a WooCommerce error payload to an APIError.
func parseErrorResponse(statusCode int, body []byte) error {
	var wcErr wooError
	json.Unmarshal(body, &wcErr) // Best effort parse

	switch statusCode {
	case 404:
		return model.NewNotFoundError("resource")
	case 401, 403:
		return model.NewUnauthorizedError("WooCommerce authentication failed")
	case 400:
		msg := wcErr.Message
		if msg == "" {
			msg = "invalid request"
		}
		return model.NewValidationError("request", msg)
	default:
		return model.NewUpstreamError("WooCommerce",
			fmt.Errorf("status %d: %s - %s", statusCode, wcErr.Code, wcErr.Message))
	}
}
