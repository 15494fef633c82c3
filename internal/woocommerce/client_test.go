package woocommerce

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"stripemeta-proxy/internal/model"
)

// newTestStore spins up a fake REST API that checks Basic Auth and serves
// canned responses per path.
func newTestStore(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, secret, ok := r.BasicAuth()
		if !ok || key != "ck_test" || secret != "cs_test" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":"woocommerce_rest_cannot_view","message":"Sorry"}`))
			return
		}
		body, found := routes[r.URL.Path]
		if !found {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"code":"rest_no_route","message":"No route","data":{"status":404}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := New(Config{
		StoreURL:       server.URL,
		ConsumerKey:    "ck_test",
		ConsumerSecret: "cs_test",
		MinVersion:     "7.0.0",
	}, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	// httptest serves plain HTTP; the fingerprint transport is TLS-only.
	client.httpClient = server.Client()
	return client
}

const orderJSON = `{
	"id": 1042, "customer_id": 7,
	"total": "64.50", "total_tax": "5.50", "shipping_total": "0.00",
	"payment_method_title": "Credit Card",
	"billing": {"email": "jo@example.com", "phone": "+15550100", "country": "US"},
	"shipping": {"country": "CA"},
	"shipping_lines": [{"method_title": "Flat rate"}],
	"line_items": [
		{"id": 1, "product_id": 11, "quantity": 2, "subtotal": "24.00"},
		{"id": 2, "product_id": 12, "quantity": 1, "subtotal": "35.00"}
	],
	"meta_data": [{"key": "_subscription_renewal", "value": "88"}]
}`

const productJSON = `{
	"id": 11, "sku": "ABC", "name": "Alpha Mug", "price": "12.00",
	"short_description": "<p>A mug.</p>",
	"categories": [{"name": "Mugs"}],
	"attributes": [{"name": "Color", "slug": "pa_color", "options": ["Blue"]}],
	"meta_data": [{"key": "warehouse", "value": "east"}]
}`

func TestClient_Order(t *testing.T) {
	server := newTestStore(t, map[string]string{
		"/wp-json/wc/v3/orders/1042":  orderJSON,
		"/wp-json/wc/v3/products/11":  productJSON,
		"/wp-json/wc/v3/products/12":  `{"id": 12, "sku": "XYZ", "name": "Omega Mug", "price": "35.00"}`,
	})
	client := newTestClient(t, server)

	order, err := client.Order(context.Background(), 1042)
	if err != nil {
		t.Fatalf("Order() error = %v", err)
	}

	if got := order.ID(); got != 1042 {
		t.Errorf("ID() = %d, want 1042", got)
	}
	if got := order.Subtotal(); got != "59.00" {
		t.Errorf("Subtotal() = %q, want %q", got, "59.00")
	}
	if got := order.ItemCount(); got != 3 {
		t.Errorf("ItemCount() = %d, want 3", got)
	}
	items := order.Items()
	if len(items) != 2 {
		t.Fatalf("len(Items()) = %d, want 2", len(items))
	}
	if got := items[0].Product().SKU(); got != "ABC" {
		t.Errorf("items[0].Product().SKU() = %q, want %q", got, "ABC")
	}
}

func TestClient_OrderToleratesMissingProduct(t *testing.T) {
	server := newTestStore(t, map[string]string{
		"/wp-json/wc/v3/orders/1042": orderJSON,
		"/wp-json/wc/v3/products/11": productJSON,
		// product 12 deleted: 404
	})
	client := newTestClient(t, server)

	order, err := client.Order(context.Background(), 1042)
	if err != nil {
		t.Fatalf("Order() error = %v", err)
	}
	items := order.Items()
	if items[0].Product() == nil {
		t.Error("items[0].Product() = nil, want resolved product")
	}
	if items[1].Product() != nil {
		t.Error("items[1].Product() != nil, want nil for deleted product")
	}
}

func TestClient_OrderNotFound(t *testing.T) {
	server := newTestStore(t, map[string]string{})
	client := newTestClient(t, server)

	_, err := client.Order(context.Background(), 9999)
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Order() error = %v, want ErrNotFound", err)
	}
}

func TestClient_BadCredentials(t *testing.T) {
	server := newTestStore(t, map[string]string{"/wp-json/wc/v3/orders/1": `{}`})
	client := newTestClient(t, server)
	client.secret = "wrong"

	_, err := client.Order(context.Background(), 1)
	if !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("Order() error = %v, want ErrUnauthorized", err)
	}
}

func TestClient_ProductAttributes(t *testing.T) {
	server := newTestStore(t, map[string]string{
		"/wp-json/wc/v3/products/attributes": `[
			{"id": 1, "name": "Color", "slug": "pa_color"},
			{"id": 2, "name": "Size", "slug": "pa_size"}
		]`,
	})
	client := newTestClient(t, server)

	attrs, err := client.ProductAttributes(context.Background())
	if err != nil {
		t.Fatalf("ProductAttributes() error = %v", err)
	}
	if len(attrs) != 2 {
		t.Fatalf("len(attrs) = %d, want 2", len(attrs))
	}
	if attrs[0].Slug != "color" || attrs[0].Label != "Color" {
		t.Errorf("attrs[0] = %+v, want slug color label Color", attrs[0])
	}
}

func TestClient_FieldGroupsAbsentBridge(t *testing.T) {
	server := newTestStore(t, map[string]string{})
	client := newTestClient(t, server)

	groups, err := client.FieldGroups(context.Background())
	if err != nil {
		t.Fatalf("FieldGroups() error = %v, want nil when bridge is absent", err)
	}
	if groups != nil {
		t.Errorf("FieldGroups() = %v, want nil", groups)
	}
}

func TestClient_FieldGroupScopes(t *testing.T) {
	server := newTestStore(t, map[string]string{
		"/wp-json/acf/v3/field-groups": `[
			{"key": "group_user", "title": "User Fields",
			 "fields": [{"key": "field_1", "name": "loyalty_tier", "label": "Loyalty Tier", "parent": "group_user"}],
			 "location": [[{"param": "user_form", "operator": "==", "value": "all"}]]},
			{"key": "group_prod", "title": "Product Fields",
			 "fields": [{"key": "field_2", "name": "origin", "label": "Origin", "parent": "group_prod"}],
			 "location": [[{"param": "post_type", "operator": "==", "value": "product"}]]},
			{"key": "group_page", "title": "Page Fields", "fields": [],
			 "location": [[{"param": "post_type", "operator": "==", "value": "page"}]]}
		]`,
	})
	client := newTestClient(t, server)

	groups, err := client.FieldGroups(context.Background())
	if err != nil {
		t.Fatalf("FieldGroups() error = %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want page-scoped group filtered out", len(groups))
	}
	if groups[0].Scope != "user" || groups[1].Scope != "product" {
		t.Errorf("scopes = %q, %q; want user, product", groups[0].Scope, groups[1].Scope)
	}
}

func TestClient_CheckCompatibility(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantErr bool
	}{
		{"newer", "9.1.2", false},
		{"exact", "7.0.0", false},
		{"older", "6.5.1", true},
		{"garbage", "trunk", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestStore(t, map[string]string{
				"/wp-json/wc/v3/system_status": `{"environment": {"version": "` + tt.version + `"}}`,
			})
			client := newTestClient(t, server)

			got, err := client.CheckCompatibility(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckCompatibility() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.version {
				t.Errorf("detected version = %q, want %q", got, tt.version)
			}
		})
	}
}
