package woocommerce

import (
	"encoding/json"
	"strconv"
)

// Wire types for the WooCommerce REST API v3. Only the fields the proxy
// reads are declared; the API returns far more.

// wooMetaEntry is one entry in a meta_data list. Values are loosely typed
// on the wire (string, number, bool, or nested structures).
type wooMetaEntry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// String renders the meta value as the flat string the metadata pipeline
// works with. Structured values render as compact JSON, which is what the
// host platform's admin screens show for them too.
func (m wooMetaEntry) String() string {
	var s string
	if err := json.Unmarshal(m.Value, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(m.Value, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(m.Value, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return string(m.Value)
}

// metaValue returns the first entry matching key, or "".
func metaValue(entries []wooMetaEntry, key string) string {
	for _, e := range entries {
		if e.Key == key {
			return e.String()
		}
	}
	return ""
}

type wooAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type wooShippingLine struct {
	MethodTitle string `json:"method_title"`
}

type wooLineItem struct {
	ID        int    `json:"id"`
	ProductID int    `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type wooOrder struct {
	ID                 int               `json:"id"`
	CustomerID         int               `json:"customer_id"`
	Total              string            `json:"total"`
	TotalTax           string            `json:"total_tax"`
	ShippingTotal      string            `json:"shipping_total"`
	DiscountTotal      string            `json:"discount_total"`
	PaymentMethodTitle string            `json:"payment_method_title"`
	Billing            wooAddress        `json:"billing"`
	Shipping           wooAddress        `json:"shipping"`
	ShippingLines      []wooShippingLine `json:"shipping_lines"`
	LineItems          []wooLineItem     `json:"line_items"`
	MetaData           []wooMetaEntry    `json:"meta_data"`
}

type wooCustomer struct {
	ID        int            `json:"id"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Billing   wooAddress     `json:"billing"`
	IsPaying  bool           `json:"is_paying_customer"`
	MetaData  []wooMetaEntry `json:"meta_data"`
}

type wooCategoryRef struct {
	Name string `json:"name"`
}

type wooProductAttribute struct {
	Name    string   `json:"name"`
	Slug    string   `json:"slug"`
	Options []string `json:"options"`
}

type wooProduct struct {
	ID               int                   `json:"id"`
	SKU              string                `json:"sku"`
	Name             string                `json:"name"`
	Price            string                `json:"price"`
	ShortDescription string                `json:"short_description"`
	Categories       []wooCategoryRef      `json:"categories"`
	Attributes       []wooProductAttribute `json:"attributes"`
	MetaData         []wooMetaEntry        `json:"meta_data"`
}

// wooAttributeTerm is a store-level attribute taxonomy
// (GET /products/attributes).
type wooAttributeTerm struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// wooSubscription is a WooCommerce Subscriptions resource
// (GET /subscriptions/{id}). Schedule dates are GMT strings in the
// platform's "Y-m-d H:i:s" format; billing_interval arrives as a string.
type wooSubscription struct {
	ID              int            `json:"id"`
	ParentID        int            `json:"parent_id"`
	Status          string         `json:"status"`
	BillingPeriod   string         `json:"billing_period"`
	BillingInterval string         `json:"billing_interval"`
	Total           string         `json:"total"`
	SignUpFee       string         `json:"sign_up_fee"`
	StartDateGMT    string         `json:"start_date_gmt"`
	NextPaymentGMT  string         `json:"next_payment_date_gmt"`
	TrialEndGMT     string         `json:"trial_end_date_gmt"`
	EndDateGMT      string         `json:"end_date_gmt"`
	MetaData        []wooMetaEntry `json:"meta_data"`
}

// wooSystemStatus is the slice of GET /system_status the proxy reads:
// the store's platform version and which plugins are active.
type wooSystemStatus struct {
	Environment struct {
		Version string `json:"version"`
	} `json:"environment"`
	ActivePlugins []struct {
		Plugin  string `json:"plugin"`
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"active_plugins"`
}

// wooError is the REST API's error envelope.
type wooError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status int `json:"status"`
	} `json:"data"`
}

// acfFieldGroup is a field group as exposed by the ACF REST bridge
// (GET /wp-json/acf/v3/field-groups). Location rules decide which entity
// the group attaches to.
type acfFieldGroup struct {
	Key      string     `json:"key"`
	Title    string     `json:"title"`
	Fields   []acfField `json:"fields"`
	Location [][]struct {
		Param string `json:"param"`
		Value string `json:"value"`
	} `json:"location"`
}

type acfField struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Label  string `json:"label"`
	Parent string `json:"parent"`
}
