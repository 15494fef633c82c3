// Package model defines the domain types shared across the proxy.
//
// Host-platform objects (orders, products, users, subscriptions) are modeled
// as narrow read-only interfaces exposing exactly the accessors the metadata
// pipeline needs. Adapters (internal/woocommerce) provide real
// implementations; tests use lightweight fakes.
package model

import "time"

// Stripe hard limits for payment-intent metadata.
// Enforced by the assembler's validation stage regardless of how entries
// were produced.
const (
	// MaxMetadataEntries is the maximum number of key/value pairs Stripe
	// accepts on a single payment intent.
	MaxMetadataEntries = 50

	// MaxMetadataKeyLen is the maximum key length in characters.
	MaxMetadataKeyLen = 40

	// MaxMetadataValueLen is the maximum value length in characters.
	MaxMetadataValueLen = 500
)

// Order exposes the order-level fields the metadata pipeline reads.
// Monetary amounts are decimal strings as reported by the host platform
// (e.g. "99.00"); the pipeline passes them through verbatim.
type Order interface {
	ID() int
	Total() string
	Subtotal() string
	TotalTax() string
	ShippingTotal() string
	ItemCount() int
	BillingEmail() string
	BillingPhone() string
	BillingCountry() string
	ShippingCountry() string
	PaymentMethodTitle() string

	// ShippingMethodTitles returns the titles of the order's shipping
	// methods in order. Only the first is used for metadata.
	ShippingMethodTitles() []string

	// UserID returns the associated customer's user ID, or 0 for guest
	// checkouts.
	UserID() int

	Items() []OrderItem
}

// OrderItem is a single line item on an order.
type OrderItem interface {
	Quantity() int

	// Product returns the purchased product, or nil when the product can
	// no longer be resolved (deleted, detached variation).
	Product() Product
}

// Product exposes the product fields the metadata pipeline reads.
type Product interface {
	ID() int
	SKU() string
	Name() string
	Price() string

	// Categories returns the product's category names.
	Categories() []string

	// Description returns the product's short description, plain text.
	Description() string

	// AttributeOptions returns the option values of a taxonomy-style
	// attribute by its internal key (e.g. "pa_color"), or nil when the
	// product does not carry that attribute.
	AttributeOptions(key string) []string

	// MetaValue returns a top-level custom field value, or "" when the
	// field is absent.
	MetaValue(key string) string
}

// User exposes the customer fields the metadata pipeline reads.
type User interface {
	// MetaValue returns a custom field value from the user's meta store,
	// or "" when the field is absent.
	MetaValue(key string) string
}

// Subscription exposes the subscription fields the metadata pipeline reads.
// Only meaningful when the host store runs a subscriptions extension.
type Subscription interface {
	ID() int
	Status() string
	BillingPeriod() string
	BillingInterval() int
	Total() string
	SignUpFee() string

	// Date returns a named schedule date ("start", "next_payment",
	// "trial_end", "end"). ok is false when the date is unset.
	Date(name string) (t time.Time, ok bool)

	CompletedPaymentCount() int
	ParentOrderID() int
}
