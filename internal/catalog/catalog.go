// Package catalog enumerates the metadata fields an administrator can
// select from, per category. The catalog is pure given its inputs: fixed
// tables for well-known order, user, and subscription fields, plus
// contributions from optional providers (product attributes, external
// field definitions). Provider failures are swallowed — a failing source
// contributes nothing rather than breaking the settings page.
package catalog

import (
	"context"
	"strings"

	"stripemeta-proxy/internal/subscriptions"
)

// Field is one selectable metadata field.
type Field struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// AttributeIDPrefix marks catalog identifiers that refer to taxonomy-style
// product attributes. The assembler strips it to recover the attribute
// slug.
const AttributeIDPrefix = "product_attribute_"

// Attribute is a taxonomy-style product classification discovered on the
// host store (e.g. slug "color", internal key "pa_color").
type Attribute struct {
	Slug  string
	Label string
}

// AttributeProvider lists the store's product attributes.
// Implemented by the WooCommerce client.
type AttributeProvider interface {
	ProductAttributes(ctx context.Context) ([]Attribute, error)
}

// Scope identifies which entity a field group applies to.
type Scope string

const (
	ScopeUser    Scope = "user"
	ScopeProduct Scope = "product"
)

// FieldDefinition is a custom field declared by an external field-definition
// system (ACF-style). Parent is the key of the group or field that owns it.
type FieldDefinition struct {
	Key    string
	Name   string
	Label  string
	Parent string
}

// FieldGroup is a named set of field definitions scoped to an entity.
type FieldGroup struct {
	Key    string
	Scope  Scope
	Fields []FieldDefinition
}

// FieldDefinitionProvider lists externally defined field groups.
type FieldDefinitionProvider interface {
	FieldGroups(ctx context.Context) ([]FieldGroup, error)
}

// Catalog reports selectable fields per category. Any provider may be nil.
type Catalog struct {
	attributes AttributeProvider
	fieldDefs  FieldDefinitionProvider
	detector   *subscriptions.Detector
}

// New creates a Catalog. All arguments are optional; nil providers simply
// contribute nothing.
func New(attributes AttributeProvider, fieldDefs FieldDefinitionProvider, detector *subscriptions.Detector) *Catalog {
	return &Catalog{
		attributes: attributes,
		fieldDefs:  fieldDefs,
		detector:   detector,
	}
}

// CartFields returns the fixed table of well-known order-level fields.
func (c *Catalog) CartFields() []Field {
	return []Field{
		{ID: "order_id", Label: "Order ID"},
		{ID: "order_total", Label: "Order Total"},
		{ID: "order_subtotal", Label: "Order Subtotal"},
		{ID: "order_tax", Label: "Order Tax"},
		{ID: "order_shipping", Label: "Order Shipping"},
		{ID: "order_number_of_items", Label: "Number of Items"},
		{ID: "customer_email", Label: "Customer Email"},
		{ID: "customer_phone", Label: "Customer Phone"},
		{ID: "billing_country", Label: "Billing Country"},
		{ID: "shipping_country", Label: "Shipping Country"},
		{ID: "payment_method", Label: "Payment Method"},
		{ID: "shipping_method", Label: "Shipping Method"},
	}
}

// UserFields returns the curated user field whitelist plus any top-level
// externally defined fields scoped to user forms. Arbitrary user meta is
// deliberately not explored: it routinely contains session tokens and
// system fields that must never reach a payment provider.
func (c *Catalog) UserFields(ctx context.Context) []Field {
	fields := []Field{
		{ID: "first_name", Label: "First Name"},
		{ID: "last_name", Label: "Last Name"},
		{ID: "billing_email", Label: "Billing Email"},
		{ID: "billing_phone", Label: "Billing Phone"},
		{ID: "billing_company", Label: "Billing Company"},
		{ID: "paying_customer", Label: "Paying Customer"},
	}
	return append(fields, c.scopedDefinitionFields(ctx, ScopeUser)...)
}

// ProductFields returns the core product fields plus one entry per
// discovered product attribute.
func (c *Catalog) ProductFields(ctx context.Context) []Field {
	fields := []Field{
		{ID: "product_sku", Label: "Product SKU"},
		{ID: "product_name", Label: "Product Name"},
		{ID: "product_price", Label: "Product Price"},
		{ID: "product_quantity", Label: "Product Quantity"},
		{ID: "product_id", Label: "Product ID"},
		{ID: "product_category", Label: "Product Category"},
		{ID: "product_description", Label: "Product Description"},
	}

	for _, attr := range c.productAttributes(ctx) {
		label := attr.Label
		if label == "" {
			label = Label(attr.Slug)
		}
		fields = append(fields, Field{
			ID:    AttributeIDPrefix + attr.Slug,
			Label: label,
		})
	}

	return fields
}

// ProductCustomFields returns top-level externally defined fields scoped to
// product entities. Their identifiers are raw field names; the assembler
// prefixes them with meta_ in output keys.
func (c *Catalog) ProductCustomFields(ctx context.Context) []Field {
	return c.scopedDefinitionFields(ctx, ScopeProduct)
}

// SubscriptionFields returns the fixed subscription field table, or nil
// when the subscriptions extension is not detected.
func (c *Catalog) SubscriptionFields() []Field {
	if c.detector == nil || !c.detector.Active() {
		return nil
	}
	return []Field{
		{ID: "subscription_id", Label: "Subscription ID"},
		{ID: "subscription_status", Label: "Subscription Status"},
		{ID: "subscription_billing_period", Label: "Billing Period"},
		{ID: "subscription_billing_interval", Label: "Billing Interval"},
		{ID: "subscription_total", Label: "Subscription Total"},
		{ID: "subscription_sign_up_fee", Label: "Sign-up Fee"},
		{ID: "subscription_start_date", Label: "Start Date"},
		{ID: "subscription_next_payment_date", Label: "Next Payment Date"},
		{ID: "subscription_trial_end_date", Label: "Trial End Date"},
		{ID: "subscription_end_date", Label: "End Date"},
		{ID: "subscription_payment_count", Label: "Completed Payment Count"},
		{ID: "subscription_parent_order_id", Label: "Parent Order ID"},
	}
}

// productAttributes queries the attribute provider, swallowing failures.
func (c *Catalog) productAttributes(ctx context.Context) []Attribute {
	if c.attributes == nil {
		return nil
	}
	attrs, err := c.attributes.ProductAttributes(ctx)
	if err != nil {
		return nil
	}
	return attrs
}

// scopedDefinitionFields collects top-level fields from groups matching the
// given scope. A field is top-level when its declared parent is the owning
// group itself; fields nested under repeaters or sub-groups have another
// field as parent and are skipped (their values are structured, not scalar).
func (c *Catalog) scopedDefinitionFields(ctx context.Context, scope Scope) []Field {
	if c.fieldDefs == nil {
		return nil
	}
	groups, err := c.fieldDefs.FieldGroups(ctx)
	if err != nil {
		return nil
	}

	var fields []Field
	for _, group := range groups {
		if group.Scope != scope {
			continue
		}
		for _, def := range group.Fields {
			if def.Parent != group.Key {
				continue
			}
			label := def.Label
			if label == "" {
				label = Label(def.Name)
			}
			fields = append(fields, Field{ID: def.Name, Label: label})
		}
	}
	return fields
}

// Label prettifies a field identifier for display: underscores and dashes
// become spaces, words are title-cased.
func Label(id string) string {
	replaced := strings.NewReplacer("_", " ", "-", " ").Replace(id)
	words := strings.Fields(replaced)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
