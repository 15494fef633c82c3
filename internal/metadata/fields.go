package metadata

import (
	"strconv"
	"strings"

	"stripemeta-proxy/internal/catalog"
	"stripemeta-proxy/internal/model"
)

// cartFieldResolvers maps order-level field identifiers to their resolver.
// An identifier missing from the table resolves to no value; selections
// referring to fields that no longer exist are silently skipped rather
// than erroring.
var cartFieldResolvers = map[string]func(model.Order) string{
	"order_id":              func(o model.Order) string { return strconv.Itoa(o.ID()) },
	"order_total":           func(o model.Order) string { return o.Total() },
	"order_subtotal":        func(o model.Order) string { return o.Subtotal() },
	"order_tax":             func(o model.Order) string { return o.TotalTax() },
	"order_shipping":        func(o model.Order) string { return o.ShippingTotal() },
	"order_number_of_items": func(o model.Order) string { return strconv.Itoa(o.ItemCount()) },
	"customer_email":        func(o model.Order) string { return o.BillingEmail() },
	"customer_phone":        func(o model.Order) string { return o.BillingPhone() },
	"billing_country":       func(o model.Order) string { return o.BillingCountry() },
	"shipping_country":      func(o model.Order) string { return o.ShippingCountry() },
	"payment_method":        func(o model.Order) string { return o.PaymentMethodTitle() },
	"shipping_method":       firstShippingMethod,
}

// cartFieldValue resolves an order-level field. ok is false for unknown
// identifiers and for fields whose source has no value at all (as opposed
// to an empty value, which resolves and is later dropped by validation).
func cartFieldValue(field string, order model.Order) (string, bool) {
	resolver, ok := cartFieldResolvers[field]
	if !ok {
		return "", false
	}
	return resolver(order), true
}

func firstShippingMethod(o model.Order) string {
	titles := o.ShippingMethodTitles()
	if len(titles) == 0 {
		return ""
	}
	return titles[0]
}

// attributeInternalPrefix is how the host platform namespaces taxonomy
// attribute keys (catalog slug "color" → product key "pa_color").
const attributeInternalPrefix = "pa_"

// productFieldValue resolves a standard product field against a line item
// and its product. Quantity comes from the line item, everything else from
// the product. Identifiers following the attribute-reference pattern are
// remapped to the attribute's internal key and resolve to the option
// value(s) joined with ", ".
func productFieldValue(field string, product model.Product, item model.OrderItem) (string, bool) {
	switch field {
	case "product_sku":
		return product.SKU(), true
	case "product_name":
		return product.Name(), true
	case "product_price":
		return product.Price(), true
	case "product_quantity":
		return strconv.Itoa(item.Quantity()), true
	case "product_id":
		return strconv.Itoa(product.ID()), true
	case "product_category":
		return strings.Join(product.Categories(), ", "), true
	case "product_description":
		return product.Description(), true
	}

	if name, ok := strings.CutPrefix(field, catalog.AttributeIDPrefix); ok {
		options := product.AttributeOptions(attributeInternalPrefix + name)
		if len(options) > 0 {
			return strings.Join(options, ", "), true
		}
	}

	return "", false
}
