package woocommerce

import (
	"strconv"
	"strings"
	"time"

	"stripemeta-proxy/internal/model"
	"stripemeta-proxy/internal/subscriptions"
)

// Adapters from REST API v3 wire types to the model interfaces. These are
// plain views over the fetched payloads; nothing here touches the network.

// Order adapts a wooOrder. Products referenced by line items are fetched
// up front by Client.Order and resolved here by ID.
type Order struct {
	raw      wooOrder
	products map[int]*Product
}

func (o *Order) ID() int                    { return o.raw.ID }
func (o *Order) Total() string              { return o.raw.Total }
func (o *Order) TotalTax() string           { return o.raw.TotalTax }
func (o *Order) ShippingTotal() string      { return o.raw.ShippingTotal }
func (o *Order) BillingEmail() string       { return o.raw.Billing.Email }
func (o *Order) BillingPhone() string       { return o.raw.Billing.Phone }
func (o *Order) BillingCountry() string     { return o.raw.Billing.Country }
func (o *Order) ShippingCountry() string    { return o.raw.Shipping.Country }
func (o *Order) PaymentMethodTitle() string { return o.raw.PaymentMethodTitle }
func (o *Order) UserID() int                { return o.raw.CustomerID }

// Subtotal is the pre-discount items total. The API reports it per line
// item only, so it is summed here in cents to dodge float drift.
func (o *Order) Subtotal() string {
	var cents int64
	for _, item := range o.raw.LineItems {
		cents += parseAmountCents(item.Subtotal)
	}
	return formatAmountCents(cents)
}

func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.raw.LineItems {
		n += item.Quantity
	}
	return n
}

func (o *Order) ShippingMethodTitles() []string {
	titles := make([]string, 0, len(o.raw.ShippingLines))
	for _, line := range o.raw.ShippingLines {
		if line.MethodTitle != "" {
			titles = append(titles, line.MethodTitle)
		}
	}
	return titles
}

func (o *Order) Items() []model.OrderItem {
	items := make([]model.OrderItem, len(o.raw.LineItems))
	for i, item := range o.raw.LineItems {
		items[i] = &orderItem{raw: item, product: o.products[item.ProductID]}
	}
	return items
}

// metaValue reads an order meta entry. Subscription relationship markers
// live here, so the subscriptions provider reaches for it.
func (o *Order) metaValue(key string) string {
	return metaValue(o.raw.MetaData, key)
}

type orderItem struct {
	raw     wooLineItem
	product *Product
}

func (i *orderItem) Quantity() int { return i.raw.Quantity }

func (i *orderItem) Product() model.Product {
	if i.product == nil {
		return nil
	}
	return i.product
}

// Customer adapts a wooCustomer to model.User. The well-known profile
// fields are served from the typed payload; anything else falls through
// to the customer's meta_data list.
type Customer struct {
	raw wooCustomer
}

func (c *Customer) MetaValue(key string) string {
	switch key {
	case "first_name":
		return c.raw.FirstName
	case "last_name":
		return c.raw.LastName
	case "billing_email":
		if c.raw.Billing.Email != "" {
			return c.raw.Billing.Email
		}
		return c.raw.Email
	case "billing_phone":
		return c.raw.Billing.Phone
	case "billing_company":
		return c.raw.Billing.Company
	case "paying_customer":
		if c.raw.IsPaying {
			return "1"
		}
		return "0"
	}
	return metaValue(c.raw.MetaData, key)
}

// Product adapts a wooProduct.
type Product struct {
	raw wooProduct
}

func (p *Product) ID() int       { return p.raw.ID }
func (p *Product) SKU() string   { return p.raw.SKU }
func (p *Product) Name() string  { return p.raw.Name }
func (p *Product) Price() string { return p.raw.Price }

func (p *Product) Description() string { return stripTags(p.raw.ShortDescription) }

func (p *Product) Categories() []string {
	names := make([]string, 0, len(p.raw.Categories))
	for _, c := range p.raw.Categories {
		names = append(names, c.Name)
	}
	return names
}

// AttributeOptions resolves a taxonomy attribute key like "pa_color".
// Product payloads carry attribute display names, and older stores omit
// the slug, so the name is slugified for comparison when needed.
func (p *Product) AttributeOptions(key string) []string {
	for _, attr := range p.raw.Attributes {
		if attr.Slug == key || "pa_"+slugify(attr.Name) == key {
			return attr.Options
		}
	}
	return nil
}

func (p *Product) MetaValue(key string) string {
	return metaValue(p.raw.MetaData, key)
}

// Subscription adapts a wooSubscription.
type Subscription struct {
	raw wooSubscription
}

func (s *Subscription) ID() int               { return s.raw.ID }
func (s *Subscription) ParentOrderID() int    { return s.raw.ParentID }
func (s *Subscription) Status() string        { return s.raw.Status }
func (s *Subscription) BillingPeriod() string { return s.raw.BillingPeriod }
func (s *Subscription) Total() string         { return s.raw.Total }
func (s *Subscription) SignUpFee() string     { return s.raw.SignUpFee }

// BillingInterval arrives as a string on the wire; the platform default
// is 1.
func (s *Subscription) BillingInterval() int {
	n, err := strconv.Atoi(s.raw.BillingInterval)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (s *Subscription) CompletedPaymentCount() int {
	n, err := strconv.Atoi(metaValue(s.raw.MetaData, "_completed_payment_count"))
	if err != nil {
		return 0
	}
	return n
}

func (s *Subscription) Date(name string) (time.Time, bool) {
	var raw string
	switch name {
	case "start":
		raw = s.raw.StartDateGMT
	case "next_payment":
		raw = s.raw.NextPaymentGMT
	case "trial_end":
		raw = s.raw.TrialEndGMT
	case "end":
		raw = s.raw.EndDateGMT
	default:
		return time.Time{}, false
	}
	return parseGMTDate(raw)
}

// parseGMTDate handles the two date renderings seen across store
// versions: the platform's "Y-m-d H:i:s" and ISO 8601 without a zone.
// Unset schedule dates come back empty or zeroed.
func parseGMTDate(raw string) (time.Time, bool) {
	if raw == "" || strings.HasPrefix(raw, "0000-00-00") {
		return time.Time{}, false
	}
	if t, err := time.Parse(subscriptions.DateLayout, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// === Small string helpers ===

// parseAmountCents parses a decimal money string into cents. Malformed
// amounts count as zero.
func parseAmountCents(s string) int64 {
	whole, frac, _ := strings.Cut(strings.TrimSpace(s), ".")
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil && whole != "" {
		return 0
	}
	cents := w * 100

	if len(frac) > 2 {
		frac = frac[:2]
	}
	for len(frac) > 0 && len(frac) < 2 {
		frac += "0"
	}
	if frac != "" {
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0
		}
		cents += f
	}
	if neg {
		cents = -cents
	}
	return cents
}

func formatAmountCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." +
		strconv.FormatInt(cents%100/10, 10) + strconv.FormatInt(cents%10, 10)
}

// slugify lowercases a display name into its taxonomy slug form.
func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	return slug
}

// stripTags flattens the markup WordPress wraps descriptions in.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
