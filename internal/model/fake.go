package model

import "time"

// Fake implementations of the host-object interfaces, used by tests and by
// tooling that previews metadata without a live store.

// FakeProduct is a struct-backed Product.
type FakeProduct struct {
	ProductID   int
	ProductSKU  string
	Title       string
	UnitPrice   string
	Cats        []string
	Desc        string
	Attributes  map[string][]string
	Meta        map[string]string
}

func (p *FakeProduct) ID() int               { return p.ProductID }
func (p *FakeProduct) SKU() string           { return p.ProductSKU }
func (p *FakeProduct) Name() string          { return p.Title }
func (p *FakeProduct) Price() string         { return p.UnitPrice }
func (p *FakeProduct) Categories() []string  { return p.Cats }
func (p *FakeProduct) Description() string   { return p.Desc }

func (p *FakeProduct) AttributeOptions(key string) []string {
	if p.Attributes == nil {
		return nil
	}
	return p.Attributes[key]
}

func (p *FakeProduct) MetaValue(key string) string {
	if p.Meta == nil {
		return ""
	}
	return p.Meta[key]
}

// FakeItem is a struct-backed OrderItem. A nil Prod models an unresolvable
// product.
type FakeItem struct {
	Qty  int
	Prod *FakeProduct
}

func (i *FakeItem) Quantity() int { return i.Qty }

func (i *FakeItem) Product() Product {
	if i.Prod == nil {
		return nil
	}
	return i.Prod
}

// FakeOrder is a struct-backed Order.
type FakeOrder struct {
	OrderID         int
	OrderTotal      string
	OrderSubtotal   string
	Tax             string
	Shipping        string
	Email           string
	Phone           string
	BillCountry     string
	ShipCountry     string
	PaymentTitle    string
	ShippingMethods []string
	CustomerID      int
	LineItems       []*FakeItem
}

func (o *FakeOrder) ID() int                   { return o.OrderID }
func (o *FakeOrder) Total() string             { return o.OrderTotal }
func (o *FakeOrder) Subtotal() string          { return o.OrderSubtotal }
func (o *FakeOrder) TotalTax() string          { return o.Tax }
func (o *FakeOrder) ShippingTotal() string     { return o.Shipping }
func (o *FakeOrder) BillingEmail() string      { return o.Email }
func (o *FakeOrder) BillingPhone() string      { return o.Phone }
func (o *FakeOrder) BillingCountry() string    { return o.BillCountry }
func (o *FakeOrder) ShippingCountry() string   { return o.ShipCountry }
func (o *FakeOrder) PaymentMethodTitle() string { return o.PaymentTitle }
func (o *FakeOrder) UserID() int               { return o.CustomerID }

func (o *FakeOrder) ItemCount() int {
	n := 0
	for _, item := range o.LineItems {
		n += item.Qty
	}
	return n
}

func (o *FakeOrder) ShippingMethodTitles() []string { return o.ShippingMethods }

func (o *FakeOrder) Items() []OrderItem {
	items := make([]OrderItem, len(o.LineItems))
	for i, item := range o.LineItems {
		items[i] = item
	}
	return items
}

// FakeUser is a struct-backed User.
type FakeUser struct {
	Meta map[string]string
}

func (u *FakeUser) MetaValue(key string) string {
	if u.Meta == nil {
		return ""
	}
	return u.Meta[key]
}

// FakeSubscription is a struct-backed Subscription.
type FakeSubscription struct {
	SubID       int
	SubStatus   string
	Period      string
	Interval    int
	SubTotal    string
	Fee         string
	Dates       map[string]time.Time
	Payments    int
	ParentOrder int
}

func (s *FakeSubscription) ID() int                    { return s.SubID }
func (s *FakeSubscription) Status() string             { return s.SubStatus }
func (s *FakeSubscription) BillingPeriod() string      { return s.Period }
func (s *FakeSubscription) BillingInterval() int       { return s.Interval }
func (s *FakeSubscription) Total() string              { return s.SubTotal }
func (s *FakeSubscription) SignUpFee() string          { return s.Fee }
func (s *FakeSubscription) CompletedPaymentCount() int { return s.Payments }
func (s *FakeSubscription) ParentOrderID() int         { return s.ParentOrder }

func (s *FakeSubscription) Date(name string) (time.Time, bool) {
	t, ok := s.Dates[name]
	return t, ok
}
