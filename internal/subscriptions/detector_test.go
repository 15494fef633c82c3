package subscriptions

import (
	"errors"
	"testing"
	"time"

	"stripemeta-proxy/internal/model"
)

// stubProvider simulates a host store with the subscriptions extension.
type stubProvider struct {
	active      bool
	parent      bool
	renewal     bool
	switchOrder bool
	resubscribe bool
	subs        []model.Subscription
	subsErr     error
}

func (p *stubProvider) Active() bool                                { return p.active }
func (p *stubProvider) ContainsParent(order model.Order) bool       { return p.parent }
func (p *stubProvider) ContainsRenewal(order model.Order) bool      { return p.renewal }
func (p *stubProvider) ContainsSwitch(order model.Order) bool       { return p.switchOrder }
func (p *stubProvider) ContainsResubscribe(order model.Order) bool  { return p.resubscribe }

func (p *stubProvider) SubscriptionsForOrder(order model.Order, relation Relation) ([]model.Subscription, error) {
	return p.subs, p.subsErr
}

func TestDetector_NoProvider(t *testing.T) {
	d := NewDetector(nil)
	order := &model.FakeOrder{OrderID: 1}

	if d.Active() {
		t.Error("Active() = true without a provider")
	}
	if got := d.OrderType(order); got != OrderTypeNone {
		t.Errorf("OrderType() = %q, want %q", got, OrderTypeNone)
	}
	if d.IsSubscriptionOrder(order) {
		t.Error("IsSubscriptionOrder() = true without a provider")
	}
	if subs := d.SubscriptionsForOrder(order, RelationAny); subs != nil {
		t.Errorf("SubscriptionsForOrder() = %v, want nil", subs)
	}
}

func TestDetector_InactiveExtension(t *testing.T) {
	d := NewDetector(&stubProvider{active: false, parent: true})
	order := &model.FakeOrder{OrderID: 1}

	if got := d.OrderType(order); got != OrderTypeNone {
		t.Errorf("OrderType() = %q, want %q", got, OrderTypeNone)
	}
}

func TestDetector_OrderTypePriority(t *testing.T) {
	tests := []struct {
		name     string
		provider *stubProvider
		want     OrderType
	}{
		{
			// An order matching several categories reports the first match.
			name:     "parent wins over renewal",
			provider: &stubProvider{active: true, parent: true, renewal: true},
			want:     OrderTypeParent,
		},
		{
			name:     "renewal wins over switch",
			provider: &stubProvider{active: true, renewal: true, switchOrder: true},
			want:     OrderTypeRenewal,
		},
		{
			name:     "switch wins over resubscribe",
			provider: &stubProvider{active: true, switchOrder: true, resubscribe: true},
			want:     OrderTypeSwitch,
		},
		{
			name:     "resubscribe alone",
			provider: &stubProvider{active: true, resubscribe: true},
			want:     OrderTypeResubscribe,
		},
		{
			name:     "no relationship",
			provider: &stubProvider{active: true},
			want:     OrderTypeNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(tt.provider)
			got := d.OrderType(&model.FakeOrder{OrderID: 1})
			if got != tt.want {
				t.Errorf("OrderType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetector_SubscriptionsForOrder_SwallowsErrors(t *testing.T) {
	d := NewDetector(&stubProvider{
		active:  true,
		subsErr: errors.New("extension exploded"),
	})

	subs := d.SubscriptionsForOrder(&model.FakeOrder{OrderID: 1}, RelationAny)
	if subs != nil {
		t.Errorf("SubscriptionsForOrder() = %v, want nil on provider error", subs)
	}
}

func TestFieldValue(t *testing.T) {
	next := time.Date(2026, 9, 15, 8, 30, 0, 0, time.UTC)
	sub := &model.FakeSubscription{
		SubID:       42,
		SubStatus:   "active",
		Period:      "month",
		Interval:    3,
		SubTotal:    "29.99",
		Fee:         "5.00",
		Dates:       map[string]time.Time{"next_payment": next},
		Payments:    7,
		ParentOrder: 1001,
	}

	tests := []struct {
		field string
		want  string
	}{
		{"subscription_id", "42"},
		{"subscription_status", "active"},
		{"subscription_billing_period", "month"},
		{"subscription_billing_interval", "3"},
		{"subscription_total", "29.99"},
		{"subscription_sign_up_fee", "5.00"},
		{"subscription_next_payment_date", "2026-09-15 08:30:00"},
		{"subscription_trial_end_date", ""}, // unset date
		{"subscription_payment_count", "7"},
		{"subscription_parent_order_id", "1001"},
		{"subscription_bogus_field", ""},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := FieldValue(sub, tt.field); got != tt.want {
				t.Errorf("FieldValue(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestFieldValue_NilSubscription(t *testing.T) {
	if got := FieldValue(nil, "subscription_status"); got != "" {
		t.Errorf("FieldValue(nil) = %q, want empty", got)
	}
}
