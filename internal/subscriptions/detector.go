// Package subscriptions provides feature-detected access to subscription
// relationships and fields. The host store may or may not run a
// subscriptions extension; every operation degrades to an empty result when
// it is absent or failing, never an error.
package subscriptions

import (
	"strconv"

	"stripemeta-proxy/internal/model"
)

// Relation names an order's relationship to a subscription.
type Relation string

const (
	RelationAny         Relation = "any"
	RelationParent      Relation = "parent"
	RelationRenewal     Relation = "renewal"
	RelationSwitch      Relation = "switch"
	RelationResubscribe Relation = "resubscribe"
)

// OrderType classifies an order's subscription relationship. An order
// matching several categories is reported as the first match in priority
// order: parent, renewal, switch, resubscribe.
type OrderType string

const (
	OrderTypeParent      OrderType = "parent"
	OrderTypeRenewal     OrderType = "renewal"
	OrderTypeSwitch      OrderType = "switch"
	OrderTypeResubscribe OrderType = "resubscribe"
	OrderTypeNone        OrderType = "none"
)

// DateLayout is the wire format for subscription schedule dates.
const DateLayout = "2006-01-02 15:04:05"

// Provider is implemented by an adapter that can reach the host store's
// subscriptions extension.
type Provider interface {
	// Active reports whether the subscriptions extension is installed on
	// the host store.
	Active() bool

	ContainsParent(order model.Order) bool
	ContainsRenewal(order model.Order) bool
	ContainsSwitch(order model.Order) bool
	ContainsResubscribe(order model.Order) bool

	// SubscriptionsForOrder returns the subscriptions related to an order
	// under the given relation.
	SubscriptionsForOrder(order model.Order, relation Relation) ([]model.Subscription, error)
}

// Detector wraps an optional Provider. A nil provider means the extension
// is not installed; every method then returns its zero contribution.
type Detector struct {
	provider Provider
}

// NewDetector creates a Detector. provider may be nil.
func NewDetector(provider Provider) *Detector {
	return &Detector{provider: provider}
}

// Active reports whether subscription data is reachable at all.
func (d *Detector) Active() bool {
	return d != nil && d.provider != nil && d.provider.Active()
}

// IsSubscriptionOrder reports whether the order has any subscription
// relationship.
func (d *Detector) IsSubscriptionOrder(order model.Order) bool {
	return d.OrderType(order) != OrderTypeNone
}

// OrderType classifies the order's subscription relationship.
func (d *Detector) OrderType(order model.Order) OrderType {
	if !d.Active() || order == nil {
		return OrderTypeNone
	}

	switch {
	case d.provider.ContainsParent(order):
		return OrderTypeParent
	case d.provider.ContainsRenewal(order):
		return OrderTypeRenewal
	case d.provider.ContainsSwitch(order):
		return OrderTypeSwitch
	case d.provider.ContainsResubscribe(order):
		return OrderTypeResubscribe
	default:
		return OrderTypeNone
	}
}

// SubscriptionsForOrder returns the related subscriptions, or nil when the
// extension is absent or the lookup fails.
func (d *Detector) SubscriptionsForOrder(order model.Order, relation Relation) []model.Subscription {
	if !d.Active() || order == nil {
		return nil
	}
	subs, err := d.provider.SubscriptionsForOrder(order, relation)
	if err != nil {
		return nil
	}
	return subs
}

// FieldValue resolves a named subscription field to its string form.
// Unknown fields, nil subscriptions, and unset dates all yield "".
func FieldValue(sub model.Subscription, field string) string {
	if sub == nil {
		return ""
	}

	switch field {
	case "subscription_id":
		return strconv.Itoa(sub.ID())
	case "subscription_status":
		return sub.Status()
	case "subscription_billing_period":
		return sub.BillingPeriod()
	case "subscription_billing_interval":
		return strconv.Itoa(sub.BillingInterval())
	case "subscription_total":
		return sub.Total()
	case "subscription_sign_up_fee":
		return sub.SignUpFee()
	case "subscription_start_date":
		return dateValue(sub, "start")
	case "subscription_next_payment_date":
		return dateValue(sub, "next_payment")
	case "subscription_trial_end_date":
		return dateValue(sub, "trial_end")
	case "subscription_end_date":
		return dateValue(sub, "end")
	case "subscription_payment_count":
		return strconv.Itoa(sub.CompletedPaymentCount())
	case "subscription_parent_order_id":
		return strconv.Itoa(sub.ParentOrderID())
	default:
		return ""
	}
}

func dateValue(sub model.Subscription, name string) string {
	t, ok := sub.Date(name)
	if !ok {
		return ""
	}
	return t.Format(DateLayout)
}
