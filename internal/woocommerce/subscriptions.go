package woocommerce

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"stripemeta-proxy/internal/model"
	"stripemeta-proxy/internal/subscriptions"
)

// Order meta keys the subscriptions extension stamps on related orders.
// A renewal order carries the subscription ID under _subscription_renewal,
// and likewise for switches and resubscribes. Parent orders carry no
// marker; those are found by querying subscriptions by parent ID.
const (
	metaKeyRenewal     = "_subscription_renewal"
	metaKeySwitch      = "_subscription_switch"
	metaKeyResubscribe = "_subscription_resubscribe"
)

// probeTimeout bounds the background lookups the detection interface
// forces on us: its methods carry no context because the pipeline treats
// subscription data as optional decoration.
const probeTimeout = 10 * time.Second

// SubscriptionsProvider implements subscriptions.Provider against the
// WooCommerce Subscriptions REST surface. Whether the extension is active
// is probed once, lazily, from the store's system status report.
type SubscriptionsProvider struct {
	client *Client
	logger *slog.Logger

	probe  sync.Once
	active bool
}

// NewSubscriptionsProvider creates a provider backed by client.
func NewSubscriptionsProvider(client *Client, logger *slog.Logger) *SubscriptionsProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriptionsProvider{client: client, logger: logger}
}

// Active reports whether the subscriptions extension is installed on the
// store. A failed probe reads as inactive; the next process start retries.
func (p *SubscriptionsProvider) Active() bool {
	p.probe.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()

		status, err := p.client.systemStatus(ctx)
		if err != nil {
			p.logger.Warn("subscriptions probe failed", "error", err)
			return
		}
		for _, plugin := range status.ActivePlugins {
			if plugin.Plugin == "woocommerce-subscriptions/woocommerce-subscriptions.php" {
				p.active = true
				p.logger.Info("subscriptions extension detected", "version", plugin.Version)
				return
			}
		}
	})
	return p.active
}

func (p *SubscriptionsProvider) ContainsParent(order model.Order) bool {
	subs, err := p.subscriptionsByParent(order)
	if err != nil {
		p.logger.Warn("parent subscription lookup failed", "order_id", order.ID(), "error", err)
		return false
	}
	return len(subs) > 0
}

func (p *SubscriptionsProvider) ContainsRenewal(order model.Order) bool {
	return len(relatedIDs(order, metaKeyRenewal)) > 0
}

func (p *SubscriptionsProvider) ContainsSwitch(order model.Order) bool {
	return len(relatedIDs(order, metaKeySwitch)) > 0
}

func (p *SubscriptionsProvider) ContainsResubscribe(order model.Order) bool {
	return len(relatedIDs(order, metaKeyResubscribe)) > 0
}

// SubscriptionsForOrder returns the subscriptions related to an order.
// RelationAny resolves in the same priority order the classification
// uses: parent first, then renewal, switch, resubscribe.
func (p *SubscriptionsProvider) SubscriptionsForOrder(order model.Order, relation subscriptions.Relation) ([]model.Subscription, error) {
	switch relation {
	case subscriptions.RelationParent:
		return p.subscriptionsByParent(order)
	case subscriptions.RelationRenewal:
		return p.subscriptionsByIDs(relatedIDs(order, metaKeyRenewal))
	case subscriptions.RelationSwitch:
		return p.subscriptionsByIDs(relatedIDs(order, metaKeySwitch))
	case subscriptions.RelationResubscribe:
		return p.subscriptionsByIDs(relatedIDs(order, metaKeyResubscribe))
	case subscriptions.RelationAny:
		if subs, err := p.subscriptionsByParent(order); err != nil {
			return nil, err
		} else if len(subs) > 0 {
			return subs, nil
		}
		for _, key := range []string{metaKeyRenewal, metaKeySwitch, metaKeyResubscribe} {
			subs, err := p.subscriptionsByIDs(relatedIDs(order, key))
			if err != nil {
				return nil, err
			}
			if len(subs) > 0 {
				return subs, nil
			}
		}
		return nil, nil
	}
	return nil, nil
}

func (p *SubscriptionsProvider) subscriptionsByParent(order model.Order) ([]model.Subscription, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	var raw []wooSubscription
	query := url.Values{"parent": {strconv.Itoa(order.ID())}}
	if err := p.client.get(ctx, restAPIPath+"/subscriptions", query, &raw); err != nil {
		return nil, err
	}
	subs := make([]model.Subscription, len(raw))
	for i, s := range raw {
		subs[i] = &Subscription{raw: s}
	}
	return subs, nil
}

func (p *SubscriptionsProvider) subscriptionsByIDs(ids []int) ([]model.Subscription, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	subs := make([]model.Subscription, 0, len(ids))
	for _, id := range ids {
		var raw wooSubscription
		if err := p.client.get(ctx, restAPIPath+"/subscriptions/"+strconv.Itoa(id), nil, &raw); err != nil {
			return nil, err
		}
		subs = append(subs, &Subscription{raw: raw})
	}
	return subs, nil
}

// relatedIDs reads a relationship marker off an order fetched by this
// package. Orders from other sources carry no markers.
func relatedIDs(order model.Order, metaKey string) []int {
	o, ok := order.(*Order)
	if !ok {
		return nil
	}
	value := o.metaValue(metaKey)
	if value == "" {
		return nil
	}
	id, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return []int{id}
}
