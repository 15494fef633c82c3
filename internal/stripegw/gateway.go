// Package stripegw attaches assembled order metadata to Stripe payment
// intents.
package stripegw

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"

	"stripemeta-proxy/internal/metadata"
	"stripemeta-proxy/internal/model"
	"stripemeta-proxy/internal/settings"
)

// HostStore reads the commerce objects metadata is assembled from.
// Implemented by the WooCommerce client.
type HostStore interface {
	Order(ctx context.Context, id int) (model.Order, error)
	Customer(ctx context.Context, id int) (model.User, error)
}

// Gateway computes payment intent metadata for orders and pushes it to
// Stripe.
type Gateway struct {
	store     HostStore
	settings  settings.Store
	assembler *metadata.Assembler
	logger    *slog.Logger
}

// New creates a Gateway. apiKey is the Stripe secret key; it is installed
// as the SDK's global key, so one process serves one Stripe account.
func New(apiKey string, store HostStore, settingsStore settings.Store, assembler *metadata.Assembler, logger *slog.Logger) *Gateway {
	stripe.Key = apiKey
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		store:     store,
		settings:  settingsStore,
		assembler: assembler,
		logger:    logger,
	}
}

// IntentMetadata assembles the metadata an intent for the given order
// should carry, merged over the entries it already has. The order must
// exist; everything else degrades. A customer that cannot be fetched is
// treated as absent, and unconfigured settings leave existing untouched.
func (g *Gateway) IntentMetadata(ctx context.Context, existing map[string]string, orderID int) (map[string]string, error) {
	cfg, err := g.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.IsEmpty() {
		return existing, nil
	}

	order, err := g.store.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var user model.User
	if order.UserID() != 0 {
		user, err = g.store.Customer(ctx, order.UserID())
		if err != nil {
			g.logger.Warn("customer unresolvable, skipping user fields",
				"order_id", orderID, "customer_id", order.UserID(), "error", err)
			user = nil
		}
	}

	return g.assembler.Assemble(existing, order, user, cfg), nil
}

// ApplyToParams copies assembled metadata onto intent params, in key
// order so request bodies are stable.
func ApplyToParams(meta map[string]string, params *stripe.PaymentIntentParams) {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		params.AddMetadata(k, meta[k])
	}
}

// UpdateIntent re-assembles metadata for the order and writes it to the
// payment intent, preserving intent entries the configuration does not
// produce. Returns the updated intent.
func (g *Gateway) UpdateIntent(ctx context.Context, intentID string, orderID int) (*stripe.PaymentIntent, error) {
	getParams := &stripe.PaymentIntentParams{}
	getParams.Context = ctx
	current, err := paymentintent.Get(intentID, getParams)
	if err != nil {
		return nil, mapStripeError(err)
	}

	meta, err := g.IntentMetadata(ctx, current.Metadata, orderID)
	if err != nil {
		return nil, err
	}

	updateParams := &stripe.PaymentIntentParams{}
	updateParams.Context = ctx
	ApplyToParams(meta, updateParams)

	updated, err := paymentintent.Update(intentID, updateParams)
	if err != nil {
		return nil, mapStripeError(err)
	}

	g.logger.Info("payment intent metadata updated",
		"intent_id", intentID, "order_id", orderID, "entries", len(meta))
	return updated, nil
}

// mapStripeError converts SDK errors to API errors.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.Code == stripe.ErrorCodeResourceMissing:
			return model.NewNotFoundError("payment_intent")
		case stripeErr.HTTPStatusCode == 401:
			return model.NewUnauthorizedError("Stripe authentication failed")
		}
	}
	return model.NewUpstreamError("Stripe", err)
}
