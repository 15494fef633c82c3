package stripegw

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stripe/stripe-go/v83"

	"stripemeta-proxy/internal/metadata"
	"stripemeta-proxy/internal/model"
	"stripemeta-proxy/internal/settings"
)

type fakeStore struct {
	order model.Order
	user  model.User

	orderErr    error
	customerErr error
}

func (f *fakeStore) Order(ctx context.Context, id int) (model.Order, error) {
	return f.order, f.orderErr
}

func (f *fakeStore) Customer(ctx context.Context, id int) (model.User, error) {
	return f.user, f.customerErr
}

func newTestGateway(t *testing.T, store *fakeStore, cfg *settings.Settings) *Gateway {
	t.Helper()
	settingsStore := settings.NewMemory()
	if cfg != nil {
		if err := settingsStore.Save(context.Background(), cfg); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	return New("sk_test_x", store, settingsStore, metadata.NewAssembler(nil), nil)
}

func TestIntentMetadata_AssemblesOverExisting(t *testing.T) {
	store := &fakeStore{
		order: &model.FakeOrder{OrderID: 1042, OrderTotal: "64.50", CustomerID: 7},
		user:  &model.FakeUser{Meta: map[string]string{"first_name": "Jo"}},
	}
	gw := newTestGateway(t, store, &settings.Settings{
		CartMetadata: []string{"order_id", "order_total"},
		UserMetadata: []string{"first_name"},
	})

	got, err := gw.IntentMetadata(context.Background(), map[string]string{"charge_source": "app"}, 1042)
	if err != nil {
		t.Fatalf("IntentMetadata() error = %v", err)
	}
	want := map[string]string{
		"charge_source": "app",
		"order_id":      "1042",
		"order_total":   "64.50",
		"first_name":    "Jo",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("IntentMetadata() = %v, want %v", got, want)
	}
}

func TestIntentMetadata_UnconfiguredLeavesExisting(t *testing.T) {
	store := &fakeStore{order: &model.FakeOrder{OrderID: 1}}
	gw := newTestGateway(t, store, nil)

	existing := map[string]string{"charge_source": "app"}
	got, err := gw.IntentMetadata(context.Background(), existing, 1)
	if err != nil {
		t.Fatalf("IntentMetadata() error = %v", err)
	}
	if !reflect.DeepEqual(got, existing) {
		t.Errorf("IntentMetadata() = %v, want existing unchanged", got)
	}
}

func TestIntentMetadata_OrderErrorPropagates(t *testing.T) {
	store := &fakeStore{orderErr: model.NewNotFoundError("order")}
	gw := newTestGateway(t, store, &settings.Settings{CartMetadata: []string{"order_id"}})

	_, err := gw.IntentMetadata(context.Background(), nil, 9999)
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("IntentMetadata() error = %v, want ErrNotFound", err)
	}
}

func TestIntentMetadata_CustomerErrorDegrades(t *testing.T) {
	store := &fakeStore{
		order:       &model.FakeOrder{OrderID: 1042, CustomerID: 7},
		customerErr: model.NewUpstreamError("WooCommerce", errors.New("timeout")),
	}
	gw := newTestGateway(t, store, &settings.Settings{
		CartMetadata: []string{"order_id"},
		UserMetadata: []string{"first_name"},
	})

	got, err := gw.IntentMetadata(context.Background(), nil, 1042)
	if err != nil {
		t.Fatalf("IntentMetadata() error = %v, want customer failure swallowed", err)
	}
	want := map[string]string{"order_id": "1042"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("IntentMetadata() = %v, want %v", got, want)
	}
}

func TestApplyToParams(t *testing.T) {
	params := &stripe.PaymentIntentParams{}
	ApplyToParams(map[string]string{"b": "2", "a": "1"}, params)

	want := map[string]string{"a": "1", "b": "2"}
	if !reflect.DeepEqual(params.Metadata, want) {
		t.Errorf("params.Metadata = %v, want %v", params.Metadata, want)
	}
}

func TestMapStripeError(t *testing.T) {
	missing := &stripe.Error{Code: stripe.ErrorCodeResourceMissing}
	if err := mapStripeError(missing); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("mapStripeError(resource_missing) = %v, want ErrNotFound", err)
	}
	if err := mapStripeError(errors.New("boom")); !errors.Is(err, model.ErrUpstreamError) {
		t.Errorf("mapStripeError(other) = %v, want ErrUpstreamError", err)
	}
}
