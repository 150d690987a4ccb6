package checkout

import (
	"context"
	"testing"

	"github.com/angelmondragon/redseam-storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
	"github.com/angelmondragon/redseam-storefront/pkg/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type checkoutCounter struct{ n int }

func (c *checkoutCounter) IncCheckout() { c.n++ }

func newCheckout(t *testing.T) (Service, cart.Service, *checkoutCounter) {
	t.Helper()
	store, err := cart.NewStore(storage.NewMemory(), cart.StoreOptions{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	carts, err := cart.NewService(store, nil)
	if err != nil {
		t.Fatalf("new cart service: %v", err)
	}
	counter := &checkoutCounter{}
	svc, err := NewService(carts, cart.DefaultDeliveryFee, counter)
	if err != nil {
		t.Fatalf("new checkout service: %v", err)
	}
	return svc, carts, counter
}

func TestPaySnapshotsTotalsAndClearsCart(t *testing.T) {
	ctx := context.Background()
	svc, carts, counter := newCheckout(t)
	tee := cart.Line{ProductID: "1", Name: "Tee", UnitPrice: decimal.NewFromInt(25), Variant: cart.Variant{Color: "Red", Size: "M"}, Quantity: 1}
	for i := 0; i < 2; i++ {
		if _, err := carts.AddOrMerge(ctx, "s1", tee); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	summary := svc.Summary(ctx, "s1")
	if !summary.Totals.Total.Equal(decimal.NewFromInt(55)) {
		t.Fatalf("expected summary total 55, got %s", summary.Totals.Total)
	}

	conf, err := svc.Pay(ctx, "s1")
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if conf.Reference == uuid.Nil || conf.PaidAt.IsZero() {
		t.Fatalf("confirmation missing reference or time: %+v", conf)
	}
	if !conf.Totals.Subtotal.Equal(decimal.NewFromInt(50)) || !conf.Totals.Total.Equal(decimal.NewFromInt(55)) {
		t.Fatalf("unexpected totals %+v", conf.Totals)
	}
	if len(conf.Lines) != 1 || conf.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected confirmed lines %+v", conf.Lines)
	}
	if lines := carts.Lines(ctx, "s1"); len(lines) != 0 {
		t.Fatalf("cart should be empty after paying, got %+v", lines)
	}
	if counter.n != 1 {
		t.Fatalf("expected one checkout counted, got %d", counter.n)
	}
}

func TestPayEmptyCartIsStateConflict(t *testing.T) {
	svc, _, counter := newCheckout(t)
	_, err := svc.Pay(context.Background(), "s1")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if counter.n != 0 {
		t.Fatalf("failed checkout must not be counted")
	}

	summary := svc.Summary(context.Background(), "s1")
	if !summary.Totals.Total.IsZero() || !summary.Totals.Delivery.IsZero() {
		t.Fatalf("empty cart totals should be zero, got %+v", summary.Totals)
	}
}

func TestNewServiceValidates(t *testing.T) {
	if _, err := NewService(nil, decimal.Zero, nil); err == nil {
		t.Fatal("expected error without cart")
	}
	_, carts, _ := newCheckout(t)
	if _, err := NewService(carts, decimal.NewFromInt(-1), nil); err == nil {
		t.Fatal("expected error for negative fee")
	}
}
