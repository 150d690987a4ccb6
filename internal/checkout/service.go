// Package checkout simulates payment: it snapshots the cart totals, empties
// the cart and hands back a confirmation. No payment provider is involved.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/redseam-storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type carts interface {
	Lines(ctx context.Context, scope string) []cart.Line
	TakeAll(ctx context.Context, scope string) []cart.Line
}

type checkoutMetrics interface {
	IncCheckout()
}

// Summary is what the checkout page lists before paying.
type Summary struct {
	Lines  []cart.Line
	Totals cart.Totals
}

// Confirmation is the receipt shown in the success dialog.
type Confirmation struct {
	Reference uuid.UUID
	Lines     []cart.Line
	Totals    cart.Totals
	PaidAt    time.Time
}

type Service interface {
	Summary(ctx context.Context, scope string) Summary
	Pay(ctx context.Context, scope string) (*Confirmation, error)
}

type service struct {
	carts   carts
	fee     decimal.Decimal
	metrics checkoutMetrics
	now     func() time.Time
}

// NewService builds the checkout service. metrics may be nil.
func NewService(c carts, deliveryFee decimal.Decimal, metrics checkoutMetrics) (Service, error) {
	if c == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if deliveryFee.IsNegative() {
		return nil, fmt.Errorf("delivery fee must be non-negative")
	}
	return &service{carts: c, fee: deliveryFee, metrics: metrics, now: time.Now}, nil
}

func (s *service) Summary(ctx context.Context, scope string) Summary {
	lines := s.carts.Lines(ctx, scope)
	return Summary{Lines: lines, Totals: cart.ComputeTotals(lines, s.fee)}
}

// Pay takes every line out of the cart and confirms the order. Paying for an
// empty cart is a state conflict.
func (s *service) Pay(ctx context.Context, scope string) (*Confirmation, error) {
	lines := s.carts.TakeAll(ctx, scope)
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	if s.metrics != nil {
		s.metrics.IncCheckout()
	}
	return &Confirmation{
		Reference: uuid.New(),
		Lines:     lines,
		Totals:    cart.ComputeTotals(lines, s.fee),
		PaidAt:    s.now().UTC(),
	}, nil
}
