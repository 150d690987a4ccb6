package cart

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name     string
		lines    []Line
		subtotal string
		delivery string
		total    string
		count    int
	}{
		{name: "empty", lines: nil, subtotal: "0", delivery: "0", total: "0", count: 0},
		{
			name: "single tee twice",
			lines: []Line{
				{ProductID: "1", UnitPrice: decimal.NewFromInt(25), Quantity: 2},
			},
			subtotal: "50", delivery: "5", total: "55", count: 2,
		},
		{
			name: "mixed with decimals",
			lines: []Line{
				{ProductID: "1", UnitPrice: decimal.RequireFromString("19.99"), Quantity: 3},
				{ProductID: "2", UnitPrice: decimal.RequireFromString("0.01"), Quantity: 1},
			},
			subtotal: "59.98", delivery: "5", total: "64.98", count: 4,
		},
		{
			name: "free items",
			lines: []Line{
				{ProductID: "1", UnitPrice: decimal.Zero, Quantity: 2},
			},
			subtotal: "0", delivery: "0", total: "0", count: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.lines, DefaultDeliveryFee)
			if !got.Subtotal.Equal(decimal.RequireFromString(tt.subtotal)) {
				t.Fatalf("subtotal: want %s got %s", tt.subtotal, got.Subtotal)
			}
			if !got.Delivery.Equal(decimal.RequireFromString(tt.delivery)) {
				t.Fatalf("delivery: want %s got %s", tt.delivery, got.Delivery)
			}
			if !got.Total.Equal(decimal.RequireFromString(tt.total)) {
				t.Fatalf("total: want %s got %s", tt.total, got.Total)
			}
			if got.Count != tt.count {
				t.Fatalf("count: want %d got %d", tt.count, got.Count)
			}
		})
	}
}

func TestCountFallsBackToLineCount(t *testing.T) {
	lines := []Line{{ProductID: "1"}, {ProductID: "2"}}
	if got := Count(lines); got != 2 {
		t.Fatalf("expected line-count fallback 2, got %d", got)
	}
	if got := Count(nil); got != 0 {
		t.Fatalf("expected 0 for empty cart, got %d", got)
	}
}

func TestLineHelpers(t *testing.T) {
	line := Line{ProductID: "1", UnitPrice: decimal.NewFromInt(25), Variant: Variant{Color: "Red", Size: "M"}, Quantity: 3}
	if !line.LineTotal().Equal(decimal.NewFromInt(75)) {
		t.Fatalf("unexpected line total %s", line.LineTotal())
	}
	if line.VariantLabel() != "Red • M" {
		t.Fatalf("unexpected variant label %q", line.VariantLabel())
	}
	if line.Key() != (Key{ProductID: "1", Color: "Red", Size: "M"}) {
		t.Fatalf("unexpected key %+v", line.Key())
	}
}
