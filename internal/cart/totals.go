package cart

import "github.com/shopspring/decimal"

// DefaultDeliveryFee is the flat delivery charge on non-empty carts.
var DefaultDeliveryFee = decimal.NewFromInt(5)

// Totals is what the panel footer and checkout summary render.
type Totals struct {
	Subtotal decimal.Decimal
	Delivery decimal.Decimal
	Total    decimal.Decimal
	Count    int
}

// ComputeTotals sums unit price times quantity; delivery is fee when the
// subtotal is positive and zero otherwise.
func ComputeTotals(lines []Line, fee decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal())
	}
	delivery := decimal.Zero
	if subtotal.IsPositive() {
		delivery = fee
	}
	return Totals{
		Subtotal: subtotal,
		Delivery: delivery,
		Total:    subtotal.Add(delivery),
		Count:    Count(lines),
	}
}
