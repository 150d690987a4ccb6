// Package cart owns the persisted shopping cart: the ordered line list kept in
// the visitor's key-value storage, the mutations applied to it, and the totals
// every view derives from it.
package cart

import (
	"github.com/shopspring/decimal"
)

const (
	// MinQuantity is the floor every line quantity is clamped to.
	MinQuantity = 1
	// DefaultName is shown for lines added without a product name.
	DefaultName = "Untitled product"
)

// Variant is the free-text selection that, with the product id, identifies a line.
type Variant struct {
	Color string `json:"color"`
	Size  string `json:"size"`
}

// Key is the merge key of a line: at most one line exists per key.
type Key struct {
	ProductID string `json:"productId" validate:"required"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

// Line is one purchasable selection.
type Line struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	ImageRef  string
	Variant   Variant
	Quantity  int
}

func (l Line) Key() Key {
	return Key{ProductID: l.ProductID, Color: l.Variant.Color, Size: l.Variant.Size}
}

// LineTotal is unit price times quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// VariantLabel renders "color • size" the way the panel and checkout rows show it.
func (l Line) VariantLabel() string {
	return l.Variant.Color + " • " + l.Variant.Size
}

// Count is the badge number: the sum of quantities, or the line count when
// the quantities add up to nothing.
func Count(lines []Line) int {
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	if total == 0 {
		return len(lines)
	}
	return total
}

func indexOf(lines []Line, key Key) int {
	for i, line := range lines {
		if line.Key() == key {
			return i
		}
	}
	return -1
}

func clampQuantity(n int) int {
	if n < MinQuantity {
		return MinQuantity
	}
	return n
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
