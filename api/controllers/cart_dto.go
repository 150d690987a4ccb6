package controllers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/redseam-storefront/internal/cart"
	"github.com/angelmondragon/redseam-storefront/internal/checkout"
	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
	"github.com/angelmondragon/redseam-storefront/pkg/types"
)

type addItemRequest struct {
	ProductID string           `json:"productId" validate:"required,max=128"`
	Name      string           `json:"name" validate:"max=256"`
	Price     *decimal.Decimal `json:"price"`
	Image     string           `json:"image" validate:"max=2048"`
	Color     string           `json:"color" validate:"max=64"`
	Size      string           `json:"size" validate:"max=64"`
	Quantity  int              `json:"quantity" validate:"gte=0,lte=99"`
}

func (r addItemRequest) toLine() cart.Line {
	price := decimal.Zero
	if r.Price != nil {
		price = *r.Price
	}
	return cart.Line{
		ProductID: r.ProductID,
		Name:      r.Name,
		UnitPrice: price,
		ImageRef:  r.Image,
		Variant:   cart.Variant{Color: r.Color, Size: r.Size},
		Quantity:  r.Quantity,
	}
}

// updateLineRequest sets quantity or applies delta; exactly one is required.
type updateLineRequest struct {
	cart.Key
	Quantity *int `json:"quantity"`
	Delta    *int `json:"delta"`
}

func (r updateLineRequest) validate() error {
	if (r.Quantity == nil) == (r.Delta == nil) {
		return pkgerrors.New(pkgerrors.CodeValidation, "exactly one of quantity or delta is required").
			WithDetails(map[string]string{"quantity": "xor delta"})
	}
	return nil
}

type lineResponse struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Color     string          `json:"color"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type cartResponse struct {
	Lines    []lineResponse  `json:"lines"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Delivery decimal.Decimal `json:"delivery"`
	Total    decimal.Decimal `json:"total"`
	Fragment types.Fragment  `json:"fragment"`
}

func newLineResponses(lines []cart.Line) []lineResponse {
	out := make([]lineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.UnitPrice,
			Image:     l.ImageRef,
			Color:     l.Variant.Color,
			Size:      l.Variant.Size,
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal(),
		})
	}
	return out
}

func newCartResponse(lines []cart.Line, fee decimal.Decimal, frag types.Fragment) cartResponse {
	totals := cart.ComputeTotals(lines, fee)
	return cartResponse{
		Lines:    newLineResponses(lines),
		Count:    totals.Count,
		Subtotal: totals.Subtotal,
		Delivery: totals.Delivery,
		Total:    totals.Total,
		Fragment: frag,
	}
}

type confirmationResponse struct {
	Reference string          `json:"reference"`
	Lines     []lineResponse  `json:"lines"`
	Count     int             `json:"count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Delivery  decimal.Decimal `json:"delivery"`
	Total     decimal.Decimal `json:"total"`
	PaidAt    time.Time       `json:"paidAt"`
}

func newConfirmationResponse(c *checkout.Confirmation) confirmationResponse {
	return confirmationResponse{
		Reference: c.Reference.String(),
		Lines:     newLineResponses(c.Lines),
		Count:     c.Totals.Count,
		Subtotal:  c.Totals.Subtotal,
		Delivery:  c.Totals.Delivery,
		Total:     c.Totals.Total,
		PaidAt:    c.PaidAt,
	}
}
