package views

import (
	"fmt"

	"github.com/angelmondragon/redseam-storefront/internal/cart"
	"github.com/angelmondragon/redseam-storefront/internal/header"
	"github.com/angelmondragon/redseam-storefront/internal/products"
	"github.com/shopspring/decimal"
)

const (
	EmptyStateText    = "Ooops! You’ve got nothing in your cart just yet…"
	StartShoppingText = "Start shopping"
	DefaultLineImage  = "/assets/img/jersey1.png"
)

// LineView is one rendered cart row.
type LineView struct {
	ProductID    string
	Color        string
	Size         string
	Name         string
	Image        string
	VariantLabel string
	Quantity     int
	UnitPrice    string
	LinePrice    string
	CanDecrement bool
}

// CartView is the render model shared by the panel and the checkout page.
type CartView struct {
	Lines    []LineView
	Count    int
	Subtotal string
	Delivery string
	Total    string
	Empty    bool
}

func (c CartView) Title() string {
	return fmt.Sprintf("Shopping cart (%d)", c.Count)
}

func (c CartView) EmptyText() string { return EmptyStateText }

// BuildCart renders lines into a CartView. It is a pure function of its input.
func BuildCart(lines []cart.Line, fee decimal.Decimal, defaultImage string) CartView {
	if defaultImage == "" {
		defaultImage = DefaultLineImage
	}
	totals := cart.ComputeTotals(lines, fee)
	view := CartView{
		Count:    totals.Count,
		Subtotal: Money(totals.Subtotal),
		Delivery: Money(totals.Delivery),
		Total:    Money(totals.Total),
		Empty:    len(lines) == 0,
		Lines:    make([]LineView, 0, len(lines)),
	}
	for _, line := range lines {
		image := line.ImageRef
		if image == "" {
			image = defaultImage
		}
		view.Lines = append(view.Lines, LineView{
			ProductID:    line.ProductID,
			Color:        line.Variant.Color,
			Size:         line.Variant.Size,
			Name:         line.Name,
			Image:        image,
			VariantLabel: line.VariantLabel(),
			Quantity:     line.Quantity,
			UnitPrice:    Money(line.UnitPrice),
			LinePrice:    Money(line.LineTotal()),
			CanDecrement: line.Quantity > cart.MinQuantity,
		})
	}
	return view
}

// Money formats an amount the way the storefront prints prices.
func Money(d decimal.Decimal) string {
	return "$ " + d.StringFixed(2)
}

// Chrome is the header and cart panel wrapped around every page.
type Chrome struct {
	Header    header.View
	Cart      CartView
	Panel     PanelState
	ReturnTo  string
	OpenHref  string
	CloseHref string
}

// NewChrome builds the page chrome. ReturnTo is the page the visitor is on;
// forms post it back so redirects land on the same page.
func NewChrome(h header.View, c CartView, panel PanelState, returnTo string) Chrome {
	if !h.LoggedIn {
		panel = PanelClosed
	}
	return Chrome{
		Header:    h,
		Cart:      c,
		Panel:     panel,
		ReturnTo:  WithPanel(returnTo, panel),
		OpenHref:  WithPanel(returnTo, panel.Next(EventActivate)),
		CloseHref: WithPanel(returnTo, panel.Next(EventCloseControl)),
	}
}

// PanelOpen reports whether the panel markup is visible.
func (c Chrome) PanelOpen() bool {
	return c.Panel == PanelOpen
}

// Page is the data handed to every full-page template.
type Page struct {
	Title  string
	Chrome Chrome
	Body   any
}

// ProductBody is the product page body.
type ProductBody struct {
	Detail   products.Detail
	CanAdd   bool
	ReturnTo string
}

// LoginBody is the login page body.
type LoginBody struct {
	Username string
	Error    string
	ReturnTo string
}

// ConfirmationBody is the checkout success body.
type ConfirmationBody struct {
	Reference string
	Items     int
	Total     string
}

// ErrorBody is rendered in place of page content on failures.
type ErrorBody struct {
	Message string
}
