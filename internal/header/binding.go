// Package header decides which affordances the page header shows: a login
// link for anonymous visitors, or the cart button with its badge and the
// avatar control once a user record exists.
package header

import (
	"context"
	"errors"

	"github.com/angelmondragon/redseam-storefront/internal/cart"
	"github.com/angelmondragon/redseam-storefront/internal/users"
)

type View struct {
	LoggedIn  bool   `json:"logged_in"`
	Username  string `json:"username,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	CartCount int    `json:"cart_count"`
}

// ShowUpload reports whether the upload control replaces the avatar image.
func (v View) ShowUpload() bool {
	return v.LoggedIn && v.Avatar == ""
}

type profiles interface {
	Current(ctx context.Context, scope string) *users.Record
}

type carts interface {
	Lines(ctx context.Context, scope string) []cart.Line
}

type Binding struct {
	users profiles
	carts carts
}

func NewBinding(u profiles, c carts) (*Binding, error) {
	if u == nil || c == nil {
		return nil, errors.New("header binding requires users and cart")
	}
	return &Binding{users: u, carts: c}, nil
}

// LoggedIn reports whether scope has a user record, which the cart is tied to.
func (b *Binding) LoggedIn(ctx context.Context, scope string) bool {
	return b.users.Current(ctx, scope).LoggedIn()
}

// Resolve reads the user record fresh on every call. The cart is only read
// for logged-in visitors since anonymous headers carry no badge.
func (b *Binding) Resolve(ctx context.Context, scope string) View {
	rec := b.users.Current(ctx, scope)
	if !rec.LoggedIn() {
		return View{}
	}
	return View{
		LoggedIn:  true,
		Username:  rec.Username,
		Avatar:    rec.Avatar,
		CartCount: cart.Count(b.carts.Lines(ctx, scope)),
	}
}
