package controllers

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/redseam-storefront/api/middleware"
	"github.com/angelmondragon/redseam-storefront/api/responses"
	"github.com/angelmondragon/redseam-storefront/internal/cart"
	"github.com/angelmondragon/redseam-storefront/internal/header"
	"github.com/angelmondragon/redseam-storefront/internal/views"
	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
	"github.com/angelmondragon/redseam-storefront/pkg/logger"
	"github.com/angelmondragon/redseam-storefront/pkg/types"
)

// Storefront bundles what every page and cart fragment is rendered with.
type Storefront struct {
	Renderer    *views.Renderer
	Header      *header.Binding
	Carts       cart.Service
	DeliveryFee decimal.Decimal
	LineImage   string
	Logger      *logger.Logger
}

func requireScope(r *http.Request) (string, error) {
	scope := middleware.SessionIDFromContext(r.Context())
	if scope == "" {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "session context missing")
	}
	return scope, nil
}

// requireMember resolves the scope of a visitor with a user record. Every
// cart write, the cart stream and payment go through it.
func (s *Storefront) requireMember(r *http.Request) (string, error) {
	scope, err := requireScope(r)
	if err != nil {
		return "", err
	}
	if !s.Header.LoggedIn(r.Context(), scope) {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "log in to use the cart")
	}
	return scope, nil
}

// chrome reads the header and cart of scope fresh.
func (s *Storefront) chrome(ctx context.Context, scope string, panel views.PanelState, returnTo string) views.Chrome {
	return s.chromeFor(s.Header.Resolve(ctx, scope), s.Carts.Lines(ctx, scope), panel, returnTo)
}

// chromeFor builds chrome around lines a mutation just produced, so the badge
// and panel show the same state.
func (s *Storefront) chromeFor(h header.View, lines []cart.Line, panel views.PanelState, returnTo string) views.Chrome {
	if h.LoggedIn {
		h.CartCount = cart.Count(lines)
	}
	return views.NewChrome(h, views.BuildCart(lines, s.DeliveryFee, s.LineImage), panel, returnTo)
}

func (s *Storefront) requestChrome(r *http.Request, scope string) views.Chrome {
	return s.chrome(r.Context(), scope, views.PanelFromQuery(r.URL.Query()), r.URL.RequestURI())
}

func (s *Storefront) page(w http.ResponseWriter, r *http.Request, status int, name, title string, chrome views.Chrome, body any) {
	page := views.Page{Title: title, Chrome: chrome, Body: body}
	err := responses.WriteHTML(w, status, func(out io.Writer) error {
		return s.Renderer.Page(out, name, page)
	})
	if err != nil {
		responses.LogError(r.Context(), s.Logger, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderError shows the error page with the status err maps to.
// RenderError renders err as the storefront error page. The router hands it
// to the panic recoverer.
func (s *Storefront) RenderError(w http.ResponseWriter, r *http.Request, err error) {
	s.renderError(w, r, err)
}

func (s *Storefront) renderError(w http.ResponseWriter, r *http.Request, err error) {
	_, meta := responses.Resolve(err)
	if meta.HTTPStatus >= http.StatusInternalServerError {
		responses.LogError(r.Context(), s.Logger, err)
	} else if s.Logger != nil {
		s.Logger.Info(s.Logger.WithField(r.Context(), "error", err.Error()), "request.rejected")
	}

	chrome := views.NewChrome(header.View{}, views.BuildCart(nil, s.DeliveryFee, s.LineImage), views.PanelClosed, "/")
	if scope := middleware.SessionIDFromContext(r.Context()); scope != "" {
		chrome = s.chrome(r.Context(), scope, views.PanelClosed, r.URL.Path)
	}
	s.page(w, r, meta.HTTPStatus, views.PageError, "Something went wrong", chrome, views.ErrorBody{Message: responses.PublicMessage(err)})
}

func (s *Storefront) fragment(ctx context.Context, chrome views.Chrome) types.Fragment {
	frag, err := s.Renderer.Fragment(chrome)
	if err != nil {
		responses.LogError(ctx, s.Logger, err)
		return types.Fragment{}
	}
	return frag
}

// returnTarget reads the local page a form wants to land on, keeping its
// panel state. Anything that is not a relative URL lands on the listing.
func returnTarget(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "/"
	}
	return views.WithPanel(raw, views.PanelFromQuery(u.Query()))
}
