package controllers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/redseam-storefront/api/responses"
	"github.com/angelmondragon/redseam-storefront/internal/checkout"
	"github.com/angelmondragon/redseam-storefront/internal/products"
	"github.com/angelmondragon/redseam-storefront/internal/views"
	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
	"github.com/angelmondragon/redseam-storefront/pkg/pagination"
)

type listingSource interface {
	Page(ctx context.Context, page int, q products.Query) (products.Listing, error)
}

type productSource interface {
	Product(ctx context.Context, id string) (*products.Product, error)
	Brand(ctx context.Context, id string) (*products.Brand, error)
}

// ProductListing renders GET /.
func ProductListing(sf *Storefront, catalog listingSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requireScope(r)
		if err != nil {
			sf.renderError(w, r, err)
			return
		}

		q := r.URL.Query()
		query := products.Query{
			From: q.Get("price_from"),
			To:   q.Get("price_to"),
			Sort: q.Get("sort"),
		}
		listing, err := catalog.Page(r.Context(), pagination.ParsePage(q.Get("page")), query)
		if err != nil {
			sf.renderError(w, r, err)
			return
		}

		sf.page(w, r, http.StatusOK, views.PageListing, "Products", sf.requestChrome(r, scope), listing)
	}
}

// ProductDetail renders GET /products/{id}.
func ProductDetail(sf *Storefront, source productSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requireScope(r)
		if err != nil {
			sf.renderError(w, r, err)
			return
		}

		p, err := source.Product(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			sf.renderError(w, r, err)
			return
		}
		detail := products.BuildDetail(*p, sf.LineImage)
		detail.ResolveBrand(r.Context(), source)

		chrome := sf.requestChrome(r, scope)
		body := views.ProductBody{
			Detail:   detail,
			CanAdd:   chrome.Header.LoggedIn,
			ReturnTo: chrome.ReturnTo,
		}
		sf.page(w, r, http.StatusOK, views.PageProduct, detail.Title, chrome, body)
	}
}

// CheckoutPage renders GET /checkout. The panel never opens over checkout, and
// anonymous visitors are sent to log in first.
func CheckoutPage(sf *Storefront) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requireScope(r)
		if err != nil {
			sf.renderError(w, r, err)
			return
		}
		chrome := sf.chrome(r.Context(), scope, views.PanelClosed, r.URL.Path)
		if !chrome.Header.LoggedIn {
			responses.Redirect(w, r, "/login?return="+url.QueryEscape(r.URL.Path))
			return
		}
		sf.page(w, r, http.StatusOK, views.PageCheckout, "Checkout", chrome, nil)
	}
}

// CheckoutPay handles POST /checkout/pay and renders the confirmation.
func CheckoutPay(sf *Storefront, svc checkout.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := sf.requireMember(r)
		if err != nil {
			sf.renderError(w, r, err)
			return
		}

		conf, err := svc.Pay(r.Context(), scope)
		if err != nil {
			sf.renderError(w, r, err)
			return
		}
		if sf.Logger != nil {
			ctx := sf.Logger.WithFields(r.Context(), map[string]any{
				"reference": conf.Reference.String(),
				"items":     conf.Totals.Count,
				"total":     conf.Totals.Total.String(),
			})
			sf.Logger.Info(ctx, "checkout.paid")
		}

		body := views.ConfirmationBody{
			Reference: conf.Reference.String(),
			Items:     conf.Totals.Count,
			Total:     views.Money(conf.Totals.Total),
		}
		chrome := sf.chrome(r.Context(), scope, views.PanelClosed, "/")
		sf.page(w, r, http.StatusOK, views.PageConfirmation, "Order placed", chrome, body)
	}
}

// CheckoutAPI handles POST /api/v1/checkout.
func CheckoutAPI(sf *Storefront, svc checkout.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := sf.requireMember(r)
		if err != nil {
			responses.WriteError(r.Context(), sf.Logger, w, err)
			return
		}
		conf, err := svc.Pay(r.Context(), scope)
		if err != nil {
			responses.WriteError(r.Context(), sf.Logger, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newConfirmationResponse(conf))
	}
}

// NotFound renders the error page for unknown routes.
func NotFound(sf *Storefront) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sf.renderError(w, r, pkgerrors.New(pkgerrors.CodeNotFound, "page not found"))
	}
}
