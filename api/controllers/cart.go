package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/angelmondragon/redseam-storefront/api/responses"
	"github.com/angelmondragon/redseam-storefront/api/validators"
	"github.com/angelmondragon/redseam-storefront/internal/cart"
	"github.com/angelmondragon/redseam-storefront/internal/products"
	"github.com/angelmondragon/redseam-storefront/internal/views"
	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
)

type lineEnqueuer interface {
	Enqueue(ctx context.Context, scope string, lines []cart.Line)
}

type cartProductSource interface {
	Product(ctx context.Context, id string) (*products.Product, error)
}

// writeCart answers a JSON cart call with the state and the repainted badge
// and panel. The panel state and return page come from the query.
func (s *Storefront) writeCart(w http.ResponseWriter, r *http.Request, scope string, lines []cart.Line) {
	q := r.URL.Query()
	chrome := s.chromeFor(s.Header.Resolve(r.Context(), scope), lines, views.PanelFromQuery(q), returnTarget(q.Get("return")))
	responses.WriteSuccess(w, newCartResponse(lines, s.DeliveryFee, s.fragment(r.Context(), chrome)))
}

// CartGet handles GET /api/v1/cart.
func CartGet(sf *Storefront) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requireScope(r)
		if err != nil {
			responses.WriteError(r.Context(), sf.Logger, w, err)
			return
		}
		sf.writeCart(w, r, scope, sf.Carts.Lines(r.Context(), scope))
	}
}

// CartAddItem handles POST /api/v1/cart/items. The line is stored with the
// client's data right away; enrich may refresh it from the product API later.
func CartAddItem(sf *Storefront, enrich lineEnqueuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := sf.requireMember(r)
		if err != nil {
			responses.WriteError(r.Context(), sf.Logger, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), sf.Logger, w, err)
			return
		}
		line := payload.toLine()

		lines, err := sf.Carts.AddOrMerge(r.Context(), scope, line)
		if err != nil {
			responses.WriteError(r.Context(), sf.Logger, w, err)
			return
		}
		if enrich != nil {
			enrich.Enqueue(r.Context(), scope, []cart.Line{line})
		}
		sf.writeCart(w, r, scope, lines)
	}
}

// CartUpdateLine handles PATCH /api/v1/cart/lines.
func CartUpdateLine(sf *Storefront) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := sf.requireMember(r)
		if err != nil {
			responses.WriteError(r.Context(), sf.Logger, w, err)
			return
		}

		var payload updateLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), sf.Logger, w, err)
			return
		}
		if err := payload.validate(); err != nil {
			responses.WriteError(r.Context(), sf.Logger, w, err)
			return
		}

		var lines []cart.Line
		if payload.Quantity != nil {
			lines = sf.Carts.SetQuantity(r.Context(), scope, payload.Key, *payload.Quantity)
		} else {
			lines = sf.Carts.Step(r.Context(), scope, payload.Key, *payload.Delta)
		}
		sf.writeCart(w, r, scope, lines)
	}
}

// CartRemoveLine handles DELETE /api/v1/cart/lines. Removing an absent line
// is not an error.
func CartRemoveLine(sf *Storefront) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := sf.requireMember(r)
		if err != nil {
			responses.WriteError(r.Context(), sf.Logger, w, err)
			return
		}

		var key cart.Key
		if err := validators.DecodeJSONBody(r, &key); err != nil {
			responses.WriteError(r.Context(), sf.Logger, w, err)
			return
		}
		sf.writeCart(w, r, scope, sf.Carts.Remove(r.Context(), scope, key))
	}
}

// CartClear handles DELETE /api/v1/cart.
func CartClear(sf *Storefront) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := sf.requireMember(r)
		if err != nil {
			responses.WriteError(r.Context(), sf.Logger, w, err)
			return
		}
		sf.writeCart(w, r, scope, sf.Carts.Clear(r.Context(), scope))
	}
}

// CartPanel handles GET /cart/panel?state=open&event=escape and renders the
// panel after applying the event.
func CartPanel(sf *Storefront) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requireScope(r)
		if err != nil {
			responses.WriteError(r.Context(), sf.Logger, w, err)
			return
		}

		q := r.URL.Query()
		state := views.PanelClosed
		if q.Get("state") == views.PanelOpenValue {
			state = views.PanelOpen
		}
		next := state.Next(views.ParseEvent(q.Get("event")))
		chrome := sf.chrome(r.Context(), scope, next, returnTarget(q.Get("return")))

		w.Header().Set("X-Cart-Panel", chrome.Panel.String())
		err = responses.WriteHTML(w, http.StatusOK, func(out io.Writer) error {
			return sf.Renderer.Panel(out, chrome)
		})
		if err != nil {
			responses.WriteError(r.Context(), sf.Logger, w, err)
		}
	}
}

// CartAddForm handles POST /cart/items from the product page. Name, price and
// image come from the product API, not the form.
func CartAddForm(sf *Storefront, source cartProductSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := sf.requireMember(r)
		if err != nil {
			sf.renderError(w, r, err)
			return
		}
		if err := r.ParseForm(); err != nil {
			sf.renderError(w, r, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form"))
			return
		}

		id := validators.SanitizeString(r.PostFormValue("product_id"), 128)
		if id == "" {
			sf.renderError(w, r, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}
		quantity, err := validators.ParseFormInt(r, "quantity", cart.MinQuantity, cart.MinQuantity, products.MaxSelectQuantity)
		if err != nil {
			sf.renderError(w, r, err)
			return
		}

		p, err := source.Product(r.Context(), id)
		if err != nil {
			sf.renderError(w, r, err)
			return
		}
		line := products.BuildDetail(*p, sf.LineImage).CartLine(products.Selection{
			Color:    r.PostFormValue("color"),
			Size:     r.PostFormValue("size"),
			Quantity: quantity,
		})
		if _, err := sf.Carts.AddOrMerge(r.Context(), scope, line); err != nil {
			sf.renderError(w, r, err)
			return
		}
		responses.Redirect(w, r, returnTarget(r.PostFormValue("return")))
	}
}

// CartStepForm handles POST /cart/lines/step, the panel's +/- controls.
func CartStepForm(sf *Storefront) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, key, ok := sf.formLine(w, r)
		if !ok {
			return
		}
		delta, err := validators.ParseFormInt(r, "delta", 0, -99, 99)
		if err != nil {
			sf.renderError(w, r, err)
			return
		}
		sf.Carts.Step(r.Context(), scope, key, delta)
		responses.Redirect(w, r, returnTarget(r.PostFormValue("return")))
	}
}

// CartRemoveForm handles POST /cart/lines/remove.
func CartRemoveForm(sf *Storefront) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, key, ok := sf.formLine(w, r)
		if !ok {
			return
		}
		sf.Carts.Remove(r.Context(), scope, key)
		responses.Redirect(w, r, returnTarget(r.PostFormValue("return")))
	}
}

// CartClearForm handles POST /cart/clear.
func CartClearForm(sf *Storefront) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := sf.requireMember(r)
		if err != nil {
			sf.renderError(w, r, err)
			return
		}
		sf.Carts.Clear(r.Context(), scope)
		responses.Redirect(w, r, returnTarget(r.PostFormValue("return")))
	}
}

// formLine reads the line key every panel form posts. It renders the error
// page itself and reports ok=false on failure.
func (s *Storefront) formLine(w http.ResponseWriter, r *http.Request) (string, cart.Key, bool) {
	scope, err := s.requireMember(r)
	if err != nil {
		s.renderError(w, r, err)
		return "", cart.Key{}, false
	}
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form"))
		return "", cart.Key{}, false
	}
	key := cart.Key{
		ProductID: r.PostFormValue("product_id"),
		Color:     r.PostFormValue("color"),
		Size:      r.PostFormValue("size"),
	}
	if err := validators.ValidateStruct(key); err != nil {
		s.renderError(w, r, err)
		return "", cart.Key{}, false
	}
	return scope, key, true
}
