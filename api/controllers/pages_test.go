package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/redseam-storefront/internal/cart"
	"github.com/angelmondragon/redseam-storefront/internal/checkout"
	"github.com/angelmondragon/redseam-storefront/internal/products"
	"github.com/angelmondragon/redseam-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
	"github.com/angelmondragon/redseam-storefront/pkg/pagination"
)

type stubListing struct {
	gotPage  int
	gotQuery products.Query
	err      error
}

func (s *stubListing) Page(_ context.Context, page int, q products.Query) (products.Listing, error) {
	s.gotPage, s.gotQuery = page, q
	if s.err != nil {
		return products.Listing{}, s.err
	}
	items := []products.Product{{ID: "7", Name: "Tee", Price: decimal.NewFromInt(25), HasPrice: true}}
	return products.Listing{Items: items, Pager: pagination.Build(page, true), Query: q}, nil
}

func newCheckout(t *testing.T, f *fixture) checkout.Service {
	t.Helper()
	svc, err := checkout.NewService(f.carts, decimal.NewFromInt(5), nil)
	if err != nil {
		t.Fatalf("new checkout service: %v", err)
	}
	return svc
}

func TestProductListingPassesFiltersThrough(t *testing.T) {
	f := newFixture(t)
	listing := &stubListing{}

	rec := f.serve(ProductListing(f.sf, listing), httptest.NewRequest(http.MethodGet, "/?page=2&price_from=10&price_to=40&sort=low", nil))
	expectStatus(t, rec, http.StatusOK)
	if listing.gotPage != 2 {
		t.Fatalf("expected page 2, got %d", listing.gotPage)
	}
	if want := (products.Query{From: "10", To: "40", Sort: products.SortLow}); listing.gotQuery != want {
		t.Fatalf("expected query %+v, got %+v", want, listing.gotQuery)
	}
	expectBody(t, rec, `href="/products/7"`)
	expectBody(t, rec, "$ 25.00")
}

func TestProductListingUpstreamFailureRendersErrorPage(t *testing.T) {
	f := newFixture(t)
	listing := &stubListing{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("dial tcp"), "product api unavailable")}

	rec := f.serve(ProductListing(f.sf, listing), httptest.NewRequest(http.MethodGet, "/", nil))
	expectStatus(t, rec, http.StatusServiceUnavailable)
	expectBody(t, rec, "upstream service unavailable")
	if strings.Contains(rec.Body.String(), "dial tcp") {
		t.Fatal("upstream error details leaked into the page")
	}
}

func TestProductDetailRendersAndGatesAddButton(t *testing.T) {
	f := newFixture(t)
	router := chi.NewRouter()
	router.Get("/products/{id}", ProductDetail(f.sf, teeCatalog()))

	rec := f.serve(router, httptest.NewRequest(http.MethodGet, "/products/7", nil))
	expectStatus(t, rec, http.StatusOK)
	for _, want := range []string{"<h1 class=\"fs-4 fw-bold mb-3\">Tee</h1>", "$ 25", "Tommy", "Log in to add to cart"} {
		expectBody(t, rec, want)
	}

	f.login(t)
	rec = f.serve(router, httptest.NewRequest(http.MethodGet, "/products/7", nil))
	expectBody(t, rec, `id="addToCartBtn"`)

	rec = f.serve(router, httptest.NewRequest(http.MethodGet, "/products/404", nil))
	expectStatus(t, rec, http.StatusNotFound)
	expectBody(t, rec, "product not found")
}

func TestCheckoutPayFlow(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	pay := CheckoutPay(f.sf, newCheckout(t, f))

	rec := f.serve(pay, httptest.NewRequest(http.MethodPost, "/checkout/pay", nil))
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	expectBody(t, rec, "cart is empty")

	f.seed(t, cart.Line{ProductID: "7", Name: "Tee", UnitPrice: decimal.NewFromInt(25), Quantity: 2})

	page := f.serve(CheckoutPage(f.sf), httptest.NewRequest(http.MethodGet, "/checkout?cart=open", nil))
	expectStatus(t, page, http.StatusOK)
	expectBody(t, page, "$ 55.00")
	expectBody(t, page, `id="payButton"`)
	if strings.Contains(page.Body.String(), `class="cart-open"`) {
		t.Fatal("the panel never opens over checkout")
	}

	rec = f.serve(pay, httptest.NewRequest(http.MethodPost, "/checkout/pay", nil))
	expectStatus(t, rec, http.StatusOK)
	expectBody(t, rec, "Congrats!")
	expectBody(t, rec, "$ 55.00")
	if lines := f.carts.Lines(context.Background(), f.scope); len(lines) != 0 {
		t.Fatalf("paying should empty the cart, got %+v", lines)
	}
}

func TestCheckoutRequiresLogin(t *testing.T) {
	f := newFixture(t)
	svc := newCheckout(t, f)
	f.seed(t, cart.Line{ProductID: "7", Name: "Tee", UnitPrice: decimal.NewFromInt(25), Quantity: 2})

	page := f.serve(CheckoutPage(f.sf), httptest.NewRequest(http.MethodGet, "/checkout", nil))
	expectStatus(t, page, http.StatusSeeOther)
	if loc := page.Header().Get("Location"); loc != "/login?return=%2Fcheckout" {
		t.Fatalf("unexpected redirect %s", loc)
	}

	rec := f.serve(CheckoutPay(f.sf, svc), httptest.NewRequest(http.MethodPost, "/checkout/pay", nil))
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = f.serve(CheckoutAPI(f.sf, svc), httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil))
	expectStatus(t, rec, http.StatusUnauthorized)
	if code := decodeError(t, rec).Error.Code; code != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED, got %s", code)
	}

	if lines := f.carts.Lines(context.Background(), f.scope); len(lines) != 1 {
		t.Fatalf("anonymous pay must not clear the cart, got %+v", lines)
	}
}

func TestCheckoutAPIReturnsConfirmation(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	svc := newCheckout(t, f)
	f.seed(t, cart.Line{ProductID: "7", UnitPrice: decimal.NewFromInt(25), Quantity: 2})

	rec := f.serve(CheckoutAPI(f.sf, svc), httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil))
	expectStatus(t, rec, http.StatusCreated)
	expectBody(t, rec, `"total":"55"`)

	rec = f.serve(CheckoutAPI(f.sf, svc), httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil))
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	if code := decodeError(t, rec).Error.Code; code != "STATE_CONFLICT" {
		t.Fatalf("expected STATE_CONFLICT, got %s", code)
	}
}

func TestNotFoundRendersErrorPage(t *testing.T) {
	f := newFixture(t)
	rec := f.serve(NotFound(f.sf), httptest.NewRequest(http.MethodGet, "/nope", nil))
	expectStatus(t, rec, http.StatusNotFound)
	expectBody(t, rec, "page not found")
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthEndpoints(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}, Storage: config.StorageConfig{Driver: "memory"}}

	rec := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	expectStatus(t, rec, http.StatusOK)
	if env := rec.Header().Get("X-Redseam-Env"); env != "dev" {
		t.Fatalf("expected env header dev, got %q", env)
	}

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, stubPinger{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	expectStatus(t, rec, http.StatusOK)

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, stubPinger{err: errors.New("down")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	expectStatus(t, rec, http.StatusServiceUnavailable)
}
