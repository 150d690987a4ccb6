package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/redseam-storefront/api/middleware"
	"github.com/angelmondragon/redseam-storefront/internal/cart"
	"github.com/angelmondragon/redseam-storefront/internal/header"
	"github.com/angelmondragon/redseam-storefront/internal/products"
	"github.com/angelmondragon/redseam-storefront/internal/users"
	"github.com/angelmondragon/redseam-storefront/internal/views"
	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
	"github.com/angelmondragon/redseam-storefront/pkg/logger"
	"github.com/angelmondragon/redseam-storefront/pkg/storage"
)

type fixture struct {
	sf    *Storefront
	store *cart.Store
	carts cart.Service
	users users.Service
	kv    *storage.Memory
	scope string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	kv := storage.NewMemory()
	store, err := cart.NewStore(kv, cart.StoreOptions{Logger: logger.Nop()})
	if err != nil {
		t.Fatalf("new cart store: %v", err)
	}
	carts, err := cart.NewService(store, nil)
	if err != nil {
		t.Fatalf("new cart service: %v", err)
	}
	repo, err := users.NewRepo(kv, users.DefaultStorageKey)
	if err != nil {
		t.Fatalf("new user repo: %v", err)
	}
	usvc, err := users.NewService(repo, logger.Nop())
	if err != nil {
		t.Fatalf("new user service: %v", err)
	}
	binding, err := header.NewBinding(usvc, carts)
	if err != nil {
		t.Fatalf("new header binding: %v", err)
	}
	renderer, err := views.NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	return &fixture{
		sf: &Storefront{
			Renderer:    renderer,
			Header:      binding,
			Carts:       carts,
			DeliveryFee: decimal.NewFromInt(5),
			Logger:      logger.Nop(),
		},
		store: store,
		carts: carts,
		users: usvc,
		kv:    kv,
		scope: uuid.NewString(),
	}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	if _, err := f.users.Login(context.Background(), f.scope, users.LoginRequest{Username: "nika"}); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func (f *fixture) seed(t *testing.T, line cart.Line) {
	t.Helper()
	if _, err := f.carts.AddOrMerge(context.Background(), f.scope, line); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
}

func (f *fixture) serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	req = req.WithContext(middleware.WithSessionID(req.Context(), f.scope))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func expectBody(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	if !strings.Contains(rec.Body.String(), want) {
		t.Fatalf("expected body to contain %q:\n%s", want, rec.Body.String())
	}
}

type cartEnvelope struct {
	Data struct {
		Lines []struct {
			ProductID string          `json:"productId"`
			Name      string          `json:"name"`
			Price     decimal.Decimal `json:"price"`
			Color     string          `json:"color"`
			Size      string          `json:"size"`
			Quantity  int             `json:"quantity"`
		} `json:"lines"`
		Count    int             `json:"count"`
		Subtotal decimal.Decimal `json:"subtotal"`
		Delivery decimal.Decimal `json:"delivery"`
		Total    decimal.Decimal `json:"total"`
		Fragment struct {
			Badge string `json:"badge"`
			Panel string `json:"panel"`
		} `json:"fragment"`
	} `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartEnvelope {
	t.Helper()
	expectStatus(t, rec, http.StatusOK)
	var env cartEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	return env
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v: %s", err, rec.Body.String())
	}
	return env
}

type stubProducts struct {
	items map[string]products.Product
}

func (s stubProducts) Product(_ context.Context, id string) (*products.Product, error) {
	p, ok := s.items[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

func (stubProducts) Brand(context.Context, string) (*products.Brand, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "brand not found")
}

func teeCatalog() stubProducts {
	return stubProducts{items: map[string]products.Product{
		"7": {
			ID:       "7",
			Name:     "Tee",
			Price:    decimal.NewFromInt(25),
			HasPrice: true,
			Image:    "/img/tee.png",
			Brand:    products.Brand{ID: "3", Name: "Tommy"},
		},
	}}
}

type recordingEnqueuer struct {
	calls [][]cart.Line
}

func (r *recordingEnqueuer) Enqueue(_ context.Context, _ string, lines []cart.Line) {
	r.calls = append(r.calls, lines)
}
