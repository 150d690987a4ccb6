package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/redseam-storefront/api/controllers"
	"github.com/angelmondragon/redseam-storefront/api/middleware"
	"github.com/angelmondragon/redseam-storefront/internal/checkout"
	"github.com/angelmondragon/redseam-storefront/internal/enrichment"
	"github.com/angelmondragon/redseam-storefront/internal/events"
	"github.com/angelmondragon/redseam-storefront/internal/products"
	"github.com/angelmondragon/redseam-storefront/internal/users"
	"github.com/angelmondragon/redseam-storefront/pkg/config"
	"github.com/angelmondragon/redseam-storefront/pkg/logger"
	"github.com/angelmondragon/redseam-storefront/pkg/storage"
)

// RouterParams carries everything the HTTP surface is built from. Enricher,
// Storage and Metrics are optional.
type RouterParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	Storefront *controllers.Storefront
	Catalog    *products.Catalog
	Products   *products.Client
	Users      users.Service
	Checkout   checkout.Service
	Enricher   *enrichment.Enricher
	Events     *events.Hub
	Storage    storage.Pinger
	Metrics    http.Handler
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg, sf := p.Config, p.Logger, p.Storefront

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg, sf.RenderError),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Storage))
	})
	if p.Metrics != nil {
		r.Handle("/metrics", p.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(cfg.Session, logg))

		r.Get("/", controllers.ProductListing(sf, p.Catalog))
		r.Get("/products/{id}", controllers.ProductDetail(sf, p.Products))

		r.Get("/login", controllers.LoginPage(sf))
		r.Post("/login", controllers.LoginSubmit(sf, p.Users))
		r.Post("/logout", controllers.Logout(sf, p.Users))
		r.Post("/avatar", controllers.AvatarUpload(sf, p.Users))
		r.Post("/avatar/remove", controllers.AvatarRemove(sf, p.Users))

		r.Get("/checkout", controllers.CheckoutPage(sf))
		r.Post("/checkout/pay", controllers.CheckoutPay(sf, p.Checkout))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/panel", controllers.CartPanel(sf))
			r.Post("/items", controllers.CartAddForm(sf, p.Products))
			r.Post("/lines/step", controllers.CartStepForm(sf))
			r.Post("/lines/remove", controllers.CartRemoveForm(sf))
			r.Post("/clear", controllers.CartClearForm(sf))
		})

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(middleware.CORS(cfg.App.CORSOrigins))

			addItem := controllers.CartAddItem(sf, nil)
			if p.Enricher != nil {
				addItem = controllers.CartAddItem(sf, p.Enricher)
			}

			r.Get("/header", controllers.HeaderState(sf))
			r.Get("/cart", controllers.CartGet(sf))
			r.Delete("/cart", controllers.CartClear(sf))
			r.Post("/cart/items", addItem)
			r.Patch("/cart/lines", controllers.CartUpdateLine(sf))
			r.Delete("/cart/lines", controllers.CartRemoveLine(sf))
			r.Get("/cart/events", controllers.CartEvents(sf, p.Events))
			r.Post("/checkout", controllers.CheckoutAPI(sf, p.Checkout))
		})

		r.NotFound(controllers.NotFound(sf))
	})

	return r
}
