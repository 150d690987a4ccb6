package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/redseam-storefront/api/controllers"
	"github.com/angelmondragon/redseam-storefront/api/routes"
	"github.com/angelmondragon/redseam-storefront/internal/cart"
	"github.com/angelmondragon/redseam-storefront/internal/checkout"
	"github.com/angelmondragon/redseam-storefront/internal/enrichment"
	"github.com/angelmondragon/redseam-storefront/internal/events"
	"github.com/angelmondragon/redseam-storefront/internal/header"
	"github.com/angelmondragon/redseam-storefront/internal/products"
	"github.com/angelmondragon/redseam-storefront/internal/users"
	"github.com/angelmondragon/redseam-storefront/internal/views"
	"github.com/angelmondragon/redseam-storefront/pkg/config"
	"github.com/angelmondragon/redseam-storefront/pkg/db"
	"github.com/angelmondragon/redseam-storefront/pkg/instance"
	"github.com/angelmondragon/redseam-storefront/pkg/logger"
	"github.com/angelmondragon/redseam-storefront/pkg/metrics"
	"github.com/angelmondragon/redseam-storefront/pkg/migrate"
	"github.com/angelmondragon/redseam-storefront/pkg/redis"
	"github.com/angelmondragon/redseam-storefront/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

// backend is the key-value storage the cart and profile live in, plus the
// connections that must be closed on exit.
type backend struct {
	kv      storage.KeyValue
	pinger  storage.Pinger
	closers []io.Closer
}

func (b *backend) Close() error {
	var err error
	for _, c := range b.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Error(context.Background(), "error closing storage", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cartMetrics := metrics.NewCartMetrics(reg)
	enrichMetrics := metrics.NewEnrichmentMetrics(reg)

	fee, err := cfg.Cart.DeliveryFee()
	if err != nil {
		logg.Error(ctx, "invalid delivery fee", err)
		os.Exit(1)
	}

	cartStore, err := cart.NewStore(store.kv, cart.StoreOptions{
		Key:     cfg.Cart.StorageKey,
		Logger:  logg,
		Metrics: cartMetrics,
	})
	must(ctx, logg, "cart store", err)
	carts, err := cart.NewService(cartStore, cartMetrics)
	must(ctx, logg, "cart service", err)

	userRepo, err := users.NewRepo(store.kv, cfg.Cart.UserKey)
	must(ctx, logg, "user repo", err)
	userService, err := users.NewService(userRepo, logg)
	must(ctx, logg, "user service", err)

	binding, err := header.NewBinding(userService, carts)
	must(ctx, logg, "header binding", err)

	productClient := products.NewClient(
		products.WithBaseURL(cfg.ProductAPI.BaseURL),
		products.WithTimeout(cfg.ProductAPI.Timeout),
		products.WithMetrics(enrichMetrics),
	)
	catalog := products.NewCatalog(productClient, cfg.ProductAPI.PageCacheTTL)

	enricher, err := enrichment.New(productClient, carts, enrichment.Options{
		Concurrency: cfg.ProductAPI.EnrichConcurrency,
		Logger:      logg,
		Metrics:     enrichMetrics,
		Disabled:    !cfg.FeatureFlags.Enrichment,
	})
	must(ctx, logg, "enricher", err)

	checkouts, err := checkout.NewService(carts, fee, cartMetrics)
	must(ctx, logg, "checkout service", err)

	renderer, err := views.NewRenderer()
	must(ctx, logg, "renderer", err)

	hub := events.NewHub(events.DefaultBuffer, cartMetrics)
	unsubscribe := cartStore.Subscribe(hub.Publish)
	defer unsubscribe()

	handler := routes.NewRouter(routes.RouterParams{
		Config: cfg,
		Logger: logg,
		Storefront: &controllers.Storefront{
			Renderer:    renderer,
			Header:      binding,
			Carts:       carts,
			DeliveryFee: fee,
			LineImage:   cfg.Cart.DefaultImage,
			Logger:      logg,
		},
		Catalog:  catalog,
		Products: productClient,
		Users:    userService,
		Checkout: checkouts,
		Enricher: enricher,
		Events:   hub,
		Storage:  store.pinger,
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
		"storage":  cfg.Storage.Driver,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.RegisterOnShutdown(hub.Close)

	errCh := make(chan error, 1)
	go func() {
		logg.Info(runCtx, "starting storefront server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(runCtx, "storefront server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	logg.Info(runCtx, "storefront shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(runCtx, "server shutdown failed", err)
	}
	enricher.Wait()
}

// openBackend picks the key-value backend named by REDSEAM_STORAGE_DRIVER.
func openBackend(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*backend, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, err
		}
		return &backend{kv: storage.NewRedis(client), pinger: client, closers: []io.Closer{client}}, nil

	case config.StorageDriverSQL:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, err
		}
		if err := migrate.MaybeRun(ctx, cfg, logg, client); err != nil {
			return nil, multierr.Append(err, client.Close())
		}
		return &backend{kv: storage.NewSQL(client.DB()), pinger: client, closers: []io.Closer{client}}, nil

	default:
		mem := storage.NewMemory()
		return &backend{kv: mem, pinger: mem}, nil
	}
}

func must(ctx context.Context, logg *logger.Logger, what string, err error) {
	if err != nil {
		logg.Error(ctx, "failed to build "+what, err)
		os.Exit(1)
	}
}
