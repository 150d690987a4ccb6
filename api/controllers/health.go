package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/redseam-storefront/api/responses"
	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
	"github.com/angelmondragon/redseam-storefront/pkg/config"
	"github.com/angelmondragon/redseam-storefront/pkg/logger"
	"github.com/angelmondragon/redseam-storefront/pkg/storage"
)

const readyTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Redseam-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the storage backend. A nil pinger reports ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, store storage.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Redseam-Env", cfg.App.Env)
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storage not ready").
					WithDetails(map[string]string{"storage": cfg.Storage.Driver}))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready", "storage": cfg.Storage.Driver})
	}
}
