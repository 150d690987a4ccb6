package middleware

import (
	"net/http"
	"time"

	"github.com/angelmondragon/redseam-storefront/pkg/auth"
	"github.com/angelmondragon/redseam-storefront/pkg/config"
	"github.com/angelmondragon/redseam-storefront/pkg/logger"
)

// Session resolves the visitor's storage scope from the signed session
// cookie. A missing, tampered or expired cookie starts a fresh session, the
// same way a new browser starts with empty local storage. A valid cookie past
// half its lifetime is reissued for the same scope, so the session only lapses
// after a full TTL of inactivity.
func Session(cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			now := time.Now()

			var sid string
			refresh := true
			if cookie, err := r.Cookie(cfg.CookieName); err == nil {
				if claims, err := auth.ParseSessionToken(cfg, cookie.Value); err == nil {
					sid = claims.SessionID
					refresh = claims.NeedsRefresh(cfg, now)
				} else if logg != nil {
					logg.Debug(logg.WithField(ctx, "error", err.Error()), "session cookie rejected")
				}
			}

			if sid == "" {
				sid = auth.NewSessionID()
			}
			if refresh {
				token, err := auth.MintSessionToken(cfg, now, sid)
				if err != nil {
					if logg != nil {
						logg.Error(ctx, "session.mint_failed", err)
					}
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(cfg.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx = WithSessionID(ctx, sid)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sid)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
