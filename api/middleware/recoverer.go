package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/angelmondragon/redseam-storefront/api/responses"
	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
	"github.com/angelmondragon/redseam-storefront/pkg/logger"
)

// ErrorPage renders err as an HTML page.
type ErrorPage func(w http.ResponseWriter, r *http.Request, err error)

// Recoverer turns a handler panic into a 500. Storefront pages get the HTML
// error page when page is set; /api routes and everything else get the JSON
// error envelope. http.ErrAbortHandler is re-raised so net/http can abort the
// connection quietly.
func Recoverer(logg *logger.Logger, page ErrorPage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err := pkgerrors.Wrap(pkgerrors.CodeInternal, fmt.Errorf("panic: %v", rec), "panic")
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"panic":  fmt.Sprint(rec),
						"method": r.Method,
						"path":   r.URL.Path,
					})
					logg.Error(ctx, "panic.recovered", err)
				}

				if page != nil && wantsPage(r) {
					page(w, r.WithContext(ctx), err)
					return
				}
				responses.WriteError(ctx, logg, w, err)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func wantsPage(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	return r.Method == http.MethodGet || r.Method == http.MethodPost
}
