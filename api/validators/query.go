package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	return parseInt(r.URL.Query().Get(key), key, "query parameter", defaultVal, min, max)
}

// ParseFormInt reads an integer form field, falling back to defaultVal when
// the field is blank.
func ParseFormInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	return parseInt(r.PostFormValue(key), key, "form field", defaultVal, min, max)
}

func parseInt(raw, key, kind string, defaultVal, min, max int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, kind+" must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, kind+" out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}
