// Package views renders the storefront pages and the cart fragments (badge
// and off-canvas panel) from embedded html/template files.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/angelmondragon/redseam-storefront/internal/products"
	"github.com/angelmondragon/redseam-storefront/pkg/types"
)

//go:embed templates
var templateFS embed.FS

const (
	PageListing      = "listing"
	PageProduct      = "product"
	PageCheckout     = "checkout"
	PageConfirmation = "confirmation"
	PageLogin        = "login"
	PageError        = "error"
)

var (
	pageNames = []string{PageListing, PageProduct, PageCheckout, PageConfirmation, PageLogin, PageError}
	hexColor  = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// Renderer holds one parsed template set per page, each sharing the layout
// and partials.
type Renderer struct {
	pages    map[string]*template.Template
	partials *template.Template
}

func NewRenderer() (*Renderer, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	base, err := template.New("base").Funcs(funcs()).ParseFS(sub, "layout.html", "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames)), partials: base}
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		page, err := clone.ParseFS(sub, "pages/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		r.pages[name] = page
	}
	return r, nil
}

// Page renders a full page.
func (r *Renderer) Page(w io.Writer, name string, page Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", page)
}

// Badge renders the header badge.
func (r *Renderer) Badge(w io.Writer, count int) error {
	return r.partials.ExecuteTemplate(w, "badge", count)
}

// Panel renders the off-canvas panel for chrome.
func (r *Renderer) Panel(w io.Writer, chrome Chrome) error {
	return r.partials.ExecuteTemplate(w, "panel", chrome)
}

// Fragment renders badge and panel as strings for JSON and SSE payloads.
func (r *Renderer) Fragment(chrome Chrome) (types.Fragment, error) {
	var badge, panel bytes.Buffer
	if err := r.Badge(&badge, chrome.Header.CartCount); err != nil {
		return types.Fragment{}, err
	}
	if err := r.Panel(&panel, chrome); err != nil {
		return types.Fragment{}, err
	}
	return types.Fragment{Badge: badge.String(), Panel: panel.String()}, nil
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"money":    Money,
		"pageHref": pageHref,
		"dataURL":  imageDataURL,
		"css":      colorCSS,
	}
}

// pageHref links to a listing page, keeping the active filter and sort.
func pageHref(page int, q products.Query) string {
	values := url.Values{}
	values.Set("page", strconv.Itoa(page))
	if q.From != "" {
		values.Set("price_from", q.From)
	}
	if q.To != "" {
		values.Set("price_to", q.To)
	}
	if q.Sort != "" {
		values.Set("sort", q.Sort)
	}
	return "/?" + values.Encode()
}

// imageDataURL marks stored avatar data URLs as safe for src attributes. Any
// other value renders as an empty URL.
func imageDataURL(raw string) template.URL {
	if strings.HasPrefix(raw, "data:image/") {
		return template.URL(raw)
	}
	return ""
}

func colorCSS(raw string) template.CSS {
	if hexColor.MatchString(raw) {
		return template.CSS(raw)
	}
	return template.CSS("#f5f5f5")
}

