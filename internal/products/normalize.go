package products

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The upstream API has used several names for the same field over time. The
// first present key wins.
var (
	idKeys          = []string{"id", "_id", "product_id", "productId"}
	nameKeys        = []string{"name", "title", "product_name", "productName"}
	priceKeys       = []string{"price", "unit_price", "cost", "price_value", "amount"}
	imageKeys       = []string{"image", "image_url", "imageUrl", "cover_image"}
	colorKeys       = []string{"colors", "available_colors"}
	sizeKeys        = []string{"sizes", "available_sizes", "availableSizes", "availableSizesList", "size_options", "available_size"}
	createdKeys     = []string{"created_at", "createdAt", "date"}
	descriptionKeys = []string{"description", "details"}
	brandNameKeys   = []string{"name", "title", "brand_name"}
	brandImageKeys  = []string{"image", "logo", "image_url", "photo"}
	colorNameKeys   = []string{"name", "color"}
	colorHexKeys    = []string{"hex", "color_hex"}
	colorImageKeys  = []string{"image", "image_url", "src"}
	listKeys        = []string{"data", "items", "products", "result"}

	digitsOnly = regexp.MustCompile(`^\d+$`)
)

// Product is the canonical product record every caller works with.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	HasPrice    bool
	Image       string
	Images      []string
	Colors      []Color
	Sizes       []string
	Brand       Brand
	Description string
	CreatedAt   time.Time
}

type Color struct {
	Name  string
	Hex   string
	Image string
}

type Brand struct {
	ID    string
	Name  string
	Image string
}

type object map[string]any

// decodeObject parses a response body, unwrapping {"data": {...}} envelopes.
func decodeObject(body []byte) (object, error) {
	var payload any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object payload, got %T", payload)
	}
	if inner, ok := obj["data"].(map[string]any); ok {
		return inner, nil
	}
	return obj, nil
}

// decodeList parses a listing body: a bare array, or an array under one of
// data, items, products or result.
func decodeList(body []byte) ([]object, error) {
	var payload any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	var items []any
	switch v := payload.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, key := range listKeys {
			if arr, ok := v[key].([]any); ok {
				items = arr
				break
			}
		}
	}
	out := make([]object, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out, nil
}

// Normalize maps one upstream payload onto Product.
func Normalize(obj map[string]any) Product {
	o := object(obj)
	p := Product{
		ID:          o.text(idKeys...),
		Name:        o.text(nameKeys...),
		Description: o.text(descriptionKeys...),
		Images:      o.strings("images"),
		Colors:      o.colors(),
		Sizes:       o.sizes(),
		Brand:       o.brand(),
		CreatedAt:   o.time(createdKeys...),
	}
	if price, ok := o.decimal(priceKeys...); ok {
		p.Price = price
		p.HasPrice = true
	}
	p.Image = o.text(imageKeys...)
	if p.Image == "" && len(p.Images) > 0 {
		p.Image = p.Images[0]
	}
	if p.Image == "" {
		p.Image = o.text("photo")
	}
	return p
}

func (o object) first(keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := o[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (o object) text(keys ...string) string {
	v, ok := o.first(keys...)
	if !ok {
		return ""
	}
	return scalarText(v)
}

func (o object) decimal(keys ...string) (decimal.Decimal, bool) {
	v, ok := o.first(keys...)
	if !ok {
		return decimal.Zero, false
	}
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(scalarText(v)), "$"))
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func (o object) strings(key string) []string {
	arr, ok := o[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s := scalarText(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (o object) time(keys ...string) time.Time {
	text := o.text(keys...)
	if text == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, text); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (o object) colors() []Color {
	for _, key := range colorKeys {
		arr, ok := o[key].([]any)
		if !ok || len(arr) == 0 {
			continue
		}
		out := make([]Color, 0, len(arr))
		for _, item := range arr {
			switch v := item.(type) {
			case map[string]any:
				c := object(v)
				out = append(out, Color{
					Name:  c.text(colorNameKeys...),
					Hex:   c.text(colorHexKeys...),
					Image: c.text(colorImageKeys...),
				})
			default:
				out = append(out, Color{Name: scalarText(v)})
			}
		}
		return out
	}
	return nil
}

func (o object) sizes() []string {
	for _, key := range sizeKeys {
		if sizes := o.strings(key); len(sizes) > 0 {
			return sizes
		}
	}
	if size := o.text("size"); size != "" {
		return []string{size}
	}
	return nil
}

// brand accepts an embedded object, a name, or an id (numeric or digit string).
func (o object) brand() Brand {
	switch v := o["brand"].(type) {
	case map[string]any:
		b := object(v)
		return Brand{
			ID:    b.text("id"),
			Name:  b.text(brandNameKeys...),
			Image: b.text(brandImageKeys...),
		}
	case json.Number:
		return Brand{ID: v.String()}
	case string:
		if digitsOnly.MatchString(v) {
			return Brand{ID: v}
		}
		if v != "" {
			return Brand{Name: v}
		}
	}
	if id := o.text("brand_id", "brandId"); id != "" {
		return Brand{ID: id}
	}
	return Brand{Name: o.text("brand_name")}
}

// NormalizeBrand maps a /brands/{id} payload.
func NormalizeBrand(obj map[string]any) Brand {
	b := object(obj)
	return Brand{
		ID:    b.text("id"),
		Name:  b.text(brandNameKeys...),
		Image: b.text(brandImageKeys...),
	}
}

func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return decimal.NewFromFloat(t).String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
