package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/redseam-storefront/internal/cart"
	"github.com/shopspring/decimal"
)

const (
	DefaultProductImage = "/assets/img/jersey1.png"
	DefaultBrandImage   = "/assets/img/tommy.png"
	MaxSelectQuantity   = 10
)

var defaultSizes = []string{"S", "M"}

type Thumbnail struct {
	Src    string
	Color  string
	Active bool
}

type Swatch struct {
	Name   string
	Hex    string
	Image  string
	Active bool
}

type SizeOption struct {
	Label  string
	Active bool
}

// Detail is everything the product page renders.
type Detail struct {
	Product     Product
	Title       string
	PriceLabel  string
	MainImage   string
	Thumbnails  []Thumbnail
	Swatches    []Swatch
	Sizes       []SizeOption
	Quantities  []int
	Brand       Brand
	Description string
}

// Selection is what the visitor picked on the product page.
type Selection struct {
	Color    string
	Size     string
	Quantity int
}

// BuildDetail derives the page model. Color images drive the thumbnails when
// present; otherwise swatches named "Color N" are derived from the images so
// thumbnails and swatches stay paired.
func BuildDetail(p Product, defaultImage string) Detail {
	if defaultImage == "" {
		defaultImage = DefaultProductImage
	}
	d := Detail{
		Product:     p,
		Title:       p.Name,
		Brand:       p.Brand,
		Description: p.Description,
	}
	if d.Title == "" {
		d.Title = cart.DefaultName
	}
	if p.HasPrice {
		d.PriceLabel = "$ " + p.Price.String()
	}

	if len(p.Colors) > 0 {
		for _, c := range p.Colors {
			src := c.Image
			if src == "" {
				src = defaultImage
			}
			d.Thumbnails = append(d.Thumbnails, Thumbnail{Src: src, Color: c.Name})
			d.Swatches = append(d.Swatches, Swatch{Name: c.Name, Hex: c.Hex, Image: c.Image})
		}
	} else {
		images := p.Images
		if len(images) == 0 && p.Image != "" {
			images = []string{p.Image}
		}
		if len(images) == 0 {
			images = []string{defaultImage}
		}
		for i, src := range images {
			name := fmt.Sprintf("Color %d", i+1)
			d.Thumbnails = append(d.Thumbnails, Thumbnail{Src: src, Color: name})
			d.Swatches = append(d.Swatches, Swatch{Name: name, Image: src})
		}
	}
	d.Thumbnails[0].Active = true
	d.Swatches[0].Active = true
	d.MainImage = d.Thumbnails[0].Src

	sizes := p.Sizes
	if len(sizes) == 0 {
		sizes = defaultSizes
	}
	for i, s := range sizes {
		d.Sizes = append(d.Sizes, SizeOption{Label: s, Active: i == 0})
	}

	for q := 1; q <= MaxSelectQuantity; q++ {
		d.Quantities = append(d.Quantities, q)
	}
	if d.Brand.Image == "" {
		d.Brand.Image = DefaultBrandImage
	}
	return d
}

type brandSource interface {
	Brand(ctx context.Context, id string) (*Brand, error)
}

// ResolveBrand fills the brand name and logo when the payload only carried an
// id. Lookup failures leave the detail unchanged.
func (d *Detail) ResolveBrand(ctx context.Context, source brandSource) {
	if d.Brand.Name != "" || d.Brand.ID == "" || source == nil {
		return
	}
	b, err := source.Brand(ctx, d.Brand.ID)
	if err != nil || b == nil {
		return
	}
	if b.Name != "" {
		d.Brand.Name = b.Name
	}
	if b.Image != "" {
		d.Brand.Image = b.Image
	}
}

// CartLine builds the add-to-cart candidate for sel. The image is the chosen
// color's image, falling back to the main image.
func (d Detail) CartLine(sel Selection) cart.Line {
	image := d.MainImage
	for _, s := range d.Swatches {
		if s.Name == sel.Color && s.Image != "" {
			image = s.Image
			break
		}
	}
	price := decimal.Zero
	if d.Product.HasPrice {
		price = d.Product.Price
	}
	return cart.Line{
		ProductID: d.Product.ID,
		Name:      d.Title,
		UnitPrice: price,
		ImageRef:  image,
		Variant: cart.Variant{
			Color: strings.TrimSpace(sel.Color),
			Size:  strings.TrimSpace(sel.Size),
		},
		Quantity: sel.Quantity,
	}
}
