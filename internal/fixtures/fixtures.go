// Package fixtures holds the mock commerce data returned by the widget
// handlers. The tables are plain YAML embedded into the binary; nothing here
// computes anything, and the summary totals are literal values.
package fixtures

import (
	"bytes"
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var data embed.FS

// Product is a catalog entry shown by the product carousel.
type Product struct {
	ID            int      `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Price         float64  `yaml:"price" json:"price"`
	OriginalPrice *float64 `yaml:"originalPrice" json:"originalPrice,omitempty"`
	Rating        float64  `yaml:"rating" json:"rating"`
	Reviews       int      `yaml:"reviews" json:"reviews"`
	Thumbnail     string   `yaml:"thumbnail" json:"thumbnail"`
	Category      string   `yaml:"category" json:"category"`
	InStock       bool     `yaml:"inStock" json:"inStock"`
	Badge         string   `yaml:"badge" json:"badge,omitempty"`
}

// Catalog is the product listing.
type Catalog struct {
	TotalProducts int       `yaml:"totalProducts"`
	Products      []Product `yaml:"products"`
}

// CartItem is a line in the shopping cart.
type CartItem struct {
	ID            int      `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Price         float64  `yaml:"price" json:"price"`
	OriginalPrice *float64 `yaml:"originalPrice" json:"originalPrice,omitempty"`
	Quantity      int      `yaml:"quantity" json:"quantity"`
	Thumbnail     string   `yaml:"thumbnail" json:"thumbnail"`
	Category      string   `yaml:"category" json:"category"`
	InStock       bool     `yaml:"inStock" json:"inStock"`
}

// CartSummary holds the cart totals.
type CartSummary struct {
	TotalItems int     `yaml:"totalItems" json:"totalItems"`
	Subtotal   float64 `yaml:"subtotal" json:"subtotal"`
	Tax        float64 `yaml:"tax" json:"tax"`
	Shipping   float64 `yaml:"shipping" json:"shipping"`
	Total      float64 `yaml:"total" json:"total"`
}

// Cart is the mock shopping cart.
type Cart struct {
	Items   []CartItem  `yaml:"items"`
	Summary CartSummary `yaml:"summary"`
}

// CheckoutItem is a line on the checkout page.
type CheckoutItem struct {
	ID        int     `yaml:"id" json:"id"`
	Name      string  `yaml:"name" json:"name"`
	Price     float64 `yaml:"price" json:"price"`
	Quantity  int     `yaml:"quantity" json:"quantity"`
	Thumbnail string  `yaml:"thumbnail" json:"thumbnail"`
}

// CheckoutSummary holds the checkout totals.
type CheckoutSummary struct {
	Subtotal float64 `yaml:"subtotal" json:"subtotal"`
	Tax      float64 `yaml:"tax" json:"tax"`
	Shipping float64 `yaml:"shipping" json:"shipping"`
	Total    float64 `yaml:"total" json:"total"`
}

// Checkout is the mock checkout order.
type Checkout struct {
	Items   []CheckoutItem  `yaml:"items"`
	Summary CheckoutSummary `yaml:"summary"`
}

// Set bundles every fixture table.
type Set struct {
	Catalog  Catalog
	Cart     Cart
	Checkout Checkout
}

// Load decodes the embedded fixture tables.
func Load() (*Set, error) {
	var s Set
	if err := decode("data/products.yaml", &s.Catalog); err != nil {
		return nil, err
	}
	if err := decode("data/cart.yaml", &s.Cart); err != nil {
		return nil, err
	}
	if err := decode("data/checkout.yaml", &s.Checkout); err != nil {
		return nil, err
	}
	return &s, nil
}

// MustLoad is like Load but panics on error. The tables are compiled in, so a
// failure here is a build defect.
func MustLoad() *Set {
	s, err := Load()
	if err != nil {
		panic(err)
	}
	return s
}

func decode(name string, out any) error {
	raw, err := data.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read fixture %s: %w", name, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode fixture %s: %w", name, err)
	}
	return nil
}
