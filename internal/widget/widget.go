// Package widget holds the static registry of commerce widgets. Each widget
// pairs display metadata with the HTML markup loaded once at startup.
package widget

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrAssetMissing is returned when no markup file exists for a
	// registered widget. It is a startup configuration error.
	ErrAssetMissing = errors.New("widget markup not found")

	// ErrDuplicateWidget is returned when two definitions share an id or a
	// template URI.
	ErrDuplicateWidget = errors.New("duplicate widget")
)

// Definition is the static metadata for a widget.
type Definition struct {
	ID           string
	Title        string
	TemplateURI  string
	Invoking     string
	Invoked      string
	ResponseText string
}

// Widget is a registered widget with its markup.
type Widget struct {
	Definition
	HTML string
}

// Defaults returns the commerce widget definitions served by commerce-mcp.
func Defaults() []Definition {
	return []Definition{
		{
			ID:           "product-carousel",
			Title:        "Show Product Carousel",
			TemplateURI:  "ui://widget/product-carousel.html",
			Invoking:     "Curating products",
			Invoked:      "Products ready to browse",
			ResponseText: "Displaying personalized product recommendations!",
		},
		{
			ID:           "checkout-page",
			Title:        "Show Checkout Page",
			TemplateURI:  "ui://widget/checkout-page.html",
			Invoking:     "Preparing checkout",
			Invoked:      "Checkout ready",
			ResponseText: "Taking you to checkout to complete your purchase!",
		},
		{
			ID:           "shopping-cart",
			Title:        "Show Shopping Cart",
			TemplateURI:  "ui://widget/shopping-cart.html",
			Invoking:     "Loading cart",
			Invoked:      "Cart loaded",
			ResponseText: "Here's your shopping cart with all your items!",
		},
	}
}

// Registry is an immutable lookup table of widgets by id and template URI.
// It is safe for concurrent use.
type Registry struct {
	widgets []*Widget
	byID    map[string]*Widget
	byURI   map[string]*Widget
}

// NewRegistry loads markup for every definition from assets and indexes the
// resulting widgets. Any missing markup fails the whole registry.
func NewRegistry(defs []Definition, assets fs.FS) (*Registry, error) {
	r := &Registry{
		widgets: make([]*Widget, 0, len(defs)),
		byID:    make(map[string]*Widget, len(defs)),
		byURI:   make(map[string]*Widget, len(defs)),
	}

	for _, def := range defs {
		if _, ok := r.byID[def.ID]; ok {
			return nil, fmt.Errorf("%w: id %q", ErrDuplicateWidget, def.ID)
		}
		if _, ok := r.byURI[def.TemplateURI]; ok {
			return nil, fmt.Errorf("%w: template uri %q", ErrDuplicateWidget, def.TemplateURI)
		}

		html, err := LoadHTML(assets, def.ID)
		if err != nil {
			return nil, err
		}

		w := &Widget{Definition: def, HTML: html}
		r.widgets = append(r.widgets, w)
		r.byID[w.ID] = w
		r.byURI[w.TemplateURI] = w
	}

	return r, nil
}

// LoadHTML reads the markup for widget id from assets. It prefers an exact
// "<id>.html"; otherwise it takes the lexicographically last "<id>-*.html".
func LoadHTML(assets fs.FS, id string) (string, error) {
	direct := id + ".html"
	data, err := fs.ReadFile(assets, direct)
	if err == nil {
		if len(data) == 0 {
			return "", fmt.Errorf("%w for %q: %s is empty", ErrAssetMissing, id, direct)
		}
		return string(data), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read %s: %w", direct, err)
	}

	candidates, err := doublestar.Glob(assets, id+"-*.html", doublestar.WithFilesOnly())
	if err != nil {
		return "", fmt.Errorf("%w for %q: %v", ErrAssetMissing, id, err)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w for %q: no %s or %s-*.html in assets", ErrAssetMissing, id, direct, id)
	}
	sort.Strings(candidates)

	fallback := candidates[len(candidates)-1]
	data, err = fs.ReadFile(assets, fallback)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", fallback, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w for %q: %s is empty", ErrAssetMissing, id, fallback)
	}
	return string(data), nil
}

// Lookup returns the widget with the given id.
func (r *Registry) Lookup(id string) (*Widget, bool) {
	w, ok := r.byID[id]
	return w, ok
}

// LookupByURI returns the widget whose template URI is uri.
func (r *Registry) LookupByURI(uri string) (*Widget, bool) {
	w, ok := r.byURI[uri]
	return w, ok
}

// All returns the widgets in registration order.
func (r *Registry) All() []*Widget {
	out := make([]*Widget, len(r.widgets))
	copy(out, r.widgets)
	return out
}

// Len returns the number of registered widgets.
func (r *Registry) Len() int {
	return len(r.widgets)
}
