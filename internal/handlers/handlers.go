// Package handlers produces the mock payloads returned by the widget tools.
//
// Each handler waits on the latency source, then returns a canned payload
// built from the fixture tables. A real deployment would replace a handler
// with a call into a catalog, cart or checkout service without changing the
// router.
package handlers

import (
	"context"

	"github.com/standardbeagle/commerce-mcp/internal/catalog"
	"github.com/standardbeagle/commerce-mcp/internal/fixtures"
	"github.com/standardbeagle/commerce-mcp/internal/latency"
	"github.com/standardbeagle/commerce-mcp/internal/logging"
)

// Kind identifies a widget handler. Values equal the widget ids.
type Kind string

const (
	ProductCarousel Kind = "product-carousel"
	CheckoutPage    Kind = "checkout-page"
	ShoppingCart    Kind = "shopping-cart"
)

// Kinds lists every handler kind.
var Kinds = []Kind{ProductCarousel, CheckoutPage, ShoppingCart}

// Instructions tell the model not to repeat what the widget already shows.
const (
	CarouselInstruction = "Products are displayed in the widget below. Do not list them in your response."
	CartInstruction     = "Shopping cart is displayed in the widget below. Do not list items in your response."
	CheckoutInstruction = "Checkout page is displayed in the widget below. Do not describe the checkout process in your response."
)

// Handler produces the structured payload for one tool call. Args have
// already been validated.
type Handler interface {
	Handle(ctx context.Context, args catalog.Args) (any, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, args catalog.Args) (any, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, args catalog.Args) (any, error) {
	return f(ctx, args)
}

// Deps are the collaborators shared by every handler.
type Deps struct {
	Fixtures   *fixtures.Set
	Latency    latency.Source
	AppVersion string
	Logger     logging.Logger
}

// Set is the dispatch table from Kind to Handler.
type Set struct {
	handlers map[Kind]Handler
}

// NewSet builds the handler for every Kind.
func NewSet(deps Deps) *Set {
	if deps.Fixtures == nil {
		deps.Fixtures = fixtures.MustLoad()
	}
	if deps.Latency == nil {
		deps.Latency = latency.None{}
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	b := base{deps: deps}
	return &Set{handlers: map[Kind]Handler{
		ProductCarousel: &carousel{base: b},
		CheckoutPage:    &checkout{base: b},
		ShoppingCart:    &cart{base: b},
	}}
}

// NewSetFrom builds a Set from explicit handlers.
func NewSetFrom(handlers map[Kind]Handler) *Set {
	s := &Set{handlers: make(map[Kind]Handler, len(handlers))}
	for k, h := range handlers {
		s.handlers[k] = h
	}
	return s
}

// Lookup returns the handler for the widget id.
func (s *Set) Lookup(id string) (Handler, bool) {
	h, ok := s.handlers[Kind(id)]
	return h, ok
}

// List is a display-only collection embedded in a payload.
type List[T any] struct {
	Items       []T  `json:"items"`
	DisplayOnly bool `json:"_displayOnly"`
}

func displayOnly[T any](items []T) List[T] {
	out := make([]T, len(items))
	copy(out, items)
	return List[T]{Items: out, DisplayOnly: true}
}

type base struct {
	deps Deps
}

// simulate waits on the latency source. Failures never fail the call.
func (b base) simulate(ctx context.Context, kind Kind) {
	if err := b.deps.Latency.Simulate(ctx); err != nil {
		b.deps.Logger.Debug("latency simulation failed", "tool", string(kind), "error", err)
	}
}
