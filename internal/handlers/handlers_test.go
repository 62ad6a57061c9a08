package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/commerce-mcp/internal/catalog"
	"github.com/standardbeagle/commerce-mcp/internal/fixtures"
)

type countingSource struct {
	calls atomic.Int32
	err   error
}

func (s *countingSource) Simulate(context.Context) error {
	s.calls.Add(1)
	return s.err
}

func newTestSet(src *countingSource) *Set {
	return NewSet(Deps{
		Fixtures:   fixtures.MustLoad(),
		Latency:    src,
		AppVersion: "1.3",
	})
}

func toMap(t *testing.T, v any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestSet_Lookup(t *testing.T) {
	s := newTestSet(&countingSource{})

	for _, k := range Kinds {
		h, ok := s.Lookup(string(k))
		assert.True(t, ok, string(k))
		assert.NotNil(t, h)
	}

	_, ok := s.Lookup("wishlist")
	assert.False(t, ok)
}

func TestShoppingCart(t *testing.T) {
	src := &countingSource{}
	h, _ := newTestSet(src).Lookup("shopping-cart")

	out, err := h.Handle(context.Background(), catalog.Args{Query: "x"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())

	m := toMap(t, out)
	assert.Equal(t, "1.3", m["appVersion"])
	assert.Equal(t, CartInstruction, m["_instruction"])

	cart := m["cart"].(map[string]any)
	assert.Len(t, cart["items"], 3)
	assert.Equal(t, true, cart["_displayOnly"])

	meta := m["_meta"].(map[string]any)
	assert.Equal(t, 1208.78, meta["total"])
	assert.Equal(t, 1108.97, meta["subtotal"])
	assert.Equal(t, 99.81, meta["tax"])
	assert.Equal(t, 0.0, meta["shipping"])
	assert.Equal(t, 4.0, meta["totalItems"])
}

func TestProductCarousel_Defaults(t *testing.T) {
	h, _ := newTestSet(&countingSource{}).Lookup("product-carousel")

	out, err := h.Handle(context.Background(), catalog.Args{Query: "headphones"})
	require.NoError(t, err)

	p := out.(*CarouselPayload)
	assert.Equal(t, "headphones", p.Query)
	assert.Equal(t, "All", p.Category)
	assert.Equal(t, CarouselInstruction, p.Instruction)
	assert.Len(t, p.Products.Items, 6)
	assert.True(t, p.Products.DisplayOnly)
	assert.Equal(t, CarouselMeta{TotalProducts: 6, FilteredBy: "All", SortedBy: "default"}, p.Meta)
}

func TestProductCarousel_EchoesArgs(t *testing.T) {
	h, _ := newTestSet(&countingSource{}).Lookup("product-carousel")

	out, err := h.Handle(context.Background(), catalog.Args{Query: "shoes", Category: "Footwear", SortBy: "rating"})
	require.NoError(t, err)

	p := out.(*CarouselPayload)
	assert.Equal(t, "Footwear", p.Category)
	assert.Equal(t, "Footwear", p.Meta.FilteredBy)
	assert.Equal(t, "rating", p.Meta.SortedBy)
	// The listing is mock data and is never filtered.
	assert.Len(t, p.Products.Items, 6)
}

func TestCheckoutPage(t *testing.T) {
	h, _ := newTestSet(&countingSource{}).Lookup("checkout-page")

	out, err := h.Handle(context.Background(), catalog.Args{Query: "x"})
	require.NoError(t, err)

	m := toMap(t, out)
	assert.Equal(t, CheckoutInstruction, m["_instruction"])
	items := m["checkout"].(map[string]any)["items"].([]any)
	require.Len(t, items, 3)
	assert.NotContains(t, items[0], "category")

	meta := m["_meta"].(map[string]any)
	assert.Equal(t, 892.68, meta["total"])
	assert.Equal(t, 818.97, meta["subtotal"])
	assert.Equal(t, 1.0, meta["step"])
}

func TestLatencyFailureIsSwallowed(t *testing.T) {
	src := &countingSource{err: errors.New("network down")}
	s := newTestSet(src)

	for _, k := range Kinds {
		h, _ := s.Lookup(string(k))
		out, err := h.Handle(context.Background(), catalog.Args{Query: "x"})
		require.NoError(t, err, string(k))
		assert.NotNil(t, out)
	}
	assert.Equal(t, int32(len(Kinds)), src.calls.Load())
}

func TestPayloadKeyOrder(t *testing.T) {
	h, _ := newTestSet(&countingSource{}).Lookup("product-carousel")
	out, err := h.Handle(context.Background(), catalog.Args{Query: "q"})
	require.NoError(t, err)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Regexp(t, `^\{"appVersion":"1.3","query":"q","category":"All","_instruction":.*,"products":\{"items":\[.*\],"_displayOnly":true\},"_meta":\{.*\}\}$`, string(raw))
}

func TestPayloadsDoNotShareFixtureSlices(t *testing.T) {
	fx := fixtures.MustLoad()
	s := NewSet(Deps{Fixtures: fx, AppVersion: "1.3"})
	h, _ := s.Lookup("shopping-cart")

	out, err := h.Handle(context.Background(), catalog.Args{Query: "x"})
	require.NoError(t, err)
	out.(*CartPayload).Cart.Items[0].Name = "changed"

	assert.Equal(t, "Wireless Noise-Cancelling Headphone", fx.Cart.Items[0].Name)
}

func TestNewSetFrom(t *testing.T) {
	called := false
	s := NewSetFrom(map[Kind]Handler{
		ShoppingCart: HandlerFunc(func(context.Context, catalog.Args) (any, error) {
			called = true
			return map[string]any{}, nil
		}),
	})

	h, ok := s.Lookup("shopping-cart")
	require.True(t, ok)
	_, err := h.Handle(context.Background(), catalog.Args{})
	require.NoError(t, err)
	assert.True(t, called)

	_, ok = s.Lookup("checkout-page")
	assert.False(t, ok)
}
