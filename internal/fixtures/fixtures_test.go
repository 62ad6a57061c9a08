package fixtures

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Catalog(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	require.Len(t, s.Catalog.Products, 6)
	assert.Equal(t, 6, s.Catalog.TotalProducts)
	for i, p := range s.Catalog.Products {
		assert.Equal(t, i+1, p.ID)
		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.Thumbnail)
	}

	first := s.Catalog.Products[0]
	assert.Equal(t, "Wireless Noise-Cancelling Headphones", first.Name)
	require.NotNil(t, first.OriginalPrice)
	assert.Equal(t, 399.99, *first.OriginalPrice)
	assert.Equal(t, "Best Seller", first.Badge)

	keyboard := s.Catalog.Products[5]
	assert.False(t, keyboard.InStock)
	assert.Nil(t, keyboard.OriginalPrice)
	assert.Empty(t, keyboard.Badge)
}

func TestLoad_Cart(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	require.Len(t, s.Cart.Items, 3)
	assert.Equal(t, []int{1, 2, 3}, cartIDs(s.Cart.Items))

	var qty int
	var subtotal float64
	for _, it := range s.Cart.Items {
		qty += it.Quantity
		subtotal += it.Price * float64(it.Quantity)
	}
	assert.Equal(t, s.Cart.Summary.TotalItems, qty)
	assert.InDelta(t, s.Cart.Summary.Subtotal, subtotal, 0.001)
	assert.InDelta(t, s.Cart.Summary.Subtotal+s.Cart.Summary.Tax+s.Cart.Summary.Shipping, s.Cart.Summary.Total, 0.001)

	assert.Equal(t, 1108.97, s.Cart.Summary.Subtotal)
	assert.Equal(t, 1208.78, s.Cart.Summary.Total)
}

func TestLoad_Checkout(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	require.Len(t, s.Checkout.Items, 3)

	var subtotal float64
	for _, it := range s.Checkout.Items {
		subtotal += it.Price * float64(it.Quantity)
	}
	assert.InDelta(t, s.Checkout.Summary.Subtotal, subtotal, 0.001)
	assert.InDelta(t, s.Checkout.Summary.Subtotal+s.Checkout.Summary.Tax+s.Checkout.Summary.Shipping, s.Checkout.Summary.Total, 0.001)
	assert.Equal(t, 892.68, s.Checkout.Summary.Total)
	assert.Equal(t, 5, s.Checkout.Items[2].ID)
}

func TestProduct_JSONOmitsOptionalFields(t *testing.T) {
	s := MustLoad()

	raw, err := json.Marshal(s.Catalog.Products[3])
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.NotContains(t, m, "originalPrice")
	assert.NotContains(t, m, "badge")
	assert.Equal(t, "Footwear", m["category"])
	assert.Equal(t, true, m["inStock"])
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	var c Cart
	err := decode("data/products.yaml", &c)
	assert.Error(t, err)
}

func cartIDs(items []CartItem) []int {
	ids := make([]int, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}
