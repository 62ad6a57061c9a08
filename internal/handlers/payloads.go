package handlers

import (
	"context"

	"github.com/standardbeagle/commerce-mcp/internal/catalog"
	"github.com/standardbeagle/commerce-mcp/internal/fixtures"
)

const (
	defaultCategory = "All"
	defaultSort     = "default"
	checkoutStep    = 1
)

// CarouselMeta echoes the effective filter and sort.
type CarouselMeta struct {
	TotalProducts int    `json:"totalProducts"`
	FilteredBy    string `json:"filteredBy"`
	SortedBy      string `json:"sortedBy"`
}

// CarouselPayload is returned by the product-carousel tool.
type CarouselPayload struct {
	AppVersion  string                 `json:"appVersion"`
	Query       string                 `json:"query"`
	Category    string                 `json:"category"`
	Instruction string                 `json:"_instruction"`
	Products    List[fixtures.Product] `json:"products"`
	Meta        CarouselMeta           `json:"_meta"`
}

// CartPayload is returned by the shopping-cart tool.
type CartPayload struct {
	AppVersion  string                  `json:"appVersion"`
	Instruction string                  `json:"_instruction"`
	Cart        List[fixtures.CartItem] `json:"cart"`
	Meta        fixtures.CartSummary    `json:"_meta"`
}

// CheckoutMeta is the checkout summary plus the current step.
type CheckoutMeta struct {
	fixtures.CheckoutSummary
	Step int `json:"step"`
}

// CheckoutPayload is returned by the checkout-page tool.
type CheckoutPayload struct {
	AppVersion  string                      `json:"appVersion"`
	Instruction string                      `json:"_instruction"`
	Checkout    List[fixtures.CheckoutItem] `json:"checkout"`
	Meta        CheckoutMeta                `json:"_meta"`
}

type carousel struct{ base }

func (h *carousel) Handle(ctx context.Context, args catalog.Args) (any, error) {
	h.simulate(ctx, ProductCarousel)

	category := args.Category
	if category == "" {
		category = defaultCategory
	}
	sortedBy := args.SortBy
	if sortedBy == "" {
		sortedBy = defaultSort
	}

	c := h.deps.Fixtures.Catalog
	return &CarouselPayload{
		AppVersion:  h.deps.AppVersion,
		Query:       args.Query,
		Category:    category,
		Instruction: CarouselInstruction,
		Products:    displayOnly(c.Products),
		Meta: CarouselMeta{
			TotalProducts: c.TotalProducts,
			FilteredBy:    category,
			SortedBy:      sortedBy,
		},
	}, nil
}

type cart struct{ base }

func (h *cart) Handle(ctx context.Context, _ catalog.Args) (any, error) {
	h.simulate(ctx, ShoppingCart)

	c := h.deps.Fixtures.Cart
	return &CartPayload{
		AppVersion:  h.deps.AppVersion,
		Instruction: CartInstruction,
		Cart:        displayOnly(c.Items),
		Meta:        c.Summary,
	}, nil
}

type checkout struct{ base }

func (h *checkout) Handle(ctx context.Context, _ catalog.Args) (any, error) {
	h.simulate(ctx, CheckoutPage)

	c := h.deps.Fixtures.Checkout
	return &CheckoutPayload{
		AppVersion:  h.deps.AppVersion,
		Instruction: CheckoutInstruction,
		Checkout:    displayOnly(c.Items),
		Meta:        CheckoutMeta{CheckoutSummary: c.Summary, Step: checkoutStep},
	}, nil
}
