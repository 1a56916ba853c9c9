// Package cart is the shopping-cart state machine. Every change is a Command folded
// through Apply, a pure transition from one CartState to the next.
package cart

import (
	"github.com/fjod/printshop/internal/domain"
	"github.com/shopspring/decimal"
)

// Command is one of AddItem, RemoveItem, UpdateQuantity, Clear, SetVisible, ToggleVisible.
type Command interface {
	apply(state domain.CartState) domain.CartState
}

// Candidate is a product configuration offered to the cart.
type Candidate struct {
	ProductID         string
	Title             string
	Style             string
	UnitPrice         decimal.Decimal
	OriginalUnitPrice *decimal.Decimal
	ImageRef          string
	Size              string
	Frame             string
	Quantity          int
}

type AddItem struct {
	Candidate Candidate
}

type RemoveItem struct {
	VariantKey string
}

type UpdateQuantity struct {
	VariantKey string
	Quantity   int
}

type Clear struct{}

type SetVisible struct {
	Visible bool
}

type ToggleVisible struct{}

// Apply returns the state after cmd. The input state is never modified.
func Apply(state domain.CartState, cmd Command) domain.CartState {
	return cmd.apply(state)
}

func (c AddItem) apply(state domain.CartState) domain.CartState {
	key := domain.VariantKey(c.Candidate.ProductID, c.Candidate.Size, c.Candidate.Frame)
	items := copyItems(state.Items)

	if i := state.IndexOf(key); i >= 0 {
		items[i].Quantity += c.Candidate.Quantity
	} else {
		items = append(items, domain.LineItem{
			VariantKey:        key,
			ProductID:         c.Candidate.ProductID,
			Title:             c.Candidate.Title,
			Style:             c.Candidate.Style,
			UnitPrice:         c.Candidate.UnitPrice,
			OriginalUnitPrice: c.Candidate.OriginalUnitPrice,
			ImageRef:          c.Candidate.ImageRef,
			Size:              c.Candidate.Size,
			Frame:             c.Candidate.Frame,
			Quantity:          c.Candidate.Quantity,
		})
	}

	next := withItems(state, items)
	next.IsVisible = true
	return next
}

func (c RemoveItem) apply(state domain.CartState) domain.CartState {
	items := make([]domain.LineItem, 0, len(state.Items))
	for _, item := range state.Items {
		if item.VariantKey != c.VariantKey {
			items = append(items, item)
		}
	}
	return withItems(state, items)
}

func (c UpdateQuantity) apply(state domain.CartState) domain.CartState {
	if c.Quantity <= 0 {
		return RemoveItem{VariantKey: c.VariantKey}.apply(state)
	}
	i := state.IndexOf(c.VariantKey)
	if i < 0 {
		return withItems(state, copyItems(state.Items))
	}
	items := copyItems(state.Items)
	items[i].Quantity = c.Quantity
	return withItems(state, items)
}

func (Clear) apply(domain.CartState) domain.CartState {
	return domain.EmptyCart()
}

func (c SetVisible) apply(state domain.CartState) domain.CartState {
	next := withItems(state, copyItems(state.Items))
	next.IsVisible = c.Visible
	return next
}

func (ToggleVisible) apply(state domain.CartState) domain.CartState {
	next := withItems(state, copyItems(state.Items))
	next.IsVisible = !state.IsVisible
	return next
}

// withItems is the only place derived totals are written.
func withItems(state domain.CartState, items []domain.LineItem) domain.CartState {
	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
		count += item.Quantity
	}
	return domain.CartState{
		Items:     items,
		IsVisible: state.IsVisible,
		Subtotal:  subtotal,
		ItemCount: count,
	}
}

func copyItems(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, len(items), len(items)+1)
	copy(out, items)
	return out
}
