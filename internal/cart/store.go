package cart

import "github.com/fjod/printshop/internal/domain"

// Store owns the cart of a single session. It has one writer, the session, and does
// not lock; callers that share a Store across goroutines must serialize access.
type Store struct {
	state domain.CartState
}

func NewStore() *Store {
	return &Store{state: domain.EmptyCart()}
}

// Restore wraps a previously saved state. Derived totals are recomputed so a stale
// snapshot cannot leak through.
func Restore(state domain.CartState) *Store {
	return &Store{state: withItems(state, copyItems(state.Items))}
}

// State returns a copy of the current state.
func (s *Store) State() domain.CartState {
	st := s.state
	st.Items = copyItems(s.state.Items)
	return st
}

func (s *Store) Dispatch(cmd Command) domain.CartState {
	s.state = Apply(s.state, cmd)
	return s.State()
}

func (s *Store) AddItem(c Candidate) domain.CartState {
	return s.Dispatch(AddItem{Candidate: c})
}

func (s *Store) RemoveItem(variantKey string) domain.CartState {
	return s.Dispatch(RemoveItem{VariantKey: variantKey})
}

func (s *Store) UpdateQuantity(variantKey string, quantity int) domain.CartState {
	return s.Dispatch(UpdateQuantity{VariantKey: variantKey, Quantity: quantity})
}

func (s *Store) Clear() domain.CartState {
	return s.Dispatch(Clear{})
}

func (s *Store) SetVisible(visible bool) domain.CartState {
	return s.Dispatch(SetVisible{Visible: visible})
}

func (s *Store) ToggleVisible() domain.CartState {
	return s.Dispatch(ToggleVisible{})
}
