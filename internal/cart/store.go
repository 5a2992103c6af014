// Package cart holds a shopper's in-memory cart: product lines with
// quantities and the totals derived from them.
package cart

import (
	"sync"

	"storefront-service/internal/models"

	"github.com/shopspring/decimal"
)

// Store is the authoritative in-memory record of what a shopper intends to buy.
// Lines keep insertion order. Every quantity held is >= 1; a product with no
// line has quantity zero.
type Store struct {
	mu    sync.Mutex
	lines []models.CartLine
	index map[int64]int
}

// NewStore creates an empty cart
func NewStore() *Store {
	return &Store{index: make(map[int64]int)}
}

// AddItem adds delta units of product. A new line is created on the first add;
// a negative delta decrements and drops the line once it falls below one.
func (s *Store) AddItem(product models.Product, delta int) {
	if delta == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[product.ID]
	if !ok {
		if delta > 0 {
			s.lines = append(s.lines, models.CartLine{Product: product, Quantity: delta})
			s.index[product.ID] = len(s.lines) - 1
		}
		return
	}

	s.setLocked(i, s.lines[i].Quantity+delta)
}

// SetQuantity sets the quantity for productID exactly; quantity < 1 removes the line.
// Products not in the cart are left alone.
func (s *Store) SetQuantity(productID int64, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[productID]
	if !ok {
		return
	}
	s.setLocked(i, quantity)
}

// RemoveItem deletes the line for productID if present
func (s *Store) RemoveItem(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[productID]; ok {
		s.removeLocked(i)
	}
}

// Clear empties the cart
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.index = make(map[int64]int)
}

// Quantity returns how many units of productID are in the cart
func (s *Store) Quantity(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[productID]; ok {
		return s.lines[i].Quantity
	}
	return 0
}

// Len returns the number of distinct lines
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Lines returns a copy of the current lines in insertion order
func (s *Store) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Restore replaces the cart contents with lines. Lines with a quantity below one
// are skipped and repeated products are merged.
func (s *Store) Restore(lines []models.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.index = make(map[int64]int)
	for _, l := range lines {
		if l.Quantity < 1 {
			continue
		}
		if i, ok := s.index[l.Product.ID]; ok {
			s.lines[i].Quantity += l.Quantity
			continue
		}
		s.lines = append(s.lines, l)
		s.index[l.Product.ID] = len(s.lines) - 1
	}
}

// Snapshot computes the current cart view from the live lines
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Lines:      make([]SnapshotLine, 0, len(s.lines)),
		TotalPrice: decimal.Zero,
	}
	for _, l := range s.lines {
		subtotal := l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		snap.Lines = append(snap.Lines, SnapshotLine{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Unit:      l.Product.Unit,
			Image:     l.Product.Image,
			Color:     l.Product.Color,
			UnitPrice: l.Product.Price,
			Quantity:  l.Quantity,
			Subtotal:  subtotal,
		})
		snap.TotalQuantity += l.Quantity
		snap.TotalPrice = snap.TotalPrice.Add(subtotal)
		if snap.Currency == "" {
			snap.Currency = l.Product.Currency
		}
	}
	return snap
}

func (s *Store) setLocked(i, quantity int) {
	if quantity < 1 {
		s.removeLocked(i)
		return
	}
	s.lines[i].Quantity = quantity
}

func (s *Store) removeLocked(i int) {
	delete(s.index, s.lines[i].Product.ID)
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	for j := i; j < len(s.lines); j++ {
		s.index[s.lines[j].Product.ID] = j
	}
}
