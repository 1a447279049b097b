package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"apparel-storefront/internal/domain"
	"apparel-storefront/internal/repository/kv"
	"github.com/sirupsen/logrus"
)

// storageKey is where the cart lives in the visitor's key-value namespace.
const storageKey = "cart"

// Store owns one visitor's cart. Lines keep insertion order and there is at
// most one line per (product, size, color). Every mutation writes the whole
// list back to storage.
type Store struct {
	mu     sync.Mutex
	kv     kv.Store
	items  []domain.CartLineItem
	logger logrus.FieldLogger
}

// Load rehydrates the cart from storage. A missing or unreadable entry
// starts an empty cart; stored duplicates and zero quantities are folded.
func Load(ctx context.Context, store kv.Store, logger logrus.FieldLogger) *Store {
	s := &Store{kv: store, logger: logger.WithField("component", "cart")}

	raw, err := store.Get(ctx, storageKey)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return s
	case err != nil:
		s.logger.WithError(err).Warn("cart rehydrate failed, starting empty")
		return s
	}

	var saved []domain.CartLineItem
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		s.logger.WithError(err).Warn("stored cart is corrupt, starting empty")
		return s
	}
	for _, item := range saved {
		s.add(item)
	}
	return s
}

// Add puts quantity units of a product variant in the cart, merging with an
// existing line for the same variant. Quantities below 1 count as 1.
func (s *Store) Add(ctx context.Context, p domain.Product, size, color string, quantity int) error {
	return s.mutate(ctx, func() bool {
		s.add(domain.CartLineItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Image:     p.PrimaryImage(),
			Size:      size,
			Color:     color,
			Quantity:  quantity,
		})
		return true
	})
}

// Merge folds items into the cart with Add semantics.
func (s *Store) Merge(ctx context.Context, items []domain.CartLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return s.mutate(ctx, func() bool {
		for _, item := range items {
			s.add(item)
		}
		return true
	})
}

// UpdateQuantity overwrites a line's quantity. Below 1 removes the line.
// Unknown lines are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, productID, size, color string, quantity int) error {
	if quantity < 1 {
		return s.Remove(ctx, productID, size, color)
	}
	key := domain.LineKey{ProductID: productID, Size: size, Color: color}
	return s.mutate(ctx, func() bool {
		i := s.indexOf(key)
		if i < 0 {
			return false
		}
		s.items[i].Quantity = quantity
		return true
	})
}

// Remove deletes a line if present.
func (s *Store) Remove(ctx context.Context, productID, size, color string) error {
	key := domain.LineKey{ProductID: productID, Size: size, Color: color}
	return s.mutate(ctx, func() bool {
		i := s.indexOf(key)
		if i < 0 {
			return false
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
		return true
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, func() bool {
		s.items = nil
		return true
	})
}

// Subtract takes the quantities in items off the matching lines and drops
// lines that reach zero. Lines added since items was read stay put.
func (s *Store) Subtract(ctx context.Context, items []domain.CartLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return s.mutate(ctx, func() bool {
		changed := false
		for _, item := range items {
			i := s.indexOf(item.Key())
			if i < 0 {
				continue
			}
			changed = true
			s.items[i].Quantity -= item.Quantity
			if s.items[i].Quantity < 1 {
				s.items = append(s.items[:i], s.items[i+1:]...)
			}
		}
		return changed
	})
}

// Save writes the cart as it is now, for retrying after a failed write.
func (s *Store) Save(ctx context.Context) error {
	return s.mutate(ctx, func() bool { return true })
}

// Items returns a copy of the lines in display order.
func (s *Store) Items() []domain.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartLineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Total is the sum of unit price times quantity, recomputed on every call.
func (s *Store) Total() domain.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total domain.Money
	for _, it := range s.items {
		total += it.LineTotal()
	}
	return total
}

// Count is the number of units in the cart.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, it := range s.items {
		count += it.Quantity
	}
	return count
}

// Empty reports whether the cart has no lines.
func (s *Store) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// mutate applies fn under the lock and, when fn reports a change, persists
// the resulting list before releasing it so writes land in mutation order.
// The in-memory change stands even when the write fails.
func (s *Store) mutate(ctx context.Context, fn func() bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !fn() {
		return nil
	}
	payload, err := json.Marshal(s.snapshot())
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, storageKey, string(payload)); err != nil {
		s.logger.WithError(err).Error("persist cart failed")
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func (s *Store) add(item domain.CartLineItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if i := s.indexOf(item.Key()); i >= 0 {
		s.items[i].Quantity += item.Quantity
		return
	}
	s.items = append(s.items, item)
}

func (s *Store) indexOf(key domain.LineKey) int {
	for i, it := range s.items {
		if it.Key() == key {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []domain.CartLineItem {
	if s.items == nil {
		return []domain.CartLineItem{}
	}
	return s.items
}
