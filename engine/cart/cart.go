// Package cart holds per-session shopping carts. Carts live in memory
// and are keyed by a caller-supplied session identifier, so two users
// never see each other's items.
package cart

import (
	"fmt"
	"sync"

	"github.com/PartPalAI/partpal-mvp/engine/domain"
)

// DefaultSession is used when a caller supplies no session identifier.
const DefaultSession = "default"

// Store is a session-keyed cart registry. Safe for concurrent use; a
// single mutex covers all sessions, which is fine at chat traffic
// rates.
type Store struct {
	mu    sync.Mutex
	carts map[string][]domain.LineItem
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{carts: make(map[string][]domain.LineItem)}
}

func sessionKey(session string) string {
	if session == "" {
		return DefaultSession
	}
	return session
}

// Add puts quantity units of a part into the session's cart. Adding a
// part already present merges quantities; the existing name and unit
// price win so a cart line never silently changes price.
func (s *Store) Add(session, partNumber, name string, unitPrice float64, quantity int) error {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return err
	}
	if !domain.ValidPartNumber(partNumber) {
		return domain.NewValidationError("part_number", partNumber, domain.ErrInvalidPartNumber)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey(session)
	items := s.carts[key]

	// Scan for the line first; nothing is mutated until the cart is
	// known to hold at most one line for the part.
	found := -1
	for i := range items {
		if items[i].PartNumber != partNumber {
			continue
		}
		if found >= 0 {
			return fmt.Errorf("cart: session %s part %s: %w", key, partNumber, domain.ErrCartCorruption)
		}
		found = i
	}
	if found >= 0 {
		items[found].Quantity += quantity
		return nil
	}
	s.carts[key] = append(items, domain.LineItem{
		PartNumber: partNumber,
		Name:       name,
		UnitPrice:  unitPrice,
		Quantity:   quantity,
	})
	return nil
}

// Remove deletes a part from the session's cart regardless of quantity.
// Removing an absent part is a no-op; the return reports whether
// anything was removed.
func (s *Store) Remove(session, partNumber string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey(session)
	items := s.carts[key]
	for i := range items {
		if items[i].PartNumber == partNumber {
			s.carts[key] = append(items[:i], items[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns a copy of the session's cart in insertion order.
func (s *Store) Items(session string) []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[sessionKey(session)]
	out := make([]domain.LineItem, len(items))
	copy(out, items)
	return out
}

// Total returns the session's cart total: the sum of unit price times
// quantity over all lines.
func (s *Store) Total(session string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	for _, it := range s.carts[sessionKey(session)] {
		total += it.UnitPrice * float64(it.Quantity)
	}
	return total
}

// Clear empties the session's cart.
func (s *Store) Clear(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionKey(session))
}
