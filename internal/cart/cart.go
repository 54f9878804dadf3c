// Package cart holds the in-memory working set of items a shopper has
// selected for the current session. Carts live only as long as the process;
// nothing here touches the network or the database.
package cart

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andhika/furnistore/internal/models"
)

// Cart is an ordered collection of line items. Safe for concurrent use.
type Cart struct {
	mu    sync.RWMutex
	items []models.CartItem
}

func New() *Cart {
	return &Cart{}
}

// AddItem appends the item unconditionally, duplicates included. This is the
// literal behavior of the original storefront; AddOrMergeItem is the merging
// variant most callers want.
func (c *Cart) AddItem(item models.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
}

// AddOrMergeItem adds the item, summing quantities into an existing entry
// with the same ID instead of appending a duplicate row.
func (c *Cart) AddOrMergeItem(item models.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == item.ID {
			c.items[i].Quantity += item.Quantity
			return
		}
	}
	c.items = append(c.items, item)
}

// RemoveItem removes every entry with the given ID. No-op when absent.
func (c *Cart) RemoveItem(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.items[:0]
	for _, it := range c.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	c.items = kept
}

// Update carries the fields an UpdateItem call may change. Nil means "leave
// as is".
type Update struct {
	Name      *string
	Category  *string
	Price     *decimal.Decimal
	Image     *string
	Quantity  *int
	Purchased *bool
}

// UpdateItem merges the update into the first entry with the given ID.
// No-op when absent. A quantity update to zero or below removes the entry;
// the cart never retains zero-quantity lines.
func (c *Cart) UpdateItem(id uuid.UUID, u Update) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID != id {
			continue
		}

		if u.Name != nil {
			c.items[i].Name = *u.Name
		}
		if u.Category != nil {
			c.items[i].Category = *u.Category
		}
		if u.Price != nil {
			c.items[i].Price = *u.Price
		}
		if u.Image != nil {
			c.items[i].Image = *u.Image
		}
		if u.Purchased != nil {
			c.items[i].Purchased = *u.Purchased
		}
		if u.Quantity != nil {
			if *u.Quantity <= 0 {
				c.items = append(c.items[:i], c.items[i+1:]...)
				return
			}
			c.items[i].Quantity = *u.Quantity
		}
		return
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Items returns a copy of the current line items in insertion order.
func (c *Cart) Items() []models.CartItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// TotalPrice is the sum of price x quantity over all entries, recomputed on
// every call.
func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Store keeps one cart per shopper session.
type Store struct {
	mu    sync.RWMutex
	carts map[uuid.UUID]*Cart
}

func NewStore() *Store {
	return &Store{carts: make(map[uuid.UUID]*Cart)}
}

// Create starts a new empty cart and returns its session ID.
func (s *Store) Create() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.carts[id] = New()
	return id
}

// Get returns the cart for the session, or nil when the session is unknown.
func (s *Store) Get(session uuid.UUID) *Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.carts[session]
}

// Drop discards the session and its cart.
func (s *Store) Drop(session uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, session)
}
