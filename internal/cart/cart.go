// Package cart holds the pre-checkout shopping cart. A cart is ephemeral
// session state: one instance per customer session, never persisted.
package cart

import (
	"sync"

	"beanstand/internal/model"
)

// Line is one cart row. The invariant is at most one line per product id;
// repeated adds accumulate quantity instead of duplicating rows.
type Line struct {
	Product  model.Product `json:"product"`
	Quantity int64         `json:"quantity"`
}

// Cart is an insertion-ordered list of lines. Quantities never drop below
// 1: decreasing a quantity-1 line removes it entirely.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

func New() *Cart { return &Cart{} }

// Add puts one unit of p in the cart, merging into an existing line.
func (c *Cart) Add(p model.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Product.ID == p.ID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: 1})
}

// Increase bumps the quantity of the line for id; no-op if absent.
func (c *Cart) Increase(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Product.ID == id {
			c.lines[i].Quantity++
			return
		}
	}
}

// Decrease lowers the quantity of the line for id, removing the line when
// it would drop below 1.
func (c *Cart) Decrease(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Product.ID != id {
			continue
		}
		if c.lines[i].Quantity > 1 {
			c.lines[i].Quantity--
		} else {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		}
		return
	}
}

// Remove drops the line for id; no-op if absent.
func (c *Cart) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Product.ID == id {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart. Called after a successful checkout.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Lines returns a copy of the cart contents in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// Registry hands out one cart per user session. Carts are created lazily
// and live only as long as the process.
type Registry struct {
	mu    sync.Mutex
	carts map[int]*Cart
}

func NewRegistry() *Registry {
	return &Registry{carts: make(map[int]*Cart)}
}

// For returns the cart for userID, creating it on first use.
func (r *Registry) For(userID int) *Cart {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		c = New()
		r.carts[userID] = c
	}
	return c
}
