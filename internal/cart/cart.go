// Package cart maintains the per-session checkout ledger. Count events
// from the lane pipeline feed units in; operator corrections take units
// out. The cart is label-keyed: identity tracking de-duplicates upstream,
// so by the time an event reaches the cart it represents exactly one
// physical item.
package cart

import (
	"fmt"
	"sort"
	"sync"

	"github.com/checklane/kiosk.vision/internal/monitoring"
)

// PriceLookup resolves a catalog label to a unit price in cents. The
// product store implements it; tests supply a map-backed stub.
type PriceLookup interface {
	UnitPriceCents(label string) (int64, bool)
}

// LineItem is one label's row in the cart.
type LineItem struct {
	Label          string `json:"label"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	TotalCents     int64  `json:"total_cents"`
}

// Cart is a mutex-guarded session ledger. It is shared between the frame
// loop (count sink) and the HTTP handlers (operator corrections), so all
// methods lock.
type Cart struct {
	mu     sync.Mutex
	items  map[string]int // label -> quantity
	prices PriceLookup
	logf   func(format string, v ...interface{})
}

// New builds an empty cart over the given price source.
func New(prices PriceLookup) *Cart {
	return &Cart{
		items:  make(map[string]int),
		prices: prices,
		logf:   monitoring.Prefixed("cart"),
	}
}

// AddUnit adds one unit of the label. Unknown labels are accepted at a
// zero price so a stale catalog never loses a counted item.
func (c *Cart) AddUnit(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[label]++
	c.logf("add %q, quantity now %d", label, c.items[label])
}

// RemoveUnit removes one unit of the label, deleting the line at zero.
// Returns an error when the label has no units to remove.
func (c *Cart) RemoveUnit(label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	qty, ok := c.items[label]
	if !ok {
		return fmt.Errorf("no %q in cart", label)
	}
	if qty <= 1 {
		delete(c.items, label)
	} else {
		c.items[label] = qty - 1
	}
	c.logf("remove %q, quantity now %d", label, c.items[label])
	return nil
}

// Clear empties the ledger for a new session.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]int)
	c.logf("cleared")
}

// Items returns the priced line items sorted by label.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]LineItem, 0, len(c.items))
	for label, qty := range c.items {
		price := c.unitPrice(label)
		items = append(items, LineItem{
			Label:          label,
			Quantity:       qty,
			UnitPriceCents: price,
			TotalCents:     price * int64(qty),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

// TotalCents returns the cart total in cents.
func (c *Cart) TotalCents() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total int64
	for label, qty := range c.items {
		total += c.unitPrice(label) * int64(qty)
	}
	return total
}

// UnitCount returns the total number of units across all lines.
func (c *Cart) UnitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, qty := range c.items {
		n += qty
	}
	return n
}

func (c *Cart) unitPrice(label string) int64 {
	if c.prices == nil {
		return 0
	}
	price, ok := c.prices.UnitPriceCents(label)
	if !ok {
		return 0
	}
	return price
}
