// Package cart implements the storefront shopping cart: an append-only list
// of product snapshots with no quantity aggregation or checkout.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

// Cart holds copies of the products added to it, in insertion order.
// The zero value is an empty cart ready for use.
type Cart struct {
	items []product.Product
}

// Add appends a snapshot of p. Later catalog edits do not affect it.
func (c *Cart) Add(p product.Product) {
	c.items = append(c.items, p)
}

// Count returns the number of entries in the cart.
func (c *Cart) Count() int {
	return len(c.items)
}

// Items returns a copy of the cart entries.
func (c *Cart) Items() []product.Product {
	out := make([]product.Product, len(c.items))
	copy(out, c.items)
	return out
}

// Total returns the sum of entry prices.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range c.items {
		total = total.Add(decimal.NewFromInt(int64(p.Price)))
	}
	return total
}
