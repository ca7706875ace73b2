package product

import (
	"slices"
	"strings"
)

// Filter returns the products whose name or description contains query,
// compared case-insensitively. Source order is preserved and a blank query
// returns every product. The result never aliases products.
func Filter(products []Product, query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(products)
	}

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out
}
