// Package memory provides in-process implementations of the storefront
// repositories. Nothing is persisted across restarts.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/storefront/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository keeps the catalog in a slice so listing order is the
// insertion order.
type ProductRepository struct {
	mu       sync.RWMutex
	products []product.Product
}

// NewProductRepository returns a repository seeded with products. Seed
// entries with duplicate IDs are dropped, keeping the first.
func NewProductRepository(products ...product.Product) *ProductRepository {
	r := &ProductRepository{products: make([]product.Product, 0, len(products))}
	for _, p := range products {
		if r.indexOf(p.ID) < 0 {
			r.products = append(r.products, p)
		}
	}
	return r
}

// List returns a copy of the catalog.
func (r *ProductRepository) List(_ context.Context) ([]product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.products), nil
}

// GetByID returns the product with id or product.ErrNotFound.
func (r *ProductRepository) GetByID(_ context.Context, id string) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, product.ErrNotFound
	}
	p := r.products[i]
	return &p, nil
}

// Create appends p. The ID must not already be present.
func (r *ProductRepository) Create(_ context.Context, p product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(p.ID) >= 0 {
		return product.ErrDuplicateID
	}
	r.products = append(r.products, p)
	return nil
}

// Replace overwrites the record with the same ID in place.
func (r *ProductRepository) Replace(_ context.Context, p product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(p.ID)
	if i < 0 {
		return product.ErrNotFound
	}
	r.products[i] = p
	return nil
}

// Delete removes the record with id.
func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return product.ErrNotFound
	}
	r.products = slices.Delete(r.products, i, i+1)
	return nil
}

// Len reports the catalog size. It backs the readiness check.
func (r *ProductRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.products)
}

func (r *ProductRepository) indexOf(id string) int {
	return slices.IndexFunc(r.products, func(p product.Product) bool { return p.ID == id })
}
