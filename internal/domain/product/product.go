package product

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrDuplicateID is returned when a product is created with an identifier
	// already present in the catalog.
	ErrDuplicateID = errors.New("product id already exists")
)

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Price       int
	Description string
	Stock       int
	// Unlimited marks goods whose availability is not governed by Stock
	// (digital goods, services).
	Unlimited bool
	Image     string
}

// InStock reports whether the product can currently be sold.
func (p Product) InStock() bool {
	return p.Unlimited || p.Stock > 0
}

// Repository defines the catalog operations used by the storefront.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p Product) error
	Replace(ctx context.Context, p Product) error
	Delete(ctx context.Context, id string) error
}
