// Package db provides the embedded mock catalog the storefront starts with.
package db

import _ "embed"

// Products contains the default catalog as a JSON array.
//
//go:embed seed/products.json
var Products []byte
