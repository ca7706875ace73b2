// Package seed loads the mock catalog the storefront serves.
package seed

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/storefront/db"
	"github.com/xenking/storefront/internal/domain/product"
)

// Default returns the embedded mock catalog.
func Default() ([]product.Product, error) {
	products, err := Decode(bytes.NewReader(db.Products))
	if err != nil {
		return nil, errors.Wrap(err, "decode embedded catalog")
	}
	return products, nil
}

// Load reads a catalog from path, or the embedded catalog when path is empty.
// Files ending in .gz are decompressed.
func Load(path string) ([]product.Product, error) {
	if path == "" {
		return Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	products, err := Decode(r)
	if err != nil {
		return nil, errors.Wrapf(err, "decode catalog %s", path)
	}
	return products, nil
}

// Decode parses a JSON array of products. Entries without an id get a fresh
// one; duplicate ids are rejected.
func Decode(r io.Reader) ([]product.Product, error) {
	var (
		products []product.Product
		seen     = map[string]struct{}{}
	)

	d := jx.Decode(r, 4096)
	if err := d.Arr(func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return err
		}
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if _, ok := seen[p.ID]; ok {
			return errors.Errorf("duplicate product id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, err
	}
	if d.Next() != jx.Invalid {
		return nil, errors.New("unexpected data after catalog array")
	}
	return products, nil
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			p.ID, err = d.Str()
		case "name":
			p.Name, err = d.Str()
		case "price":
			p.Price, err = d.Int()
		case "description":
			p.Description, err = d.Str()
		case "stock":
			p.Stock, err = d.Int()
		case "unlimited":
			p.Unlimited, err = d.Bool()
		case "image":
			if d.Next() == jx.Null {
				return d.Null()
			}
			p.Image, err = d.Str()
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %s", key)
		}
		return nil
	})
	return p, err
}
