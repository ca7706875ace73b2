package handler

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/product"
)

const maxBodySize = 1 << 20

// badRequestError marks a malformed request body.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return "invalid request body: " + e.err.Error() }

func (e *badRequestError) Unwrap() error { return e.err }

// decodeObject reads the request body as a JSON object and calls f for each
// field. An empty body is treated as an empty object; anything after the
// object is rejected.
func decodeObject(w http.ResponseWriter, r *http.Request, f func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return &badRequestError{err: err}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	d := jx.DecodeBytes(body)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		return f(d, string(key))
	}); err != nil {
		return &badRequestError{err: err}
	}
	if d.Next() != jx.Invalid {
		return &badRequestError{err: errors.New("unexpected data after object")}
	}
	return nil
}

// decodeText accepts a JSON string or number, as form inputs may send either.
func decodeText(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	case jx.Null:
		return "", d.Null()
	default:
		return d.Str()
	}
}

func decodeForm(w http.ResponseWriter, r *http.Request) (product.Form, error) {
	var f product.Form
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			f.Name, err = decodeText(d)
		case "price":
			f.Price, err = decodeText(d)
		case "description":
			f.Description, err = decodeText(d)
		case "stock":
			f.Stock, err = decodeText(d)
		case "unlimited":
			f.Unlimited, err = d.Bool()
		case "image":
			f.Image, err = decodeText(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %s", key)
		}
		return nil
	})
	return f, err
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (auth.Credentials, error) {
	var c auth.Credentials
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "username":
			c.Username, err = decodeText(d)
		case "password":
			c.Password, err = decodeText(d)
		default:
			return d.Skip()
		}
		return err
	})
	return c, err
}

func decodeProductID(w http.ResponseWriter, r *http.Request) (string, error) {
	var id string
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		if key != "productId" {
			return d.Skip()
		}
		var err error
		id, err = decodeText(d)
		return err
	})
	return id, err
}
