package product

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

// Form holds the raw values submitted by the product editor.
type Form struct {
	Name        string `json:"name" validate:"required"`
	Price       string `json:"price" validate:"required"`
	Description string `json:"description" validate:"required"`
	Stock       string `json:"stock" validate:"required"`
	Unlimited   bool   `json:"unlimited"`
	Image       string `json:"image"`
}

// FormError lists the editor fields that failed validation, keyed by the
// form field name.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid product form: " + strings.Join(parts, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

// Build validates the form and converts it into a Product carrying id.
// Numbers are parsed as plain integers; their range is not checked.
func (f Form) Build(id string) (Product, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Price = strings.TrimSpace(f.Price)
	f.Description = strings.TrimSpace(f.Description)
	f.Stock = strings.TrimSpace(f.Stock)

	fields := map[string]string{}
	if err := validate.Struct(f); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return Product{}, errors.Wrap(err, "validate form")
		}
		for _, fe := range ve {
			fields[fe.Field()] = messageForTag(fe.Tag())
		}
	}

	price, ok := parseInt(f.Price, "price", fields)
	stock, ok2 := parseInt(f.Stock, "stock", fields)
	if len(fields) > 0 || !ok || !ok2 {
		return Product{}, &FormError{Fields: fields}
	}

	return Product{
		ID:          id,
		Name:        f.Name,
		Price:       price,
		Description: f.Description,
		Stock:       stock,
		Unlimited:   f.Unlimited,
		Image:       strings.TrimSpace(f.Image),
	}, nil
}

// FormFromProduct returns the form pre-filled with p, as shown when the
// editor opens on an existing product.
func FormFromProduct(p Product) Form {
	return Form{
		Name:        p.Name,
		Price:       strconv.Itoa(p.Price),
		Description: p.Description,
		Stock:       strconv.Itoa(p.Stock),
		Unlimited:   p.Unlimited,
		Image:       p.Image,
	}
}

// parseInt records a field error for non-numeric input. Empty input is left
// to the required constraint.
func parseInt(v, field string, fields map[string]string) (int, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fields[field] = fmt.Sprintf("%q is not a number", v)
		return 0, false
	}
	return n, true
}

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	default:
		return "invalid value"
	}
}
