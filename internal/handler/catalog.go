package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// GetState returns the current application state.
func (h *Handler) GetState(w http.ResponseWriter, _ *http.Request) {
	snap := h.store.Snapshot()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeSnapshot(e, snap) })
}

// ToggleMenu opens or closes the navigation menu.
func (h *Handler) ToggleMenu(w http.ResponseWriter, _ *http.Request) {
	open := h.store.ToggleMenu()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("menuOpen", func(e *jx.Encoder) { e.Bool(open) })
		})
	})
}

// ListContacts returns the static contact links.
func (h *Handler) ListContacts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, c := range h.contacts {
				e.Obj(func(e *jx.Encoder) {
					e.Field("kind", func(e *jx.Encoder) { e.Str(c.Kind) })
					e.Field("url", func(e *jx.Encoder) { e.Str(c.URL) })
				})
			}
		})
	})
}

// ListProducts returns the catalog filtered by the search query. A q
// parameter, even an empty one, replaces the stored query.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query(); q.Has("q") {
		h.store.SetQuery(q.Get("q"))
	}

	products, err := h.store.Products(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProducts(e, products) })
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Product(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProduct(e, *p) })
}

// GetCart returns the cart entries, their count and total.
func (h *Handler) GetCart(w http.ResponseWriter, _ *http.Request) {
	contents := h.store.Cart()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) { h.encodeProducts(e, contents.Items) })
			e.Field("count", func(e *jx.Encoder) { e.Int(len(contents.Items)) })
			e.Field("total", func(e *jx.Encoder) { e.Str(contents.Total.StringFixed(2)) })
		})
	})
}

// AddToCart appends a product snapshot to the cart.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	id, err := decodeProductID(w, r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	p, err := h.store.AddToCart(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	count := h.store.Snapshot().CartCount
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("product", func(e *jx.Encoder) { h.encodeProduct(e, p) })
			e.Field("cartCount", func(e *jx.Encoder) { e.Int(count) })
		})
	})
}
