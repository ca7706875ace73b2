package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/storefront"
)

func writeJSON(w http.ResponseWriter, status int, f func(e *jx.Encoder)) {
	var e jx.Encoder
	f(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

// encodeProduct writes p. Stock is null for unlimited products.
func (h *Handler) encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("price", func(e *jx.Encoder) { e.Int(p.Price) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("stock", func(e *jx.Encoder) {
			if p.Unlimited {
				e.Null()
				return
			}
			e.Int(p.Stock)
		})
		e.Field("unlimited", func(e *jx.Encoder) { e.Bool(p.Unlimited) })
		e.Field("inStock", func(e *jx.Encoder) { e.Bool(p.InStock()) })
		e.Field("image", func(e *jx.Encoder) {
			if p.Image == "" {
				e.Null()
				return
			}
			e.Str(h.imageBaseURL + p.Image)
		})
	})
}

func (h *Handler) encodeProducts(e *jx.Encoder, products []product.Product) {
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			h.encodeProduct(e, p)
		}
	})
}

func (h *Handler) encodeSnapshot(e *jx.Encoder, s storefront.Snapshot) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("view", func(e *jx.Encoder) { e.Str(string(s.View)) })
		e.Field("menuOpen", func(e *jx.Encoder) { e.Bool(s.MenuOpen) })
		e.Field("modalOpen", func(e *jx.Encoder) { e.Bool(s.ModalOpen) })
		e.Field("editTarget", func(e *jx.Encoder) {
			if s.EditTarget == nil {
				e.Null()
				return
			}
			h.encodeProduct(e, *s.EditTarget)
		})
		e.Field("pendingDelete", func(e *jx.Encoder) {
			if s.PendingDelete == "" {
				e.Null()
				return
			}
			e.Str(s.PendingDelete)
		})
		e.Field("query", func(e *jx.Encoder) { e.Str(s.Query) })
		e.Field("cartCount", func(e *jx.Encoder) { e.Int(s.CartCount) })
		e.Field("notification", func(e *jx.Encoder) {
			if s.Notification == nil {
				e.Null()
				return
			}
			e.Obj(func(e *jx.Encoder) {
				e.Field("message", func(e *jx.Encoder) { e.Str(s.Notification.Message) })
				e.Field("severity", func(e *jx.Encoder) { e.Str(string(s.Notification.Severity)) })
			})
		})
	})
}

func encodeForm(e *jx.Encoder, f product.Form) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(f.Name) })
		e.Field("price", func(e *jx.Encoder) { e.Str(f.Price) })
		e.Field("description", func(e *jx.Encoder) { e.Str(f.Description) })
		e.Field("stock", func(e *jx.Encoder) { e.Str(f.Stock) })
		e.Field("unlimited", func(e *jx.Encoder) { e.Bool(f.Unlimited) })
		e.Field("image", func(e *jx.Encoder) { e.Str(f.Image) })
	})
}
