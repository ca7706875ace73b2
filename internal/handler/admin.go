package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/product"
)

// OpenEditor opens the product editor, for an existing product when the body
// names one and for a new product otherwise. The response carries the form
// values the editor starts with.
func (h *Handler) OpenEditor(w http.ResponseWriter, r *http.Request) {
	id, err := decodeProductID(w, r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	target, err := h.store.OpenEditor(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var form product.Form
	if target != nil {
		form = product.FormFromProduct(*target)
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("editTarget", func(e *jx.Encoder) {
				if target == nil {
					e.Null()
					return
				}
				h.encodeProduct(e, *target)
			})
			e.Field("form", func(e *jx.Encoder) { encodeForm(e, form) })
		})
	})
}

// CloseEditor closes the product editor without saving.
func (h *Handler) CloseEditor(w http.ResponseWriter, _ *http.Request) {
	h.store.CloseEditor()
	w.WriteHeader(http.StatusNoContent)
}

// SaveProduct submits the editor form.
func (h *Handler) SaveProduct(w http.ResponseWriter, r *http.Request) {
	form, err := decodeForm(w, r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	p, err := h.store.SaveProduct(r.Context(), form)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProduct(e, p) })
}

// RequestDelete asks for confirmation before deleting a product.
func (h *Handler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.RequestDelete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("pendingDelete", func(e *jx.Encoder) { h.encodeProduct(e, *p) })
			e.Field("message", func(e *jx.Encoder) {
				e.Str("Delete " + p.Name + "? Confirm to continue.")
			})
		})
	})
}

// ConfirmDelete deletes the product awaiting confirmation.
func (h *Handler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ConfirmDelete(r.Context()); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelDelete drops the pending deletion.
func (h *Handler) CancelDelete(w http.ResponseWriter, _ *http.Request) {
	h.store.CancelDelete()
	w.WriteHeader(http.StatusNoContent)
}
