package handler

import (
	"net/http"
	"sort"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/view"
	"github.com/xenking/storefront/internal/storefront"
)

// writeDomainError maps domain errors to API error responses. Unknown errors
// are logged and reported as 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		badReq *badRequestError
		formEr *product.FormError
		trans  *view.TransitionError
	)
	switch {
	case errors.As(err, &badReq):
		writeError(w, http.StatusBadRequest, badReq.Error())
	case errors.As(err, &formEr):
		writeFormError(w, formEr)
	case errors.As(err, &trans):
		writeError(w, http.StatusConflict, trans.Error())
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, product.ErrDuplicateID),
		errors.Is(err, storefront.ErrEditorClosed),
		errors.Is(err, storefront.ErrNoPendingDelete):
		writeError(w, http.StatusConflict, err.Error())
	default:
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeFormError(w http.ResponseWriter, fe *product.FormError) {
	keys := make([]string, 0, len(fe.Fields))
	for k := range fe.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	writeJSON(w, http.StatusUnprocessableEntity, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(http.StatusUnprocessableEntity) })
			e.Field("message", func(e *jx.Encoder) { e.Str("invalid product form") })
			e.Field("fields", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					for _, k := range keys {
						e.Field(k, func(e *jx.Encoder) { e.Str(fe.Fields[k]) })
					}
				})
			})
		})
	})
}
