// Package handler exposes the storefront state over a JSON HTTP API.
package handler

import (
	"net/http"

	"github.com/xenking/storefront/internal/domain/view"
	"github.com/xenking/storefront/internal/storefront"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// Contact is a static outbound link shown on the storefront.
type Contact struct {
	Kind string
	URL  string
}

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to product image paths in responses.
	// When empty, image paths are returned as stored.
	ImageBaseURL string
	Contacts     []Contact
	// LoginLimit throttles POST /api/login, typically with
	// httpmiddleware.RateLimit. Nil leaves login unthrottled.
	LoginLimit httpmiddleware.Middleware
}

// Handler serves the storefront API, delegating state changes to the store.
type Handler struct {
	store        *storefront.Store
	imageBaseURL string
	contacts     []Contact
	loginLimit   httpmiddleware.Middleware
}

// NewHandler constructs a Handler over the application state.
func NewHandler(cfg HandlerConfig, store *storefront.Store) *Handler {
	return &Handler{
		store:        store,
		imageBaseURL: cfg.ImageBaseURL,
		contacts:     cfg.Contacts,
		loginLimit:   cfg.LoginLimit,
	}
}

// Register mounts the API routes on mux under /api.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/state", h.GetState)
	mux.HandleFunc("POST /api/menu/toggle", h.ToggleMenu)
	mux.HandleFunc("GET /api/contact", h.ListContacts)

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart", h.AddToCart)

	mux.HandleFunc("POST /api/view/admin", h.OpenAdmin)
	mux.HandleFunc("POST /api/view/back", h.Back)
	mux.HandleFunc("POST /api/view/store", h.ViewStore)
	var login http.Handler = http.HandlerFunc(h.Login)
	if h.loginLimit != nil {
		login = h.loginLimit(login)
	}
	mux.Handle("POST /api/login", login)
	mux.HandleFunc("POST /api/logout", h.Logout)

	mux.Handle("POST /api/admin/editor", h.requireDashboard(h.OpenEditor))
	mux.Handle("DELETE /api/admin/editor", h.requireDashboard(h.CloseEditor))
	mux.Handle("POST /api/admin/products", h.requireDashboard(h.SaveProduct))
	mux.Handle("POST /api/admin/products/{id}/delete", h.requireDashboard(h.RequestDelete))
	mux.Handle("POST /api/admin/delete/confirm", h.requireDashboard(h.ConfirmDelete))
	mux.Handle("POST /api/admin/delete/cancel", h.requireDashboard(h.CancelDelete))
}

// requireDashboard rejects admin operations unless the admin dashboard is
// the current view.
func (h *Handler) requireDashboard(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.store.Snapshot().View != view.AdminDashboard {
			writeError(w, http.StatusForbidden, "admin login required")
			return
		}
		next(w, r)
	})
}
