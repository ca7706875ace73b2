package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// OpenAdmin navigates to the admin login screen.
func (h *Handler) OpenAdmin(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.store.OpenAdmin)
}

// Back returns from the admin login screen to the store.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.store.Back)
}

// ViewStore leaves the dashboard for the store.
func (h *Handler) ViewStore(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.store.ViewStore)
}

// Logout leaves the dashboard for the store.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.store.Logout)
}

// Login submits admin credentials.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(w, r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.transition(w, r, func() error { return h.store.Login(r.Context(), creds) })
}

// transition runs a view change and responds with the resulting state.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, f func() error) {
	if err := f(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	snap := h.store.Snapshot()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeSnapshot(e, snap) })
}
