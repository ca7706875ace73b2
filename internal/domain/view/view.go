// Package view implements the top-level screen state machine of the
// storefront: store, admin login and admin dashboard.
package view

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/auth"
)

// View is the top-level screen currently rendered.
type View string

const (
	// Store is the public catalog. It is the initial view.
	Store View = "store"
	// AdminLogin is the admin credential screen.
	AdminLogin View = "admin-login"
	// AdminDashboard is the product management panel.
	AdminDashboard View = "admin-dashboard"
)

// TransitionError is returned when an action is not allowed from the current
// view.
type TransitionError struct {
	From   View
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s from view %q", e.Action, e.From)
}

// Router tracks the current view. All transitions are user-triggered; the
// only guarded one is Login, which consults the Authenticator.
type Router struct {
	current View
	auth    auth.Authenticator
}

// NewRouter returns a Router in the Store view. A nil authenticator accepts
// any credentials.
func NewRouter(a auth.Authenticator) *Router {
	if a == nil {
		a = auth.AllowAll{}
	}
	return &Router{current: Store, auth: a}
}

// Current returns the current view.
func (r *Router) Current() View {
	return r.current
}

// OpenAdmin moves from the store to the admin login screen.
func (r *Router) OpenAdmin() error {
	return r.move("open admin", Store, AdminLogin)
}

// Back returns from the admin login screen to the store.
func (r *Router) Back() error {
	return r.move("go back", AdminLogin, Store)
}

// Login submits credentials on the admin login screen and enters the
// dashboard when the authenticator accepts them. On rejection the view stays
// on the login screen.
func (r *Router) Login(ctx context.Context, creds auth.Credentials) error {
	if r.current != AdminLogin {
		return &TransitionError{From: r.current, Action: "log in"}
	}
	if err := r.auth.Authenticate(ctx, creds); err != nil {
		return errors.Wrap(err, "authenticate")
	}
	r.current = AdminDashboard
	return nil
}

// Logout leaves the dashboard for the store.
func (r *Router) Logout() error {
	return r.move("log out", AdminDashboard, Store)
}

// ViewStore leaves the dashboard for the store without any other effect.
func (r *Router) ViewStore() error {
	return r.move("view store", AdminDashboard, Store)
}

func (r *Router) move(action string, from, to View) error {
	if r.current != from {
		return &TransitionError{From: r.current, Action: action}
	}
	r.current = to
	return nil
}
