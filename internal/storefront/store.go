// Package storefront holds the application state of the storefront: catalog,
// cart, current view, notification and transient UI flags, together with the
// operations that change them.
package storefront

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/notify"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/view"
)

var (
	// ErrEditorClosed is returned when saving while the product editor is not open.
	ErrEditorClosed = errors.New("product editor is not open")
	// ErrNoPendingDelete is returned when confirming a deletion nobody requested.
	ErrNoPendingDelete = errors.New("no deletion awaiting confirmation")
)

// Snapshot is a point-in-time copy of the state a screen renders from.
type Snapshot struct {
	View          view.View
	MenuOpen      bool
	ModalOpen     bool
	EditTarget    *product.Product
	PendingDelete string
	Query         string
	CartCount     int
	Notification  *notify.Notification
}

// CartContents lists the cart entries and their total price.
type CartContents struct {
	Items []product.Product
	Total decimal.Decimal
}

type options struct {
	auth     auth.Authenticator
	notifier *notify.Notifier
	newID    func() string
	tracer   trace.TracerProvider
	meter    metric.MeterProvider
}

// Option configures a Store.
type Option func(*options)

// WithAuthenticator sets the admin login check. Defaults to auth.AllowAll.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(o *options) { o.auth = a }
}

// WithNotifier sets the notification emitter.
func WithNotifier(n *notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithIDGenerator overrides product ID generation.
func WithIDGenerator(f func() string) Option {
	return func(o *options) { o.newID = f }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = tp }
}

// WithMeterProvider sets the meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meter = mp }
}

// Store is the single application state. All operations are safe for
// concurrent use; they are serialized.
type Store struct {
	products product.Repository
	notifier *notify.Notifier
	newID    func() string
	tracer   trace.Tracer
	metrics  *metrics

	mu            sync.Mutex
	router        *view.Router
	cart          cart.Cart
	menuOpen      bool
	modalOpen     bool
	editTarget    *product.Product
	pendingDelete string
	query         string
}

// New creates a Store over the given catalog.
func New(products product.Repository, opts ...Option) (*Store, error) {
	o := options{
		auth:   auth.AllowAll{},
		newID:  func() string { return uuid.New().String() },
		tracer: otel.GetTracerProvider(),
		meter:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.notifier == nil {
		o.notifier = notify.New(notify.DefaultTTL)
	}

	m, err := newMetrics(o.meter)
	if err != nil {
		return nil, errors.Wrap(err, "create metrics")
	}

	return &Store{
		products: products,
		notifier: o.notifier,
		newID:    o.newID,
		tracer:   o.tracer.Tracer(instrumentationName),
		metrics:  m,
		router:   view.NewRouter(o.auth),
	}, nil
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		View:          s.router.Current(),
		MenuOpen:      s.menuOpen,
		ModalOpen:     s.modalOpen,
		PendingDelete: s.pendingDelete,
		Query:         s.query,
		CartCount:     s.cart.Count(),
	}
	if s.editTarget != nil {
		target := *s.editTarget
		snap.EditTarget = &target
	}
	if n, ok := s.notifier.Current(); ok {
		snap.Notification = &n
	}
	return snap
}

// Notification returns the visible notification, if any.
func (s *Store) Notification() (notify.Notification, bool) {
	return s.notifier.Current()
}

// ToggleMenu flips the navigation menu and returns its new state.
func (s *Store) ToggleMenu() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.menuOpen = !s.menuOpen
	return s.menuOpen
}

// SetQuery records the catalog search query.
func (s *Store) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.query = q
}

// Products returns the catalog filtered by the current query.
func (s *Store) Products(ctx context.Context) ([]product.Product, error) {
	s.mu.Lock()
	q := s.query
	s.mu.Unlock()

	all, err := s.products.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return product.Filter(all, q), nil
}

// Product returns a single catalog entry.
func (s *Store) Product(ctx context.Context, id string) (*product.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}
	return p, nil
}

// AddToCart appends a snapshot of the product to the cart. Stock is neither
// checked nor decremented.
func (s *Store) AddToCart(ctx context.Context, id string) (_ product.Product, rerr error) {
	ctx, span := s.tracer.Start(ctx, "storefront.AddToCart",
		trace.WithAttributes(attribute.String("product.id", id)),
	)
	defer func() { endSpan(span, rerr) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return product.Product{}, errors.Wrap(err, "get product")
	}
	s.cart.Add(*p)
	s.metrics.cartAdds.Add(ctx, 1)
	s.notifier.Notify(fmt.Sprintf("%s added to cart", p.Name), notify.Info)
	return *p, nil
}

// Cart returns the cart contents.
func (s *Store) Cart() CartContents {
	s.mu.Lock()
	defer s.mu.Unlock()

	return CartContents{Items: s.cart.Items(), Total: s.cart.Total()}
}

// OpenAdmin navigates from the store to the admin login.
func (s *Store) OpenAdmin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.router.OpenAdmin(); err != nil {
		return err
	}
	s.menuOpen = false
	return nil
}

// Back returns from the admin login to the store.
func (s *Store) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.router.Back()
}

// Login submits admin credentials.
func (s *Store) Login(ctx context.Context, creds auth.Credentials) (rerr error) {
	ctx, span := s.tracer.Start(ctx, "storefront.Login")
	defer func() { endSpan(span, rerr) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.router.Login(ctx, creds)
	var te *view.TransitionError
	if errors.As(err, &te) {
		return err
	}
	s.metrics.login(ctx, err == nil)
	if err != nil {
		zctx.From(ctx).Warn("Admin login rejected", zap.String("username", creds.Username))
		s.notifier.Notify("Invalid credentials", notify.Error)
		return err
	}

	zctx.From(ctx).Info("Admin logged in", zap.String("username", creds.Username))
	s.notifier.Notify("Welcome to the admin dashboard", notify.Success)
	return nil
}

// Logout leaves the dashboard for the store.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.router.Logout(); err != nil {
		return err
	}
	s.resetAdminLocked()
	s.notifier.Notify("Logged out", notify.Info)
	return nil
}

// ViewStore leaves the dashboard for the store.
func (s *Store) ViewStore() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.router.ViewStore(); err != nil {
		return err
	}
	s.resetAdminLocked()
	return nil
}

// OpenEditor opens the product editor. An empty id opens it for a new
// product; otherwise the product becomes the edit target.
func (s *Store) OpenEditor(ctx context.Context, id string) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *product.Product
	if id != "" {
		p, err := s.products.GetByID(ctx, id)
		if err != nil {
			return nil, errors.Wrap(err, "get product")
		}
		target = p
	}

	s.editTarget = target
	s.modalOpen = true
	return target, nil
}

// CloseEditor closes the editor and clears the edit target.
func (s *Store) CloseEditor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeEditorLocked()
}

// SaveProduct validates the editor form and either replaces the edit target
// or appends a new product. On success the editor closes.
func (s *Store) SaveProduct(ctx context.Context, form product.Form) (_ product.Product, rerr error) {
	ctx, span := s.tracer.Start(ctx, "storefront.SaveProduct")
	defer func() { endSpan(span, rerr) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.modalOpen {
		return product.Product{}, ErrEditorClosed
	}

	var id, op string
	if s.editTarget != nil {
		id, op = s.editTarget.ID, "update"
	} else {
		id, op = s.newID(), "create"
	}
	span.SetAttributes(attribute.String("product.id", id), attribute.String("op", op))

	p, err := form.Build(id)
	if err != nil {
		return product.Product{}, err
	}

	msg := "Product added"
	if op == "update" {
		msg = "Product updated"
		err = s.products.Replace(ctx, p)
	} else {
		err = s.products.Create(ctx, p)
	}
	if err != nil {
		return product.Product{}, errors.Wrapf(err, "%s product", op)
	}

	s.metrics.saved(ctx, op)
	zctx.From(ctx).Info("Product saved",
		zap.String("id", p.ID),
		zap.String("op", op),
		zap.String("name", p.Name),
	)
	s.notifier.Notify(msg, notify.Success)
	s.closeEditorLocked()
	return p, nil
}

// RequestDelete asks for confirmation before deleting the product.
func (s *Store) RequestDelete(ctx context.Context, id string) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}
	s.pendingDelete = id
	return p, nil
}

// ConfirmDelete deletes the product awaiting confirmation.
func (s *Store) ConfirmDelete(ctx context.Context) (rerr error) {
	ctx, span := s.tracer.Start(ctx, "storefront.ConfirmDelete")
	defer func() { endSpan(span, rerr) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.pendingDelete
	if id == "" {
		return ErrNoPendingDelete
	}
	span.SetAttributes(attribute.String("product.id", id))

	s.pendingDelete = ""
	if err := s.products.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete product")
	}
	if s.editTarget != nil && s.editTarget.ID == id {
		s.closeEditorLocked()
	}

	s.metrics.deletes.Add(ctx, 1)
	zctx.From(ctx).Info("Product deleted", zap.String("id", id))
	s.notifier.Notify("Product deleted", notify.Success)
	return nil
}

// CancelDelete drops a pending deletion request.
func (s *Store) CancelDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendingDelete = ""
}

func (s *Store) closeEditorLocked() {
	s.modalOpen = false
	s.editTarget = nil
}

// resetAdminLocked drops dashboard-only state when leaving the dashboard.
func (s *Store) resetAdminLocked() {
	s.closeEditorLocked()
	s.pendingDelete = ""
	s.menuOpen = false
}
