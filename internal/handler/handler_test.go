package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/notify"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/storefront"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// --- Response types ---

type productResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       int     `json:"price"`
	Description string  `json:"description"`
	Stock       *int    `json:"stock"`
	Unlimited   bool    `json:"unlimited"`
	InStock     bool    `json:"inStock"`
	Image       *string `json:"image"`
}

type notificationResponse struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

type stateResponse struct {
	View          string                `json:"view"`
	MenuOpen      bool                  `json:"menuOpen"`
	ModalOpen     bool                  `json:"modalOpen"`
	EditTarget    *productResponse      `json:"editTarget"`
	PendingDelete *string               `json:"pendingDelete"`
	Query         string                `json:"query"`
	CartCount     int                   `json:"cartCount"`
	Notification  *notificationResponse `json:"notification"`
}

type errorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

type cartResponse struct {
	Items []productResponse `json:"items"`
	Count int               `json:"count"`
	Total string            `json:"total"`
}

// --- Helpers ---

type fixture struct {
	mux  *http.ServeMux
	repo *memory.ProductRepository
}

func newFixture(t *testing.T, opts ...storefront.Option) *fixture {
	t.Helper()

	repo := memory.NewProductRepository(
		product.Product{ID: "p1", Name: "Leather Wallet", Price: 45, Description: "Bifold", Stock: 12, Image: "/wallet.jpg"},
		product.Product{ID: "p2", Name: "Tote Bag", Price: 25, Description: "Canvas", Stock: 0},
		product.Product{ID: "p3", Name: "E-Book", Price: 15, Description: "Photography guide", Unlimited: true},
	)
	opts = append([]storefront.Option{storefront.WithNotifier(notify.New(time.Hour))}, opts...)
	store, err := storefront.New(repo, opts...)
	require.NoError(t, err)

	h := NewHandler(HandlerConfig{
		ImageBaseURL: "https://cdn.example.com",
		Contacts:     []Contact{{Kind: "email", URL: "mailto:shop@example.com"}},
	}, store)
	mux := http.NewServeMux()
	h.Register(mux)
	return &fixture{mux: mux, repo: repo}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/view/admin", "").Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/login", `{"username":"a","password":"b"}`).Code)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

// --- Tests ---

func TestGetState_Initial(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	s := decode[stateResponse](t, w)
	assert.Equal(t, "store", s.View)
	assert.False(t, s.MenuOpen)
	assert.Nil(t, s.EditTarget)
	assert.Nil(t, s.PendingDelete)
	assert.Nil(t, s.Notification)
}

func TestToggleMenu(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/menu/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"menuOpen":true}`, w.Body.String())
}

func TestListContacts(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/contact", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"kind":"email","url":"mailto:shop@example.com"}]`, w.Body.String())
}

func TestListProducts(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, w.Code)

	products := decode[[]productResponse](t, w)
	require.Len(t, products, 3)

	assert.Equal(t, "p1", products[0].ID)
	require.NotNil(t, products[0].Image)
	assert.Equal(t, "https://cdn.example.com/wallet.jpg", *products[0].Image)
	require.NotNil(t, products[0].Stock)
	assert.Equal(t, 12, *products[0].Stock)

	assert.False(t, products[1].InStock)
	assert.Nil(t, products[1].Image)

	assert.True(t, products[2].Unlimited)
	assert.True(t, products[2].InStock)
	assert.Nil(t, products[2].Stock, "unlimited products report no stock")
}

func TestListProducts_Search(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/products?q=PHOTO", "")
	require.Equal(t, http.StatusOK, w.Code)
	products := decode[[]productResponse](t, w)
	require.Len(t, products, 1)
	assert.Equal(t, "p3", products[0].ID)

	// The query is remembered until replaced.
	w = f.do(t, http.MethodGet, "/api/products", "")
	assert.Len(t, decode[[]productResponse](t, w), 1)
	assert.Equal(t, "PHOTO", decode[stateResponse](t, f.do(t, http.MethodGet, "/api/state", "")).Query)

	w = f.do(t, http.MethodGet, "/api/products?q=", "")
	assert.Len(t, decode[[]productResponse](t, w), 3)

	w = f.do(t, http.MethodGet, "/api/products?q=zzz", "")
	assert.Empty(t, decode[[]productResponse](t, w))
}

func TestGetProduct(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/products/p2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tote Bag", decode[productResponse](t, w).Name)

	w = f.do(t, http.MethodGet, "/api/products/missing", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	e := decode[errorResponse](t, w)
	assert.Equal(t, 404, e.Code)
	assert.Equal(t, "product not found", e.Message)
}

func TestCart(t *testing.T) {
	f := newFixture(t)

	for i, id := range []string{"p1", "p3", "p1"} {
		w := f.do(t, http.MethodPost, "/api/cart", `{"productId":"`+id+`"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			Product   productResponse `json:"product"`
			CartCount int             `json:"cartCount"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, id, resp.Product.ID)
		assert.Equal(t, i+1, resp.CartCount)
	}

	w := f.do(t, http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusOK, w.Code)
	c := decode[cartResponse](t, w)
	assert.Equal(t, 3, c.Count)
	assert.Len(t, c.Items, 3)
	assert.Equal(t, "105.00", c.Total)

	s := decode[stateResponse](t, f.do(t, http.MethodGet, "/api/state", ""))
	assert.Equal(t, 3, s.CartCount)
	require.NotNil(t, s.Notification)
	assert.Equal(t, "Leather Wallet added to cart", s.Notification.Message)
}

func TestAddToCart_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "missing product id", body: `{}`, code: http.StatusBadRequest},
		{name: "malformed body", body: `{"productId":`, code: http.StatusBadRequest},
		{name: "trailing data", body: `{"productId":"p1"}garbage`, code: http.StatusBadRequest},
		{name: "two objects", body: `{"productId":"p1"} {}`, code: http.StatusBadRequest},
		{name: "unknown product", body: `{"productId":"nope"}`, code: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/cart", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode[errorResponse](t, w).Code)
		})
	}
}

func TestAddToCart_ZeroStock(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/cart", `{"productId":"p2"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Product   productResponse `json:"product"`
		CartCount int             `json:"cartCount"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "p2", resp.Product.ID)
	assert.False(t, resp.Product.InStock)
	assert.Equal(t, 1, resp.CartCount)
}

func TestLogin_RateLimited(t *testing.T) {
	repo := memory.NewProductRepository()
	store, err := storefront.New(repo, storefront.WithNotifier(notify.New(time.Hour)))
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewHandler(HandlerConfig{
		LoginLimit: httpmiddleware.RateLimit(httpmiddleware.RateLimitConfig{Max: 1, Window: time.Minute}),
	}, store).Register(mux)
	f := &fixture{mux: mux, repo: repo}

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/view/admin", "").Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/view/back", "").Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/view/admin", "").Code)

	// The first attempt spends the budget, the second is rejected before
	// reaching the store.
	w := f.do(t, http.MethodPost, "/api/login", `{"username":"a","password":"b"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/logout", "").Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/view/admin", "").Code)

	w = f.do(t, http.MethodPost, "/api/login", `{"username":"a","password":"b"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "admin-login", decode[stateResponse](t, f.do(t, http.MethodGet, "/api/state", "")).View)
}

func TestViewTransitions(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/view/admin", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin-login", decode[stateResponse](t, w).View)

	w = f.do(t, http.MethodPost, "/api/view/back", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "store", decode[stateResponse](t, w).View)

	f.login(t)
	w = f.do(t, http.MethodPost, "/api/view/store", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "store", decode[stateResponse](t, w).View)

	f.login(t)
	w = f.do(t, http.MethodPost, "/api/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	s := decode[stateResponse](t, w)
	assert.Equal(t, "store", s.View)
	require.NotNil(t, s.Notification)
	assert.Equal(t, "Logged out", s.Notification.Message)

	w = f.do(t, http.MethodPost, "/api/logout", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_Rejected(t *testing.T) {
	f := newFixture(t, storefront.WithAuthenticator(rejectAll{}))

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/view/admin", "").Code)
	w := f.do(t, http.MethodPost, "/api/login", `{"username":"a","password":"b"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	s := decode[stateResponse](t, f.do(t, http.MethodGet, "/api/state", ""))
	assert.Equal(t, "admin-login", s.View)
}

type rejectAll struct{}

func (rejectAll) Authenticate(context.Context, auth.Credentials) error { return auth.ErrUnauthorized }

func TestAdminRoutes_RequireDashboard(t *testing.T) {
	f := newFixture(t)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/admin/editor"},
		{http.MethodDelete, "/api/admin/editor"},
		{http.MethodPost, "/api/admin/products"},
		{http.MethodPost, "/api/admin/products/p1/delete"},
		{http.MethodPost, "/api/admin/delete/confirm"},
		{http.MethodPost, "/api/admin/delete/cancel"},
	}
	for _, rt := range routes {
		w := f.do(t, rt.method, rt.path, "")
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", rt.method, rt.path)
	}
	assert.Equal(t, 3, f.repo.Len())
}

func TestAdmin_CreateProduct(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	w := f.do(t, http.MethodPost, "/api/admin/editor", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"editTarget":null,"form":{"name":"","price":"","description":"","stock":"","unlimited":false,"image":""}}`,
		w.Body.String())

	w = f.do(t, http.MethodPost, "/api/admin/products",
		`{"name":"Wool Beanie","price":20,"description":"Merino","stock":"7","unlimited":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decode[productResponse](t, w)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 20, p.Price)

	assert.Equal(t, 4, f.repo.Len())
	s := decode[stateResponse](t, f.do(t, http.MethodGet, "/api/state", ""))
	assert.False(t, s.ModalOpen)
	require.NotNil(t, s.Notification)
	assert.Equal(t, "success", s.Notification.Severity)
}

func TestAdmin_UpdateProduct(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	w := f.do(t, http.MethodPost, "/api/admin/editor", `{"productId":"p1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var opened struct {
		EditTarget productResponse `json:"editTarget"`
		Form       map[string]any  `json:"form"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&opened))
	assert.Equal(t, "p1", opened.EditTarget.ID)
	assert.Equal(t, "45", opened.Form["price"])

	w = f.do(t, http.MethodPost, "/api/admin/products",
		`{"name":"Slim Wallet","price":"50","description":"Bifold","stock":"3"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "p1", decode[productResponse](t, w).ID)

	assert.Equal(t, 3, f.repo.Len())
	p, err := f.repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Slim Wallet", p.Name)
	assert.Equal(t, 50, p.Price)
}

func TestAdmin_SaveInvalidForm(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/admin/editor", "").Code)

	w := f.do(t, http.MethodPost, "/api/admin/products", `{"name":"x","price":"abc"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	e := decode[errorResponse](t, w)
	assert.Contains(t, e.Fields, "price")
	assert.Contains(t, e.Fields, "description")
	assert.Contains(t, e.Fields, "stock")
	assert.NotContains(t, e.Fields, "name")

	s := decode[stateResponse](t, f.do(t, http.MethodGet, "/api/state", ""))
	assert.True(t, s.ModalOpen, "editor stays open")
}

func TestAdmin_SaveWithoutEditor(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	w := f.do(t, http.MethodPost, "/api/admin/products", `{"name":"a","price":"1","description":"d","stock":"1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdmin_CloseEditor(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/admin/editor", `{"productId":"p2"}`).Code)
	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/admin/editor", "").Code)

	s := decode[stateResponse](t, f.do(t, http.MethodGet, "/api/state", ""))
	assert.False(t, s.ModalOpen)
	assert.Nil(t, s.EditTarget)
}

func TestAdmin_DeleteFlow(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	w := f.do(t, http.MethodPost, "/api/admin/products/p2/delete", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 3, f.repo.Len())

	s := decode[stateResponse](t, f.do(t, http.MethodGet, "/api/state", ""))
	require.NotNil(t, s.PendingDelete)
	assert.Equal(t, "p2", *s.PendingDelete)

	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/api/admin/delete/confirm", "").Code)
	assert.Equal(t, 2, f.repo.Len())
	_, err := f.repo.GetByID(context.Background(), "p2")
	assert.ErrorIs(t, err, product.ErrNotFound)

	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/api/admin/delete/confirm", "").Code)
}

func TestAdmin_DeleteCancel(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/api/admin/products/p1/delete", "").Code)
	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/api/admin/delete/cancel", "").Code)
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/api/admin/delete/confirm", "").Code)
	assert.Equal(t, 3, f.repo.Len())
}

func TestAdmin_DeleteUnknown(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	w := f.do(t, http.MethodPost, "/api/admin/products/missing/delete", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
