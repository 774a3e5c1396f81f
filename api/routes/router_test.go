package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/Barackwilliam/sokoletu/internal/cart"
	"github.com/Barackwilliam/sokoletu/internal/checkout"
	"github.com/Barackwilliam/sokoletu/internal/orders"
	"github.com/Barackwilliam/sokoletu/pkg/config"
	"github.com/Barackwilliam/sokoletu/pkg/db/models"
	pkgerrors "github.com/Barackwilliam/sokoletu/pkg/errors"
	"github.com/Barackwilliam/sokoletu/pkg/pagination"
	"github.com/Barackwilliam/sokoletu/pkg/types"
)

type fakeCart struct {
	view *cart.View
	err  error
}

func (f *fakeCart) Get(context.Context, uuid.UUID) (*cart.View, error) { return f.view, f.err }
func (f *fakeCart) Count(context.Context, uuid.UUID) (int, error)      { return 2, f.err }
func (f *fakeCart) Clear(context.Context, uuid.UUID) error             { return f.err }
func (f *fakeCart) AddItem(context.Context, uuid.UUID, uuid.UUID, int) (*cart.View, error) {
	return f.view, f.err
}
func (f *fakeCart) UpdateItem(context.Context, uuid.UUID, uuid.UUID, int) (*cart.View, error) {
	return f.view, f.err
}
func (f *fakeCart) RemoveItem(context.Context, uuid.UUID, uuid.UUID) (*cart.View, error) {
	return f.view, f.err
}
func (f *fakeCart) Snapshot(context.Context, uuid.UUID) (*models.Cart, cart.Quote, error) {
	return &models.Cart{}, cart.Quote{}, f.err
}

type fakeCheckout struct {
	outcome *checkout.Outcome
	err     error
	gotten  checkout.Input
}

func (f *fakeCheckout) Execute(_ context.Context, input checkout.Input) (*checkout.Outcome, error) {
	f.gotten = input
	return f.outcome, f.err
}

type fakeOrders struct {
	view *orders.View
	page *orders.Page
	err  error
}

func (f *fakeOrders) Get(context.Context, uuid.UUID, string) (*orders.View, error) {
	return f.view, f.err
}
func (f *fakeOrders) List(context.Context, uuid.UUID, pagination.Params) (*orders.Page, error) {
	return f.page, f.err
}
func (f *fakeOrders) Events(context.Context, uuid.UUID, string) ([]models.LedgerEvent, error) {
	return nil, f.err
}
func (f *fakeOrders) Cancel(context.Context, uuid.UUID, string) (*orders.View, error) {
	return f.view, f.err
}
func (f *fakeOrders) MarkShipped(context.Context, string) (*orders.View, error) {
	return f.view, f.err
}
func (f *fakeOrders) MarkDelivered(context.Context, string) (*orders.View, error) {
	return f.view, f.err
}

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "dev"}}
}

func newTestRouter(cartSvc cart.Service, checkoutSvc checkout.Service, ordersSvc orders.Service) http.Handler {
	return NewRouter(Deps{
		Config:   testConfig(),
		Cart:     cartSvc,
		Checkout: checkoutSvc,
		Orders:   ordersSvc,
		Registry: prometheus.NewRegistry(),
	})
}

func authedRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-User-Id", uuid.NewString())
	return req
}

func TestHealthLiveIsPublic(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeCart{}, &fakeCheckout{}, &fakeOrders{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestMetricsEndpointMounted(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeCart{}, &fakeCheckout{}, &fakeOrders{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAPIRequiresIdentity(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeCart{}, &fakeCheckout{}, &fakeOrders{})
	for _, target := range []string{"/api/v1/cart", "/api/v1/orders"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s status = %d, want 401", target, rec.Code)
		}
	}
}

func TestCartRoutes(t *testing.T) {
	t.Parallel()

	view := &cart.View{ID: uuid.New(), Items: []cart.ItemView{}}
	router := newTestRouter(&fakeCart{view: view}, &fakeCheckout{}, &fakeOrders{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/cart", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("get cart status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/cart/count", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("cart count status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/cart/items/"+uuid.NewString(), `{"quantity":2}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("add item status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	// Garbage product id never reaches the service.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/cart/items/nope", `{"quantity":2}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad product id status = %d, want 400", rec.Code)
	}
}

func TestCheckoutRoute(t *testing.T) {
	t.Parallel()

	fc := &fakeCheckout{outcome: &checkout.Outcome{
		Order:         &orders.View{OrderNumber: "ORD-1A2B3C4D"},
		TransactionID: "MPESA123456",
	}}
	router := newTestRouter(&fakeCart{}, fc, &fakeOrders{})

	body := `{
		"payment_method": "mpesa",
		"phone_number": "+255700000001",
		"shipping": {
			"name": "Asha Mrema",
			"phone": "+255700000001",
			"email": "asha@example.com",
			"address": "12 Uhuru St",
			"region": "Dar es Salaam",
			"district": "Ilala"
		}
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/checkout", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if fc.gotten.PaymentMethod.String() != "mpesa" {
		t.Fatalf("payment method = %s", fc.gotten.PaymentMethod)
	}
	if fc.gotten.UserID == uuid.Nil {
		t.Fatal("user id not injected from identity header")
	}
}

func TestCheckoutRouteRejectsUnknownMethod(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeCart{}, &fakeCheckout{}, &fakeOrders{})
	body := `{
		"payment_method": "paypal",
		"shipping": {
			"name": "Asha Mrema",
			"phone": "+255700000001",
			"email": "asha@example.com",
			"address": "12 Uhuru St",
			"region": "Dar es Salaam",
			"district": "Ilala"
		}
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/checkout", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}

	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeUnsupportedGateway) {
		t.Fatalf("code = %s", envelope.Error.Code)
	}
}

func TestCheckoutRouteValidatesShipping(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeCart{}, &fakeCheckout{}, &fakeOrders{})
	body := `{"payment_method": "mpesa", "shipping": {"name": "Asha"}}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/checkout", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestOrdersRoutes(t *testing.T) {
	t.Parallel()

	view := &orders.View{OrderNumber: "ORD-1A2B3C4D", Total: decimal.NewFromInt(64900)}
	fo := &fakeOrders{view: view, page: &orders.Page{Orders: []orders.View{*view}}}
	router := newTestRouter(&fakeCart{}, &fakeCheckout{}, fo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/orders", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/orders/ORD-1A2B3C4D", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/orders/ORD-1A2B3C4D/cancel", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/orders?limit=abc", ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d, want 400", rec.Code)
	}
}

func TestErrorPassthroughFromService(t *testing.T) {
	t.Parallel()

	fo := &fakeOrders{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	router := newTestRouter(&fakeCart{}, &fakeCheckout{}, fo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/orders/ORD-MISSING", ""))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
