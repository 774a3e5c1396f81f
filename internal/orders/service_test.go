package orders

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Barackwilliam/sokoletu/internal/ledger"
	"github.com/Barackwilliam/sokoletu/pkg/db/models"
	"github.com/Barackwilliam/sokoletu/pkg/enums"
	pkgerrors "github.com/Barackwilliam/sokoletu/pkg/errors"
	"github.com/Barackwilliam/sokoletu/pkg/logger"
	"github.com/Barackwilliam/sokoletu/pkg/pagination"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := gdb.AutoMigrate(
		&models.Product{}, &models.Order{}, &models.OrderItem{}, &models.LedgerEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	ledgerSvc, err := ledger.NewService(ledger.NewRepo(gdb), log)
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	svc, err := NewService(NewRepo(gdb), gormTxRunner{db: gdb}, ledgerSvc)
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}
	return svc, gdb
}

func seedOrder(t *testing.T, gdb *gorm.DB, userID uuid.UUID, status enums.OrderStatus, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber:      NewNumber(),
		UserID:           userID,
		Status:           status,
		PaymentStatus:    enums.PaymentStatusPending,
		PaymentMethod:    enums.PaymentMethodMpesa,
		Subtotal:         decimal.NewFromInt(55000),
		TaxAmount:        decimal.NewFromInt(9900),
		ShippingCost:     decimal.Zero,
		Total:            decimal.NewFromInt(64900),
		ShippingName:     "Asha Mrema",
		ShippingPhone:    "+255700000001",
		ShippingEmail:    "asha@example.com",
		ShippingAddress:  "12 Uhuru St",
		ShippingRegion:   "Dar es Salaam",
		ShippingDistrict: "Ilala",
		CreatedAt:        createdAt,
	}
	if err := gdb.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func seedOrderItem(t *testing.T, gdb *gorm.DB, orderID, productID uuid.UUID, name string, quantity int) {
	t.Helper()
	item := &models.OrderItem{
		OrderID:      orderID,
		ProductID:    productID,
		ProductName:  name,
		ProductPrice: decimal.NewFromInt(1000),
		Quantity:     quantity,
		TotalPrice:   decimal.NewFromInt(int64(quantity) * 1000),
	}
	if err := gdb.Create(item).Error; err != nil {
		t.Fatalf("seed order item: %v", err)
	}
}

func TestGetScopedToUser(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()
	order := seedOrder(t, gdb, owner, enums.OrderStatusConfirmed, time.Now().UTC())

	view, err := svc.Get(ctx, owner, order.OrderNumber)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.OrderNumber != order.OrderNumber {
		t.Fatalf("order number = %s, want %s", view.OrderNumber, order.OrderNumber)
	}

	_, err = svc.Get(ctx, uuid.New(), order.OrderNumber)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("stranger access should read as not found, got %v", err)
	}
}

func TestListPaginatesNewestFirst(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	base := time.Now().UTC().Add(-time.Hour)
	oldest := seedOrder(t, gdb, userID, enums.OrderStatusConfirmed, base)
	middle := seedOrder(t, gdb, userID, enums.OrderStatusConfirmed, base.Add(time.Minute))
	newest := seedOrder(t, gdb, userID, enums.OrderStatusConfirmed, base.Add(2*time.Minute))
	seedOrder(t, gdb, uuid.New(), enums.OrderStatusConfirmed, base.Add(3*time.Minute))

	page, err := svc.List(ctx, userID, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(page.Orders))
	}
	if page.Orders[0].OrderNumber != newest.OrderNumber || page.Orders[1].OrderNumber != middle.OrderNumber {
		t.Fatal("orders not newest first")
	}
	if page.NextCursor == "" {
		t.Fatal("expected next cursor")
	}

	page, err = svc.List(ctx, userID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page.Orders) != 1 || page.Orders[0].OrderNumber != oldest.OrderNumber {
		t.Fatal("second page should hold only the oldest order")
	}
	if page.NextCursor != "" {
		t.Fatalf("unexpected next cursor %q", page.NextCursor)
	}
}

func TestListRejectsGarbageCursor(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.List(context.Background(), uuid.New(), pagination.Params{Cursor: "not-base64!"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCancelRestoresStock(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	// Stock already sits decremented by the checkout that created the order.
	product := &models.Product{
		ShopID:        uuid.New(),
		Name:          "Kanga",
		Slug:          "kanga",
		Price:         decimal.NewFromInt(1000),
		StockQuantity: 3,
		Status:        enums.ProductStatusPublished,
		IsActive:      true,
	}
	if err := gdb.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	order := seedOrder(t, gdb, userID, enums.OrderStatusPending, time.Now().UTC())
	seedOrderItem(t, gdb, order.ID, product.ID, "Kanga", 2)

	view, err := svc.Cancel(ctx, userID, order.OrderNumber)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if view.Status != enums.OrderStatusCancelled {
		t.Fatalf("status = %s, want cancelled", view.Status)
	}

	var fresh models.Product
	if err := gdb.First(&fresh, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if fresh.StockQuantity != 5 {
		t.Fatalf("stock = %d, want 5 after restore", fresh.StockQuantity)
	}

	events, err := svc.Events(ctx, userID, order.OrderNumber)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 || events[0].Type != enums.LedgerEventTypeOrderCancelled {
		t.Fatalf("expected one order_cancelled event, got %v", events)
	}
}

func TestCancelRefundsPaidOrder(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	order := seedOrder(t, gdb, userID, enums.OrderStatusConfirmed, time.Now().UTC())
	if err := gdb.Model(order).Update("payment_status", enums.PaymentStatusPaid).Error; err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	view, err := svc.Cancel(ctx, userID, order.OrderNumber)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if view.PaymentStatus != enums.PaymentStatusRefunded {
		t.Fatalf("payment status = %s, want refunded", view.PaymentStatus)
	}
}

func TestCancelRejectsShippedOrder(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestService(t)
	userID := uuid.New()
	order := seedOrder(t, gdb, userID, enums.OrderStatusShipped, time.Now().UTC())

	_, err := svc.Cancel(context.Background(), userID, order.OrderNumber)
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestShipmentLifecycle(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	order := seedOrder(t, gdb, userID, enums.OrderStatusConfirmed, time.Now().UTC())

	// Delivery before shipment is an invalid transition.
	if _, err := svc.MarkDelivered(ctx, order.OrderNumber); !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	view, err := svc.MarkShipped(ctx, order.OrderNumber)
	if err != nil {
		t.Fatalf("mark shipped: %v", err)
	}
	if view.Status != enums.OrderStatusShipped || view.ShippedAt == nil {
		t.Fatalf("shipped view = %+v", view)
	}

	view, err = svc.MarkDelivered(ctx, order.OrderNumber)
	if err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	if view.Status != enums.OrderStatusDelivered || view.DeliveredAt == nil {
		t.Fatalf("delivered view = %+v", view)
	}
}
