package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Barackwilliam/sokoletu/pkg/config"
	"github.com/Barackwilliam/sokoletu/pkg/db/models"
	"github.com/Barackwilliam/sokoletu/pkg/enums"
	pkgerrors "github.com/Barackwilliam/sokoletu/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := gdb.AutoMigrate(&models.Product{}, &models.Cart{}, &models.CartItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pricer := NewPricer(config.CheckoutConfig{
		TaxRate:               decimal.RequireFromString("0.18"),
		FreeShippingThreshold: decimal.NewFromInt(50000),
		ShippingFlatFee:       decimal.NewFromInt(5000),
	})
	svc, err := NewService(NewRepo(gdb), pricer)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, gdb
}

func seedProduct(t *testing.T, gdb *gorm.DB, name string, price int64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ShopID:        uuid.New(),
		Name:          name,
		Slug:          name,
		Price:         decimal.NewFromInt(price),
		StockQuantity: stock,
		Status:        enums.ProductStatusPublished,
		IsActive:      true,
	}
	if err := gdb.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func TestGetCreatesCartOnFirstUse(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	userID := uuid.New()

	view, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("fresh cart has %d items", len(view.Items))
	}
	if !view.Quote.Total.IsZero() {
		t.Fatalf("fresh cart total = %s, want 0", view.Quote.Total)
	}

	// Second fetch reuses the same cart row.
	again, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.ID != view.ID {
		t.Fatal("expected one cart per user")
	}
}

func TestAddItemIncrementsOnReAdd(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	product := seedProduct(t, gdb, "Kanga", 12000, 10)

	if _, err := svc.AddItem(ctx, userID, product.ID, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	view, err := svc.AddItem(ctx, userID, product.ID, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(view.Items) != 1 {
		t.Fatalf("items = %d, want 1 merged line", len(view.Items))
	}
	if view.Items[0].Quantity != 5 {
		t.Fatalf("quantity = %d, want 5", view.Items[0].Quantity)
	}
	if !view.Quote.Subtotal.Equal(decimal.NewFromInt(60000)) {
		t.Fatalf("subtotal = %s, want 60000", view.Quote.Subtotal)
	}
}

func TestAddItemRejectsOverStock(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	product := seedProduct(t, gdb, "Mkeka", 8000, 3)

	if _, err := svc.AddItem(ctx, userID, product.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	// 2 already in cart; 2 more would exceed the 3 in stock.
	_, err := svc.AddItem(ctx, userID, product.ID, 2)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestAddItemRejectsUnpublishedProduct(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestService(t)
	product := seedProduct(t, gdb, "Draft", 1000, 5)
	if err := gdb.Model(product).Update("status", enums.ProductStatusDraft).Error; err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	_, err := svc.AddItem(context.Background(), uuid.New(), product.ID, 1)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateItemQuantity(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	product := seedProduct(t, gdb, "Asali", 15000, 10)

	view, err := svc.AddItem(ctx, userID, product.ID, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	itemID := view.Items[0].ID

	view, err = svc.UpdateItem(ctx, userID, itemID, 4)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if view.Items[0].Quantity != 4 {
		t.Fatalf("quantity = %d, want 4", view.Items[0].Quantity)
	}

	if _, err := svc.UpdateItem(ctx, userID, itemID, 0); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
	if _, err := svc.UpdateItem(ctx, userID, itemID, 99); !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestItemOwnershipScoping(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()
	product := seedProduct(t, gdb, "Chumvi", 2000, 10)

	view, err := svc.AddItem(ctx, owner, product.ID, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	itemID := view.Items[0].ID

	if _, err := svc.UpdateItem(ctx, stranger, itemID, 2); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("stranger update should read as not found, got %v", err)
	}
	if _, err := svc.RemoveItem(ctx, stranger, itemID); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("stranger remove should read as not found, got %v", err)
	}

	// The owner still sees the item untouched.
	count, err := svc.Count(ctx, owner)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestRemoveAndClear(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	first := seedProduct(t, gdb, "Ndizi", 500, 10)
	second := seedProduct(t, gdb, "Embe", 700, 10)

	if _, err := svc.AddItem(ctx, userID, first.ID, 2); err != nil {
		t.Fatalf("add first: %v", err)
	}
	view, err := svc.AddItem(ctx, userID, second.ID, 1)
	if err != nil {
		t.Fatalf("add second: %v", err)
	}
	if len(view.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(view.Items))
	}

	var removeID uuid.UUID
	for _, item := range view.Items {
		if item.ProductID == first.ID {
			removeID = item.ID
		}
	}
	view, err = svc.RemoveItem(ctx, userID, removeID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].ProductID != second.ID {
		t.Fatal("wrong item removed")
	}

	if err := svc.Clear(ctx, userID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	count, err := svc.Count(ctx, userID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("count after clear = %d, want 0", count)
	}
}

func TestQuoteUsesLivePrices(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	product := seedProduct(t, gdb, "Kitenge", 10000, 10)

	if _, err := svc.AddItem(ctx, userID, product.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := gdb.Model(product).Update("price", decimal.NewFromInt(55000)).Error; err != nil {
		t.Fatalf("reprice: %v", err)
	}

	_, quote, err := svc.Snapshot(ctx, userID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !quote.Subtotal.Equal(decimal.NewFromInt(55000)) {
		t.Fatalf("subtotal = %s, want live price 55000", quote.Subtotal)
	}
	if !quote.Total.Equal(decimal.NewFromInt(64900)) {
		t.Fatalf("total = %s, want 64900", quote.Total)
	}
}
