package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/Barackwilliam/sokoletu/pkg/db/models"
	pkgerrors "github.com/Barackwilliam/sokoletu/pkg/errors"
)

// Reservation is one product/quantity pair to hold or release.
type Reservation struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
}

// ReservationsFromCartItems maps cart lines (with preloaded products) into
// reservation requests.
func ReservationsFromCartItems(items []models.CartItem) []Reservation {
	reservations := make([]Reservation, 0, len(items))
	for _, item := range items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		reservations = append(reservations, Reservation{
			ProductID:   item.ProductID,
			ProductName: name,
			Quantity:    item.Quantity,
		})
	}
	return reservations
}

// ReservationsFromOrderItems maps order snapshots into reservation requests,
// used when compensating a failed payment.
func ReservationsFromOrderItems(items []models.OrderItem) []Reservation {
	reservations := make([]Reservation, 0, len(items))
	for _, item := range items {
		reservations = append(reservations, Reservation{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
		})
	}
	return reservations
}

// CheckAvailability verifies every cart line references a sellable product
// with enough stock. It performs no mutation; a violation rejects the whole
// checkout and names the offending product.
func CheckAvailability(items []models.CartItem) error {
	for _, item := range items {
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart item quantity must be at least 1")
		}
		if item.Product == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart references a missing product")
		}
		if !item.Product.IsSellable() {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("%s is no longer available", item.Product.Name)).
				WithDetails(map[string]any{"product_id": item.ProductID, "product": item.Product.Name})
		}
		if item.Quantity > item.Product.StockQuantity {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("insufficient stock for %s", item.Product.Name)).
				WithDetails(map[string]any{
					"product_id": item.ProductID,
					"product":    item.Product.Name,
					"requested":  item.Quantity,
					"available":  item.Product.StockQuantity,
				})
		}
	}
	return nil
}

// Reserve decrements stock for every reservation inside the caller's
// transaction. Each decrement is conditional on remaining stock so two
// concurrent checkouts can never drive a count negative; the first failure
// aborts with an error and the transaction rollback undoes prior decrements.
func Reserve(ctx context.Context, tx *gorm.DB, reservations []Reservation) error {
	for _, res := range reservations {
		if res.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("reservation quantity must be at least 1, got %d", res.Quantity))
		}

		result := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ? AND stock_quantity >= ?", res.ProductID, res.Quantity).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", res.Quantity))
		if result.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "reserving stock")
		}
		if result.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("insufficient stock for %s", productLabel(res))).
				WithDetails(map[string]any{
					"product_id": res.ProductID,
					"product":    res.ProductName,
					"requested":  res.Quantity,
				})
		}
	}
	return nil
}

// Restore increments stock back for every reservation. It is the compensating
// action after a failed payment, so it keeps going past individual failures
// and reports everything it could not restore.
func Restore(ctx context.Context, db *gorm.DB, reservations []Reservation) error {
	var failures error
	for _, res := range reservations {
		result := db.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ?", res.ProductID).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", res.Quantity))
		if result.Error != nil {
			failures = multierr.Append(failures, fmt.Errorf("restore %s: %w", productLabel(res), result.Error))
			continue
		}
		if result.RowsAffected == 0 {
			failures = multierr.Append(failures, fmt.Errorf("restore %s: product row missing", productLabel(res)))
		}
	}
	if failures != nil {
		return pkgerrors.Wrap(pkgerrors.CodeCompensationFailed, failures, "stock restore incomplete")
	}
	return nil
}

func productLabel(res Reservation) string {
	if res.ProductName != "" {
		return res.ProductName
	}
	return res.ProductID.String()
}
