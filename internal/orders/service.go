package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Barackwilliam/sokoletu/internal/inventory"
	"github.com/Barackwilliam/sokoletu/internal/ledger"
	"github.com/Barackwilliam/sokoletu/pkg/db/models"
	"github.com/Barackwilliam/sokoletu/pkg/enums"
	pkgerrors "github.com/Barackwilliam/sokoletu/pkg/errors"
	"github.com/Barackwilliam/sokoletu/pkg/pagination"
)

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order history and lifecycle transitions after checkout.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID, orderNumber string) (*View, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error)
	Events(ctx context.Context, userID uuid.UUID, orderNumber string) ([]models.LedgerEvent, error)
	Cancel(ctx context.Context, userID uuid.UUID, orderNumber string) (*View, error)
	MarkShipped(ctx context.Context, orderNumber string) (*View, error)
	MarkDelivered(ctx context.Context, orderNumber string) (*View, error)
}

type service struct {
	repo   Repo
	tx     TxRunner
	ledger ledger.Service
}

// NewService builds the orders service.
func NewService(repo Repo, tx TxRunner, ledgerSvc ledger.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repo required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	return &service{repo: repo, tx: tx, ledger: ledgerSvc}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, orderNumber string) (*View, error) {
	order, err := s.repo.GetByNumberForUser(ctx, userID, orderNumber)
	if err != nil {
		return nil, err
	}
	return NewView(order), nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.ListByUser(ctx, userID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, err
	}

	page := &Page{Orders: make([]View, 0, len(rows))}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	for i := range rows {
		page.Orders = append(page.Orders, *NewView(&rows[i]))
	}
	return page, nil
}

func (s *service) Events(ctx context.Context, userID uuid.UUID, orderNumber string) ([]models.LedgerEvent, error) {
	order, err := s.repo.GetByNumberForUser(ctx, userID, orderNumber)
	if err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, order.ID)
}

// Cancel aborts an order that has not shipped. The stock held by the order
// returns to the shelves in the same transaction that flips the status, so a
// crash cannot strand inventory.
func (s *service) Cancel(ctx context.Context, userID uuid.UUID, orderNumber string) (*View, error) {
	order, err := s.repo.GetByNumberForUser(ctx, userID, orderNumber)
	if err != nil {
		return nil, err
	}
	if !order.CanBeCancelled() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("order %s can no longer be cancelled", orderNumber))
	}

	updates := map[string]any{"status": enums.OrderStatusCancelled}
	if order.IsPaid() {
		updates["payment_status"] = enums.PaymentStatusRefunded
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Transition(ctx, tx, order.ID,
			[]enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusConfirmed},
			updates,
		); err != nil {
			return err
		}
		return inventory.Restore(ctx, tx, inventory.ReservationsFromOrderItems(order.Items))
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Record(ctx, ledger.Entry{
		OrderID: order.ID,
		UserID:  order.UserID,
		Type:    enums.LedgerEventTypeOrderCancelled,
		Amount:  order.Total,
		Metadata: map[string]any{
			"order_number": order.OrderNumber,
			"was_paid":     order.IsPaid(),
		},
	})

	return s.Get(ctx, userID, orderNumber)
}

func (s *service) MarkShipped(ctx context.Context, orderNumber string) (*View, error) {
	order, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	err = s.repo.Transition(ctx, nil, order.ID,
		[]enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusProcessing},
		map[string]any{"status": enums.OrderStatusShipped, "shipped_at": now},
	)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, order.UserID, orderNumber)
}

func (s *service) MarkDelivered(ctx context.Context, orderNumber string) (*View, error) {
	order, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	err = s.repo.Transition(ctx, nil, order.ID,
		[]enums.OrderStatus{enums.OrderStatusShipped},
		map[string]any{"status": enums.OrderStatusDelivered, "delivered_at": now},
	)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, order.UserID, orderNumber)
}
