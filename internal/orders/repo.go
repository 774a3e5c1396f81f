package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Barackwilliam/sokoletu/internal/repo"
	"github.com/Barackwilliam/sokoletu/pkg/db/models"
	"github.com/Barackwilliam/sokoletu/pkg/enums"
	pkgerrors "github.com/Barackwilliam/sokoletu/pkg/errors"
	"github.com/Barackwilliam/sokoletu/pkg/pagination"
)

// Repo owns order persistence after checkout has created the rows.
type Repo interface {
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	GetByNumberForUser(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Order, error)
	Transition(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, from []enums.OrderStatus, updates map[string]any) error
}

type gormRepo struct {
	repo.Base
}

// NewRepo builds a gorm-backed orders repository.
func NewRepo(db *gorm.DB) Repo {
	return &gormRepo{Base: repo.NewBase(db)}
}

func (r *gormRepo) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return r.getOne(ctx, "order_number = ?", orderNumber)
}

func (r *gormRepo) GetByNumberForUser(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error) {
	return r.getOne(ctx, "order_number = ? AND user_id = ?", orderNumber, userID)
}

func (r *gormRepo) getOne(ctx context.Context, query string, args ...any) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).Preload("Items").Where(query, args...).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return &order, nil
}

func (r *gormRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Order, error) {
	query := r.DB(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var results []models.Order
	if err := query.Find(&results).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return results, nil
}

// Transition updates an order only while it sits in one of the expected
// statuses, so concurrent lifecycle changes cannot clobber each other.
func (r *gormRepo) Transition(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, from []enums.OrderStatus, updates map[string]any) error {
	handle := r.Handle(ctx, tx)
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}

	result := handle.
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", orderID, from).
		Updates(updates)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "updating order")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "order state changed, refresh and retry")
	}
	return nil
}
