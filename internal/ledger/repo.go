package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Barackwilliam/sokoletu/internal/repo"
	"github.com/Barackwilliam/sokoletu/pkg/db/models"
	pkgerrors "github.com/Barackwilliam/sokoletu/pkg/errors"
)

// Repo persists and reads checkout lifecycle events.
type Repo interface {
	Create(ctx context.Context, event *models.LedgerEvent) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEvent, error)
}

type gormRepo struct {
	repo.Base
}

// NewRepo builds a gorm-backed ledger repository.
func NewRepo(db *gorm.DB) Repo {
	return &gormRepo{Base: repo.NewBase(db)}
}

func (r *gormRepo) Create(ctx context.Context, event *models.LedgerEvent) error {
	if err := r.DB(ctx).Create(event).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording ledger event")
	}
	return nil
}

func (r *gormRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEvent, error) {
	var events []models.LedgerEvent
	err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing ledger events")
	}
	return events, nil
}
