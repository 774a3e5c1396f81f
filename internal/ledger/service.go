package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Barackwilliam/sokoletu/pkg/db/models"
	"github.com/Barackwilliam/sokoletu/pkg/enums"
	"github.com/Barackwilliam/sokoletu/pkg/logger"
)

// Service records the audit trail of checkout and settlement outcomes. Writes
// are best-effort on the hot path: a ledger failure is logged, never allowed to
// fail the business operation it annotates.
type Service interface {
	Record(ctx context.Context, entry Entry)
	History(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEvent, error)
}

// Entry is one lifecycle event to append to an order's trail.
type Entry struct {
	OrderID  uuid.UUID
	UserID   uuid.UUID
	Type     enums.LedgerEventType
	Amount   decimal.Decimal
	Metadata map[string]any
}

type service struct {
	repo Repo
	log  *logger.Logger
}

// NewService builds the ledger service.
func NewService(repo Repo, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repo required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, log: log}, nil
}

func (s *service) Record(ctx context.Context, entry Entry) {
	event := &models.LedgerEvent{
		OrderID: entry.OrderID,
		UserID:  entry.UserID,
		Type:    entry.Type,
		Amount:  entry.Amount,
	}
	ctx = s.log.WithFields(ctx, map[string]any{
		"order_id":   entry.OrderID.String(),
		"event_type": entry.Type.String(),
	})

	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			s.log.Warn(ctx, "dropping unserializable ledger metadata")
		} else {
			event.Metadata = raw
		}
	}

	if err := s.repo.Create(ctx, event); err != nil {
		s.log.Error(ctx, "failed to record ledger event", err)
	}
}

func (s *service) History(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEvent, error) {
	return s.repo.ListByOrder(ctx, orderID)
}
