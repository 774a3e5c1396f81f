package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is the persistence foundation embedded by the domain repositories. It
// binds statements to the request context and resolves whether they run on
// the shared connection or inside a caller-supplied transaction.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base over the shared GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the shared connection bound to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Handle picks the handle a statement should run on: the caller's transaction
// when one is supplied, the shared connection otherwise.
func (b Base) Handle(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return b.DB(ctx)
	}
	return tx.WithContext(ctx)
}
