package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Barackwilliam/sokoletu/internal/repo"
	"github.com/Barackwilliam/sokoletu/pkg/db"
	"github.com/Barackwilliam/sokoletu/pkg/db/models"
	pkgerrors "github.com/Barackwilliam/sokoletu/pkg/errors"
)

// Repo owns cart and cart-item persistence.
type Repo interface {
	GetOrCreateByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
}

type gormRepo struct {
	repo.Base
}

// NewRepo builds a gorm-backed cart repository.
func NewRepo(gdb *gorm.DB) Repo {
	return &gormRepo{Base: repo.NewBase(gdb)}
}

func (r *gormRepo) GetOrCreateByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := r.loadByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	fresh := &models.Cart{UserID: userID}
	if createErr := r.DB(ctx).Create(fresh).Error; createErr != nil {
		// A concurrent request may have created the row first.
		if db.IsUniqueViolation(createErr) {
			if cart, err = r.loadByUser(ctx, userID); err == nil {
				return cart, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, createErr, "creating cart")
	}
	fresh.Items = []models.CartItem{}
	return fresh, nil
}

func (r *gormRepo) loadByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("added_at ASC") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *gormRepo) GetItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB(ctx).Preload("Product").First(&item, "id = ?", itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart item")
	}
	return &item, nil
}

func (r *gormRepo) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finding cart item")
	}
	return &item, nil
}

func (r *gormRepo) CreateItem(ctx context.Context, item *models.CartItem) error {
	if err := r.DB(ctx).Create(item).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product already in cart")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adding cart item")
	}
	return nil
}

func (r *gormRepo) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	result := r.DB(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "updating cart item")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (r *gormRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	result := r.DB(ctx).Delete(&models.CartItem{}, "id = ?", itemID)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "removing cart item")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (r *gormRepo) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	if err := r.DB(ctx).Delete(&models.CartItem{}, "cart_id = ?", cartID).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	return nil
}

func (r *gormRepo) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return &product, nil
}
