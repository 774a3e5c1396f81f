package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Barackwilliam/sokoletu/pkg/db/models"
	pkgerrors "github.com/Barackwilliam/sokoletu/pkg/errors"
)

// Service exposes the buyer-facing cart operations and the checkout snapshot.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	Count(ctx context.Context, userID uuid.UUID) (int, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) error

	// Snapshot loads the raw cart with products for the checkout pipeline.
	Snapshot(ctx context.Context, userID uuid.UUID) (*models.Cart, Quote, error)
}

type service struct {
	repo   Repo
	pricer Pricer
}

// NewService builds the cart service.
func NewService(repo Repo, pricer Pricer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repo required")
	}
	return &service{repo: repo, pricer: pricer}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	cart, err := s.repo.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newView(cart, s.pricer.Quote(cart.Items)), nil
}

func (s *service) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	cart, err := s.repo.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, item := range cart.Items {
		count += item.Quantity
	}
	return count, nil
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsSellable() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not available")
	}

	cart, err := s.repo.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, err
	}

	// Re-adding a product raises the line quantity instead of duplicating it.
	wanted := quantity
	if existing != nil {
		wanted += existing.Quantity
	}
	if product.StockQuantity < wanted {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("only %d of %s in stock", product.StockQuantity, product.Name)).
			WithDetails(map[string]any{
				"product_id": product.ID.String(),
				"available":  product.StockQuantity,
				"requested":  wanted,
			})
	}

	if existing != nil {
		if err := s.repo.UpdateItemQuantity(ctx, existing.ID, wanted); err != nil {
			return nil, err
		}
	} else {
		item := &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			// Lost an insert race against another request for the same
			// product; fold into the winner's line.
			if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
				return nil, err
			}
			existing, findErr := s.repo.FindItem(ctx, cart.ID, productID)
			if findErr != nil || existing == nil {
				return nil, err
			}
			if err := s.repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+quantity); err != nil {
				return nil, err
			}
		}
	}

	return s.Get(ctx, userID)
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Product != nil && item.Product.StockQuantity < quantity {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("only %d of %s in stock", item.Product.StockQuantity, item.Product.Name))
	}
	if err := s.repo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*View, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.repo.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.ClearItems(ctx, cart.ID)
}

func (s *service) Snapshot(ctx context.Context, userID uuid.UUID) (*models.Cart, Quote, error) {
	cart, err := s.repo.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, Quote{}, err
	}
	return cart, s.pricer.Quote(cart.Items), nil
}

// ownedItem loads a cart item and verifies it belongs to the user's cart.
// Items in other users' carts read as not found, never as forbidden.
func (s *service) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	cart, err := s.repo.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if item.CartID != cart.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return item, nil
}
