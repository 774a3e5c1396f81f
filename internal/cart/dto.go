package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Barackwilliam/sokoletu/pkg/db/models"
)

// ItemView is one cart line rendered with live product data.
type ItemView struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	InStock     bool            `json:"in_stock"`
}

// View is the cart as presented to the buyer: its lines plus the current quote.
type View struct {
	ID    uuid.UUID  `json:"id"`
	Items []ItemView `json:"items"`
	Quote Quote      `json:"quote"`
}

func newView(cart *models.Cart, quote Quote) *View {
	items := make([]ItemView, 0, len(cart.Items))
	for _, item := range cart.Items {
		view := ItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if item.Product != nil {
			view.ProductName = item.Product.Name
			view.UnitPrice = item.Product.Price
			view.LineTotal = item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			view.InStock = item.Product.StockQuantity >= item.Quantity && item.Product.IsSellable()
		}
		items = append(items, view)
	}
	return &View{ID: cart.ID, Items: items, Quote: quote}
}
