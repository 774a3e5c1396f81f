package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Barackwilliam/sokoletu/internal/cart"
	"github.com/Barackwilliam/sokoletu/internal/inventory"
	"github.com/Barackwilliam/sokoletu/internal/ledger"
	"github.com/Barackwilliam/sokoletu/internal/orders"
	"github.com/Barackwilliam/sokoletu/internal/payments"
	"github.com/Barackwilliam/sokoletu/pkg/db"
	"github.com/Barackwilliam/sokoletu/pkg/db/models"
	"github.com/Barackwilliam/sokoletu/pkg/enums"
	pkgerrors "github.com/Barackwilliam/sokoletu/pkg/errors"
	"github.com/Barackwilliam/sokoletu/pkg/logger"
	"github.com/Barackwilliam/sokoletu/pkg/metrics"
	"github.com/Barackwilliam/sokoletu/pkg/types"
)

const orderNumberAttempts = 3

// Input is one checkout request for the caller's cart.
type Input struct {
	UserID        uuid.UUID
	PaymentMethod enums.PaymentMethod
	PhoneNumber   string
	Shipping      types.ShippingDetails
}

// Outcome reports a settled checkout.
type Outcome struct {
	Order          *orders.View `json:"order"`
	TransactionID  string       `json:"transaction_id"`
	PaymentMessage string       `json:"payment_message"`
}

// Service runs the checkout pipeline: price the cart, hold stock and create
// the order atomically, then settle payment and either confirm or compensate.
type Service interface {
	Execute(ctx context.Context, input Input) (*Outcome, error)
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Deps carries the collaborators the checkout service needs.
type Deps struct {
	DB       *gorm.DB
	Tx       TxRunner
	Cart     cart.Service
	Pricer   cart.Pricer
	Orders   orders.Repo
	Gateways *payments.Registry
	Guard    *payments.Guard
	Ledger   ledger.Service
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger

	GatewayTimeout time.Duration
}

type service struct {
	deps Deps
}

// NewService builds the checkout service.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.DB == nil:
		return nil, fmt.Errorf("db handle required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case deps.Cart == nil:
		return nil, fmt.Errorf("cart service required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders repo required")
	case deps.Gateways == nil:
		return nil, fmt.Errorf("gateway registry required")
	case deps.Guard == nil:
		return nil, fmt.Errorf("payment guard required")
	case deps.Ledger == nil:
		return nil, fmt.Errorf("ledger service required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	if deps.GatewayTimeout <= 0 {
		deps.GatewayTimeout = 10 * time.Second
	}
	return &service{deps: deps}, nil
}

func (s *service) Execute(ctx context.Context, input Input) (*Outcome, error) {
	outcome, err := s.execute(ctx, input)
	s.deps.Metrics.IncCheckout(checkoutResult(err))
	return outcome, err
}

func (s *service) execute(ctx context.Context, input Input) (*Outcome, error) {
	log := s.deps.Logger
	ctx = log.WithGateway(ctx, input.PaymentMethod.String())

	// Resolve the gateway before touching any state so an unsupported method
	// leaves no order behind.
	gateway, err := s.deps.Gateways.Get(input.PaymentMethod)
	if err != nil {
		return nil, err
	}

	buyerCart, _, err := s.deps.Cart.Snapshot(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if len(buyerCart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if err := inventory.CheckAvailability(buyerCart.Items); err != nil {
		return nil, err
	}

	order, err := s.createOrder(ctx, input, buyerCart.ID)
	if err != nil {
		return nil, err
	}
	ctx = log.WithOrderNumber(ctx, order.OrderNumber)
	log.Info(ctx, "order created, stock held")

	s.deps.Ledger.Record(ctx, ledger.Entry{
		OrderID: order.ID,
		UserID:  order.UserID,
		Type:    enums.LedgerEventTypeOrderCreated,
		Amount:  order.Total,
		Metadata: map[string]any{
			"order_number": order.OrderNumber,
			"gateway":      input.PaymentMethod.String(),
			"item_count":   len(order.Items),
		},
	})

	result, gatewayErr := s.settle(ctx, gateway, order, input)
	if gatewayErr == nil && result.Succeeded {
		if err := s.confirm(ctx, order, result, buyerCart.ID); err != nil {
			return nil, err
		}
		s.deps.Metrics.IncPayment(input.PaymentMethod.String(), "success")
		log.Info(ctx, "payment settled, order confirmed")

		order.Status = enums.OrderStatusConfirmed
		order.PaymentStatus = enums.PaymentStatusPaid
		order.PaymentReference = result.TransactionID
		return &Outcome{
			Order:          orders.NewView(order),
			TransactionID:  result.TransactionID,
			PaymentMessage: result.Message,
		}, nil
	}

	label := "failure"
	reason := result.FailureReason
	if gatewayErr != nil {
		reason = "payment not completed in time"
		// A dependency error means the guard store was down and no provider
		// was ever dialed; keep it out of the decline counts.
		if pkgerrors.HasCode(gatewayErr, pkgerrors.CodeDependency) {
			label = "error"
			reason = "payment system unavailable"
		}
		log.Error(ctx, "gateway call failed", gatewayErr)
	}
	s.deps.Metrics.IncPayment(input.PaymentMethod.String(), label)
	return nil, s.compensate(ctx, order, reason)
}

// createOrder snapshots the cart into an order and holds its stock in one
// transaction. Live product rows are re-read inside the transaction so stale
// prices from the browsing session cannot leak into the order.
func (s *service) createOrder(ctx context.Context, input Input, cartID uuid.UUID) (*models.Order, error) {
	var order *models.Order

	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order = nil
		err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
			var lines []models.CartItem
			if err := tx.Preload("Product").
				Where("cart_id = ?", cartID).
				Order("added_at ASC").
				Find(&lines).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart lines")
			}
			if len(lines) == 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			if err := inventory.CheckAvailability(lines); err != nil {
				return err
			}

			quote := s.deps.Pricer.Quote(lines)
			candidate := s.buildOrder(input, lines, quote)
			if err := tx.Create(candidate).Error; err != nil {
				if db.IsUniqueViolation(err) {
					return err
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
			}
			if err := inventory.Reserve(ctx, tx, inventory.ReservationsFromCartItems(lines)); err != nil {
				return err
			}
			order = candidate
			return nil
		})
		if err == nil {
			return order, nil
		}
		// Regenerate the order number only on a reference collision.
		if db.IsUniqueViolation(err) && pkgerrors.As(err) == nil {
			continue
		}
		return nil, err
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not allocate order number")
}

func (s *service) buildOrder(input Input, lines []models.CartItem, quote cart.Quote) *models.Order {
	order := &models.Order{
		OrderNumber:   orders.NewNumber(),
		UserID:        input.UserID,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: input.PaymentMethod,

		Subtotal:     quote.Subtotal,
		TaxAmount:    quote.TaxAmount,
		ShippingCost: quote.ShippingCost,
		Total:        quote.Total,

		ShippingName:     input.Shipping.Name,
		ShippingPhone:    input.Shipping.Phone,
		ShippingEmail:    input.Shipping.Email,
		ShippingAddress:  input.Shipping.Address,
		ShippingRegion:   input.Shipping.Region,
		ShippingDistrict: input.Shipping.District,
		ShippingWard:     input.Shipping.Ward,
	}
	for _, line := range lines {
		unit := line.Product.Price
		order.Items = append(order.Items, models.OrderItem{
			ProductID:    line.ProductID,
			ProductName:  line.Product.Name,
			ProductPrice: unit,
			Quantity:     line.Quantity,
			TotalPrice:   unit.Mul(decimalFromInt(line.Quantity)),
		})
	}
	return order
}

// settle makes the single guarded gateway call for the order.
func (s *service) settle(ctx context.Context, gateway payments.Gateway, order *models.Order, input Input) (payments.Result, error) {
	if err := s.deps.Guard.Acquire(ctx, order.OrderNumber); err != nil {
		return payments.Result{}, err
	}

	phone := input.PhoneNumber
	if phone == "" {
		phone = input.Shipping.Phone
	}

	callCtx, cancel := context.WithTimeout(ctx, s.deps.GatewayTimeout)
	defer cancel()

	start := time.Now()
	result, err := gateway.ProcessPayment(callCtx, payments.PaymentInput{
		Amount:         order.Total,
		PhoneNumber:    phone,
		OrderReference: order.OrderNumber,
	})
	s.deps.Metrics.ObserveGatewayLatency(input.PaymentMethod.String(), time.Since(start))

	if err != nil || !result.Succeeded {
		// Free the reference so a fresh checkout of the same cart is not
		// blocked while the key ages out.
		if releaseErr := s.deps.Guard.Release(ctx, order.OrderNumber); releaseErr != nil {
			s.deps.Logger.Warn(ctx, "payment guard release failed")
		}
	}
	return result, err
}

// confirm flips the order to paid/confirmed and empties the cart.
func (s *service) confirm(ctx context.Context, order *models.Order, result payments.Result, cartID uuid.UUID) error {
	now := time.Now().UTC()
	err := s.deps.Orders.Transition(ctx, nil, order.ID,
		[]enums.OrderStatus{enums.OrderStatusPending},
		map[string]any{
			"status":            enums.OrderStatusConfirmed,
			"payment_status":    enums.PaymentStatusPaid,
			"payment_reference": result.TransactionID,
			"payment_date":      now,
			"confirmed_at":      now,
		},
	)
	if err != nil {
		return err
	}

	if clearErr := s.deps.Cart.Clear(ctx, order.UserID); clearErr != nil {
		// The sale is settled; an uncleared cart is an annoyance, not a loss.
		s.deps.Logger.Error(ctx, "failed to clear cart after checkout", clearErr)
	}

	s.deps.Ledger.Record(ctx, ledger.Entry{
		OrderID: order.ID,
		UserID:  order.UserID,
		Type:    enums.LedgerEventTypePaymentSucceeded,
		Amount:  order.Total,
		Metadata: map[string]any{
			"order_number":   order.OrderNumber,
			"transaction_id": result.TransactionID,
		},
	})
	return nil
}

// compensate marks the order failed and puts its stock back. The order row
// survives as the audit record of the attempt; the cart is left intact for a
// retry.
func (s *service) compensate(ctx context.Context, order *models.Order, reason string) error {
	err := s.deps.Orders.Transition(ctx, nil, order.ID,
		[]enums.OrderStatus{enums.OrderStatusPending},
		map[string]any{
			"status":         enums.OrderStatusFailed,
			"payment_status": enums.PaymentStatusFailed,
		},
	)
	if pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		// Another actor already moved the order out of pending (a concurrent
		// cancel restores stock in its own transaction); restoring here too
		// would overcount inventory.
		s.deps.Logger.Warn(ctx, "order left pending state before compensation, skipping restore")
		return err
	}
	if err != nil {
		s.deps.Logger.Error(ctx, "failed to mark order failed", err)
	}

	restoreErr := inventory.Restore(ctx, s.deps.DB, inventory.ReservationsFromOrderItems(order.Items))
	if restoreErr != nil {
		s.deps.Metrics.IncRestoreFailure()
		s.deps.Logger.Error(ctx, "compensating stock restore incomplete", restoreErr)
		s.deps.Ledger.Record(ctx, ledger.Entry{
			OrderID: order.ID,
			UserID:  order.UserID,
			Type:    enums.LedgerEventTypeRestoreFailed,
			Amount:  order.Total,
			Metadata: map[string]any{
				"order_number": order.OrderNumber,
				"error":        restoreErr.Error(),
			},
		})
		return restoreErr
	}

	s.deps.Ledger.Record(ctx, ledger.Entry{
		OrderID: order.ID,
		UserID:  order.UserID,
		Type:    enums.LedgerEventTypePaymentFailed,
		Amount:  order.Total,
		Metadata: map[string]any{
			"order_number": order.OrderNumber,
			"reason":       reason,
		},
	})
	s.deps.Ledger.Record(ctx, ledger.Entry{
		OrderID: order.ID,
		UserID:  order.UserID,
		Type:    enums.LedgerEventTypeStockRestored,
		Amount:  order.Total,
		Metadata: map[string]any{
			"order_number": order.OrderNumber,
		},
	})

	if reason == "" {
		reason = "payment was declined"
	}
	return pkgerrors.New(pkgerrors.CodePaymentFailed, reason).
		WithDetails(map[string]any{"order_number": order.OrderNumber})
}

func checkoutResult(err error) string {
	if err == nil {
		return "success"
	}
	switch typed := pkgerrors.As(err); {
	case typed == nil:
		return "error"
	case typed.Code() == pkgerrors.CodePaymentFailed:
		return "payment_failed"
	case typed.Code() == pkgerrors.CodeInsufficientStock:
		return "insufficient_stock"
	case typed.Code() == pkgerrors.CodeCompensationFailed:
		return "compensation_failed"
	case typed.Code() == pkgerrors.CodeValidation:
		return "rejected"
	case typed.Code() == pkgerrors.CodeUnsupportedGateway:
		return "rejected"
	default:
		return "error"
	}
}

func decimalFromInt(quantity int) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity))
}
