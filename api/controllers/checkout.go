package controllers

import (
	"net/http"

	"github.com/Barackwilliam/sokoletu/api/middleware"
	"github.com/Barackwilliam/sokoletu/api/responses"
	"github.com/Barackwilliam/sokoletu/api/validators"
	checkoutsvc "github.com/Barackwilliam/sokoletu/internal/checkout"
	"github.com/Barackwilliam/sokoletu/pkg/enums"
	pkgerrors "github.com/Barackwilliam/sokoletu/pkg/errors"
	"github.com/Barackwilliam/sokoletu/pkg/logger"
	"github.com/Barackwilliam/sokoletu/pkg/types"
)

type checkoutRequest struct {
	PaymentMethod string                `json:"payment_method" validate:"required"`
	PhoneNumber   string                `json:"phone_number" validate:"omitempty,min=9,max=15"`
	Shipping      types.ShippingDetails `json:"shipping" validate:"required"`
}

func (r checkoutRequest) toInput() (checkoutsvc.Input, error) {
	method, err := enums.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return checkoutsvc.Input{}, pkgerrors.Wrap(pkgerrors.CodeUnsupportedGateway, err, "unsupported payment method").
			WithDetails(map[string]any{"payment_method": r.PaymentMethod})
	}
	return checkoutsvc.Input{
		PaymentMethod: method,
		PhoneNumber:   r.PhoneNumber,
		Shipping:      r.Shipping,
	}, nil
}

// Checkout settles the buyer's cart into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.UserID = middleware.UserIDFromContext(r.Context())

		outcome, err := svc.Execute(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, outcome)
	}
}
