package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/customer"
	"github.com/xenking/storefront/internal/domain/delivery"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/domain/referral"
	"github.com/xenking/storefront/internal/domain/settings"
)

var (
	validationErrors = []error{
		cart.ErrInvalidQuantity,
		catalog.ErrNoVariants,
		pricing.ErrUnknownFulfillment,
		order.ErrNameRequired,
		order.ErrPhoneRequired,
		order.ErrUnknownStatus,
		checkout.ErrPhoneRequired,
		customer.ErrNameRequired,
		customer.ErrPhoneTooShort,
		customer.ErrPINTooShort,
		customer.ErrInvalidPIN,
		settings.ErrInvalid,
	}
	notFoundErrors = []error{
		catalog.ErrNotFound,
		order.ErrNotFound,
	}
	// Promotion and delivery-resolution failures carry their own message.
	unprocessableErrors = []error{
		referral.ErrInvalidCode,
		referral.ErrSelfReferral,
		referral.ErrAlreadyRedeemed,
		referral.ErrProgramDisabled,
		delivery.ErrNoCoverage,
		delivery.ErrLocationUnavailable,
		delivery.ErrMinimumOrderNotMet,
	}
	// Checkout-blocking conditions.
	conflictErrors = []error{
		order.ErrEmptyCart,
		order.ErrZoneRequired,
		order.ErrBelowMinimum,
		order.ErrDeliveryDisabled,
		order.ErrPaymentUnavailable,
		checkout.ErrNotPublished,
		checkout.ErrOutOfStock,
		checkout.ErrNotDelivery,
	}
)

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// statusFor maps a domain error to an HTTP status and client message.
func statusFor(err error) (int, string) {
	var (
		bad        *badRequest
		noVariant  *cart.VariantNotFoundError
		badProduct *catalog.InvalidProductError
		stock      *checkout.InsufficientStockError
		transition *order.InvalidTransitionError
	)
	switch {
	case errors.As(err, &bad), errors.As(err, &noVariant), errors.As(err, &badProduct),
		isAny(err, validationErrors):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, customer.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case isAny(err, notFoundErrors):
		return http.StatusNotFound, err.Error()
	case isAny(err, unprocessableErrors):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &stock), errors.As(err, &transition), isAny(err, conflictErrors):
		return http.StatusConflict, err.Error()
	case errors.Is(err, order.ErrPersistence):
		return http.StatusInternalServerError, order.ErrPersistence.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// fail writes err as an API error. Server-side failures are logged with
// their cause; clients only see a generic message.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	}
	writeError(w, status, msg)
}
