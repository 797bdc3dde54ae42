package http

import (
	"errors"
	"net/http"

	"quartermaster-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeError maps service sentinels to the wire taxonomy. Unknown errors are
// logged and answered as 500 without leaking internals.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, NewUnauthorizedError("authentication required"))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, NewForbiddenError("role does not allow this operation"))

	case errors.Is(err, service.ErrSizeNotFound),
		errors.Is(err, service.ErrItemTypeNotFound),
		errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrRequestLineNotFound),
		errors.Is(err, service.ErrGrantNotFound),
		errors.Is(err, service.ErrVendorNotFound),
		errors.Is(err, service.ErrQuoteRequestNotFound),
		errors.Is(err, service.ErrVendorQuoteNotFound),
		errors.Is(err, service.ErrPurchaseOrderNotFound),
		errors.Is(err, service.ErrPOLineNotFound),
		errors.Is(err, service.ErrIssuedItemNotFound):
		c.JSON(http.StatusNotFound, NewNotFoundError(err.Error()))

	case errors.Is(err, service.ErrStateConflict):
		c.JSON(http.StatusBadRequest, NewStateConflictError(err.Error()))
	case errors.Is(err, service.ErrInsufficientStock):
		c.JSON(http.StatusBadRequest, NewInsufficientStockError(err.Error()))

	case errors.Is(err, service.ErrGrantCodeExists):
		c.JSON(http.StatusConflict, NewConflictError(err.Error()))

	case errors.Is(err, service.ErrEmptyLines),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidCondition),
		errors.Is(err, service.ErrUnresolvedLine),
		errors.Is(err, service.ErrQuoteNotSelected),
		errors.Is(err, service.ErrQuoteMismatch),
		errors.Is(err, service.ErrAlreadyReturned),
		errors.Is(err, service.ErrReturnTooMany),
		errors.Is(err, service.ErrBudgetUnderflow),
		errors.Is(err, service.ErrLineSizeImmutable),
		errors.Is(err, service.ErrInvalidAdjustment),
		errors.Is(err, service.ErrOverReceipt):
		c.JSON(http.StatusBadRequest, NewValidationError(err.Error()))

	default:
		log.Error("unhandled service error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewInternalError(""))
	}
}
