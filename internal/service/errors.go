package service

import "errors"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrSizeNotFound          = errors.New("size not found")
	ErrItemTypeNotFound      = errors.New("item type not found")
	ErrRequestNotFound       = errors.New("request not found")
	ErrRequestLineNotFound   = errors.New("request line not found")
	ErrGrantNotFound         = errors.New("grant source not found")
	ErrVendorNotFound        = errors.New("vendor not found")
	ErrQuoteRequestNotFound  = errors.New("quote request not found")
	ErrVendorQuoteNotFound   = errors.New("vendor quote not found")
	ErrPurchaseOrderNotFound = errors.New("purchase order not found")
	ErrPOLineNotFound        = errors.New("purchase order line not found")
	ErrIssuedItemNotFound    = errors.New("issued item not found")

	ErrEmptyLines        = errors.New("lines must not be empty")
	ErrInvalidQuantity   = errors.New("quantity must be > 0")
	ErrInvalidCondition  = errors.New("invalid return condition")
	ErrGrantCodeExists   = errors.New("grant code already exists")
	ErrUnresolvedLine    = errors.New("request line has no concrete size")
	ErrQuoteNotSelected  = errors.New("vendor quote is not selected")
	ErrQuoteMismatch     = errors.New("vendor quote does not belong to quote request")
	ErrAlreadyReturned   = errors.New("issued item already returned")
	ErrReturnTooMany     = errors.New("return quantity exceeds issued quantity")
	ErrBudgetUnderflow   = errors.New("used budget cannot go negative")
	ErrLineSizeImmutable = errors.New("line size cannot change after fulfillment")

	// StateConflict: the operation is not legal for the current status. The
	// entity keeps its prior state.
	ErrStateConflict = errors.New("operation not allowed in current status")

	// InsufficientStock: fulfillment or reservation would drive availability
	// negative. The request keeps its prior status so it can be retried.
	ErrInsufficientStock = errors.New("insufficient stock")

	// InvalidAdjustment: a manual adjustment would make on-hand negative or
	// drop it below the reserved quantity.
	ErrInvalidAdjustment = errors.New("adjustment would make stock inconsistent")

	// OverReceipt: a receipt would push quantity_received past quantity_ordered.
	// The whole receive call is rejected.
	ErrOverReceipt = errors.New("receipt exceeds ordered quantity")
)
