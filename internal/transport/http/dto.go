package http

import "github.com/google/uuid"

// BaseError is the wire error envelope.
// Code is machine-oriented (snake_case); Message is short human-readable text;
// Details carries an optional explanation; Fields carries per-field validation
// errors.
type BaseError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Tag     string `json:"tag,omitempty"`
}

func NewValidationError(msg string) BaseError {
	return BaseError{Code: "validation_error", Message: msg}
}
func NewStateConflictError(msg string) BaseError {
	return BaseError{Code: "state_conflict", Message: msg}
}
func NewInsufficientStockError(msg string) BaseError {
	return BaseError{Code: "insufficient_stock", Message: msg}
}
func NewUnauthorizedError(msg string) BaseError {
	return BaseError{Code: "unauthorized", Message: msg}
}
func NewForbiddenError(msg string) BaseError {
	return BaseError{Code: "forbidden", Message: msg}
}
func NewNotFoundError(msg string) BaseError {
	return BaseError{Code: "not_found", Message: msg}
}
func NewConflictError(msg string) BaseError {
	return BaseError{Code: "conflict", Message: msg}
}
func NewInternalError(details string) BaseError {
	return BaseError{Code: "internal_error", Message: "internal server error", Details: details}
}

// --- requests ---

type CreateRequestLine struct {
	ItemTypeID        uuid.UUID  `json:"item_type_id" binding:"required"`
	RequestedSizeID   *uuid.UUID `json:"requested_size_id"`
	Quantity          int32      `json:"quantity" binding:"required"`
	ReplacementReason string     `json:"replacement_reason"`
}

type CreateRequestBody struct {
	Lines []CreateRequestLine `json:"lines" binding:"required"`
}

type SetRequestStatusBody struct {
	Status string `json:"status" binding:"required"`
}

type ResolveLineBody struct {
	SizeID uuid.UUID `json:"size_id" binding:"required"`
}

type FulfillBody struct {
	PickupSignature *string `json:"pickup_signature"`
}

// --- inventory ---

type AdjustBody struct {
	SizeID uuid.UUID `json:"size_id" binding:"required"`
	Delta  int32     `json:"delta" binding:"required"`
	Reason string    `json:"reason"`
}

// --- grants ---

type CreateGrantBody struct {
	Code             string `json:"code" binding:"required"`
	FiscalYear       int    `json:"fiscal_year" binding:"required"`
	TotalBudgetCents int64  `json:"total_budget_cents"`
}

type AdjustGrantBody struct {
	// Op is one of debit, credit, set.
	Op          string `json:"op" binding:"required"`
	AmountCents int64  `json:"amount_cents"`
}

// --- procurement ---

type QuoteRequestLineBody struct {
	SizeID           *uuid.UUID `json:"size_id"`
	Description      string     `json:"description"`
	Quantity         int32      `json:"quantity" binding:"required"`
	EstUnitCostCents int64      `json:"est_unit_cost_cents"`
}

type CreateQuoteRequestBody struct {
	GrantSourceID *uuid.UUID             `json:"grant_source_id"`
	Lines         []QuoteRequestLineBody `json:"lines" binding:"required"`
}

type VendorQuoteLineBody struct {
	QuoteRequestLineID *uuid.UUID `json:"quote_request_line_id"`
	SizeID             uuid.UUID  `json:"size_id" binding:"required"`
	Quantity           int32      `json:"quantity" binding:"required"`
	UnitPriceCents     int64      `json:"unit_price_cents"`
}

type AddVendorQuoteBody struct {
	QuoteRequestID uuid.UUID             `json:"quote_request_id" binding:"required"`
	VendorID       uuid.UUID             `json:"vendor_id" binding:"required"`
	ShippingCents  int64                 `json:"shipping_cents"`
	Lines          []VendorQuoteLineBody `json:"lines" binding:"required"`
}

type ApproveQuoteRequestBody struct {
	VendorQuoteID uuid.UUID `json:"vendor_quote_id" binding:"required"`
}

type ReceiptLineBody struct {
	LineID   uuid.UUID `json:"line_id" binding:"required"`
	Quantity int32     `json:"quantity" binding:"required"`
}

type ReceiveBody struct {
	Receipts []ReceiptLineBody `json:"receipts" binding:"required"`
}

// --- issued items ---

type IssueBody struct {
	UserID   uuid.UUID `json:"user_id" binding:"required"`
	SizeID   uuid.UUID `json:"size_id" binding:"required"`
	Quantity int32     `json:"quantity" binding:"required"`
}

type ReturnBody struct {
	Quantity  int32  `json:"quantity" binding:"required"`
	Condition string `json:"condition" binding:"required"`
}
