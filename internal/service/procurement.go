package service

import (
	"context"

	"quartermaster-service/internal/models"

	"github.com/google/uuid"
)

type QuoteRequestLineInput struct {
	SizeID           *uuid.UUID
	Description      string
	Quantity         int32
	EstUnitCostCents int64
}

type CreateQuoteRequestInput struct {
	GrantSourceID *uuid.UUID
	Lines         []QuoteRequestLineInput
}

type VendorQuoteLineInput struct {
	QuoteRequestLineID *uuid.UUID
	SizeID             uuid.UUID
	Quantity           int32
	UnitPriceCents     int64
}

type AddVendorQuoteInput struct {
	QuoteRequestID uuid.UUID
	VendorID       uuid.UUID
	ShippingCents  int64
	Lines          []VendorQuoteLineInput
}

// ApproveResult surfaces the budget position after the debit. Overrun is
// allowed; the flag is the warning.
type ApproveResult struct {
	QuoteRequest         *models.QuoteRequest `json:"quote_request"`
	RemainingBudgetCents *int64               `json:"remaining_budget_cents,omitempty"`
	BudgetOverrun        bool                 `json:"budget_overrun"`
}

type ReceiptInput struct {
	LineID   uuid.UUID
	Quantity int32
}

// ProcurementService drives QuoteRequest -> VendorQuote -> PurchaseOrder ->
// receiving. Receiving is the only path that increments on-hand stock.
type ProcurementService interface {
	CreateQuoteRequest(ctx context.Context, in CreateQuoteRequestInput) (*models.QuoteRequest, error)
	GetQuoteRequest(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error)
	SendQuoteRequest(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error)
	AddVendorQuote(ctx context.Context, in AddVendorQuoteInput) (*models.VendorQuote, error)
	SelectQuote(ctx context.Context, vendorQuoteID uuid.UUID) (*models.QuoteRequest, error)
	Approve(ctx context.Context, quoteRequestID, vendorQuoteID uuid.UUID) (*ApproveResult, error)
	Deny(ctx context.Context, quoteRequestID uuid.UUID) (*models.QuoteRequest, error)
	Convert(ctx context.Context, quoteRequestID uuid.UUID) (*models.PurchaseOrder, error)

	GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	Receive(ctx context.Context, poID uuid.UUID, receipts []ReceiptInput) (*models.PurchaseOrder, error)
	CancelPurchaseOrder(ctx context.Context, poID uuid.UUID) (*models.PurchaseOrder, error)
}
