package models

import (
	"time"

	"github.com/google/uuid"
)

// Catalog chain: Category -> ItemType -> Variant -> Size.
// The chain is descriptive metadata; all quantity state hangs off Size.

type Category struct {
	ID   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name string    `gorm:"type:text;not null;uniqueIndex"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (Category) TableName() string { return "categories" }

type ItemType struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"type:text;not null"`
	// ParLevel is the restock threshold for the low-stock report.
	ParLevel int32 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (ItemType) TableName() string { return "item_types" }

type Variant struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ItemTypeID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"type:text;not null"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (Variant) TableName() string { return "variants" }

type Size struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	VariantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Label     string    `gorm:"type:text;not null"`
	IsActive  bool      `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (Size) TableName() string { return "sizes" }

// InventoryRecord is the authoritative quantity row for one Size.
// OnHand >= Reserved >= 0 holds after every operation; the guards live in the
// conditional UPDATEs in the repository, never in callers.
type InventoryRecord struct {
	SizeID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	OnHand   int32     `gorm:"not null;default:0"`
	Reserved int32     `gorm:"not null;default:0"`

	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (InventoryRecord) TableName() string { return "inventory_records" }

func (r *InventoryRecord) Available() int32 { return r.OnHand - r.Reserved }

// StockAudit records every on-hand mutation with before/after quantities.
type StockAudit struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SizeID         uuid.UUID `gorm:"type:uuid;not null;index"`
	ActorID        uuid.UUID `gorm:"type:uuid;not null"`
	Delta          int32     `gorm:"not null"`
	QuantityBefore int32     `gorm:"not null"`
	QuantityAfter  int32     `gorm:"not null"`
	Reason         string    `gorm:"type:text;not null"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
}

func (StockAudit) TableName() string { return "stock_audits" }

// Audit reasons.
const (
	AuditReasonAdjusted = "adjusted"
	AuditReasonIssued   = "issued"
	AuditReasonReceived = "received"
	AuditReasonReturned = "returned"
)

type RequestStatus string

const (
	RequestStatusPending        RequestStatus = "REQUEST_STATUS_PENDING"
	RequestStatusApproved       RequestStatus = "REQUEST_STATUS_APPROVED"
	RequestStatusBackordered    RequestStatus = "REQUEST_STATUS_BACKORDERED"
	RequestStatusReadyForPickup RequestStatus = "REQUEST_STATUS_READY_FOR_PICKUP"
	RequestStatusFulfilled      RequestStatus = "REQUEST_STATUS_FULFILLED"
	RequestStatusCancelled      RequestStatus = "REQUEST_STATUS_CANCELLED"
)

// requestTransitions is the single source of truth for legal request moves.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:        {RequestStatusApproved, RequestStatusBackordered, RequestStatusCancelled},
	RequestStatusApproved:       {RequestStatusReadyForPickup, RequestStatusBackordered, RequestStatusCancelled},
	RequestStatusBackordered:    {RequestStatusApproved, RequestStatusCancelled},
	RequestStatusReadyForPickup: {RequestStatusFulfilled, RequestStatusCancelled},
	RequestStatusFulfilled:      {},
	RequestStatusCancelled:      {},
}

func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, t := range requestTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

func (s RequestStatus) Terminal() bool {
	return s == RequestStatusFulfilled || s == RequestStatusCancelled
}

// GearRequest is a team member's equipment request.
type GearRequest struct {
	ID              uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RequestedBy     uuid.UUID     `gorm:"type:uuid;not null;index"`
	Status          RequestStatus `gorm:"type:text;not null;default:'REQUEST_STATUS_PENDING';index"`
	RequestDate     time.Time     `gorm:"not null;default:now()"`
	FulfilledBy     *uuid.UUID    `gorm:"type:uuid"`
	FulfilledAt     *time.Time
	PickupSignature *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Lines []GearRequestLine `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
}

func (GearRequest) TableName() string { return "gear_requests" }

// GearRequestLine: RequestedSizeID nil means "best effort", staff resolve the
// concrete size before pickup. ReservedQuantity records what approval managed
// to reserve so cancel/fulfill know what to release or consume.
type GearRequestLine struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	ItemTypeID        uuid.UUID  `gorm:"type:uuid;not null"`
	RequestedSizeID   *uuid.UUID `gorm:"type:uuid"`
	Quantity          int32      `gorm:"type:int;not null"`
	ReplacementReason *string    `gorm:"type:text"`
	IssuedQuantity    int32      `gorm:"not null;default:0"`
	ReservedQuantity  int32      `gorm:"not null;default:0"`
	IsBackordered     bool       `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (GearRequestLine) TableName() string { return "gear_request_lines" }

// GrantSource is an external funding allocation procurement is debited against.
// UsedBudgetCents may exceed TotalBudgetCents: overruns are allowed and only
// surfaced to callers, never blocked.
type GrantSource struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code             string    `gorm:"type:text;not null;uniqueIndex"`
	FiscalYear       int       `gorm:"not null;index"`
	TotalBudgetCents int64     `gorm:"not null;default:0"`
	UsedBudgetCents  int64     `gorm:"not null;default:0"`
	IsActive         bool      `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (GrantSource) TableName() string { return "grant_sources" }

// RemainingCents is derived, never stored.
func (g *GrantSource) RemainingCents() int64 { return g.TotalBudgetCents - g.UsedBudgetCents }

type QuoteRequestStatus string

const (
	QuoteRequestStatusDraft          QuoteRequestStatus = "QUOTE_REQUEST_STATUS_DRAFT"
	QuoteRequestStatusSent           QuoteRequestStatus = "QUOTE_REQUEST_STATUS_SENT"
	QuoteRequestStatusQuotesReceived QuoteRequestStatus = "QUOTE_REQUEST_STATUS_QUOTES_RECEIVED"
	QuoteRequestStatusApproved       QuoteRequestStatus = "QUOTE_REQUEST_STATUS_APPROVED"
	QuoteRequestStatusDenied         QuoteRequestStatus = "QUOTE_REQUEST_STATUS_DENIED"
	QuoteRequestStatusConverted      QuoteRequestStatus = "QUOTE_REQUEST_STATUS_CONVERTED"
)

var quoteRequestTransitions = map[QuoteRequestStatus][]QuoteRequestStatus{
	QuoteRequestStatusDraft:          {QuoteRequestStatusSent},
	QuoteRequestStatusSent:           {QuoteRequestStatusQuotesReceived, QuoteRequestStatusDenied},
	QuoteRequestStatusQuotesReceived: {QuoteRequestStatusApproved, QuoteRequestStatusDenied},
	QuoteRequestStatusApproved:       {QuoteRequestStatusConverted},
	QuoteRequestStatusDenied:         {},
	QuoteRequestStatusConverted:      {},
}

func (s QuoteRequestStatus) CanTransitionTo(next QuoteRequestStatus) bool {
	for _, t := range quoteRequestTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

func (s QuoteRequestStatus) Terminal() bool {
	return s == QuoteRequestStatusDenied || s == QuoteRequestStatusConverted
}

type QuoteRequest struct {
	ID            uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RequestNumber string             `gorm:"type:text;not null;uniqueIndex"`
	GrantSourceID *uuid.UUID         `gorm:"type:uuid;index"`
	Status        QuoteRequestStatus `gorm:"type:text;not null;default:'QUOTE_REQUEST_STATUS_DRAFT';index"`
	CreatedBy     uuid.UUID          `gorm:"type:uuid;not null"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Lines        []QuoteRequestLine `gorm:"foreignKey:QuoteRequestID;constraint:OnDelete:CASCADE"`
	VendorQuotes []VendorQuote      `gorm:"foreignKey:QuoteRequestID;constraint:OnDelete:CASCADE"`
}

func (QuoteRequest) TableName() string { return "quote_requests" }

type QuoteRequestLine struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteRequestID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	SizeID           *uuid.UUID `gorm:"type:uuid"`
	Description      string     `gorm:"type:text;not null"`
	Quantity         int32      `gorm:"type:int;not null"`
	EstUnitCostCents int64      `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (QuoteRequestLine) TableName() string { return "quote_request_lines" }

type Vendor struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name     string    `gorm:"type:text;not null"`
	Email    string    `gorm:"type:text"`
	IsActive bool      `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (Vendor) TableName() string { return "vendors" }

// VendorQuote: at most one per quote request may have IsSelected=true; the
// selection swap is atomic in the repository.
type VendorQuote struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteRequestID uuid.UUID `gorm:"type:uuid;not null;index"`
	VendorID       uuid.UUID `gorm:"type:uuid;not null;index"`
	TotalCents     int64     `gorm:"not null;default:0"`
	ShippingCents  int64     `gorm:"not null;default:0"`
	IsSelected     bool      `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:now()"`

	Lines []VendorQuoteLine `gorm:"foreignKey:VendorQuoteID;constraint:OnDelete:CASCADE"`
}

func (VendorQuote) TableName() string { return "vendor_quotes" }

type VendorQuoteLine struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	VendorQuoteID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	QuoteRequestLineID *uuid.UUID `gorm:"type:uuid"`
	SizeID             uuid.UUID  `gorm:"type:uuid;not null"`
	Quantity           int32      `gorm:"type:int;not null"`
	UnitPriceCents     int64      `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (VendorQuoteLine) TableName() string { return "vendor_quote_lines" }

type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft           PurchaseOrderStatus = "PO_STATUS_DRAFT"
	PurchaseOrderStatusSubmitted       PurchaseOrderStatus = "PO_STATUS_SUBMITTED"
	PurchaseOrderStatusPartialReceived PurchaseOrderStatus = "PO_STATUS_PARTIAL_RECEIVED"
	PurchaseOrderStatusReceived        PurchaseOrderStatus = "PO_STATUS_RECEIVED"
	PurchaseOrderStatusCancelled       PurchaseOrderStatus = "PO_STATUS_CANCELLED"
)

var purchaseOrderTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	PurchaseOrderStatusDraft:           {PurchaseOrderStatusSubmitted, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusSubmitted:       {PurchaseOrderStatusPartialReceived, PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusPartialReceived: {PurchaseOrderStatusPartialReceived, PurchaseOrderStatusReceived},
	PurchaseOrderStatusReceived:        {},
	PurchaseOrderStatusCancelled:       {},
}

func (s PurchaseOrderStatus) CanTransitionTo(next PurchaseOrderStatus) bool {
	for _, t := range purchaseOrderTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

func (s PurchaseOrderStatus) Terminal() bool {
	return s == PurchaseOrderStatusReceived || s == PurchaseOrderStatusCancelled
}

// Receivable reports whether the PO can still accept receipts.
func (s PurchaseOrderStatus) Receivable() bool {
	return s == PurchaseOrderStatusSubmitted || s == PurchaseOrderStatusPartialReceived
}

type PurchaseOrder struct {
	ID             uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PONumber       string              `gorm:"type:text;not null;uniqueIndex"`
	VendorID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	QuoteRequestID *uuid.UUID          `gorm:"type:uuid;index"`
	Status         PurchaseOrderStatus `gorm:"type:text;not null;default:'PO_STATUS_SUBMITTED';index"`
	TotalCents     int64               `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Lines []PurchaseOrderLine `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
}

func (PurchaseOrder) TableName() string { return "purchase_orders" }

type PurchaseOrderLine struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseOrderID  uuid.UUID `gorm:"type:uuid;not null;index"`
	SizeID           uuid.UUID `gorm:"type:uuid;not null"`
	QuantityOrdered  int32     `gorm:"type:int;not null"`
	QuantityReceived int32     `gorm:"type:int;not null;default:0"`
	UnitCostCents    int64     `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (PurchaseOrderLine) TableName() string { return "purchase_order_lines" }

// Remaining quantity the vendor still owes on this line.
func (l *PurchaseOrderLine) Outstanding() int32 { return l.QuantityOrdered - l.QuantityReceived }

type ReturnCondition string

const (
	ReturnConditionServiceable ReturnCondition = "RETURN_CONDITION_SERVICEABLE"
	ReturnConditionNeedsRepair ReturnCondition = "RETURN_CONDITION_NEEDS_REPAIR"
	ReturnConditionDispose     ReturnCondition = "RETURN_CONDITION_DISPOSE"
)

func (c ReturnCondition) Valid() bool {
	switch c {
	case ReturnConditionServiceable, ReturnConditionNeedsRepair, ReturnConditionDispose:
		return true
	}
	return false
}

// RestoresStock: only serviceable returns go back on the shelf.
func (c ReturnCondition) RestoresStock() bool { return c == ReturnConditionServiceable }

// IssuedItem records physical custody of units by a team member.
// Open custody = ReturnedAt is nil.
type IssuedItem struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	SizeID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	RequestID       *uuid.UUID `gorm:"type:uuid;index"`
	Quantity        int32      `gorm:"type:int;not null"`
	IssuedAt        time.Time  `gorm:"not null;default:now()"`
	ReturnedAt      *time.Time
	ReturnCondition *ReturnCondition `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (IssuedItem) TableName() string { return "issued_items" }

// Counter is a named atomic sequence (quote request and PO numbers).
// Bumped with INSERT .. ON CONFLICT .. RETURNING inside the creating tx.
type Counter struct {
	Name  string `gorm:"type:text;primaryKey"`
	Value int64  `gorm:"not null;default:0"`
}

func (Counter) TableName() string { return "counters" }

// Counter names.
const (
	CounterQuoteRequest  = "quote_request_number"
	CounterPurchaseOrder = "purchase_order_number"
)
