package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RequestFulfilledEvent struct {
	RequestID   uuid.UUID `json:"request_id"`
	RequestedBy uuid.UUID `json:"requested_by"`
	FulfilledBy uuid.UUID `json:"fulfilled_by"`
	FulfilledAt time.Time `json:"fulfilled_at"`
}

type PurchaseOrderReceivedEvent struct {
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	PONumber        string    `json:"po_number"`
	Complete        bool      `json:"complete"`
	ReceivedAt      time.Time `json:"received_at"`
}

type LowStockEvent struct {
	SizeID   uuid.UUID `json:"size_id"`
	OnHand   int32     `json:"on_hand"`
	ParLevel int32     `json:"par_level"`
}

// EventBus is optional; services treat a nil bus as a no-op and publish only
// after the owning transaction commits.
type EventBus interface {
	PublishRequestFulfilled(ctx context.Context, e RequestFulfilledEvent) error
	PublishPurchaseOrderReceived(ctx context.Context, e PurchaseOrderReceivedEvent) error
	PublishLowStock(ctx context.Context, e LowStockEvent) error
}
