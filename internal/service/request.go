package service

import (
	"context"

	"quartermaster-service/internal/models"

	"github.com/google/uuid"
)

type RequestLineInput struct {
	ItemTypeID        uuid.UUID
	RequestedSizeID   *uuid.UUID
	Quantity          int32
	ReplacementReason *string
}

type CreateRequestInput struct {
	Lines []RequestLineInput
}

type RequestListFilter struct {
	RequestedBy *uuid.UUID
	Status      *models.RequestStatus
	Limit       int
	Offset      int
}

type RequestService interface {
	// Create is the one request mutation open to every authenticated caller.
	Create(ctx context.Context, in CreateRequestInput) (*models.GearRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*models.GearRequest, error)
	List(ctx context.Context, f RequestListFilter) ([]models.GearRequest, int64, error)

	// SetStatus drives every transition except pickup. Entering Approved from
	// Pending/Backordered reserves stock per line; lines that cannot be
	// reserved flip the request to Backordered instead. Entering Cancelled
	// releases whatever is still reserved.
	SetStatus(ctx context.Context, id uuid.UUID, target models.RequestStatus) (*models.GearRequest, error)

	// ResolveLine pins a best-effort line to a concrete size. Any existing
	// reservation on the old size is released; the new size is committed at
	// pickup time from available stock.
	ResolveLine(ctx context.Context, requestID, lineID, sizeID uuid.UUID) (*models.GearRequest, error)

	// Fulfill hands the gear over: decrements stock for every line atomically,
	// records custody, stamps the request Fulfilled. All-or-nothing.
	Fulfill(ctx context.Context, id uuid.UUID, signature *string) (*models.GearRequest, error)
}
