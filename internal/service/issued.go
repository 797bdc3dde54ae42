package service

import (
	"context"

	"quartermaster-service/internal/models"

	"github.com/google/uuid"
)

type IssueInput struct {
	UserID   uuid.UUID
	SizeID   uuid.UUID
	Quantity int32
}

type ReturnInput struct {
	IssuedItemID uuid.UUID
	Quantity     int32
	Condition    models.ReturnCondition
}

// IssuedItemService tracks physical custody outside the request flow: ad hoc
// issues and returns. Only serviceable returns put units back on the shelf.
type IssuedItemService interface {
	Issue(ctx context.Context, in IssueInput) (*models.IssuedItem, error)
	Return(ctx context.Context, in ReturnInput) (*models.IssuedItem, error)
	ListOpen(ctx context.Context, userID *uuid.UUID) ([]models.IssuedItem, error)
}
