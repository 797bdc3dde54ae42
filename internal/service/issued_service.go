package service

import (
	"context"
	"time"

	"quartermaster-service/internal/models"
	"quartermaster-service/internal/repository"

	"github.com/google/uuid"
)

type issuedItemService struct {
	repo   *repository.Repository
	events EventBus
	now    func() time.Time
}

func NewIssuedItemService(repo *repository.Repository, events EventBus) IssuedItemService {
	return &issuedItemService{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

func (s *issuedItemService) Issue(ctx context.Context, in IssueInput) (*models.IssuedItem, error) {
	actor, err := requireStaff(ctx)
	if err != nil {
		return nil, err
	}

	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	size, err := s.repo.Catalog.GetSize(ctx, in.SizeID)
	if err != nil {
		return nil, err
	}
	if size == nil {
		return nil, ErrSizeNotFound
	}

	var (
		item   *models.IssuedItem
		onHand int32
	)
	err = s.repo.WithTx(func(tx *repository.Repository) error {
		if err := tx.Inventory.EnsureRow(ctx, in.SizeID); err != nil {
			return err
		}
		var ok bool
		onHand, ok, err = tx.Inventory.TakeAvailable(ctx, in.SizeID, in.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientStock
		}

		if err := tx.Inventory.CreateAudit(ctx, &models.StockAudit{
			SizeID:         in.SizeID,
			ActorID:        actor,
			Delta:          -in.Quantity,
			QuantityBefore: onHand + in.Quantity,
			QuantityAfter:  onHand,
			Reason:         models.AuditReasonIssued,
		}); err != nil {
			return err
		}

		item = &models.IssuedItem{
			UserID:   in.UserID,
			SizeID:   in.SizeID,
			Quantity: in.Quantity,
			IssuedAt: s.now(),
		}
		return tx.IssuedItems.Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	publishLowStockIfNeeded(ctx, s.repo, s.events, in.SizeID, onHand)

	return s.repo.IssuedItems.GetByID(ctx, item.ID)
}

func (s *issuedItemService) Return(ctx context.Context, in ReturnInput) (*models.IssuedItem, error) {
	actor, err := requireStaff(ctx)
	if err != nil {
		return nil, err
	}

	if !in.Condition.Valid() {
		return nil, ErrInvalidCondition
	}
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.repo.IssuedItems.GetByID(ctx, in.IssuedItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrIssuedItemNotFound
	}
	if item.ReturnedAt != nil {
		return nil, ErrAlreadyReturned
	}
	if in.Quantity > item.Quantity {
		return nil, ErrReturnTooMany
	}

	var returnedID uuid.UUID
	err = s.repo.WithTx(func(tx *repository.Repository) error {
		if in.Quantity == item.Quantity {
			returnedID = item.ID
			if err := tx.IssuedItems.Close(ctx, item.ID, in.Condition); err != nil {
				return err
			}
		} else {
			// Partial return: shrink the open record and close a new one for
			// the returned portion.
			ok, err := tx.IssuedItems.ReduceQuantity(ctx, item.ID, in.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return ErrReturnTooMany
			}
			returned := &models.IssuedItem{
				UserID:    item.UserID,
				SizeID:    item.SizeID,
				RequestID: item.RequestID,
				Quantity:  in.Quantity,
				IssuedAt:  item.IssuedAt,
			}
			if err := tx.IssuedItems.Create(ctx, returned); err != nil {
				return err
			}
			returnedID = returned.ID
			if err := tx.IssuedItems.Close(ctx, returned.ID, in.Condition); err != nil {
				return err
			}
		}

		if !in.Condition.RestoresStock() {
			return nil
		}

		onHand, err := tx.Inventory.AddOnHand(ctx, item.SizeID, in.Quantity)
		if err != nil {
			return err
		}
		return tx.Inventory.CreateAudit(ctx, &models.StockAudit{
			SizeID:         item.SizeID,
			ActorID:        actor,
			Delta:          in.Quantity,
			QuantityBefore: onHand - in.Quantity,
			QuantityAfter:  onHand,
			Reason:         models.AuditReasonReturned,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.IssuedItems.GetByID(ctx, returnedID)
}

func (s *issuedItemService) ListOpen(ctx context.Context, userID *uuid.UUID) ([]models.IssuedItem, error) {
	callerID, role, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	// Team members only see their own open items.
	if !role.CanManageWarehouse() {
		userID = &callerID
	}
	return s.repo.IssuedItems.ListOpen(ctx, userID)
}
