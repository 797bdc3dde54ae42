package service

import (
	"context"
	"errors"
	"time"

	"quartermaster-service/internal/models"
	"quartermaster-service/internal/repository"

	"github.com/google/uuid"
)

type requestService struct {
	repo   *repository.Repository
	events EventBus
	now    func() time.Time
}

func NewRequestService(repo *repository.Repository, events EventBus) RequestService {
	return &requestService{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

func (s *requestService) Create(ctx context.Context, in CreateRequestInput) (*models.GearRequest, error) {
	userID, _, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	if len(in.Lines) == 0 {
		return nil, ErrEmptyLines
	}

	lines := make([]models.GearRequestLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}

		it, err := s.repo.Catalog.GetItemType(ctx, l.ItemTypeID)
		if err != nil {
			return nil, err
		}
		if it == nil {
			return nil, ErrItemTypeNotFound
		}

		if l.RequestedSizeID != nil {
			size, err := s.repo.Catalog.GetSize(ctx, *l.RequestedSizeID)
			if err != nil {
				return nil, err
			}
			if size == nil {
				return nil, ErrSizeNotFound
			}
		}

		lines = append(lines, models.GearRequestLine{
			ItemTypeID:        l.ItemTypeID,
			RequestedSizeID:   l.RequestedSizeID,
			Quantity:          l.Quantity,
			ReplacementReason: l.ReplacementReason,
		})
	}

	req := &models.GearRequest{
		RequestedBy: userID,
		Status:      models.RequestStatusPending,
		RequestDate: s.now(),
		Lines:       lines,
	}
	if err := s.repo.Requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return s.repo.Requests.GetByID(ctx, req.ID)
}

func (s *requestService) Get(ctx context.Context, id uuid.UUID) (*models.GearRequest, error) {
	userID, role, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	var req *models.GearRequest
	if role.CanManageWarehouse() {
		req, err = s.repo.Requests.GetByID(ctx, id)
	} else {
		req, err = s.repo.Requests.GetByIDForUser(ctx, id, userID)
	}
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

func (s *requestService) List(ctx context.Context, f RequestListFilter) ([]models.GearRequest, int64, error) {
	userID, role, err := requireAuth(ctx)
	if err != nil {
		return nil, 0, err
	}
	if !role.CanManageWarehouse() {
		f.RequestedBy = &userID
	}
	return s.repo.Requests.List(ctx, repository.RequestListFilter{
		RequestedBy: f.RequestedBy,
		Status:      f.Status,
		Limit:       f.Limit,
		Offset:      f.Offset,
	})
}

func (s *requestService) SetStatus(ctx context.Context, id uuid.UUID, target models.RequestStatus) (*models.GearRequest, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}

	// Fulfilled is only reachable through Fulfill, which owns the stock side effects.
	if target == models.RequestStatusFulfilled {
		return nil, ErrStateConflict
	}

	req, err := s.repo.Requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if !req.Status.CanTransitionTo(target) {
		return nil, ErrStateConflict
	}

	switch target {
	case models.RequestStatusApproved:
		return s.approve(ctx, req)
	case models.RequestStatusCancelled:
		if err := s.releaseAndSet(ctx, req, models.RequestStatusCancelled); err != nil {
			return nil, err
		}
	case models.RequestStatusBackordered:
		// Manual backorder: give the held stock back to the pool.
		if err := s.releaseAndSet(ctx, req, models.RequestStatusBackordered); err != nil {
			return nil, err
		}
	default:
		ok, err := s.repo.Requests.UpdateStatus(ctx, req.ID, req.Status, target)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrStateConflict
		}
	}

	return s.repo.Requests.GetByID(ctx, req.ID)
}

// approve reserves stock per concrete line, all in one transaction. If any
// line cannot be reserved the transaction rolls back (no reservations
// survive) and the request lands on Backordered with the failing lines
// flagged.
func (s *requestService) approve(ctx context.Context, req *models.GearRequest) (*models.GearRequest, error) {
	failed := map[uuid.UUID]bool{}

	err := s.repo.WithTx(func(tx *repository.Repository) error {
		for _, line := range req.Lines {
			if line.RequestedSizeID == nil || line.ReservedQuantity > 0 {
				continue
			}

			if err := tx.Inventory.EnsureRow(ctx, *line.RequestedSizeID); err != nil {
				return err
			}
			ok, err := tx.Inventory.Reserve(ctx, *line.RequestedSizeID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				failed[line.ID] = true
				continue
			}
			if err := tx.Requests.UpdateLineFields(ctx, line.ID, map[string]any{
				"reserved_quantity": line.Quantity,
				"is_backordered":    false,
			}); err != nil {
				return err
			}
		}
		if len(failed) > 0 {
			return ErrInsufficientStock
		}
		ok, err := tx.Requests.UpdateStatus(ctx, req.ID, req.Status, models.RequestStatusApproved)
		if err != nil {
			return err
		}
		if !ok {
			// A concurrent transition won; the rolled-back tx drops our reservations.
			return ErrStateConflict
		}
		return nil
	})

	if err != nil && !errors.Is(err, ErrInsufficientStock) {
		return nil, err
	}

	if len(failed) > 0 {
		err = s.repo.WithTx(func(tx *repository.Repository) error {
			for _, line := range req.Lines {
				if err := tx.Requests.UpdateLineFields(ctx, line.ID, map[string]any{
					"is_backordered": failed[line.ID],
				}); err != nil {
					return err
				}
			}
			ok, err := tx.Requests.UpdateStatus(ctx, req.ID, req.Status, models.RequestStatusBackordered)
			if err != nil {
				return err
			}
			if !ok {
				return ErrStateConflict
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return s.repo.Requests.GetByID(ctx, req.ID)
}

// releaseAndSet drops every live reservation of the request and moves it to
// the target status, atomically.
func (s *requestService) releaseAndSet(ctx context.Context, req *models.GearRequest, target models.RequestStatus) error {
	return s.repo.WithTx(func(tx *repository.Repository) error {
		for _, line := range req.Lines {
			if line.ReservedQuantity <= 0 || line.RequestedSizeID == nil {
				continue
			}
			ok, err := tx.Inventory.Release(ctx, *line.RequestedSizeID, line.ReservedQuantity)
			if err != nil {
				return err
			}
			if !ok {
				return ErrInvalidAdjustment
			}
			if err := tx.Requests.UpdateLineFields(ctx, line.ID, map[string]any{
				"reserved_quantity": 0,
			}); err != nil {
				return err
			}
		}
		ok, err := tx.Requests.UpdateStatus(ctx, req.ID, req.Status, target)
		if err != nil {
			return err
		}
		if !ok {
			return ErrStateConflict
		}
		return nil
	})
}

func (s *requestService) ResolveLine(ctx context.Context, requestID, lineID, sizeID uuid.UUID) (*models.GearRequest, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}

	req, err := s.repo.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if req.Status.Terminal() {
		return nil, ErrStateConflict
	}

	var line *models.GearRequestLine
	for i := range req.Lines {
		if req.Lines[i].ID == lineID {
			line = &req.Lines[i]
			break
		}
	}
	if line == nil {
		return nil, ErrRequestLineNotFound
	}
	if line.IssuedQuantity > 0 {
		return nil, ErrLineSizeImmutable
	}

	size, err := s.repo.Catalog.GetSize(ctx, sizeID)
	if err != nil {
		return nil, err
	}
	if size == nil {
		return nil, ErrSizeNotFound
	}

	err = s.repo.WithTx(func(tx *repository.Repository) error {
		if line.ReservedQuantity > 0 && line.RequestedSizeID != nil {
			ok, err := tx.Inventory.Release(ctx, *line.RequestedSizeID, line.ReservedQuantity)
			if err != nil {
				return err
			}
			if !ok {
				return ErrInvalidAdjustment
			}
		}
		return tx.Requests.UpdateLineFields(ctx, lineID, map[string]any{
			"requested_size_id": sizeID,
			"reserved_quantity": 0,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Requests.GetByID(ctx, requestID)
}

func (s *requestService) Fulfill(ctx context.Context, id uuid.UUID, signature *string) (*models.GearRequest, error) {
	actor, err := requireStaff(ctx)
	if err != nil {
		return nil, err
	}

	req, err := s.repo.Requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if req.Status != models.RequestStatusReadyForPickup {
		return nil, ErrStateConflict
	}

	for _, line := range req.Lines {
		if line.RequestedSizeID == nil {
			return nil, ErrUnresolvedLine
		}
	}

	// Final on-hand per size, for post-commit low-stock signals.
	finalOnHand := map[uuid.UUID]int32{}

	err = s.repo.WithTx(func(tx *repository.Repository) error {
		for _, line := range req.Lines {
			sizeID := *line.RequestedSizeID

			var (
				onHand int32
				ok     bool
				err    error
			)
			if line.ReservedQuantity > 0 {
				onHand, ok, err = tx.Inventory.ConsumeReserved(ctx, sizeID, line.ReservedQuantity)
			} else {
				if err := tx.Inventory.EnsureRow(ctx, sizeID); err != nil {
					return err
				}
				onHand, ok, err = tx.Inventory.TakeAvailable(ctx, sizeID, line.Quantity)
			}
			if err != nil {
				return err
			}
			if !ok {
				return ErrInsufficientStock
			}
			finalOnHand[sizeID] = onHand

			if err := tx.Inventory.CreateAudit(ctx, &models.StockAudit{
				SizeID:         sizeID,
				ActorID:        actor,
				Delta:          -line.Quantity,
				QuantityBefore: onHand + line.Quantity,
				QuantityAfter:  onHand,
				Reason:         models.AuditReasonIssued,
			}); err != nil {
				return err
			}

			if err := tx.Requests.UpdateLineFields(ctx, line.ID, map[string]any{
				"issued_quantity":   line.Quantity,
				"reserved_quantity": 0,
				"is_backordered":    false,
			}); err != nil {
				return err
			}

			reqID := req.ID
			if err := tx.IssuedItems.Create(ctx, &models.IssuedItem{
				UserID:    req.RequestedBy,
				SizeID:    sizeID,
				RequestID: &reqID,
				Quantity:  line.Quantity,
				IssuedAt:  s.now(),
			}); err != nil {
				return err
			}
		}

		ok, err := tx.Requests.MarkFulfilled(ctx, req.ID, actor, signature)
		if err != nil {
			return err
		}
		if !ok {
			// A racing fulfill or cancel got there first; the stock side
			// effects above roll back with the tx.
			return ErrStateConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		_ = s.events.PublishRequestFulfilled(ctx, RequestFulfilledEvent{
			RequestID:   req.ID,
			RequestedBy: req.RequestedBy,
			FulfilledBy: actor,
			FulfilledAt: s.now(),
		})
	}
	for sizeID, onHand := range finalOnHand {
		publishLowStockIfNeeded(ctx, s.repo, s.events, sizeID, onHand)
	}

	return s.repo.Requests.GetByID(ctx, req.ID)
}
