package service

import (
	"context"
	"strings"
	"time"

	"quartermaster-service/internal/models"
	"quartermaster-service/internal/repository"

	"github.com/google/uuid"
)

type inventoryService struct {
	repo   *repository.Repository
	events EventBus
	now    func() time.Time
}

func NewInventoryService(repo *repository.Repository, events EventBus) InventoryService {
	return &inventoryService{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

func (s *inventoryService) GetStock(ctx context.Context, sizeID uuid.UUID) (*StockView, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, err
	}
	return stockView(ctx, s.repo, sizeID)
}

func stockView(ctx context.Context, repo *repository.Repository, sizeID uuid.UUID) (*StockView, error) {
	size, err := repo.Catalog.GetSize(ctx, sizeID)
	if err != nil {
		return nil, err
	}
	if size == nil {
		return nil, ErrSizeNotFound
	}

	desc, err := repo.Catalog.SizeDescription(ctx, sizeID)
	if err != nil {
		return nil, err
	}

	rec, err := repo.Inventory.Get(ctx, sizeID)
	if err != nil {
		return nil, err
	}

	view := &StockView{SizeID: sizeID, Description: desc}
	if rec != nil {
		view.OnHand = rec.OnHand
		view.Reserved = rec.Reserved
		view.Available = rec.Available()
	}
	return view, nil
}

func (s *inventoryService) Adjust(ctx context.Context, in AdjustInput) (*StockView, *models.StockAudit, error) {
	actor, err := requireStaff(ctx)
	if err != nil {
		return nil, nil, err
	}

	if in.Delta == 0 {
		return nil, nil, ErrInvalidQuantity
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = models.AuditReasonAdjusted
	}

	size, err := s.repo.Catalog.GetSize(ctx, in.SizeID)
	if err != nil {
		return nil, nil, err
	}
	if size == nil {
		return nil, nil, ErrSizeNotFound
	}

	var audit *models.StockAudit
	var newOnHand int32

	err = s.repo.WithTx(func(tx *repository.Repository) error {
		if err := tx.Inventory.EnsureRow(ctx, in.SizeID); err != nil {
			return err
		}

		onHand, ok, err := tx.Inventory.AdjustOnHand(ctx, in.SizeID, in.Delta)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidAdjustment
		}
		newOnHand = onHand

		audit = &models.StockAudit{
			SizeID:         in.SizeID,
			ActorID:        actor,
			Delta:          in.Delta,
			QuantityBefore: onHand - in.Delta,
			QuantityAfter:  onHand,
			Reason:         reason,
		}
		return tx.Inventory.CreateAudit(ctx, audit)
	})
	if err != nil {
		return nil, nil, err
	}

	if in.Delta < 0 {
		publishLowStockIfNeeded(ctx, s.repo, s.events, in.SizeID, newOnHand)
	}

	view, err := stockView(ctx, s.repo, in.SizeID)
	if err != nil {
		return nil, nil, err
	}
	return view, audit, nil
}

func (s *inventoryService) LowStock(ctx context.Context) ([]repository.LowStockRow, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	return s.repo.Inventory.LowStock(ctx)
}

func (s *inventoryService) Audits(ctx context.Context, sizeID uuid.UUID, limit int) ([]models.StockAudit, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	return s.repo.Inventory.ListAudits(ctx, sizeID, limit)
}

// publishLowStockIfNeeded fires the restock signal when on-hand sits at or
// below the item type's par level. Best effort, after commit.
func publishLowStockIfNeeded(ctx context.Context, repo *repository.Repository, events EventBus, sizeID uuid.UUID, onHand int32) {
	if events == nil {
		return
	}
	it, err := repo.Catalog.ItemTypeForSize(ctx, sizeID)
	if err != nil || it == nil {
		return
	}
	if onHand > it.ParLevel {
		return
	}
	_ = events.PublishLowStock(ctx, LowStockEvent{
		SizeID:   sizeID,
		OnHand:   onHand,
		ParLevel: it.ParLevel,
	})
}
