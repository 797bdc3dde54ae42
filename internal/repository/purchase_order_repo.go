package repository

import (
	"context"
	"errors"

	"quartermaster-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseOrderRepo interface {
	Create(ctx context.Context, po *models.PurchaseOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	List(ctx context.Context, status *models.PurchaseOrderStatus, limit, offset int) ([]models.PurchaseOrder, int64, error)
	// UpdateStatus is a compare-and-swap on the status column. false = the
	// order was no longer in the expected status, nothing changed.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.PurchaseOrderStatus) (bool, error)

	// AddReceived: quantity_received += qty, guarded so the line can never
	// exceed quantity_ordered. false = over-receipt, nothing changed.
	AddReceived(ctx context.Context, lineID uuid.UUID, qty int32) (bool, error)
}

type purchaseOrderRepo struct{ db *gorm.DB }

func NewPurchaseOrderRepo(db *gorm.DB) PurchaseOrderRepo { return &purchaseOrderRepo{db: db} }

func (r *purchaseOrderRepo) Create(ctx context.Context, po *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

func (r *purchaseOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.db.WithContext(ctx).Preload("Lines").First(&po, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &po, err
}

func (r *purchaseOrderRepo) List(ctx context.Context, status *models.PurchaseOrderStatus, limit, offset int) ([]models.PurchaseOrder, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.PurchaseOrder{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var list []models.PurchaseOrder
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Preload("Lines").Find(&list).Error
	return list, total, err
}

func (r *purchaseOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.PurchaseOrderStatus) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.PurchaseOrder{}).
		Where("id = ? AND status = ?", id, from).Update("status", to)
	return tx.RowsAffected > 0, tx.Error
}

func (r *purchaseOrderRepo) AddReceived(ctx context.Context, lineID uuid.UUID, qty int32) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(`
UPDATE purchase_order_lines
SET quantity_received = quantity_received + @q
WHERE id = @id
  AND quantity_received + @q <= quantity_ordered
`, map[string]any{"id": lineID, "q": qty})
	return tx.RowsAffected > 0, tx.Error
}
