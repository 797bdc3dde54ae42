package repository

import (
	"context"
	"errors"

	"quartermaster-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IssuedItemRepo interface {
	Create(ctx context.Context, item *models.IssuedItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.IssuedItem, error)
	ListOpen(ctx context.Context, userID *uuid.UUID) ([]models.IssuedItem, error)

	// Close stamps returned_at/condition on the whole record.
	Close(ctx context.Context, id uuid.UUID, condition models.ReturnCondition) error
	// ReduceQuantity shrinks an open record for a partial return; guarded so
	// quantity stays positive. false = nothing changed.
	ReduceQuantity(ctx context.Context, id uuid.UUID, by int32) (bool, error)
}

type issuedItemRepo struct{ db *gorm.DB }

func NewIssuedItemRepo(db *gorm.DB) IssuedItemRepo { return &issuedItemRepo{db: db} }

func (r *issuedItemRepo) Create(ctx context.Context, item *models.IssuedItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *issuedItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.IssuedItem, error) {
	var item models.IssuedItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *issuedItemRepo) ListOpen(ctx context.Context, userID *uuid.UUID) ([]models.IssuedItem, error) {
	q := r.db.WithContext(ctx).Where("returned_at IS NULL")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var list []models.IssuedItem
	err := q.Order("issued_at DESC").Find(&list).Error
	return list, err
}

func (r *issuedItemRepo) Close(ctx context.Context, id uuid.UUID, condition models.ReturnCondition) error {
	return r.db.WithContext(ctx).Model(&models.IssuedItem{}).
		Where("id = ? AND returned_at IS NULL", id).
		Updates(map[string]any{
			"returned_at":      gorm.Expr("now()"),
			"return_condition": condition,
		}).Error
}

func (r *issuedItemRepo) ReduceQuantity(ctx context.Context, id uuid.UUID, by int32) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(`
UPDATE issued_items
SET quantity = quantity - @by
WHERE id = @id
  AND returned_at IS NULL
  AND quantity - @by > 0
`, map[string]any{"id": id, "by": by})
	return tx.RowsAffected > 0, tx.Error
}
