package repository

import (
	"context"
	"errors"

	"quartermaster-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestListFilter struct {
	RequestedBy *uuid.UUID
	Status      *models.RequestStatus
	Limit       int
	Offset      int
}

type RequestRepo interface {
	Create(ctx context.Context, req *models.GearRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.GearRequest, error)
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.GearRequest, error)
	List(ctx context.Context, f RequestListFilter) ([]models.GearRequest, int64, error)

	// UpdateStatus is a compare-and-swap on the status column. false = the
	// request was no longer in the expected status, nothing changed.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.RequestStatus) (bool, error)
	// MarkFulfilled only fires from ReadyForPickup. false = status moved.
	MarkFulfilled(ctx context.Context, id uuid.UUID, fulfilledBy uuid.UUID, signature *string) (bool, error)

	UpdateLineFields(ctx context.Context, lineID uuid.UUID, fields map[string]any) error
}

type requestRepo struct{ db *gorm.DB }

func NewRequestRepo(db *gorm.DB) RequestRepo { return &requestRepo{db: db} }

func (r *requestRepo) Create(ctx context.Context, req *models.GearRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *requestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.GearRequest, error) {
	var req models.GearRequest
	err := r.db.WithContext(ctx).Preload("Lines").First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &req, err
}

func (r *requestRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.GearRequest, error) {
	var req models.GearRequest
	err := r.db.WithContext(ctx).Preload("Lines").
		First(&req, "id = ? AND requested_by = ?", id, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &req, err
}

func (r *requestRepo) List(ctx context.Context, f RequestListFilter) ([]models.GearRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.GearRequest{})

	if f.RequestedBy != nil {
		q = q.Where("requested_by = ?", *f.RequestedBy)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var list []models.GearRequest
	err := q.Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Preload("Lines").Find(&list).Error
	return list, total, err
}

func (r *requestRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.RequestStatus) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.GearRequest{}).
		Where("id = ? AND status = ?", id, from).Update("status", to)
	return tx.RowsAffected > 0, tx.Error
}

func (r *requestRepo) MarkFulfilled(ctx context.Context, id uuid.UUID, fulfilledBy uuid.UUID, signature *string) (bool, error) {
	upd := map[string]any{
		"status":       models.RequestStatusFulfilled,
		"fulfilled_by": fulfilledBy,
		"fulfilled_at": gorm.Expr("now()"),
	}
	if signature != nil {
		upd["pickup_signature"] = signature
	}
	tx := r.db.WithContext(ctx).Model(&models.GearRequest{}).
		Where("id = ? AND status = ?", id, models.RequestStatusReadyForPickup).Updates(upd)
	return tx.RowsAffected > 0, tx.Error
}

func (r *requestRepo) UpdateLineFields(ctx context.Context, lineID uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.GearRequestLine{}).
		Where("id = ?", lineID).Updates(fields).Error
}
