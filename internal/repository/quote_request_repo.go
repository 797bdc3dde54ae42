package repository

import (
	"context"
	"errors"

	"quartermaster-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuoteRequestRepo interface {
	Create(ctx context.Context, qr *models.QuoteRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error)
	List(ctx context.Context, status *models.QuoteRequestStatus, limit, offset int) ([]models.QuoteRequest, int64, error)
	// UpdateStatus is a compare-and-swap on the status column. false = the
	// request was no longer in the expected status, nothing changed.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.QuoteRequestStatus) (bool, error)

	CreateVendorQuote(ctx context.Context, vq *models.VendorQuote) error
	GetVendorQuote(ctx context.Context, id uuid.UUID) (*models.VendorQuote, error)
	// SelectVendorQuote deselects all siblings and selects the given quote.
	// Must run inside a transaction so two quotes are never selected at once.
	SelectVendorQuote(ctx context.Context, quoteRequestID, vendorQuoteID uuid.UUID) error
	SelectedVendorQuote(ctx context.Context, quoteRequestID uuid.UUID) (*models.VendorQuote, error)
}

type quoteRequestRepo struct{ db *gorm.DB }

func NewQuoteRequestRepo(db *gorm.DB) QuoteRequestRepo { return &quoteRequestRepo{db: db} }

func (r *quoteRequestRepo) Create(ctx context.Context, qr *models.QuoteRequest) error {
	return r.db.WithContext(ctx).Create(qr).Error
}

func (r *quoteRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error) {
	var qr models.QuoteRequest
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("VendorQuotes").
		Preload("VendorQuotes.Lines").
		First(&qr, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &qr, err
}

func (r *quoteRequestRepo) List(ctx context.Context, status *models.QuoteRequestStatus, limit, offset int) ([]models.QuoteRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.QuoteRequest{})
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

	var list []models.QuoteRequest
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Preload("Lines").Find(&list).Error
	return list, total, err
}

func (r *quoteRequestRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.QuoteRequestStatus) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.QuoteRequest{}).
		Where("id = ? AND status = ?", id, from).Update("status", to)
	return tx.RowsAffected > 0, tx.Error
}

func (r *quoteRequestRepo) CreateVendorQuote(ctx context.Context, vq *models.VendorQuote) error {
	return r.db.WithContext(ctx).Create(vq).Error
}

func (r *quoteRequestRepo) GetVendorQuote(ctx context.Context, id uuid.UUID) (*models.VendorQuote, error) {
	var vq models.VendorQuote
	err := r.db.WithContext(ctx).Preload("Lines").First(&vq, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &vq, err
}

func (r *quoteRequestRepo) SelectVendorQuote(ctx context.Context, quoteRequestID, vendorQuoteID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Model(&models.VendorQuote{}).
		Where("quote_request_id = ? AND is_selected", quoteRequestID).
		Update("is_selected", false).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.VendorQuote{}).
		Where("id = ? AND quote_request_id = ?", vendorQuoteID, quoteRequestID).
		Update("is_selected", true).Error
}

func (r *quoteRequestRepo) SelectedVendorQuote(ctx context.Context, quoteRequestID uuid.UUID) (*models.VendorQuote, error) {
	var vq models.VendorQuote
	err := r.db.WithContext(ctx).Preload("Lines").
		First(&vq, "quote_request_id = ? AND is_selected", quoteRequestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &vq, err
}
