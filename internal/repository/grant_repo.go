package repository

import (
	"context"
	"errors"

	"quartermaster-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GrantRepo is the only writer of used_budget_cents. AddUsed applies the delta
// in one statement and returns the new value, so concurrent debits never lose
// an update. No cap: overrun is the caller's problem to surface.
type GrantRepo interface {
	Create(ctx context.Context, g *models.GrantSource) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.GrantSource, error)
	GetByCode(ctx context.Context, code string) (*models.GrantSource, error)
	List(ctx context.Context, fiscalYear *int) ([]models.GrantSource, error)

	// AddUsed: used_budget_cents += delta (delta may be negative, floor at zero
	// is guarded), returns the new used value. ok=false when a negative delta
	// would underflow.
	AddUsed(ctx context.Context, id uuid.UUID, delta int64) (int64, bool, error)
	SetUsed(ctx context.Context, id uuid.UUID, amount int64) error
}

type grantRepo struct{ db *gorm.DB }

func NewGrantRepo(db *gorm.DB) GrantRepo { return &grantRepo{db: db} }

func (r *grantRepo) Create(ctx context.Context, g *models.GrantSource) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *grantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.GrantSource, error) {
	var g models.GrantSource
	err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &g, err
}

func (r *grantRepo) GetByCode(ctx context.Context, code string) (*models.GrantSource, error) {
	var g models.GrantSource
	err := r.db.WithContext(ctx).First(&g, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &g, err
}

func (r *grantRepo) List(ctx context.Context, fiscalYear *int) ([]models.GrantSource, error) {
	q := r.db.WithContext(ctx).Model(&models.GrantSource{})
	if fiscalYear != nil {
		q = q.Where("fiscal_year = ?", *fiscalYear)
	}
	var list []models.GrantSource
	err := q.Order("fiscal_year DESC, code").Find(&list).Error
	return list, err
}

func (r *grantRepo) AddUsed(ctx context.Context, id uuid.UUID, delta int64) (int64, bool, error) {
	var newUsed *int64
	err := r.db.WithContext(ctx).Raw(`
UPDATE grant_sources
SET used_budget_cents = used_budget_cents + @delta,
    updated_at = now()
WHERE id = @id
  AND used_budget_cents + @delta >= 0
RETURNING used_budget_cents
`, map[string]any{"id": id, "delta": delta}).Scan(&newUsed).Error
	if err != nil {
		return 0, false, err
	}
	if newUsed == nil {
		return 0, false, nil
	}
	return *newUsed, true, nil
}

func (r *grantRepo) SetUsed(ctx context.Context, id uuid.UUID, amount int64) error {
	return r.db.WithContext(ctx).Model(&models.GrantSource{}).
		Where("id = ?", id).Update("used_budget_cents", amount).Error
}
