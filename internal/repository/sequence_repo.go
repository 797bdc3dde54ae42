package repository

import (
	"context"

	"gorm.io/gorm"
)

// SequenceRepo hands out gapless-enough sequential numbers for quote requests
// and purchase orders. A COUNT(*)-derived number races under concurrency; a
// single-row upsert bumped inside the creating transaction does not.
type SequenceRepo interface {
	Next(ctx context.Context, name string) (int64, error)
}

type sequenceRepo struct{ db *gorm.DB }

func NewSequenceRepo(db *gorm.DB) SequenceRepo { return &sequenceRepo{db: db} }

func (r *sequenceRepo) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Raw(`
INSERT INTO counters (name, value)
VALUES (@name, 1)
ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
RETURNING value
`, map[string]any{"name": name}).Scan(&value).Error
	return value, err
}
