package repository

import (
	"context"
	"errors"

	"quartermaster-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryRepo owns all quantity math for inventory_records. Every mutation
// is a single conditional UPDATE so the availability check and the write are
// one atomic statement; a false return means the guard failed and nothing
// changed. Interleavings of these calls are therefore equivalent to some
// serial order per size.
type InventoryRepo interface {
	Get(ctx context.Context, sizeID uuid.UUID) (*models.InventoryRecord, error)
	// EnsureRow creates the record lazily on first stock event.
	EnsureRow(ctx context.Context, sizeID uuid.UUID) error

	// AdjustOnHand: on_hand += delta, if on_hand + delta >= reserved.
	// Returns the new on_hand; ok=false means the guard failed, nothing changed.
	AdjustOnHand(ctx context.Context, sizeID uuid.UUID, delta int32) (int32, bool, error)
	// Reserve: reserved += qty, if on_hand - reserved >= qty.
	Reserve(ctx context.Context, sizeID uuid.UUID, qty int32) (bool, error)
	// Release: reserved -= qty, if reserved >= qty.
	Release(ctx context.Context, sizeID uuid.UUID, qty int32) (bool, error)
	// ConsumeReserved: on_hand -= qty, reserved -= qty (pickup of reserved stock).
	ConsumeReserved(ctx context.Context, sizeID uuid.UUID, qty int32) (int32, bool, error)
	// TakeAvailable: on_hand -= qty, if on_hand - reserved >= qty (unreserved issue).
	TakeAvailable(ctx context.Context, sizeID uuid.UUID, qty int32) (int32, bool, error)
	// AddOnHand: on_hand += qty, creating the row if missing (receiving, returns).
	AddOnHand(ctx context.Context, sizeID uuid.UUID, qty int32) (int32, error)

	CreateAudit(ctx context.Context, a *models.StockAudit) error
	ListAudits(ctx context.Context, sizeID uuid.UUID, limit int) ([]models.StockAudit, error)

	LowStock(ctx context.Context) ([]LowStockRow, error)
}

// LowStockRow: a size at or below its item type's par level.
type LowStockRow struct {
	SizeID       uuid.UUID `json:"size_id"`
	Description  string    `json:"description"`
	OnHand       int32     `json:"on_hand"`
	Reserved     int32     `json:"reserved"`
	ParLevel     int32     `json:"par_level"`
	ItemTypeID   uuid.UUID `json:"item_type_id"`
	ItemTypeName string    `json:"item_type_name"`
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepo(db *gorm.DB) InventoryRepo { return &inventoryRepo{db: db} }

func (r *inventoryRepo) Get(ctx context.Context, sizeID uuid.UUID) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := r.db.WithContext(ctx).First(&rec, "size_id = ?", sizeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &rec, err
}

func (r *inventoryRepo) EnsureRow(ctx context.Context, sizeID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
INSERT INTO inventory_records (size_id, on_hand, reserved, updated_at)
VALUES (@id, 0, 0, now())
ON CONFLICT (size_id) DO NOTHING
`, map[string]any{"id": sizeID}).Error
}

func (r *inventoryRepo) AdjustOnHand(ctx context.Context, sizeID uuid.UUID, delta int32) (int32, bool, error) {
	// on_hand may never drop below reserved (nor below zero, since reserved >= 0).
	var onHand *int32
	err := r.db.WithContext(ctx).Raw(`
UPDATE inventory_records
SET on_hand = on_hand + @delta,
    updated_at = now()
WHERE size_id = @id
  AND on_hand + @delta >= reserved
RETURNING on_hand
`, map[string]any{"id": sizeID, "delta": delta}).Scan(&onHand).Error
	if err != nil || onHand == nil {
		return 0, false, err
	}
	return *onHand, true, nil
}

func (r *inventoryRepo) Reserve(ctx context.Context, sizeID uuid.UUID, qty int32) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(`
UPDATE inventory_records
SET reserved = reserved + @q,
    updated_at = now()
WHERE size_id = @id
  AND on_hand - reserved >= @q
`, map[string]any{"id": sizeID, "q": qty})
	return tx.RowsAffected > 0, tx.Error
}

func (r *inventoryRepo) Release(ctx context.Context, sizeID uuid.UUID, qty int32) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(`
UPDATE inventory_records
SET reserved = reserved - @q,
    updated_at = now()
WHERE size_id = @id
  AND reserved >= @q
`, map[string]any{"id": sizeID, "q": qty})
	return tx.RowsAffected > 0, tx.Error
}

func (r *inventoryRepo) ConsumeReserved(ctx context.Context, sizeID uuid.UUID, qty int32) (int32, bool, error) {
	var onHand *int32
	err := r.db.WithContext(ctx).Raw(`
UPDATE inventory_records
SET on_hand = on_hand - @q,
    reserved = reserved - @q,
    updated_at = now()
WHERE size_id = @id
  AND reserved >= @q
  AND on_hand >= @q
RETURNING on_hand
`, map[string]any{"id": sizeID, "q": qty}).Scan(&onHand).Error
	if err != nil || onHand == nil {
		return 0, false, err
	}
	return *onHand, true, nil
}

func (r *inventoryRepo) TakeAvailable(ctx context.Context, sizeID uuid.UUID, qty int32) (int32, bool, error) {
	var onHand *int32
	err := r.db.WithContext(ctx).Raw(`
UPDATE inventory_records
SET on_hand = on_hand - @q,
    updated_at = now()
WHERE size_id = @id
  AND on_hand - reserved >= @q
RETURNING on_hand
`, map[string]any{"id": sizeID, "q": qty}).Scan(&onHand).Error
	if err != nil || onHand == nil {
		return 0, false, err
	}
	return *onHand, true, nil
}

func (r *inventoryRepo) AddOnHand(ctx context.Context, sizeID uuid.UUID, qty int32) (int32, error) {
	var onHand int32
	err := r.db.WithContext(ctx).Raw(`
INSERT INTO inventory_records (size_id, on_hand, reserved, updated_at)
VALUES (@id, @q, 0, now())
ON CONFLICT (size_id) DO UPDATE
SET on_hand = inventory_records.on_hand + @q,
    updated_at = now()
RETURNING on_hand
`, map[string]any{"id": sizeID, "q": qty}).Scan(&onHand).Error
	return onHand, err
}

func (r *inventoryRepo) CreateAudit(ctx context.Context, a *models.StockAudit) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *inventoryRepo) ListAudits(ctx context.Context, sizeID uuid.UUID, limit int) ([]models.StockAudit, error) {
	if limit <= 0 {
		limit = 50
	}
	var list []models.StockAudit
	err := r.db.WithContext(ctx).
		Where("size_id = ?", sizeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *inventoryRepo) LowStock(ctx context.Context) ([]LowStockRow, error) {
	var rows []LowStockRow
	err := r.db.WithContext(ctx).Raw(`
SELECT s.id AS size_id,
       c.name || ' / ' || it.name || ' / ' || v.name || ' / ' || s.label AS description,
       COALESCE(ir.on_hand, 0) AS on_hand,
       COALESCE(ir.reserved, 0) AS reserved,
       it.par_level AS par_level,
       it.id AS item_type_id,
       it.name AS item_type_name
FROM sizes s
JOIN variants v ON v.id = s.variant_id
JOIN item_types it ON it.id = v.item_type_id
JOIN categories c ON c.id = it.category_id
LEFT JOIN inventory_records ir ON ir.size_id = s.id
WHERE s.is_active
  AND COALESCE(ir.on_hand, 0) <= it.par_level
ORDER BY it.name, s.label
`).Scan(&rows).Error
	return rows, err
}
