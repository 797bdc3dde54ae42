package repository

import (
	"context"
	"errors"

	"quartermaster-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepo covers the descriptive Category -> ItemType -> Variant -> Size
// chain. The chain has no workflow of its own; the engine only needs lookups
// and creation for seeding.
type CatalogRepo interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	CreateItemType(ctx context.Context, it *models.ItemType) error
	CreateVariant(ctx context.Context, v *models.Variant) error
	CreateSize(ctx context.Context, s *models.Size) error

	GetItemType(ctx context.Context, id uuid.UUID) (*models.ItemType, error)
	GetSize(ctx context.Context, id uuid.UUID) (*models.Size, error)
	// SizeDescription renders "Category / ItemType / Variant / Label" for audit rows.
	SizeDescription(ctx context.Context, id uuid.UUID) (string, error)
	// ItemTypeForSize resolves the owning item type of a size.
	ItemTypeForSize(ctx context.Context, sizeID uuid.UUID) (*models.ItemType, error)
}

type catalogRepo struct{ db *gorm.DB }

func NewCatalogRepo(db *gorm.DB) CatalogRepo { return &catalogRepo{db: db} }

func (r *catalogRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *catalogRepo) CreateItemType(ctx context.Context, it *models.ItemType) error {
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *catalogRepo) CreateVariant(ctx context.Context, v *models.Variant) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *catalogRepo) CreateSize(ctx context.Context, s *models.Size) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *catalogRepo) GetItemType(ctx context.Context, id uuid.UUID) (*models.ItemType, error) {
	var it models.ItemType
	err := r.db.WithContext(ctx).First(&it, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &it, err
}

func (r *catalogRepo) GetSize(ctx context.Context, id uuid.UUID) (*models.Size, error) {
	var s models.Size
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &s, err
}

func (r *catalogRepo) SizeDescription(ctx context.Context, id uuid.UUID) (string, error) {
	var desc string
	err := r.db.WithContext(ctx).Raw(`
SELECT c.name || ' / ' || it.name || ' / ' || v.name || ' / ' || s.label
FROM sizes s
JOIN variants v ON v.id = s.variant_id
JOIN item_types it ON it.id = v.item_type_id
JOIN categories c ON c.id = it.category_id
WHERE s.id = @id
`, map[string]any{"id": id}).Scan(&desc).Error
	return desc, err
}

func (r *catalogRepo) ItemTypeForSize(ctx context.Context, sizeID uuid.UUID) (*models.ItemType, error) {
	var it models.ItemType
	err := r.db.WithContext(ctx).Raw(`
SELECT it.*
FROM item_types it
JOIN variants v ON v.item_type_id = it.id
JOIN sizes s ON s.variant_id = v.id
WHERE s.id = @id
`, map[string]any{"id": sizeID}).Scan(&it).Error
	if err != nil {
		return nil, err
	}
	if it.ID == uuid.Nil {
		return nil, nil
	}
	return &it, nil
}

type VendorRepo interface {
	Create(ctx context.Context, v *models.Vendor) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

type vendorRepo struct{ db *gorm.DB }

func NewVendorRepo(db *gorm.DB) VendorRepo { return &vendorRepo{db: db} }

func (r *vendorRepo) Create(ctx context.Context, v *models.Vendor) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *vendorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var v models.Vendor
	err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &v, err
}
