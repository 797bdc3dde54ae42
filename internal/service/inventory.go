package service

import (
	"context"

	"quartermaster-service/internal/models"
	"quartermaster-service/internal/repository"

	"github.com/google/uuid"
)

type AdjustInput struct {
	SizeID uuid.UUID
	Delta  int32
	Reason string
}

type StockView struct {
	SizeID      uuid.UUID `json:"size_id"`
	Description string    `json:"description"`
	OnHand      int32     `json:"on_hand"`
	Reserved    int32     `json:"reserved"`
	Available   int32     `json:"available"`
}

type InventoryService interface {
	GetStock(ctx context.Context, sizeID uuid.UUID) (*StockView, error)
	// Adjust applies a manual staff correction and writes the audit row.
	Adjust(ctx context.Context, in AdjustInput) (*StockView, *models.StockAudit, error)
	LowStock(ctx context.Context) ([]repository.LowStockRow, error)
	Audits(ctx context.Context, sizeID uuid.UUID, limit int) ([]models.StockAudit, error)
}
