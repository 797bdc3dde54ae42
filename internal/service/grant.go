package service

import (
	"context"

	"quartermaster-service/internal/models"

	"github.com/google/uuid"
)

type CreateGrantInput struct {
	Code             string
	FiscalYear       int
	TotalBudgetCents int64
}

// GrantSummary carries the derived remaining budget; it is never stored.
type GrantSummary struct {
	models.GrantSource
	RemainingBudgetCents int64 `json:"remaining_budget_cents"`
	BudgetOverrun        bool  `json:"budget_overrun"`
}

type GrantService interface {
	Create(ctx context.Context, in CreateGrantInput) (*GrantSummary, error)
	Summary(ctx context.Context, fiscalYear *int) ([]GrantSummary, error)
	Get(ctx context.Context, id uuid.UUID) (*GrantSummary, error)

	// Debit/Credit/SetUsed are the only legal mutators of used budget.
	// Debit succeeds past the total budget: overrun is flagged, never blocked.
	Debit(ctx context.Context, id uuid.UUID, amountCents int64) (*GrantSummary, error)
	Credit(ctx context.Context, id uuid.UUID, amountCents int64) (*GrantSummary, error)
	SetUsed(ctx context.Context, id uuid.UUID, amountCents int64) (*GrantSummary, error)
}

func summarize(g *models.GrantSource) *GrantSummary {
	return &GrantSummary{
		GrantSource:          *g,
		RemainingBudgetCents: g.RemainingCents(),
		BudgetOverrun:        g.RemainingCents() < 0,
	}
}
