package service

import (
	"context"
	"strings"

	"quartermaster-service/internal/models"
	"quartermaster-service/internal/repository"

	"github.com/google/uuid"
)

type grantService struct {
	repo *repository.Repository
}

func NewGrantService(repo *repository.Repository) GrantService {
	return &grantService{repo: repo}
}

func (s *grantService) Create(ctx context.Context, in CreateGrantInput) (*GrantSummary, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(in.Code)
	if code == "" || in.FiscalYear <= 0 || in.TotalBudgetCents < 0 {
		return nil, ErrInvalidQuantity
	}

	existing, err := s.repo.Grants.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrGrantCodeExists
	}

	g := &models.GrantSource{
		Code:             code,
		FiscalYear:       in.FiscalYear,
		TotalBudgetCents: in.TotalBudgetCents,
		IsActive:         true,
	}
	if err := s.repo.Grants.Create(ctx, g); err != nil {
		return nil, err
	}
	return summarize(g), nil
}

func (s *grantService) Summary(ctx context.Context, fiscalYear *int) ([]GrantSummary, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}

	list, err := s.repo.Grants.List(ctx, fiscalYear)
	if err != nil {
		return nil, err
	}
	out := make([]GrantSummary, 0, len(list))
	for i := range list {
		out = append(out, *summarize(&list[i]))
	}
	return out, nil
}

func (s *grantService) Get(ctx context.Context, id uuid.UUID) (*GrantSummary, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	g, err := s.repo.Grants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGrantNotFound
	}
	return summarize(g), nil
}

func (s *grantService) Debit(ctx context.Context, id uuid.UUID, amountCents int64) (*GrantSummary, error) {
	return s.addUsed(ctx, id, amountCents)
}

func (s *grantService) Credit(ctx context.Context, id uuid.UUID, amountCents int64) (*GrantSummary, error) {
	return s.addUsed(ctx, id, -amountCents)
}

func (s *grantService) addUsed(ctx context.Context, id uuid.UUID, delta int64) (*GrantSummary, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, ErrInvalidQuantity
	}

	g, err := s.repo.Grants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGrantNotFound
	}

	_, ok, err := s.repo.Grants.AddUsed(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBudgetUnderflow
	}

	g, err = s.repo.Grants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return summarize(g), nil
}

func (s *grantService) SetUsed(ctx context.Context, id uuid.UUID, amountCents int64) (*GrantSummary, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if amountCents < 0 {
		return nil, ErrBudgetUnderflow
	}

	g, err := s.repo.Grants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGrantNotFound
	}

	if err := s.repo.Grants.SetUsed(ctx, id, amountCents); err != nil {
		return nil, err
	}

	g, err = s.repo.Grants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return summarize(g), nil
}
