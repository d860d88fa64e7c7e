package forecast

import (
	"context"
	"fmt"

	"github.com/costline/costline/pkg/ledger"
)

type Service interface {
	CreateCurve(ctx context.Context, c Curve) (Curve, error)
	GetCurve(ctx context.Context, id int) (Curve, error)
	ListCurves(ctx context.Context, companyID int) ([]Curve, error)
	UpdateCurve(ctx context.Context, c Curve) (Curve, error)
	DeleteCurve(ctx context.Context, id int) error
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) CreateCurve(ctx context.Context, c Curve) (Curve, error) {
	if err := validateCurve(c); err != nil {
		return Curve{}, err
	}
	return s.repo.Store(ctx, c)
}

func (s *ServiceImpl) GetCurve(ctx context.Context, id int) (Curve, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) ListCurves(ctx context.Context, companyID int) ([]Curve, error) {
	return s.repo.ListByCompany(ctx, companyID)
}

func (s *ServiceImpl) UpdateCurve(ctx context.Context, c Curve) (Curve, error) {
	if err := validateCurve(c); err != nil {
		return Curve{}, err
	}
	return s.repo.Update(ctx, c)
}

func (s *ServiceImpl) DeleteCurve(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func validateCurve(c Curve) error {
	if c.Name == "" {
		return fmt.Errorf("curve name is required: %w", ledger.ErrConfiguration)
	}
	if !ValidCurveType(c.CurveType) {
		return fmt.Errorf("unknown curve type %q: %w", c.CurveType, ledger.ErrConfiguration)
	}
	return nil
}
