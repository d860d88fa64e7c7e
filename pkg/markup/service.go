package markup

import (
	"context"
	"errors"
	"fmt"

	"github.com/costline/costline/pkg/ledger"
	"github.com/shopspring/decimal"
)

// ErrDuplicateMarkup is returned when a project already has a markup of the
// same type.
var ErrDuplicateMarkup = errors.New("markup type already configured for project")

type Service interface {
	Create(ctx context.Context, m Markup) (Markup, error)
	List(ctx context.Context, projectID int) ([]Markup, error)
	Update(ctx context.Context, m Markup) (Markup, error)
	Delete(ctx context.Context, id int) error
	Price(ctx context.Context, projectID int, base decimal.Decimal) (Breakdown, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) Create(ctx context.Context, m Markup) (Markup, error) {
	if err := validate(m); err != nil {
		return Markup{}, err
	}
	_, err := s.repo.GetByType(ctx, m.ProjectID, m.MarkupType)
	if err == nil {
		return Markup{}, fmt.Errorf("markup %q for project %d: %w", m.MarkupType, m.ProjectID, ErrDuplicateMarkup)
	}
	if !errors.Is(err, ledger.ErrNotFound) {
		return Markup{}, err
	}
	return s.repo.Store(ctx, m)
}

func (s *ServiceImpl) List(ctx context.Context, projectID int) ([]Markup, error) {
	return s.repo.ListByProject(ctx, projectID)
}

func (s *ServiceImpl) Update(ctx context.Context, m Markup) (Markup, error) {
	if err := validate(m); err != nil {
		return Markup{}, err
	}
	return s.repo.Update(ctx, m)
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// Price runs a cost base through the project's markups in calculation order.
func (s *ServiceImpl) Price(ctx context.Context, projectID int, base decimal.Decimal) (Breakdown, error) {
	markups, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return Breakdown{}, err
	}
	return Apply(base, markups), nil
}

func validate(m Markup) error {
	if m.MarkupType == "" {
		return fmt.Errorf("markup type is required: %w", ledger.ErrConfiguration)
	}
	if m.Percentage.IsNegative() || m.Percentage.GreaterThan(hundred) {
		return fmt.Errorf("markup percentage %s outside [0, 100]: %w", m.Percentage, ledger.ErrOutOfRange)
	}
	return nil
}
