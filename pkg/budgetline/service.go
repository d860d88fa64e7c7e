package budgetline

import (
	"context"
	"errors"
	"fmt"

	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
	log "github.com/sirupsen/logrus"
)

// ErrDuplicateLine reports an attempt to create a second active budget line
// for an identity key that already has one.
var ErrDuplicateLine = errors.New("budget line already exists for identity key")

type Service interface {
	Create(ctx context.Context, line BudgetLine) (BudgetLine, error)
	Get(ctx context.Context, projectID, id int) (BudgetLine, error)
	List(ctx context.Context, projectID int, includeInactive bool) ([]BudgetLine, error)
	Update(ctx context.Context, line BudgetLine) (BudgetLine, error)
	Deactivate(ctx context.Context, projectID, id int) (bool, error)
	KeyOf(ctx context.Context, projectID, id int) (costkey.Key, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) Create(ctx context.Context, line BudgetLine) (BudgetLine, error) {
	if err := validateLine(line); err != nil {
		return BudgetLine{}, err
	}
	if line.ForecastMethod == "" {
		line.ForecastMethod = ForecastMonitored
	}

	// When a quantity/unit-cost decomposition is given and no explicit total,
	// the total is derived from it.
	if line.OriginalAmount.IsZero() && line.Quantity != nil && line.UnitCost != nil {
		line.OriginalAmount = line.Quantity.Mul(*line.UnitCost)
	}

	existing, err := s.repo.FindByKey(ctx, line.Key)
	switch {
	case err == nil && existing.Active:
		return BudgetLine{}, fmt.Errorf("key %+v: %w", line.Key, ErrDuplicateLine)
	case err == nil && !existing.Active:
		// Re-creating a deactivated line reactivates it with the new values.
		line.ID = existing.ID
		if _, err := s.repo.Update(ctx, line); err != nil {
			return BudgetLine{}, err
		}
		if _, err := s.repo.SetActive(ctx, line.Key.ProjectID, existing.ID, true); err != nil {
			return BudgetLine{}, err
		}
		line.Active = true
		log.Debugf("reactivated budget line %d for key %+v", existing.ID, line.Key)
		return line, nil
	case !errors.Is(err, ledger.ErrNotFound):
		return BudgetLine{}, err
	}

	line.Active = true
	id, err := s.repo.Store(ctx, line)
	if err != nil {
		return BudgetLine{}, err
	}
	line.ID = id
	return line, nil
}

func (s *ServiceImpl) Get(ctx context.Context, projectID, id int) (BudgetLine, error) {
	return s.repo.GetByID(ctx, projectID, id)
}

func (s *ServiceImpl) List(ctx context.Context, projectID int, includeInactive bool) ([]BudgetLine, error) {
	return s.repo.ListByProject(ctx, projectID, includeInactive)
}

func (s *ServiceImpl) Update(ctx context.Context, line BudgetLine) (BudgetLine, error) {
	if err := validateLine(line); err != nil {
		return BudgetLine{}, err
	}
	updated, err := s.repo.Update(ctx, line)
	if err != nil {
		return BudgetLine{}, err
	}
	if !updated {
		return BudgetLine{}, fmt.Errorf("budget line %d: %w", line.ID, ledger.ErrNotFound)
	}
	return s.repo.GetByID(ctx, line.Key.ProjectID, line.ID)
}

func (s *ServiceImpl) Deactivate(ctx context.Context, projectID, id int) (bool, error) {
	deactivated, err := s.repo.SetActive(ctx, projectID, id, false)
	if err != nil {
		return false, err
	}
	if !deactivated {
		log.Warnf("budget line %d not deactivated, probably because it does not exist in project %d", id, projectID)
		return false, fmt.Errorf("budget line %d: %w", id, ledger.ErrNotFound)
	}
	return true, nil
}

// KeyOf resolves a budget line id to its normalized identity key.
func (s *ServiceImpl) KeyOf(ctx context.Context, projectID, id int) (costkey.Key, error) {
	line, err := s.repo.GetByID(ctx, projectID, id)
	if err != nil {
		return costkey.Key{}, err
	}
	return line.Key, nil
}

func validateLine(line BudgetLine) error {
	if line.OriginalAmount.IsNegative() {
		return fmt.Errorf("original amount must not be negative: %w", ledger.ErrOutOfRange)
	}
	if line.Quantity != nil && line.Quantity.IsNegative() {
		return fmt.Errorf("quantity must not be negative: %w", ledger.ErrOutOfRange)
	}
	if line.UnitCost != nil && line.UnitCost.IsNegative() {
		return fmt.Errorf("unit cost must not be negative: %w", ledger.ErrOutOfRange)
	}
	if line.ForecastMethod != "" && !ValidMethod(string(line.ForecastMethod)) {
		return fmt.Errorf("unknown forecast method %q: %w", line.ForecastMethod, ledger.ErrConfiguration)
	}
	return nil
}
