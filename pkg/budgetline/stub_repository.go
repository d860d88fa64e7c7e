package budgetline

import (
	"context"
	"fmt"

	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
	"github.com/shopspring/decimal"
)

type StubRepository struct {
	nextID int
	data   map[int]BudgetLine
}

func NewStubRepository() *StubRepository {
	return &StubRepository{data: map[int]BudgetLine{}}
}

func (s *StubRepository) Store(ctx context.Context, line BudgetLine) (int, error) {
	s.nextID++
	line.ID = s.nextID
	s.data[line.ID] = line
	return line.ID, nil
}

func (s *StubRepository) GetByID(ctx context.Context, projectID, id int) (BudgetLine, error) {
	line, ok := s.data[id]
	if !ok || line.Key.ProjectID != projectID {
		return BudgetLine{}, fmt.Errorf("budget line %d: %w", id, ledger.ErrNotFound)
	}
	return line, nil
}

func (s *StubRepository) Get(ctx context.Context, id int) (BudgetLine, error) {
	line, ok := s.data[id]
	if !ok {
		return BudgetLine{}, fmt.Errorf("budget line %d: %w", id, ledger.ErrNotFound)
	}
	return line, nil
}

func (s *StubRepository) FindByKey(ctx context.Context, key costkey.Key) (BudgetLine, error) {
	for _, line := range s.data {
		if line.Key == key {
			return line, nil
		}
	}
	return BudgetLine{}, fmt.Errorf("budget line for key %+v: %w", key, ledger.ErrNotFound)
}

func (s *StubRepository) ListByProject(ctx context.Context, projectID int, includeInactive bool) ([]BudgetLine, error) {
	var lines []BudgetLine
	for _, line := range s.data {
		if line.Key.ProjectID == projectID && (line.Active || includeInactive) {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (s *StubRepository) Update(ctx context.Context, line BudgetLine) (bool, error) {
	existing, ok := s.data[line.ID]
	if !ok {
		return false, nil
	}
	line.Active = existing.Active
	line.ForecastMethod = existing.ForecastMethod
	line.ManualForecast = existing.ManualForecast
	line.CurveID = existing.CurveID
	s.data[line.ID] = line
	return true, nil
}

func (s *StubRepository) UpdateForecast(ctx context.Context, id int, method ForecastMethod, manual *decimal.Decimal, curveID *int) (bool, error) {
	line, ok := s.data[id]
	if !ok {
		return false, nil
	}
	line.ForecastMethod = method
	line.ManualForecast = manual
	line.CurveID = curveID
	s.data[id] = line
	return true, nil
}

func (s *StubRepository) SetActive(ctx context.Context, projectID, id int, active bool) (bool, error) {
	line, ok := s.data[id]
	if !ok || line.Key.ProjectID != projectID {
		return false, nil
	}
	line.Active = active
	s.data[id] = line
	return true, nil
}

func (s *StubRepository) Cleanup() {
	s.data = map[int]BudgetLine{}
	s.nextID = 0
}
