package changeorder

import (
	"context"
	"fmt"

	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
	"github.com/shopspring/decimal"
)

type StubRepository struct {
	nextID int
	data   map[int]ChangeOrder
}

func NewStubRepository() *StubRepository {
	return &StubRepository{data: map[int]ChangeOrder{}}
}

func (s *StubRepository) Store(ctx context.Context, co ChangeOrder) (ChangeOrder, error) {
	s.nextID++
	co.ID = s.nextID
	for i := range co.Lines {
		s.nextID++
		co.Lines[i].ID = s.nextID
		co.Lines[i].BatchID = co.ID
	}
	s.data[co.ID] = co
	return co, nil
}

func (s *StubRepository) Get(ctx context.Context, id int) (ChangeOrder, error) {
	co, ok := s.data[id]
	if !ok {
		return ChangeOrder{}, fmt.Errorf("change order %d: %w", id, ledger.ErrNotFound)
	}
	return co, nil
}

func (s *StubRepository) ListByContract(ctx context.Context, contractID int) ([]ChangeOrder, error) {
	var batches []ChangeOrder
	for _, co := range s.data {
		if co.ContractID == contractID {
			batches = append(batches, co)
		}
	}
	return batches, nil
}

func (s *StubRepository) ApplyTransition(ctx context.Context, id int, action ledger.Action, record RecordFunc) (TransitionResult, error) {
	co, ok := s.data[id]
	if !ok {
		return TransitionResult{}, fmt.Errorf("change order %d: %w", id, ledger.ErrNotFound)
	}
	next, err := ledger.Next(ledger.TypeChangeOrder, co.Status, action)
	if err != nil {
		return TransitionResult{}, err
	}
	from := co.Status
	co.Status = next
	co.Version++
	s.data[id] = co
	if record != nil {
		if err := record(ctx, nil, from, next); err != nil {
			return TransitionResult{}, err
		}
	}
	return TransitionResult{ProjectID: co.ProjectID, ContractID: co.ContractID, From: from, To: next}, nil
}

func (s *StubRepository) LiveLines(ctx context.Context, key costkey.Key) ([]Line, error) {
	var lines []Line
	for _, co := range s.data {
		if co.Status != ledger.StateApproved {
			continue
		}
		for _, line := range co.Lines {
			if line.Key == key {
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}

func (s *StubRepository) ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	var entries []ledger.Entry
	for _, co := range s.data {
		for _, line := range co.Lines {
			entry := ledger.Entry{
				Ledger:      ledger.TypeChangeOrder,
				BatchID:     co.ID,
				LineID:      line.ID,
				Reference:   co.Number,
				Description: line.Description,
				Status:      co.Status,
				Key:         line.Key,
				Amount:      line.Amount,
			}
			if filter.Matches(entry) {
				entries = append(entries, entry)
			}
		}
	}
	return entries, nil
}

func (s *StubRepository) TotalsByContract(ctx context.Context, contractID int, status ledger.State) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, co := range s.data {
		if co.ContractID != contractID || co.Status != status {
			continue
		}
		for _, line := range co.Lines {
			total = total.Add(line.Amount)
		}
	}
	return total, nil
}

func (s *StubRepository) Cleanup() {
	s.data = map[int]ChangeOrder{}
	s.nextID = 0
}

var _ Repository = (*StubRepository)(nil)
