package modification

import (
	"context"
	"fmt"

	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
)

type StubRepository struct {
	nextID int
	data   map[int]Modification
}

func NewStubRepository() *StubRepository {
	return &StubRepository{data: map[int]Modification{}}
}

func (s *StubRepository) Store(ctx context.Context, m Modification) (Modification, error) {
	s.nextID++
	m.ID = s.nextID
	for i := range m.Lines {
		s.nextID++
		m.Lines[i].ID = s.nextID
		m.Lines[i].BatchID = m.ID
	}
	s.data[m.ID] = m
	return m, nil
}

func (s *StubRepository) Get(ctx context.Context, id int) (Modification, error) {
	m, ok := s.data[id]
	if !ok {
		return Modification{}, fmt.Errorf("budget modification %d: %w", id, ledger.ErrNotFound)
	}
	return m, nil
}

func (s *StubRepository) List(ctx context.Context, projectID int) ([]Modification, error) {
	var batches []Modification
	for _, m := range s.data {
		if m.ProjectID == projectID {
			batches = append(batches, m)
		}
	}
	return batches, nil
}

func (s *StubRepository) ApplyTransition(ctx context.Context, id int, action ledger.Action, record RecordFunc) (TransitionResult, error) {
	m, ok := s.data[id]
	if !ok {
		return TransitionResult{}, fmt.Errorf("budget modification %d: %w", id, ledger.ErrNotFound)
	}
	next, err := ledger.Next(ledger.TypeBudgetModification, m.Status, action)
	if err != nil {
		return TransitionResult{}, err
	}
	from := m.Status
	m.Status = next
	m.Version++
	s.data[id] = m
	if record != nil {
		if err := record(ctx, nil, from, next); err != nil {
			return TransitionResult{}, err
		}
	}
	return TransitionResult{ProjectID: m.ProjectID, From: from, To: next}, nil
}

func (s *StubRepository) LiveLines(ctx context.Context, key costkey.Key) ([]Line, error) {
	var lines []Line
	for _, m := range s.data {
		if m.Status != ledger.StateApproved {
			continue
		}
		for _, line := range m.Lines {
			if line.Key == key {
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}

func (s *StubRepository) ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	var entries []ledger.Entry
	for _, m := range s.data {
		for _, line := range m.Lines {
			entry := ledger.Entry{
				Ledger:      ledger.TypeBudgetModification,
				BatchID:     m.ID,
				LineID:      line.ID,
				Reference:   m.Number,
				Description: line.Description,
				Status:      m.Status,
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

func (s *StubRepository) Cleanup() {
	s.data = map[int]Modification{}
	s.nextID = 0
}

var _ Repository = (*StubRepository)(nil)
