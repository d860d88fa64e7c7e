package commitment

import (
	"context"
	"fmt"

	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
)

type StubRepository struct {
	nextID int
	data   map[int]Commitment
}

func NewStubRepository() *StubRepository {
	return &StubRepository{data: map[int]Commitment{}}
}

func (s *StubRepository) Store(ctx context.Context, c Commitment) (Commitment, error) {
	s.nextID++
	c.ID = s.nextID
	for i := range c.Lines {
		s.nextID++
		c.Lines[i].ID = s.nextID
		c.Lines[i].CommitmentID = c.ID
	}
	s.data[c.ID] = c
	return c, nil
}

func (s *StubRepository) Get(ctx context.Context, id int) (Commitment, error) {
	c, ok := s.data[id]
	if !ok {
		return Commitment{}, fmt.Errorf("commitment %d: %w", id, ledger.ErrNotFound)
	}
	return c, nil
}

func (s *StubRepository) ListByProject(ctx context.Context, projectID int) ([]Commitment, error) {
	var commitments []Commitment
	for _, c := range s.data {
		if c.ProjectID == projectID {
			commitments = append(commitments, c)
		}
	}
	return commitments, nil
}

func (s *StubRepository) ApplyTransition(ctx context.Context, id int, action ledger.Action, record RecordFunc) (TransitionResult, error) {
	c, ok := s.data[id]
	if !ok {
		return TransitionResult{}, fmt.Errorf("commitment %d: %w", id, ledger.ErrNotFound)
	}
	next, err := ledger.Next(ledger.TypeCommitment, c.Status, action)
	if err != nil {
		return TransitionResult{}, err
	}
	from := c.Status
	c.Status = next
	c.Version++
	s.data[id] = c
	if record != nil {
		if err := record(ctx, nil, from, next); err != nil {
			return TransitionResult{}, err
		}
	}
	return TransitionResult{ProjectID: c.ProjectID, From: from, To: next}, nil
}

func (s *StubRepository) LiveLines(ctx context.Context, key costkey.Key) ([]Line, error) {
	var lines []Line
	for _, c := range s.data {
		if !ledger.CountsAsLive(ledger.TypeCommitment, c.Status) {
			continue
		}
		for _, line := range c.Lines {
			if line.Key == key {
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}

func (s *StubRepository) ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	var entries []ledger.Entry
	for _, c := range s.data {
		for _, line := range c.Lines {
			entry := ledger.Entry{
				Ledger:      ledger.TypeCommitment,
				BatchID:     c.ID,
				LineID:      line.ID,
				Reference:   c.VendorName,
				Description: line.Description,
				Status:      c.Status,
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
	s.data = map[int]Commitment{}
	s.nextID = 0
}

var _ Repository = (*StubRepository)(nil)

type StubChangeOrderRepository struct {
	nextID int
	data   map[int]ChangeOrder
}

func NewStubChangeOrderRepository() *StubChangeOrderRepository {
	return &StubChangeOrderRepository{data: map[int]ChangeOrder{}}
}

func (s *StubChangeOrderRepository) Store(ctx context.Context, co ChangeOrder) (ChangeOrder, error) {
	s.nextID++
	co.ID = s.nextID
	for i := range co.Lines {
		s.nextID++
		co.Lines[i].ID = s.nextID
		co.Lines[i].CommitmentID = co.CommitmentID
	}
	s.data[co.ID] = co
	return co, nil
}

func (s *StubChangeOrderRepository) Get(ctx context.Context, id int) (ChangeOrder, error) {
	co, ok := s.data[id]
	if !ok {
		return ChangeOrder{}, fmt.Errorf("commitment change order %d: %w", id, ledger.ErrNotFound)
	}
	return co, nil
}

func (s *StubChangeOrderRepository) ListByCommitment(ctx context.Context, commitmentID int) ([]ChangeOrder, error) {
	var batches []ChangeOrder
	for _, co := range s.data {
		if co.CommitmentID == commitmentID {
			batches = append(batches, co)
		}
	}
	return batches, nil
}

func (s *StubChangeOrderRepository) ApplyTransition(ctx context.Context, id int, action ledger.Action, record RecordFunc) (TransitionResult, error) {
	co, ok := s.data[id]
	if !ok {
		return TransitionResult{}, fmt.Errorf("commitment change order %d: %w", id, ledger.ErrNotFound)
	}
	next, err := ledger.Next(ledger.TypeCommitmentChangeOrder, co.Status, action)
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
	return TransitionResult{ProjectID: co.ProjectID, From: from, To: next}, nil
}

func (s *StubChangeOrderRepository) LiveLines(ctx context.Context, key costkey.Key) ([]Line, error) {
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

func (s *StubChangeOrderRepository) ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	var entries []ledger.Entry
	for _, co := range s.data {
		for _, line := range co.Lines {
			entry := ledger.Entry{
				Ledger:      ledger.TypeCommitmentChangeOrder,
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

func (s *StubChangeOrderRepository) Cleanup() {
	s.data = map[int]ChangeOrder{}
	s.nextID = 0
}

var _ ChangeOrderRepository = (*StubChangeOrderRepository)(nil)
