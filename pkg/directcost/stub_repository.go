package directcost

import (
	"context"
	"fmt"

	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
)

type StubRepository struct {
	nextID int
	data   map[int]DirectCost
}

func NewStubRepository() *StubRepository {
	return &StubRepository{data: map[int]DirectCost{}}
}

func (s *StubRepository) Store(ctx context.Context, dc DirectCost) (DirectCost, error) {
	s.nextID++
	dc.ID = s.nextID
	s.data[dc.ID] = dc
	return dc, nil
}

func (s *StubRepository) Get(ctx context.Context, id int) (DirectCost, error) {
	dc, ok := s.data[id]
	if !ok {
		return DirectCost{}, fmt.Errorf("direct cost %d: %w", id, ledger.ErrNotFound)
	}
	return dc, nil
}

func (s *StubRepository) ListByProject(ctx context.Context, projectID int) ([]DirectCost, error) {
	var costs []DirectCost
	for _, dc := range s.data {
		if dc.Key.ProjectID == projectID {
			costs = append(costs, dc)
		}
	}
	return costs, nil
}

func (s *StubRepository) ApplyTransition(ctx context.Context, id int, action ledger.Action, record RecordFunc) (TransitionResult, error) {
	dc, ok := s.data[id]
	if !ok {
		return TransitionResult{}, fmt.Errorf("direct cost %d: %w", id, ledger.ErrNotFound)
	}
	next, err := ledger.Next(ledger.TypeDirectCost, dc.Status, action)
	if err != nil {
		return TransitionResult{}, err
	}
	from := dc.Status
	dc.Status = next
	dc.Version++
	s.data[id] = dc
	if record != nil {
		if err := record(ctx, nil, from, next); err != nil {
			return TransitionResult{}, err
		}
	}
	return TransitionResult{ProjectID: dc.Key.ProjectID, From: from, To: next}, nil
}

func (s *StubRepository) LiveRows(ctx context.Context, key costkey.Key) ([]DirectCost, error) {
	var costs []DirectCost
	for _, dc := range s.data {
		if dc.Status == ledger.StateApproved && dc.Key == key {
			costs = append(costs, dc)
		}
	}
	return costs, nil
}

func (s *StubRepository) ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	var entries []ledger.Entry
	for _, dc := range s.data {
		entry := ledger.Entry{
			Ledger:      ledger.TypeDirectCost,
			BatchID:     dc.ID,
			LineID:      dc.ID,
			Reference:   dc.VendorName,
			Description: dc.Description,
			Status:      dc.Status,
			Key:         dc.Key,
			Amount:      dc.Amount,
		}
		if filter.Matches(entry) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *StubRepository) Cleanup() {
	s.data = map[int]DirectCost{}
	s.nextID = 0
}

var _ Repository = (*StubRepository)(nil)
