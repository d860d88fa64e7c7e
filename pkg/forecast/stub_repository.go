package forecast

import (
	"context"
	"fmt"

	"github.com/costline/costline/pkg/ledger"
)

type StubRepository struct {
	nextID int
	data   map[int]Curve
}

func NewStubRepository() *StubRepository {
	return &StubRepository{data: map[int]Curve{}}
}

func (s *StubRepository) Store(ctx context.Context, c Curve) (Curve, error) {
	s.nextID++
	c.ID = s.nextID
	s.data[c.ID] = c
	return c, nil
}

func (s *StubRepository) Get(ctx context.Context, id int) (Curve, error) {
	c, ok := s.data[id]
	if !ok {
		return Curve{}, fmt.Errorf("curve %d: %w", id, ledger.ErrNotFound)
	}
	return c, nil
}

func (s *StubRepository) ListByCompany(ctx context.Context, companyID int) ([]Curve, error) {
	var curves []Curve
	for _, c := range s.data {
		if c.CompanyID == companyID {
			curves = append(curves, c)
		}
	}
	return curves, nil
}

func (s *StubRepository) Update(ctx context.Context, c Curve) (Curve, error) {
	if _, ok := s.data[c.ID]; !ok {
		return Curve{}, fmt.Errorf("curve %d: %w", c.ID, ledger.ErrNotFound)
	}
	s.data[c.ID] = c
	return c, nil
}

func (s *StubRepository) Delete(ctx context.Context, id int) error {
	if _, ok := s.data[id]; !ok {
		return fmt.Errorf("curve %d: %w", id, ledger.ErrNotFound)
	}
	delete(s.data, id)
	return nil
}

func (s *StubRepository) Cleanup() {
	s.data = map[int]Curve{}
	s.nextID = 0
}

var _ Repository = (*StubRepository)(nil)
