package markup

import (
	"context"
	"fmt"

	"github.com/costline/costline/pkg/ledger"
)

type StubRepository struct {
	nextID int
	data   map[int]Markup
}

func NewStubRepository() *StubRepository {
	return &StubRepository{data: map[int]Markup{}}
}

func (s *StubRepository) Store(ctx context.Context, m Markup) (Markup, error) {
	s.nextID++
	m.ID = s.nextID
	s.data[m.ID] = m
	return m, nil
}

func (s *StubRepository) GetByType(ctx context.Context, projectID int, markupType string) (Markup, error) {
	for _, m := range s.data {
		if m.ProjectID == projectID && m.MarkupType == markupType {
			return m, nil
		}
	}
	return Markup{}, fmt.Errorf("markup %q for project %d: %w", markupType, projectID, ledger.ErrNotFound)
}

func (s *StubRepository) ListByProject(ctx context.Context, projectID int) ([]Markup, error) {
	var markups []Markup
	for _, m := range s.data {
		if m.ProjectID == projectID {
			markups = append(markups, m)
		}
	}
	return markups, nil
}

func (s *StubRepository) Update(ctx context.Context, m Markup) (Markup, error) {
	if _, ok := s.data[m.ID]; !ok {
		return Markup{}, fmt.Errorf("markup %d: %w", m.ID, ledger.ErrNotFound)
	}
	s.data[m.ID] = m
	return m, nil
}

func (s *StubRepository) Delete(ctx context.Context, id int) error {
	if _, ok := s.data[id]; !ok {
		return fmt.Errorf("markup %d: %w", id, ledger.ErrNotFound)
	}
	delete(s.data, id)
	return nil
}

func (s *StubRepository) Cleanup() {
	s.data = map[int]Markup{}
	s.nextID = 0
}

var _ Repository = (*StubRepository)(nil)
