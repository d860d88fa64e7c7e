package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type StubRepository struct {
	Entries []Entry
}

func NewStubRepository() *StubRepository {
	return &StubRepository{}
}

func (s *StubRepository) Record(ctx context.Context, ex Execer, entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	s.Entries = append(s.Entries, entry)
	return entry, nil
}

func (s *StubRepository) List(ctx context.Context, entityType string, entityID int) ([]Entry, error) {
	var entries []Entry
	for _, entry := range s.Entries {
		if entry.EntityType == entityType && entry.EntityID == entityID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *StubRepository) Cleanup() {
	s.Entries = nil
}
