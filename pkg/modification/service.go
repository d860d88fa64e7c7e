package modification

import (
	"context"
	"fmt"

	"github.com/costline/costline/internal/actor"
	"github.com/costline/costline/internal/event_bus"
	"github.com/costline/costline/pkg/audit"
	"github.com/costline/costline/pkg/ledger"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const entityType = "budget_modification"

type Service interface {
	Create(ctx context.Context, m Modification) (Modification, error)
	Get(ctx context.Context, id int) (Modification, error)
	List(ctx context.Context, projectID int) ([]Modification, error)
	Transition(ctx context.Context, batchID int, action ledger.Action) (ledger.State, error)
	ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error)
}

type ServiceImpl struct {
	repo      Repository
	auditRepo audit.Repository
	bus       *event_bus.EventBus
}

func NewService(repo Repository, auditRepo audit.Repository, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, auditRepo: auditRepo, bus: bus}
}

func (s *ServiceImpl) Create(ctx context.Context, m Modification) (Modification, error) {
	if m.Number == "" {
		return Modification{}, fmt.Errorf("modification number is required: %w", ledger.ErrConfiguration)
	}
	m.UID = uuid.NewString()
	m.Status = ledger.StateDraft
	m.Version = 0
	return s.repo.Store(ctx, m)
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Modification, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context, projectID int) ([]Modification, error) {
	return s.repo.List(ctx, projectID)
}

// Transition applies an operator action and, on success, publishes the
// transition so dependent read models (contract summary cache) invalidate.
func (s *ServiceImpl) Transition(ctx context.Context, batchID int, action ledger.Action) (ledger.State, error) {
	result, err := s.repo.ApplyTransition(ctx, batchID, action, func(ctx context.Context, ex audit.Execer, from, to ledger.State) error {
		_, err := s.auditRepo.Record(ctx, ex, audit.Entry{
			EntityType: entityType,
			EntityID:   batchID,
			Action:     string(action),
			FromState:  string(from),
			ToState:    string(to),
			Actor:      actor.Current(ctx),
		})
		return err
	})
	if err != nil {
		return "", err
	}

	event := event_bus.NewEvent(ctx, event_bus.LedgerTransitionedType, event_bus.LedgerTransitioned{
		Ledger:    string(ledger.TypeBudgetModification),
		BatchID:   batchID,
		ProjectID: result.ProjectID,
		Action:    string(action),
		FromState: string(result.From),
		ToState:   string(result.To),
	})
	if err := s.bus.Publish(event); err != nil {
		log.Warnf("transition committed but event delivery failed: %v", err)
	}

	return result.To, nil
}

func (s *ServiceImpl) ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	return s.repo.ListEntries(ctx, filter)
}
