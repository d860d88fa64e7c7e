package directcost

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

const entityType = "direct_cost"

type Service interface {
	Create(ctx context.Context, dc DirectCost) (DirectCost, error)
	Get(ctx context.Context, id int) (DirectCost, error)
	ListByProject(ctx context.Context, projectID int) ([]DirectCost, error)
	Transition(ctx context.Context, id int, action ledger.Action) (ledger.State, error)
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

// Create stores an incurred cost row. Rows enter pending and must be
// approved before they count as job-to-date cost.
func (s *ServiceImpl) Create(ctx context.Context, dc DirectCost) (DirectCost, error) {
	if dc.VendorName == "" {
		return DirectCost{}, fmt.Errorf("vendor name is required: %w", ledger.ErrConfiguration)
	}
	if dc.InvoiceDate.IsZero() {
		return DirectCost{}, fmt.Errorf("invoice date is required: %w", ledger.ErrConfiguration)
	}
	dc.UID = uuid.NewString()
	dc.Status = ledger.StatePending
	dc.Version = 0
	return s.repo.Store(ctx, dc)
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (DirectCost, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) ListByProject(ctx context.Context, projectID int) ([]DirectCost, error) {
	return s.repo.ListByProject(ctx, projectID)
}

func (s *ServiceImpl) Transition(ctx context.Context, id int, action ledger.Action) (ledger.State, error) {
	result, err := s.repo.ApplyTransition(ctx, id, action, func(ctx context.Context, ex audit.Execer, from, to ledger.State) error {
		_, err := s.auditRepo.Record(ctx, ex, audit.Entry{
			EntityType: entityType,
			EntityID:   id,
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
		Ledger:    string(ledger.TypeDirectCost),
		BatchID:   id,
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
