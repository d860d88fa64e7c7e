package changeorder

import (
	"context"
	"fmt"

	"github.com/costline/costline/internal/actor"
	"github.com/costline/costline/internal/event_bus"
	"github.com/costline/costline/pkg/audit"
	"github.com/costline/costline/pkg/ledger"
	"github.com/costline/costline/pkg/markup"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const entityType = "change_order"

type Service interface {
	Create(ctx context.Context, co ChangeOrder) (ChangeOrder, error)
	Get(ctx context.Context, id int) (ChangeOrder, error)
	ListByContract(ctx context.Context, contractID int) ([]ChangeOrder, error)
	Transition(ctx context.Context, batchID int, action ledger.Action) (ledger.State, error)
	ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error)
	Price(ctx context.Context, projectID int, baseCost decimal.Decimal) (markup.Breakdown, error)
}

type ServiceImpl struct {
	repo      Repository
	markups   markup.Service
	auditRepo audit.Repository
	bus       *event_bus.EventBus
}

func NewService(repo Repository, markups markup.Service, auditRepo audit.Repository, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, markups: markups, auditRepo: auditRepo, bus: bus}
}

// Create stores a new change order. Change orders have no draft stage and
// enter the ledger pending.
func (s *ServiceImpl) Create(ctx context.Context, co ChangeOrder) (ChangeOrder, error) {
	if co.Number == "" {
		return ChangeOrder{}, fmt.Errorf("change order number is required: %w", ledger.ErrConfiguration)
	}
	if co.ContractID == 0 {
		return ChangeOrder{}, fmt.Errorf("change order requires a contract: %w", ledger.ErrConfiguration)
	}
	co.UID = uuid.NewString()
	co.Status = ledger.StatePending
	co.Version = 0
	return s.repo.Store(ctx, co)
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (ChangeOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) ListByContract(ctx context.Context, contractID int) ([]ChangeOrder, error) {
	return s.repo.ListByContract(ctx, contractID)
}

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
		Ledger:     string(ledger.TypeChangeOrder),
		BatchID:    batchID,
		ProjectID:  result.ProjectID,
		ContractID: result.ContractID,
		Action:     string(action),
		FromState:  string(result.From),
		ToState:    string(result.To),
	})
	if err := s.bus.Publish(event); err != nil {
		log.Warnf("transition committed but event delivery failed: %v", err)
	}

	return result.To, nil
}

func (s *ServiceImpl) ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	return s.repo.ListEntries(ctx, filter)
}

// Price runs a cost base through the project's vertical markups so the
// operator can quote a change order before creating it.
func (s *ServiceImpl) Price(ctx context.Context, projectID int, baseCost decimal.Decimal) (markup.Breakdown, error) {
	if baseCost.IsNegative() {
		return markup.Breakdown{}, fmt.Errorf("base cost must not be negative: %w", ledger.ErrOutOfRange)
	}
	return s.markups.Price(ctx, projectID, baseCost)
}
