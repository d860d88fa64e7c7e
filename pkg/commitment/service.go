package commitment

import (
	"context"
	"fmt"

	"github.com/costline/costline/internal/actor"
	"github.com/costline/costline/internal/event_bus"
	"github.com/costline/costline/pkg/audit"
	"github.com/costline/costline/pkg/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	entityType            = "commitment"
	changeOrderEntityType = "commitment_change_order"
)

var hundred = decimal.NewFromInt(100)

type Service interface {
	Create(ctx context.Context, c Commitment) (Commitment, error)
	Get(ctx context.Context, id int) (Commitment, error)
	ListByProject(ctx context.Context, projectID int) ([]Commitment, error)
	Transition(ctx context.Context, batchID int, action ledger.Action) (ledger.State, error)
	ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error)

	CreateChangeOrder(ctx context.Context, co ChangeOrder) (ChangeOrder, error)
	GetChangeOrder(ctx context.Context, id int) (ChangeOrder, error)
	ListChangeOrders(ctx context.Context, commitmentID int) ([]ChangeOrder, error)
	TransitionChangeOrder(ctx context.Context, batchID int, action ledger.Action) (ledger.State, error)
	ListChangeOrderEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error)
}

type ServiceImpl struct {
	repo      Repository
	coRepo    ChangeOrderRepository
	auditRepo audit.Repository
	bus       *event_bus.EventBus
}

func NewService(repo Repository, coRepo ChangeOrderRepository, auditRepo audit.Repository, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, coRepo: coRepo, auditRepo: auditRepo, bus: bus}
}

func (s *ServiceImpl) Create(ctx context.Context, c Commitment) (Commitment, error) {
	if c.Number == "" {
		return Commitment{}, fmt.Errorf("commitment number is required: %w", ledger.ErrConfiguration)
	}
	if c.ContractAmount.IsNegative() {
		return Commitment{}, fmt.Errorf("contract amount must not be negative: %w", ledger.ErrOutOfRange)
	}
	if c.RetentionPercentage.IsNegative() || c.RetentionPercentage.GreaterThan(hundred) {
		return Commitment{}, fmt.Errorf("retention percentage %s outside [0, 100]: %w",
			c.RetentionPercentage, ledger.ErrOutOfRange)
	}
	c.UID = uuid.NewString()
	c.Status = ledger.StateDraft
	c.Version = 0
	c.ExecutedDate = nil
	return s.repo.Store(ctx, c)
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Commitment, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) ListByProject(ctx context.Context, projectID int) ([]Commitment, error) {
	return s.repo.ListByProject(ctx, projectID)
}

func (s *ServiceImpl) Transition(ctx context.Context, batchID int, action ledger.Action) (ledger.State, error) {
	result, err := s.repo.ApplyTransition(ctx, batchID, action, s.recorder(entityType, batchID, action))
	if err != nil {
		return "", err
	}
	s.publish(ctx, ledger.TypeCommitment, batchID, result, action)
	return result.To, nil
}

func (s *ServiceImpl) ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	return s.repo.ListEntries(ctx, filter)
}

// CreateChangeOrder stores an amendment against an existing commitment. The
// initial state may be any of the pending stages; it defaults to pending.
func (s *ServiceImpl) CreateChangeOrder(ctx context.Context, co ChangeOrder) (ChangeOrder, error) {
	if co.Number == "" {
		return ChangeOrder{}, fmt.Errorf("change order number is required: %w", ledger.ErrConfiguration)
	}

	parent, err := s.repo.Get(ctx, co.CommitmentID)
	if err != nil {
		return ChangeOrder{}, err
	}
	co.ProjectID = parent.ProjectID

	switch co.Status {
	case "":
		co.Status = ledger.StatePending
	case ledger.StatePending, ledger.StatePendingApproval, ledger.StatePendingReview:
	default:
		return ChangeOrder{}, fmt.Errorf("change order cannot start in state %q: %w", co.Status, ledger.ErrConfiguration)
	}

	co.UID = uuid.NewString()
	co.Version = 0
	return s.coRepo.Store(ctx, co)
}

func (s *ServiceImpl) GetChangeOrder(ctx context.Context, id int) (ChangeOrder, error) {
	return s.coRepo.Get(ctx, id)
}

func (s *ServiceImpl) ListChangeOrders(ctx context.Context, commitmentID int) ([]ChangeOrder, error) {
	return s.coRepo.ListByCommitment(ctx, commitmentID)
}

func (s *ServiceImpl) TransitionChangeOrder(ctx context.Context, batchID int, action ledger.Action) (ledger.State, error) {
	result, err := s.coRepo.ApplyTransition(ctx, batchID, action, s.recorder(changeOrderEntityType, batchID, action))
	if err != nil {
		return "", err
	}
	s.publish(ctx, ledger.TypeCommitmentChangeOrder, batchID, result, action)
	return result.To, nil
}

func (s *ServiceImpl) ListChangeOrderEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	return s.coRepo.ListEntries(ctx, filter)
}

func (s *ServiceImpl) recorder(entity string, batchID int, action ledger.Action) RecordFunc {
	return func(ctx context.Context, ex audit.Execer, from, to ledger.State) error {
		_, err := s.auditRepo.Record(ctx, ex, audit.Entry{
			EntityType: entity,
			EntityID:   batchID,
			Action:     string(action),
			FromState:  string(from),
			ToState:    string(to),
			Actor:      actor.Current(ctx),
		})
		return err
	}
}

func (s *ServiceImpl) publish(ctx context.Context, ledgerType ledger.Type, batchID int, result TransitionResult, action ledger.Action) {
	event := event_bus.NewEvent(ctx, event_bus.LedgerTransitionedType, event_bus.LedgerTransitioned{
		Ledger:    string(ledgerType),
		BatchID:   batchID,
		ProjectID: result.ProjectID,
		Action:    string(action),
		FromState: string(result.From),
		ToState:   string(result.To),
	})
	if err := s.bus.Publish(event); err != nil {
		log.Warnf("transition committed but event delivery failed: %v", err)
	}
}

// ChangeOrderLedger exposes the change order side of the service under the
// shared transition contract, which expects one Transitioner per ledger type.
type ChangeOrderLedger struct {
	service Service
}

func NewChangeOrderLedger(service Service) *ChangeOrderLedger {
	return &ChangeOrderLedger{service: service}
}

func (l *ChangeOrderLedger) Transition(ctx context.Context, batchID int, action ledger.Action) (ledger.State, error) {
	return l.service.TransitionChangeOrder(ctx, batchID, action)
}

func (l *ChangeOrderLedger) ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	return l.service.ListChangeOrderEntries(ctx, filter)
}
