package contract

import (
	"context"
	"fmt"
	"sync"

	"github.com/costline/costline/internal/event_bus"
	"github.com/costline/costline/pkg/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var hundred = decimal.NewFromInt(100)

// ChangeOrderSource supplies a contract's change order totals per state.
type ChangeOrderSource interface {
	TotalsByContract(ctx context.Context, contractID int, status ledger.State) (decimal.Decimal, error)
}

type Service interface {
	Create(ctx context.Context, c Contract) (Contract, error)
	Get(ctx context.Context, id int) (Contract, error)
	ListByProject(ctx context.Context, projectID int) ([]Contract, error)

	AddSOVLine(ctx context.Context, line SOVLine) (SOVLine, error)
	ListSOVLines(ctx context.Context, contractID int) ([]SOVLine, error)

	AddInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	ApproveInvoice(ctx context.Context, contractID, invoiceID int) error
	ListInvoices(ctx context.Context, contractID int) ([]Invoice, error)

	AddPayment(ctx context.Context, p Payment) (Payment, error)
	ListPayments(ctx context.Context, contractID int) ([]Payment, error)

	GetSummary(ctx context.Context, contractID int) (Summary, error)
}

// ServiceImpl keeps a per-contract summary cache. The cache is dropped for a
// contract whenever one of its change orders transitions or one of its own
// ledgers (SOV, invoices, payments) is written; transitions arrive over the
// event bus because the change order ledger lives in another package.
type ServiceImpl struct {
	repo         Repository
	changeOrders ChangeOrderSource
	bus          *event_bus.EventBus

	mu    sync.RWMutex
	cache map[int]Summary
}

func NewService(repo Repository, changeOrders ChangeOrderSource, bus *event_bus.EventBus) *ServiceImpl {
	s := &ServiceImpl{
		repo:         repo,
		changeOrders: changeOrders,
		bus:          bus,
		cache:        make(map[int]Summary),
	}

	event_bus.SubscribeTyped(bus, event_bus.LedgerTransitionedType,
		func(e event_bus.EventT[event_bus.LedgerTransitioned]) error {
			if e.Data.ContractID != 0 {
				s.invalidate(e.Data.ContractID)
			}
			return nil
		})
	event_bus.SubscribeTyped(bus, event_bus.ContractLedgerChangedType,
		func(e event_bus.EventT[event_bus.ContractLedgerChanged]) error {
			s.invalidate(e.Data.ContractID)
			return nil
		})

	return s
}

func (s *ServiceImpl) Create(ctx context.Context, c Contract) (Contract, error) {
	if c.Number == "" {
		return Contract{}, fmt.Errorf("contract number is required: %w", ledger.ErrConfiguration)
	}
	c.UID = uuid.NewString()
	return s.repo.Store(ctx, c)
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Contract, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) ListByProject(ctx context.Context, projectID int) ([]Contract, error) {
	return s.repo.ListByProject(ctx, projectID)
}

func (s *ServiceImpl) AddSOVLine(ctx context.Context, line SOVLine) (SOVLine, error) {
	if line.Amount.IsNegative() {
		return SOVLine{}, fmt.Errorf("SOV amount must not be negative: %w", ledger.ErrOutOfRange)
	}
	if _, err := s.repo.Get(ctx, line.ContractID); err != nil {
		return SOVLine{}, err
	}
	stored, err := s.repo.StoreSOVLine(ctx, line)
	if err != nil {
		return SOVLine{}, err
	}
	s.announce(ctx, line.ContractID)
	return stored, nil
}

func (s *ServiceImpl) ListSOVLines(ctx context.Context, contractID int) ([]SOVLine, error) {
	return s.repo.ListSOVLines(ctx, contractID)
}

func (s *ServiceImpl) AddInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	if inv.Amount.IsNegative() {
		return Invoice{}, fmt.Errorf("invoice amount must not be negative: %w", ledger.ErrOutOfRange)
	}
	if _, err := s.repo.Get(ctx, inv.ContractID); err != nil {
		return Invoice{}, err
	}
	stored, err := s.repo.StoreInvoice(ctx, inv)
	if err != nil {
		return Invoice{}, err
	}
	s.announce(ctx, inv.ContractID)
	return stored, nil
}

func (s *ServiceImpl) ApproveInvoice(ctx context.Context, contractID, invoiceID int) error {
	if err := s.repo.SetInvoiceApproved(ctx, invoiceID, true); err != nil {
		return err
	}
	s.announce(ctx, contractID)
	return nil
}

func (s *ServiceImpl) ListInvoices(ctx context.Context, contractID int) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx, contractID)
}

func (s *ServiceImpl) AddPayment(ctx context.Context, p Payment) (Payment, error) {
	if p.Amount.IsNegative() {
		return Payment{}, fmt.Errorf("payment amount must not be negative: %w", ledger.ErrOutOfRange)
	}
	if _, err := s.repo.Get(ctx, p.ContractID); err != nil {
		return Payment{}, err
	}
	stored, err := s.repo.StorePayment(ctx, p)
	if err != nil {
		return Payment{}, err
	}
	s.announce(ctx, p.ContractID)
	return stored, nil
}

func (s *ServiceImpl) ListPayments(ctx context.Context, contractID int) ([]Payment, error) {
	return s.repo.ListPayments(ctx, contractID)
}

// GetSummary serves the cached snapshot when present, otherwise recomputes
// from the four source ledgers and caches the result.
func (s *ServiceImpl) GetSummary(ctx context.Context, contractID int) (Summary, error) {
	s.mu.RLock()
	cached, ok := s.cache[contractID]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	summary, err := s.computeSummary(ctx, contractID)
	if err != nil {
		return Summary{}, err
	}

	s.mu.Lock()
	s.cache[contractID] = summary
	s.mu.Unlock()
	return summary, nil
}

func (s *ServiceImpl) computeSummary(ctx context.Context, contractID int) (Summary, error) {
	if _, err := s.repo.Get(ctx, contractID); err != nil {
		return Summary{}, err
	}

	sovLines, err := s.repo.ListSOVLines(ctx, contractID)
	if err != nil {
		return Summary{}, err
	}
	original := decimal.Zero
	for _, line := range sovLines {
		original = original.Add(line.Amount)
	}

	approved, err := s.changeOrders.TotalsByContract(ctx, contractID, ledger.StateApproved)
	if err != nil {
		return Summary{}, err
	}
	pending, err := s.changeOrders.TotalsByContract(ctx, contractID, ledger.StatePending)
	if err != nil {
		return Summary{}, err
	}

	invoices, err := s.repo.ListInvoices(ctx, contractID)
	if err != nil {
		return Summary{}, err
	}
	invoiced := decimal.Zero
	for _, inv := range invoices {
		if inv.Approved {
			invoiced = invoiced.Add(inv.Amount)
		}
	}

	payments, err := s.repo.ListPayments(ctx, contractID)
	if err != nil {
		return Summary{}, err
	}
	received := decimal.Zero
	for _, p := range payments {
		received = received.Add(p.Amount)
	}

	revised := original.Add(approved)
	percentPaid := decimal.Zero
	if revised.IsPositive() {
		percentPaid = received.Div(revised).Mul(hundred).Round(2)
	}

	return Summary{
		ContractID:             contractID,
		OriginalContractAmount: original,
		ApprovedChangeOrders:   approved,
		RevisedContractAmount:  revised,
		PendingChangeOrders:    pending,
		DraftChangeOrders:      decimal.Zero,
		InvoicedAmount:         invoiced,
		PaymentsReceived:       received,
		PercentPaid:            percentPaid,
		RemainingBalance:       revised.Sub(received),
	}, nil
}

func (s *ServiceImpl) invalidate(contractID int) {
	s.mu.Lock()
	delete(s.cache, contractID)
	s.mu.Unlock()
}

// announce publishes a contract ledger write; our own subscription drops the
// cached summary synchronously before the publish returns.
func (s *ServiceImpl) announce(ctx context.Context, contractID int) {
	event := event_bus.NewEvent(ctx, event_bus.ContractLedgerChangedType,
		event_bus.ContractLedgerChanged{ContractID: contractID})
	if err := s.bus.Publish(event); err != nil {
		log.Warnf("contract ledger write committed but event delivery failed: %v", err)
	}
}
