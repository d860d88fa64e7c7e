package contract

import (
	"context"
	"fmt"
	"sort"

	"github.com/costline/costline/pkg/ledger"
)

type StubRepository struct {
	nextID    int
	contracts map[int]Contract
	sovLines  map[int]SOVLine
	invoices  map[int]Invoice
	payments  map[int]Payment
}

func NewStubRepository() *StubRepository {
	s := &StubRepository{}
	s.Cleanup()
	return s
}

func (s *StubRepository) Store(ctx context.Context, c Contract) (Contract, error) {
	s.nextID++
	c.ID = s.nextID
	s.contracts[c.ID] = c
	return c, nil
}

func (s *StubRepository) Get(ctx context.Context, id int) (Contract, error) {
	c, ok := s.contracts[id]
	if !ok {
		return Contract{}, fmt.Errorf("contract %d: %w", id, ledger.ErrNotFound)
	}
	return c, nil
}

func (s *StubRepository) ListByProject(ctx context.Context, projectID int) ([]Contract, error) {
	var contracts []Contract
	for _, c := range s.contracts {
		if c.ProjectID == projectID {
			contracts = append(contracts, c)
		}
	}
	sort.Slice(contracts, func(i, j int) bool { return contracts[i].ID < contracts[j].ID })
	return contracts, nil
}

func (s *StubRepository) StoreSOVLine(ctx context.Context, line SOVLine) (SOVLine, error) {
	s.nextID++
	line.ID = s.nextID
	s.sovLines[line.ID] = line
	return line, nil
}

func (s *StubRepository) ListSOVLines(ctx context.Context, contractID int) ([]SOVLine, error) {
	var lines []SOVLine
	for _, line := range s.sovLines {
		if line.ContractID == contractID {
			lines = append(lines, line)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines, nil
}

func (s *StubRepository) StoreInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	s.nextID++
	inv.ID = s.nextID
	s.invoices[inv.ID] = inv
	return inv, nil
}

func (s *StubRepository) SetInvoiceApproved(ctx context.Context, id int, approved bool) error {
	inv, ok := s.invoices[id]
	if !ok {
		return fmt.Errorf("invoice %d: %w", id, ledger.ErrNotFound)
	}
	inv.Approved = approved
	s.invoices[id] = inv
	return nil
}

func (s *StubRepository) ListInvoices(ctx context.Context, contractID int) ([]Invoice, error) {
	var invoices []Invoice
	for _, inv := range s.invoices {
		if inv.ContractID == contractID {
			invoices = append(invoices, inv)
		}
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].ID < invoices[j].ID })
	return invoices, nil
}

func (s *StubRepository) StorePayment(ctx context.Context, p Payment) (Payment, error) {
	s.nextID++
	p.ID = s.nextID
	s.payments[p.ID] = p
	return p, nil
}

func (s *StubRepository) ListPayments(ctx context.Context, contractID int) ([]Payment, error) {
	var payments []Payment
	for _, p := range s.payments {
		if p.ContractID == contractID {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID < payments[j].ID })
	return payments, nil
}

func (s *StubRepository) Cleanup() {
	s.contracts = map[int]Contract{}
	s.sovLines = map[int]SOVLine{}
	s.invoices = map[int]Invoice{}
	s.payments = map[int]Payment{}
	s.nextID = 0
}

var _ Repository = (*StubRepository)(nil)
