package event_bus

const (
	// LedgerTransitionedType fires after a batch state transition committed.
	LedgerTransitionedType EventType = "ledger.transitioned"
	// ContractLedgerChangedType fires after an SOV, invoice, or payment write.
	ContractLedgerChangedType EventType = "contract.ledger_changed"
	// ForecastChangedType fires after a forecast method or amount overwrite.
	ForecastChangedType EventType = "forecast.changed"
)

// LedgerTransitioned is published after a ledger batch changed state. Field
// types are deliberately plain so subscribers don't need the ledger package.
type LedgerTransitioned struct {
	Ledger     string
	BatchID    int
	ProjectID  int
	ContractID int // 0 when the ledger is not contract-scoped
	Action     string
	FromState  string
	ToState    string
}

// ContractLedgerChanged is published when a contract's SOV lines, invoices, or
// payments change outside the transition path.
type ContractLedgerChanged struct {
	ContractID int
}

// ForecastChanged is published when a budget line's forecast settings were
// overwritten.
type ForecastChanged struct {
	BudgetLineID int
	ProjectID    int
}
