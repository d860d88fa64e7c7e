package contract

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/costline/costline/pkg/ledger"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Store(ctx context.Context, c Contract) (Contract, error)
	Get(ctx context.Context, id int) (Contract, error)
	ListByProject(ctx context.Context, projectID int) ([]Contract, error)

	StoreSOVLine(ctx context.Context, line SOVLine) (SOVLine, error)
	ListSOVLines(ctx context.Context, contractID int) ([]SOVLine, error)

	StoreInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	SetInvoiceApproved(ctx context.Context, id int, approved bool) error
	ListInvoices(ctx context.Context, contractID int) ([]Invoice, error)

	StorePayment(ctx context.Context, p Payment) (Payment, error)
	ListPayments(ctx context.Context, contractID int) ([]Payment, error)
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Store(ctx context.Context, c Contract) (Contract, error) {
	query := `INSERT INTO contract (uid, project_id, number, title, client_name, start_date)
			  VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		c.UID, c.ProjectID, c.Number, c.Title, c.ClientName, nullableDate(c.StartDate),
	).Scan(&c.ID)
	if err != nil {
		err := fmt.Errorf("could not store contract: %w", err)
		log.Error(err)
		return Contract{}, err
	}
	return c, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (Contract, error) {
	query := `SELECT id, uid, project_id, number, title, client_name, start_date FROM contract WHERE id = $1`

	c, err := scanContract(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Contract{}, fmt.Errorf("contract %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		err := fmt.Errorf("could not query contract: %w", err)
		log.Error(err)
		return Contract{}, err
	}
	return c, nil
}

func (r *RepositoryImpl) ListByProject(ctx context.Context, projectID int) ([]Contract, error) {
	query := `SELECT id, uid, project_id, number, title, client_name, start_date FROM contract
			  WHERE project_id = $1 ORDER BY number`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		err := fmt.Errorf("could not query contracts: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var contracts []Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			err := fmt.Errorf("could not scan contract: %w", err)
			log.Error(err)
			return nil, err
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over contracts: %w", err)
		log.Error(err)
		return nil, err
	}
	return contracts, nil
}

func (r *RepositoryImpl) StoreSOVLine(ctx context.Context, line SOVLine) (SOVLine, error) {
	query := `INSERT INTO sov_line (contract_id, item_number, description, amount)
			  VALUES ($1, $2, $3, $4) RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		line.ContractID, line.ItemNumber, line.Description, line.Amount.String(),
	).Scan(&line.ID)
	if err != nil {
		err := fmt.Errorf("could not store SOV line: %w", err)
		log.Error(err)
		return SOVLine{}, err
	}
	return line, nil
}

func (r *RepositoryImpl) ListSOVLines(ctx context.Context, contractID int) ([]SOVLine, error) {
	query := `SELECT id, contract_id, item_number, description, amount FROM sov_line
			  WHERE contract_id = $1 ORDER BY item_number`

	rows, err := r.db.QueryContext(ctx, query, contractID)
	if err != nil {
		err := fmt.Errorf("could not query SOV lines: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var lines []SOVLine
	for rows.Next() {
		var line SOVLine
		var amount string
		if err := rows.Scan(&line.ID, &line.ContractID, &line.ItemNumber, &line.Description, &amount); err != nil {
			err := fmt.Errorf("could not scan SOV line: %w", err)
			log.Error(err)
			return nil, err
		}
		if line.Amount, err = decimal.NewFromString(amount); err != nil {
			err := fmt.Errorf("could not parse SOV amount: %w", err)
			log.Error(err)
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over SOV lines: %w", err)
		log.Error(err)
		return nil, err
	}
	return lines, nil
}

func (r *RepositoryImpl) StoreInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	query := `INSERT INTO invoice (contract_id, number, amount, approved, invoice_date)
			  VALUES ($1, $2, $3, $4, $5) RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		inv.ContractID, inv.Number, inv.Amount.String(), boolToInt(inv.Approved),
		inv.InvoiceDate.Format("2006-01-02"),
	).Scan(&inv.ID)
	if err != nil {
		err := fmt.Errorf("could not store invoice: %w", err)
		log.Error(err)
		return Invoice{}, err
	}
	return inv, nil
}

func (r *RepositoryImpl) SetInvoiceApproved(ctx context.Context, id int, approved bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE invoice SET approved = $1 WHERE id = $2`, boolToInt(approved), id)
	if err != nil {
		err := fmt.Errorf("could not update invoice: %w", err)
		log.Error(err)
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("invoice %d: %w", id, ledger.ErrNotFound)
	}
	return nil
}

func (r *RepositoryImpl) ListInvoices(ctx context.Context, contractID int) ([]Invoice, error) {
	query := `SELECT id, contract_id, number, amount, approved, invoice_date FROM invoice
			  WHERE contract_id = $1 ORDER BY invoice_date, id`

	rows, err := r.db.QueryContext(ctx, query, contractID)
	if err != nil {
		err := fmt.Errorf("could not query invoices: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		var amount, invoiceDate string
		var approved int
		if err := rows.Scan(&inv.ID, &inv.ContractID, &inv.Number, &amount, &approved, &invoiceDate); err != nil {
			err := fmt.Errorf("could not scan invoice: %w", err)
			log.Error(err)
			return nil, err
		}
		inv.Approved = approved != 0
		if inv.Amount, err = decimal.NewFromString(amount); err != nil {
			err := fmt.Errorf("could not parse invoice amount: %w", err)
			log.Error(err)
			return nil, err
		}
		if inv.InvoiceDate, err = time.Parse("2006-01-02", invoiceDate); err != nil {
			err := fmt.Errorf("could not parse invoice date: %w", err)
			log.Error(err)
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over invoices: %w", err)
		log.Error(err)
		return nil, err
	}
	return invoices, nil
}

func (r *RepositoryImpl) StorePayment(ctx context.Context, p Payment) (Payment, error) {
	query := `INSERT INTO payment (contract_id, reference, amount, received_at)
			  VALUES ($1, $2, $3, $4) RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		p.ContractID, p.Reference, p.Amount.String(), p.ReceivedAt.Format("2006-01-02"),
	).Scan(&p.ID)
	if err != nil {
		err := fmt.Errorf("could not store payment: %w", err)
		log.Error(err)
		return Payment{}, err
	}
	return p, nil
}

func (r *RepositoryImpl) ListPayments(ctx context.Context, contractID int) ([]Payment, error) {
	query := `SELECT id, contract_id, reference, amount, received_at FROM payment
			  WHERE contract_id = $1 ORDER BY received_at, id`

	rows, err := r.db.QueryContext(ctx, query, contractID)
	if err != nil {
		err := fmt.Errorf("could not query payments: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		var amount, receivedAt string
		if err := rows.Scan(&p.ID, &p.ContractID, &p.Reference, &amount, &receivedAt); err != nil {
			err := fmt.Errorf("could not scan payment: %w", err)
			log.Error(err)
			return nil, err
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			err := fmt.Errorf("could not parse payment amount: %w", err)
			log.Error(err)
			return nil, err
		}
		if p.ReceivedAt, err = time.Parse("2006-01-02", receivedAt); err != nil {
			err := fmt.Errorf("could not parse payment date: %w", err)
			log.Error(err)
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over payments: %w", err)
		log.Error(err)
		return nil, err
	}
	return payments, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (Contract, error) {
	var c Contract
	var startDate sql.NullString
	if err := row.Scan(&c.ID, &c.UID, &c.ProjectID, &c.Number, &c.Title, &c.ClientName, &startDate); err != nil {
		return Contract{}, err
	}
	if startDate.Valid {
		date, err := time.Parse("2006-01-02", startDate.String)
		if err != nil {
			return Contract{}, fmt.Errorf("could not parse start date: %w", err)
		}
		c.StartDate = &date
	}
	return c, nil
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
