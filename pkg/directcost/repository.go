package directcost

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/costline/costline/pkg/audit"
	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type TransitionResult struct {
	ProjectID int
	From      ledger.State
	To        ledger.State
}

// RecordFunc writes the audit row inside the transition's transaction.
type RecordFunc func(ctx context.Context, ex audit.Execer, from, to ledger.State) error

type Repository interface {
	Store(ctx context.Context, dc DirectCost) (DirectCost, error)
	Get(ctx context.Context, id int) (DirectCost, error)
	ListByProject(ctx context.Context, projectID int) ([]DirectCost, error)
	ApplyTransition(ctx context.Context, id int, action ledger.Action, record RecordFunc) (TransitionResult, error)
	// LiveRows returns approved direct cost rows matching the key.
	LiveRows(ctx context.Context, key costkey.Key) ([]DirectCost, error)
	ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error)
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const costColumns = `id, uid, project_id, sub_job_id, cost_code_id, cost_type_id, vendor_name,
	description, invoice_number, invoice_date, received_date, amount, status, version`

func (r *RepositoryImpl) Store(ctx context.Context, dc DirectCost) (DirectCost, error) {
	query := `INSERT INTO direct_cost (
					uid, project_id, sub_job_id, sub_job_key, cost_code_id, cost_type_id, vendor_name,
					description, invoice_number, invoice_date, received_date, amount, status, version
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		dc.UID,
		dc.Key.ProjectID,
		nullableInt(dc.Key.SubJobID()),
		dc.Key.SubJobKey,
		dc.Key.CostCodeID,
		dc.Key.CostTypeID,
		dc.VendorName,
		dc.Description,
		dc.InvoiceNumber,
		dc.InvoiceDate.Format("2006-01-02"),
		nullableDate(dc.ReceivedDate),
		dc.Amount.String(),
		string(dc.Status),
		dc.Version,
	).Scan(&dc.ID)
	if err != nil {
		err := fmt.Errorf("could not store direct cost: %w", err)
		log.Error(err)
		return DirectCost{}, err
	}
	return dc, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (DirectCost, error) {
	query := `SELECT ` + costColumns + ` FROM direct_cost WHERE id = $1`

	dc, err := scanCost(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return DirectCost{}, fmt.Errorf("direct cost %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		err := fmt.Errorf("could not query direct cost: %w", err)
		log.Error(err)
		return DirectCost{}, err
	}
	return dc, nil
}

func (r *RepositoryImpl) ListByProject(ctx context.Context, projectID int) ([]DirectCost, error) {
	query := `SELECT ` + costColumns + ` FROM direct_cost WHERE project_id = $1 ORDER BY invoice_date, id`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		err := fmt.Errorf("could not query direct costs: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	return scanCosts(rows)
}

func (r *RepositoryImpl) ApplyTransition(ctx context.Context, id int, action ledger.Action, record RecordFunc) (TransitionResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var projectID, version int
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT project_id, status, version FROM direct_cost WHERE id = $1`, id,
	).Scan(&projectID, &status, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return TransitionResult{}, fmt.Errorf("direct cost %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		err := fmt.Errorf("could not read direct cost state: %w", err)
		log.Error(err)
		return TransitionResult{}, err
	}

	current := ledger.State(status)
	next, err := ledger.Next(ledger.TypeDirectCost, current, action)
	if err != nil {
		return TransitionResult{}, err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE direct_cost SET status = $1, version = $2 WHERE id = $3 AND version = $4`,
		string(next), version+1, id, version,
	)
	if err != nil {
		err := fmt.Errorf("could not update direct cost state: %w", err)
		log.Error(err)
		return TransitionResult{}, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return TransitionResult{}, fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected != 1 {
		return TransitionResult{}, fmt.Errorf("direct cost %d version moved under us: %w", id, ledger.ErrConcurrentModification)
	}

	if record != nil {
		if err := record(ctx, tx, current, next); err != nil {
			return TransitionResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return TransitionResult{}, fmt.Errorf("could not commit transition: %w", err)
	}
	return TransitionResult{ProjectID: projectID, From: current, To: next}, nil
}

func (r *RepositoryImpl) LiveRows(ctx context.Context, key costkey.Key) ([]DirectCost, error) {
	query := `SELECT ` + costColumns + ` FROM direct_cost
			  WHERE project_id = $1 AND sub_job_key = $2 AND cost_code_id = $3 AND cost_type_id = $4
			    AND status = 'approved'`

	rows, err := r.db.QueryContext(ctx, query, key.ProjectID, key.SubJobKey, key.CostCodeID, key.CostTypeID)
	if err != nil {
		err := fmt.Errorf("could not query approved direct costs: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	return scanCosts(rows)
}

func (r *RepositoryImpl) ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	costs, err := r.ListByProject(ctx, filter.ProjectID)
	if err != nil {
		return nil, err
	}

	var entries []ledger.Entry
	for _, dc := range costs {
		entry := ledger.Entry{
			Ledger:      ledger.TypeDirectCost,
			BatchID:     dc.ID,
			LineID:      dc.ID,
			Reference:   dc.VendorName,
			Description: dc.Description,
			Status:      dc.Status,
			Key:         dc.Key,
			Amount:      dc.Amount,
		}
		if filter.Matches(entry) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCost(row rowScanner) (DirectCost, error) {
	var dc DirectCost
	var projectID, costCodeID, costTypeID int
	var subJobID sql.NullInt64
	var invoiceDate, amount, status string
	var receivedDate sql.NullString
	if err := row.Scan(&dc.ID, &dc.UID, &projectID, &subJobID, &costCodeID, &costTypeID, &dc.VendorName,
		&dc.Description, &dc.InvoiceNumber, &invoiceDate, &receivedDate, &amount, &status, &dc.Version); err != nil {
		return DirectCost{}, err
	}
	dc.Key = costkey.Normalize(projectID, nullInt(subJobID), costCodeID, costTypeID)
	dc.Status = ledger.State(status)
	var err error
	if dc.InvoiceDate, err = time.Parse("2006-01-02", invoiceDate); err != nil {
		return DirectCost{}, fmt.Errorf("could not parse invoice date: %w", err)
	}
	if receivedDate.Valid {
		date, err := time.Parse("2006-01-02", receivedDate.String)
		if err != nil {
			return DirectCost{}, fmt.Errorf("could not parse received date: %w", err)
		}
		dc.ReceivedDate = &date
	}
	if dc.Amount, err = decimal.NewFromString(amount); err != nil {
		return DirectCost{}, fmt.Errorf("could not parse amount: %w", err)
	}
	return dc, nil
}

func scanCosts(rows *sql.Rows) ([]DirectCost, error) {
	var costs []DirectCost
	for rows.Next() {
		dc, err := scanCost(rows)
		if err != nil {
			err := fmt.Errorf("could not scan direct cost: %w", err)
			log.Error(err)
			return nil, err
		}
		costs = append(costs, dc)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over direct costs: %w", err)
		log.Error(err)
		return nil, err
	}
	return costs, nil
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func nullableInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	i := int(n.Int64)
	return &i
}
