package changeorder

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

// TransitionResult carries the fields the service publishes after a
// committed transition.
type TransitionResult struct {
	ProjectID  int
	ContractID int
	From       ledger.State
	To         ledger.State
}

// RecordFunc writes the audit row inside the transition's transaction.
type RecordFunc func(ctx context.Context, ex audit.Execer, from, to ledger.State) error

type Repository interface {
	Store(ctx context.Context, co ChangeOrder) (ChangeOrder, error)
	Get(ctx context.Context, id int) (ChangeOrder, error)
	ListByContract(ctx context.Context, contractID int) ([]ChangeOrder, error)
	ApplyTransition(ctx context.Context, id int, action ledger.Action, record RecordFunc) (TransitionResult, error)
	LiveLines(ctx context.Context, key costkey.Key) ([]Line, error)
	ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error)
	// TotalsByContract sums line amounts of the contract's change orders in
	// the given state. Used by the contract summary.
	TotalsByContract(ctx context.Context, contractID int, status ledger.State) (decimal.Decimal, error)
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const batchColumns = `id, uid, contract_id, project_id, number, title, reason, effective_date, status, version`

func (r *RepositoryImpl) Store(ctx context.Context, co ChangeOrder) (ChangeOrder, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return ChangeOrder{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO contract_change_order (
					uid, contract_id, project_id, number, title, reason, effective_date, status, version
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`

	err = tx.QueryRowContext(ctx, query,
		co.UID,
		co.ContractID,
		co.ProjectID,
		co.Number,
		co.Title,
		co.Reason,
		co.EffectiveDate.Format("2006-01-02"),
		string(co.Status),
		co.Version,
	).Scan(&co.ID)
	if err != nil {
		err := fmt.Errorf("could not store change order: %w", err)
		log.Error(err)
		return ChangeOrder{}, err
	}

	for i := range co.Lines {
		line := &co.Lines[i]
		line.BatchID = co.ID
		lineQuery := `INSERT INTO contract_change_order_line (
						change_order_id, project_id, sub_job_id, sub_job_key, cost_code_id, cost_type_id, description, amount
					) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
		err = tx.QueryRowContext(ctx, lineQuery,
			co.ID,
			line.Key.ProjectID,
			nullableInt(line.Key.SubJobID()),
			line.Key.SubJobKey,
			line.Key.CostCodeID,
			line.Key.CostTypeID,
			line.Description,
			line.Amount.String(),
		).Scan(&line.ID)
		if err != nil {
			err := fmt.Errorf("could not store change order line: %w", err)
			log.Error(err)
			return ChangeOrder{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return ChangeOrder{}, fmt.Errorf("could not commit change order: %w", err)
	}
	return co, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (ChangeOrder, error) {
	query := `SELECT ` + batchColumns + ` FROM contract_change_order WHERE id = $1`

	co, err := scanBatch(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ChangeOrder{}, fmt.Errorf("change order %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		err := fmt.Errorf("could not query change order: %w", err)
		log.Error(err)
		return ChangeOrder{}, err
	}

	if co.Lines, err = r.linesOf(ctx, co.ID); err != nil {
		return ChangeOrder{}, err
	}
	return co, nil
}

func (r *RepositoryImpl) ListByContract(ctx context.Context, contractID int) ([]ChangeOrder, error) {
	query := `SELECT ` + batchColumns + ` FROM contract_change_order WHERE contract_id = $1 ORDER BY number`

	rows, err := r.db.QueryContext(ctx, query, contractID)
	if err != nil {
		err := fmt.Errorf("could not query change orders: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var batches []ChangeOrder
	for rows.Next() {
		co, err := scanBatch(rows)
		if err != nil {
			err := fmt.Errorf("could not scan change order: %w", err)
			log.Error(err)
			return nil, err
		}
		if co.Lines, err = r.linesOf(ctx, co.ID); err != nil {
			return nil, err
		}
		batches = append(batches, co)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over change orders: %w", err)
		log.Error(err)
		return nil, err
	}
	return batches, nil
}

func (r *RepositoryImpl) ApplyTransition(ctx context.Context, id int, action ledger.Action, record RecordFunc) (TransitionResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var projectID, contractID, version int
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT project_id, contract_id, status, version FROM contract_change_order WHERE id = $1`, id,
	).Scan(&projectID, &contractID, &status, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return TransitionResult{}, fmt.Errorf("change order %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		err := fmt.Errorf("could not read change order state: %w", err)
		log.Error(err)
		return TransitionResult{}, err
	}

	current := ledger.State(status)
	next, err := ledger.Next(ledger.TypeChangeOrder, current, action)
	if err != nil {
		return TransitionResult{}, err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE contract_change_order SET status = $1, version = $2 WHERE id = $3 AND version = $4`,
		string(next), version+1, id, version,
	)
	if err != nil {
		err := fmt.Errorf("could not update change order state: %w", err)
		log.Error(err)
		return TransitionResult{}, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return TransitionResult{}, fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected != 1 {
		return TransitionResult{}, fmt.Errorf("change order %d version moved under us: %w", id, ledger.ErrConcurrentModification)
	}

	if record != nil {
		if err := record(ctx, tx, current, next); err != nil {
			return TransitionResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return TransitionResult{}, fmt.Errorf("could not commit transition: %w", err)
	}
	return TransitionResult{ProjectID: projectID, ContractID: contractID, From: current, To: next}, nil
}

// LiveLines returns the lines of approved change orders matching the key.
func (r *RepositoryImpl) LiveLines(ctx context.Context, key costkey.Key) ([]Line, error) {
	query := `SELECT line.id, line.change_order_id, line.project_id, line.sub_job_id, line.cost_code_id,
					 line.cost_type_id, line.description, line.amount
			  FROM contract_change_order_line line
			  JOIN contract_change_order batch ON batch.id = line.change_order_id
			  WHERE line.project_id = $1 AND line.sub_job_key = $2 AND line.cost_code_id = $3
			    AND line.cost_type_id = $4 AND batch.status = 'approved'`

	rows, err := r.db.QueryContext(ctx, query, key.ProjectID, key.SubJobKey, key.CostCodeID, key.CostTypeID)
	if err != nil {
		err := fmt.Errorf("could not query approved change order lines: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	return scanLines(rows)
}

func (r *RepositoryImpl) ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	query := `SELECT line.id, line.change_order_id, batch.number, line.project_id, line.sub_job_id,
					 line.cost_code_id, line.cost_type_id, line.description, line.amount, batch.status
			  FROM contract_change_order_line line
			  JOIN contract_change_order batch ON batch.id = line.change_order_id
			  WHERE line.project_id = $1`

	rows, err := r.db.QueryContext(ctx, query, filter.ProjectID)
	if err != nil {
		err := fmt.Errorf("could not query change order entries: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var entry ledger.Entry
		var projectID, costCodeID, costTypeID int
		var subJobID sql.NullInt64
		var amount, status string
		if err := rows.Scan(&entry.LineID, &entry.BatchID, &entry.Reference, &projectID, &subJobID,
			&costCodeID, &costTypeID, &entry.Description, &amount, &status); err != nil {
			err := fmt.Errorf("could not scan change order entry: %w", err)
			log.Error(err)
			return nil, err
		}
		entry.Ledger = ledger.TypeChangeOrder
		entry.Status = ledger.State(status)
		entry.Key = costkey.Normalize(projectID, nullInt(subJobID), costCodeID, costTypeID)
		if entry.Amount, err = decimal.NewFromString(amount); err != nil {
			err := fmt.Errorf("could not parse entry amount: %w", err)
			log.Error(err)
			return nil, err
		}
		if filter.Matches(entry) {
			entries = append(entries, entry)
		}
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over change order entries: %w", err)
		log.Error(err)
		return nil, err
	}
	return entries, nil
}

func (r *RepositoryImpl) TotalsByContract(ctx context.Context, contractID int, status ledger.State) (decimal.Decimal, error) {
	query := `SELECT line.amount
			  FROM contract_change_order_line line
			  JOIN contract_change_order batch ON batch.id = line.change_order_id
			  WHERE batch.contract_id = $1 AND batch.status = $2`

	rows, err := r.db.QueryContext(ctx, query, contractID, string(status))
	if err != nil {
		err := fmt.Errorf("could not query change order totals: %w", err)
		log.Error(err)
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			err := fmt.Errorf("could not scan change order amount: %w", err)
			log.Error(err)
			return decimal.Zero, err
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			err := fmt.Errorf("could not parse change order amount: %w", err)
			log.Error(err)
			return decimal.Zero, err
		}
		total = total.Add(value)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over change order totals: %w", err)
		log.Error(err)
		return decimal.Zero, err
	}
	return total, nil
}

func (r *RepositoryImpl) linesOf(ctx context.Context, batchID int) ([]Line, error) {
	query := `SELECT id, change_order_id, project_id, sub_job_id, cost_code_id, cost_type_id, description, amount
			  FROM contract_change_order_line WHERE change_order_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, batchID)
	if err != nil {
		err := fmt.Errorf("could not query change order lines: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	return scanLines(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBatch(row rowScanner) (ChangeOrder, error) {
	var co ChangeOrder
	var effectiveDate, status string
	if err := row.Scan(&co.ID, &co.UID, &co.ContractID, &co.ProjectID, &co.Number, &co.Title,
		&co.Reason, &effectiveDate, &status, &co.Version); err != nil {
		return ChangeOrder{}, err
	}
	co.Status = ledger.State(status)
	var err error
	if co.EffectiveDate, err = time.Parse("2006-01-02", effectiveDate); err != nil {
		return ChangeOrder{}, fmt.Errorf("could not parse effective date: %w", err)
	}
	return co, nil
}

func scanLines(rows *sql.Rows) ([]Line, error) {
	var lines []Line
	for rows.Next() {
		var line Line
		var projectID, costCodeID, costTypeID int
		var subJobID sql.NullInt64
		var amount string
		if err := rows.Scan(&line.ID, &line.BatchID, &projectID, &subJobID, &costCodeID, &costTypeID,
			&line.Description, &amount); err != nil {
			err := fmt.Errorf("could not scan change order line: %w", err)
			log.Error(err)
			return nil, err
		}
		line.Key = costkey.Normalize(projectID, nullInt(subJobID), costCodeID, costTypeID)
		var err error
		if line.Amount, err = decimal.NewFromString(amount); err != nil {
			err := fmt.Errorf("could not parse line amount: %w", err)
			log.Error(err)
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over change order lines: %w", err)
		log.Error(err)
		return nil, err
	}
	return lines, nil
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
