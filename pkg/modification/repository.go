package modification

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

// TransitionResult carries what the service needs after a committed
// transition: event payload fields and the state movement.
type TransitionResult struct {
	ProjectID int
	From      ledger.State
	To        ledger.State
}

// RecordFunc writes the audit row inside the transition's transaction.
type RecordFunc func(ctx context.Context, ex audit.Execer, from, to ledger.State) error

type Repository interface {
	Store(ctx context.Context, m Modification) (Modification, error)
	Get(ctx context.Context, id int) (Modification, error)
	List(ctx context.Context, projectID int) ([]Modification, error)
	ApplyTransition(ctx context.Context, id int, action ledger.Action, record RecordFunc) (TransitionResult, error)
	LiveLines(ctx context.Context, key costkey.Key) ([]Line, error)
	ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error)
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Store(ctx context.Context, m Modification) (Modification, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Modification{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO budget_modification (
					uid, project_id, number, title, reason, effective_date, status, version
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	err = tx.QueryRowContext(ctx, query,
		m.UID,
		m.ProjectID,
		m.Number,
		m.Title,
		m.Reason,
		m.EffectiveDate.Format("2006-01-02"),
		string(m.Status),
		m.Version,
	).Scan(&m.ID)
	if err != nil {
		err := fmt.Errorf("could not store modification: %w", err)
		log.Error(err)
		return Modification{}, err
	}

	for i := range m.Lines {
		line := &m.Lines[i]
		line.BatchID = m.ID
		lineQuery := `INSERT INTO budget_modification_line (
						modification_id, project_id, sub_job_id, sub_job_key, cost_code_id, cost_type_id, description, amount
					) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
		err = tx.QueryRowContext(ctx, lineQuery,
			m.ID,
			line.Key.ProjectID,
			nullableInt(line.Key.SubJobID()),
			line.Key.SubJobKey,
			line.Key.CostCodeID,
			line.Key.CostTypeID,
			line.Description,
			line.Amount.String(),
		).Scan(&line.ID)
		if err != nil {
			err := fmt.Errorf("could not store modification line: %w", err)
			log.Error(err)
			return Modification{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Modification{}, fmt.Errorf("could not commit modification: %w", err)
	}
	return m, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (Modification, error) {
	query := `SELECT id, uid, project_id, number, title, reason, effective_date, status, version
			  FROM budget_modification WHERE id = $1`

	var m Modification
	var effectiveDate, status string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.UID, &m.ProjectID, &m.Number, &m.Title, &m.Reason, &effectiveDate, &status, &m.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Modification{}, fmt.Errorf("budget modification %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		err := fmt.Errorf("could not query modification: %w", err)
		log.Error(err)
		return Modification{}, err
	}
	m.Status = ledger.State(status)
	if m.EffectiveDate, err = time.Parse("2006-01-02", effectiveDate); err != nil {
		err := fmt.Errorf("could not parse effective date: %w", err)
		log.Error(err)
		return Modification{}, err
	}

	if m.Lines, err = r.linesOf(ctx, m.ID); err != nil {
		return Modification{}, err
	}
	return m, nil
}

func (r *RepositoryImpl) List(ctx context.Context, projectID int) ([]Modification, error) {
	query := `SELECT id, uid, project_id, number, title, reason, effective_date, status, version
			  FROM budget_modification WHERE project_id = $1 ORDER BY number`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		err := fmt.Errorf("could not query modifications: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var batches []Modification
	for rows.Next() {
		var m Modification
		var effectiveDate, status string
		if err := rows.Scan(&m.ID, &m.UID, &m.ProjectID, &m.Number, &m.Title, &m.Reason, &effectiveDate, &status, &m.Version); err != nil {
			err := fmt.Errorf("could not scan modification: %w", err)
			log.Error(err)
			return nil, err
		}
		m.Status = ledger.State(status)
		if m.EffectiveDate, err = time.Parse("2006-01-02", effectiveDate); err != nil {
			err := fmt.Errorf("could not parse effective date: %w", err)
			log.Error(err)
			return nil, err
		}
		if m.Lines, err = r.linesOf(ctx, m.ID); err != nil {
			return nil, err
		}
		batches = append(batches, m)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over modifications: %w", err)
		log.Error(err)
		return nil, err
	}
	return batches, nil
}

// ApplyTransition validates and applies an operator action as one atomic
// unit: read state, consult the transition table, bump the optimistic
// version, write the audit row, commit. A version mismatch after a clean read
// means a concurrent writer won.
func (r *RepositoryImpl) ApplyTransition(ctx context.Context, id int, action ledger.Action, record RecordFunc) (TransitionResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var projectID, version int
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT project_id, status, version FROM budget_modification WHERE id = $1`, id,
	).Scan(&projectID, &status, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return TransitionResult{}, fmt.Errorf("budget modification %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		err := fmt.Errorf("could not read modification state: %w", err)
		log.Error(err)
		return TransitionResult{}, err
	}

	current := ledger.State(status)
	next, err := ledger.Next(ledger.TypeBudgetModification, current, action)
	if err != nil {
		return TransitionResult{}, err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE budget_modification SET status = $1, version = $2 WHERE id = $3 AND version = $4`,
		string(next), version+1, id, version,
	)
	if err != nil {
		err := fmt.Errorf("could not update modification state: %w", err)
		log.Error(err)
		return TransitionResult{}, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("could not get rows affected: %w", err)
		log.Error(err)
		return TransitionResult{}, err
	}
	if rowsAffected != 1 {
		return TransitionResult{}, fmt.Errorf("budget modification %d version moved under us: %w", id, ledger.ErrConcurrentModification)
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

// LiveLines returns the lines of approved modifications matching the key.
func (r *RepositoryImpl) LiveLines(ctx context.Context, key costkey.Key) ([]Line, error) {
	query := `SELECT line.id, line.modification_id, line.project_id, line.sub_job_id, line.cost_code_id,
					 line.cost_type_id, line.description, line.amount
			  FROM budget_modification_line line
			  JOIN budget_modification batch ON batch.id = line.modification_id
			  WHERE line.project_id = $1 AND line.sub_job_key = $2 AND line.cost_code_id = $3
			    AND line.cost_type_id = $4 AND batch.status = 'approved'`

	rows, err := r.db.QueryContext(ctx, query, key.ProjectID, key.SubJobKey, key.CostCodeID, key.CostTypeID)
	if err != nil {
		err := fmt.Errorf("could not query approved modification lines: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	return scanLines(rows)
}

func (r *RepositoryImpl) ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	query := `SELECT line.id, line.modification_id, batch.number, line.project_id, line.sub_job_id,
					 line.cost_code_id, line.cost_type_id, line.description, line.amount, batch.status
			  FROM budget_modification_line line
			  JOIN budget_modification batch ON batch.id = line.modification_id
			  WHERE line.project_id = $1`

	rows, err := r.db.QueryContext(ctx, query, filter.ProjectID)
	if err != nil {
		err := fmt.Errorf("could not query modification entries: %w", err)
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
			err := fmt.Errorf("could not scan modification entry: %w", err)
			log.Error(err)
			return nil, err
		}
		entry.Ledger = ledger.TypeBudgetModification
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
		err := fmt.Errorf("error iterating over modification entries: %w", err)
		log.Error(err)
		return nil, err
	}
	return entries, nil
}

func (r *RepositoryImpl) linesOf(ctx context.Context, batchID int) ([]Line, error) {
	query := `SELECT id, modification_id, project_id, sub_job_id, cost_code_id, cost_type_id, description, amount
			  FROM budget_modification_line WHERE modification_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, batchID)
	if err != nil {
		err := fmt.Errorf("could not query modification lines: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	return scanLines(rows)
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
			err := fmt.Errorf("could not scan modification line: %w", err)
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
		err := fmt.Errorf("error iterating over modification lines: %w", err)
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
