package commitment

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
	Store(ctx context.Context, c Commitment) (Commitment, error)
	Get(ctx context.Context, id int) (Commitment, error)
	ListByProject(ctx context.Context, projectID int) ([]Commitment, error)
	ApplyTransition(ctx context.Context, id int, action ledger.Action, record RecordFunc) (TransitionResult, error)
	// LiveLines returns lines of executed or approved commitments matching
	// the key. Committed cost also includes approved change order lines,
	// which the change order repository serves.
	LiveLines(ctx context.Context, key costkey.Key) ([]Line, error)
	ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error)
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const commitmentColumns = `id, uid, project_id, number, title, vendor_name, contract_amount,
	retention_percentage, executed_date, status, version`

func (r *RepositoryImpl) Store(ctx context.Context, c Commitment) (Commitment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Commitment{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO commitment (
					uid, project_id, number, title, vendor_name, contract_amount,
					retention_percentage, executed_date, status, version
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`

	err = tx.QueryRowContext(ctx, query,
		c.UID,
		c.ProjectID,
		c.Number,
		c.Title,
		c.VendorName,
		c.ContractAmount.String(),
		c.RetentionPercentage.String(),
		nullableDate(c.ExecutedDate),
		string(c.Status),
		c.Version,
	).Scan(&c.ID)
	if err != nil {
		err := fmt.Errorf("could not store commitment: %w", err)
		log.Error(err)
		return Commitment{}, err
	}

	for i := range c.Lines {
		line := &c.Lines[i]
		line.CommitmentID = c.ID
		lineQuery := `INSERT INTO commitment_line (
						commitment_id, project_id, sub_job_id, sub_job_key, cost_code_id, cost_type_id, description, amount
					) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
		err = tx.QueryRowContext(ctx, lineQuery,
			c.ID,
			line.Key.ProjectID,
			nullableInt(line.Key.SubJobID()),
			line.Key.SubJobKey,
			line.Key.CostCodeID,
			line.Key.CostTypeID,
			line.Description,
			line.Amount.String(),
		).Scan(&line.ID)
		if err != nil {
			err := fmt.Errorf("could not store commitment line: %w", err)
			log.Error(err)
			return Commitment{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Commitment{}, fmt.Errorf("could not commit commitment: %w", err)
	}
	return c, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (Commitment, error) {
	query := `SELECT ` + commitmentColumns + ` FROM commitment WHERE id = $1`

	c, err := scanCommitment(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Commitment{}, fmt.Errorf("commitment %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		err := fmt.Errorf("could not query commitment: %w", err)
		log.Error(err)
		return Commitment{}, err
	}

	if c.Lines, err = r.linesOf(ctx, c.ID); err != nil {
		return Commitment{}, err
	}
	return c, nil
}

func (r *RepositoryImpl) ListByProject(ctx context.Context, projectID int) ([]Commitment, error) {
	query := `SELECT ` + commitmentColumns + ` FROM commitment WHERE project_id = $1 ORDER BY number`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		err := fmt.Errorf("could not query commitments: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var commitments []Commitment
	for rows.Next() {
		c, err := scanCommitment(rows)
		if err != nil {
			err := fmt.Errorf("could not scan commitment: %w", err)
			log.Error(err)
			return nil, err
		}
		if c.Lines, err = r.linesOf(ctx, c.ID); err != nil {
			return nil, err
		}
		commitments = append(commitments, c)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over commitments: %w", err)
		log.Error(err)
		return nil, err
	}
	return commitments, nil
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
		`SELECT project_id, status, version FROM commitment WHERE id = $1`, id,
	).Scan(&projectID, &status, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return TransitionResult{}, fmt.Errorf("commitment %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		err := fmt.Errorf("could not read commitment state: %w", err)
		log.Error(err)
		return TransitionResult{}, err
	}

	current := ledger.State(status)
	next, err := ledger.Next(ledger.TypeCommitment, current, action)
	if err != nil {
		return TransitionResult{}, err
	}

	// Executing stamps the execution date alongside the state change.
	var result sql.Result
	if next == ledger.StateExecuted {
		result, err = tx.ExecContext(ctx,
			`UPDATE commitment SET status = $1, version = $2, executed_date = $3 WHERE id = $4 AND version = $5`,
			string(next), version+1, time.Now().UTC().Format("2006-01-02"), id, version,
		)
	} else {
		result, err = tx.ExecContext(ctx,
			`UPDATE commitment SET status = $1, version = $2 WHERE id = $3 AND version = $4`,
			string(next), version+1, id, version,
		)
	}
	if err != nil {
		err := fmt.Errorf("could not update commitment state: %w", err)
		log.Error(err)
		return TransitionResult{}, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return TransitionResult{}, fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected != 1 {
		return TransitionResult{}, fmt.Errorf("commitment %d version moved under us: %w", id, ledger.ErrConcurrentModification)
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

func (r *RepositoryImpl) LiveLines(ctx context.Context, key costkey.Key) ([]Line, error) {
	query := `SELECT line.id, line.commitment_id, line.project_id, line.sub_job_id, line.cost_code_id,
					 line.cost_type_id, line.description, line.amount
			  FROM commitment_line line
			  JOIN commitment c ON c.id = line.commitment_id
			  WHERE line.project_id = $1 AND line.sub_job_key = $2 AND line.cost_code_id = $3
			    AND line.cost_type_id = $4 AND c.status IN ('executed', 'approved')`

	rows, err := r.db.QueryContext(ctx, query, key.ProjectID, key.SubJobKey, key.CostCodeID, key.CostTypeID)
	if err != nil {
		err := fmt.Errorf("could not query live commitment lines: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	return scanLines(rows, "commitment line")
}

func (r *RepositoryImpl) ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	query := `SELECT line.id, line.commitment_id, c.vendor_name, line.project_id, line.sub_job_id,
					 line.cost_code_id, line.cost_type_id, line.description, line.amount, c.status
			  FROM commitment_line line
			  JOIN commitment c ON c.id = line.commitment_id
			  WHERE line.project_id = $1`

	rows, err := r.db.QueryContext(ctx, query, filter.ProjectID)
	if err != nil {
		err := fmt.Errorf("could not query commitment entries: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows, ledger.TypeCommitment, filter)
}

func (r *RepositoryImpl) linesOf(ctx context.Context, commitmentID int) ([]Line, error) {
	query := `SELECT id, commitment_id, project_id, sub_job_id, cost_code_id, cost_type_id, description, amount
			  FROM commitment_line WHERE commitment_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, commitmentID)
	if err != nil {
		err := fmt.Errorf("could not query commitment lines: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	return scanLines(rows, "commitment line")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCommitment(row rowScanner) (Commitment, error) {
	var c Commitment
	var contractAmount, retention, status string
	var executedDate sql.NullString
	if err := row.Scan(&c.ID, &c.UID, &c.ProjectID, &c.Number, &c.Title, &c.VendorName,
		&contractAmount, &retention, &executedDate, &status, &c.Version); err != nil {
		return Commitment{}, err
	}
	c.Status = ledger.State(status)
	var err error
	if c.ContractAmount, err = decimal.NewFromString(contractAmount); err != nil {
		return Commitment{}, fmt.Errorf("could not parse contract amount: %w", err)
	}
	if c.RetentionPercentage, err = decimal.NewFromString(retention); err != nil {
		return Commitment{}, fmt.Errorf("could not parse retention percentage: %w", err)
	}
	if executedDate.Valid {
		date, err := time.Parse("2006-01-02", executedDate.String)
		if err != nil {
			return Commitment{}, fmt.Errorf("could not parse executed date: %w", err)
		}
		c.ExecutedDate = &date
	}
	return c, nil
}

// scanLines is shared between commitment lines and change order lines; the
// two tables carry identical line columns.
func scanLines(rows *sql.Rows, kind string) ([]Line, error) {
	var lines []Line
	for rows.Next() {
		var line Line
		var projectID, costCodeID, costTypeID int
		var subJobID sql.NullInt64
		var amount string
		if err := rows.Scan(&line.ID, &line.CommitmentID, &projectID, &subJobID, &costCodeID, &costTypeID,
			&line.Description, &amount); err != nil {
			err := fmt.Errorf("could not scan %s: %w", kind, err)
			log.Error(err)
			return nil, err
		}
		line.Key = costkey.Normalize(projectID, nullInt(subJobID), costCodeID, costTypeID)
		var err error
		if line.Amount, err = decimal.NewFromString(amount); err != nil {
			err := fmt.Errorf("could not parse %s amount: %w", kind, err)
			log.Error(err)
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over %ss: %w", kind, err)
		log.Error(err)
		return nil, err
	}
	return lines, nil
}

func collectEntries(rows *sql.Rows, ledgerType ledger.Type, filter ledger.Filter) ([]ledger.Entry, error) {
	var entries []ledger.Entry
	for rows.Next() {
		var entry ledger.Entry
		var projectID, costCodeID, costTypeID int
		var subJobID sql.NullInt64
		var amount, status string
		if err := rows.Scan(&entry.LineID, &entry.BatchID, &entry.Reference, &projectID, &subJobID,
			&costCodeID, &costTypeID, &entry.Description, &amount, &status); err != nil {
			err := fmt.Errorf("could not scan %s entry: %w", ledgerType, err)
			log.Error(err)
			return nil, err
		}
		entry.Ledger = ledgerType
		entry.Status = ledger.State(status)
		entry.Key = costkey.Normalize(projectID, nullInt(subJobID), costCodeID, costTypeID)
		var err error
		if entry.Amount, err = decimal.NewFromString(amount); err != nil {
			err := fmt.Errorf("could not parse %s entry amount: %w", ledgerType, err)
			log.Error(err)
			return nil, err
		}
		if filter.Matches(entry) {
			entries = append(entries, entry)
		}
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over %s entries: %w", ledgerType, err)
		log.Error(err)
		return nil, err
	}
	return entries, nil
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
