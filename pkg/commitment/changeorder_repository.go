package commitment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
	log "github.com/sirupsen/logrus"
)

type ChangeOrderRepository interface {
	Store(ctx context.Context, co ChangeOrder) (ChangeOrder, error)
	Get(ctx context.Context, id int) (ChangeOrder, error)
	ListByCommitment(ctx context.Context, commitmentID int) ([]ChangeOrder, error)
	ApplyTransition(ctx context.Context, id int, action ledger.Action, record RecordFunc) (TransitionResult, error)
	// LiveLines returns approved change order lines matching the key.
	LiveLines(ctx context.Context, key costkey.Key) ([]Line, error)
	ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error)
}

type ChangeOrderRepositoryImpl struct {
	db *sql.DB
}

func NewChangeOrderRepository(db *sql.DB) *ChangeOrderRepositoryImpl {
	return &ChangeOrderRepositoryImpl{db: db}
}

func (r *ChangeOrderRepositoryImpl) Store(ctx context.Context, co ChangeOrder) (ChangeOrder, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return ChangeOrder{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO commitment_change_order (
					uid, commitment_id, project_id, number, title, status, version
				) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	err = tx.QueryRowContext(ctx, query,
		co.UID,
		co.CommitmentID,
		co.ProjectID,
		co.Number,
		co.Title,
		string(co.Status),
		co.Version,
	).Scan(&co.ID)
	if err != nil {
		err := fmt.Errorf("could not store commitment change order: %w", err)
		log.Error(err)
		return ChangeOrder{}, err
	}

	for i := range co.Lines {
		line := &co.Lines[i]
		line.CommitmentID = co.CommitmentID
		lineQuery := `INSERT INTO commitment_change_order_line (
						change_order_id, commitment_id, project_id, sub_job_id, sub_job_key, cost_code_id, cost_type_id, description, amount
					) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
		err = tx.QueryRowContext(ctx, lineQuery,
			co.ID,
			co.CommitmentID,
			line.Key.ProjectID,
			nullableInt(line.Key.SubJobID()),
			line.Key.SubJobKey,
			line.Key.CostCodeID,
			line.Key.CostTypeID,
			line.Description,
			line.Amount.String(),
		).Scan(&line.ID)
		if err != nil {
			err := fmt.Errorf("could not store commitment change order line: %w", err)
			log.Error(err)
			return ChangeOrder{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return ChangeOrder{}, fmt.Errorf("could not commit commitment change order: %w", err)
	}
	return co, nil
}

func (r *ChangeOrderRepositoryImpl) Get(ctx context.Context, id int) (ChangeOrder, error) {
	query := `SELECT id, uid, commitment_id, project_id, number, title, status, version
			  FROM commitment_change_order WHERE id = $1`

	co, err := scanChangeOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ChangeOrder{}, fmt.Errorf("commitment change order %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		err := fmt.Errorf("could not query commitment change order: %w", err)
		log.Error(err)
		return ChangeOrder{}, err
	}

	if co.Lines, err = r.linesOf(ctx, co.ID); err != nil {
		return ChangeOrder{}, err
	}
	return co, nil
}

func (r *ChangeOrderRepositoryImpl) ListByCommitment(ctx context.Context, commitmentID int) ([]ChangeOrder, error) {
	query := `SELECT id, uid, commitment_id, project_id, number, title, status, version
			  FROM commitment_change_order WHERE commitment_id = $1 ORDER BY number`

	rows, err := r.db.QueryContext(ctx, query, commitmentID)
	if err != nil {
		err := fmt.Errorf("could not query commitment change orders: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var batches []ChangeOrder
	for rows.Next() {
		co, err := scanChangeOrder(rows)
		if err != nil {
			err := fmt.Errorf("could not scan commitment change order: %w", err)
			log.Error(err)
			return nil, err
		}
		if co.Lines, err = r.linesOf(ctx, co.ID); err != nil {
			return nil, err
		}
		batches = append(batches, co)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over commitment change orders: %w", err)
		log.Error(err)
		return nil, err
	}
	return batches, nil
}

func (r *ChangeOrderRepositoryImpl) ApplyTransition(ctx context.Context, id int, action ledger.Action, record RecordFunc) (TransitionResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var projectID, version int
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT project_id, status, version FROM commitment_change_order WHERE id = $1`, id,
	).Scan(&projectID, &status, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return TransitionResult{}, fmt.Errorf("commitment change order %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		err := fmt.Errorf("could not read commitment change order state: %w", err)
		log.Error(err)
		return TransitionResult{}, err
	}

	current := ledger.State(status)
	next, err := ledger.Next(ledger.TypeCommitmentChangeOrder, current, action)
	if err != nil {
		return TransitionResult{}, err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE commitment_change_order SET status = $1, version = $2 WHERE id = $3 AND version = $4`,
		string(next), version+1, id, version,
	)
	if err != nil {
		err := fmt.Errorf("could not update commitment change order state: %w", err)
		log.Error(err)
		return TransitionResult{}, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return TransitionResult{}, fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected != 1 {
		return TransitionResult{}, fmt.Errorf("commitment change order %d version moved under us: %w", id, ledger.ErrConcurrentModification)
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

func (r *ChangeOrderRepositoryImpl) LiveLines(ctx context.Context, key costkey.Key) ([]Line, error) {
	query := `SELECT line.id, line.commitment_id, line.project_id, line.sub_job_id, line.cost_code_id,
					 line.cost_type_id, line.description, line.amount
			  FROM commitment_change_order_line line
			  JOIN commitment_change_order batch ON batch.id = line.change_order_id
			  WHERE line.project_id = $1 AND line.sub_job_key = $2 AND line.cost_code_id = $3
			    AND line.cost_type_id = $4 AND batch.status = 'approved'`

	rows, err := r.db.QueryContext(ctx, query, key.ProjectID, key.SubJobKey, key.CostCodeID, key.CostTypeID)
	if err != nil {
		err := fmt.Errorf("could not query approved commitment change order lines: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	return scanLines(rows, "commitment change order line")
}

func (r *ChangeOrderRepositoryImpl) ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	query := `SELECT line.id, line.change_order_id, batch.number, line.project_id, line.sub_job_id,
					 line.cost_code_id, line.cost_type_id, line.description, line.amount, batch.status
			  FROM commitment_change_order_line line
			  JOIN commitment_change_order batch ON batch.id = line.change_order_id
			  WHERE line.project_id = $1`

	rows, err := r.db.QueryContext(ctx, query, filter.ProjectID)
	if err != nil {
		err := fmt.Errorf("could not query commitment change order entries: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows, ledger.TypeCommitmentChangeOrder, filter)
}

func (r *ChangeOrderRepositoryImpl) linesOf(ctx context.Context, changeOrderID int) ([]Line, error) {
	query := `SELECT id, commitment_id, project_id, sub_job_id, cost_code_id, cost_type_id, description, amount
			  FROM commitment_change_order_line WHERE change_order_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, changeOrderID)
	if err != nil {
		err := fmt.Errorf("could not query commitment change order lines: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	return scanLines(rows, "commitment change order line")
}

func scanChangeOrder(row rowScanner) (ChangeOrder, error) {
	var co ChangeOrder
	var status string
	if err := row.Scan(&co.ID, &co.UID, &co.CommitmentID, &co.ProjectID, &co.Number, &co.Title,
		&status, &co.Version); err != nil {
		return ChangeOrder{}, err
	}
	co.Status = ledger.State(status)
	return co, nil
}
