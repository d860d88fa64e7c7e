package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/costline/costline/internal/utils"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Execer is satisfied by both *sql.DB and *sql.Tx, so audit rows can be
// written inside the same transaction as the state change they describe.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Repository interface {
	Record(ctx context.Context, ex Execer, entry Entry) (Entry, error)
	List(ctx context.Context, entityType string, entityID int) ([]Entry, error)
}

type RepositoryImpl struct {
	db    *sql.DB
	clock utils.Clock
}

func NewRepository(db *sql.DB, clock utils.Clock) *RepositoryImpl {
	return &RepositoryImpl{db: db, clock: clock}
}

func (r *RepositoryImpl) Record(ctx context.Context, ex Execer, entry Entry) (Entry, error) {
	// Callers outside a transaction pass nil and write directly.
	if ex == nil {
		ex = r.db
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = r.clock.Now().UTC()
	}

	query := `INSERT INTO audit_entry (
					id,
					entity_type,
					entity_id,
					action,
					from_state,
					to_state,
					actor,
					occurred_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := ex.ExecContext(ctx, query,
		entry.ID,
		entry.EntityType,
		entry.EntityID,
		entry.Action,
		entry.FromState,
		entry.ToState,
		entry.Actor,
		entry.OccurredAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		err := fmt.Errorf("could not record audit entry: %w", err)
		log.Error(err)
		return Entry{}, err
	}
	return entry, nil
}

func (r *RepositoryImpl) List(ctx context.Context, entityType string, entityID int) ([]Entry, error) {
	query := `SELECT id, entity_type, entity_id, action, from_state, to_state, actor, occurred_at
			  FROM audit_entry
			  WHERE entity_type = $1 AND entity_id = $2
			  ORDER BY occurred_at`

	rows, err := r.db.QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		err := fmt.Errorf("could not query audit entries: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var occurredAt string
		if err := rows.Scan(
			&entry.ID,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Action,
			&entry.FromState,
			&entry.ToState,
			&entry.Actor,
			&occurredAt,
		); err != nil {
			err := fmt.Errorf("could not scan audit entry: %w", err)
			log.Error(err)
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, occurredAt)
		if err != nil {
			err := fmt.Errorf("could not parse audit timestamp: %w", err)
			log.Error(err)
			return nil, err
		}
		entry.OccurredAt = parsed
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over audit rows: %w", err)
		log.Error(err)
		return nil, err
	}

	return entries, nil
}
