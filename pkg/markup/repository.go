package markup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/costline/costline/pkg/ledger"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Store(ctx context.Context, m Markup) (Markup, error)
	GetByType(ctx context.Context, projectID int, markupType string) (Markup, error)
	ListByProject(ctx context.Context, projectID int) ([]Markup, error)
	Update(ctx context.Context, m Markup) (Markup, error)
	Delete(ctx context.Context, id int) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Store(ctx context.Context, m Markup) (Markup, error) {
	query := `INSERT INTO vertical_markup (project_id, markup_type, percentage, calculation_order, compound)
			  VALUES ($1, $2, $3, $4, $5) RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		m.ProjectID,
		m.MarkupType,
		m.Percentage.String(),
		m.CalculationOrder,
		boolToInt(m.Compound),
	).Scan(&m.ID)
	if err != nil {
		err := fmt.Errorf("could not store markup: %w", err)
		log.Error(err)
		return Markup{}, err
	}
	return m, nil
}

func (r *RepositoryImpl) GetByType(ctx context.Context, projectID int, markupType string) (Markup, error) {
	query := `SELECT id, project_id, markup_type, percentage, calculation_order, compound
			  FROM vertical_markup WHERE project_id = $1 AND markup_type = $2`

	m, err := scanMarkup(r.db.QueryRowContext(ctx, query, projectID, markupType))
	if errors.Is(err, sql.ErrNoRows) {
		return Markup{}, fmt.Errorf("markup %q for project %d: %w", markupType, projectID, ledger.ErrNotFound)
	}
	if err != nil {
		err := fmt.Errorf("could not query markup: %w", err)
		log.Error(err)
		return Markup{}, err
	}
	return m, nil
}

func (r *RepositoryImpl) ListByProject(ctx context.Context, projectID int) ([]Markup, error) {
	query := `SELECT id, project_id, markup_type, percentage, calculation_order, compound
			  FROM vertical_markup WHERE project_id = $1 ORDER BY calculation_order`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		err := fmt.Errorf("could not query markups: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var markups []Markup
	for rows.Next() {
		m, err := scanMarkup(rows)
		if err != nil {
			err := fmt.Errorf("could not scan markup: %w", err)
			log.Error(err)
			return nil, err
		}
		markups = append(markups, m)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over markups: %w", err)
		log.Error(err)
		return nil, err
	}
	return markups, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, m Markup) (Markup, error) {
	query := `UPDATE vertical_markup SET percentage = $1, calculation_order = $2, compound = $3
			  WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query,
		m.Percentage.String(), m.CalculationOrder, boolToInt(m.Compound), m.ID)
	if err != nil {
		err := fmt.Errorf("could not update markup: %w", err)
		log.Error(err)
		return Markup{}, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return Markup{}, fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return Markup{}, fmt.Errorf("markup %d: %w", m.ID, ledger.ErrNotFound)
	}
	return m, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vertical_markup WHERE id = $1`, id)
	if err != nil {
		err := fmt.Errorf("could not delete markup: %w", err)
		log.Error(err)
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("markup %d: %w", id, ledger.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMarkup(row rowScanner) (Markup, error) {
	var m Markup
	var percentage string
	var compound int
	if err := row.Scan(&m.ID, &m.ProjectID, &m.MarkupType, &percentage, &m.CalculationOrder, &compound); err != nil {
		return Markup{}, err
	}
	var err error
	if m.Percentage, err = decimal.NewFromString(percentage); err != nil {
		return Markup{}, fmt.Errorf("could not parse percentage: %w", err)
	}
	m.Compound = compound != 0
	return m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
