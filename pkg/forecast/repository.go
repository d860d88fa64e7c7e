package forecast

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/costline/costline/pkg/ledger"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Store(ctx context.Context, c Curve) (Curve, error)
	Get(ctx context.Context, id int) (Curve, error)
	ListByCompany(ctx context.Context, companyID int) ([]Curve, error)
	Update(ctx context.Context, c Curve) (Curve, error)
	Delete(ctx context.Context, id int) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Store(ctx context.Context, c Curve) (Curve, error) {
	query := `INSERT INTO forecasting_curve (company_id, name, curve_type, curve_config)
			  VALUES ($1, $2, $3, $4) RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		c.CompanyID, c.Name, string(c.CurveType), configText(c.CurveConfig),
	).Scan(&c.ID)
	if err != nil {
		err := fmt.Errorf("could not store curve: %w", err)
		log.Error(err)
		return Curve{}, err
	}
	return c, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (Curve, error) {
	query := `SELECT id, company_id, name, curve_type, curve_config FROM forecasting_curve WHERE id = $1`

	c, err := scanCurve(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Curve{}, fmt.Errorf("curve %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		err := fmt.Errorf("could not query curve: %w", err)
		log.Error(err)
		return Curve{}, err
	}
	return c, nil
}

func (r *RepositoryImpl) ListByCompany(ctx context.Context, companyID int) ([]Curve, error) {
	query := `SELECT id, company_id, name, curve_type, curve_config FROM forecasting_curve
			  WHERE company_id = $1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		err := fmt.Errorf("could not query curves: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var curves []Curve
	for rows.Next() {
		c, err := scanCurve(rows)
		if err != nil {
			err := fmt.Errorf("could not scan curve: %w", err)
			log.Error(err)
			return nil, err
		}
		curves = append(curves, c)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over curves: %w", err)
		log.Error(err)
		return nil, err
	}
	return curves, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, c Curve) (Curve, error) {
	query := `UPDATE forecasting_curve SET name = $1, curve_type = $2, curve_config = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, c.Name, string(c.CurveType), configText(c.CurveConfig), c.ID)
	if err != nil {
		err := fmt.Errorf("could not update curve: %w", err)
		log.Error(err)
		return Curve{}, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return Curve{}, fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return Curve{}, fmt.Errorf("curve %d: %w", c.ID, ledger.ErrNotFound)
	}
	return c, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM forecasting_curve WHERE id = $1`, id)
	if err != nil {
		err := fmt.Errorf("could not delete curve: %w", err)
		log.Error(err)
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("curve %d: %w", id, ledger.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCurve(row rowScanner) (Curve, error) {
	var c Curve
	var curveType string
	var config sql.NullString
	if err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &curveType, &config); err != nil {
		return Curve{}, err
	}
	c.CurveType = CurveType(curveType)
	if config.Valid && config.String != "" {
		c.CurveConfig = json.RawMessage(config.String)
	}
	return c, nil
}

func configText(config json.RawMessage) any {
	if len(config) == 0 {
		return nil
	}
	return string(config)
}
