package budgetline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Store(ctx context.Context, line BudgetLine) (int, error)
	GetByID(ctx context.Context, projectID, id int) (BudgetLine, error)
	Get(ctx context.Context, id int) (BudgetLine, error)
	FindByKey(ctx context.Context, key costkey.Key) (BudgetLine, error)
	ListByProject(ctx context.Context, projectID int, includeInactive bool) ([]BudgetLine, error)
	Update(ctx context.Context, line BudgetLine) (bool, error)
	UpdateForecast(ctx context.Context, id int, method ForecastMethod, manual *decimal.Decimal, curveID *int) (bool, error)
	SetActive(ctx context.Context, projectID, id int, active bool) (bool, error)
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const lineColumns = `id, project_id, sub_job_id, cost_code_id, cost_type_id, description,
			original_amount, quantity, unit_cost, forecast_method, manual_forecast, curve_id, active`

func (r *RepositoryImpl) Store(ctx context.Context, line BudgetLine) (int, error) {
	// sub_job_id keeps the raw nullable id; sub_job_key carries the sentinel
	// so the uniqueness index and key joins never compare NULLs.
	query := `INSERT INTO budget_line (
					project_id,
					sub_job_id,
					sub_job_key,
					cost_code_id,
					cost_type_id,
					description,
					original_amount,
					quantity,
					unit_cost,
					forecast_method,
					manual_forecast,
					curve_id,
					active
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`

	var id int
	err := r.db.QueryRowContext(ctx, query,
		line.Key.ProjectID,
		nullableInt(line.Key.SubJobID()),
		line.Key.SubJobKey,
		line.Key.CostCodeID,
		line.Key.CostTypeID,
		line.Description,
		line.OriginalAmount.String(),
		nullableDecimal(line.Quantity),
		nullableDecimal(line.UnitCost),
		string(line.ForecastMethod),
		nullableDecimal(line.ManualForecast),
		nullableInt(line.CurveID),
		boolToInt(line.Active),
	).Scan(&id)
	if err != nil {
		err := fmt.Errorf("could not store budget line: %w", err)
		log.Error(err)
		return 0, err
	}
	return id, nil
}

func (r *RepositoryImpl) GetByID(ctx context.Context, projectID, id int) (BudgetLine, error) {
	query := fmt.Sprintf(`SELECT %s FROM budget_line WHERE project_id = $1 AND id = $2`, lineColumns)
	line, err := r.scanLine(r.db.QueryRowContext(ctx, query, projectID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return BudgetLine{}, fmt.Errorf("budget line %d: %w", id, ledger.ErrNotFound)
	}
	return line, err
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (BudgetLine, error) {
	query := fmt.Sprintf(`SELECT %s FROM budget_line WHERE id = $1`, lineColumns)
	line, err := r.scanLine(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return BudgetLine{}, fmt.Errorf("budget line %d: %w", id, ledger.ErrNotFound)
	}
	return line, err
}

func (r *RepositoryImpl) FindByKey(ctx context.Context, key costkey.Key) (BudgetLine, error) {
	query := fmt.Sprintf(`SELECT %s FROM budget_line
			  WHERE project_id = $1 AND sub_job_key = $2 AND cost_code_id = $3 AND cost_type_id = $4`, lineColumns)
	line, err := r.scanLine(r.db.QueryRowContext(ctx, query, key.ProjectID, key.SubJobKey, key.CostCodeID, key.CostTypeID))
	if errors.Is(err, sql.ErrNoRows) {
		return BudgetLine{}, fmt.Errorf("budget line for key %+v: %w", key, ledger.ErrNotFound)
	}
	return line, err
}

func (r *RepositoryImpl) ListByProject(ctx context.Context, projectID int, includeInactive bool) ([]BudgetLine, error) {
	activeWhere := "AND active = 1"
	if includeInactive {
		activeWhere = ""
	}
	query := fmt.Sprintf(`SELECT %s FROM budget_line WHERE project_id = $1 %s ORDER BY cost_code_id, cost_type_id`,
		lineColumns, activeWhere)

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		err := fmt.Errorf("could not query budget lines: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var lines []BudgetLine
	for rows.Next() {
		line, err := r.scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over budget lines: %w", err)
		log.Error(err)
		return nil, err
	}
	return lines, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, line BudgetLine) (bool, error) {
	query := `UPDATE budget_line SET
					description = $1,
					original_amount = $2,
					quantity = $3,
					unit_cost = $4
			  WHERE id = $5 AND project_id = $6`

	result, err := r.db.ExecContext(ctx, query,
		line.Description,
		line.OriginalAmount.String(),
		nullableDecimal(line.Quantity),
		nullableDecimal(line.UnitCost),
		line.ID,
		line.Key.ProjectID,
	)
	if err != nil {
		err := fmt.Errorf("could not update budget line: %w", err)
		log.Error(err)
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("could not get rows affected: %w", err)
		log.Error(err)
		return false, err
	}
	return rowsAffected == 1, nil
}

func (r *RepositoryImpl) UpdateForecast(ctx context.Context, id int, method ForecastMethod, manual *decimal.Decimal, curveID *int) (bool, error) {
	query := `UPDATE budget_line SET forecast_method = $1, manual_forecast = $2, curve_id = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, string(method), nullableDecimal(manual), nullableInt(curveID), id)
	if err != nil {
		err := fmt.Errorf("could not update forecast settings: %w", err)
		log.Error(err)
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("could not get rows affected: %w", err)
		log.Error(err)
		return false, err
	}
	return rowsAffected == 1, nil
}

func (r *RepositoryImpl) SetActive(ctx context.Context, projectID, id int, active bool) (bool, error) {
	query := `UPDATE budget_line SET active = $1 WHERE project_id = $2 AND id = $3`

	result, err := r.db.ExecContext(ctx, query, boolToInt(active), projectID, id)
	if err != nil {
		err := fmt.Errorf("could not change budget line activation: %w", err)
		log.Error(err)
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("could not get rows affected: %w", err)
		log.Error(err)
		return false, err
	}
	return rowsAffected == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *RepositoryImpl) scanLine(row rowScanner) (BudgetLine, error) {
	var line BudgetLine
	var projectID, costCodeID, costTypeID int
	var subJobID sql.NullInt64
	var originalAmount string
	var quantity, unitCost, manualForecast sql.NullString
	var method string
	var curveID sql.NullInt64
	var activeInt int

	err := row.Scan(
		&line.ID,
		&projectID,
		&subJobID,
		&costCodeID,
		&costTypeID,
		&line.Description,
		&originalAmount,
		&quantity,
		&unitCost,
		&method,
		&manualForecast,
		&curveID,
		&activeInt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return BudgetLine{}, err
	}
	if err != nil {
		err := fmt.Errorf("could not scan budget line: %w", err)
		log.Error(err)
		return BudgetLine{}, err
	}

	line.Key = costkey.Normalize(projectID, nullInt(subJobID), costCodeID, costTypeID)
	line.ForecastMethod = ForecastMethod(method)
	line.Active = activeInt == 1
	if curveID.Valid {
		id := int(curveID.Int64)
		line.CurveID = &id
	}

	if line.OriginalAmount, err = decimal.NewFromString(originalAmount); err != nil {
		err := fmt.Errorf("could not parse original amount: %w", err)
		log.Error(err)
		return BudgetLine{}, err
	}
	if line.Quantity, err = parseNullDecimal(quantity); err != nil {
		return BudgetLine{}, err
	}
	if line.UnitCost, err = parseNullDecimal(unitCost); err != nil {
		return BudgetLine{}, err
	}
	if line.ManualForecast, err = parseNullDecimal(manualForecast); err != nil {
		return BudgetLine{}, err
	}

	return line, nil
}

func parseNullDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		err := fmt.Errorf("could not parse decimal column: %w", err)
		log.Error(err)
		return nil, err
	}
	return &d, nil
}

func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
