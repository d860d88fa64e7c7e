package rollup

import (
	"context"
	"fmt"

	"github.com/costline/costline/internal/actor"
	"github.com/costline/costline/internal/event_bus"
	"github.com/costline/costline/pkg/audit"
	"github.com/costline/costline/pkg/budgetline"
	"github.com/costline/costline/pkg/changeorder"
	"github.com/costline/costline/pkg/commitment"
	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/directcost"
	"github.com/costline/costline/pkg/forecast"
	"github.com/costline/costline/pkg/ledger"
	"github.com/costline/costline/pkg/modification"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const entityType = "budget_line"

type Service interface {
	GetRollup(ctx context.Context, projectID, budgetLineID int) (Result, error)
	SetForecast(ctx context.Context, budgetLineID int, method budgetline.ForecastMethod,
		manualAmount *decimal.Decimal, curveID *int) (Result, error)
}

// ServiceImpl pulls live rows from every ledger for a budget line's key,
// runs the forecast engine, and folds the figures through Compute.
type ServiceImpl struct {
	lines       budgetline.Repository
	mods        modification.Repository
	cos         changeorder.Repository
	commitments commitment.Repository
	ccos        commitment.ChangeOrderRepository
	costs       directcost.Repository
	engine      *forecast.Engine
	auditRepo   audit.Repository
	bus         *event_bus.EventBus
}

func NewService(
	lines budgetline.Repository,
	mods modification.Repository,
	cos changeorder.Repository,
	commitments commitment.Repository,
	ccos commitment.ChangeOrderRepository,
	costs directcost.Repository,
	engine *forecast.Engine,
	auditRepo audit.Repository,
	bus *event_bus.EventBus,
) *ServiceImpl {
	return &ServiceImpl{
		lines:       lines,
		mods:        mods,
		cos:         cos,
		commitments: commitments,
		ccos:        ccos,
		costs:       costs,
		engine:      engine,
		auditRepo:   auditRepo,
		bus:         bus,
	}
}

func (s *ServiceImpl) GetRollup(ctx context.Context, projectID, budgetLineID int) (Result, error) {
	line, err := s.lines.GetByID(ctx, projectID, budgetLineID)
	if err != nil {
		return Result{}, err
	}
	return s.rollupFor(ctx, line)
}

// SetForecast overwrites a budget line's forecast settings, leaves an audit
// row, announces the change, and returns the freshly computed rollup.
func (s *ServiceImpl) SetForecast(ctx context.Context, budgetLineID int, method budgetline.ForecastMethod,
	manualAmount *decimal.Decimal, curveID *int) (Result, error) {
	line, err := s.lines.Get(ctx, budgetLineID)
	if err != nil {
		return Result{}, err
	}

	if !budgetline.ValidMethod(string(method)) {
		return Result{}, fmt.Errorf("unknown forecast method %q: %w", method, ledger.ErrConfiguration)
	}
	switch method {
	case budgetline.ForecastManual, budgetline.ForecastLumpSum:
		if manualAmount == nil {
			return Result{}, fmt.Errorf("%s forecasting requires an amount: %w", method, ledger.ErrConfiguration)
		}
		if manualAmount.IsNegative() {
			return Result{}, fmt.Errorf("forecast amount must not be negative: %w", ledger.ErrOutOfRange)
		}
	case budgetline.ForecastAutomatic:
		if curveID == nil {
			return Result{}, fmt.Errorf("automatic forecasting requires a curve: %w", ledger.ErrConfiguration)
		}
	}

	updated, err := s.lines.UpdateForecast(ctx, budgetLineID, method, manualAmount, curveID)
	if err != nil {
		return Result{}, err
	}
	if !updated {
		return Result{}, fmt.Errorf("budget line %d: %w", budgetLineID, ledger.ErrNotFound)
	}

	if _, err := s.auditRepo.Record(ctx, nil, audit.Entry{
		EntityType: entityType,
		EntityID:   budgetLineID,
		Action:     "set_forecast",
		FromState:  string(line.ForecastMethod),
		ToState:    string(method),
		Actor:      actor.Current(ctx),
	}); err != nil {
		return Result{}, err
	}

	event := event_bus.NewEvent(ctx, event_bus.ForecastChangedType, event_bus.ForecastChanged{
		BudgetLineID: budgetLineID,
		ProjectID:    line.Key.ProjectID,
	})
	if err := s.bus.Publish(event); err != nil {
		log.Warnf("forecast updated but event delivery failed: %v", err)
	}

	line.ForecastMethod = method
	line.ManualForecast = manualAmount
	line.CurveID = curveID
	return s.rollupFor(ctx, line)
}

func (s *ServiceImpl) rollupFor(ctx context.Context, line budgetline.BudgetLine) (Result, error) {
	sums, err := s.sums(ctx, line.Key)
	if err != nil {
		return Result{}, err
	}

	revised := line.OriginalAmount.Add(sums.ApprovedModifications).Add(sums.ApprovedChangeOrders)
	ftc, err := s.engine.ForecastToComplete(ctx, line, forecast.Inputs{
		RevisedBudget: revised,
		CommittedCost: sums.CommittedCost,
		JobToDateCost: sums.JobToDateCost,
	})
	if err != nil {
		return Result{}, err
	}

	result := Compute(line.OriginalAmount, sums, ftc)
	result.BudgetLineID = line.ID
	return result, nil
}

func (s *ServiceImpl) sums(ctx context.Context, key costkey.Key) (Sums, error) {
	var sums Sums

	modLines, err := s.mods.LiveLines(ctx, key)
	if err != nil {
		return Sums{}, err
	}
	for _, line := range modLines {
		sums.ApprovedModifications = sums.ApprovedModifications.Add(line.Amount)
	}

	coLines, err := s.cos.LiveLines(ctx, key)
	if err != nil {
		return Sums{}, err
	}
	for _, line := range coLines {
		sums.ApprovedChangeOrders = sums.ApprovedChangeOrders.Add(line.Amount)
	}

	commitmentLines, err := s.commitments.LiveLines(ctx, key)
	if err != nil {
		return Sums{}, err
	}
	for _, line := range commitmentLines {
		sums.CommittedCost = sums.CommittedCost.Add(line.Amount)
	}
	ccoLines, err := s.ccos.LiveLines(ctx, key)
	if err != nil {
		return Sums{}, err
	}
	for _, line := range ccoLines {
		sums.CommittedCost = sums.CommittedCost.Add(line.Amount)
	}

	costRows, err := s.costs.LiveRows(ctx, key)
	if err != nil {
		return Sums{}, err
	}
	for _, row := range costRows {
		sums.JobToDateCost = sums.JobToDateCost.Add(row.Amount)
	}

	return sums, nil
}
