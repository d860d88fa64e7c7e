package app

import (
	"database/sql"

	"github.com/costline/costline/internal/config"
	"github.com/costline/costline/internal/event_bus"
	"github.com/costline/costline/internal/utils"
	"github.com/costline/costline/pkg/audit"
	"github.com/costline/costline/pkg/budgetline"
	"github.com/costline/costline/pkg/changeorder"
	"github.com/costline/costline/pkg/commitment"
	"github.com/costline/costline/pkg/contract"
	"github.com/costline/costline/pkg/directcost"
	"github.com/costline/costline/pkg/forecast"
	"github.com/costline/costline/pkg/ledger"
	"github.com/costline/costline/pkg/markup"
	"github.com/costline/costline/pkg/modification"
	"github.com/costline/costline/pkg/rollup"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus
	Clock    utils.Clock

	AuditRepo    audit.Repository
	AuditHandler *audit.Handler

	BudgetLineRepo    budgetline.Repository
	BudgetLineService *budgetline.ServiceImpl
	BudgetLineHandler *budgetline.Handler

	CurveRepo       forecast.Repository
	ForecastService *forecast.ServiceImpl
	ForecastEngine  *forecast.Engine
	ForecastHandler *forecast.Handler

	ModificationRepo    modification.Repository
	ModificationService *modification.ServiceImpl
	ModificationHandler *modification.Handler

	MarkupRepo    markup.Repository
	MarkupService *markup.ServiceImpl
	MarkupHandler *markup.Handler

	ChangeOrderRepo    changeorder.Repository
	ChangeOrderService *changeorder.ServiceImpl
	ChangeOrderHandler *changeorder.Handler

	CommitmentRepo              commitment.Repository
	CommitmentChangeOrderRepo   commitment.ChangeOrderRepository
	CommitmentService           *commitment.ServiceImpl
	CommitmentChangeOrderLedger *commitment.ChangeOrderLedger
	CommitmentHandler           *commitment.Handler

	DirectCostRepo    directcost.Repository
	DirectCostService *directcost.ServiceImpl
	DirectCostHandler *directcost.Handler

	RollupService *rollup.ServiceImpl
	RollupHandler *rollup.Handler

	ContractRepo    contract.Repository
	ContractService *contract.ServiceImpl
	ContractHandler *contract.Handler

	LedgerRegistry *ledger.Registry
	LedgerHandler  *ledger.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}

	deps.AuditRepo = audit.NewRepository(db, deps.Clock)
	deps.AuditHandler = audit.NewHandler(deps.AuditRepo)

	deps.BudgetLineRepo = budgetline.NewRepository(db)
	deps.BudgetLineService = budgetline.NewService(deps.BudgetLineRepo)
	deps.BudgetLineHandler = budgetline.NewHandler(deps.BudgetLineService)

	deps.CurveRepo = forecast.NewRepository(db)
	deps.ForecastService = forecast.NewService(deps.CurveRepo)
	deps.ForecastEngine = forecast.NewEngine(deps.CurveRepo)
	deps.ForecastHandler = forecast.NewHandler(deps.ForecastService)

	deps.ModificationRepo = modification.NewRepository(db)
	deps.ModificationService = modification.NewService(deps.ModificationRepo, deps.AuditRepo, deps.EventBus)
	deps.ModificationHandler = modification.NewHandler(deps.ModificationService)

	deps.MarkupRepo = markup.NewRepository(db)
	deps.MarkupService = markup.NewService(deps.MarkupRepo)
	deps.MarkupHandler = markup.NewHandler(deps.MarkupService)

	deps.ChangeOrderRepo = changeorder.NewRepository(db)
	deps.ChangeOrderService = changeorder.NewService(deps.ChangeOrderRepo, deps.MarkupService, deps.AuditRepo, deps.EventBus)
	deps.ChangeOrderHandler = changeorder.NewHandler(deps.ChangeOrderService)

	deps.CommitmentRepo = commitment.NewRepository(db)
	deps.CommitmentChangeOrderRepo = commitment.NewChangeOrderRepository(db)
	deps.CommitmentService = commitment.NewService(deps.CommitmentRepo, deps.CommitmentChangeOrderRepo, deps.AuditRepo, deps.EventBus)
	deps.CommitmentChangeOrderLedger = commitment.NewChangeOrderLedger(deps.CommitmentService)
	deps.CommitmentHandler = commitment.NewHandler(deps.CommitmentService)

	deps.DirectCostRepo = directcost.NewRepository(db)
	deps.DirectCostService = directcost.NewService(deps.DirectCostRepo, deps.AuditRepo, deps.EventBus)
	deps.DirectCostHandler = directcost.NewHandler(deps.DirectCostService)

	deps.RollupService = rollup.NewService(
		deps.BudgetLineRepo,
		deps.ModificationRepo,
		deps.ChangeOrderRepo,
		deps.CommitmentRepo,
		deps.CommitmentChangeOrderRepo,
		deps.DirectCostRepo,
		deps.ForecastEngine,
		deps.AuditRepo,
		deps.EventBus,
	)
	deps.RollupHandler = rollup.NewHandler(deps.RollupService)

	deps.ContractRepo = contract.NewRepository(db)
	deps.ContractService = contract.NewService(deps.ContractRepo, deps.ChangeOrderRepo, deps.EventBus)
	deps.ContractHandler = contract.NewHandler(deps.ContractService)

	deps.LedgerRegistry = ledger.NewRegistry()
	deps.LedgerRegistry.Register(ledger.TypeBudgetModification, deps.ModificationService, deps.ModificationService)
	deps.LedgerRegistry.Register(ledger.TypeChangeOrder, deps.ChangeOrderService, deps.ChangeOrderService)
	deps.LedgerRegistry.Register(ledger.TypeCommitment, deps.CommitmentService, deps.CommitmentService)
	deps.LedgerRegistry.Register(ledger.TypeCommitmentChangeOrder, deps.CommitmentChangeOrderLedger, deps.CommitmentChangeOrderLedger)
	deps.LedgerRegistry.Register(ledger.TypeDirectCost, deps.DirectCostService, deps.DirectCostService)
	deps.LedgerHandler = ledger.NewHandler(deps.LedgerRegistry, deps.BudgetLineService.KeyOf)

	return deps
}
