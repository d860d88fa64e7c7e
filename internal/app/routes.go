package app

import (
	"github.com/costline/costline/internal/config"
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Budget lines
	r.HandleFunc("/api/project/{projectId}/budget-line", deps.BudgetLineHandler.Create).Methods("POST")
	r.HandleFunc("/api/project/{projectId}/budget-line", deps.BudgetLineHandler.List).Methods("GET")
	r.HandleFunc("/api/project/{projectId}/budget-line/{id}", deps.BudgetLineHandler.Get).Methods("GET")
	r.HandleFunc("/api/project/{projectId}/budget-line/{id}", deps.BudgetLineHandler.Update).Methods("PUT")
	r.HandleFunc("/api/project/{projectId}/budget-line/{id}", deps.BudgetLineHandler.Deactivate).Methods("DELETE")

	// Rollup and forecast settings
	r.HandleFunc("/api/project/{projectId}/budget-line/{id}/rollup", deps.RollupHandler.GetRollup).Methods("GET")
	r.HandleFunc("/api/budget-line/{id}/forecast", deps.RollupHandler.SetForecast).Methods("PUT")

	// Ledger transitions and entries
	r.HandleFunc("/api/ledger/{ledgerType}/batch/{batchId}/transition", deps.LedgerHandler.Transition).Methods("POST")
	r.HandleFunc("/api/ledger/{ledgerType}/entries", deps.LedgerHandler.ListEntries).Methods("GET")

	// Budget modifications
	r.HandleFunc("/api/project/{projectId}/budget-modification", deps.ModificationHandler.Create).Methods("POST")
	r.HandleFunc("/api/project/{projectId}/budget-modification", deps.ModificationHandler.List).Methods("GET")
	r.HandleFunc("/api/budget-modification/{id}", deps.ModificationHandler.Get).Methods("GET")

	// Contract change orders
	r.HandleFunc("/api/contract/{contractId}/change-order", deps.ChangeOrderHandler.Create).Methods("POST")
	r.HandleFunc("/api/contract/{contractId}/change-order", deps.ChangeOrderHandler.List).Methods("GET")
	r.HandleFunc("/api/change-order/{id}", deps.ChangeOrderHandler.Get).Methods("GET")
	r.HandleFunc("/api/change-order/price", deps.ChangeOrderHandler.Price).Methods("POST")

	// Commitments
	r.HandleFunc("/api/project/{projectId}/commitment", deps.CommitmentHandler.Create).Methods("POST")
	r.HandleFunc("/api/project/{projectId}/commitment", deps.CommitmentHandler.List).Methods("GET")
	r.HandleFunc("/api/commitment/{id}", deps.CommitmentHandler.Get).Methods("GET")
	r.HandleFunc("/api/commitment/{commitmentId}/change-order", deps.CommitmentHandler.CreateChangeOrder).Methods("POST")
	r.HandleFunc("/api/commitment/{commitmentId}/change-order", deps.CommitmentHandler.ListChangeOrders).Methods("GET")

	// Direct costs
	r.HandleFunc("/api/project/{projectId}/direct-cost", deps.DirectCostHandler.Create).Methods("POST")
	r.HandleFunc("/api/project/{projectId}/direct-cost", deps.DirectCostHandler.List).Methods("GET")
	r.HandleFunc("/api/direct-cost/{id}", deps.DirectCostHandler.Get).Methods("GET")

	// Vertical markups
	r.HandleFunc("/api/project/{projectId}/markup", deps.MarkupHandler.Create).Methods("POST")
	r.HandleFunc("/api/project/{projectId}/markup", deps.MarkupHandler.List).Methods("GET")
	r.HandleFunc("/api/project/{projectId}/markup/{id}", deps.MarkupHandler.Update).Methods("PUT")
	r.HandleFunc("/api/project/{projectId}/markup/{id}", deps.MarkupHandler.Delete).Methods("DELETE")

	// Forecasting curves
	r.HandleFunc("/api/curve", deps.ForecastHandler.Create).Methods("POST")
	r.HandleFunc("/api/curve", deps.ForecastHandler.List).Queries("companyId", "{companyId}").Methods("GET")
	r.HandleFunc("/api/curve/{id}", deps.ForecastHandler.Get).Methods("GET")
	r.HandleFunc("/api/curve/{id}", deps.ForecastHandler.Update).Methods("PUT")
	r.HandleFunc("/api/curve/{id}", deps.ForecastHandler.Delete).Methods("DELETE")

	// Contracts
	r.HandleFunc("/api/contract", deps.ContractHandler.Create).Methods("POST")
	r.HandleFunc("/api/contract/{contractId}", deps.ContractHandler.Get).Methods("GET")
	r.HandleFunc("/api/project/{projectId}/contract", deps.ContractHandler.ListByProject).Methods("GET")
	r.HandleFunc("/api/contract/{contractId}/summary", deps.ContractHandler.GetSummary).Methods("GET")
	r.HandleFunc("/api/contract/{contractId}/sov-line", deps.ContractHandler.AddSOVLine).Methods("POST")
	r.HandleFunc("/api/contract/{contractId}/sov-line", deps.ContractHandler.ListSOVLines).Methods("GET")
	r.HandleFunc("/api/contract/{contractId}/invoice", deps.ContractHandler.AddInvoice).Methods("POST")
	r.HandleFunc("/api/contract/{contractId}/invoice", deps.ContractHandler.ListInvoices).Methods("GET")
	r.HandleFunc("/api/contract/{contractId}/invoice/{invoiceId}/approval", deps.ContractHandler.ApproveInvoice).Methods("PUT")
	r.HandleFunc("/api/contract/{contractId}/payment", deps.ContractHandler.AddPayment).Methods("POST")
	r.HandleFunc("/api/contract/{contractId}/payment", deps.ContractHandler.ListPayments).Methods("GET")

	// Audit trail
	r.HandleFunc("/api/audit", deps.AuditHandler.List).Queries("entityType", "{entityType}", "entityId", "{entityId}").Methods("GET")
}
