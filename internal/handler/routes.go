package handler

import (
	"log/slog"
	"net/http"

	ledgerSvc "ledgerdesk/internal/domain/services/ledger"
)

// Services is everything the ledger API routes delegate to
type Services struct {
	Groupings   ledgerSvc.GroupingService
	Tree        ledgerSvc.TreeService
	Definitions ledgerSvc.DefinitionService
	Accounts    ledgerSvc.AccountService
	Index       ledgerSvc.IndexService
}

// NewMux registers every API route on a fresh ServeMux
func NewMux(svc Services, logger *slog.Logger) *http.ServeMux {
	groupingHandler := NewGroupingHandler(svc.Groupings, logger)
	treeHandler := NewTreeHandler(svc.Tree, logger)
	definitionHandler := NewDefinitionHandler(svc.Definitions, logger)
	accountHandler := NewAccountHandler(svc.Accounts, logger)
	indexHandler := NewIndexHandler(svc.Index, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", Health)

	// Grouping routes
	mux.HandleFunc("GET /api/groupings", groupingHandler.ListGroupings)
	mux.HandleFunc("POST /api/groupings", groupingHandler.CreateGrouping)
	mux.HandleFunc("GET /api/groupings/{id}", groupingHandler.GetGrouping)
	mux.HandleFunc("GET /api/groupings/{id}/tree", treeHandler.GetTree)
	mux.HandleFunc("GET /api/groupings/{id}/accounts", accountHandler.ListAccounts)

	// Definition routes
	mux.HandleFunc("POST /api/definitions", definitionHandler.CreateDefinition)
	mux.HandleFunc("PUT /api/definitions/index", indexHandler.UpdateDefinitionIndex)
	mux.HandleFunc("GET /api/definitions/{id}", definitionHandler.GetDefinition)
	mux.HandleFunc("PATCH /api/definitions/{id}", definitionHandler.UpdateDefinition)
	mux.HandleFunc("DELETE /api/definitions/{id}", definitionHandler.DeleteDefinition)
	mux.HandleFunc("POST /api/definitions/{id}/accounts", accountHandler.AttachAccount)

	// Account routes
	mux.HandleFunc("POST /api/accounts", accountHandler.CreateAccount)
	mux.HandleFunc("PUT /api/accounts/index", indexHandler.UpdateAccountIndex)
	mux.HandleFunc("DELETE /api/accounts/{id}/definition", accountHandler.RemoveAccount)

	return mux
}
