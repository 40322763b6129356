package handler

import (
	"log/slog"
	"net/http"

	"ledgerdesk/internal/domain/models/ledger"
	ledgerSvc "ledgerdesk/internal/domain/services/ledger"
	"ledgerdesk/internal/httputil"

	"github.com/google/uuid"
)

// AccountHandler handles account listing and attachment requests
type AccountHandler struct {
	accountService ledgerSvc.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService ledgerSvc.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// ListAccounts returns one page of a grouping's accounts
// GET /api/groupings/{id}/accounts?search=&unattached=&limit=&offset=
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	groupingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	filter := ledger.AccountFilter{
		GroupingID: groupingID,
		Search:     r.URL.Query().Get("search"),
	}
	var err error
	if filter.Unattached, err = httputil.QueryBool(r, "unattached"); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.Limit, err = httputil.QueryInt(r, "limit", 0); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.Offset, err = httputil.QueryInt(r, "offset", 0); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.accountService.ListAccounts(r.Context(), httputil.GetUserID(r), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, page)
}

// CreateAccount registers an unattached account
// POST /api/accounts
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req ledgerSvc.CreateAccountRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.UserID = httputil.GetUserID(r)

	account, err := h.accountService.CreateAccount(r.Context(), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, account)
}

// AttachAccount appends an account to a definition
// POST /api/definitions/{id}/accounts  {"account_id": "..."}
// Returns the definition with its updated accounts
func (h *AccountHandler) AttachAccount(w http.ResponseWriter, r *http.Request) {
	definitionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req ledgerSvc.AttachAccountRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := uuid.Parse(req.AccountID); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "account_id must be a UUID")
		return
	}

	node, err := h.accountService.AttachAccount(r.Context(), httputil.GetUserID(r), definitionID, req.AccountID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, node)
}

// RemoveAccount detaches an account from its definition
// DELETE /api/accounts/{id}/definition?mode=general_ledger|financial_statement
func (h *AccountHandler) RemoveAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	mode := ledger.GroupingKind(r.URL.Query().Get("mode"))
	if !mode.Valid() {
		httputil.RespondError(w, http.StatusBadRequest, "mode must be general_ledger or financial_statement")
		return
	}

	account, err := h.accountService.RemoveAccount(r.Context(), httputil.GetUserID(r), accountID, mode)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, account)
}
