package handler

import (
	"context"
	"log/slog"
	"net/http"

	"ledgerdesk/internal/domain/models/ledger"
	ledgerSvc "ledgerdesk/internal/domain/services/ledger"
	"ledgerdesk/internal/httputil"
)

// IndexHandler persists batched reorders
type IndexHandler struct {
	indexService ledgerSvc.IndexService
	logger       *slog.Logger
}

// NewIndexHandler creates a new index handler
func NewIndexHandler(indexService ledgerSvc.IndexService, logger *slog.Logger) *IndexHandler {
	return &IndexHandler{
		indexService: indexService,
		logger:       logger,
	}
}

// UpdateDefinitionIndex applies a batch of definition positions
// PUT /api/definitions/index  [{"id","index","parent_id"}]
func (h *IndexHandler) UpdateDefinitionIndex(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, ledger.MoveDefinition, h.indexService.UpdateDefinitionIndex)
}

// UpdateAccountIndex applies a batch of account positions
// PUT /api/accounts/index  [{"id","index","parent_id"}]
func (h *IndexHandler) UpdateAccountIndex(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, ledger.MoveAccount, h.indexService.UpdateAccountIndex)
}

func (h *IndexHandler) update(
	w http.ResponseWriter,
	r *http.Request,
	kind ledger.MoveKind,
	apply func(ctx context.Context, userID string, entries []ledger.IndexEntry) error,
) {
	var entries []ledger.IndexEntry
	if err := httputil.ParseJSON(w, r, &entries); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := httputil.GetUserID(r)
	if err := apply(r.Context(), userID, entries); err != nil {
		h.logger.Info("index batch rejected",
			"kind", kind.String(),
			"entries", len(entries),
			"user_id", userID,
			"error", err,
		)
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
