package handler

import (
	"log/slog"
	"net/http"

	ledgerSvc "ledgerdesk/internal/domain/services/ledger"
	"ledgerdesk/internal/httputil"
)

// TreeHandler handles HTTP requests for tree operations
type TreeHandler struct {
	treeService ledgerSvc.TreeService
	logger      *slog.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(treeService ledgerSvc.TreeService, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{
		treeService: treeService,
		logger:      logger,
	}
}

// GetTree returns the nested definition forest of a grouping
// GET /api/groupings/{id}/tree
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	groupingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	tree, err := h.treeService.GetTree(r.Context(), httputil.GetUserID(r), groupingID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	h.logger.Debug("tree served",
		"grouping_id", groupingID,
		"roots", len(tree.Nodes),
	)
	// Order changes must be visible on the next load
	w.Header().Set("Cache-Control", "no-store")
	httputil.RespondJSON(w, http.StatusOK, tree)
}
