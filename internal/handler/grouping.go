package handler

import (
	"log/slog"
	"net/http"

	"ledgerdesk/internal/domain/models/ledger"
	ledgerSvc "ledgerdesk/internal/domain/services/ledger"
	"ledgerdesk/internal/httputil"
)

// GroupingHandler handles grouping HTTP requests
type GroupingHandler struct {
	groupingService ledgerSvc.GroupingService
	logger          *slog.Logger
}

// NewGroupingHandler creates a new grouping handler
func NewGroupingHandler(groupingService ledgerSvc.GroupingService, logger *slog.Logger) *GroupingHandler {
	return &GroupingHandler{
		groupingService: groupingService,
		logger:          logger,
	}
}

// ListGroupings lists the caller's groupings
// GET /api/groupings
func (h *GroupingHandler) ListGroupings(w http.ResponseWriter, r *http.Request) {
	groupings, err := h.groupingService.ListGroupings(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, groupings)
}

// CreateGrouping creates a grouping
// POST /api/groupings
// Returns 201 if created, 409 with the existing grouping on a duplicate name
func (h *GroupingHandler) CreateGrouping(w http.ResponseWriter, r *http.Request) {
	var req ledgerSvc.CreateGroupingRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID := httputil.GetUserID(r)
	req.UserID = userID

	grouping, err := h.groupingService.CreateGrouping(r.Context(), &req)
	if err != nil {
		HandleCreateConflict(w, r, err, func(id string) (*ledger.Grouping, error) {
			return h.groupingService.GetGrouping(r.Context(), userID, id)
		})
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, grouping)
}

// GetGrouping retrieves one grouping
// GET /api/groupings/{id}
func (h *GroupingHandler) GetGrouping(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	grouping, err := h.groupingService.GetGrouping(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, grouping)
}
