package handler

import (
	"log/slog"
	"net/http"

	ledgerSvc "ledgerdesk/internal/domain/services/ledger"
	"ledgerdesk/internal/httputil"
)

// DefinitionHandler handles ledger definition HTTP requests
type DefinitionHandler struct {
	definitionService ledgerSvc.DefinitionService
	logger            *slog.Logger
}

// NewDefinitionHandler creates a new definition handler
func NewDefinitionHandler(definitionService ledgerSvc.DefinitionService, logger *slog.Logger) *DefinitionHandler {
	return &DefinitionHandler{
		definitionService: definitionService,
		logger:            logger,
	}
}

// CreateDefinition creates a definition as the last child of parent_id
// POST /api/definitions
func (h *DefinitionHandler) CreateDefinition(w http.ResponseWriter, r *http.Request) {
	var req ledgerSvc.CreateDefinitionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.UserID = httputil.GetUserID(r)

	node, err := h.definitionService.CreateDefinition(r.Context(), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, node)
}

// GetDefinition retrieves one definition with its accounts
// GET /api/definitions/{id}
func (h *DefinitionHandler) GetDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	node, err := h.definitionService.GetDefinition(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, node)
}

// UpdateDefinition patches name, description and flags
// PATCH /api/definitions/{id}
func (h *DefinitionHandler) UpdateDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req ledgerSvc.UpdateDefinitionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.definitionService.UpdateDefinition(r.Context(), httputil.GetUserID(r), id, &req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, node)
}

// DeleteDefinition deletes a definition and its subtree
// DELETE /api/definitions/{id}
func (h *DefinitionHandler) DeleteDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.definitionService.DeleteDefinition(r.Context(), httputil.GetUserID(r), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
