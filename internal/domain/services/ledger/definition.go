package ledger

import (
	"context"

	"ledgerdesk/internal/domain/models/ledger"
	"ledgerdesk/internal/httputil"
)

// DefinitionService handles ledger definition business logic
type DefinitionService interface {
	// CreateDefinition creates a definition at the end of its parent's children
	CreateDefinition(ctx context.Context, req *CreateDefinitionRequest) (*ledger.Node, error)

	// GetDefinition retrieves one definition with its attached accounts
	GetDefinition(ctx context.Context, userID, id string) (*ledger.Node, error)

	// UpdateDefinition changes name, description and flags; never order
	UpdateDefinition(ctx context.Context, userID, id string, req *UpdateDefinitionRequest) (*ledger.Node, error)

	// DeleteDefinition deletes a definition, its descendants, and detaches their accounts
	DeleteDefinition(ctx context.Context, userID, id string) error
}

// CreateDefinitionRequest represents a definition creation request
type CreateDefinitionRequest struct {
	UserID             string          `json:"-"`
	GroupingID         string          `json:"grouping_id"`
	ParentID           *string         `json:"parent_id,omitempty"` // NULL = root
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	Type               ledger.NodeType `json:"type"`
	ExcludeFromReports bool            `json:"exclude_from_reports,omitempty"`
}

// UpdateDefinitionRequest represents a definition update request
type UpdateDefinitionRequest struct {
	Name               *string                 `json:"name,omitempty"`
	Description        httputil.OptionalString `json:"description,omitzero"`
	ExcludeFromReports *bool                   `json:"exclude_from_reports,omitempty"`
}
