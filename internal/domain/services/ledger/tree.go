package ledger

import (
	"context"

	"ledgerdesk/internal/domain/models/ledger"
)

// TreeService builds the nested definition forest of a grouping
type TreeService interface {
	// GetTree returns the forest ordered by sibling index
	// userID is used for authorization check
	GetTree(ctx context.Context, userID, groupingID string) (*ledger.Tree, error)
}

// IndexService persists batched sibling reorders
type IndexService interface {
	// UpdateDefinitionIndex applies index/parent patches to definitions
	UpdateDefinitionIndex(ctx context.Context, userID string, entries []ledger.IndexEntry) error

	// UpdateAccountIndex applies index/definition patches to attached accounts
	UpdateAccountIndex(ctx context.Context, userID string, entries []ledger.IndexEntry) error
}

// GroupingService handles groupings
type GroupingService interface {
	CreateGrouping(ctx context.Context, req *CreateGroupingRequest) (*ledger.Grouping, error)
	GetGrouping(ctx context.Context, userID, id string) (*ledger.Grouping, error)
	ListGroupings(ctx context.Context, userID string) ([]ledger.Grouping, error)
}

// CreateGroupingRequest represents a grouping creation request
type CreateGroupingRequest struct {
	UserID string              `json:"-"`
	Name   string              `json:"name"`
	Kind   ledger.GroupingKind `json:"kind"`
}
