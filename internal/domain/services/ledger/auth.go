package ledger

import "context"

// ResourceAuthorizer checks if a user can access ledger resources.
// Current implementation: ownership-based (user owns the grouping).
type ResourceAuthorizer interface {
	// CanAccessGrouping checks if user can access a grouping
	CanAccessGrouping(ctx context.Context, userID, groupingID string) error

	// CanAccessDefinition checks if user can access a definition (via its grouping)
	CanAccessDefinition(ctx context.Context, userID, definitionID string) error

	// CanAccessAccount checks if user can access an account (via its grouping)
	CanAccessAccount(ctx context.Context, userID, accountID string) error
}
