package ledger

import (
	"context"

	"ledgerdesk/internal/domain/models/ledger"
)

// GroupingRepository defines data access operations for groupings
type GroupingRepository interface {
	// Create creates a new grouping
	Create(ctx context.Context, grouping *ledger.Grouping) error

	// GetByID retrieves a grouping owned by userID
	GetByID(ctx context.Context, id, userID string) (*ledger.Grouping, error)

	// GetByIDOnly retrieves a grouping without owner scoping (authorization must be done first)
	GetByIDOnly(ctx context.Context, id string) (*ledger.Grouping, error)

	// List lists a user's groupings
	List(ctx context.Context, userID string) ([]ledger.Grouping, error)
}

// DefinitionRepository defines data access operations for ledger definitions.
// Returned nodes never carry Children or Accounts; services assemble those.
type DefinitionRepository interface {
	// Create inserts a definition and fills in ID and timestamps
	Create(ctx context.Context, node *ledger.Node) error

	// GetByIDOnly retrieves a definition by ID
	GetByIDOnly(ctx context.Context, id string) (*ledger.Node, error)

	// GetAllByGrouping retrieves every definition of a grouping (flat, ordered by sort index)
	GetAllByGrouping(ctx context.Context, groupingID string) ([]ledger.Node, error)

	// NextIndex returns the index after the last sibling under parentID (nil = root)
	NextIndex(ctx context.Context, groupingID string, parentID *string) (int, error)

	// Update writes name, description and flags
	Update(ctx context.Context, node *ledger.Node) error

	// UpdatePosition writes parent and sort index
	UpdatePosition(ctx context.Context, id string, parentID *string, index int) error

	// DeleteByIDs deletes the given definitions
	DeleteByIDs(ctx context.Context, ids []string) error
}

// AccountRepository defines data access operations for ledger accounts
type AccountRepository interface {
	// Create inserts an unattached account
	Create(ctx context.Context, account *ledger.Account) error

	// GetByIDOnly retrieves an account by ID
	GetByIDOnly(ctx context.Context, id string) (*ledger.Account, error)

	// List returns one page of accounts matching filter and the total match count
	List(ctx context.Context, filter ledger.AccountFilter) ([]ledger.Account, int, error)

	// ListByDefinition lists the accounts attached to a definition in order
	ListByDefinition(ctx context.Context, definitionID string) ([]ledger.Account, error)

	// GetAttachedByGrouping lists every attached account of a grouping
	GetAttachedByGrouping(ctx context.Context, groupingID string) ([]ledger.Account, error)

	// NextIndex returns the index after the last account of a definition
	NextIndex(ctx context.Context, definitionID string) (int, error)

	// SetDefinition attaches (definitionID != nil) or detaches an account
	SetDefinition(ctx context.Context, id string, definitionID *string, index int) error

	// DetachByDefinitions detaches every account attached to the given definitions
	DetachByDefinitions(ctx context.Context, definitionIDs []string) error
}
