package ledger

import (
	"context"

	"ledgerdesk/internal/domain/models/ledger"
)

// AccountService handles external accounts and their attachment to definitions
type AccountService interface {
	// CreateAccount registers an account in a grouping, unattached
	CreateAccount(ctx context.Context, req *CreateAccountRequest) (*ledger.Account, error)

	// ListAccounts returns one page of a grouping's accounts
	ListAccounts(ctx context.Context, userID string, filter ledger.AccountFilter) (*ledger.AccountPage, error)

	// AttachAccount appends an account to a definition and returns the updated definition
	AttachAccount(ctx context.Context, userID, definitionID, accountID string) (*ledger.Node, error)

	// RemoveAccount detaches an account from its definition
	RemoveAccount(ctx context.Context, userID, accountID string, mode ledger.GroupingKind) (*ledger.Account, error)
}

// CreateAccountRequest represents an account creation request
type CreateAccountRequest struct {
	UserID     string `json:"-"`
	GroupingID string `json:"grouping_id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
}

// AttachAccountRequest is the body of the connect-account call
type AttachAccountRequest struct {
	AccountID string `json:"account_id"`
}
