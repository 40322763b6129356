package ledger

import "time"

// Account is an external ledger account that can be attached to a
// definition. Its Index orders it among the definition's accounts and is
// independent of the definition-children ordering.
type Account struct {
	ID           string    `json:"id"`
	GroupingID   string    `json:"grouping_id"`
	DefinitionID *string   `json:"definition_id"` // NULL = not attached
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Index        int       `json:"index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Attached reports whether the account hangs under a definition.
func (a *Account) Attached() bool {
	return a.DefinitionID != nil && *a.DefinitionID != ""
}

// AccountFilter narrows account listings.
type AccountFilter struct {
	GroupingID string
	Search     string // matched against code and name, case-insensitive
	Unattached bool
	Limit      int
	Offset     int
}

// ApplyDefaults fills in paging defaults.
func (f *AccountFilter) ApplyDefaults() {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// AccountPage is one page of an account listing.
type AccountPage struct {
	Accounts []Account `json:"accounts"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}
