package ledger

import "time"

// GroupingKind says which hierarchy a grouping owns.
type GroupingKind string

const (
	GroupingGeneralLedger      GroupingKind = "general_ledger"
	GroupingFinancialStatement GroupingKind = "financial_statement"
)

// Valid reports whether k is a known grouping kind.
func (k GroupingKind) Valid() bool {
	return k == GroupingGeneralLedger || k == GroupingFinancialStatement
}

// Grouping is the top-level container owning a forest of definition roots.
type Grouping struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Name      string       `json:"name"`
	Kind      GroupingKind `json:"kind"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Tree is the response body of the tree endpoint.
type Tree struct {
	Grouping *Grouping `json:"grouping"`
	Nodes    []*Node   `json:"nodes"`
}
