package ledger

// MoveKind says which staged set an index entry belongs to.
type MoveKind int

const (
	MoveDefinition MoveKind = iota
	MoveAccount
)

func (k MoveKind) String() string {
	switch k {
	case MoveDefinition:
		return "definition"
	case MoveAccount:
		return "account"
	default:
		return "unknown"
	}
}

// IndexEntry is one row of a batch reorder. Indices are 0-based among
// siblings. ParentID is always sent: nil means root for definitions; for
// accounts it is the owning definition and must be set.
type IndexEntry struct {
	ID       string  `json:"id"`
	Index    int     `json:"index"`
	ParentID *string `json:"parent_id"`
}

// ParentKey returns the parent id or "" for roots.
func (e IndexEntry) ParentKey() string {
	if e.ParentID == nil {
		return ""
	}
	return *e.ParentID
}

// StringPtr returns nil for "" and a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
