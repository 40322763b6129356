package ledger

import (
	"slices"
	"time"
)

// NodeType distinguishes grouping nodes from account leaves.
type NodeType string

const (
	NodeTypeDefinition NodeType = "DEFINITION"
	NodeTypeAccount    NodeType = "ACCOUNT"
)

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	return t == NodeTypeDefinition || t == NodeTypeAccount
}

// Node is one ledger definition in a grouping's forest.
// Children order is the sibling order; Index mirrors the persisted position.
type Node struct {
	ID                 string    `json:"id"`
	GroupingID         string    `json:"grouping_id"`
	ParentID           *string   `json:"parent_id"` // NULL = root level
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	Type               NodeType  `json:"type"`
	Index              int       `json:"index"`
	ExcludeFromReports bool      `json:"exclude_from_reports"`
	Children           []*Node   `json:"children"`
	Accounts           []Account `json:"accounts"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// IsDefinition reports whether the node may hold children and accounts.
func (n *Node) IsDefinition() bool {
	return n.Type == NodeTypeDefinition
}

// Clone returns a shallow copy with fresh Children and Accounts slices.
// The child pointers are shared; callers replace the ones they modify.
func (n *Node) Clone() *Node {
	c := *n
	if n.ParentID != nil {
		parent := *n.ParentID
		c.ParentID = &parent
	}
	if n.Children != nil {
		c.Children = append([]*Node(nil), n.Children...)
	}
	if n.Accounts != nil {
		c.Accounts = append([]Account(nil), n.Accounts...)
	}
	return &c
}

// ParentKey returns the parent id or "" for roots.
func (n *Node) ParentKey() string {
	if n.ParentID == nil {
		return ""
	}
	return *n.ParentID
}

// Path is a root-to-node list of ids.
type Path []string

// Last returns the final id of the path, or "" for an empty path.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Equal reports whether two paths name the same container.
func (p Path) Equal(other Path) bool {
	return slices.Equal(p, other)
}

// Contains reports whether id appears anywhere in the path.
func (p Path) Contains(id string) bool {
	return slices.Contains(p, id)
}
