package ledgertree

import (
	"fmt"

	"ledgerdesk/internal/domain/models/ledger"
)

// All forest edits below are path-copying: every node on the way to the
// edited container is cloned and the original forest is left untouched.

// resolveOwner walks path from the roots and returns the node it names.
// An empty path names the root list and returns nil with no error.
func resolveOwner(forest []*ledger.Node, path ledger.Path) (*ledger.Node, error) {
	nodes := forest
	var owner *ledger.Node
	for _, id := range path {
		owner = nil
		for _, n := range nodes {
			if n != nil && n.ID == id {
				owner = n
				break
			}
		}
		if owner == nil {
			return nil, fmt.Errorf("%w: container path %v does not resolve at %q", ErrInvalidMove, path, id)
		}
		nodes = owner.Children
	}
	return owner, nil
}

// withOwner returns a copy of nodes in which the node named by path has been
// cloned and handed to fn for modification.
func withOwner(nodes []*ledger.Node, path ledger.Path, fn func(*ledger.Node)) []*ledger.Node {
	if len(path) == 0 {
		return nodes
	}
	out := append([]*ledger.Node(nil), nodes...)
	for i, n := range out {
		if n == nil || n.ID != path[0] {
			continue
		}
		c := n.Clone()
		if len(path) == 1 {
			fn(c)
		} else {
			c.Children = withOwner(c.Children, path[1:], fn)
		}
		out[i] = c
		break
	}
	return out
}

// withChildren replaces the definition list addressed by path.
func withChildren(forest []*ledger.Node, path ledger.Path, children []*ledger.Node) []*ledger.Node {
	if len(path) == 0 {
		return children
	}
	return withOwner(forest, path, func(owner *ledger.Node) {
		owner.Children = children
	})
}

// InsertNode appends node to the children of parentID (or to the roots when
// parentID is empty). The node's ParentID and Index are set accordingly.
func InsertNode(forest []*ledger.Node, parentID string, node *ledger.Node) ([]*ledger.Node, error) {
	inserted := node.Clone()
	inserted.ParentID = ledger.StringPtr(parentID)
	if parentID == "" {
		inserted.Index = len(forest)
		return append(append([]*ledger.Node(nil), forest...), inserted), nil
	}

	path := FindPathByID(forest, parentID)
	if path == nil {
		return forest, fmt.Errorf("parent %s not in tree", parentID)
	}
	parent := FindNode(forest, parentID)
	if !parent.IsDefinition() {
		return forest, fmt.Errorf("%w: %s cannot hold children", ErrInvalidMove, parent.Name)
	}
	inserted.Index = len(parent.Children)
	return withOwner(forest, path, func(owner *ledger.Node) {
		owner.Children = append(owner.Children, inserted)
	}), nil
}

// ReplaceNode clones the node with the given id and lets fn modify the clone.
func ReplaceNode(forest []*ledger.Node, id string, fn func(*ledger.Node)) ([]*ledger.Node, error) {
	path := FindPathByID(forest, id)
	if path == nil {
		return forest, fmt.Errorf("node %s not in tree", id)
	}
	return withOwner(forest, path, fn), nil
}

// RemoveNode detaches the node with the given id, together with its subtree,
// from its parent. Remaining siblings keep their relative order.
func RemoveNode(forest []*ledger.Node, id string) ([]*ledger.Node, *ledger.Node) {
	path := FindPathByID(forest, id)
	if path == nil {
		return forest, nil
	}
	parentPath := path[:len(path)-1]
	siblings := forest
	if len(parentPath) > 0 {
		siblings = FindNode(forest, parentPath.Last()).Children
	}

	var removed *ledger.Node
	kept := make([]*ledger.Node, 0, len(siblings))
	for _, n := range siblings {
		if n.ID == id {
			removed = n
			continue
		}
		kept = append(kept, n)
	}
	return withChildren(forest, parentPath, kept), removed
}

// RemoveAccountRef drops the attached account from whichever definition
// holds it.
func RemoveAccountRef(forest []*ledger.Node, accountID string) ([]*ledger.Node, bool) {
	owner, pos := FindAccount(forest, accountID)
	if owner == nil {
		return forest, false
	}
	updated, err := ReplaceNode(forest, owner.ID, func(n *ledger.Node) {
		n.Accounts = append(n.Accounts[:pos:pos], n.Accounts[pos+1:]...)
	})
	if err != nil {
		return forest, false
	}
	return updated, true
}

// CompactChildren renumbers the definitions under parentID ("" = roots) to
// 0..n-1 in their current order. The returned entries cover every child.
func CompactChildren(forest []*ledger.Node, parentID string) ([]*ledger.Node, []ledger.IndexEntry) {
	var owner *ledger.Node
	var path ledger.Path
	children := forest
	if parentID != "" {
		if path = FindPathByID(forest, parentID); path == nil {
			return forest, nil
		}
		owner = FindNode(forest, parentID)
		children = owner.Children
	}

	list, _ := renumber(children, children, owner, "")
	entries := make([]ledger.IndexEntry, len(list))
	for i, n := range list {
		entries[i] = ledger.IndexEntry{ID: n.ID, Index: i, ParentID: ledger.StringPtr(parentID)}
	}
	return withChildren(forest, path, list), entries
}

// CompactAccounts renumbers the accounts of a definition to 0..n-1 in their
// current order. The returned entries cover every account.
func CompactAccounts(forest []*ledger.Node, definitionID string) ([]*ledger.Node, []ledger.IndexEntry) {
	owner := FindNode(forest, definitionID)
	if owner == nil {
		return forest, nil
	}

	accounts, _ := renumberAccounts(owner.Accounts, owner.Accounts, definitionID, "")
	entries := make([]ledger.IndexEntry, len(accounts))
	for i, a := range accounts {
		entries[i] = ledger.IndexEntry{ID: a.ID, Index: i, ParentID: ledger.StringPtr(definitionID)}
	}
	updated, err := ReplaceNode(forest, definitionID, func(n *ledger.Node) {
		n.Accounts = accounts
	})
	if err != nil {
		return forest, nil
	}
	return updated, entries
}
