package ledgertree

import (
	"slices"
	"strings"

	"ledgerdesk/internal/domain/models/ledger"
)

// FindPathByID returns the root-to-node path of the first node (pre-order,
// sibling order) whose id is targetID, or nil when no node matches.
func FindPathByID(forest []*ledger.Node, targetID string) ledger.Path {
	if targetID == "" {
		return nil
	}
	return findPath(forest, nil, func(n *ledger.Node) bool {
		return n.ID == targetID
	})
}

// FindPathByText returns the path of the first node whose own name, or the
// name of one of its directly attached accounts, contains query
// case-insensitively. Multiple matches resolve to the first in pre-order.
// Blank-query handling is left to the caller.
func FindPathByText(forest []*ledger.Node, query string) ledger.Path {
	needle := strings.ToLower(query)
	return findPath(forest, nil, func(n *ledger.Node) bool {
		if strings.Contains(strings.ToLower(n.Name), needle) {
			return true
		}
		for _, acct := range n.Accounts {
			if strings.Contains(strings.ToLower(acct.Name), needle) {
				return true
			}
		}
		return false
	})
}

func findPath(nodes []*ledger.Node, prefix ledger.Path, match func(*ledger.Node) bool) ledger.Path {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		path := append(slices.Clip(prefix), n.ID)
		if match(n) {
			return path
		}
		if n.IsDefinition() {
			if found := findPath(n.Children, path, match); found != nil {
				return found
			}
		}
	}
	return nil
}

// FindNode returns the node with the given id, or nil.
func FindNode(forest []*ledger.Node, id string) *ledger.Node {
	var found *ledger.Node
	Walk(forest, func(n *ledger.Node, _ ledger.Path) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindAccount returns the definition holding accountID and the account's
// position in its Accounts slice. owner is nil when the account is not in
// the forest.
func FindAccount(forest []*ledger.Node, accountID string) (owner *ledger.Node, pos int) {
	pos = -1
	Walk(forest, func(n *ledger.Node, _ ledger.Path) bool {
		for i := range n.Accounts {
			if n.Accounts[i].ID == accountID {
				owner, pos = n, i
				return false
			}
		}
		return true
	})
	return owner, pos
}

// Walk visits every node in pre-order with its path. Returning false from
// fn stops the walk.
func Walk(forest []*ledger.Node, fn func(n *ledger.Node, path ledger.Path) bool) {
	walk(forest, nil, fn)
}

func walk(nodes []*ledger.Node, prefix ledger.Path, fn func(*ledger.Node, ledger.Path) bool) bool {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		path := append(slices.Clip(prefix), n.ID)
		if !fn(n, path) {
			return false
		}
		if !walk(n.Children, path, fn) {
			return false
		}
	}
	return true
}

// SubtreeIDs returns the ids of n, all its descendants and every account
// attached anywhere below it.
func SubtreeIDs(n *ledger.Node) (definitions, accounts []string) {
	if n == nil {
		return nil, nil
	}
	Walk([]*ledger.Node{n}, func(node *ledger.Node, _ ledger.Path) bool {
		definitions = append(definitions, node.ID)
		for _, a := range node.Accounts {
			accounts = append(accounts, a.ID)
		}
		return true
	})
	return definitions, accounts
}

// inSubtree reports whether id is n itself or one of n's descendants.
func inSubtree(n *ledger.Node, id string) bool {
	return FindNode([]*ledger.Node{n}, id) != nil
}
