package ledgertree

import (
	"fmt"
	"sort"
	"strings"

	"ledgerdesk/internal/domain/models/ledger"
)

func def(id, name string, children ...*ledger.Node) *ledger.Node {
	return &ledger.Node{ID: id, Name: name, Type: ledger.NodeTypeDefinition, Children: children}
}

func leaf(id, name string) *ledger.Node {
	return &ledger.Node{ID: id, Name: name, Type: ledger.NodeTypeAccount}
}

func withAccounts(n *ledger.Node, accounts ...ledger.Account) *ledger.Node {
	n.Accounts = accounts
	return n
}

func acct(id, code, name string) ledger.Account {
	return ledger.Account{ID: id, Code: code, Name: name}
}

// forest numbers siblings and wires parent ids the way the API returns them.
func forest(roots ...*ledger.Node) []*ledger.Node {
	number(roots, nil)
	return roots
}

func number(nodes []*ledger.Node, parentID *string) {
	for i, n := range nodes {
		n.Index = i
		n.ParentID = parentID
		for j := range n.Accounts {
			n.Accounts[j].Index = j
			n.Accounts[j].DefinitionID = ledger.StringPtr(n.ID)
		}
		number(n.Children, ledger.StringPtr(n.ID))
	}
}

// balanceSheet is the shared fixture:
//
//	A Assets
//	  A1 Current Assets [cash: Cash on Hand, bank: Bank]
//	    A1a Petty Cash Funds
//	  A2 Fixed Assets
//	  A3 Deferred Charges (ACCOUNT)
//	L Liabilities
//	  L1 Payables [ap: Accounts Payable]
func balanceSheet() []*ledger.Node {
	return forest(
		def("A", "Assets",
			withAccounts(def("A1", "Current Assets",
				def("A1a", "Petty Cash Funds"),
			), acct("cash", "1010", "Cash on Hand"), acct("bank", "1020", "Bank")),
			def("A2", "Fixed Assets"),
			leaf("A3", "Deferred Charges"),
		),
		def("L", "Liabilities",
			withAccounts(def("L1", "Payables"), acct("ap", "2010", "Accounts Payable")),
		),
	)
}

// shape renders ids and nesting, e.g. "A(A1(A1a),A2) L".
func shape(nodes []*ledger.Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		s := n.ID
		if len(n.Children) > 0 {
			s += "(" + strings.ReplaceAll(shape(n.Children), " ", ",") + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// accountShape renders the accounts of every definition, e.g. "A1:[cash bank]".
func accountShape(nodes []*ledger.Node) string {
	var parts []string
	Walk(nodes, func(n *ledger.Node, _ ledger.Path) bool {
		if len(n.Accounts) == 0 {
			return true
		}
		ids := make([]string, len(n.Accounts))
		for i, a := range n.Accounts {
			ids[i] = a.ID
		}
		parts = append(parts, fmt.Sprintf("%s:%v", n.ID, ids))
		return true
	})
	return strings.Join(parts, " ")
}

// allIDs lists every node and account id, sorted, to compare membership.
func allIDs(nodes []*ledger.Node) []string {
	var ids []string
	Walk(nodes, func(n *ledger.Node, _ ledger.Path) bool {
		ids = append(ids, n.ID)
		for _, a := range n.Accounts {
			ids = append(ids, "acct:"+a.ID)
		}
		return true
	})
	sort.Strings(ids)
	return ids
}

func entriesByID(entries []ledger.IndexEntry) map[string]ledger.IndexEntry {
	out := make(map[string]ledger.IndexEntry, len(entries))
	for _, e := range entries {
		out[e.ID] = e
	}
	return out
}
