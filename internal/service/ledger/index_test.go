package ledger

import (
	"context"
	"testing"

	"ledgerdesk/internal/config"
	"ledgerdesk/internal/domain"
	"ledgerdesk/internal/domain/models/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func balanceSheetNodes() []ledger.Node {
	sv := newServices()
	sv.seedBalanceSheet()
	nodes, _ := memDefinitions{sv.store}.GetAllByGrouping(context.Background(), "g1")
	return nodes
}

func TestCheckBatchShape(t *testing.T) {
	tooMany := make([]ledger.IndexEntry, config.MaxIndexBatchSize+1)
	for i := range tooMany {
		tooMany[i] = ledger.IndexEntry{ID: string(rune('a' + i%26)), Index: i}
	}

	tests := []struct {
		name    string
		entries []ledger.IndexEntry
		wantErr bool
	}{
		{"empty", nil, true},
		{"too many", tooMany, true},
		{"blank id", []ledger.IndexEntry{{ID: "", Index: 0}}, true},
		{"negative index", []ledger.IndexEntry{{ID: "A", Index: -1}}, true},
		{"duplicate id", []ledger.IndexEntry{{ID: "A", Index: 0}, {ID: "A", Index: 1}}, true},
		{"ok", []ledger.IndexEntry{{ID: "A", Index: 1}, {ID: "L", Index: 0}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkBatchShape(tt.entries)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDefinitionBatch(t *testing.T) {
	tests := []struct {
		name    string
		entries []ledger.IndexEntry
		wantErr string
	}{
		{
			name: "swap roots",
			entries: []ledger.IndexEntry{
				{ID: "L", Index: 0},
				{ID: "A", Index: 1},
			},
		},
		{
			name: "reparent with renumbering",
			entries: []ledger.IndexEntry{
				{ID: "A2", Index: 0, ParentID: ptr("L")},
				{ID: "L1", Index: 1, ParentID: ptr("L")},
				{ID: "A3", Index: 1, ParentID: ptr("A")},
			},
		},
		{
			name:    "unknown id",
			entries: []ledger.IndexEntry{{ID: "nope", Index: 0}},
			wantErr: "not in this grouping",
		},
		{
			name:    "parent from another grouping",
			entries: []ledger.IndexEntry{{ID: "A2", Index: 0, ParentID: ptr("X")}},
			wantErr: "not in this grouping",
		},
		{
			name:    "account node as parent",
			entries: []ledger.IndexEntry{{ID: "A2", Index: 0, ParentID: ptr("A3")}},
			wantErr: "cannot hold children",
		},
		{
			name:    "node under its own descendant",
			entries: []ledger.IndexEntry{{ID: "A", Index: 0, ParentID: ptr("A1a")}},
			wantErr: "cycle",
		},
		{
			name:    "node under itself",
			entries: []ledger.IndexEntry{{ID: "A1", Index: 0, ParentID: ptr("A1")}},
			wantErr: "cycle",
		},
		{
			name:    "duplicate sibling index",
			entries: []ledger.IndexEntry{{ID: "A2", Index: 0, ParentID: ptr("A")}},
			wantErr: "share index 0",
		},
		{
			name: "half of a swap",
			entries: []ledger.IndexEntry{
				{ID: "L", Index: 0},
			},
			wantErr: "share index 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDefinitionBatch(balanceSheetNodes(), tt.entries)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateDefinitionBatchIgnoresUntouchedContainers(t *testing.T) {
	nodes := balanceSheetNodes()
	// Corrupt L's children; a reorder of A must still pass
	nodes = append(nodes, ledger.Node{ID: "L2", GroupingID: "g1", ParentID: ptr("L"), Type: ledger.NodeTypeDefinition, Index: 0})

	err := ValidateDefinitionBatch(nodes, []ledger.IndexEntry{
		{ID: "A2", Index: 0, ParentID: ptr("A")},
		{ID: "A1", Index: 1, ParentID: ptr("A")},
	})
	assert.NoError(t, err)

	err = ValidateDefinitionBatch(nodes, []ledger.IndexEntry{{ID: "A2", Index: 1, ParentID: ptr("L")}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidateAccountBatch(t *testing.T) {
	sv := newServices()
	sv.seedBalanceSheet()
	ctx := context.Background()
	defs, _ := memDefinitions{sv.store}.GetAllByGrouping(ctx, "g1")
	attached, _ := memAccounts{sv.store}.GetAttachedByGrouping(ctx, "g1")
	account := func(id string) ledger.Account { return sv.store.accounts[id] }

	tests := []struct {
		name     string
		accounts []ledger.Account
		entries  []ledger.IndexEntry
		wantErr  string
	}{
		{
			name:     "swap within definition",
			accounts: []ledger.Account{account("cash"), account("bank")},
			entries: []ledger.IndexEntry{
				{ID: "bank", Index: 0, ParentID: ptr("A1")},
				{ID: "cash", Index: 1, ParentID: ptr("A1")},
			},
		},
		{
			name:     "move to another definition",
			accounts: []ledger.Account{account("cash"), account("bank"), account("ap")},
			entries: []ledger.IndexEntry{
				{ID: "cash", Index: 0, ParentID: ptr("L1")},
				{ID: "ap", Index: 1, ParentID: ptr("L1")},
				{ID: "bank", Index: 0, ParentID: ptr("A1")},
			},
		},
		{
			name:     "missing parent",
			accounts: []ledger.Account{account("cash")},
			entries:  []ledger.IndexEntry{{ID: "cash", Index: 0}},
			wantErr:  "needs a definition",
		},
		{
			name:     "account node as owner",
			accounts: []ledger.Account{account("cash")},
			entries:  []ledger.IndexEntry{{ID: "cash", Index: 0, ParentID: ptr("A3")}},
			wantErr:  "cannot hold accounts",
		},
		{
			name:     "owner from another grouping",
			accounts: []ledger.Account{account("cash")},
			entries:  []ledger.IndexEntry{{ID: "cash", Index: 0, ParentID: ptr("X")}},
			wantErr:  "not in this grouping",
		},
		{
			name:     "account from another grouping",
			accounts: []ledger.Account{account("foreign")},
			entries:  []ledger.IndexEntry{{ID: "foreign", Index: 0, ParentID: ptr("A2")}},
			wantErr:  "not in this grouping",
		},
		{
			name:     "collides with an existing account",
			accounts: []ledger.Account{account("cash")},
			entries:  []ledger.IndexEntry{{ID: "cash", Index: 0, ParentID: ptr("L1")}},
			wantErr:  "share index 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAccountBatch("g1", defs, tt.accounts, attached, tt.entries)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUpdateDefinitionIndex(t *testing.T) {
	sv := newServices()
	sv.seedBalanceSheet()
	ctx := context.Background()

	err := sv.index.UpdateDefinitionIndex(ctx, "u1", []ledger.IndexEntry{
		{ID: "A2", Index: 0, ParentID: ptr("A")},
		{ID: "A1", Index: 1, ParentID: ptr("A")},
	})
	require.NoError(t, err)

	tree, err := sv.tree.GetTree(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, "A(A2,A1(A1a),A3) L(L1)", outline(tree.Nodes))
	assert.Equal(t, 1, sv.store.txCount)
}

func TestUpdateDefinitionIndexRejectsWithoutWriting(t *testing.T) {
	sv := newServices()
	sv.seedBalanceSheet()
	ctx := context.Background()

	err := sv.index.UpdateDefinitionIndex(ctx, "u1", []ledger.IndexEntry{
		{ID: "A2", Index: 0, ParentID: ptr("L")},
		{ID: "A", Index: 0, ParentID: ptr("A1")},
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	assert.Equal(t, "A", *sv.store.definitions["A2"].ParentID)
	assert.Nil(t, sv.store.definitions["A"].ParentID)
}

func TestUpdateDefinitionIndexForbidden(t *testing.T) {
	sv := newServices()
	sv.seedBalanceSheet()

	err := sv.index.UpdateDefinitionIndex(context.Background(), "u2", []ledger.IndexEntry{{ID: "L", Index: 0}, {ID: "A", Index: 1}})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateAccountIndex(t *testing.T) {
	sv := newServices()
	sv.seedBalanceSheet()
	ctx := context.Background()

	err := sv.index.UpdateAccountIndex(ctx, "u1", []ledger.IndexEntry{
		{ID: "bank", Index: 0, ParentID: ptr("L1")},
		{ID: "ap", Index: 1, ParentID: ptr("L1")},
	})
	require.NoError(t, err)

	l1, err := memAccounts{sv.store}.ListByDefinition(ctx, "L1")
	require.NoError(t, err)
	require.Len(t, l1, 2)
	assert.Equal(t, "bank", l1[0].ID)
	assert.Equal(t, "ap", l1[1].ID)

	a1, _ := memAccounts{sv.store}.ListByDefinition(ctx, "A1")
	require.Len(t, a1, 1)
	assert.Equal(t, "cash", a1[0].ID)
}
