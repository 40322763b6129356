package ledger

import (
	"context"
	"strings"
	"testing"

	"ledgerdesk/internal/domain"
	"ledgerdesk/internal/domain/models/ledger"
	ledgerSvc "ledgerdesk/internal/domain/services/ledger"
	"ledgerdesk/internal/httputil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDefinition(t *testing.T) {
	sv := newServices()
	sv.seedBalanceSheet()
	ctx := context.Background()

	node, err := sv.definitions.CreateDefinition(ctx, &ledgerSvc.CreateDefinitionRequest{
		UserID:     "u1",
		GroupingID: "g1",
		ParentID:   ptr("A"),
		Name:       "  Investments ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Investments", node.Name)
	assert.Equal(t, ledger.NodeTypeDefinition, node.Type)
	assert.Equal(t, 3, node.Index, "appended after A1, A2, A3")
	assert.NotNil(t, node.Children)

	root, err := sv.definitions.CreateDefinition(ctx, &ledgerSvc.CreateDefinitionRequest{
		UserID:     "u1",
		GroupingID: "g1",
		ParentID:   ptr(""),
		Name:       "Equity",
	})
	require.NoError(t, err)
	assert.Nil(t, root.ParentID)
	assert.Equal(t, 2, root.Index)
}

func TestCreateDefinitionRejects(t *testing.T) {
	tests := []struct {
		name    string
		req     ledgerSvc.CreateDefinitionRequest
		wantErr error
	}{
		{
			name:    "blank name",
			req:     ledgerSvc.CreateDefinitionRequest{UserID: "u1", GroupingID: "g1", Name: "   "},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "name too long",
			req:     ledgerSvc.CreateDefinitionRequest{UserID: "u1", GroupingID: "g1", Name: strings.Repeat("x", 256)},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "unknown type",
			req:     ledgerSvc.CreateDefinitionRequest{UserID: "u1", GroupingID: "g1", Name: "n", Type: "FOLDER"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "account node parent",
			req:     ledgerSvc.CreateDefinitionRequest{UserID: "u1", GroupingID: "g1", Name: "n", ParentID: ptr("A3")},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "parent in another grouping",
			req:     ledgerSvc.CreateDefinitionRequest{UserID: "u1", GroupingID: "g1", Name: "n", ParentID: ptr("X")},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "missing parent",
			req:     ledgerSvc.CreateDefinitionRequest{UserID: "u1", GroupingID: "g1", Name: "n", ParentID: ptr("gone")},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "not the owner",
			req:     ledgerSvc.CreateDefinitionRequest{UserID: "u2", GroupingID: "g1", Name: "n"},
			wantErr: domain.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sv := newServices()
			sv.seedBalanceSheet()
			before := len(sv.store.definitions)

			_, err := sv.definitions.CreateDefinition(context.Background(), &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, sv.store.definitions, before)
		})
	}
}

func TestGetDefinitionCarriesAccounts(t *testing.T) {
	sv := newServices()
	sv.seedBalanceSheet()

	node, err := sv.definitions.GetDefinition(context.Background(), "u1", "A1")
	require.NoError(t, err)
	require.Len(t, node.Accounts, 2)
	assert.Equal(t, "cash", node.Accounts[0].ID)

	_, err = sv.definitions.GetDefinition(context.Background(), "u2", "A1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateDefinition(t *testing.T) {
	sv := newServices()
	sv.seedBalanceSheet()
	ctx := context.Background()
	sv.store.definitions["A2"] = func() ledger.Node {
		n := sv.store.definitions["A2"]
		n.Description = "land and buildings"
		return n
	}()

	name := "Property"
	node, err := sv.definitions.UpdateDefinition(ctx, "u1", "A2", &ledgerSvc.UpdateDefinitionRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Property", node.Name)
	assert.Equal(t, "land and buildings", node.Description, "absent description is kept")
	assert.Equal(t, 1, sv.store.definitions["A2"].Index, "update never moves")

	node, err = sv.definitions.UpdateDefinition(ctx, "u1", "A2", &ledgerSvc.UpdateDefinitionRequest{
		Description: httputil.OptionalString{Present: true},
	})
	require.NoError(t, err)
	assert.Empty(t, node.Description, "null description clears")

	_, err = sv.definitions.UpdateDefinition(ctx, "u1", "A2", &ledgerSvc.UpdateDefinitionRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	blank := "  "
	_, err = sv.definitions.UpdateDefinition(ctx, "u1", "A2", &ledgerSvc.UpdateDefinitionRequest{Name: &blank})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeleteDefinition(t *testing.T) {
	sv := newServices()
	sv.seedBalanceSheet()
	ctx := context.Background()

	require.NoError(t, sv.definitions.DeleteDefinition(ctx, "u1", "A1"))

	for _, id := range []string{"A1", "A1a"} {
		_, ok := sv.store.definitions[id]
		assert.False(t, ok, "%s should be gone", id)
	}
	assert.Nil(t, sv.store.accounts["cash"].DefinitionID)
	assert.Nil(t, sv.store.accounts["bank"].DefinitionID)
	assert.NotNil(t, sv.store.accounts["ap"].DefinitionID)

	assert.Equal(t, 0, sv.store.definitions["A2"].Index)
	assert.Equal(t, 1, sv.store.definitions["A3"].Index)
	assert.Equal(t, 1, sv.store.txCount)

	tree, err := sv.tree.GetTree(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, "A(A2,A3) L(L1)", outline(tree.Nodes))
}

func TestDeleteDefinitionForbidden(t *testing.T) {
	sv := newServices()
	sv.seedBalanceSheet()

	err := sv.definitions.DeleteDefinition(context.Background(), "u2", "A")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Len(t, sv.store.definitions, 8)
}

func TestSubtreeIDs(t *testing.T) {
	ids := subtreeIDs(balanceSheetNodes(), "A")
	assert.ElementsMatch(t, []string{"A", "A1", "A1a", "A2", "A3"}, ids)
	assert.Equal(t, "A", ids[0])

	assert.Equal(t, []string{"L1"}, subtreeIDs(balanceSheetNodes(), "L1"))
}
