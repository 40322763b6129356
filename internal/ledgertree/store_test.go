package ledgertree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerdesk/internal/domain/models/ledger"
)

func TestStore_ExpandPathUnions(t *testing.T) {
	s := NewStore()

	s.ExpandPath(ledger.Path{"A", "A1"})
	s.ExpandPath(ledger.Path{"L", "L1"})

	assert.Equal(t, []string{"A", "A1", "L", "L1"}, s.ExpandedIDs())
	assert.Equal(t, "L1", s.TargetID())
	assert.True(t, s.IsExpanded("A1"))

	s.ResetExpansion()
	assert.Empty(t, s.ExpandedIDs())
	assert.Empty(t, s.TargetID())
}

func TestStore_ExpandEmptyPathKeepsTarget(t *testing.T) {
	s := NewStore()
	s.ExpandPath(ledger.Path{"A"})
	s.ExpandPath(nil)
	assert.Equal(t, "A", s.TargetID())
}

func TestStore_StageMoveLastWriteWins(t *testing.T) {
	s := NewStore()

	s.StageMove(ledger.MoveDefinition, ledger.IndexEntry{ID: "A1", Index: 0, ParentID: ledger.StringPtr("A")})
	s.StageMove(ledger.MoveDefinition, ledger.IndexEntry{ID: "A1", Index: 2, ParentID: ledger.StringPtr("L")})

	entries := s.StagedMoves(ledger.MoveDefinition)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Index)
	assert.Equal(t, "L", entries[0].ParentKey())
}

func TestStore_StagedMovesOrder(t *testing.T) {
	s := NewStore()
	s.StageMove(ledger.MoveDefinition, ledger.IndexEntry{ID: "x", Index: 1, ParentID: ledger.StringPtr("P")})
	s.StageMove(ledger.MoveDefinition, ledger.IndexEntry{ID: "y", Index: 0, ParentID: ledger.StringPtr("P")})
	s.StageMove(ledger.MoveDefinition, ledger.IndexEntry{ID: "r", Index: 3})

	var ids []string
	for _, e := range s.StagedMoves(ledger.MoveDefinition) {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"r", "y", "x"}, ids)
}

func TestStore_StagedSetsAreIndependent(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Dirty())

	s.StageMove(ledger.MoveDefinition, ledger.IndexEntry{ID: "A1"})
	s.StageMove(ledger.MoveAccount, ledger.IndexEntry{ID: "cash", ParentID: ledger.StringPtr("A1")})
	assert.True(t, s.Dirty())
	assert.True(t, s.IsStaged("cash"))

	s.ClearStagedMoves(ledger.MoveDefinition)
	assert.False(t, s.HasStaged(ledger.MoveDefinition))
	assert.True(t, s.HasStaged(ledger.MoveAccount))
	assert.True(t, s.Dirty())

	s.DropStaged(ledger.MoveAccount, "cash", "unknown")
	assert.False(t, s.Dirty())
}

func TestStore_Selection(t *testing.T) {
	s := NewStore()
	s.SetForest(balanceSheet())

	s.SelectNode("A1")
	s.OpenModal(Modal{Mode: ModalUpdate, NodeID: "A1"})
	require.NotNil(t, s.SelectedNode())
	assert.Equal(t, "Current Assets", s.SelectedNode().Name)

	// Closing the form keeps the selection.
	s.CloseModal()
	assert.Nil(t, s.Modal())
	assert.Equal(t, "A1", s.SelectedID())

	// Clearing the selection also closes the form.
	s.OpenModal(Modal{Mode: ModalCreate, NodeID: "A1"})
	s.SelectNode("")
	assert.Nil(t, s.Modal())
	assert.Nil(t, s.SelectedNode())
}

func TestStore_SetForestDropsDanglingSelection(t *testing.T) {
	s := NewStore()
	s.SetForest(balanceSheet())
	s.SelectNode("A2")

	forest, removed := RemoveNode(s.Forest(), "A2")
	require.NotNil(t, removed)
	s.SetForest(forest)

	assert.Empty(t, s.SelectedID())
}

func TestStore_ModalIsCopied(t *testing.T) {
	s := NewStore()
	s.OpenModal(Modal{Mode: ModalCreate})

	m := s.Modal()
	m.NodeID = "mutated"
	assert.Empty(t, s.Modal().NodeID)
}
