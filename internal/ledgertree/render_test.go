package ledgertree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerdesk/internal/domain/models/ledger"
)

func TestRender_Expanded(t *testing.T) {
	e, _ := newTestEditor(t, newFakeAPI(balanceSheet()), EditorOptions{})
	_, found := e.Search("cash")
	require.True(t, found)

	want := strings.Join([]string{
		"▾ Assets",
		"├── ▾ Current Assets",
		"│   ├── • 1010 Cash on Hand",
		"│   ├── • 1020 Bank",
		"│   └──   Petty Cash Funds",
		"├──   Fixed Assets",
		"└──   Deferred Charges",
		"▸ Liabilities",
	}, "\n")
	assert.Equal(t, want, Render(e.Snapshot(), RenderOptions{}))
}

func TestRender_IDsAndStagedMarkers(t *testing.T) {
	e, _ := newTestEditor(t, newFakeAPI(balanceSheet()), EditorOptions{})
	_, err := e.DragEnd(Drop{Kind: ledger.MoveDefinition, DraggedID: "L", DropTargetID: "A"})
	require.NoError(t, err)

	out := Render(e.Snapshot(), RenderOptions{ShowIDs: true})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "▸ Liabilities [L] *", lines[0])
	assert.Equal(t, "▸ Assets [A] *", lines[1])
}

func TestRender_ExpandAll(t *testing.T) {
	out := Render(Snapshot{Forest: balanceSheet()}, RenderOptions{ExpandAll: true})
	assert.Contains(t, out, "    └── • 2010 Accounts Payable")
	assert.Equal(t, 10, strings.Count(out, "\n")+1)
}

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, "(empty tree)", Render(Snapshot{}, RenderOptions{}))
}

func TestStatus(t *testing.T) {
	entry := []ledger.IndexEntry{{ID: "x"}}

	tests := []struct {
		name string
		snap Snapshot
		want string
	}{
		{"clean", Snapshot{}, "all changes saved"},
		{"read-only", Snapshot{ReadOnly: true}, "read-only"},
		{"dirty", Snapshot{State: StateDirty, StagedDefinitions: entry}, "unsaved: 1 definition, 0 account changes"},
		{"saving", Snapshot{State: StateSaving, StagedAccounts: entry}, "saving (0 definition, 1 account changes)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.snap))
		})
	}
}
