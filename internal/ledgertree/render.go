package ledgertree

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ledgerdesk/internal/domain/models/ledger"
)

// RenderOptions controls tree output.
type RenderOptions struct {
	ExpandAll bool // ignore expansion state
	ShowIDs   bool
	Styled    bool // apply terminal colours
}

type renderStyles struct {
	branch   lipgloss.Style
	target   lipgloss.Style
	selected lipgloss.Style
	account  lipgloss.Style
	dirty    lipgloss.Style
	muted    lipgloss.Style
}

func newRenderStyles(styled bool) renderStyles {
	if !styled {
		plain := lipgloss.NewStyle()
		return renderStyles{plain, plain, plain, plain, plain, plain}
	}
	return renderStyles{
		branch:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		target:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		selected: lipgloss.NewStyle().Underline(true),
		account:  lipgloss.NewStyle().Foreground(lipgloss.Color("109")),
		dirty:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
}

// Render draws the forest with box-drawing branches. Roots are always shown;
// a definition's accounts and children are shown when it is expanded.
//
//	▾ Assets
//	├── • 1010 Cash on Hand
//	└── ▸ Current Assets *
func Render(snap Snapshot, opts RenderOptions) string {
	if len(snap.Forest) == 0 {
		return "(empty tree)"
	}

	r := &treeRenderer{snap: snap, opts: opts, styles: newRenderStyles(opts.Styled)}
	var sb strings.Builder
	for _, root := range snap.Forest {
		r.node(&sb, root, 0, ledger.Path{root.ID}, "", true)
	}
	return strings.TrimRight(sb.String(), "\n")
}

type treeRenderer struct {
	snap   Snapshot
	opts   RenderOptions
	styles renderStyles
}

func (r *treeRenderer) expanded(id string) bool {
	return r.opts.ExpandAll || r.snap.Expanded[id]
}

// node renders one definition and recurses into its accounts and children.
// prefix carries the continuation lines of all ancestors.
func (r *treeRenderer) node(sb *strings.Builder, n *ledger.Node, depth int, path ledger.Path, prefix string, last bool) {
	sb.WriteString(r.styles.branch.Render(prefix + branch(depth, last)))

	indicator := " "
	if n.IsDefinition() && (len(n.Children) > 0 || len(n.Accounts) > 0) {
		indicator = "▸"
		if r.expanded(n.ID) {
			indicator = "▾"
		}
	}
	sb.WriteString(indicator + " ")

	label := n.Name
	if n.Type == ledger.NodeTypeAccount {
		label = r.styles.account.Render(label)
	}
	switch {
	case n.ID == r.snap.TargetID:
		label = r.styles.target.Render(label)
	case n.ID == r.snap.SelectedID:
		label = r.styles.selected.Render(label)
	}
	sb.WriteString(label)
	r.suffix(sb, n.ID)
	sb.WriteString("\n")

	if !n.IsDefinition() || !r.expanded(n.ID) {
		return
	}

	childPrefix := prefix + continuation(depth, last)
	total := len(n.Accounts) + len(n.Children)
	for i, acct := range n.Accounts {
		isLast := i == total-1
		sb.WriteString(r.styles.branch.Render(childPrefix + branch(depth+1, isLast)))
		text := "• " + acct.Name
		if acct.Code != "" {
			text = fmt.Sprintf("• %s %s", acct.Code, acct.Name)
		}
		sb.WriteString(r.styles.account.Render(text))
		r.suffix(sb, acct.ID)
		sb.WriteString("\n")
	}
	for i, child := range n.Children {
		isLast := len(n.Accounts)+i == total-1
		r.node(sb, child, depth+1, append(path[:len(path):len(path)], child.ID), childPrefix, isLast)
	}
}

func (r *treeRenderer) suffix(sb *strings.Builder, id string) {
	if r.opts.ShowIDs {
		sb.WriteString(r.styles.muted.Render(" [" + id + "]"))
	}
	if r.snap.Staged[id] {
		sb.WriteString(r.styles.dirty.Render(" *"))
	}
}

func branch(depth int, last bool) string {
	if depth == 0 {
		return ""
	}
	if last {
		return "└── "
	}
	return "├── "
}

func continuation(depth int, last bool) string {
	if depth == 0 {
		return ""
	}
	if last {
		return "    "
	}
	return "│   "
}

// Status renders the one-line save state shown next to the save action.
func Status(snap Snapshot) string {
	defs, accts := len(snap.StagedDefinitions), len(snap.StagedAccounts)
	switch snap.State {
	case StateSaving:
		return fmt.Sprintf("saving (%d definition, %d account changes)", defs, accts)
	case StateDirty:
		return fmt.Sprintf("unsaved: %d definition, %d account changes", defs, accts)
	default:
		if snap.ReadOnly {
			return "read-only"
		}
		return "all changes saved"
	}
}
