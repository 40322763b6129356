package ledgertree

import (
	"errors"
	"fmt"

	"ledgerdesk/internal/domain"
	"ledgerdesk/internal/domain/models/ledger"
)

// ErrInvalidMove marks a drop that would break the tree: a cycle, a drop onto
// an ACCOUNT node, or a container path that does not exist. Such moves are
// rejected whole; nothing is applied and nothing is staged.
var ErrInvalidMove = fmt.Errorf("%w: invalid move", domain.ErrValidation)

// Drop describes the end of a drag: which item left which container and
// where it landed. Containers are addressed by the path of their owning
// definition; an empty path is the root list (definitions only).
type Drop struct {
	Kind         ledger.MoveKind
	SourcePath   ledger.Path
	TargetPath   ledger.Path // nil = same container as SourcePath
	DraggedID    string
	DropTargetID string // sibling whose slot the item takes; "" = append
}

func (d Drop) target() ledger.Path {
	if d.TargetPath == nil {
		return d.SourcePath
	}
	return d.TargetPath
}

// MoveResult is the outcome of a successful Move.
type MoveResult struct {
	Forest  []*ledger.Node
	Entries []ledger.IndexEntry
}

// Changed reports whether the move produced anything to persist.
func (r MoveResult) Changed() bool {
	return len(r.Entries) > 0
}

// Move relocates the dragged item and returns the new forest together with
// an index entry for every sibling whose position changed in the affected
// container(s). The input forest is never modified.
func Move(forest []*ledger.Node, drop Drop) (MoveResult, error) {
	if drop.DraggedID == "" {
		return MoveResult{Forest: forest}, fmt.Errorf("%w: nothing dragged", ErrInvalidMove)
	}
	if drop.DropTargetID == drop.DraggedID {
		return MoveResult{Forest: forest}, fmt.Errorf("%w: %s dropped onto itself", ErrInvalidMove, drop.DraggedID)
	}

	switch drop.Kind {
	case ledger.MoveDefinition:
		return moveDefinition(forest, drop)
	case ledger.MoveAccount:
		return moveAccount(forest, drop)
	default:
		return MoveResult{Forest: forest}, fmt.Errorf("%w: unknown move kind %d", ErrInvalidMove, drop.Kind)
	}
}

func moveDefinition(forest []*ledger.Node, drop Drop) (MoveResult, error) {
	noop := MoveResult{Forest: forest}
	targetPath := drop.target()

	srcOwner, err := resolveOwner(forest, drop.SourcePath)
	if err != nil {
		return noop, err
	}
	dstOwner, err := resolveOwner(forest, targetPath)
	if err != nil {
		return noop, err
	}
	if dstOwner != nil && !dstOwner.IsDefinition() {
		return noop, fmt.Errorf("%w: %s is an account and cannot hold definitions", ErrInvalidMove, dstOwner.ID)
	}

	srcList := forest
	if srcOwner != nil {
		srcList = srcOwner.Children
	}
	from := indexOf(srcList, drop.DraggedID)
	if from < 0 {
		return noop, fmt.Errorf("%w: %s is not in container %v", ErrInvalidMove, drop.DraggedID, drop.SourcePath)
	}
	dragged := srcList[from]

	// Cycle guard: the destination container may not be the dragged node or
	// sit anywhere below it, and the drop target may not be inside it.
	if targetPath.Contains(dragged.ID) {
		return noop, fmt.Errorf("%w: %s cannot be nested under itself", ErrInvalidMove, dragged.ID)
	}
	if drop.DropTargetID != "" && inSubtree(dragged, drop.DropTargetID) {
		return noop, fmt.Errorf("%w: drop target %s is inside %s", ErrInvalidMove, drop.DropTargetID, dragged.ID)
	}

	if drop.SourcePath.Equal(targetPath) {
		to := indexOf(srcList, drop.DropTargetID)
		if to < 0 {
			to = len(srcList) - 1
		}
		reordered := arrayMove(srcList, from, to)
		list, entries := renumber(srcList, reordered, srcOwner, "")
		if len(entries) == 0 {
			return noop, nil
		}
		return MoveResult{Forest: withChildren(forest, drop.SourcePath, list), Entries: entries}, nil
	}

	// Reparent: remove from the source, insert before the target in the
	// destination, and point the node at its new parent. The destination is
	// resolved again after the removal because the two containers can share
	// ancestors.
	srcNew, srcEntries := renumber(srcList, without(srcList, from), srcOwner, "")
	result := withChildren(forest, drop.SourcePath, srcNew)

	dstOwner, err = resolveOwner(result, targetPath)
	if err != nil {
		return noop, err
	}
	dstList := result
	if dstOwner != nil {
		dstList = dstOwner.Children
	}

	moved := dragged.Clone()
	moved.ParentID = nil
	if dstOwner != nil {
		moved.ParentID = ledger.StringPtr(dstOwner.ID)
	}
	at := indexOf(dstList, drop.DropTargetID)
	if at < 0 {
		at = len(dstList)
	}
	dstNew, dstEntries := renumber(dstList, insertAt(dstList, at, moved), dstOwner, moved.ID)

	result = withChildren(result, targetPath, dstNew)
	return MoveResult{Forest: result, Entries: append(srcEntries, dstEntries...)}, nil
}

func moveAccount(forest []*ledger.Node, drop Drop) (MoveResult, error) {
	noop := MoveResult{Forest: forest}
	targetPath := drop.target()
	if len(drop.SourcePath) == 0 || len(targetPath) == 0 {
		return noop, fmt.Errorf("%w: accounts live under a definition", ErrInvalidMove)
	}

	srcOwner, err := resolveOwner(forest, drop.SourcePath)
	if err != nil {
		return noop, err
	}
	dstOwner, err := resolveOwner(forest, targetPath)
	if err != nil {
		return noop, err
	}
	if !dstOwner.IsDefinition() {
		return noop, fmt.Errorf("%w: %s cannot hold accounts", ErrInvalidMove, dstOwner.ID)
	}

	from := accountIndex(srcOwner.Accounts, drop.DraggedID)
	if from < 0 {
		return noop, fmt.Errorf("%w: account %s is not under %s", ErrInvalidMove, drop.DraggedID, srcOwner.ID)
	}

	if srcOwner.ID == dstOwner.ID {
		to := accountIndex(srcOwner.Accounts, drop.DropTargetID)
		if to < 0 {
			to = len(srcOwner.Accounts) - 1
		}
		reordered := arrayMove(srcOwner.Accounts, from, to)
		accounts, entries := renumberAccounts(srcOwner.Accounts, reordered, srcOwner.ID, "")
		if len(entries) == 0 {
			return noop, nil
		}
		updated := withOwner(forest, drop.SourcePath, func(owner *ledger.Node) {
			owner.Accounts = accounts
		})
		return MoveResult{Forest: updated, Entries: entries}, nil
	}

	srcAccounts, srcEntries := renumberAccounts(srcOwner.Accounts, without(srcOwner.Accounts, from), srcOwner.ID, "")
	result := withOwner(forest, drop.SourcePath, func(owner *ledger.Node) {
		owner.Accounts = srcAccounts
	})

	dstOwner, err = resolveOwner(result, targetPath)
	if err != nil {
		return noop, err
	}
	moved := srcOwner.Accounts[from]
	moved.DefinitionID = ledger.StringPtr(dstOwner.ID)
	at := accountIndex(dstOwner.Accounts, drop.DropTargetID)
	if at < 0 {
		at = len(dstOwner.Accounts)
	}
	dstAccounts, dstEntries := renumberAccounts(dstOwner.Accounts, insertAt(dstOwner.Accounts, at, moved), dstOwner.ID, moved.ID)

	result = withOwner(result, targetPath, func(owner *ledger.Node) {
		owner.Accounts = dstAccounts
	})
	return MoveResult{Forest: result, Entries: append(srcEntries, dstEntries...)}, nil
}

// renumber assigns 0-based indices to list and reports an entry for every
// node whose position or stored index changed. forceID is always reported
// because its parent changed.
func renumber(before, after []*ledger.Node, owner *ledger.Node, forceID string) ([]*ledger.Node, []ledger.IndexEntry) {
	var parentID *string
	if owner != nil {
		parentID = ledger.StringPtr(owner.ID)
	}

	out := make([]*ledger.Node, len(after))
	var entries []ledger.IndexEntry
	for i, n := range after {
		out[i] = n
		if n.ID != forceID && indexOf(before, n.ID) == i && n.Index == i {
			continue
		}
		if n.Index != i {
			c := n.Clone()
			c.Index = i
			out[i] = c
		}
		entries = append(entries, ledger.IndexEntry{ID: n.ID, Index: i, ParentID: copyPtr(parentID)})
	}
	return out, entries
}

func renumberAccounts(before, after []ledger.Account, ownerID, forceID string) ([]ledger.Account, []ledger.IndexEntry) {
	out := make([]ledger.Account, len(after))
	var entries []ledger.IndexEntry
	for i, a := range after {
		out[i] = a
		if a.ID != forceID && accountIndex(before, a.ID) == i && a.Index == i {
			continue
		}
		out[i].Index = i
		entries = append(entries, ledger.IndexEntry{ID: a.ID, Index: i, ParentID: ledger.StringPtr(ownerID)})
	}
	return out, entries
}

// arrayMove removes the element at from and reinserts it at to.
func arrayMove[T any](list []T, from, to int) []T {
	item := list[from]
	return insertAt(without(list, from), to, item)
}

func without[T any](list []T, at int) []T {
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:at]...)
	return append(out, list[at+1:]...)
}

func insertAt[T any](list []T, at int, item T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, list[:at]...)
	out = append(out, item)
	return append(out, list[at:]...)
}

func indexOf(list []*ledger.Node, id string) int {
	if id == "" {
		return -1
	}
	for i, n := range list {
		if n != nil && n.ID == id {
			return i
		}
	}
	return -1
}

func accountIndex(list []ledger.Account, id string) int {
	if id == "" {
		return -1
	}
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func copyPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// IsInvalidMove reports whether err is a rejected drop.
func IsInvalidMove(err error) bool {
	return errors.Is(err, ErrInvalidMove)
}
