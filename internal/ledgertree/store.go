package ledgertree

import (
	"sort"

	"ledgerdesk/internal/domain/models/ledger"
)

// ModalMode says what the create/update form is open for.
type ModalMode int

const (
	ModalCreate ModalMode = iota + 1
	ModalUpdate
)

// Modal is the open form context handed to the presentation shell.
// For ModalCreate NodeID is the parent ("" = root); for ModalUpdate it is
// the node being edited.
type Modal struct {
	Mode   ModalMode
	NodeID string
}

// Store owns the forest, the selection, the staged index patches and the
// expansion state of one tree. It is not safe for concurrent use; Editor
// serialises access to it.
type Store struct {
	forest     []*ledger.Node
	selectedID string
	modal      *Modal
	expanded   map[string]struct{}
	targetID   string
	staged     map[ledger.MoveKind]map[string]ledger.IndexEntry
	readOnly   bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		expanded: make(map[string]struct{}),
		staged: map[ledger.MoveKind]map[string]ledger.IndexEntry{
			ledger.MoveDefinition: {},
			ledger.MoveAccount:    {},
		},
	}
}

// Forest returns the current forest. Callers must treat it as read-only.
func (s *Store) Forest() []*ledger.Node {
	return s.forest
}

// SetForest replaces the forest wholesale. A selection that no longer
// resolves is dropped.
func (s *Store) SetForest(forest []*ledger.Node) {
	s.forest = forest
	if s.selectedID != "" && FindNode(forest, s.selectedID) == nil {
		s.SelectNode("")
	}
}

// SelectNode sets the node targeted by edit/create-child operations.
// An empty id clears the selection and any open modal.
func (s *Store) SelectNode(id string) {
	s.selectedID = id
	if id == "" {
		s.modal = nil
	}
}

// SelectedID returns the selected node id or "".
func (s *Store) SelectedID() string {
	return s.selectedID
}

// SelectedNode resolves the selection against the current forest.
func (s *Store) SelectedNode() *ledger.Node {
	if s.selectedID == "" {
		return nil
	}
	return FindNode(s.forest, s.selectedID)
}

// OpenModal records the form the shell should show.
func (s *Store) OpenModal(m Modal) {
	s.modal = &m
}

// CloseModal clears the form context but keeps the selection.
func (s *Store) CloseModal() {
	s.modal = nil
}

// Modal returns the open form context, or nil.
func (s *Store) Modal() *Modal {
	if s.modal == nil {
		return nil
	}
	m := *s.modal
	return &m
}

// ExpandPath unions path into the expanded set and targets its last id.
func (s *Store) ExpandPath(path ledger.Path) {
	for _, id := range path {
		s.expanded[id] = struct{}{}
	}
	if len(path) > 0 {
		s.targetID = path.Last()
	}
}

// ResetExpansion collapses everything and clears the target.
func (s *Store) ResetExpansion() {
	s.expanded = make(map[string]struct{})
	s.targetID = ""
}

// IsExpanded reports whether id is in the expanded set.
func (s *Store) IsExpanded(id string) bool {
	_, ok := s.expanded[id]
	return ok
}

// ExpandedIDs returns the expanded ids in sorted order.
func (s *Store) ExpandedIDs() []string {
	ids := make([]string, 0, len(s.expanded))
	for id := range s.expanded {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TargetID is the node to scroll to and highlight, or "".
func (s *Store) TargetID() string {
	return s.targetID
}

// StageMove records the latest resolved position of an item. A later entry
// for the same id replaces the earlier one.
func (s *Store) StageMove(kind ledger.MoveKind, entry ledger.IndexEntry) {
	set, ok := s.staged[kind]
	if !ok {
		return
	}
	set[entry.ID] = entry
}

// StagedMoves returns the staged entries of one kind ordered by parent,
// index and id.
func (s *Store) StagedMoves(kind ledger.MoveKind) []ledger.IndexEntry {
	set := s.staged[kind]
	entries := make([]ledger.IndexEntry, 0, len(set))
	for _, e := range set {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.ParentKey() != b.ParentKey() {
			return a.ParentKey() < b.ParentKey()
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.ID < b.ID
	})
	return entries
}

// HasStaged reports whether the set of the given kind is non-empty.
func (s *Store) HasStaged(kind ledger.MoveKind) bool {
	return len(s.staged[kind]) > 0
}

// Dirty reports whether any staged move awaits persistence.
func (s *Store) Dirty() bool {
	return s.HasStaged(ledger.MoveDefinition) || s.HasStaged(ledger.MoveAccount)
}

// IsStaged reports whether id has a pending index patch of either kind.
func (s *Store) IsStaged(id string) bool {
	for _, set := range s.staged {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

// ClearStagedMoves empties one staged set. Call only after the matching
// persistence call succeeded.
func (s *Store) ClearStagedMoves(kind ledger.MoveKind) {
	if _, ok := s.staged[kind]; ok {
		s.staged[kind] = map[string]ledger.IndexEntry{}
	}
}

// DropStaged forgets pending patches for ids that no longer exist.
func (s *Store) DropStaged(kind ledger.MoveKind, ids ...string) {
	set := s.staged[kind]
	for _, id := range ids {
		delete(set, id)
	}
}

// ReadOnly reports whether mutation affordances are disabled.
func (s *Store) ReadOnly() bool {
	return s.readOnly
}

// SetReadOnly toggles the read-only flag.
func (s *Store) SetReadOnly(readOnly bool) {
	s.readOnly = readOnly
}
