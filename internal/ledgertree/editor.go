package ledgertree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"ledgerdesk/internal/domain/models/ledger"
	ledgerSvc "ledgerdesk/internal/domain/services/ledger"
)

var (
	ErrReadOnly        = errors.New("tree is read-only")
	ErrSavePending     = errors.New("a save is already in progress")
	ErrNothingToSave   = errors.New("no staged changes to save")
	ErrUnsavedChanges  = errors.New("tree has unsaved order changes")
	ErrOperationActive = errors.New("operation already in flight")
)

// SaveState is the order-persistence state of the tree.
type SaveState int

const (
	StateClean SaveState = iota
	StateDirty
	StateSaving
)

func (s SaveState) String() string {
	switch s {
	case StateDirty:
		return "dirty"
	case StateSaving:
		return "saving"
	default:
		return "clean"
	}
}

// Operation names a remote call that is gated by its own pending flag.
type Operation string

const (
	OpLoad   Operation = "load"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpAttach Operation = "attach"
	OpRemove Operation = "remove"
)

// stagedOps rewrite the staged sets when they complete, so they never
// overlap a save.
var stagedOps = []Operation{OpDelete, OpAttach, OpRemove}

// EditorOptions configures an Editor.
type EditorOptions struct {
	GroupingID string
	Kind       ledger.GroupingKind
	ReadOnly   bool
	Notifier   Notifier
	Logger     *slog.Logger
}

// Editor drives one grouping's tree: search, drag-and-drop reorder,
// explicit order save, and the create/update/delete/connect flows.
//
// Local drags only change the in-memory forest and the staged sets; nothing
// reaches the API until Save. A failed save keeps both the moved forest and
// the staged entries so the user can retry.
type Editor struct {
	api        API
	groupingID string
	kind       ledger.GroupingKind
	notifier   Notifier
	logger     *slog.Logger

	mu      sync.Mutex
	store   *Store
	saving  bool
	pending map[Operation]bool
}

// NewEditor creates an editor over api.
func NewEditor(api API, opts EditorOptions) *Editor {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = discardNotifier{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	kind := opts.Kind
	if kind == "" {
		kind = ledger.GroupingGeneralLedger
	}

	store := NewStore()
	store.SetReadOnly(opts.ReadOnly)

	return &Editor{
		api:        api,
		groupingID: opts.GroupingID,
		kind:       kind,
		notifier:   notifier,
		logger:     logger.With("grouping_id", opts.GroupingID),
		store:      store,
		pending:    make(map[Operation]bool),
	}
}

// Snapshot is a read-only copy of the editor state for rendering.
type Snapshot struct {
	Forest     []*ledger.Node
	SelectedID string
	Modal      *Modal
	Expanded   map[string]bool
	TargetID   string
	Staged     map[string]bool
	State      SaveState
	ReadOnly   bool

	StagedDefinitions []ledger.IndexEntry
	StagedAccounts    []ledger.IndexEntry
}

// Snapshot captures the current state.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Forest:     e.store.Forest(),
		SelectedID: e.store.SelectedID(),
		Modal:      e.store.Modal(),
		Expanded:   make(map[string]bool),
		TargetID:   e.store.TargetID(),
		Staged:     make(map[string]bool),
		State:      e.stateLocked(),
		ReadOnly:   e.store.ReadOnly(),
	}
	snap.StagedDefinitions = e.store.StagedMoves(ledger.MoveDefinition)
	snap.StagedAccounts = e.store.StagedMoves(ledger.MoveAccount)
	for _, id := range e.store.ExpandedIDs() {
		snap.Expanded[id] = true
	}
	for _, entry := range snap.StagedDefinitions {
		snap.Staged[entry.ID] = true
	}
	for _, entry := range snap.StagedAccounts {
		snap.Staged[entry.ID] = true
	}
	return snap
}

// State reports clean, dirty or saving.
func (e *Editor) State() SaveState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Editor) stateLocked() SaveState {
	switch {
	case e.saving:
		return StateSaving
	case e.store.Dirty():
		return StateDirty
	default:
		return StateClean
	}
}

// CanSave reports whether the save action should be enabled.
func (e *Editor) CanSave() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.saving && !e.store.ReadOnly() && e.store.Dirty()
}

// Load fetches the forest. While staged moves exist it refuses unless force
// is set, in which case the staged moves are discarded.
func (e *Editor) Load(ctx context.Context, force bool) error {
	e.mu.Lock()
	if e.saving {
		e.mu.Unlock()
		return ErrSavePending
	}
	if e.store.Dirty() && !force {
		e.mu.Unlock()
		return ErrUnsavedChanges
	}
	if err := e.beginLocked(OpLoad, false); err != nil {
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()
	defer e.end(OpLoad)

	forest, err := e.api.GetTree(ctx, e.groupingID)
	if err != nil {
		e.notifyErr("Failed to load tree", err)
		return fmt.Errorf("load tree: %w", err)
	}

	e.mu.Lock()
	e.store.SetForest(forest)
	if force {
		e.store.ClearStagedMoves(ledger.MoveDefinition)
		e.store.ClearStagedMoves(ledger.MoveAccount)
	}
	e.mu.Unlock()

	e.logger.Debug("tree loaded", "roots", len(forest))
	return nil
}

// Search reveals the first node matching query. A blank query collapses the
// tree without searching. A miss notifies the user and collapses the tree.
func (e *Editor) Search(query string) (ledger.Path, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if strings.TrimSpace(query) == "" {
		e.store.ResetExpansion()
		return nil, false
	}

	path := FindPathByText(e.store.Forest(), strings.TrimSpace(query))
	if path == nil {
		e.store.ResetExpansion()
		e.notifier.Notify(Notice{Level: LevelWarn, Message: fmt.Sprintf("No account or definition matches %q", query)})
		return nil, false
	}
	e.store.ExpandPath(path)
	return path, true
}

// CollapseAll clears expansion and the highlighted target.
func (e *Editor) CollapseAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.ResetExpansion()
}

// Expand reveals a node by id.
func (e *Editor) Expand(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revealLocked(id)
}

// Select targets a node for create-child and edit operations. "" clears the
// selection and closes any open form.
func (e *Editor) Select(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id != "" && FindNode(e.store.Forest(), id) == nil {
		return fmt.Errorf("node %s not in tree", id)
	}
	e.store.SelectNode(id)
	return nil
}

// OpenCreate opens the create form for a child of parentID ("" = root).
func (e *Editor) OpenCreate(parentID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store.ReadOnly() {
		return ErrReadOnly
	}
	if parentID != "" {
		parent := FindNode(e.store.Forest(), parentID)
		if parent == nil {
			return fmt.Errorf("node %s not in tree", parentID)
		}
		if !parent.IsDefinition() {
			return fmt.Errorf("%w: %s cannot hold children", ErrInvalidMove, parent.Name)
		}
	}
	e.store.ResetExpansion()
	e.store.SelectNode(parentID)
	e.store.OpenModal(Modal{Mode: ModalCreate, NodeID: parentID})
	return nil
}

// OpenEdit opens the update form for id.
func (e *Editor) OpenEdit(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store.ReadOnly() {
		return ErrReadOnly
	}
	if FindNode(e.store.Forest(), id) == nil {
		return fmt.Errorf("node %s not in tree", id)
	}
	e.store.SelectNode(id)
	e.store.OpenModal(Modal{Mode: ModalUpdate, NodeID: id})
	return nil
}

// CloseModal closes the form but keeps the selection.
func (e *Editor) CloseModal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.CloseModal()
}

// DragEnd applies a drop locally and stages the resulting index patches.
// Drops that would break the tree are ignored and report false.
func (e *Editor) DragEnd(drop Drop) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.store.ReadOnly() {
		return false, ErrReadOnly
	}
	if e.saving {
		return false, ErrSavePending
	}

	result, err := Move(e.store.Forest(), drop)
	if err != nil {
		if IsInvalidMove(err) {
			e.logger.Debug("drop rejected", "dragged_id", drop.DraggedID, "target_id", drop.DropTargetID, "error", err)
			return false, nil
		}
		return false, err
	}
	if !result.Changed() {
		return false, nil
	}

	e.store.SetForest(result.Forest)
	for _, entry := range result.Entries {
		e.store.StageMove(drop.Kind, entry)
	}
	e.logger.Debug("drop applied",
		"kind", drop.Kind.String(),
		"dragged_id", drop.DraggedID,
		"staged", len(result.Entries),
	)
	return true, nil
}

// Save flushes both staged sets. Each set is cleared only when its own call
// succeeds; a failure leaves that set staged for a manual retry and the
// local forest as it is.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.saving {
		e.mu.Unlock()
		return ErrSavePending
	}
	if e.store.ReadOnly() {
		e.mu.Unlock()
		return ErrReadOnly
	}
	if !e.store.Dirty() {
		e.mu.Unlock()
		return ErrNothingToSave
	}
	for _, op := range stagedOps {
		if e.pending[op] {
			e.mu.Unlock()
			return fmt.Errorf("%s: %w", op, ErrOperationActive)
		}
	}
	batches := map[ledger.MoveKind][]ledger.IndexEntry{
		ledger.MoveDefinition: e.store.StagedMoves(ledger.MoveDefinition),
		ledger.MoveAccount:    e.store.StagedMoves(ledger.MoveAccount),
	}
	e.saving = true
	e.mu.Unlock()

	var errs []error
	for _, kind := range []ledger.MoveKind{ledger.MoveDefinition, ledger.MoveAccount} {
		entries := batches[kind]
		if len(entries) == 0 {
			continue
		}
		if err := e.api.UpdateIndex(ctx, kind, entries); err != nil {
			e.logger.Warn("index update failed", "kind", kind.String(), "entries", len(entries), "error", err)
			errs = append(errs, fmt.Errorf("save %s order: %w", kind, err))
			continue
		}
		e.mu.Lock()
		e.store.ClearStagedMoves(kind)
		e.mu.Unlock()
		e.logger.Info("index updated", "kind", kind.String(), "entries", len(entries))
	}

	e.mu.Lock()
	e.saving = false
	e.mu.Unlock()

	if err := errors.Join(errs...); err != nil {
		e.notifyErr("Failed to save order", err)
		return err
	}
	e.notifier.Notify(Notice{Level: LevelSuccess, Message: "Order saved"})
	return nil
}

// CreateDefinition creates a definition under req.ParentID and reveals it.
func (e *Editor) CreateDefinition(ctx context.Context, req ledgerSvc.CreateDefinitionRequest) (*ledger.Node, error) {
	if err := e.begin(OpCreate, true); err != nil {
		return nil, err
	}
	defer e.end(OpCreate)

	req.GroupingID = e.groupingID
	if req.Type == "" {
		req.Type = ledger.NodeTypeDefinition
	}
	node, err := e.api.CreateDefinition(ctx, &req)
	if err != nil {
		e.notifyErr("Failed to create definition", err)
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	parentID := ""
	if req.ParentID != nil {
		parentID = *req.ParentID
	}
	forest, err := InsertNode(e.store.Forest(), parentID, node)
	if err != nil {
		// The server accepted it; the local tree is stale. Keep what we have.
		e.logger.Warn("created node could not be placed locally", "id", node.ID, "error", err)
	} else {
		e.store.SetForest(forest)
	}
	e.store.CloseModal()
	e.revealLocked(node.ID)
	e.notifier.Notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf("Created %s", node.Name)})
	return node, nil
}

// UpdateDefinition saves name/description/flags and reveals the node.
// Order and children are left untouched.
func (e *Editor) UpdateDefinition(ctx context.Context, id string, req ledgerSvc.UpdateDefinitionRequest) (*ledger.Node, error) {
	if err := e.begin(OpUpdate, true); err != nil {
		return nil, err
	}
	defer e.end(OpUpdate)

	updated, err := e.api.UpdateDefinition(ctx, id, &req)
	if err != nil {
		e.notifyErr("Failed to update definition", err)
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	forest, err := ReplaceNode(e.store.Forest(), id, func(n *ledger.Node) {
		n.Name = updated.Name
		n.Description = updated.Description
		n.ExcludeFromReports = updated.ExcludeFromReports
		n.UpdatedAt = updated.UpdatedAt
	})
	if err == nil {
		e.store.SetForest(forest)
	}
	e.store.CloseModal()
	e.revealLocked(id)
	e.notifier.Notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf("Updated %s", updated.Name)})
	return updated, nil
}

// DeleteDefinition deletes a node remotely, then detaches it locally and
// renumbers its former siblings the way the server does. Staged moves inside
// the removed subtree are forgotten, and a selection or form that pointed
// into it is cleared.
func (e *Editor) DeleteDefinition(ctx context.Context, id string) error {
	if err := e.begin(OpDelete, true); err != nil {
		return err
	}
	defer e.end(OpDelete)

	if err := e.api.DeleteDefinition(ctx, id); err != nil {
		e.notifyErr("Failed to delete definition", err)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	forest, removed := RemoveNode(e.store.Forest(), id)
	if removed == nil {
		return nil
	}
	defIDs, acctIDs := SubtreeIDs(removed)
	e.store.SetForest(forest)
	e.store.DropStaged(ledger.MoveDefinition, defIDs...)
	e.store.DropStaged(ledger.MoveAccount, acctIDs...)
	e.compactLocked(ledger.MoveDefinition, CompactChildren, derefID(removed.ParentID))

	if sel := e.store.SelectedID(); sel != "" && containsID(defIDs, sel) {
		e.store.SelectNode("")
	}
	if m := e.store.Modal(); m != nil && containsID(defIDs, m.NodeID) {
		e.store.CloseModal()
	}
	if containsID(defIDs, e.store.TargetID()) {
		e.store.ResetExpansion()
	}
	e.notifier.Notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf("Deleted %s", removed.Name)})
	return nil
}

// AttachAccount connects an account to a definition and reveals the
// definition. The account is appended after the definition's local accounts
// so an unsaved reorder there stays as shown.
func (e *Editor) AttachAccount(ctx context.Context, definitionID, accountID string) (*ledger.Node, error) {
	if err := e.begin(OpAttach, true); err != nil {
		return nil, err
	}
	defer e.end(OpAttach)

	updated, err := e.api.AttachAccount(ctx, definitionID, accountID)
	if err != nil {
		e.notifyErr("Failed to connect account", err)
		return nil, err
	}

	attached := ledger.Account{ID: accountID}
	if i := accountIndex(updated.Accounts, accountID); i >= 0 {
		attached = updated.Accounts[i]
	}
	attached.DefinitionID = ledger.StringPtr(definitionID)

	e.mu.Lock()
	defer e.mu.Unlock()
	previous, _ := FindAccount(e.store.Forest(), accountID)
	forest, _ := RemoveAccountRef(e.store.Forest(), accountID)
	forest, err = ReplaceNode(forest, definitionID, func(n *ledger.Node) {
		n.Accounts = append(slices.Clone(n.Accounts), attached)
	})
	if err == nil {
		e.store.SetForest(forest)
	}
	e.store.DropStaged(ledger.MoveAccount, accountID)
	if previous != nil && previous.ID != definitionID {
		e.compactLocked(ledger.MoveAccount, CompactAccounts, previous.ID)
	}
	e.compactLocked(ledger.MoveAccount, CompactAccounts, definitionID)
	e.revealLocked(definitionID)
	e.notifier.Notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf("Connected account to %s", updated.Name)})
	return updated, nil
}

// RemoveAccount detaches an account from its definition.
func (e *Editor) RemoveAccount(ctx context.Context, accountID string) (*ledger.Account, error) {
	if err := e.begin(OpRemove, true); err != nil {
		return nil, err
	}
	defer e.end(OpRemove)

	acct, err := e.api.RemoveAccount(ctx, accountID, e.kind)
	if err != nil {
		e.notifyErr("Failed to remove account", err)
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	owner, _ := FindAccount(e.store.Forest(), accountID)
	if forest, ok := RemoveAccountRef(e.store.Forest(), accountID); ok {
		e.store.SetForest(forest)
	}
	e.store.DropStaged(ledger.MoveAccount, accountID)
	if owner != nil {
		e.compactLocked(ledger.MoveAccount, CompactAccounts, owner.ID)
	}
	e.notifier.Notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf("Removed %s", acct.Name)})
	return acct, nil
}

// Pending reports whether op is in flight.
func (e *Editor) Pending(op Operation) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending[op]
}

func (e *Editor) begin(op Operation, mutates bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.beginLocked(op, mutates)
}

func (e *Editor) beginLocked(op Operation, mutates bool) error {
	if mutates && e.store.ReadOnly() {
		return ErrReadOnly
	}
	if e.saving && slices.Contains(stagedOps, op) {
		return ErrSavePending
	}
	if e.pending[op] {
		return fmt.Errorf("%s: %w", op, ErrOperationActive)
	}
	e.pending[op] = true
	return nil
}

func (e *Editor) end(op Operation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.pending, op)
}

// compactLocked renumbers one container after an item left or joined it.
// When the container already holds staged moves, every item in it is staged
// so the next save sets the whole order at once; otherwise the local order
// is the server's order and nothing needs staging.
func (e *Editor) compactLocked(kind ledger.MoveKind, compact func([]*ledger.Node, string) ([]*ledger.Node, []ledger.IndexEntry), containerID string) {
	forest, entries := compact(e.store.Forest(), containerID)
	e.store.SetForest(forest)
	if !slices.ContainsFunc(entries, func(entry ledger.IndexEntry) bool { return e.store.IsStaged(entry.ID) }) {
		return
	}
	for _, entry := range entries {
		e.store.StageMove(kind, entry)
	}
}

func (e *Editor) revealLocked(id string) bool {
	path := FindPathByID(e.store.Forest(), id)
	if path == nil {
		return false
	}
	e.store.ExpandPath(path)
	return true
}

func (e *Editor) notifyErr(message string, err error) {
	e.notifier.Notify(Notice{Level: LevelError, Message: message, Err: err})
}

func derefID(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}

func containsID(ids []string, id string) bool {
	return id != "" && slices.Contains(ids, id)
}
