package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"ledgerdesk/internal/domain/models/ledger"
	ledgerSvc "ledgerdesk/internal/domain/services/ledger"
	"ledgerdesk/internal/httputil"
	"ledgerdesk/internal/ledgertree"
)

// errQuit ends the read loop
var errQuit = errors.New("quit")

// AccountLister finds accounts to attach. The HTTP client satisfies it.
type AccountLister interface {
	ListAccounts(ctx context.Context, filter ledger.AccountFilter) (*ledger.AccountPage, error)
}

// Shell is the interactive tree editor: each input line is one command
// applied to the Editor.
type Shell struct {
	editor     *ledgertree.Editor
	accounts   AccountLister
	groupingID string
	out        io.Writer
	styled     bool
	showIDs    bool
}

// NewShell creates a shell over editor. accounts may be nil, which
// disables the accounts command.
func NewShell(editor *ledgertree.Editor, accounts AccountLister, groupingID string, out io.Writer, styled bool) *Shell {
	return &Shell{
		editor:     editor,
		accounts:   accounts,
		groupingID: groupingID,
		out:        out,
		styled:     styled,
		showIDs:    true,
	}
}

// Run reads commands until quit, EOF or interrupt.
func (s *Shell) Run(ctx context.Context, rl *readline.Instance) error {
	for {
		rl.SetPrompt(s.prompt())
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return s.warnUnsaved()
		}
		if err != nil {
			return err
		}

		args := ParseArgs(strings.TrimSpace(line))
		if len(args) == 0 {
			continue
		}
		if err := s.Execute(ctx, args); err != nil {
			if errors.Is(err, errQuit) {
				return s.warnUnsaved()
			}
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

func (s *Shell) prompt() string {
	switch s.editor.State() {
	case ledgertree.StateDirty:
		return "ledger* > "
	case ledgertree.StateSaving:
		return "ledger (saving) > "
	default:
		return "ledger > "
	}
}

func (s *Shell) warnUnsaved() error {
	if s.editor.State() == ledgertree.StateDirty {
		fmt.Fprintln(s.out, "warning: leaving with unsaved order changes")
	}
	return nil
}

// ParseArgs splits a line on spaces, keeping double-quoted runs together.
func ParseArgs(input string) []string {
	var args []string
	var current strings.Builder
	inQuotes, quoted := false, false

	for _, r := range input {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			quoted = true
		case r == ' ' && !inQuotes:
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
				quoted = false
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}
	return args
}

// ParsePath reads "A/A1" as a container path. "/" is the root list.
func ParsePath(s string) ledger.Path {
	s = strings.Trim(s, "/")
	if s == "" {
		return ledger.Path{}
	}
	return ledger.Path(strings.Split(s, "/"))
}

// Execute runs one command.
func (s *Shell) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("no command provided")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "show", "ls":
		return s.handleShow(rest)
	case "search", "find":
		return s.handleSearch(rest)
	case "collapse":
		s.editor.CollapseAll()
		return s.handleShow(nil)
	case "select":
		return s.handleSelect(rest)
	case "drag":
		return s.handleDrag(rest)
	case "save":
		return s.handleSave(ctx)
	case "add":
		return s.handleAdd(ctx, rest)
	case "rename":
		return s.handleRename(ctx, rest)
	case "describe":
		return s.handleDescribe(ctx, rest)
	case "delete", "del":
		return s.handleDelete(ctx, rest)
	case "attach":
		return s.handleAttach(ctx, rest)
	case "detach":
		return s.handleDetach(ctx, rest)
	case "accounts":
		return s.handleAccounts(ctx, rest)
	case "reload":
		return s.handleReload(ctx, rest)
	case "status":
		fmt.Fprintln(s.out, ledgertree.Status(s.editor.Snapshot()))
		return nil
	case "staged":
		return s.handleStaged()
	case "help":
		s.printHelp(rest)
		return nil
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command: %s (try help)", cmd)
	}
}

func (s *Shell) handleShow(args []string) error {
	opts := ledgertree.RenderOptions{ShowIDs: s.showIDs, Styled: s.styled}
	for _, a := range args {
		switch a {
		case "all":
			opts.ExpandAll = true
		case "ids":
			s.showIDs = true
			opts.ShowIDs = true
		case "noids":
			s.showIDs = false
			opts.ShowIDs = false
		default:
			return fmt.Errorf("show: unknown option %q", a)
		}
	}
	snap := s.editor.Snapshot()
	fmt.Fprintln(s.out, ledgertree.Render(snap, opts))
	fmt.Fprintln(s.out, ledgertree.Status(snap))
	return nil
}

func (s *Shell) handleSearch(args []string) error {
	query := strings.Join(args, " ")
	path, found := s.editor.Search(query)
	if found {
		fmt.Fprintf(s.out, "found at %s\n", strings.Join(path, "/"))
	}
	return s.handleShow(nil)
}

func (s *Shell) handleSelect(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: select <id|->")
	}
	id := args[0]
	if id == "-" {
		id = ""
	}
	return s.editor.Select(id)
}

// drag <def|acct> <source path> <target path|=> <dragged id> [drop target id]
func (s *Shell) handleDrag(args []string) error {
	if len(args) < 4 || len(args) > 5 {
		return errors.New("usage: drag <def|acct> <source path> <target path|=> <dragged id> [drop target id]")
	}

	drop := ledgertree.Drop{
		SourcePath: ParsePath(args[1]),
		DraggedID:  args[3],
	}
	switch args[0] {
	case "def", "definition":
		drop.Kind = ledger.MoveDefinition
	case "acct", "account":
		drop.Kind = ledger.MoveAccount
	default:
		return fmt.Errorf("drag: unknown kind %q", args[0])
	}
	if args[2] != "=" {
		drop.TargetPath = ParsePath(args[2])
	}
	if len(args) == 5 {
		drop.DropTargetID = args[4]
	}

	applied, err := s.editor.DragEnd(drop)
	if err != nil {
		return err
	}
	if !applied {
		fmt.Fprintln(s.out, "drop ignored")
		return nil
	}
	return s.handleShow(nil)
}

func (s *Shell) handleSave(ctx context.Context) error {
	err := s.editor.Save(ctx)
	if errors.Is(err, ledgertree.ErrNothingToSave) {
		fmt.Fprintln(s.out, "nothing to save")
		return nil
	}
	return err
}

// add <parent id|/> <name> [ACCOUNT]
func (s *Shell) handleAdd(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errors.New("usage: add <parent id|/> <name> [DEFINITION|ACCOUNT]")
	}
	parentID := strings.Trim(args[0], "/")
	if err := s.editor.OpenCreate(parentID); err != nil {
		return err
	}

	req := ledgerSvc.CreateDefinitionRequest{
		ParentID: ledger.StringPtr(parentID),
		Name:     args[1],
		Type:     ledger.NodeTypeDefinition,
	}
	if len(args) == 3 {
		req.Type = ledger.NodeType(strings.ToUpper(args[2]))
		if !req.Type.Valid() {
			s.editor.CloseModal()
			return fmt.Errorf("unknown node type %q", args[2])
		}
	}

	if _, err := s.editor.CreateDefinition(ctx, req); err != nil {
		s.editor.CloseModal()
		return err
	}
	return s.handleShow(nil)
}

func (s *Shell) handleRename(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: rename <id> <name>")
	}
	if err := s.editor.OpenEdit(args[0]); err != nil {
		return err
	}
	name := args[1]
	if _, err := s.editor.UpdateDefinition(ctx, args[0], ledgerSvc.UpdateDefinitionRequest{Name: &name}); err != nil {
		s.editor.CloseModal()
		return err
	}
	return nil
}

// describe <id> [text]; no text clears the description
func (s *Shell) handleDescribe(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: describe <id> [text]")
	}
	if err := s.editor.OpenEdit(args[0]); err != nil {
		return err
	}
	req := ledgerSvc.UpdateDefinitionRequest{Description: httputil.Null()}
	if len(args) == 2 {
		req.Description = httputil.Set(args[1])
	}
	if _, err := s.editor.UpdateDefinition(ctx, args[0], req); err != nil {
		s.editor.CloseModal()
		return err
	}
	return nil
}

func (s *Shell) handleDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delete <id>")
	}
	return s.editor.DeleteDefinition(ctx, args[0])
}

func (s *Shell) handleAttach(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: attach <definition id> <account id>")
	}
	if _, err := s.editor.AttachAccount(ctx, args[0], args[1]); err != nil {
		return err
	}
	return s.handleShow(nil)
}

func (s *Shell) handleDetach(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: detach <account id>")
	}
	_, err := s.editor.RemoveAccount(ctx, args[0])
	return err
}

// accounts [search...] lists unattached accounts
func (s *Shell) handleAccounts(ctx context.Context, args []string) error {
	if s.accounts == nil {
		return errors.New("account listing is not available")
	}
	page, err := s.accounts.ListAccounts(ctx, ledger.AccountFilter{
		GroupingID: s.groupingID,
		Search:     strings.Join(args, " "),
		Unattached: true,
	})
	if err != nil {
		return err
	}
	if len(page.Accounts) == 0 {
		fmt.Fprintln(s.out, "no unattached accounts")
		return nil
	}
	for _, a := range page.Accounts {
		fmt.Fprintf(s.out, "%-12s %-40s [%s]\n", a.Code, a.Name, a.ID)
	}
	if page.Total > len(page.Accounts) {
		fmt.Fprintf(s.out, "... %d more\n", page.Total-len(page.Accounts))
	}
	return nil
}

func (s *Shell) handleReload(ctx context.Context, args []string) error {
	force := len(args) == 1 && args[0] == "force"
	if err := s.editor.Load(ctx, force); err != nil {
		if errors.Is(err, ledgertree.ErrUnsavedChanges) {
			return fmt.Errorf("%w; save first or use 'reload force'", err)
		}
		return err
	}
	return s.handleShow(nil)
}

func (s *Shell) handleStaged() error {
	snap := s.editor.Snapshot()
	list := func(label string, entries []ledger.IndexEntry) {
		for _, e := range entries {
			parent := e.ParentKey()
			if parent == "" {
				parent = "/"
			}
			fmt.Fprintf(s.out, "%-10s %-20s index=%d parent=%s\n", label, e.ID, e.Index, parent)
		}
	}
	list("definition", snap.StagedDefinitions)
	list("account", snap.StagedAccounts)
	if len(snap.StagedDefinitions)+len(snap.StagedAccounts) == 0 {
		fmt.Fprintln(s.out, "no staged changes")
	}
	return nil
}

func (s *Shell) printHelp(args []string) {
	if len(args) == 1 {
		if help, ok := commandHelp[args[0]]; ok {
			fmt.Fprintln(s.out, help)
			return
		}
		fmt.Fprintf(s.out, "Unknown command: %s\n", args[0])
		return
	}

	names := make([]string, 0, len(commandHelp))
	for name := range commandHelp {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(s.out, "Available commands:")
	for _, name := range names {
		fmt.Fprintf(s.out, "  %s\n", name)
	}
	fmt.Fprintln(s.out, "\nUse 'help <command>' for details.")
}

var commandHelp = map[string]string{
	"show": `Syntax: show [all] [ids|noids]
Prints the tree. Collapsed definitions hide their children unless 'all' is given.`,
	"search": `Syntax: search <text>
Expands the path to the first definition or account whose name contains <text>.
An empty search collapses the tree.`,
	"collapse": `Syntax: collapse
Collapses every definition.`,
	"select": `Syntax: select <id|->
Selects a node; '-' clears the selection.`,
	"drag": `Syntax: drag <def|acct> <source path> <target path|=> <dragged id> [drop target id]
Moves a definition or account locally and stages the new order. Paths list
definition ids from the root, e.g. A/A1; '/' is the root list; '=' keeps the
source container. Without a drop target the item goes to the end.
Example: drag def A = A2 A1`,
	"save": `Syntax: save
Sends staged definition and account order to the server.`,
	"staged": `Syntax: staged
Lists staged order changes.`,
	"add": `Syntax: add <parent id|/> <name> [DEFINITION|ACCOUNT]
Creates a node at the end of the parent's children.`,
	"rename": `Syntax: rename <id> <name>`,
	"describe": `Syntax: describe <id> [text]
Sets the description; without text it is cleared.`,
	"delete": `Syntax: delete <id>
Deletes a definition with everything below it. Attached accounts are released.`,
	"attach": `Syntax: attach <definition id> <account id>`,
	"detach": `Syntax: detach <account id>`,
	"accounts": `Syntax: accounts [text]
Lists unattached accounts, optionally filtered by code or name.`,
	"reload": `Syntax: reload [force]
Fetches the tree again. 'force' discards staged order changes.`,
	"status": `Syntax: status`,
	"quit":   `Syntax: quit`,
}
