package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"ledgerdesk/internal/buildinfo"
	"ledgerdesk/internal/client"
	"ledgerdesk/internal/domain/models/ledger"
	"ledgerdesk/internal/ledgertree"
)

type rootFlags struct {
	profilePath string
	baseURL     string
	token       string
	groupingID  string
	kind        string
	readOnly    bool
	verbose     bool
	noColor     bool
}

// NewRootCommand builds the ledgertree command tree.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:     "ledgertree",
		Short:   "Edit ledger definition trees from the terminal",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.profilePath, "profile", "", "profile file (default: user config dir)")
	pf.StringVar(&flags.baseURL, "base-url", "", "API base URL")
	pf.StringVar(&flags.token, "token", "", "bearer token")
	pf.StringVarP(&flags.groupingID, "grouping", "g", "", "grouping id")
	pf.StringVar(&flags.kind, "kind", "", "grouping kind: general_ledger or financial_statement")
	pf.BoolVar(&flags.readOnly, "read-only", false, "disable drag and save")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging to stderr")
	pf.BoolVar(&flags.noColor, "no-color", false, "plain output")

	root.AddCommand(
		newEditCommand(flags),
		newTreeCommand(flags),
		newGroupingsCommand(flags),
		newProfileCommand(flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "ledgertree %s\n", root.Version)
			},
		},
	)
	return root
}

// Execute runs the root command against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (f *rootFlags) resolvedProfilePath() (string, error) {
	if f.profilePath != "" {
		return f.profilePath, nil
	}
	return DefaultProfilePath()
}

// profile loads the profile file and applies flag overrides
func (f *rootFlags) profile(cmd *cobra.Command) (*Profile, error) {
	path, err := f.resolvedProfilePath()
	if err != nil {
		return nil, err
	}
	p, err := LoadProfile(path)
	if err != nil {
		return nil, err
	}
	pf := cmd.Flags()
	if pf.Changed("base-url") {
		p.BaseURL = f.baseURL
	}
	if pf.Changed("token") {
		p.Token = f.token
	}
	if pf.Changed("grouping") {
		p.GroupingID = f.groupingID
	}
	if pf.Changed("kind") {
		p.Kind = ledger.GroupingKind(f.kind)
	}
	if pf.Changed("read-only") {
		p.ReadOnly = f.readOnly
	}
	if p.Token == "" {
		p.Token = os.Getenv("LEDGERDESK_TOKEN")
	}
	return p, nil
}

func (f *rootFlags) logger() *slog.Logger {
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (f *rootFlags) styled(out io.Writer) bool {
	if f.noColor {
		return false
	}
	file, ok := out.(*os.File)
	return ok && readline.IsTerminal(int(file.Fd()))
}

// openEditor connects to the API and loads the grouping's tree
func (f *rootFlags) openEditor(cmd *cobra.Command, out io.Writer) (*ledgertree.Editor, *client.Client, *Profile, error) {
	p, err := f.profile(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, nil, nil, err
	}

	api := client.New(p.BaseURL, p.Token)
	editor := ledgertree.NewEditor(api, ledgertree.EditorOptions{
		GroupingID: p.GroupingID,
		Kind:       p.Kind,
		ReadOnly:   p.ReadOnly,
		Notifier:   NewToastNotifier(out, f.styled(out)),
		Logger:     f.logger(),
	})
	if err := editor.Load(cmd.Context(), false); err != nil {
		return nil, nil, nil, err
	}
	return editor, api, p, nil
}

func newEditCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open an interactive editor on a grouping's tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			editor, api, p, err := flags.openEditor(cmd, out)
			if err != nil {
				return err
			}

			historyFile := ""
			if path, err := flags.resolvedProfilePath(); err == nil {
				historyFile = filepath.Join(filepath.Dir(path), "history")
			}
			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "ledger > ",
				HistoryFile:     historyFile,
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
				Stdout:          out,
			})
			if err != nil {
				return fmt.Errorf("initializing readline: %w", err)
			}
			defer rl.Close()

			shell := NewShell(editor, api, p.GroupingID, out, flags.styled(out))
			if err := shell.Execute(cmd.Context(), []string{"show"}); err != nil {
				return err
			}
			return shell.Run(cmd.Context(), rl)
		},
	}
}

func newTreeCommand(flags *rootFlags) *cobra.Command {
	var showIDs bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print a grouping's tree fully expanded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			editor, _, _, err := flags.openEditor(cmd, out)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ledgertree.Render(editor.Snapshot(), ledgertree.RenderOptions{
				ExpandAll: true,
				ShowIDs:   showIDs,
				Styled:    flags.styled(out),
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showIDs, "ids", false, "show node ids")
	return cmd
}

func newGroupingsCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "groupings",
		Short: "List your groupings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.profile(cmd)
			if err != nil {
				return err
			}
			groupings, err := client.New(p.BaseURL, p.Token).ListGroupings(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, g := range groupings {
				marker := " "
				if g.ID == p.GroupingID {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-36s %-20s %s\n", marker, g.ID, g.Kind, g.Name)
			}
			return nil
		},
	}
}

func newProfileCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or save connection settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.profile(cmd)
			if err != nil {
				return err
			}
			token := "(none)"
			if p.Token != "" {
				token = "(set)"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "base_url:    %s\n", p.BaseURL)
			fmt.Fprintf(out, "token:       %s\n", token)
			fmt.Fprintf(out, "grouping_id: %s\n", p.GroupingID)
			fmt.Fprintf(out, "kind:        %s\n", p.Kind)
			fmt.Fprintf(out, "read_only:   %t\n", p.ReadOnly)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "Write the flags given on this command line to the profile file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.profile(cmd)
			if err != nil {
				return err
			}
			if p.Kind != "" && !p.Kind.Valid() {
				return fmt.Errorf("unknown grouping kind %q", p.Kind)
			}
			path, err := flags.resolvedProfilePath()
			if err != nil {
				return err
			}
			if err := p.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", path)
			return nil
		},
	})
	return cmd
}

var _ AccountLister = (*client.Client)(nil)

