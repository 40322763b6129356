package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerdesk/internal/domain/models/ledger"
	"ledgerdesk/internal/ledgertree"
)

func TestLoadProfile_MissingFileGivesDefaults(t *testing.T) {
	p, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", p.BaseURL)
	assert.Empty(t, p.GroupingID)
}

func TestProfile_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledgerdesk", "profile.yaml")
	want := &Profile{
		BaseURL:    "https://ledger.example.com",
		Token:      "secret",
		GroupingID: "g1",
		Kind:       ledger.GroupingFinancialStatement,
		ReadOnly:   true,
	}
	require.NoError(t, want.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadProfile_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: [unterminated"), 0o600))

	_, err := LoadProfile(path)
	assert.ErrorContains(t, err, "parsing profile")
}

func TestProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr string
	}{
		{"ok", Profile{BaseURL: "http://x", GroupingID: "g1"}, ""},
		{"no base url", Profile{GroupingID: "g1"}, "base_url"},
		{"no grouping", Profile{BaseURL: "http://x"}, "grouping_id"},
		{"bad kind", Profile{BaseURL: "http://x", GroupingID: "g1", Kind: "ledgerish"}, "unknown grouping kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestProfileCommand_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, (&Profile{BaseURL: "http://file", GroupingID: "g-file"}).Save(path))

	root := NewRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"profile", "show", "--profile", path, "--grouping", "g-flag"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "base_url:    http://file")
	assert.Contains(t, out.String(), "grouping_id: g-flag")
}

func TestProfileCommand_Save(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")

	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"profile", "save", "--profile", path, "--base-url", "http://api", "-g", "g9", "--kind", "general_ledger"})
	require.NoError(t, root.Execute())

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://api", p.BaseURL)
	assert.Equal(t, "g9", p.GroupingID)
	assert.Equal(t, ledger.GroupingGeneralLedger, p.Kind)

	root = NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"profile", "save", "--profile", path, "--kind", "weird"})
	assert.Error(t, root.Execute())
}

func TestToastNotifier(t *testing.T) {
	out := &bytes.Buffer{}
	n := NewToastNotifier(out, false)
	n.Notify(ledgertree.Notice{Level: ledgertree.LevelSuccess, Message: "Order saved"})
	n.Notify(ledgertree.Notice{Level: ledgertree.LevelError, Message: "Failed to save order", Err: os.ErrDeadlineExceeded})

	assert.Equal(t, "[success] Order saved\n[error] Failed to save order: "+os.ErrDeadlineExceeded.Error()+"\n", out.String())
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "ledgertree dev (commit: none")
}
