package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"ledgerdesk/internal/domain/models/ledger"
)

// Profile is the editor's connection settings, read from
// ~/.config/ledgerdesk/profile.yaml and overridden by flags.
type Profile struct {
	BaseURL    string              `yaml:"base_url"`
	Token      string              `yaml:"token"`
	GroupingID string              `yaml:"grouping_id"`
	Kind       ledger.GroupingKind `yaml:"kind,omitempty"`
	ReadOnly   bool                `yaml:"read_only"`
}

// DefaultProfilePath returns the per-user profile location.
func DefaultProfilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(dir, "ledgerdesk", "profile.yaml"), nil
}

// LoadProfile reads a profile. A missing file yields the defaults.
func LoadProfile(path string) (*Profile, error) {
	p := &Profile{BaseURL: "http://localhost:8080"}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return p, nil
}

// Save writes the profile with owner-only permissions since it holds a token.
func (p *Profile) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating profile dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	return nil
}

// Validate checks the fields needed to open an editor.
func (p *Profile) Validate() error {
	if p.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if p.GroupingID == "" {
		return errors.New("grouping_id is required (set it in the profile or pass --grouping)")
	}
	if p.Kind != "" && !p.Kind.Valid() {
		return fmt.Errorf("unknown grouping kind %q", p.Kind)
	}
	return nil
}
