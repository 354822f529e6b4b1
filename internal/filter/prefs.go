package filter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Preferences are the two filter settings that survive restarts. Everything
// else in a Spec is per-view, per-visit state.
type Preferences struct {
	HideCompleted bool    `json:"hideCompleted"`
	GroupBy       GroupBy `json:"groupBy"`
}

func DefaultPreferences() Preferences {
	return Preferences{HideCompleted: false, GroupBy: GroupNone}
}

// ApplyTo folds the persisted preferences into a spec.
func (p Preferences) ApplyTo(spec Spec) Spec {
	spec.HideCompleted = p.HideCompleted
	spec.GroupBy = p.GroupBy
	return spec
}

// PrefStore persists Preferences as a single JSON file. The filesystem is
// abstracted so tests run against an in-memory fs.
type PrefStore struct {
	fs   afero.Fs
	path string
}

func NewPrefStore(fs afero.Fs, path string) *PrefStore {
	return &PrefStore{fs: fs, path: path}
}

// Load reads the stored preferences; a missing file yields defaults.
func (s *PrefStore) Load() (Preferences, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if os.IsNotExist(err) {
		return DefaultPreferences(), nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("read preferences: %w", err)
	}

	var p Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		return Preferences{}, fmt.Errorf("decode preferences: %w", err)
	}
	if p.GroupBy == "" {
		p.GroupBy = GroupNone
	}
	return p, nil
}

func (s *PrefStore) Save(p Preferences) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}
