// Package prefs persists local application preferences. The only setting
// today is the UI language selector, read at startup and written whenever
// the user toggles it.
package prefs

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/kuitang/cloudnotes/internal/i18n"
)

const prefsFileName = "prefs.json"

type persisted struct {
	Language string `json:"language"`
}

// Service stores preferences as a small JSON file under the data directory.
// The afero filesystem is injectable so tests run on a memory fs.
type Service struct {
	fs   afero.Fs
	path string

	mu sync.Mutex
}

// NewService creates a preference store rooted at dataDir.
func NewService(fs afero.Fs, dataDir string) *Service {
	return &Service{
		fs:   fs,
		path: filepath.Join(dataDir, prefsFileName),
	}
}

// Language returns the persisted language selector. A missing or corrupt
// prefs file yields def; startup never fails on preferences.
func (s *Service) Language(def i18n.Lang) i18n.Lang {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return def
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return def
	}
	return i18n.Parse(p.Language, def)
}

// SetLanguage persists the language selector.
func (s *Service) SetLanguage(lang i18n.Lang) error {
	if !lang.Valid() {
		return fmt.Errorf("unsupported language: %q", lang)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create preferences directory: %w", err)
	}
	data, err := json.Marshal(persisted{Language: string(lang)})
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}
