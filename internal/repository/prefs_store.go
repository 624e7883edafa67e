package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"safewarner"
)

// PrefsFile persists preferences as a small JSON file. A missing or
// unreadable file yields zero-value preferences: every toggle defaults to
// disabled, and in-memory state stays authoritative.
type PrefsFile struct {
	path string
}

func NewPrefsFile(path string) *PrefsFile { return &PrefsFile{path: path} }

// Load reads the preferences file. Missing file is not an error; a corrupt
// file returns defaults together with the parse error so the caller can log.
func (p *PrefsFile) Load() (safewarner.Preferences, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return safewarner.Preferences{}, nil
		}
		return safewarner.Preferences{}, fmt.Errorf("read prefs %q: %w", p.path, err)
	}

	var prefs safewarner.Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return safewarner.Preferences{}, fmt.Errorf("parse prefs %q: %w", p.path, err)
	}
	return prefs, nil
}

// Save rewrites the whole file. Written via a temp file and rename so a
// crash mid-write can't leave a truncated file behind.
func (p *PrefsFile) Save(prefs safewarner.Preferences) error {
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	dir := filepath.Dir(p.path)
	tmp, err := os.CreateTemp(dir, ".prefs-*")
	if err != nil {
		return fmt.Errorf("create temp prefs file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close prefs: %w", err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace prefs %q: %w", p.path, err)
	}
	return nil
}
