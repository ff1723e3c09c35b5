// Package journal implements the file-backed storage layout shared by every
// component: raw log entries under storage/<category>/, the file index and
// profile artifacts under state/, and per-category derived views under
// derived/. Directory names are part of the storage contract.
package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Categories are the fixed log categories.
var Categories = []string{"tasks", "feedback", "events", "goals"}

// ErrEntryExists reports a save that landed on an already-written log file.
// Stored entries are never overwritten.
var ErrEntryExists = errors.New("journal entry already exists")

// Store reads and writes all journal artifacts under a single data root.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) StorageDir() string { return filepath.Join(s.root, "storage") }
func (s *Store) StateDir() string   { return filepath.Join(s.root, "state") }
func (s *Store) DerivedDir() string { return filepath.Join(s.root, "derived") }

func (s *Store) IndexPath() string { return filepath.Join(s.StateDir(), "file_index.json") }

func (s *Store) ProfilePath() string { return filepath.Join(s.StateDir(), "user_profile.txt") }

func (s *Store) ProfileMetaPath() string {
	return filepath.Join(s.StateDir(), "user_profile_meta.json")
}

// SaveEntry writes one log entry at relPath under the storage root, creating
// parent directories as needed. A path that already holds an entry is
// refused with ErrEntryExists.
func (s *Store) SaveEntry(relPath, content string) error {
	target, err := s.resolveEntry(relPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("%w: %s", ErrEntryExists, relPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", relPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("ensure dir for %s: %w", relPath, err)
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", relPath, err)
	}
	return nil
}

// ReadEntry returns the trimmed content of one stored log, or "" when the
// path does not resolve to a readable regular file under the storage root.
// Candidates that try to escape the root are skipped the same way.
func (s *Store) ReadEntry(relPath string) string {
	target, err := s.resolveEntry(relPath)
	if err != nil {
		return ""
	}
	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() {
		return ""
	}
	b, err := os.ReadFile(target)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// ReadAll concatenates the trimmed contents of every stored log across all
// categories, blank-line separated, in category then filename order.
func (s *Store) ReadAll() string {
	var texts []string
	for _, cat := range Categories {
		dir := filepath.Join(s.StorageDir(), cat)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
				continue
			}
			b, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				continue
			}
			content := strings.TrimSpace(string(b))
			if content == "" {
				continue
			}
			texts = append(texts, content)
		}
	}
	return strings.Join(texts, "\n\n")
}

// Profile returns the stored user profile text, "" when absent.
func (s *Store) Profile() string {
	b, err := os.ReadFile(s.ProfilePath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// CleanRel normalizes a relative log path to slash form, without touching
// the filesystem. It mirrors the normalization resolveEntry applies.
func CleanRel(relPath string) string {
	return filepath.ToSlash(filepath.Clean(filepath.FromSlash(relPath)))
}

// resolveEntry maps a relative log path onto the storage root, rejecting
// anything that would escape it.
func (s *Store) resolveEntry(relPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if clean == "." || filepath.IsAbs(clean) ||
		clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid entry path %q", relPath)
	}
	return filepath.Join(s.StorageDir(), clean), nil
}
