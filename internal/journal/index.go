package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Index maps each category to the sorted list of stored log filenames.
type Index map[string][]string

// RebuildIndex scans the storage tree and overwrites state/file_index.json.
// The scan is a full rebuild, not incremental.
func (s *Store) RebuildIndex() (Index, error) {
	idx := make(Index, len(Categories))
	for _, cat := range Categories {
		names := []string{}
		entries, err := os.ReadDir(filepath.Join(s.StorageDir(), cat))
		if err == nil {
			for _, e := range entries {
				if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
					continue
				}
				names = append(names, e.Name())
			}
			sort.Strings(names)
		}
		idx[cat] = names
	}

	if err := os.MkdirAll(s.StateDir(), 0o755); err != nil {
		return nil, fmt.Errorf("ensure state dir: %w", err)
	}
	b, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode file index: %w", err)
	}
	if err := os.WriteFile(s.IndexPath(), b, 0o644); err != nil {
		return nil, fmt.Errorf("write file index: %w", err)
	}
	return idx, nil
}

// LoadIndex reads the persisted index. A missing or corrupt file yields an
// empty index, never an error.
func (s *Store) LoadIndex() Index {
	b, err := os.ReadFile(s.IndexPath())
	if err != nil {
		return Index{}
	}
	var idx Index
	if err := json.Unmarshal(b, &idx); err != nil {
		return Index{}
	}
	return idx
}
