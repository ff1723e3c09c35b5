package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

var datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// ExtractDate finds the first YYYY-MM-DD substring in a filename. Filenames
// without a parsable date report ok = false.
func ExtractDate(filename string) (time.Time, bool) {
	m := datePattern.FindString(filename)
	if m == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", m)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type derivedEntry struct {
	filename string
	date     time.Time
	dated    bool
	content  string
}

// RebuildDerived regenerates derived/<category>.txt for every category:
// one framed block per log, date-descending, undated entries last, filename
// order within ties. Unreadable and empty files are skipped.
func (s *Store) RebuildDerived() error {
	if err := os.MkdirAll(s.DerivedDir(), 0o755); err != nil {
		return fmt.Errorf("ensure derived dir: %w", err)
	}
	for _, cat := range Categories {
		content := renderDerived(s.collectDerived(cat))
		path := filepath.Join(s.DerivedDir(), cat+".txt")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write derived %s: %w", cat, err)
		}
	}
	return nil
}

// DerivedView returns the rendered view for one category. Unknown
// categories report ok = false; a known category without a derived file
// yields "".
func (s *Store) DerivedView(category string) (string, bool) {
	if !ValidCategory(category) {
		return "", false
	}
	b, err := os.ReadFile(filepath.Join(s.DerivedDir(), category+".txt"))
	if err != nil {
		return "", true
	}
	return string(b), true
}

// ValidCategory reports whether name is one of the fixed log categories.
func ValidCategory(name string) bool {
	for _, cat := range Categories {
		if cat == name {
			return true
		}
	}
	return false
}

func (s *Store) collectDerived(category string) []derivedEntry {
	dir := filepath.Join(s.StorageDir(), category)
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var items []derivedEntry
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".txt" {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			continue
		}
		content := strings.TrimSpace(string(b))
		if content == "" {
			continue
		}
		date, ok := ExtractDate(f.Name())
		items = append(items, derivedEntry{filename: f.Name(), date: date, dated: ok, content: content})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.dated != b.dated {
			return a.dated
		}
		if a.dated && !a.date.Equal(b.date) {
			return a.date.After(b.date)
		}
		return a.filename < b.filename
	})
	return items
}

func renderDerived(items []derivedEntry) string {
	blocks := make([]string, 0, len(items))
	for _, it := range items {
		date := "NO_DATE"
		if it.dated {
			date = it.date.Format("2006-01-02")
		}
		blocks = append(blocks, fmt.Sprintf("===== %s | %s =====\n%s\n", date, it.filename, it.content))
	}
	return strings.Join(blocks, "\n")
}
