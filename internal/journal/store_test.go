package journal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveEntryAndReadBack(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.SaveEntry("tasks/阅读2026-01-05.txt", "完成阅读任务"); err != nil {
		t.Fatalf("SaveEntry() error = %v", err)
	}
	if got := s.ReadEntry("tasks/阅读2026-01-05.txt"); got != "完成阅读任务" {
		t.Fatalf("ReadEntry() = %q", got)
	}
}

func TestSaveEntryRefusesOverwrite(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.SaveEntry("tasks/a.txt", "one"); err != nil {
		t.Fatalf("first SaveEntry() error = %v", err)
	}
	err := s.SaveEntry("tasks/a.txt", "two")
	if !errors.Is(err, ErrEntryExists) {
		t.Fatalf("second SaveEntry() error = %v, want ErrEntryExists", err)
	}
	if got := s.ReadEntry("tasks/a.txt"); got != "one" {
		t.Fatalf("entry content = %q, want original preserved", got)
	}
}

func TestSaveEntryRejectsEscapingPaths(t *testing.T) {
	s := NewStore(t.TempDir())
	for _, rel := range []string{"../outside.txt", "/abs.txt", "..", "."} {
		if err := s.SaveEntry(rel, "x"); err == nil {
			t.Fatalf("SaveEntry(%q) succeeded, want error", rel)
		}
	}
}

func TestReadEntrySkipsBadCandidates(t *testing.T) {
	s := NewStore(t.TempDir())
	if got := s.ReadEntry("../etc/passwd"); got != "" {
		t.Fatalf("ReadEntry(traversal) = %q, want empty", got)
	}
	if got := s.ReadEntry("tasks/missing.txt"); got != "" {
		t.Fatalf("ReadEntry(missing) = %q, want empty", got)
	}
	// Directories are not entries.
	if err := os.MkdirAll(filepath.Join(s.StorageDir(), "tasks", "dir.txt"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if got := s.ReadEntry("tasks/dir.txt"); got != "" {
		t.Fatalf("ReadEntry(dir) = %q, want empty", got)
	}
}

func TestRebuildIndexScansAllCategories(t *testing.T) {
	s := NewStore(t.TempDir())
	mustSave(t, s, "tasks/b2026-01-02.txt", "b")
	mustSave(t, s, "tasks/a2026-01-01.txt", "a")
	mustSave(t, s, "events/e.txt", "e")

	idx, err := s.RebuildIndex()
	if err != nil {
		t.Fatalf("RebuildIndex() error = %v", err)
	}
	want := []string{"a2026-01-01.txt", "b2026-01-02.txt"}
	if len(idx["tasks"]) != 2 || idx["tasks"][0] != want[0] || idx["tasks"][1] != want[1] {
		t.Fatalf("tasks index = %v, want %v", idx["tasks"], want)
	}
	if len(idx["feedback"]) != 0 || len(idx["goals"]) != 0 {
		t.Fatalf("empty categories should index as empty lists: %v", idx)
	}

	loaded := s.LoadIndex()
	if len(loaded["events"]) != 1 || loaded["events"][0] != "e.txt" {
		t.Fatalf("LoadIndex() events = %v", loaded["events"])
	}
}

func TestLoadIndexToleratesMissingAndCorrupt(t *testing.T) {
	s := NewStore(t.TempDir())
	if idx := s.LoadIndex(); len(idx) != 0 {
		t.Fatalf("LoadIndex() on empty store = %v", idx)
	}
	if err := os.MkdirAll(s.StateDir(), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(s.IndexPath(), []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if idx := s.LoadIndex(); len(idx) != 0 {
		t.Fatalf("LoadIndex() on corrupt file = %v", idx)
	}
}

func TestExtractDate(t *testing.T) {
	cases := []struct {
		filename string
		want     string
		ok       bool
	}{
		{"2026-01-03.txt", "2026-01-03", true},
		{"hiking-trip-2025-12-31-notes.txt", "2025-12-31", true},
		{"香港行程2025-12-31.txt", "2025-12-31", true},
		{"notes.txt", "", false},
		{"9999-99-99.txt", "", false},
	}
	for _, tc := range cases {
		got, ok := ExtractDate(tc.filename)
		if ok != tc.ok {
			t.Fatalf("ExtractDate(%q) ok = %v, want %v", tc.filename, ok, tc.ok)
		}
		if ok && got.Format("2006-01-02") != tc.want {
			t.Fatalf("ExtractDate(%q) = %s, want %s", tc.filename, got.Format("2006-01-02"), tc.want)
		}
	}
}

func TestRebuildDerivedSortsAndFrames(t *testing.T) {
	s := NewStore(t.TempDir())
	mustSave(t, s, "tasks/old2025-01-01.txt", "oldest")
	mustSave(t, s, "tasks/new2026-01-05.txt", "newest")
	mustSave(t, s, "tasks/undated.txt", "undated body")
	mustSave(t, s, "tasks/empty2026-02-02.txt", "   ")

	if err := s.RebuildDerived(); err != nil {
		t.Fatalf("RebuildDerived() error = %v", err)
	}

	view, ok := s.DerivedView("tasks")
	if !ok {
		t.Fatalf("DerivedView(tasks) not ok")
	}
	newIdx := strings.Index(view, "newest")
	oldIdx := strings.Index(view, "oldest")
	undIdx := strings.Index(view, "undated body")
	if newIdx == -1 || oldIdx == -1 || undIdx == -1 {
		t.Fatalf("derived view missing blocks:\n%s", view)
	}
	if !(newIdx < oldIdx && oldIdx < undIdx) {
		t.Fatalf("derived order wrong (new=%d old=%d undated=%d):\n%s", newIdx, oldIdx, undIdx, view)
	}
	if !strings.Contains(view, "===== 2026-01-05 | new2026-01-05.txt =====") {
		t.Fatalf("dated header missing:\n%s", view)
	}
	if !strings.Contains(view, "===== NO_DATE | undated.txt =====") {
		t.Fatalf("undated header missing:\n%s", view)
	}
	if strings.Contains(view, "empty2026-02-02.txt") {
		t.Fatalf("empty file should be skipped:\n%s", view)
	}
}

func TestDerivedViewUnknownCategory(t *testing.T) {
	s := NewStore(t.TempDir())
	if _, ok := s.DerivedView("../../etc/passwd"); ok {
		t.Fatalf("unknown category accepted")
	}
	if view, ok := s.DerivedView("goals"); !ok || view != "" {
		t.Fatalf("missing derived file should read as empty, got (%q, %v)", view, ok)
	}
}

func TestReadAllConcatenates(t *testing.T) {
	s := NewStore(t.TempDir())
	if got := s.ReadAll(); got != "" {
		t.Fatalf("ReadAll() on empty store = %q", got)
	}
	mustSave(t, s, "tasks/a.txt", "task a")
	mustSave(t, s, "goals/g.txt", "goal g")
	got := s.ReadAll()
	if !strings.Contains(got, "task a") || !strings.Contains(got, "goal g") {
		t.Fatalf("ReadAll() = %q", got)
	}
	if !strings.Contains(got, "\n\n") {
		t.Fatalf("ReadAll() should blank-line separate entries: %q", got)
	}
}

func TestProfileMissingIsEmpty(t *testing.T) {
	s := NewStore(t.TempDir())
	if got := s.Profile(); got != "" {
		t.Fatalf("Profile() = %q, want empty", got)
	}
}

func mustSave(t *testing.T, s *Store, rel, content string) {
	t.Helper()
	if err := s.SaveEntry(rel, content); err != nil {
		t.Fatalf("SaveEntry(%q) error = %v", rel, err)
	}
}
