package profile

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/marruell/daybook/internal/journal"
	"github.com/marruell/daybook/internal/llm"
	"github.com/marruell/daybook/internal/prompts"
)

func newTestBuilder(t *testing.T, client llm.Client) (*Builder, *journal.Store) {
	t.Helper()
	store := journal.NewStore(t.TempDir())
	return NewBuilder(client, store, prompts.Defaults().UserProfile, nil), store
}

func TestRebuildWritesPlaceholderWithoutLogs(t *testing.T) {
	mock := llm.NewMockClient()
	b, store := newTestBuilder(t, mock)

	if err := b.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if got := store.Profile(); got != Placeholder {
		t.Fatalf("Profile() = %q, want placeholder", got)
	}
	if mock.CallCount() != 0 {
		t.Fatalf("generation called on empty storage")
	}
	if _, err := os.Stat(store.ProfileMetaPath()); err != nil {
		t.Fatalf("meta marker not written: %v", err)
	}
}

func TestRebuildSynthesizesProfile(t *testing.T) {
	mock := llm.NewMockClient("喜欢阅读，有长期读书目标。")
	b, store := newTestBuilder(t, mock)
	if err := store.SaveEntry("tasks/阅读2026-01-05.txt", "完成阅读任务"); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	if err := b.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if got := store.Profile(); got != "喜欢阅读，有长期读书目标。" {
		t.Fatalf("Profile() = %q", got)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("CallCount = %d, want 1", mock.CallCount())
	}
}

func TestRebuildAtMostOncePerDay(t *testing.T) {
	mock := llm.NewMockClient("画像一", "画像二")
	b, store := newTestBuilder(t, mock)
	if err := store.SaveEntry("tasks/a.txt", "x"); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	if err := b.Rebuild(context.Background()); err != nil {
		t.Fatalf("first Rebuild() error = %v", err)
	}
	if err := b.Rebuild(context.Background()); err != nil {
		t.Fatalf("second Rebuild() error = %v", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("CallCount = %d, want 1 (same-day rerun must be a no-op)", mock.CallCount())
	}
	if got := store.Profile(); got != "画像一" {
		t.Fatalf("Profile() = %q, want first synthesis kept", got)
	}

	// A new calendar day makes the rebuild due again.
	b.now = func() time.Time { return time.Now().AddDate(0, 0, 1) }
	if err := b.Rebuild(context.Background()); err != nil {
		t.Fatalf("next-day Rebuild() error = %v", err)
	}
	if got := store.Profile(); got != "画像二" {
		t.Fatalf("Profile() = %q, want refreshed", got)
	}
}

func TestRebuildGenerationFailureKeepsOldProfile(t *testing.T) {
	mock := llm.NewMockClient()
	mock.Fail(errors.New("down"))
	b, store := newTestBuilder(t, mock)
	if err := store.SaveEntry("tasks/a.txt", "x"); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	if err := b.Rebuild(context.Background()); err == nil {
		t.Fatalf("Rebuild() succeeded, want error")
	}
	if got := store.Profile(); got != "" {
		t.Fatalf("Profile() = %q, want unchanged (empty)", got)
	}
	// Failure must not count as the day's rebuild.
	if _, err := os.Stat(store.ProfileMetaPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("meta marker written on failure: %v", err)
	}
}

func TestRebuildToleratesCorruptMeta(t *testing.T) {
	mock := llm.NewMockClient("画像")
	b, store := newTestBuilder(t, mock)
	if err := store.SaveEntry("tasks/a.txt", "x"); err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	if err := os.MkdirAll(store.StateDir(), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(store.ProfileMetaPath(), []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := b.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if got := store.Profile(); got != "画像" {
		t.Fatalf("Profile() = %q", got)
	}
}
