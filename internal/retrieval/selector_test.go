package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/marruell/daybook/internal/journal"
	"github.com/marruell/daybook/internal/llm"
	"github.com/marruell/daybook/internal/prompts"
)

func newTestSelector(t *testing.T, client llm.Client) (*Selector, *journal.Store) {
	t.Helper()
	store := journal.NewStore(t.TempDir())
	return NewSelector(client, store, prompts.Defaults().FileRouter, nil), store
}

func TestSelectReturnsFramedLogs(t *testing.T) {
	mock := llm.NewMockClient(`{"type":"3-1","content":["tasks/阅读2026-01-05.txt","events/missing.txt"]}`)
	sel, store := newTestSelector(t, mock)
	if err := store.SaveEntry("tasks/阅读2026-01-05.txt", "完成阅读任务"); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	got := sel.Select(context.Background(), "-读书")
	if !strings.Contains(got, "【tasks/阅读2026-01-05.txt】\n完成阅读任务") {
		t.Fatalf("Select() = %q", got)
	}
	if !strings.HasPrefix(got, "<log data>") {
		t.Fatalf("Select() not tagged: %q", got)
	}
	if strings.Contains(got, "missing.txt") {
		t.Fatalf("missing candidate leaked into context: %q", got)
	}
}

func TestSelectWrongTagIsEmpty(t *testing.T) {
	mock := llm.NewMockClient(`{"type":"1-2","content":"不是文件选择"}`)
	sel, _ := newTestSelector(t, mock)
	if got := sel.Select(context.Background(), "-x"); got != "" {
		t.Fatalf("Select() = %q, want empty", got)
	}
}

func TestSelectMalformedOutputIsEmpty(t *testing.T) {
	mock := llm.NewMockClient("完全不是 JSON")
	sel, _ := newTestSelector(t, mock)
	if got := sel.Select(context.Background(), "-x"); got != "" {
		t.Fatalf("Select() = %q, want empty", got)
	}
}

func TestSelectGenerationErrorIsEmpty(t *testing.T) {
	mock := llm.NewMockClient()
	mock.Fail(errors.New("down"))
	sel, _ := newTestSelector(t, mock)
	if got := sel.Select(context.Background(), "-x"); got != "" {
		t.Fatalf("Select() = %q, want empty", got)
	}
}

func TestSelectSkipsTraversalCandidates(t *testing.T) {
	mock := llm.NewMockClient(`{"type":"3-1","content":["../state/user_profile.txt","/etc/hosts"]}`)
	sel, store := newTestSelector(t, mock)
	if err := store.SaveEntry("tasks/a.txt", "safe"); err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	if got := sel.Select(context.Background(), "-x"); got != "" {
		t.Fatalf("Select() = %q, want empty (all candidates invalid)", got)
	}
}

func TestSelectPromptCarriesIndexAndProfile(t *testing.T) {
	mock := llm.NewMockClient(`{"type":"3-1","content":[]}`)
	sel, store := newTestSelector(t, mock)
	if err := store.SaveEntry("goals/目标2026-01-01.txt", "读五十本书"); err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	if _, err := store.RebuildIndex(); err != nil {
		t.Fatalf("rebuild index: %v", err)
	}

	sel.Select(context.Background(), "-目标")

	seen := mock.Prompts()
	if len(seen) != 1 {
		t.Fatalf("prompts = %d, want 1", len(seen))
	}
	if !strings.Contains(seen[0], "<user_input>-目标</user_input>") {
		t.Fatalf("prompt missing user input: %q", seen[0])
	}
	if !strings.Contains(seen[0], "目标2026-01-01.txt") {
		t.Fatalf("prompt missing index entry: %q", seen[0])
	}
	if !strings.Contains(seen[0], "<user profile>") {
		t.Fatalf("prompt missing profile tag: %q", seen[0])
	}
}
