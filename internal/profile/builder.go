// Package profile derives the free-text user profile from accumulated logs,
// at most once per calendar day.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/marruell/daybook/internal/journal"
	"github.com/marruell/daybook/internal/llm"
	"github.com/marruell/daybook/internal/observability"
	"github.com/marruell/daybook/internal/protocol"
)

// Placeholder is written when storage holds no readable, non-empty logs.
const Placeholder = "当前暂无足够日志数据生成用户画像。"

type meta struct {
	LastUpdated string `json:"last_updated"`
}

// Builder regenerates the profile artifact, gated by a persisted
// last-updated date marker.
type Builder struct {
	llm     llm.Client
	store   *journal.Store
	prompt  string
	metrics *observability.Metrics

	now func() time.Time
}

func NewBuilder(client llm.Client, store *journal.Store, prompt string, metrics *observability.Metrics) *Builder {
	return &Builder{llm: client, store: store, prompt: prompt, metrics: metrics, now: time.Now}
}

// Rebuild overwrites state/user_profile.txt unless a rebuild already ran
// today. The date marker is written on every run, placeholder path included,
// so repeated triggers within one day are no-ops after the first.
func (b *Builder) Rebuild(ctx context.Context) error {
	if err := os.MkdirAll(b.store.StateDir(), 0o755); err != nil {
		return b.fail(fmt.Errorf("ensure state dir: %w", err))
	}
	if !b.due() {
		b.count("skipped")
		return nil
	}

	logs := b.store.ReadAll()
	if logs == "" {
		if err := os.WriteFile(b.store.ProfilePath(), []byte(Placeholder), 0o644); err != nil {
			return b.fail(fmt.Errorf("write profile placeholder: %w", err))
		}
		if err := b.writeMeta(); err != nil {
			return b.fail(err)
		}
		b.count("placeholder")
		return nil
	}

	text, err := b.llm.Generate(ctx, b.prompt+protocol.LogDataTag(logs))
	if err != nil {
		return b.fail(fmt.Errorf("profile synthesis: %w", err))
	}
	if err := os.WriteFile(b.store.ProfilePath(), []byte(text), 0o644); err != nil {
		return b.fail(fmt.Errorf("write profile: %w", err))
	}
	if err := b.writeMeta(); err != nil {
		return b.fail(err)
	}
	b.count("ok")
	return nil
}

// RebuildAsync runs Rebuild on its own goroutine. Failures are logged and
// never reach the foreground session.
func (b *Builder) RebuildAsync(ctx context.Context) {
	go func() {
		if err := b.Rebuild(ctx); err != nil {
			log.Printf("profile rebuild failed: %v", err)
		}
	}()
}

func (b *Builder) due() bool {
	raw, err := os.ReadFile(b.store.ProfileMetaPath())
	if err != nil {
		return true
	}
	var m meta
	if err := json.Unmarshal(raw, &m); err != nil {
		return true
	}
	last, err := time.Parse("2006-01-02", m.LastUpdated)
	if err != nil {
		return true
	}
	return last.Format("2006-01-02") != b.now().Format("2006-01-02")
}

func (b *Builder) writeMeta() error {
	raw, err := json.MarshalIndent(meta{LastUpdated: b.now().Format("2006-01-02")}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile meta: %w", err)
	}
	if err := os.WriteFile(b.store.ProfileMetaPath(), raw, 0o644); err != nil {
		return fmt.Errorf("write profile meta: %w", err)
	}
	return nil
}

func (b *Builder) fail(err error) error {
	b.count("error")
	return err
}

func (b *Builder) count(label string) {
	if b.metrics != nil {
		b.metrics.ProfileRebuilds.WithLabelValues(label).Inc()
	}
}
