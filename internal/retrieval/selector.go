// Package retrieval selects historical logs relevant to the current input
// and renders them as context for the main conversation prompt.
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/marruell/daybook/internal/journal"
	"github.com/marruell/daybook/internal/llm"
	"github.com/marruell/daybook/internal/observability"
	"github.com/marruell/daybook/internal/protocol"
)

// Selector asks the generation service to route the current input to a
// subset of stored log files.
type Selector struct {
	llm     llm.Client
	store   *journal.Store
	prompt  string
	metrics *observability.Metrics
}

func NewSelector(client llm.Client, store *journal.Store, prompt string, metrics *observability.Metrics) *Selector {
	return &Selector{llm: client, store: store, prompt: prompt, metrics: metrics}
}

// Select returns the framed contents of the stored logs the generation
// service considers relevant to userInput. Every failure mode (generation
// error, malformed output, wrong tag, bad candidate paths) degrades to "":
// retrieval is best-effort context enrichment, never a turn error.
func (s *Selector) Select(ctx context.Context, userInput string) string {
	profile := s.store.Profile()
	indexJSON, err := json.Marshal(s.store.LoadIndex())
	if err != nil {
		return s.outcome("index_error")
	}

	prompt := s.prompt +
		protocol.UserTag(userInput) +
		protocol.FileListTag(string(indexJSON)) +
		protocol.ProfileTag(profile)

	raw, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return s.outcome("generate_error")
	}

	decision, err := protocol.ParseDecision(raw)
	if err != nil || decision.Type != protocol.TypeFileSelection {
		return s.outcome("malformed")
	}

	chunks := make([]string, 0, len(decision.Files))
	for _, rel := range decision.Files {
		content := s.store.ReadEntry(rel)
		if content == "" {
			continue
		}
		chunks = append(chunks, fmt.Sprintf("【%s】\n%s", journal.CleanRel(rel), content))
	}
	if len(chunks) == 0 {
		return s.outcome("empty")
	}

	s.count("hit")
	return protocol.LogDataTag(strings.Join(chunks, "\n\n"))
}

func (s *Selector) outcome(label string) string {
	s.count(label)
	return ""
}

func (s *Selector) count(label string) {
	if s.metrics != nil {
		s.metrics.Retrievals.WithLabelValues(label).Inc()
	}
}
