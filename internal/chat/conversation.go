// Package chat implements the two-phase conversation state machine: free
// chat (S1), where each turn may be recognized as a loggable event, and log
// confirmation (S2), where a draft entry is revised until it is saved or
// dropped.
package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/marruell/daybook/internal/journal"
	"github.com/marruell/daybook/internal/llm"
	"github.com/marruell/daybook/internal/observability"
	"github.com/marruell/daybook/internal/prompts"
	"github.com/marruell/daybook/internal/protocol"
)

// State identifies the dialogue phase. The wire values are part of the HTTP
// contract.
type State string

const (
	StateFreeChat   State = "S1"
	StateLogConfirm State = "S2"
)

// SavedReply is the fixed acknowledgement returned after a successful save.
const SavedReply = "好的，该日志已保存！"

// errReply ends any turn whose generation output could not be used. State is
// left untouched so the user can simply retry.
const errReply = "LLM error"

// retrievalMarker prefixes user input that opts into historical-log context.
// A cheap heuristic on the raw text, not a semantic classifier.
const retrievalMarker = "-"

// Message is one dialogue turn kept in the conversation context.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Retriever supplies historical-log context for one input.
type Retriever interface {
	Select(ctx context.Context, userInput string) string
}

// Turn is the structured outcome of one processed input.
type Turn struct {
	Reply    string
	State    State
	DraftLog string
	Saved    bool
}

// Conversation is the per-session state machine. It is not safe for
// concurrent use; callers serialize Step invocations (session.Manager does).
type Conversation struct {
	llm       llm.Client
	retriever Retriever
	store     *journal.Store
	prompts   prompts.Set
	metrics   *observability.Metrics
	timeout   time.Duration

	state   State
	history []Message
	draft   string
	dateTag string
}

func New(client llm.Client, retriever Retriever, store *journal.Store, set prompts.Set, metrics *observability.Metrics, genTimeout time.Duration) *Conversation {
	return &Conversation{
		llm:       client,
		retriever: retriever,
		store:     store,
		prompts:   set,
		metrics:   metrics,
		timeout:   genTimeout,
		state:     StateFreeChat,
		dateTag:   protocol.DateTag(time.Now().Format("2006-01-02")),
	}
}

// Step processes one user input. The returned error is reserved for storage
// failures on a confirmed save; every generation-side failure degrades to an
// "LLM error" reply with no state change.
func (c *Conversation) Step(ctx context.Context, input string) (Turn, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return c.turn(""), nil
	}

	start := time.Now()
	c.history = append(c.history, Message{Role: "user", Content: input})

	var retrieved string
	if wantsRetrieval(input) {
		rs := time.Now()
		rctx, cancel := c.boundedCtx(ctx)
		retrieved = c.retriever.Select(rctx, input)
		cancel()
		c.metrics.ObserveTurnStage("retrieval", time.Since(rs))
	}

	raw, err := c.generate(ctx, c.composePrompt(input, retrieved))
	if err != nil {
		log.Printf("generation failed: %v", err)
		return c.errorTurn("generate_error"), nil
	}

	decision, err := protocol.ParseDecision(raw)
	if err != nil {
		log.Printf("decision parse failed: %v", err)
		return c.errorTurn("parse_error"), nil
	}

	t, err := c.dispatch(decision)
	if err == nil && t.Reply != errReply {
		c.count(string(decision.Type))
	}
	c.metrics.ObserveTurnStage("turn", time.Since(start))
	return t, err
}

func (c *Conversation) State() State { return c.state }

func (c *Conversation) Draft() string { return c.draft }

func (c *Conversation) HistoryLen() int { return len(c.history) }

func (c *Conversation) dispatch(d protocol.Decision) (Turn, error) {
	switch {
	case c.state == StateFreeChat && d.Type == protocol.TypeLogDraft:
		// Draft proposals are not part of the normal dialogue.
		c.popUserTurn()
		c.state = StateLogConfirm
		c.draft = d.Content
		return c.turn(d.Content), nil

	case c.state == StateFreeChat && d.Type == protocol.TypeChatReply:
		c.history = append(c.history, Message{Role: "assistant", Content: d.Content})
		return c.turn(d.Content), nil

	case c.state == StateLogConfirm && d.Type == protocol.TypeSaveConfirmed:
		// A lost save is a correctness violation: storage failures surface
		// as turn errors instead of degraded replies, with state untouched.
		if err := c.store.SaveEntry(d.SavePath, d.SaveText); err != nil {
			return Turn{}, fmt.Errorf("save log entry: %w", err)
		}
		c.popUserTurn()
		c.state = StateFreeChat
		c.draft = ""
		if _, err := c.store.RebuildIndex(); err != nil {
			return Turn{}, fmt.Errorf("rebuild file index: %w", err)
		}
		if err := c.store.RebuildDerived(); err != nil {
			return Turn{}, fmt.Errorf("rebuild derived views: %w", err)
		}
		if c.metrics != nil {
			c.metrics.Saves.Inc()
		}
		t := c.turn(SavedReply)
		t.Saved = true
		return t, nil

	case c.state == StateLogConfirm && d.Type == protocol.TypeDraftRevised:
		c.popUserTurn()
		c.draft = d.Content
		return c.turn(d.Content), nil

	case c.state == StateLogConfirm && d.Type == protocol.TypeLogAbandoned:
		c.history = append(c.history, Message{Role: "assistant", Content: d.Content})
		c.state = StateFreeChat
		c.draft = ""
		return c.turn(d.Content), nil

	default:
		return c.errorTurn("unexpected_decision"), nil
	}
}

// composePrompt assembles the generation prompt for the current state. The
// confirmation prompt carries the pending draft instead of the dialogue
// context; the free-chat prompt carries the dialogue context and the session
// date.
func (c *Conversation) composePrompt(input, retrieved string) string {
	if c.state == StateLogConfirm {
		return retrieved + protocol.DraftTag(c.draft) + c.prompts.LogConfirm + protocol.UserTag(input)
	}
	return retrieved + c.contextText() + c.prompts.FreeChat + c.dateTag + protocol.UserTag(input)
}

// contextText renders the dialogue so far. A single-entry history keeps the
// braced form the prompt templates were tuned against; longer histories use
// one role-prefixed line per turn.
func (c *Conversation) contextText() string {
	if len(c.history) == 1 {
		return fmt.Sprintf("{role: %s, content: %s}", c.history[0].Role, c.history[0].Content)
	}
	lines := make([]string, 0, len(c.history))
	for _, m := range c.history {
		lines = append(lines, m.Role+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// boundedCtx applies the generation timeout. Both generation call sites,
// the turn's own prompt and the retrieval routing call, go through it: a
// stalled completion endpoint must never hold the session lock past the
// timeout.
func (c *Conversation) boundedCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return ctx, func() {}
}

func (c *Conversation) generate(ctx context.Context, prompt string) (string, error) {
	var cancel context.CancelFunc
	ctx, cancel = c.boundedCtx(ctx)
	defer cancel()
	start := time.Now()
	raw, err := c.llm.Generate(ctx, prompt)
	if c.metrics != nil {
		c.metrics.ObserveGenerateLatency(time.Since(start))
	}
	c.metrics.ObserveTurnStage("generate", time.Since(start))
	return raw, err
}

// popUserTurn removes the user turn appended at the start of the current
// step. Draft handling turns never enter the dialogue context.
func (c *Conversation) popUserTurn() {
	if len(c.history) > 0 {
		c.history = c.history[:len(c.history)-1]
	}
}

func (c *Conversation) turn(reply string) Turn {
	return Turn{Reply: reply, State: c.state, DraftLog: c.draft}
}

func (c *Conversation) errorTurn(reason string) Turn {
	c.count(reason)
	return c.turn(errReply)
}

func (c *Conversation) count(outcome string) {
	if c.metrics != nil {
		c.metrics.Turns.WithLabelValues(outcome).Inc()
	}
}

// wantsRetrieval reports whether the input opts into historical-log context.
func wantsRetrieval(input string) bool {
	return strings.HasPrefix(input, retrievalMarker)
}
