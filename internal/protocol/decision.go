package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecisionType tags the structured decision extracted from raw generation
// output.
type DecisionType string

const (
	TypeLogDraft      DecisionType = "1-1" // free chat: input recognized as a loggable event
	TypeChatReply     DecisionType = "1-2" // free chat: plain conversation
	TypeSaveConfirmed DecisionType = "2-1" // confirmation: save the draft to a file
	TypeDraftRevised  DecisionType = "2-2" // confirmation: revised draft text
	TypeLogAbandoned  DecisionType = "2-3" // confirmation: drop the draft, back to chat
	TypeFileSelection DecisionType = "3-1" // retrieval routing: candidate log files
)

var (
	ErrNoJSON      = errors.New("no JSON object in generation output")
	ErrUnknownType = errors.New("unknown decision type")
)

// Decision is the tagged variant decoded from one generation call. Exactly
// one payload group is populated, depending on Type: Content for
// 1-1/1-2/2-2/2-3, SavePath+SaveText for 2-1, Files for 3-1.
type Decision struct {
	Type     DecisionType
	Content  string
	SavePath string
	SaveText string
	Files    []string
}

type envelope struct {
	Type    DecisionType    `json:"type"`
	Content json.RawMessage `json:"content"`
}

// ParseDecision extracts the single decision object from raw generation
// output. Code-fence markers and commentary around the object are tolerated:
// the span from the first '{' to the last '}' is decoded. The payload shape
// is then validated against the tag. The span selection assumes one
// top-level object; unescaped braces in surrounding commentary can defeat it.
func ParseDecision(raw string) (Decision, error) {
	text := strings.TrimSpace(raw)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return Decision{}, ErrNoJSON
	}

	var env envelope
	if err := json.Unmarshal([]byte(text[start:end+1]), &env); err != nil {
		return Decision{}, fmt.Errorf("decode decision: %w", err)
	}

	d := Decision{Type: env.Type}
	switch env.Type {
	case TypeLogDraft, TypeChatReply, TypeDraftRevised, TypeLogAbandoned:
		if err := json.Unmarshal(env.Content, &d.Content); err != nil {
			return Decision{}, fmt.Errorf("decision %s payload: %w", env.Type, err)
		}
	case TypeSaveConfirmed:
		var pair []string
		if err := json.Unmarshal(env.Content, &pair); err != nil {
			return Decision{}, fmt.Errorf("decision %s payload: %w", env.Type, err)
		}
		if len(pair) != 2 {
			return Decision{}, fmt.Errorf("decision %s payload: want [path, text], got %d elements", env.Type, len(pair))
		}
		d.SavePath, d.SaveText = pair[0], pair[1]
	case TypeFileSelection:
		// An absent file list is a valid empty selection.
		if len(env.Content) > 0 {
			if err := json.Unmarshal(env.Content, &d.Files); err != nil {
				return Decision{}, fmt.Errorf("decision %s payload: %w", env.Type, err)
			}
		}
	default:
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownType, string(env.Type))
	}
	return d, nil
}
