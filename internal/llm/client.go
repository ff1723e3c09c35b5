// Package llm abstracts the text-generation service behind a single
// synchronous call. The conversation core depends only on this signature,
// never on a concrete provider.
package llm

import "context"

// Client produces a completion for one fully composed prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
