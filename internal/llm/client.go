package llm

import "context"

// Client sends one prompt and returns the model's text, which callers expect
// to be a JSON document.
type Client interface {
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
}
