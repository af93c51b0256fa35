package llm

import "context"

// Turn is one prior exchange in the conversation history.
type Turn struct {
	Role    string // "human" | "assistant"
	Content string
}

const (
	TurnHuman     = "human"
	TurnAssistant = "assistant"
)

// ChatModel is a callable language model handle.
type ChatModel interface {
	// Stream generates a reply incrementally. Both channels close when
	// generation finishes; errs carries at most one value.
	Stream(ctx context.Context, system string, history []Turn, prompt string) (chunks <-chan string, errs <-chan error)
	// Invoke generates a complete reply in one round trip. Loaders use it
	// as a cheap validation probe before advertising a model.
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
