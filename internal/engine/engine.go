package engine

import (
	"context"

	"github.com/seekhq/seek/internal/llm"
)

type EventType string

const (
	EventResponse EventType = "response"
	EventSources  EventType = "sources"
	EventEnd      EventType = "end"
	EventError    EventType = "error"
)

// Source is one retrieval citation attached to an answer.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Event is the tagged union an engine emits while answering. Exactly one
// payload field is meaningful per type; end and error are terminal.
type Event struct {
	Type    EventType
	Delta   string   // response
	Sources []Source // sources; replaces any prior value
	Err     error    // error
}

// Query carries everything an engine needs for one answer.
type Query struct {
	Text               string
	History            []llm.Turn
	Chat               llm.ChatModel
	Embedder           llm.Embedder
	OptimizationMode   string
	FileIDs            []string
	SystemInstructions string
}

// Engine produces an answer as an asynchronous event stream. The
// returned channel closes after a terminal event.
type Engine interface {
	SearchAndAnswer(ctx context.Context, q Query) (<-chan Event, error)
}
