package providers

import (
	"context"

	"github.com/seekhq/seek/internal/llm"
)

// Info describes one provider kind. Static, defined once per loader.
type Info struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Website     string `json:"website,omitempty"`
}

// ChatModel pairs a display name with a callable model handle.
type ChatModel struct {
	DisplayName string
	Model       llm.ChatModel
}

// EmbeddingModel pairs a display name with an embedder handle.
type EmbeddingModel struct {
	DisplayName string
	Model       llm.Embedder
}

// ChatCatalog maps provider key -> model id -> handle.
type ChatCatalog map[string]map[string]ChatModel

// EmbeddingCatalog maps provider key -> model id -> handle.
type EmbeddingCatalog map[string]map[string]EmbeddingModel

// Loader probes one external provider and reports its usable models.
// Returning an error (or panicking) is equivalent to contributing
// nothing; the registry logs and moves on.
type Loader interface {
	Key() string
	Info() Info
	LoadChatModels(ctx context.Context) (map[string]ChatModel, error)
	LoadEmbeddingModels(ctx context.Context) (map[string]EmbeddingModel, error)
}

// CustomOpenAIKey is the reserved provider key resolved from inline
// request credentials instead of a registered loader.
const CustomOpenAIKey = "custom_openai"
