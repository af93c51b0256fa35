package providers

import (
	"context"
	"sync"

	"github.com/seekhq/seek/config"
	"github.com/seekhq/seek/internal/llm"
)

// vertexClient is the slice of the Vertex connection the loader needs.
type vertexClient interface {
	Chat(model string) llm.ChatModel
	Close() error
}

type GeminiLoader struct {
	mu     sync.Mutex
	client vertexClient
	dial   func(ctx context.Context, projectID, location string) (vertexClient, error)
}

func (l *GeminiLoader) Key() string { return "gemini" }

func (l *GeminiLoader) Info() Info {
	return Info{
		Key:         "gemini",
		DisplayName: "Google Gemini",
		Description: "Gemini models via Vertex AI",
		Website:     "https://ai.google.dev",
	}
}

// connect dials Vertex at most once and reuses the client across cache
// refreshes; per-model handles are cheap, the gRPC connection is not.
func (l *GeminiLoader) connect(ctx context.Context, projectID, location string) (vertexClient, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client != nil {
		return l.client, nil
	}

	dial := l.dial
	if dial == nil {
		dial = func(ctx context.Context, projectID, location string) (vertexClient, error) {
			c, err := llm.NewGeminiClient(ctx, projectID, location)
			if err != nil {
				return nil, err
			}
			return geminiVertex{c}, nil
		}
	}

	c, err := dial(ctx, projectID, location)
	if err != nil {
		return nil, err
	}
	l.client = c
	return c, nil
}

type geminiVertex struct{ c *llm.GeminiClient }

func (g geminiVertex) Chat(model string) llm.ChatModel { return g.c.Chat(model) }
func (g geminiVertex) Close() error                    { return g.c.Close() }

func (l *GeminiLoader) LoadChatModels(ctx context.Context) (map[string]ChatModel, error) {
	cfg := config.Load()
	if cfg.VertexProjectID == "" {
		return nil, nil
	}

	client, err := l.connect(ctx, cfg.VertexProjectID, cfg.VertexLocation)
	if err != nil {
		return nil, err
	}

	catalog := map[string]string{
		"gemini-1.5-flash": "Gemini 1.5 Flash",
		"gemini-1.5-pro":   "Gemini 1.5 Pro",
		"gemini-2.0-flash": "Gemini 2.0 Flash",
	}

	models := make(map[string]ChatModel, len(catalog))
	for id, name := range catalog {
		models[id] = ChatModel{DisplayName: name, Model: client.Chat(id)}
	}

	if err := probeChat(ctx, models["gemini-1.5-flash"].Model); err != nil {
		return nil, err
	}
	return models, nil
}

func (l *GeminiLoader) LoadEmbeddingModels(ctx context.Context) (map[string]EmbeddingModel, error) {
	// Vertex text embeddings ride a different API surface (aiplatform
	// prediction); not wired here.
	return nil, nil
}
