package providers

import (
	"context"

	"github.com/seekhq/seek/config"
	"github.com/seekhq/seek/internal/llm"
)

// CustomOpenAILoader advertises the operator-configured OpenAI-compatible
// endpoint as a one-model catalog. Inline request credentials still take
// precedence in the resolver.
type CustomOpenAILoader struct{}

func (CustomOpenAILoader) Key() string { return CustomOpenAIKey }

func (CustomOpenAILoader) Info() Info {
	return Info{
		Key:         CustomOpenAIKey,
		DisplayName: "Custom OpenAI",
		Description: "OpenAI-compatible endpoint with inline or configured credentials",
	}
}

func (CustomOpenAILoader) LoadChatModels(ctx context.Context) (map[string]ChatModel, error) {
	cfg := config.Load()
	if cfg.CustomOpenAIAPIKey == "" || cfg.CustomOpenAIAPIURL == "" || cfg.CustomOpenAIModelName == "" {
		return nil, nil
	}

	model := cfg.CustomOpenAIModelName
	return map[string]ChatModel{
		model: {
			DisplayName: model,
			Model:       llm.NewOpenAIChat(cfg.CustomOpenAIAPIKey, cfg.CustomOpenAIAPIURL, model),
		},
	}, nil
}

func (CustomOpenAILoader) LoadEmbeddingModels(ctx context.Context) (map[string]EmbeddingModel, error) {
	return nil, nil
}
