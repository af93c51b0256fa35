package providers

import (
	"context"
	"time"

	"github.com/seekhq/seek/config"
	"github.com/seekhq/seek/internal/llm"
)

// probeTimeout bounds the validation round trip so one unreachable
// provider cannot stall a registry refresh.
const probeTimeout = 10 * time.Second

func probeChat(ctx context.Context, m llm.ChatModel) error {
	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	_, err := m.Invoke(pctx, "test")
	return err
}

type OpenAILoader struct{}

func (OpenAILoader) Key() string { return "openai" }

func (OpenAILoader) Info() Info {
	return Info{
		Key:         "openai",
		DisplayName: "OpenAI",
		Description: "OpenAI GPT models",
		Website:     "https://openai.com",
	}
}

func (l OpenAILoader) LoadChatModels(ctx context.Context) (map[string]ChatModel, error) {
	key := config.Load().OpenAIAPIKey
	if key == "" {
		return nil, nil
	}

	if err := probeChat(ctx, llm.NewOpenAIChat(key, "", "gpt-4o-mini")); err != nil {
		return nil, err
	}

	catalog := map[string]string{
		"gpt-4o-mini":   "GPT-4o Mini",
		"gpt-4o":        "GPT-4o",
		"gpt-4-turbo":   "GPT-4 Turbo",
		"gpt-3.5-turbo": "GPT-3.5 Turbo",
	}

	models := make(map[string]ChatModel, len(catalog))
	for id, name := range catalog {
		models[id] = ChatModel{DisplayName: name, Model: llm.NewOpenAIChat(key, "", id)}
	}
	return models, nil
}

func (l OpenAILoader) LoadEmbeddingModels(ctx context.Context) (map[string]EmbeddingModel, error) {
	key := config.Load().OpenAIAPIKey
	if key == "" {
		return nil, nil
	}

	catalog := map[string]string{
		"text-embedding-3-small": "Text Embedding 3 Small",
		"text-embedding-3-large": "Text Embedding 3 Large",
	}

	models := make(map[string]EmbeddingModel, len(catalog))
	for id, name := range catalog {
		models[id] = EmbeddingModel{DisplayName: name, Model: llm.NewOpenAIEmbedder(key, "", id)}
	}
	return models, nil
}
