package providers

import (
	"context"

	"github.com/seekhq/seek/config"
	"github.com/seekhq/seek/internal/llm"
)

const deepseekBaseURL = "https://api.deepseek.com"

type DeepseekLoader struct{}

func (DeepseekLoader) Key() string { return "deepseek" }

func (DeepseekLoader) Info() Info {
	return Info{
		Key:         "deepseek",
		DisplayName: "DeepSeek",
		Description: "DeepSeek chat and coder models",
		Website:     "https://deepseek.com",
	}
}

func (l DeepseekLoader) LoadChatModels(ctx context.Context) (map[string]ChatModel, error) {
	key := config.Load().DeepseekAPIKey
	if key == "" {
		return nil, nil
	}

	if err := probeChat(ctx, llm.NewOpenAIChat(key, deepseekBaseURL, "deepseek-chat")); err != nil {
		return nil, err
	}

	catalog := map[string]string{
		"deepseek-chat":  "DeepSeek Chat",
		"deepseek-coder": "DeepSeek Coder",
	}

	models := make(map[string]ChatModel, len(catalog))
	for id, name := range catalog {
		models[id] = ChatModel{DisplayName: name, Model: llm.NewOpenAIChat(key, deepseekBaseURL, id)}
	}
	return models, nil
}

func (DeepseekLoader) LoadEmbeddingModels(ctx context.Context) (map[string]EmbeddingModel, error) {
	return nil, nil
}
