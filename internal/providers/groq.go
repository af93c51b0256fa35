package providers

import (
	"context"

	"github.com/seekhq/seek/config"
	"github.com/seekhq/seek/internal/llm"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

type GroqLoader struct{}

func (GroqLoader) Key() string { return "groq" }

func (GroqLoader) Info() Info {
	return Info{
		Key:         "groq",
		DisplayName: "Groq",
		Description: "Fast Groq inference models",
		Website:     "https://groq.com",
	}
}

func (l GroqLoader) LoadChatModels(ctx context.Context) (map[string]ChatModel, error) {
	key := config.Load().GroqAPIKey
	if key == "" {
		return nil, nil
	}

	if err := probeChat(ctx, llm.NewOpenAIChat(key, groqBaseURL, "llama3-8b-8192")); err != nil {
		return nil, err
	}

	catalog := map[string]string{
		"llama3-8b-8192":     "Llama 3 8B",
		"llama3-70b-8192":    "Llama 3 70B",
		"mixtral-8x7b-32768": "Mixtral 8x7B",
		"gemma-7b-it":        "Gemma 7B",
	}

	models := make(map[string]ChatModel, len(catalog))
	for id, name := range catalog {
		models[id] = ChatModel{DisplayName: name, Model: llm.NewOpenAIChat(key, groqBaseURL, id)}
	}
	return models, nil
}

func (GroqLoader) LoadEmbeddingModels(ctx context.Context) (map[string]EmbeddingModel, error) {
	// Groq serves no embedding endpoint.
	return nil, nil
}
