package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/seekhq/seek/config"
	"github.com/seekhq/seek/internal/llm"
)

type OllamaLoader struct{}

func (OllamaLoader) Key() string { return "ollama" }

func (OllamaLoader) Info() Info {
	return Info{
		Key:         "ollama",
		DisplayName: "Ollama",
		Description: "Local Ollama models",
		Website:     "https://ollama.ai",
	}
}

func (OllamaLoader) tags(ctx context.Context) ([]string, error) {
	baseURL := config.Load().OllamaAPIURL

	tctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(tctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API not available: status %d", resp.StatusCode)
	}

	var body struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(body.Models))
	for _, m := range body.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (l OllamaLoader) LoadChatModels(ctx context.Context) (map[string]ChatModel, error) {
	names, err := l.tags(ctx)
	if err != nil {
		return nil, err
	}

	baseURL := config.Load().OllamaAPIURL
	models := make(map[string]ChatModel, len(names))
	for _, name := range names {
		models[name] = ChatModel{
			DisplayName: "Ollama: " + name,
			Model:       llm.NewOllamaChat(baseURL, name),
		}
	}
	return models, nil
}

func (l OllamaLoader) LoadEmbeddingModels(ctx context.Context) (map[string]EmbeddingModel, error) {
	names, err := l.tags(ctx)
	if err != nil {
		return nil, err
	}

	baseURL := config.Load().OllamaAPIURL
	models := map[string]EmbeddingModel{}
	for _, name := range names {
		if !isEmbeddingModelName(name) {
			continue
		}
		models[name] = EmbeddingModel{
			DisplayName: "Ollama: " + name,
			Model:       llm.NewOllamaEmbedder(baseURL, name),
		}
	}
	return models, nil
}

// isEmbeddingModelName matches the model families commonly pulled for
// embedding work; Ollama's tag listing carries no capability metadata.
func isEmbeddingModelName(name string) bool {
	return strings.Contains(name, "embed") ||
		strings.Contains(name, "nomic") ||
		strings.Contains(name, "mxbai")
}
