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

// LM Studio exposes an OpenAI-compatible server; any non-empty key works.
const lmStudioAPIKey = "lm-studio"

type LMStudioLoader struct{}

func (LMStudioLoader) Key() string { return "lmstudio" }

func (LMStudioLoader) Info() Info {
	return Info{
		Key:         "lmstudio",
		DisplayName: "LM Studio",
		Description: "Local LM Studio models",
		Website:     "https://lmstudio.ai",
	}
}

func (LMStudioLoader) listModels(ctx context.Context) ([]string, string, error) {
	baseURL := config.Load().LMStudioAPIURL

	tctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(tctx, http.MethodGet, baseURL+"/v1/models", nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("LM Studio API not available: status %d", resp.StatusCode)
	}

	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, "", err
	}

	ids := make([]string, 0, len(body.Data))
	for _, m := range body.Data {
		ids = append(ids, m.ID)
	}
	return ids, baseURL + "/v1", nil
}

func (l LMStudioLoader) LoadChatModels(ctx context.Context) (map[string]ChatModel, error) {
	ids, apiBase, err := l.listModels(ctx)
	if err != nil {
		return nil, err
	}

	models := make(map[string]ChatModel, len(ids))
	for _, id := range ids {
		models[id] = ChatModel{
			DisplayName: "LM Studio: " + id,
			Model:       llm.NewOpenAIChat(lmStudioAPIKey, apiBase, id),
		}
	}
	return models, nil
}

func (l LMStudioLoader) LoadEmbeddingModels(ctx context.Context) (map[string]EmbeddingModel, error) {
	ids, apiBase, err := l.listModels(ctx)
	if err != nil {
		return nil, err
	}

	models := map[string]EmbeddingModel{}
	for _, id := range ids {
		if !strings.Contains(id, "embed") {
			continue
		}
		models[id] = EmbeddingModel{
			DisplayName: "LM Studio: " + id,
			Model:       llm.NewOpenAIEmbedder(lmStudioAPIKey, apiBase, id),
		}
	}
	return models, nil
}
