package providers

import (
	"context"
	"fmt"
	"sort"

	"github.com/seekhq/seek/internal/llm"
)

// Selection is a caller's (possibly partial) model choice. Empty fields
// fall back to the first provider/model of the current snapshot, in
// sorted key order so the default is stable until the cache refreshes.
type Selection struct {
	ChatProvider  string
	ChatModel     string
	EmbedProvider string
	EmbedModel    string

	// Inline credentials, honored only when ChatProvider is the
	// reserved custom endpoint key.
	CustomAPIKey  string
	CustomBaseURL string
	CustomModel   string
}

// SelectionError reports which side of a model selection failed and why.
type SelectionError struct {
	Side     string // "chat" | "embedding"
	Provider string
	Model    string
	Reason   string
}

func (e *SelectionError) Error() string {
	if e.Provider == "" && e.Model == "" {
		return fmt.Sprintf("invalid %s model selection: %s", e.Side, e.Reason)
	}
	return fmt.Sprintf("invalid %s model selection %q/%q: %s", e.Side, e.Provider, e.Model, e.Reason)
}

// Resolve turns a Selection into concrete handles against one registry
// snapshot taken at call time.
func (r *Registry) Resolve(ctx context.Context, sel Selection) (llm.ChatModel, llm.Embedder, error) {
	chat, err := r.resolveChat(ctx, sel)
	if err != nil {
		return nil, nil, err
	}
	embedder, err := r.resolveEmbedding(ctx, sel)
	if err != nil {
		return nil, nil, err
	}
	return chat, embedder, nil
}

func (r *Registry) resolveChat(ctx context.Context, sel Selection) (llm.ChatModel, error) {
	if sel.ChatProvider == CustomOpenAIKey {
		switch {
		case sel.CustomAPIKey != "" && sel.CustomBaseURL != "" && sel.CustomModel != "":
			return llm.NewOpenAIChat(sel.CustomAPIKey, sel.CustomBaseURL, sel.CustomModel), nil
		case sel.CustomAPIKey != "" || sel.CustomBaseURL != "":
			return nil, &SelectionError{
				Side:     "chat",
				Provider: CustomOpenAIKey,
				Reason:   "api key, base URL and model name are all required",
			}
		}
		// No inline credentials: fall through to the catalog entry the
		// operator may have configured.
	}

	catalog := r.ChatModels(ctx)
	if len(catalog) == 0 {
		return nil, &SelectionError{Side: "chat", Reason: "no chat model providers available"}
	}

	provider := sel.ChatProvider
	if provider == "" {
		provider = firstKey(catalog)
	}
	modelSet, ok := catalog[provider]
	if !ok {
		return nil, &SelectionError{Side: "chat", Provider: provider, Reason: "unknown provider"}
	}

	modelID := sel.ChatModel
	if modelID == "" {
		modelID = firstKey(modelSet)
	}
	handle, ok := modelSet[modelID]
	if !ok {
		return nil, &SelectionError{Side: "chat", Provider: provider, Model: modelID, Reason: "unknown model"}
	}
	return handle.Model, nil
}

func (r *Registry) resolveEmbedding(ctx context.Context, sel Selection) (llm.Embedder, error) {
	catalog := r.EmbeddingModels(ctx)
	if len(catalog) == 0 {
		return nil, &SelectionError{Side: "embedding", Reason: "no embedding model providers available"}
	}

	provider := sel.EmbedProvider
	if provider == "" {
		provider = firstKey(catalog)
	}
	modelSet, ok := catalog[provider]
	if !ok {
		return nil, &SelectionError{Side: "embedding", Provider: provider, Reason: "unknown provider"}
	}

	modelID := sel.EmbedModel
	if modelID == "" {
		modelID = firstKey(modelSet)
	}
	handle, ok := modelSet[modelID]
	if !ok {
		return nil, &SelectionError{Side: "embedding", Provider: provider, Model: modelID, Reason: "unknown model"}
	}
	return handle.Model, nil
}

func firstKey[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}
