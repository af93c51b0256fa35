package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/seekhq/seek/internal/cache"
	"github.com/seekhq/seek/internal/providers"
)

const (
	modelsCacheKey = "catalog:models"
	modelsCacheTTL = 30 * time.Second
)

type ModelsHandler struct {
	registry *providers.Registry
	cache    cache.Cache
	log      *logrus.Logger
}

func NewModelsHandler(registry *providers.Registry, c cache.Cache, log *logrus.Logger) *ModelsHandler {
	return &ModelsHandler{registry: registry, cache: c, log: log}
}

type modelEntry struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type modelsResponse struct {
	Providers               []providers.Info        `json:"providers"`
	ChatModelProviders      map[string][]modelEntry `json:"chatModelProviders"`
	EmbeddingModelProviders map[string][]modelEntry `json:"embeddingModelProviders"`
}

// List serves GET /api/models. The response is cached briefly so UI
// polling does not hit the registry snapshot on every request.
func (h *ModelsHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var cached modelsResponse
	if hit, err := h.cache.GetJSON(ctx, modelsCacheKey, &cached); err != nil {
		h.log.WithError(err).Warn("models cache read failed")
	} else if hit {
		c.JSON(http.StatusOK, cached)
		return
	}

	resp := modelsResponse{
		Providers:               h.registry.Infos(),
		ChatModelProviders:      map[string][]modelEntry{},
		EmbeddingModelProviders: map[string][]modelEntry{},
	}

	for provider, set := range h.registry.ChatModels(ctx) {
		entries := make([]modelEntry, 0, len(set))
		for id, m := range set {
			entries = append(entries, modelEntry{Name: id, DisplayName: m.DisplayName})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		resp.ChatModelProviders[provider] = entries
	}
	for provider, set := range h.registry.EmbeddingModels(ctx) {
		entries := make([]modelEntry, 0, len(set))
		for id, m := range set {
			entries = append(entries, modelEntry{Name: id, DisplayName: m.DisplayName})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		resp.EmbeddingModelProviders[provider] = entries
	}

	if err := h.cache.SetJSON(ctx, modelsCacheKey, resp, modelsCacheTTL); err != nil {
		h.log.WithError(err).Warn("models cache write failed")
	}

	c.JSON(http.StatusOK, resp)
}
