package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/seekhq/seek/config"
	"github.com/seekhq/seek/internal/providers"
	"github.com/seekhq/seek/internal/utils"
)

type ConfigHandler struct {
	registry *providers.Registry
	log      *logrus.Logger
}

func NewConfigHandler(registry *providers.Registry, log *logrus.Logger) *ConfigHandler {
	return &ConfigHandler{registry: registry, log: log}
}

type configUpdateBody struct {
	OpenAIAPIKey          *string `json:"openaiApiKey"`
	GroqAPIKey            *string `json:"groqApiKey"`
	DeepseekAPIKey        *string `json:"deepseekApiKey"`
	OllamaAPIURL          *string `json:"ollamaApiUrl"`
	LMStudioAPIURL        *string `json:"lmStudioApiUrl"`
	CustomOpenAIAPIKey    *string `json:"customOpenaiApiKey"`
	CustomOpenAIAPIURL    *string `json:"customOpenaiApiUrl"`
	CustomOpenAIModelName *string `json:"customOpenaiModelName"`
}

// Update serves POST /api/config. Changed credentials invalidate the
// provider cache so the next catalog call re-probes with fresh settings.
func (h *ConfigHandler) Update(c *gin.Context) {
	const op = "ConfigHandler.Update"

	var body configUpdateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	config.Update(func(s *config.Settings) {
		apply := func(dst *string, src *string) {
			if src != nil {
				*dst = *src
			}
		}
		apply(&s.OpenAIAPIKey, body.OpenAIAPIKey)
		apply(&s.GroqAPIKey, body.GroqAPIKey)
		apply(&s.DeepseekAPIKey, body.DeepseekAPIKey)
		apply(&s.OllamaAPIURL, body.OllamaAPIURL)
		apply(&s.LMStudioAPIURL, body.LMStudioAPIURL)
		apply(&s.CustomOpenAIAPIKey, body.CustomOpenAIAPIKey)
		apply(&s.CustomOpenAIAPIURL, body.CustomOpenAIAPIURL)
		apply(&s.CustomOpenAIModelName, body.CustomOpenAIModelName)
	})

	h.registry.ClearCache()
	h.log.Info("configuration updated, provider cache cleared")

	c.JSON(http.StatusOK, gin.H{"message": "config updated"})
}
