package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// Settings holds every tunable the server reads at runtime. Values come
// from config.toml when present; environment variables take precedence.
type Settings struct {
	OpenAIAPIKey   string `toml:"OPENAI_API_KEY"`
	GroqAPIKey     string `toml:"GROQ_API_KEY"`
	DeepseekAPIKey string `toml:"DEEPSEEK_API_KEY"`

	OllamaAPIURL   string `toml:"OLLAMA_API_URL"`
	LMStudioAPIURL string `toml:"LM_STUDIO_API_URL"`

	VertexProjectID string `toml:"VERTEX_PROJECT_ID"`
	VertexLocation  string `toml:"VERTEX_LOCATION"`

	CustomOpenAIAPIKey    string `toml:"CUSTOM_OPENAI_API_KEY"`
	CustomOpenAIAPIURL    string `toml:"CUSTOM_OPENAI_API_URL"`
	CustomOpenAIModelName string `toml:"CUSTOM_OPENAI_MODEL_NAME"`
}

const reloadInterval = 5 * time.Minute

var (
	mu       sync.Mutex
	cached   *Settings
	cachedAt time.Time
)

// Load returns the current settings, re-reading config.toml at most once
// per reload interval.
func Load() Settings {
	mu.Lock()
	defer mu.Unlock()

	if cached != nil && time.Since(cachedAt) < reloadInterval {
		return *cached
	}

	s := Settings{
		OllamaAPIURL:   "http://localhost:11434",
		LMStudioAPIURL: "http://localhost:1234",
		VertexLocation: "us-central1",
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = filepath.Join(".", "config.toml")
	}
	if _, err := os.Stat(path); err == nil {
		// Parse errors leave the defaults in place.
		_, _ = toml.DecodeFile(path, &s)
	}

	overrideFromEnv(&s)

	cached = &s
	cachedAt = time.Now()
	return s
}

// Update replaces settings in the cache without touching config.toml.
// Used by the settings endpoint; survives until the next explicit reload.
func Update(apply func(*Settings)) Settings {
	mu.Lock()
	defer mu.Unlock()

	s := Settings{}
	if cached != nil {
		s = *cached
	}
	apply(&s)
	cached = &s
	cachedAt = time.Now()
	return s
}

// ClearCache forces the next Load to re-read the file and environment.
func ClearCache() {
	mu.Lock()
	defer mu.Unlock()
	cached = nil
	cachedAt = time.Time{}
}

func overrideFromEnv(s *Settings) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&s.OpenAIAPIKey, "OPENAI_API_KEY")
	set(&s.GroqAPIKey, "GROQ_API_KEY")
	set(&s.DeepseekAPIKey, "DEEPSEEK_API_KEY")
	set(&s.OllamaAPIURL, "OLLAMA_API_URL")
	set(&s.LMStudioAPIURL, "LM_STUDIO_API_URL")
	set(&s.VertexProjectID, "VERTEX_PROJECT_ID")
	set(&s.VertexLocation, "VERTEX_LOCATION")
	set(&s.CustomOpenAIAPIKey, "CUSTOM_OPENAI_API_KEY")
	set(&s.CustomOpenAIAPIURL, "CUSTOM_OPENAI_API_URL")
	set(&s.CustomOpenAIModelName, "CUSTOM_OPENAI_MODEL_NAME")
}
