package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTOML(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)
	ClearCache()
	t.Cleanup(ClearCache)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	ClearCache()
	t.Cleanup(ClearCache)

	s := Load()
	assert.Equal(t, "http://localhost:11434", s.OllamaAPIURL)
	assert.Equal(t, "http://localhost:1234", s.LMStudioAPIURL)
	assert.Equal(t, "us-central1", s.VertexLocation)
	assert.Empty(t, s.OpenAIAPIKey)
}

func TestLoadReadsTOML(t *testing.T) {
	writeTOML(t, `
OPENAI_API_KEY = "sk-from-file"
OLLAMA_API_URL = "http://ollama.internal:11434"
`)

	s := Load()
	assert.Equal(t, "sk-from-file", s.OpenAIAPIKey)
	assert.Equal(t, "http://ollama.internal:11434", s.OllamaAPIURL)
}

func TestEnvOverridesFile(t *testing.T) {
	writeTOML(t, `OPENAI_API_KEY = "sk-from-file"`)
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	s := Load()
	assert.Equal(t, "sk-from-env", s.OpenAIAPIKey)
}

func TestLoadCachesUntilCleared(t *testing.T) {
	writeTOML(t, `GROQ_API_KEY = "gsk-one"`)
	require.Equal(t, "gsk-one", Load().GroqAPIKey)

	// A file change is invisible until the cache expires or is cleared.
	path := os.Getenv("CONFIG_FILE")
	require.NoError(t, os.WriteFile(path, []byte(`GROQ_API_KEY = "gsk-two"`), 0o644))
	assert.Equal(t, "gsk-one", Load().GroqAPIKey)

	ClearCache()
	assert.Equal(t, "gsk-two", Load().GroqAPIKey)
}

func TestUpdateReplacesCachedValues(t *testing.T) {
	writeTOML(t, `OPENAI_API_KEY = "sk-before"`)
	require.Equal(t, "sk-before", Load().OpenAIAPIKey)

	Update(func(s *Settings) { s.OpenAIAPIKey = "sk-after" })
	assert.Equal(t, "sk-after", Load().OpenAIAPIKey)
}
