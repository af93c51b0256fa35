package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setCustomEndpoint(t *testing.T) {
	t.Helper()
	isolateConfig(t)
	t.Setenv("CUSTOM_OPENAI_API_KEY", "sk-test")
	t.Setenv("CUSTOM_OPENAI_API_URL", "http://localhost:9999/v1")
	t.Setenv("CUSTOM_OPENAI_MODEL_NAME", "my-model")
}

func TestCustomOpenAILoaderFromSettings(t *testing.T) {
	setCustomEndpoint(t)

	models, err := CustomOpenAILoader{}.LoadChatModels(context.Background())
	require.NoError(t, err)
	require.Contains(t, models, "my-model")
	assert.Equal(t, "my-model", models["my-model"].DisplayName)
}

func TestCustomOpenAILoaderRequiresAllSettings(t *testing.T) {
	isolateConfig(t)
	t.Setenv("CUSTOM_OPENAI_API_KEY", "sk-test")
	t.Setenv("CUSTOM_OPENAI_API_URL", "")
	t.Setenv("CUSTOM_OPENAI_MODEL_NAME", "")

	models, err := CustomOpenAILoader{}.LoadChatModels(context.Background())
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestResolveCustomOpenAIFromSettings(t *testing.T) {
	setCustomEndpoint(t)

	// Provider selected without inline credentials resolves through the
	// configured catalog entry.
	reg := NewRegistry(testLogger(), time.Minute,
		CustomOpenAILoader{},
		&fakeLoader{key: "embonly", embedding: embedSet("e")},
	)

	chat, emb, err := reg.Resolve(context.Background(), Selection{ChatProvider: CustomOpenAIKey})
	require.NoError(t, err)
	assert.NotNil(t, chat)
	assert.NotNil(t, emb)
}

func TestInfosNotDuplicatedWithCustomLoader(t *testing.T) {
	reg := NewRegistry(testLogger(), time.Minute, CustomOpenAILoader{})

	infos := reg.Infos()
	require.Len(t, infos, 1)
	assert.Equal(t, CustomOpenAIKey, infos[0].Key)
}
