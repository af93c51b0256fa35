package providers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekhq/seek/internal/llm"
)

type stubChatModel struct{ reply string }

func (m stubChatModel) Stream(ctx context.Context, system string, history []llm.Turn, prompt string) (<-chan string, <-chan error) {
	out := make(chan string, 1)
	errs := make(chan error)
	out <- m.reply
	close(out)
	close(errs)
	return out, errs
}

func (m stubChatModel) Invoke(ctx context.Context, prompt string) (string, error) {
	return m.reply, nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type fakeLoader struct {
	key       string
	chat      map[string]ChatModel
	embedding map[string]EmbeddingModel
	err       error
	panics    bool
	calls     atomic.Int32
}

func (l *fakeLoader) Key() string { return l.key }

func (l *fakeLoader) Info() Info {
	return Info{Key: l.key, DisplayName: l.key}
}

func (l *fakeLoader) LoadChatModels(ctx context.Context) (map[string]ChatModel, error) {
	l.calls.Add(1)
	if l.panics {
		panic("loader exploded")
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.chat, nil
}

func (l *fakeLoader) LoadEmbeddingModels(ctx context.Context) (map[string]EmbeddingModel, error) {
	if l.panics {
		panic("loader exploded")
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.embedding, nil
}

func chatSet(ids ...string) map[string]ChatModel {
	out := map[string]ChatModel{}
	for _, id := range ids {
		out[id] = ChatModel{DisplayName: id, Model: stubChatModel{reply: id}}
	}
	return out
}

func embedSet(ids ...string) map[string]EmbeddingModel {
	out := map[string]EmbeddingModel{}
	for _, id := range ids {
		out[id] = EmbeddingModel{DisplayName: id, Model: stubEmbedder{}}
	}
	return out
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestRegistryCachesWithinTTL(t *testing.T) {
	loader := &fakeLoader{key: "p", chat: chatSet("m"), embedding: embedSet("e")}
	reg := NewRegistry(testLogger(), time.Minute, loader)

	first := reg.ChatModels(context.Background())
	second := reg.ChatModels(context.Background())

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, loader.calls.Load(), "loader must not be re-invoked within the TTL")
}

func TestRegistryReloadsAfterExpiry(t *testing.T) {
	loader := &fakeLoader{key: "p", chat: chatSet("m")}
	reg := NewRegistry(testLogger(), time.Millisecond, loader)

	reg.ChatModels(context.Background())
	time.Sleep(5 * time.Millisecond)
	reg.ChatModels(context.Background())

	assert.EqualValues(t, 2, loader.calls.Load())
}

func TestRegistryClearCacheForcesReload(t *testing.T) {
	loader := &fakeLoader{key: "p", chat: chatSet("m")}
	reg := NewRegistry(testLogger(), time.Minute, loader)

	reg.ChatModels(context.Background())
	reg.ClearCache()
	reg.ChatModels(context.Background())

	assert.EqualValues(t, 2, loader.calls.Load())
}

func TestRegistryLoaderIsolation(t *testing.T) {
	good := &fakeLoader{key: "good", chat: chatSet("m1")}
	bad := &fakeLoader{key: "bad", err: errors.New("connection refused")}
	boom := &fakeLoader{key: "boom", panics: true}
	reg := NewRegistry(testLogger(), time.Minute, good, bad, boom)

	catalog := reg.ChatModels(context.Background())

	require.Contains(t, catalog, "good")
	assert.NotContains(t, catalog, "bad")
	assert.NotContains(t, catalog, "boom")
}

func TestRegistryOmitsEmptyCatalogs(t *testing.T) {
	chatOnly := &fakeLoader{key: "chatty", chat: chatSet("m")}
	silent := &fakeLoader{key: "silent"}
	reg := NewRegistry(testLogger(), time.Minute, chatOnly, silent)

	assert.NotContains(t, reg.ChatModels(context.Background()), "silent")
	assert.NotContains(t, reg.EmbeddingModels(context.Background()), "chatty")
}

func TestRegistryInfosIncludesCustomEndpoint(t *testing.T) {
	reg := NewRegistry(testLogger(), time.Minute, &fakeLoader{key: "p"})

	infos := reg.Infos()
	require.Len(t, infos, 2)
	assert.Equal(t, CustomOpenAIKey, infos[1].Key)
}
