package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekhq/seek/internal/engine"
	"github.com/seekhq/seek/internal/llm"
	"github.com/seekhq/seek/internal/models"
	"github.com/seekhq/seek/internal/providers"
	"github.com/seekhq/seek/internal/utils"
)

// ---- fakes ----------------------------------------------------------------

type stubChatModel struct{}

func (stubChatModel) Stream(ctx context.Context, system string, history []llm.Turn, prompt string) (<-chan string, <-chan error) {
	out := make(chan string)
	errs := make(chan error)
	close(out)
	close(errs)
	return out, errs
}

func (stubChatModel) Invoke(ctx context.Context, prompt string) (string, error) { return "", nil }

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.5, 0.5}, nil
}

type stubLoader struct{}

func (stubLoader) Key() string          { return "test" }
func (stubLoader) Info() providers.Info { return providers.Info{Key: "test"} }

func (stubLoader) LoadChatModels(ctx context.Context) (map[string]providers.ChatModel, error) {
	return map[string]providers.ChatModel{
		"stub": {DisplayName: "Stub", Model: stubChatModel{}},
	}, nil
}

func (stubLoader) LoadEmbeddingModels(ctx context.Context) (map[string]providers.EmbeddingModel, error) {
	return map[string]providers.EmbeddingModel{
		"stub-embed": {DisplayName: "Stub Embed", Model: stubEmbedder{}},
	}, nil
}

// scriptedEngine replays a fixed event sequence.
type scriptedEngine struct {
	events []engine.Event
	called bool
}

func (e *scriptedEngine) SearchAndAnswer(ctx context.Context, q engine.Query) (<-chan engine.Event, error) {
	e.called = true
	out := make(chan engine.Event)
	go func() {
		defer close(out)
		for _, ev := range e.events {
			out <- ev
		}
	}()
	return out, nil
}

// manualEngine hands the event channel to the test.
type manualEngine struct {
	ch chan engine.Event
}

func (e *manualEngine) SearchAndAnswer(ctx context.Context, q engine.Query) (<-chan engine.Event, error) {
	return e.ch, nil
}

// memRepo is an in-memory ChatRepo.
type memRepo struct {
	mu     sync.Mutex
	chats  map[string]models.Chat
	msgs   []models.Message
	nextID uint
}

func newMemRepo() *memRepo {
	return &memRepo{chats: map[string]models.Chat{}, nextID: 1}
}

func (r *memRepo) CreateChatIfAbsent(ctx context.Context, chat *models.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chats[chat.ID]; ok {
		return nil
	}
	r.chats[chat.ID] = *chat
	return nil
}

func (r *memRepo) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &c, nil
}

func (r *memRepo) ListChats(ctx context.Context) ([]models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Chat, 0, len(r.chats))
	for _, c := range r.chats {
		out = append(out, c)
	}
	return out, nil
}

func (r *memRepo) DeleteChat(ctx context.Context, chatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chats, chatID)
	kept := r.msgs[:0]
	for _, m := range r.msgs {
		if m.ChatID != chatID {
			kept = append(kept, m)
		}
	}
	r.msgs = kept
	return nil
}

func (r *memRepo) GetMessageByMessageID(ctx context.Context, chatID, messageID string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if m.ChatID == chatID && m.MessageID == messageID {
			cp := m
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *memRepo) InsertMessage(ctx context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = r.nextID
	r.nextID++
	r.msgs = append(r.msgs, *msg)
	return nil
}

func (r *memRepo) DeleteMessagesAfter(ctx context.Context, chatID string, ordinal uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.msgs[:0]
	for _, m := range r.msgs {
		if m.ChatID == chatID && m.ID > ordinal {
			continue
		}
		kept = append(kept, m)
	}
	r.msgs = kept
	return nil
}

func (r *memRepo) ListMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, m := range r.msgs {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) byRole(chatID, role string) []models.Message {
	out, _ := r.ListMessages(context.Background(), chatID)
	var filtered []models.Message
	for _, m := range out {
		if m.Role == role {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// frameRecorder captures frames and optionally reacts to each write.
type frameRecorder struct {
	mu         sync.Mutex
	frames     []Frame
	afterWrite func(Frame)
}

func (r *frameRecorder) WriteFrame(v any) error {
	f := v.(Frame)
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
	if r.afterWrite != nil {
		r.afterWrite(f)
	}
	return nil
}

func (r *frameRecorder) snapshot() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

// ---- helpers --------------------------------------------------------------

func newTestService(t *testing.T, eng engine.Engine) (ChatService, *memRepo) {
	t.Helper()

	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)

	reg := providers.NewRegistry(l, time.Minute, stubLoader{})
	repo := newMemRepo()
	svc := NewChatService(reg, map[string]engine.Engine{"webSearch": eng}, repo, l)
	return svc, repo
}

func baseRequest() ChatRequest {
	return ChatRequest{
		Query:     "hi",
		ChatID:    "chat-1",
		FocusMode: "webSearch",
	}
}

var testSources = []engine.Source{{Title: "one", URL: "https://example.com/1"}}

// ---- tests ----------------------------------------------------------------

func TestAskBufferedAggregation(t *testing.T) {
	eng := &scriptedEngine{events: []engine.Event{
		{Type: engine.EventResponse, Delta: "a"},
		{Type: engine.EventResponse, Delta: "b"},
		{Type: engine.EventSources, Sources: []engine.Source{{Title: "stale"}}},
		{Type: engine.EventSources, Sources: testSources},
		{Type: engine.EventEnd},
	}}
	svc, repo := newTestService(t, eng)

	answer, err := svc.Ask(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.Equal(t, "ab", answer.Message)
	assert.Equal(t, testSources, answer.Sources, "only the last sources value is retained")

	require.Eventually(t, func() bool {
		return len(repo.byRole("chat-1", models.RoleAssistant)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assistant := repo.byRole("chat-1", models.RoleAssistant)[0]
	assert.Equal(t, "ab", assistant.Content)

	users := repo.byRole("chat-1", models.RoleUser)
	require.Len(t, users, 1)
	assert.Equal(t, "hi", users[0].Content)
	assert.Len(t, users[0].Embedding.Slice(), 2, "user turn carries a best-effort embedding")
}

func TestAskBufferedUpstreamError(t *testing.T) {
	eng := &scriptedEngine{events: []engine.Event{
		{Type: engine.EventResponse, Delta: "partial"},
		{Type: engine.EventError, Err: errors.New("model unavailable")},
	}}
	svc, repo := newTestService(t, eng)

	_, err := svc.Ask(context.Background(), baseRequest())
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUpstream))

	// The user turn lands; no assistant row for a failed stream.
	require.Eventually(t, func() bool {
		return len(repo.byRole("chat-1", models.RoleUser)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, repo.byRole("chat-1", models.RoleAssistant))
}

func TestAskStreamingFrameOrder(t *testing.T) {
	eng := &scriptedEngine{events: []engine.Event{
		{Type: engine.EventResponse, Delta: "a"},
		{Type: engine.EventSources, Sources: testSources},
		{Type: engine.EventResponse, Delta: "b"},
		{Type: engine.EventEnd},
	}}
	svc, _ := newTestService(t, eng)

	rec := &frameRecorder{}
	err := svc.AskStreaming(context.Background(), baseRequest(), rec)
	require.NoError(t, err)

	frames := rec.snapshot()
	require.Len(t, frames, 5)

	types := make([]string, len(frames))
	for i, f := range frames {
		types[i] = f.Type
	}
	assert.Equal(t, []string{FrameInit, FrameMessage, FrameSources, FrameMessage, FrameMessageEnd}, types)
	assert.Equal(t, "a", frames[1].Data)
	assert.Equal(t, "b", frames[3].Data)

	// Every frame of one answer carries the same assistant message id.
	for _, f := range frames {
		assert.Equal(t, frames[0].MessageID, f.MessageID)
	}
}

func TestAskStreamingErrorEndsWithoutMessageEnd(t *testing.T) {
	eng := &scriptedEngine{events: []engine.Event{
		{Type: engine.EventResponse, Delta: "a"},
		{Type: engine.EventError, Err: errors.New("boom")},
	}}
	svc, _ := newTestService(t, eng)

	rec := &frameRecorder{}
	err := svc.AskStreaming(context.Background(), baseRequest(), rec)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUpstream))

	frames := rec.snapshot()
	require.NotEmpty(t, frames)
	assert.Equal(t, FrameError, frames[len(frames)-1].Type)
	for _, f := range frames {
		assert.NotEqual(t, FrameMessageEnd, f.Type)
	}
}

func TestAskStreamingCancellationDetachesDeliveryOnly(t *testing.T) {
	eng := &manualEngine{ch: make(chan engine.Event)}
	svc, repo := newTestService(t, eng)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messageFrames := 0
	rec := &frameRecorder{}
	rec.afterWrite = func(f Frame) {
		if f.Type == FrameMessage {
			messageFrames++
			if messageFrames == 2 {
				cancel()
			}
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- svc.AskStreaming(ctx, baseRequest(), rec)
	}()

	eng.ch <- engine.Event{Type: engine.EventResponse, Delta: "1"}
	eng.ch <- engine.Event{Type: engine.EventResponse, Delta: "2"}

	// Delivery detaches after the cancel triggered by the second frame.
	require.NoError(t, <-done)

	for _, delta := range []string{"3", "4", "5"} {
		eng.ch <- engine.Event{Type: engine.EventResponse, Delta: delta}
	}
	eng.ch <- engine.Event{Type: engine.EventEnd}
	close(eng.ch)

	// Persistence observed end independently and recorded the full answer.
	require.Eventually(t, func() bool {
		return len(repo.byRole("chat-1", models.RoleAssistant)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "12345", repo.byRole("chat-1", models.RoleAssistant)[0].Content)

	// No frame was written after cancellation.
	frames := rec.snapshot()
	require.Len(t, frames, 3)
	assert.Equal(t, []string{FrameInit, FrameMessage, FrameMessage}, []string{frames[0].Type, frames[1].Type, frames[2].Type})
}

func TestAskRejectsEmptyQuery(t *testing.T) {
	eng := &scriptedEngine{}
	svc, repo := newTestService(t, eng)

	req := baseRequest()
	req.Query = ""
	_, err := svc.Ask(context.Background(), req)

	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	assert.False(t, eng.called, "engine must not start for a rejected request")
	assert.Empty(t, repo.msgs)
}

func TestAskRejectsUnknownFocusMode(t *testing.T) {
	eng := &scriptedEngine{}
	svc, _ := newTestService(t, eng)

	req := baseRequest()
	req.FocusMode = "astrology"
	_, err := svc.Ask(context.Background(), req)

	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	assert.False(t, eng.called)
}

func TestAskRejectsInvalidModelSelection(t *testing.T) {
	eng := &scriptedEngine{}
	svc, _ := newTestService(t, eng)

	req := baseRequest()
	req.ChatModel = &ModelRef{Provider: "no-such-provider"}
	_, err := svc.Ask(context.Background(), req)

	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	assert.False(t, eng.called)
}

func TestRewindDeletesMessagesAfterEditedTurn(t *testing.T) {
	eng := &scriptedEngine{events: []engine.Event{
		{Type: engine.EventResponse, Delta: "fresh answer"},
		{Type: engine.EventEnd},
	}}
	svc, repo := newTestService(t, eng)

	seed := []models.Message{
		{MessageID: "u1", ChatID: "chat-1", Role: models.RoleUser, Content: "first question"},
		{MessageID: "a1", ChatID: "chat-1", Role: models.RoleAssistant, Content: "first answer"},
		{MessageID: "u2", ChatID: "chat-1", Role: models.RoleUser, Content: "second question"},
		{MessageID: "a2", ChatID: "chat-1", Role: models.RoleAssistant, Content: "second answer"},
	}
	require.NoError(t, repo.CreateChatIfAbsent(context.Background(), &models.Chat{ID: "chat-1"}))
	for i := range seed {
		require.NoError(t, repo.InsertMessage(context.Background(), &seed[i]))
	}

	req := baseRequest()
	req.Query = "first question, edited"
	req.MessageID = "u1"

	_, err := svc.Ask(context.Background(), req)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		msgs, _ := repo.ListMessages(context.Background(), "chat-1")
		return len(msgs) == 2
	}, 2*time.Second, 10*time.Millisecond)

	msgs, _ := repo.ListMessages(context.Background(), "chat-1")
	assert.Equal(t, "u1", msgs[0].MessageID, "the edited turn itself is kept")
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "fresh answer", msgs[1].Content)
}

func TestRewindIgnoresMessageIDFromAnotherChat(t *testing.T) {
	eng := &scriptedEngine{events: []engine.Event{
		{Type: engine.EventResponse, Delta: "answer"},
		{Type: engine.EventEnd},
	}}
	svc, repo := newTestService(t, eng)

	require.NoError(t, repo.CreateChatIfAbsent(context.Background(), &models.Chat{ID: "chat-2"}))
	foreign := []models.Message{
		{MessageID: "u1", ChatID: "chat-2", Role: models.RoleUser, Content: "other question"},
		{MessageID: "a1", ChatID: "chat-2", Role: models.RoleAssistant, Content: "other answer"},
	}
	for i := range foreign {
		require.NoError(t, repo.InsertMessage(context.Background(), &foreign[i]))
	}

	// Same message id, different chat: a fresh user turn, not a rewind.
	req := baseRequest()
	req.MessageID = "u1"

	_, err := svc.Ask(context.Background(), req)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		msgs, _ := repo.ListMessages(context.Background(), "chat-1")
		return len(msgs) == 2
	}, 2*time.Second, 10*time.Millisecond)

	other, _ := repo.ListMessages(context.Background(), "chat-2")
	require.Len(t, other, 2, "the other chat's history is untouched")

	msgs, _ := repo.ListMessages(context.Background(), "chat-1")
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
}

func TestAskStreamingErrorEventWithoutCause(t *testing.T) {
	eng := &scriptedEngine{events: []engine.Event{
		{Type: engine.EventError},
	}}
	svc, _ := newTestService(t, eng)

	rec := &frameRecorder{}
	err := svc.AskStreaming(context.Background(), baseRequest(), rec)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUpstream))

	frames := rec.snapshot()
	require.Len(t, frames, 2)
	assert.Equal(t, FrameError, frames[1].Type)
	assert.Equal(t, "answer engine failed", frames[1].Data)
}

func TestChatCreatedOnFirstMessage(t *testing.T) {
	eng := &scriptedEngine{events: []engine.Event{
		{Type: engine.EventResponse, Delta: "hello"},
		{Type: engine.EventEnd},
	}}
	svc, repo := newTestService(t, eng)

	req := baseRequest()
	req.FocusMode = "webSearch"
	_, err := svc.Ask(context.Background(), req)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := repo.GetChat(context.Background(), "chat-1")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	chat, err := repo.GetChat(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "hi", chat.Title, "chat title is the first message")
	assert.Equal(t, "webSearch", chat.FocusMode)
}
