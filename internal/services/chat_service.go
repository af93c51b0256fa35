package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/seekhq/seek/internal/engine"
	"github.com/seekhq/seek/internal/llm"
	"github.com/seekhq/seek/internal/providers"
	pgrepo "github.com/seekhq/seek/internal/repositories/postgres"
	"github.com/seekhq/seek/internal/stream"
	"github.com/seekhq/seek/internal/utils"
)

// ModelRef selects a provider/model pair; credentials are honored only
// for the reserved custom endpoint provider.
type ModelRef struct {
	Provider string `json:"provider"`
	Name     string `json:"name"`
	APIKey   string `json:"apiKey,omitempty"`
	BaseURL  string `json:"baseURL,omitempty"`
}

// ChatRequest is one inbound ask. History turns are (role, text) pairs
// with role "human" or "assistant".
type ChatRequest struct {
	Query              string
	ChatID             string
	MessageID          string
	History            [][2]string
	ChatModel          *ModelRef
	EmbeddingModel     *ModelRef
	OptimizationMode   string
	FocusMode          string
	Files              []string
	SystemInstructions string
}

// Answer is the buffered-mode result.
type Answer struct {
	Message string          `json:"message"`
	Sources []engine.Source `json:"sources,omitempty"`
}

// FrameWriter receives one wire frame per call, in order.
type FrameWriter interface {
	WriteFrame(v any) error
}

type ChatService interface {
	Ask(ctx context.Context, req ChatRequest) (*Answer, error)
	AskStreaming(ctx context.Context, req ChatRequest, w FrameWriter) error
}

type chatService struct {
	registry *providers.Registry
	engines  map[string]engine.Engine
	repo     pgrepo.ChatRepo
	log      *logrus.Logger
}

func NewChatService(registry *providers.Registry, engines map[string]engine.Engine, repo pgrepo.ChatRepo, log *logrus.Logger) ChatService {
	return &chatService{registry: registry, engines: engines, repo: repo, log: log}
}

// run carries everything prepared before delivery begins: the two
// subscriptions on the engine stream and the generated turn ids.
type run struct {
	humanMessageID string
	aiMessageID    string
	delivery       <-chan engine.Event
	persistDone    <-chan struct{}
}

func (s *chatService) prepare(ctx context.Context, req ChatRequest) (*run, error) {
	const op = "ChatService.prepare"

	if req.Query == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "please provide a message to process", nil)
	}
	if req.ChatID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "chat id is required", nil)
	}

	eng, ok := s.engines[req.FocusMode]
	if !ok {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid focus mode", nil)
	}

	sel := providers.Selection{}
	if req.ChatModel != nil {
		sel.ChatProvider = req.ChatModel.Provider
		sel.ChatModel = req.ChatModel.Name
		sel.CustomAPIKey = req.ChatModel.APIKey
		sel.CustomBaseURL = req.ChatModel.BaseURL
		sel.CustomModel = req.ChatModel.Name
	}
	if req.EmbeddingModel != nil {
		sel.EmbedProvider = req.EmbeddingModel.Provider
		sel.EmbedModel = req.EmbeddingModel.Name
	}

	chatModel, embedder, err := s.registry.Resolve(ctx, sel)
	if err != nil {
		var selErr *providers.SelectionError
		if errors.As(err, &selErr) {
			return nil, utils.E(utils.CodeInvalidArgument, op, selErr.Error(), nil)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to resolve models", err)
	}

	history := make([]llm.Turn, 0, len(req.History))
	for _, h := range req.History {
		history = append(history, llm.Turn{Role: h[0], Content: h[1]})
	}

	humanID := req.MessageID
	if humanID == "" {
		humanID = uuid.NewString()
	}
	aiID := uuid.NewString()

	// The engine and the persistence path outlive a client disconnect;
	// only the delivery path is tied to the request context.
	detached := context.WithoutCancel(ctx)

	events, err := eng.SearchAndAnswer(detached, engine.Query{
		Text:               req.Query,
		History:            history,
		Chat:               chatModel,
		Embedder:           embedder,
		OptimizationMode:   req.OptimizationMode,
		FileIDs:            req.Files,
		SystemInstructions: req.SystemInstructions,
	})
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to start answer engine", err)
	}

	bc := stream.New[engine.Event]()
	delivery := bc.Subscribe()
	persist := bc.Subscribe()
	go bc.Run(events)

	persistDone := make(chan struct{})
	go func() {
		defer close(persistDone)
		s.saveHistory(detached, req, humanID, aiID, embedder, persist)
	}()

	return &run{
		humanMessageID: humanID,
		aiMessageID:    aiID,
		delivery:       delivery,
		persistDone:    persistDone,
	}, nil
}

// Ask runs in buffered mode: no partial output, one aggregated result.
func (s *chatService) Ask(ctx context.Context, req ChatRequest) (*Answer, error) {
	const op = "ChatService.Ask"

	r, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	var (
		acc     []byte
		sources []engine.Source
	)
	for ev := range r.delivery {
		switch ev.Type {
		case engine.EventResponse:
			acc = append(acc, ev.Delta...)
		case engine.EventSources:
			sources = ev.Sources
		case engine.EventEnd:
			return &Answer{Message: string(acc), Sources: sources}, nil
		case engine.EventError:
			return nil, utils.E(utils.CodeUpstream, op, "answer engine failed", ev.Err)
		}
	}
	return nil, utils.E(utils.CodeInternal, op, "event stream ended without a terminal event", nil)
}

// AskStreaming runs in incremental mode, translating events to wire
// frames as they arrive.
func (s *chatService) AskStreaming(ctx context.Context, req ChatRequest, w FrameWriter) error {
	r, err := s.prepare(ctx, req)
	if err != nil {
		return err
	}
	return s.translate(ctx, r, w)
}
