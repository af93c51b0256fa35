package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"

	"github.com/seekhq/seek/internal/engine"
	"github.com/seekhq/seek/internal/llm"
	"github.com/seekhq/seek/internal/models"
	"github.com/seekhq/seek/internal/utils"
)

const embedTimeout = 15 * time.Second

// saveHistory records the conversation turn independently of delivery:
// the chat row and user turn up front, the assistant turn only once the
// stream reaches its end event. Failures are logged, never surfaced.
func (s *chatService) saveHistory(ctx context.Context, req ChatRequest, humanMessageID, aiMessageID string, embedder llm.Embedder, events <-chan engine.Event) {
	log := s.log.WithFields(logrus.Fields{
		"chat_id":    req.ChatID,
		"message_id": humanMessageID,
	})

	s.saveUserTurn(ctx, log, req, humanMessageID, embedder)

	var (
		acc     []byte
		sources []engine.Source
	)
	for ev := range events {
		switch ev.Type {
		case engine.EventResponse:
			acc = append(acc, ev.Delta...)
		case engine.EventSources:
			sources = ev.Sources
		case engine.EventEnd:
			s.saveAssistantTurn(ctx, log, req.ChatID, aiMessageID, string(acc), sources)
			return
		case engine.EventError:
			// No assistant row for a failed stream.
			return
		}
	}
}

func (s *chatService) saveUserTurn(ctx context.Context, log *logrus.Entry, req ChatRequest, humanMessageID string, embedder llm.Embedder) {
	if _, err := s.repo.GetChat(ctx, req.ChatID); errors.Is(err, utils.ErrNotFound) {
		files, _ := json.Marshal(req.Files)
		chat := &models.Chat{
			ID:        req.ChatID,
			Title:     req.Query,
			CreatedAt: time.Now().UTC(),
			FocusMode: req.FocusMode,
			Files:     files,
		}
		if err := s.repo.CreateChatIfAbsent(ctx, chat); err != nil {
			log.WithError(err).Error("failed to create chat")
		}
	} else if err != nil {
		log.WithError(err).Error("failed to look up chat")
	}

	existing, err := s.repo.GetMessageByMessageID(ctx, req.ChatID, humanMessageID)
	if err != nil && !errors.Is(err, utils.ErrNotFound) {
		log.WithError(err).Error("failed to look up message")
		return
	}

	if existing != nil {
		// Re-submitted turn: keep the edited message, discard everything
		// recorded after it. The fresh assistant turn lands on stream end.
		if err := s.repo.DeleteMessagesAfter(ctx, req.ChatID, existing.ID); err != nil {
			log.WithError(err).Error("failed to rewind chat history")
		}
		return
	}

	metadata, _ := json.Marshal(map[string]any{"createdAt": time.Now().UTC()})
	row := &models.Message{
		MessageID: humanMessageID,
		ChatID:    req.ChatID,
		Role:      models.RoleUser,
		Content:   req.Query,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	if embedder != nil {
		ectx, cancel := context.WithTimeout(ctx, embedTimeout)
		vec, err := embedder.Embed(ectx, req.Query)
		cancel()
		if err != nil {
			log.WithError(err).Warn("failed to embed user message")
		} else if len(vec) > 0 {
			row.Embedding = pgvector.NewVector(vec)
		}
	}

	if err := s.repo.InsertMessage(ctx, row); err != nil {
		log.WithError(err).Error("failed to insert user message")
	}
}

func (s *chatService) saveAssistantTurn(ctx context.Context, log *logrus.Entry, chatID, aiMessageID, content string, sources []engine.Source) {
	meta := map[string]any{"createdAt": time.Now().UTC()}
	if len(sources) > 0 {
		meta["sources"] = sources
	}
	metadata, _ := json.Marshal(meta)

	row := &models.Message{
		MessageID: aiMessageID,
		ChatID:    chatID,
		Role:      models.RoleAssistant,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertMessage(ctx, row); err != nil {
		log.WithError(err).Error("failed to insert assistant message")
	}
}
