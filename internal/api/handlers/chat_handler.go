package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/seekhq/seek/internal/services"
	"github.com/seekhq/seek/internal/utils"
)

type ChatHandler struct {
	svc services.ChatService
	log *logrus.Logger
}

func NewChatHandler(svc services.ChatService, log *logrus.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, log: log}
}

type chatMessageBody struct {
	MessageID string `json:"messageId"`
	ChatID    string `json:"chatId"`
	Content   string `json:"content"`
}

type chatBody struct {
	Message            chatMessageBody     `json:"message"`
	OptimizationMode   string              `json:"optimizationMode"`
	FocusMode          string              `json:"focusMode"`
	History            [][2]string         `json:"history"`
	Files              []string            `json:"files"`
	ChatModel          *services.ModelRef  `json:"chatModel"`
	EmbeddingModel     *services.ModelRef  `json:"embeddingModel"`
	SystemInstructions string              `json:"systemInstructions"`
	Stream             *bool               `json:"stream"`
}

// Chat handles POST /api/chat in both delivery modes. The body's stream
// flag defaults to true.
func (h *ChatHandler) Chat(c *gin.Context) {
	const op = "ChatHandler.Chat"

	var body chatBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	req := services.ChatRequest{
		Query:              body.Message.Content,
		ChatID:             body.Message.ChatID,
		MessageID:          body.Message.MessageID,
		History:            body.History,
		ChatModel:          body.ChatModel,
		EmbeddingModel:     body.EmbeddingModel,
		OptimizationMode:   body.OptimizationMode,
		FocusMode:          body.FocusMode,
		Files:              body.Files,
		SystemInstructions: body.SystemInstructions,
	}

	if body.Stream != nil && !*body.Stream {
		answer, err := h.svc.Ask(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, answer)
		return
	}

	// Headers go out with the first frame, so a validation failure can
	// still produce a plain error response.
	w := &streamResponseWriter{c: c}
	if err := h.svc.AskStreaming(c.Request.Context(), req, w); err != nil {
		if !c.Writer.Written() {
			writeError(c, err)
			return
		}
		// Frames are already on the wire; the status cannot change.
		h.log.WithError(err).Warn("chat stream ended with error")
	}
}

type streamResponseWriter struct {
	c     *gin.Context
	inner *services.NDJSONWriter
}

func (w *streamResponseWriter) WriteFrame(v any) error {
	if w.inner == nil {
		w.c.Header("Content-Type", "text/event-stream")
		w.c.Header("Cache-Control", "no-cache, no-transform")
		w.c.Header("Connection", "keep-alive")
		w.c.Status(http.StatusOK)
		w.inner = services.NewNDJSONWriter(w.c.Writer)
	}
	return w.inner.WriteFrame(v)
}
