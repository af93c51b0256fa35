package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/seekhq/seek/internal/services"
	"github.com/seekhq/seek/internal/utils"
)

type WSHandler struct {
	svc      services.ChatService
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(svc services.ChatService, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		svc: svc,
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) WriteFrame(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

// Chat serves GET /ws/chat. The first client message carries the same
// body as POST /api/chat; frames stream back as WS text messages.
// Closing the socket cancels delivery only, never persistence.
func (h *WSHandler) Chat(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote a response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return
	}

	var body chatBody
	if err := json.Unmarshal(data, &body); err != nil {
		_ = wc.WriteFrame(services.Frame{Type: services.FrameError, Data: "invalid json"})
		return
	}

	// Reader only watches for disconnects after the request message.
	go func() {
		defer cancel()
		conn.SetReadDeadline(time.Time{})
		for {
			if _, _, rerr := conn.ReadMessage(); rerr != nil {
				return
			}
		}
	}()

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

	if err := h.svc.AskStreaming(ctx, req, wc); err != nil {
		// Upstream failures already produced an error frame inside the
		// translator; only pre-stream rejections need one here.
		if utils.IsCode(err, utils.CodeInvalidArgument) {
			_ = wc.WriteFrame(services.Frame{Type: services.FrameError, Data: err.Error()})
			return
		}
		h.log.WithError(err).Warn("ws chat stream ended with error")
	}
}
