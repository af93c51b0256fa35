package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pgrepo "github.com/seekhq/seek/internal/repositories/postgres"
	"github.com/seekhq/seek/internal/utils"
)

type ChatsHandler struct {
	repo pgrepo.ChatRepo
}

func NewChatsHandler(repo pgrepo.ChatRepo) *ChatsHandler {
	return &ChatsHandler{repo: repo}
}

// List serves GET /api/chats, newest first.
func (h *ChatsHandler) List(c *gin.Context) {
	rows, err := h.repo.ListChats(c.Request.Context())
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "ChatsHandler.List", "failed to list chats", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": rows})
}

// Get serves GET /api/chats/:id with the chat's ordered messages.
func (h *ChatsHandler) Get(c *gin.Context) {
	const op = "ChatsHandler.Get"
	chatID := c.Param("id")

	chat, err := h.repo.GetChat(c.Request.Context(), chatID)
	if errors.Is(err, utils.ErrNotFound) {
		writeError(c, utils.E(utils.CodeNotFound, op, "chat not found", err))
		return
	}
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to get chat", err))
		return
	}

	messages, err := h.repo.ListMessages(c.Request.Context(), chatID)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to list messages", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat": chat, "messages": messages})
}

// Delete serves DELETE /api/chats/:id, removing the chat and its messages.
func (h *ChatsHandler) Delete(c *gin.Context) {
	const op = "ChatsHandler.Delete"
	chatID := c.Param("id")

	if _, err := h.repo.GetChat(c.Request.Context(), chatID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			writeError(c, utils.E(utils.CodeNotFound, op, "chat not found", err))
			return
		}
		writeError(c, utils.E(utils.CodeInternal, op, "failed to get chat", err))
		return
	}

	if err := h.repo.DeleteChat(c.Request.Context(), chatID); err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to delete chat", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "chat deleted successfully"})
}
