package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/seekhq/seek/internal/api/handlers"
)

type Deps struct {
	Chat   *handlers.ChatHandler
	Models *handlers.ModelsHandler
	Chats  *handlers.ChatsHandler
	Config *handlers.ConfigHandler
	WS     *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := r.Group("/api")

	api.POST("/chat", d.Chat.Chat)
	api.GET("/models", d.Models.List)

	api.GET("/chats", d.Chats.List)
	api.GET("/chats/:id", d.Chats.Get)
	api.DELETE("/chats/:id", d.Chats.Delete)

	api.POST("/config", d.Config.Update)

	// WebSocket
	r.GET("/ws/chat", d.WS.Chat)
}
