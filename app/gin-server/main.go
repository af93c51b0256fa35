package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/seekhq/seek/config"
	"github.com/seekhq/seek/internal/api/handlers"
	"github.com/seekhq/seek/internal/api/middleware"
	"github.com/seekhq/seek/internal/api/routes"
	"github.com/seekhq/seek/internal/cache"
	"github.com/seekhq/seek/internal/engine"
	"github.com/seekhq/seek/internal/logger"
	"github.com/seekhq/seek/internal/models"
	"github.com/seekhq/seek/internal/providers"
	pgrepo "github.com/seekhq/seek/internal/repositories/postgres"
	"github.com/seekhq/seek/internal/services"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if err := config.PostgresDB.AutoMigrate(&models.Chat{}, &models.Message{}); err != nil {
		log.Fatalf("PostgreSQL migrate error: %v", err)
	}
	l.Info("PostgreSQL connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	registry := providers.NewRegistry(l, providers.DefaultTTL,
		providers.OpenAILoader{},
		providers.GroqLoader{},
		providers.DeepseekLoader{},
		&providers.GeminiLoader{},
		providers.OllamaLoader{},
		providers.LMStudioLoader{},
		providers.CustomOpenAILoader{},
	)

	// Every focus mode currently answers through the direct engine;
	// retrieval-backed engines slot into this table.
	direct := engine.NewDirect()
	engines := map[string]engine.Engine{
		"webSearch":        direct,
		"writingAssistant": direct,
	}

	repo := pgrepo.NewChatRepo(config.PostgresDB)
	chatSvc := services.NewChatService(registry, engines, repo, l)
	redisCache := cache.NewRedisCache(config.RedisClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Chat:   handlers.NewChatHandler(chatSvc, l),
		Models: handlers.NewModelsHandler(registry, redisCache, l),
		Chats:  handlers.NewChatsHandler(repo),
		Config: handlers.NewConfigHandler(registry, l),
		WS:     handlers.NewWSHandler(chatSvc, l),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
