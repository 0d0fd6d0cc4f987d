package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"autodevhub/internal/ai"
	appsvc "autodevhub/internal/app"
	"autodevhub/internal/bootstrap"
	"autodevhub/internal/cache"
	rabbitmqClient "autodevhub/internal/platform/rabbitmq"
	"autodevhub/internal/ratelimit"
	"autodevhub/internal/repository"
	"autodevhub/internal/transport/http/handler"
	"autodevhub/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     app.Config.App.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.DB)
	storyRepo := repository.NewStoryRepository(app.DB)
	sessionRepo := repository.NewSessionRepository(app.DB)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	storyService := appsvc.NewStoryService(
		storyRepo,
		repository.NewStoryEventRepository(app.DB),
		newEventPublisher(app),
		cache.NewStoryCache(app.Redis, time.Duration(app.Config.Redis.StoryCacheTTLSeconds)*time.Second),
		ratelimit.NewLimiter(app.Redis, app.Config.Redis.RateLimitPerMinute, time.Minute),
		newProvider(app),
		app.Config.AI.FallbackToTemplate,
	)
	sessionService := appsvc.NewSessionService(sessionRepo)

	authHandler := handler.NewAuthHandler(authService)
	storyHandler := handler.NewStoryHandler(storyService)
	sessionHandler := handler.NewSessionHandler(sessionService)

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	// Story routes serve anonymous callers; a valid token only
	// attributes ownership.
	storyGroup := v1.Group("/stories")
	storyGroup.Use(middleware.OptionalAuthJWT(app.Config.Auth.JWTSecret))
	storyGroup.POST("/generate", storyHandler.Generate)
	storyGroup.GET("", storyHandler.List)
	storyGroup.GET("/stats", storyHandler.Stats)
	storyGroup.POST("/validate", storyHandler.Validate)
	storyGroup.POST("/suggestions", storyHandler.Suggestions)
	storyGroup.GET("/:id", storyHandler.Get)
	storyGroup.PUT("/:id", storyHandler.Update)
	storyGroup.DELETE("/:id", storyHandler.Delete)
	storyGroup.POST("/:id/refine", storyHandler.Refine)
	storyGroup.GET("/:id/events", storyHandler.Events)

	sessionGroup := v1.Group("/sessions")
	sessionGroup.Use(middleware.OptionalAuthJWT(app.Config.Auth.JWTSecret))
	sessionGroup.POST("", sessionHandler.Create)
	sessionGroup.GET("/:id", sessionHandler.Get)
	sessionGroup.PUT("/:id/preferences", sessionHandler.UpdatePreferences)
	sessionGroup.DELETE("/:id", sessionHandler.Delete)

	return router
}

func newEventPublisher(app *bootstrap.App) appsvc.StoryEventPublisher {
	return rabbitmqClient.NewStoryEventPublisher(app.MQConn, app.Config.RabbitMQ.StoryEventsQueue)
}

// newProvider picks the remote AI provider by configured keys:
// Claude first, then OpenAI. Nil means template-only generation.
func newProvider(app *bootstrap.App) ai.Provider {
	cfg := app.Config.AI
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch {
	case cfg.AnthropicAPIKey != "":
		return ai.NewAnthropicClient(ai.AnthropicConfig{
			BaseURL: cfg.AnthropicBaseURL,
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			Version: cfg.AnthropicVersion,
			Timeout: timeout,
		})
	case cfg.OpenAIAPIKey != "":
		return ai.NewOpenAIClient(ai.OpenAIConfig{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			Timeout: timeout,
		})
	default:
		return nil
	}
}
