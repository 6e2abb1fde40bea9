package server

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/botsmith-backend/internal/http/handlers"
	httpMW "github.com/yungbote/botsmith-backend/internal/http/middleware"
	"github.com/yungbote/botsmith-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler    *httpH.AuthHandler
	UserHandler    *httpH.UserHandler
	PersonaHandler *httpH.PersonaHandler
	ChatbotHandler *httpH.ChatbotHandler
	ChatHandler    *httpH.ChatHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
			api.POST("/refresh", cfg.AuthHandler.Refresh)
		}

		// Public chatbot reads: anonymous callers pass through, the policy
		// decides per chatbot.
		if cfg.ChatbotHandler != nil && cfg.AuthMiddleware != nil {
			api.GET("/chatbots/public", cfg.AuthMiddleware.OptionalAuth(), cfg.ChatbotHandler.ListPublic)
			api.GET("/chatbots/:id", cfg.AuthMiddleware.OptionalAuth(), cfg.ChatbotHandler.Get)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		if cfg.UserHandler != nil {
			protected.GET("/user", cfg.UserHandler.GetMe)
		}

		if cfg.PersonaHandler != nil {
			protected.POST("/personas", cfg.PersonaHandler.Create)
			protected.GET("/personas", cfg.PersonaHandler.List)
			protected.GET("/personas/:id", cfg.PersonaHandler.Get)
			protected.PATCH("/personas/:id", cfg.PersonaHandler.Update)
			protected.DELETE("/personas/:id", cfg.PersonaHandler.Delete)
		}

		if cfg.ChatbotHandler != nil {
			protected.POST("/chatbots", cfg.ChatbotHandler.Create)
			protected.GET("/chatbots", cfg.ChatbotHandler.ListOwned)
			protected.PATCH("/chatbots/:id", cfg.ChatbotHandler.Update)
			protected.POST("/chatbots/:id/visibility", cfg.ChatbotHandler.ToggleVisibility)
			protected.DELETE("/chatbots/:id", cfg.ChatbotHandler.Delete)
			protected.POST("/chatbots/:id/image/generate", cfg.ChatbotHandler.GenerateImage)
			protected.PUT("/chatbots/:id/image", cfg.ChatbotHandler.SetImage)
			protected.DELETE("/chatbots/:id/image", cfg.ChatbotHandler.RemoveImage)
		}

		if cfg.ChatHandler != nil {
			protected.POST("/chatbots/:id/chat", cfg.ChatHandler.Send)
			protected.GET("/chatbots/:id/history", cfg.ChatHandler.History)
		}
	}

	return r
}
