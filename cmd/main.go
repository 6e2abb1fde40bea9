package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/botsmith-backend/internal/db"
	httpH "github.com/yungbote/botsmith-backend/internal/http/handlers"
	httpMW "github.com/yungbote/botsmith-backend/internal/http/middleware"
	"github.com/yungbote/botsmith-backend/internal/observability"
	"github.com/yungbote/botsmith-backend/internal/platform/envutil"
	"github.com/yungbote/botsmith-backend/internal/platform/logger"
	"github.com/yungbote/botsmith-backend/internal/realtime/bus"
	"github.com/yungbote/botsmith-backend/internal/repos"
	"github.com/yungbote/botsmith-backend/internal/server"
	"github.com/yungbote/botsmith-backend/internal/services"
)

func main() {
	// Logger
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := envutil.String("JWT_SECRET_KEY", "defaultsecret")
	accessTokenTTL := envutil.Int("ACCESS_TOKEN_TTL", 3600)
	refreshTokenTTL := envutil.Int("REFRESH_TOKEN_TTL", 86400)
	listenAddr := envutil.String("LISTEN_ADDR", ":8080")

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "botsmith-backend",
		Environment: envutil.String("DEPLOY_ENV", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()
	if err := db.AutoMigrateAll(thePG); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	personaRepo := repos.NewPersonaRepo(thePG, log)
	chatbotRepo := repos.NewChatbotRepo(thePG, log)
	chatRepo := repos.NewChatRepo(thePG, log)

	// Invalidation bus (optional)
	var invalidationBus bus.Bus = bus.NoopBus{}
	if redisAddr := envutil.String("REDIS_ADDR", ""); redisAddr != "" {
		redisBus, bErr := bus.NewRedisBus(log, redisAddr)
		if bErr != nil {
			log.Warn("Could not init Redis invalidation bus, falling back to noop", "error", bErr)
		} else {
			invalidationBus = redisBus
			defer invalidationBus.Close()
		}
	}

	// Services
	log.Info("Setting up Services from main...")
	completer, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Warn("Could not init OpenAIClient, chat completion disabled", "error", err)
	}
	imageGen := services.NewImageGenerator(log)

	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	personaService := services.NewPersonaService(thePG, log, personaRepo, invalidationBus)
	chatbotService := services.NewChatbotService(thePG, log, chatbotRepo, personaRepo, chatRepo, userRepo, imageGen, invalidationBus)
	chatService := services.NewChatService(thePG, log, chatRepo, chatbotRepo, personaRepo, completer, invalidationBus)

	// Handlers
	log.Info("Setting up Handlers from main...")
	authMiddleware := httpMW.NewAuthMiddleware(log, authService)
	authHandler := httpH.NewAuthHandler(authService)
	userHandler := httpH.NewUserHandler(userService)
	personaHandler := httpH.NewPersonaHandler(personaService)
	chatbotHandler := httpH.NewChatbotHandler(chatbotService)
	chatHandler := httpH.NewChatHandler(chatService)
	healthHandler := httpH.NewHealthHandler()

	srv := server.NewServer(server.RouterConfig{
		Log:            log,
		AuthMiddleware: authMiddleware,
		AuthHandler:    authHandler,
		UserHandler:    userHandler,
		PersonaHandler: personaHandler,
		ChatbotHandler: chatbotHandler,
		ChatHandler:    chatHandler,
		HealthHandler:  healthHandler,
	})

	log.Info("Starting server", "addr", listenAddr)
	if err := srv.Run(listenAddr); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
