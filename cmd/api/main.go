package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nbgrade/nbgrade-api/internal/config"
	"github.com/nbgrade/nbgrade-api/internal/database"
	"github.com/nbgrade/nbgrade-api/internal/handler"
	"github.com/nbgrade/nbgrade-api/internal/middleware"
	"github.com/nbgrade/nbgrade-api/internal/models"
	"github.com/nbgrade/nbgrade-api/internal/repository"
	"github.com/nbgrade/nbgrade-api/internal/router"
	"github.com/nbgrade/nbgrade-api/internal/service"
	"github.com/nbgrade/nbgrade-api/pkg/ai"
	"github.com/nbgrade/nbgrade-api/pkg/media"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	var gradingRunRepo repository.GradingRunRepository
	if cfg.DatabaseURL != "" {
		db, err := database.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}

		if err := db.AutoMigrate(&models.GradingRun{}); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}

		gradingRunRepo = repository.NewGradingRunRepository(db)
	} else {
		logger.Warn().Msg("no database configured, grading history disabled")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("no redis configured, transcript cache disabled")
	}

	aiClient, err := ai.NewOpenAIClient(ai.OpenAIConfig{
		APIKey:             cfg.OpenAIAPIKey,
		BaseURL:            cfg.OpenAIBaseURL,
		Model:              cfg.GradingModel,
		TranscriptionModel: cfg.TranscriptionModel,
		Logger:             logger,
	})
	if err != nil {
		log.Fatalf("failed to create openai client: %v", err)
	}

	transcoder := media.NewFFmpeg(media.Config{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
		Timeout:     cfg.TranscribeTimeout,
		Logger:      logger,
	})

	validate := validator.New(validator.WithRequiredStructEnabled())

	notebookService := service.NewNotebookService(aiClient, logger, service.NotebookConfig{
		Model:     cfg.ExtractionModel,
		MaxSizeMB: cfg.MaxNotebookSizeMB,
	})
	transcriptionService := service.NewTranscriptionService(transcoder, aiClient, redisClient, logger, service.TranscriptionConfig{
		MaxSizeMB: cfg.MaxVideoSizeMB,
		Timeout:   cfg.TranscribeTimeout,
		CacheTTL:  cfg.TranscriptCacheTTL,
	})
	gradingService := service.NewGradingService(aiClient, gradingRunRepo, validate, logger, service.GradingConfig{
		Model: cfg.GradingModel,
		TopP:  float32(cfg.GradingTopP),
	})

	notebookHandler := handler.NewNotebookHandler(notebookService, logger)
	transcriptionHandler := handler.NewTranscriptionHandler(transcriptionService, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.MaxVideoSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})

	var jwtMiddleware fiber.Handler
	if cfg.JWTSecret != "" {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}

	router.Register(app, cfg, router.Dependencies{
		NotebookHandler:      notebookHandler,
		TranscriptionHandler: transcriptionHandler,
		GradingHandler:       gradingHandler,
		JWTMiddleware:        jwtMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
