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
	"github.com/rs/zerolog"

	"github.com/noah-isme/arena-go-api/internal/config"
	"github.com/noah-isme/arena-go-api/internal/database"
	"github.com/noah-isme/arena-go-api/internal/handler"
	"github.com/noah-isme/arena-go-api/internal/middleware"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/repository"
	"github.com/noah-isme/arena-go-api/internal/router"
	"github.com/noah-isme/arena-go-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Contest{}, &models.Participation{}, &models.PrizeRecord{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	validate := validator.New(validator.WithRequiredStructEnabled())

	contestRepo := repository.NewContestRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	prizeRepo := repository.NewPrizeRepository(db)

	contestService := service.NewContestService(contestRepo, participationRepo, validate, logger)
	catalogService := service.NewCatalogService(contestRepo, participationRepo, validate, logger)
	participationService := service.NewParticipationService(contestRepo, participationRepo, validate, logger)
	leaderboardService := service.NewLeaderboardService(participationRepo, redisClient, cfg.LeaderboardCacheTTL, logger)
	prizeService := service.NewPrizeService(contestRepo, participationRepo, prizeRepo, logger)

	contestHandler := handler.NewContestHandler(catalogService, logger)
	participationHandler := handler.NewParticipationHandler(participationService, logger)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService, catalogService, logger)
	adminContestHandler := handler.NewAdminContestHandler(contestService, prizeService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ContestHandler:       contestHandler,
		ParticipationHandler: participationHandler,
		LeaderboardHandler:   leaderboardHandler,
		AdminContestHandler:  adminContestHandler,
		JWTMiddleware:        middleware.JWTProtected(cfg.JWTSecret),
		JWTOptional:          middleware.JWTOptional(cfg.JWTSecret),
		JoinRateLimiter:      middleware.RateLimit("join", cfg.JoinRateLimit, cfg.JoinRateWindow),
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
