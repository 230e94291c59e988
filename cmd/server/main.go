package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storytelling-server/internal/ai"
	"storytelling-server/internal/authutils"
	"storytelling-server/internal/config"
	"storytelling-server/internal/database"
	"storytelling-server/internal/handler"
	"storytelling-server/internal/interfaces"
	"storytelling-server/internal/logger"
	"storytelling-server/internal/messaging"
	"storytelling-server/internal/middleware"
	"storytelling-server/internal/models"
	"storytelling-server/internal/scheduler"
	"storytelling-server/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "storytelling-server"

func main() {
	_ = godotenv.Load()
	log.Println("Starting story engine...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding, Service: serviceName})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()
	appLogger.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.Connect(ctx, database.PoolConfig{
		DSN:         cfg.GetDSN(),
		MaxConns:    cfg.DBMaxConns,
		IdleTimeout: cfg.DBIdleTimeout,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer dbPool.Close()
	appLogger.Info("Connected to PostgreSQL")

	migration, err := database.ApplyMigrations(dbPool)
	if err != nil {
		appLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	appLogger.Info("Database migrations applied",
		zap.Uint("schemaVersion", migration.Version),
		zap.Bool("changed", migration.Changed),
	)

	cacheRepo, closeCache, err := setupCacheRepository(ctx, cfg, dbPool, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to set up generation cache", zap.Error(err))
	}
	defer closeCache()

	var publisher interfaces.SessionEventPublisher
	if cfg.RabbitMQURL != "" {
		rabbitConn, err := messaging.Connect(cfg.RabbitMQURL, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rabbitConn.Close()
		appLogger.Info("Connected to RabbitMQ")

		eventPublisher, err := messaging.NewRabbitMQSessionEventPublisher(rabbitConn, cfg.SessionEventsExchange, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to create session event publisher", zap.Error(err))
		}
		defer eventPublisher.Close()
		publisher = eventPublisher
	} else {
		appLogger.Info("RABBITMQ_URL not set, session events are not published")
	}

	textClient, err := ai.NewTextClient(ctx, ai.ClientConfig{
		Provider:       cfg.AIProvider,
		Model:          cfg.AIModel,
		APIKey:         cfg.AIAPIKey,
		BaseURL:        cfg.AIBaseURL,
		MaxTokens:      cfg.AIMaxTokens,
		Timeout:        cfg.AITimeout,
		ConnectTimeout: cfg.AIConnectTimeout,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create AI client", zap.Error(err))
	}

	repos := database.NewRepositories(dbPool, appLogger)
	txManager := database.NewTxManager(dbPool, appLogger)
	generationCache := service.NewGenerationCache(cacheRepo, cfg.CacheTTL, appLogger)

	var generatorCache ai.Cache
	if cfg.CacheEnabled {
		generatorCache = generationCache
	}
	generator := ai.NewStoryGenerator(textClient, generatorCache, ai.GeneratorConfig{
		Timeout:     cfg.AITimeout,
		MaxTokens:   cfg.AIMaxTokens,
		Temperature: cfg.AITemperature,
		CacheTTL:    cfg.CacheTTL,
	}, appLogger)
	appLogger.Info("AI generator ready",
		zap.String("provider", generator.ProviderName()),
		zap.Bool("available", generator.IsAvailable()),
		zap.Bool("cacheEnabled", cfg.CacheEnabled),
	)

	contentService := service.NewContentService(repos, appLogger)
	sessionService := service.NewSessionService(repos, txManager, publisher, appLogger)
	progressionService := service.NewProgressionService(sessionService, generator, generationCache, appLogger)

	verifier, err := authutils.NewJWTVerifier(cfg.JWTSecret, appLogger,
		authutils.WithIssuer(cfg.JWTIssuer),
		authutils.WithLeeway(cfg.JWTLeeway),
	)
	if err != nil {
		appLogger.Fatal("Failed to create JWT verifier", zap.Error(err))
	}

	var sweeper *scheduler.CacheSweeper
	if cfg.CacheEnabled {
		sweeper = scheduler.NewCacheSweeper(progressionService.SweepExpiredCache, cfg.CacheSweepInterval, appLogger)
		sweeper.Start(ctx)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(middleware.EchoZapLogger(appLogger))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.PrometheusMetrics())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	authMiddleware := middleware.JWTAuth(verifier.VerifyToken, appLogger)
	adminMiddleware := middleware.RequireRole(appLogger, models.RoleAdmin)
	handler.NewStoryHandler(contentService, progressionService, appLogger).RegisterRoutes(e, authMiddleware, adminMiddleware)

	go func() {
		appLogger.Info("HTTP server listening", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutdown signal received, shutting down...")

	if sweeper != nil {
		sweeper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Story engine stopped")
}

// setupCacheRepository picks the generation cache backend. The returned
// function releases the backend's resources.
func setupCacheRepository(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) (interfaces.GenerationCacheRepository, func(), error) {
	switch cfg.CacheBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("Generation cache backed by Redis", zap.String("addr", cfg.RedisAddr))
		return database.NewRedisGenerationCacheRepository(client, logger), func() { _ = client.Close() }, nil
	default:
		logger.Info("Generation cache backed by PostgreSQL")
		return database.NewPgGenerationCacheRepository(pool, logger), func() {}, nil
	}
}
