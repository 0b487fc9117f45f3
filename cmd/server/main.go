package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nurtureapp/nurture-api/internal/catalog"
	"github.com/nurtureapp/nurture-api/internal/handler"
	"github.com/nurtureapp/nurture-api/internal/infrastructure/logger"
	"github.com/nurtureapp/nurture-api/internal/infrastructure/redis"
	"github.com/nurtureapp/nurture-api/internal/notify"
	"github.com/nurtureapp/nurture-api/internal/observability/metrics"
	"github.com/nurtureapp/nurture-api/internal/observability/tracing"
	"github.com/nurtureapp/nurture-api/internal/repository"
	"github.com/nurtureapp/nurture-api/internal/security/audit"
	"github.com/nurtureapp/nurture-api/internal/security/auth"
	"github.com/nurtureapp/nurture-api/internal/security/middleware"
	"github.com/nurtureapp/nurture-api/internal/security/ratelimit"
	"github.com/nurtureapp/nurture-api/internal/service"
	"github.com/nurtureapp/nurture-api/internal/worker"
	"github.com/nurtureapp/nurture-api/pkg/config"
	"github.com/nurtureapp/nurture-api/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting nurture server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, log, "nurture-api", cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect to Postgres
	pool, err := database.NewConnectionPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Redis is optional; required only when it backs the catalog cache
	var redisClient *redis.Client
	if cfg.CacheBackend == "redis" || cfg.NotifierEnabled {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			if cfg.CacheBackend == "redis" {
				log.Error("failed to connect to Redis", slog.String("error", err.Error()))
				os.Exit(1)
			}
			log.Warn("Redis unavailable, notifier dedupe disabled", slog.String("error", err.Error()))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// 6. Initialize repositories
	plantRepo := repository.NewPostgresPlantRepository(pool.GetDB(), log)
	deviceRepo := repository.NewPostgresDeviceRepository(pool.GetDB(), log)

	// 7. Initialize catalog clients with the configured cache backend
	var catalogCache catalog.Cache
	if cfg.CacheBackend == "redis" {
		catalogCache = catalog.NewRedisCache(redisClient, log)
	} else {
		catalogCache = catalog.NewMemoryCache()
	}
	perenual := catalog.NewPerenualClient(cfg.PerenualBaseURL, cfg.PerenualAPIKey, catalogCache, cfg.CacheTTL, log)
	plantnet := catalog.NewPlantNetClient(cfg.PlantNetBaseURL, cfg.PlantNetAPIKey, log)

	// 8. Initialize services
	plantService := service.NewPlantService(plantRepo, perenual, log)
	catalogService := service.NewCatalogService(perenual, plantnet, log)

	// 9. Initialize handlers
	routes := handler.Routes{
		Plants:    handler.NewPlantsHandler(plantService, log),
		Reminders: handler.NewRemindersHandler(plantService, log),
		Catalog:   handler.NewCatalogHandler(catalogService, log),
		Devices:   handler.NewDevicesHandler(deviceRepo, log),
		Health:    handler.NewHealthHandler(pool, redisClient, log),
	}
	mux := routes.Mux()

	// 9a. Initialize security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	auditLogger := audit.NewLogger(log)

	// Chain middleware: request ID -> metrics -> JWT -> rate limit -> audit -> content type
	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			middleware.JWTMiddleware(tokenManager, log)(
				middleware.RateLimitMiddleware(rateLimiter, log)(
					middleware.AuditMiddleware(auditLogger)(
						middleware.ValidateJSONContentType(log)(mux),
					),
				),
			),
		),
		log,
	)

	// 10. Start due-reminder notifier in background
	if cfg.NotifierEnabled {
		pusher := notify.NewExpoPusher(cfg.ExpoPushURL, log)
		var deduper worker.Deduper
		if redisClient != nil {
			deduper = redisClient
		}
		notifier := worker.NewReminderNotifier(plantRepo, deviceRepo, pusher, deduper, log, cfg.NotifierInterval)
		go notifier.Start(ctx)
	}

	// 11. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(rootHandler, "nurture-api"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop the notifier
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
