package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/incident-response-core/internal/alerts"
	"github.com/shenikar/incident-response-core/internal/authz"
	"github.com/shenikar/incident-response-core/internal/config"
	"github.com/shenikar/incident-response-core/internal/dispatch"
	v1 "github.com/shenikar/incident-response-core/internal/handler/http/v1"
	"github.com/shenikar/incident-response-core/internal/ledger"
	"github.com/shenikar/incident-response-core/internal/lifecycle"
	"github.com/shenikar/incident-response-core/internal/mobile"
	"github.com/shenikar/incident-response-core/internal/ratelimit"
	"github.com/shenikar/incident-response-core/internal/repository"
	"github.com/shenikar/incident-response-core/internal/security"
	"github.com/shenikar/incident-response-core/internal/triage"
	"github.com/shenikar/incident-response-core/internal/webhook"
	"github.com/shenikar/incident-response-core/pkg/logger"
	"github.com/shenikar/incident-response-core/pkg/postgres"
	redisclient "github.com/shenikar/incident-response-core/pkg/redis"

	_ "github.com/shenikar/incident-response-core/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Emergency Response Coordination Core API
// @version 1.0
// @description Triage, assignment and dispatch coordination for an emergency-response fleet.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runMigrations(cfg, log); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	dbpool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	store := repository.NewStore(dbpool, redisClient)

	// Triage Service: LLM-backed classifier with a deterministic rules
	// fallback, rate-limited the way the Mobile Ingestion Pipeline's
	// external collaborators are (spec.md §5).
	llmLimiter := ratelimit.New("gemini", cfg.ExternalRateLimitPerSecond, cfg.ExternalRateLimitBurst)
	classifier := triage.NewGeminiClassifier(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.LLMTimeout, llmLimiter)
	triageSvc := triage.NewService(classifier, log)

	outcomePublisher := webhook.NewRedisOutcomePublisher(redisClient)
	outcomeNotifier := webhook.NewOutcomeNotifier(redisClient, log, cfg)
	outcomeNotifier.Start(ctx)

	coordinator := lifecycle.NewCoordinator(store, triageSvc, cfg, log, outcomePublisher)

	sttLimiter := ratelimit.New("stt", cfg.ExternalRateLimitPerSecond, cfg.ExternalRateLimitBurst)
	weatherLimiter := ratelimit.New("weather", cfg.ExternalRateLimitPerSecond, cfg.ExternalRateLimitBurst)
	sttProvider := mobile.NewHTTPSTTProvider(cfg.STTEndpoint, http.DefaultClient, sttLimiter)
	weatherProvider := mobile.NewCachedHTTPWeatherProvider(cfg.WeatherEndpoint, http.DefaultClient, cfg.WeatherCacheTTL, weatherLimiter)
	pipeline := mobile.NewPipeline(store, sttProvider, weatherProvider, cfg, log)

	// Conversation Service: the Gemini-backed chat/voice-agent follow-up
	// reply, with the same deterministic keyword fallback the original
	// mobile_routes.py uses when the model is unavailable.
	followUpLimiter := ratelimit.New("gemini_followup", cfg.ExternalRateLimitPerSecond, cfg.ExternalRateLimitBurst)
	followUpProvider := mobile.NewGeminiFollowUpProvider(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.LLMTimeout, followUpLimiter)
	conversation := mobile.NewConversationService(followUpProvider, mobile.NewConversationHistory(), log)

	hub := alerts.NewHub(log)
	ticketSink := dispatch.NewCoordinatorTicketSink(coordinator)
	dispatchPool := dispatch.NewPool(store, ticketSink, cfg, log, hub)
	go dispatchPool.Run(ctx)

	issuer := security.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	// Background jobs: the acceptance-deadline sweep and the hourly
	// ledger reconciliation, each a ticker goroutine bound to the
	// shared shutdown context.
	systemPrincipal := authz.Principal{Role: "system", IsWebhook: true}
	go runSweep(ctx, coordinator, systemPrincipal, cfg.DeadlineSweepInterval, log)
	go runReconcile(ctx, store, cfg.LedgerReconcileInterval, log)

	handler := v1.NewHandler(coordinator, store, pipeline, triageSvc, conversation, sttProvider, issuer, cfg, log)

	router := gin.Default()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api, hub)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server gracefully stopped")
}

func runSweep(ctx context.Context, coordinator *lifecycle.Coordinator, system authz.Principal, interval time.Duration, log *logrus.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := coordinator.SweepExpiredWindows(ctx, system)
			if err != nil {
				log.WithError(err).Error("assignment-window sweep failed")
				continue
			}
			if expired > 0 {
				log.WithField("expired", expired).Info("swept expired assignment windows")
			}
		}
	}
}

func runReconcile(ctx context.Context, store *repository.Store, interval time.Duration, log *logrus.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fixed, err := ledger.Reconcile(ctx, store, log)
			if err != nil {
				log.WithError(err).Error("ledger reconciliation failed")
				continue
			}
			if fixed > 0 {
				log.WithField("fixed", fixed).Info("ledger reconciliation corrected discrepancies")
			}
		}
	}
}
