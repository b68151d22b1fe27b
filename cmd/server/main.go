package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dyprodg/callpulse/internal/aggregator"
	"github.com/dyprodg/callpulse/internal/api"
	"github.com/dyprodg/callpulse/internal/auth"
	"github.com/dyprodg/callpulse/internal/cache"
	"github.com/dyprodg/callpulse/internal/config"
	"github.com/dyprodg/callpulse/internal/dispatch"
	"github.com/dyprodg/callpulse/internal/history"
	"github.com/dyprodg/callpulse/internal/ingestion"
	"github.com/dyprodg/callpulse/internal/messaging"
	"github.com/dyprodg/callpulse/internal/metrics"
	"github.com/dyprodg/callpulse/internal/metricsapi"
	"github.com/dyprodg/callpulse/internal/scheduler"
	"github.com/dyprodg/callpulse/internal/storage"
	"github.com/dyprodg/callpulse/internal/websocket"
	"github.com/dyprodg/callpulse/pkg/middleware"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("report_times", cfg.ReportTimes).
		Int("history_days", cfg.HistoryDays).
		Str("cache_backend", cfg.CacheBackend).
		Str("log_level", cfg.LogLevel).
		Msg("starting callpulse server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create WebSocket hub
	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	wsHandler := websocket.NewHandler(hub, cfg, log.Logger)

	// Day cache with its storage backend
	store, err := storage.NewStore(ctx, cfg.CacheBackend, cfg.CacheDir, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.CacheBackend).Msg("failed to initialize cache storage")
	}
	dayCache := cache.NewDayCache(store, cfg.CacheTTL, log.Logger)

	// Report pipeline
	metricsClient := metricsapi.NewClient(cfg.MetricsAPIURL, cfg.MetricsAPIToken, cfg.RequestTimeout, log.Logger)
	aggregatorService := aggregator.NewAggregator(metricsClient, hub, log.Logger)
	analyzer := history.NewAnalyzer(metricsClient, aggregatorService, cfg.HistoryDays, log.Logger)
	messagingClient := messaging.NewClient(cfg.MessagingAPIURL, cfg.MessagingAPIToken, log.Logger)
	dispatcher := dispatch.NewDispatcher(messagingClient, cfg.ReportDestination, log.Logger)

	reportScheduler := scheduler.NewScheduler(aggregatorService, analyzer, dispatcher, hub, cfg.ReportTimes, log.Logger)
	if err := reportScheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start report scheduler")
	}

	// Webhook receiver
	receiver := ingestion.NewReceiver(dayCache, hub, cfg.WebhookToken, log.Logger)

	// Operational API
	apiHandler := api.NewHandler(dayCache, reportScheduler, messagingClient, hub, log.Logger)

	// Create router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Public routes
	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Get().Handler())

	// Webhook routes authenticated by shared token, not JWT
	r.Route("/webhook", func(r chi.Router) {
		r.Post("/call", receiver.HandleCallEvent)
		r.Get("/stats", receiver.GetStats)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.JWTSecret, log.Logger))
		r.Get("/ws", wsHandler.ServeHTTP)

		r.Route("/api", func(r chi.Router) {
			r.Get("/status", apiHandler.GetStatus)
			r.Get("/report/history", apiHandler.GetReportHistory)
			r.Post("/report/trigger", apiHandler.TriggerReport)
			r.Get("/cache/{date}", apiHandler.GetCachedCalls)

			r.Group(func(r chi.Router) {
				r.Use(api.RequireAdmin)
				r.Post("/report/schedule", apiHandler.UpdateSchedule)
				r.Delete("/cache/{date}", apiHandler.ClearCache)
			})
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	reportScheduler.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"callpulse"}`)
}
