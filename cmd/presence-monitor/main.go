// Entry point for the attendance monitor daemon
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"presence.monitor/internal/adapters/kiosk"
	"presence.monitor/internal/api"
	"presence.monitor/internal/config"
	"presence.monitor/internal/core"
	"presence.monitor/internal/ports/messaging"
	"presence.monitor/internal/ports/repository"
	"presence.monitor/internal/worker"
	"presence.monitor/pkg/aws"
	"presence.monitor/pkg/database"
	"presence.monitor/pkg/logger"
	"presence.monitor/pkg/telemetry"
)

const notificationQueueSize = 32

func main() {
	// A .env file is optional; the environment wins over it.
	_ = godotenv.Load()

	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	// Configure structured logging
	logger.Setup(cfg.IsLocalDev)

	ctx := context.Background()

	// Configure OpenTelemetry Tracing
	shutdownTracer, err := telemetry.InitTracer(ctx, "presence-monitor", cfg.TraceExporter, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	// Notification sinks
	dispatcher := worker.NewDispatcher(notificationQueueSize)
	dispatcher.Register("log", worker.LogNotifier{})
	if cfg.NotifyQueueURL != "" || cfg.SummaryEmailTo != "" {
		awsCfg, err := aws.NewAWSConfig(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("unable to load SDK config")
		}
		if cfg.NotifyQueueURL != "" {
			dispatcher.Register("sqs", messaging.NewSQSProducer(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL))
		}
		if cfg.SummaryEmailTo != "" && cfg.SummaryEmailFrom != "" {
			dispatcher.Register("ses", core.NewSESEmailService(ses.NewFromConfig(awsCfg), cfg.SummaryEmailFrom, cfg.SummaryEmailTo))
		}
	}
	dispatcherCtx, stopDispatcher := context.WithCancel(ctx)
	defer stopDispatcher()
	dispatcher.Start(dispatcherCtx)

	opts := core.Options{
		Notifier:          dispatcher,
		Display:           &logDisplay{},
		ToggleMinInterval: cfg.ToggleMinInterval,
	}

	// Attendance history is optional
	if cfg.HistoryEnabled {
		db, err := database.Open(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Error opening database")
		}
		defer db.Close()
		log.Info().Msg("Successfully connected to the database.")

		repo := repository.NewHistoryRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error preparing history schema")
		}
		opts.History = repo
	}

	monitor := core.NewMonitor(kiosk.NewHTTPClient(cfg.HTTPTimeout), opts)
	if err := monitor.Configure(cfg.Settings()); err != nil {
		log.Error().Err(err).Msg("Kiosk URL is not usable; waiting for a configuration change")
	}

	if config.Watch(viper.GetViper(), func(next config.Config) {
		_ = monitor.Configure(next.Settings())
	}) {
		log.Info().Str("file", viper.ConfigFileUsed()).Msg("Watching configuration file")
	}

	// Setup router and server
	router := api.NewRouter(monitor)

	// Middleware to inject logger with trace ID
	loggerMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.EnrichContextWithLogger(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	// Wrap the router with OpenTelemetry middleware to create spans for each request
	handler := otelhttp.NewHandler(loggerMiddleware(router), "control-api")

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.ServerHost, cfg.ServerPort),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Control API starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	monitor.Shutdown()
	dispatcher.Stop()

	log.Info().Msg("Monitor exiting")
}
