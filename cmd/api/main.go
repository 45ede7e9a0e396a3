package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/clinic-calendar/cmd/mainconfig"
	"github.com/wolfman30/clinic-calendar/internal/api/router"
	"github.com/wolfman30/clinic-calendar/internal/app/bootstrap"
	"github.com/wolfman30/clinic-calendar/internal/appointments"
	"github.com/wolfman30/clinic-calendar/internal/availability"
	appconfig "github.com/wolfman30/clinic-calendar/internal/config"
	"github.com/wolfman30/clinic-calendar/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinic-calendar/internal/http/middleware"
	"github.com/wolfman30/clinic-calendar/internal/notify"
	"github.com/wolfman30/clinic-calendar/internal/observability/metrics"
	"github.com/wolfman30/clinic-calendar/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-calendar API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"store", cfg.CalendarStore,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsHandler, schedulingMetrics := setupMetrics()

	deps, sesClient, closeDeps, err := setupBackends(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect calendar backend", "error", err)
		os.Exit(1)
	}
	defer closeDeps()

	srvApp, err := buildApp(ctx, cfg, deps, sesClient, schedulingMetrics, metricsHandler, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	go srvApp.limiter.Run(ctx, time.Minute)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srvApp.handler,
		ReadTimeout: 15 * time.Second,
		// Left unset so the live suggestion websocket is not cut off.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupMetrics() (http.Handler, *metrics.SchedulingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewSchedulingMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

// setupBackends connects only the clients the configured store and email
// provider need.
func setupBackends(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (bootstrap.PersisterDeps, notify.SESAPI, func(), error) {
	var (
		deps    bootstrap.PersisterDeps
		ses     notify.SESAPI
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.CalendarStore {
	case bootstrap.StoreRedis:
		if client := bootstrap.BuildRedisClient(ctx, cfg, logger, true); client != nil {
			deps.Redis = client
			closers = append(closers, func() { _ = client.Close() })
		}
	case bootstrap.StorePostgres:
		pool, err := bootstrap.BuildPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return deps, nil, closeAll, err
		}
		deps.Postgres = pool
		closers = append(closers, pool.Close)
	}

	if mainconfig.NeedsAWS(cfg) {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			closeAll()
			return deps, nil, func() {}, fmt.Errorf("load aws config: %w", err)
		}
		if cfg.CalendarStore == bootstrap.StoreS3 {
			deps.S3 = mainconfig.NewS3Client(awsCfg, cfg)
		}
		ses = sesv2.NewFromConfig(awsCfg)
	}
	return deps, ses, closeAll, nil
}

type app struct {
	handler  http.Handler
	calendar *appointments.Calendar
	limiter  *httpmiddleware.RateLimiter
}

func buildApp(
	ctx context.Context,
	cfg *appconfig.Config,
	deps bootstrap.PersisterDeps,
	ses notify.SESAPI,
	schedulingMetrics *metrics.SchedulingMetrics,
	metricsHandler http.Handler,
	logger *logging.Logger,
) (*app, error) {
	persister, err := bootstrap.BuildPersister(cfg, deps, logger)
	if err != nil {
		return nil, err
	}
	calendar, err := appointments.Open(ctx, persister, logger)
	if err != nil {
		return nil, err
	}
	schedulingMetrics.SetActiveAppointments(len(calendar.Active()))

	policy := availability.DefaultPolicy()
	policy.Location = cfg.Location()
	suggester := availability.NewService(policy, logger, availability.WithRecorder(schedulingMetrics))

	emailSender, provider := bootstrap.BuildEmailSender(cfg, ses, logger)
	logger.Info("confirmation email provider selected", "provider", provider)
	booking := appointments.NewBookingService(calendar, emailSender, schedulingMetrics, logger)

	directory, err := bootstrap.BuildDirectory(cfg, logger)
	if err != nil {
		return nil, err
	}
	tokens, err := bootstrap.BuildTokenIssuer(cfg, logger)
	if err != nil {
		return nil, err
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	handler := router.New(&router.Config{
		Logger:             logger,
		Auth:               handlers.NewAuthHandler(directory, tokens, logger),
		Appointments:       handlers.NewAppointmentsHandler(calendar, booking, directory, logger),
		Suggestions:        handlers.NewSuggestionsHandler(calendar, suggester, cfg.DefaultSessionMinutes, cfg.SuggestionRefresh, logger),
		Dashboard:          handlers.NewDashboardHandler(calendar, suggester, directory, suggester.Now, cfg.DefaultSessionMinutes, logger),
		Sessions:           tokens,
		RateLimiter:        limiter,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	return &app{handler: handler, calendar: calendar, limiter: limiter}, nil
}
