package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/irrigation-dashboard/internal/config"
	"github.com/crucial707/irrigation-dashboard/internal/db"
	"github.com/crucial707/irrigation-dashboard/internal/handlers"
	"github.com/crucial707/irrigation-dashboard/internal/metrics"
	"github.com/crucial707/irrigation-dashboard/internal/middleware"
	"github.com/crucial707/irrigation-dashboard/internal/models"
	"github.com/crucial707/irrigation-dashboard/internal/monitor"
	"github.com/crucial707/irrigation-dashboard/internal/repo"
	"github.com/crucial707/irrigation-dashboard/internal/sensor"
	"github.com/crucial707/irrigation-dashboard/internal/settings"
	"github.com/crucial707/irrigation-dashboard/internal/store"
	"github.com/crucial707/irrigation-dashboard/internal/suggest"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// services are the long-lived components shared by the handlers.
type services struct {
	repo    *repo.ScheduleRepo
	store   *store.ScheduleStore
	poller  *sensor.Poller
	monitor *monitor.Monitor
	suggest *suggest.Client
	audit   *repo.AuditRepo
	log     *slog.Logger
}

func newServices(database *sql.DB, cfg config.Config, logger *slog.Logger) *services {
	schedules := repo.NewScheduleRepo(database)
	st := store.New(schedules, logger)

	var sensorClient *http.Client
	if cfg.SensorTimeout > 0 {
		sensorClient = &http.Client{Timeout: cfg.SensorTimeout}
	}

	svc := &services{
		repo:    schedules,
		store:   st,
		poller:  sensor.NewPoller(cfg.SensorURL, cfg.SensorPollInterval, sensorClient, logger),
		monitor: monitor.New(st, cfg.StatusSpec, logger),
		suggest: suggest.NewClient(cfg.PredictorURL, cfg.FlowRateMLPerMin, nil),
		audit:   repo.NewAuditRepo(database),
		log:     logger,
	}
	st.Subscribe(svc.monitor.OnChange)
	st.Subscribe(func(list []models.Schedule) { metrics.SetSchedules(len(list)) })
	return svc
}

func newRouter(database *sql.DB, cfg config.Config, svc *services) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer(svc.log))
	r.Use(middleware.RequestLog(svc.log))
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSEnabled(), middleware.APIContentSecurityPolicy))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	writes := middleware.WriteRateLimiter(cfg.RateLimitPerMin)
	limitWrites := func(r chi.Router) {
		r.Use(writes.Middleware)
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := database.PingContext(ctx); err != nil {
			handlers.JSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, "ready")
	})
	r.Handle("/metrics", promhttp.Handler())

	scheduleHandler := &handlers.ScheduleHandler{Store: svc.store, Finder: svc.repo, Audit: svc.audit, Log: svc.log}
	r.Route("/schedules", func(r chi.Router) {
		r.Get("/", scheduleHandler.ListSchedules)
		r.Get("/{id}", scheduleHandler.GetSchedule)
		r.Group(func(r chi.Router) {
			limitWrites(r)
			r.Post("/", scheduleHandler.CreateSchedule)
			r.Post("/refresh", scheduleHandler.RefreshSchedules)
			r.Delete("/{id}", scheduleHandler.DeleteSchedule)
		})
	})
	r.With(middleware.MaxBytes(middleware.DefaultMaxBodyBytes)).Post("/windows/validate", handlers.ValidateWindowEdit)

	dashboard := &handlers.DashboardHandler{Schedules: svc.store, Status: svc.monitor, Sensor: svc.poller}
	r.Get("/timeline", dashboard.Timeline)
	r.Get("/status", dashboard.GetStatus)
	r.Get("/sensor", dashboard.GetSensor)

	suggestion := &handlers.SuggestionHandler{
		Schedules: svc.store,
		Sensor:    svc.poller,
		Suggester: svc.suggest,
		Audit:     svc.audit,
		Log:       svc.log,
	}
	r.Route("/suggestion", func(r chi.Router) {
		r.Get("/", suggestion.GetSuggestion)
		r.Group(func(r chi.Router) {
			limitWrites(r)
			r.Post("/accept", suggestion.AcceptSuggestion)
			r.Post("/reject", suggestion.RejectSuggestion)
		})
	})

	r.Route("/settings/theme", func(r chi.Router) {
		r.Get("/", handlers.GetTheme)
		r.Group(func(r chi.Router) {
			limitWrites(r)
			r.Put("/", handlers.SetTheme)
			r.Post("/toggle", handlers.ToggleTheme)
		})
	})

	auditHandler := &handlers.AuditHandler{Repo: svc.audit}
	r.Get("/audit", auditHandler.ListAudit)

	return r
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := settings.Init(cfg.Theme); err != nil {
		logger.Warn("ignoring THEME", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DSN(), cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	logger.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	version, err := db.Migrate(cfg.DatabaseURL())
	if err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database schema ready", "version", version)

	svc := newServices(database, cfg, logger)
	if err := svc.store.Refresh(ctx); err != nil {
		metrics.IncStoreErrors("list")
		logger.Error("initial schedule load failed", "error", err)
	}
	if err := svc.monitor.Start(); err != nil {
		logger.Error("failed to start status monitor", "spec", cfg.StatusSpec, "error", err)
		os.Exit(1)
	}
	poll := svc.poller.Start(ctx)
	logger.Info("polling sensor", "url", cfg.SensorURL, "interval", cfg.SensorPollInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(database, cfg, svc),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "tls", cfg.TLSEnabled())
		if cfg.TLSEnabled() {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	poll.Stop()
	<-svc.monitor.Stop().Done()
}
