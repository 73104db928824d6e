package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/ghuser/medshelf/docs/swagger"
	"github.com/ghuser/medshelf/migrations"
	"github.com/ghuser/medshelf/pkg/app"
	"github.com/ghuser/medshelf/pkg/cache"
	"github.com/ghuser/medshelf/pkg/config"
	"github.com/ghuser/medshelf/pkg/database"
	"github.com/ghuser/medshelf/pkg/events"
	"github.com/ghuser/medshelf/pkg/httpx"
	"github.com/ghuser/medshelf/pkg/logger"
	"github.com/ghuser/medshelf/pkg/migrator"
	"github.com/ghuser/medshelf/pkg/telemetry"
	medicineApi "github.com/ghuser/medshelf/services/medicine/application/api"
	"github.com/ghuser/medshelf/services/medicine/application/subscribers"
)

// @title			MedShelf API
// @version		1.0
// @description	Pharmacy inventory: medicines CRUD, search, stats and XLSX report.
// @license.name	MIT
// @license.url	https://opensource.org/licenses/MIT
// @host			localhost:4000
// @BasePath		/api
// @schemes		http https
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	ctx := context.Background()

	tel, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer tel.Shutdown(ctx) //nolint:errcheck

	// Crash reporting is optional: log and continue on failure.
	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	db, err := database.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic // intentional: startup failure, deferred flushes are best-effort
	}
	defer db.Close() //nolint:errcheck
	log.Info("database connected", "driver", db.Driver())

	if cfg.AutoMigrate {
		files, err := migrations.For(db.Driver())
		if err == nil {
			err = migrator.Run(ctx, db, files, log)
		}
		if err != nil {
			log.Error("failed to initialise schema", "error", err)
			os.Exit(1) //nolint:gocritic
		}
	}

	eventBus, err := newEventBus(ctx, cfg, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	var redisClient *cache.RedisClient
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer redisClient.Close() //nolint:errcheck
		log.Info("redis connected")
	}

	appConfig := &app.Application{
		Config:   cfg,
		Db:       db,
		Logger:   log,
		EventBus: eventBus,
		Redis:    redisClient,
		Meter:    tel.Meter(),
	}

	// The in-memory bus only delivers inside this process, so the API runs
	// the subscribers itself. On PostgreSQL that is cmd/worker's job.
	subsCtx, cancelSubs := context.WithCancel(ctx)
	defer cancelSubs()
	if !eventBus.Transactional() {
		if err := registerSubscribers(subsCtx, appConfig); err != nil {
			log.Error("failed to register subscribers", "error", err)
			os.Exit(1) //nolint:gocritic
		}
	}

	r := httpx.NewRouter(
		httpx.ServerConfig{
			ServiceName:        cfg.ServiceName,
			IsDevelopment:      cfg.Environment == config.EnvDevelopment,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		},
		logger.Middleware(log),
		logger.Recovery(log),
		telemetry.SentryMiddleware(),
		telemetry.HTTPMiddleware(cfg.ServiceName),
	)

	r.Get("/metrics", tel.MetricsHandler.ServeHTTP)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", httpx.HealthHandler(healthChecks(appConfig)))
		registerRoutes(r, appConfig)
	})

	srv := httpx.NewServer(cfg.Addr(), r)

	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// newEventBus picks the transport matching the store: the SQL outbox on
// PostgreSQL, gochannel on SQLite.
func newEventBus(ctx context.Context, cfg *config.Config, log logger.Logger) (*events.EventBus, error) {
	if cfg.StoreDriver != config.StorePostgres {
		return events.NewInMemoryEventBus(log), nil
	}
	bus, err := events.NewSQLEventBus(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := bus.StartForwarder(ctx); err != nil {
		_ = bus.Close()
		return nil, err
	}
	return bus, nil
}

func registerSubscribers(ctx context.Context, a *app.Application) error {
	if a.Redis == nil {
		return subscribers.New(nil, a.Logger).Register(ctx, a.EventBus)
	}
	return subscribers.New(cache.NewMedicineCache(a.Redis), a.Logger).Register(ctx, a.EventBus)
}

// healthChecks lists only the dependencies that are configured.
func healthChecks(a *app.Application) httpx.HealthChecks {
	checks := httpx.HealthChecks{
		"database":  a.Db,
		"event_bus": a.EventBus,
	}
	if a.Redis != nil {
		checks["redis"] = a.Redis
	}
	return checks
}

// registerRoutes mounts all service routes under /api.
func registerRoutes(r chi.Router, a *app.Application) {
	medicineApi.MedicineRoutes(r, a)
}
