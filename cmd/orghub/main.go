package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/orghub/orghub/pkg/api"
	"github.com/orghub/orghub/pkg/authz"
	"github.com/orghub/orghub/pkg/config"
	"github.com/orghub/orghub/pkg/daemon"
	"github.com/orghub/orghub/pkg/httputil"
	"github.com/orghub/orghub/pkg/middleware"
	"github.com/orghub/orghub/pkg/observability"
	"github.com/orghub/orghub/pkg/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "orghub: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.ParsedLogLevel(), os.Stdout)
	logger.Info("Starting orghub")

	// The authorization tables are validated before anything listens. A
	// malformed capability map or team table is a build defect, not a
	// runtime condition.
	registry, err := authz.NewRegistry(authz.DefaultCapabilityMap(), authz.DefaultTeams())
	if err != nil {
		return fmt.Errorf("authorization self-check failed: %w", err)
	}
	logger.Info("Authorization registry validated")

	ctx := context.Background()

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}
	if err := store.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	logger.Info("Database migrations applied")

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisURL,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("Redis not reachable, continuing without L2 cache")
		}
		defer redisClient.Close()
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	st := store.NewStore(db)

	var accessLoader middleware.AccessLoader = st
	var invalidator api.Invalidator
	if cfg.Cache.Enabled {
		cache, err := store.NewAccessCache(st, cfg.Cache.L1Size, redisClient, cfg.Cache.TTL, metrics)
		if err != nil {
			return fmt.Errorf("failed to create access cache: %w", err)
		}
		accessLoader = cache
		invalidator = cache
	}

	maintenance, err := daemon.New(st, cfg.Daemon.CleanupSchedule, logger)
	if err != nil {
		return err
	}
	maintenance.Start()

	authMW := middleware.NewAuthMiddleware(st, accessLoader, false)
	guards := middleware.NewGuardMiddleware(registry, metrics)
	server := api.NewServer(st, registry, authMW, guards, invalidator, logger, cfg.Daemon.InvitationTTL)

	var handler http.Handler = server.Router()
	if metrics != nil {
		handler = metrics.InstrumentHandler("/api/v1", handler)
	}
	handler = middleware.RequestID(logger)(handler)
	handler = httputil.RecoveryMiddleware(logger)(handler)

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	health := observability.NewHealthChecker(db, redisClient)
	healthMux := mux.NewRouter()
	healthMux.HandleFunc("/healthz", health.Liveness).Methods("GET")
	healthMux.HandleFunc("/readyz", health.Readiness).Methods("GET")
	if metrics != nil {
		healthMux.Handle("/metrics", metrics.Handler()).Methods("GET")
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)
	shutdown.RegisterServer(apiServer)
	shutdown.RegisterServer(healthServer)
	shutdown.RegisterShutdownFunc(func(shutdownCtx context.Context) error {
		maintenance.Stop(shutdownCtx)
		return nil
	})
	if providers != nil {
		shutdown.RegisterShutdownFunc(providers.Shutdown)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("API server listening on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return shutdown.WaitForShutdown(gctx)
	})

	return g.Wait()
}
