// Package main is the entry point for the CareHub authorization API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"carehub/internal/config"
	"carehub/internal/core/security"
	"carehub/internal/core/tenant"
	"carehub/internal/domain/auth"
	"carehub/internal/infrastructure/cache"
	v1 "carehub/internal/infrastructure/http/v1"
	"carehub/internal/infrastructure/http/v1/handlers"
	"carehub/internal/infrastructure/metrics"
	"carehub/internal/infrastructure/storage/postgres"
	"carehub/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.IsDevelopment(),
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	log.Info("starting carehub server")

	// --- Membership database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = cfg.Database.MaxConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool.Pool)
	membership := postgres.NewMembershipStore(txManager)
	tenants := tenant.NewPostgresRegistry(pool.Pool)

	// --- Session store ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()
	sessions := cache.NewRedisSessionVerifier(rdb, "")
	if err := sessions.Ping(ctx); err != nil {
		// Bearer tokens still work; session cookies fail as upstream unavailable.
		log.Warnw("session store unreachable at startup", "addr", cfg.Redis.Addr, "error", err)
	}

	// --- Credentials ---
	jwtConfig := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
	jwtConfig.Issuer = cfg.Auth.JWTIssuer
	bearer := auth.NewJWTVerifier(jwtConfig)

	collector := metrics.NewCollector()
	collector.RegisterGaugeFunc("db_pool_acquired_conns", "Connections currently acquired from the membership pool.",
		func() float64 { return float64(pool.Stats().AcquiredConns) })
	collector.RegisterGaugeFunc("db_pool_total_conns", "Connections currently open in the membership pool.",
		func() float64 { return float64(pool.Stats().TotalConns) })

	resolver := auth.NewResolver(bearer, sessions, auth.ResolverConfig{
		DefaultTenantID: cfg.Auth.DefaultTenantID,
		Timeout:         cfg.Auth.UpstreamTimeout,
	}).WithObserver(collector)

	if cfg.Auth.DefaultTenantID == "" {
		log.Infow("no default tenant configured; principals without a tenant are rejected")
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:     log,
		Resolver:   resolver,
		Membership: membership,
		Tenants:    tenants,
		Registry:   security.DefaultRegistry(),
		Metrics:    collector,
		HealthChecks: map[string]handlers.Pinger{
			"postgres": pool,
			"redis":    sessions,
		},
		SessionCookie:   cfg.Auth.SessionCookie,
		UpstreamTimeout: cfg.Auth.UpstreamTimeout,
		Development:     cfg.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
