package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"apparel-storefront/internal/backend"
	"apparel-storefront/internal/config"
	"apparel-storefront/internal/db"
	"apparel-storefront/internal/httpserver"
	"apparel-storefront/internal/logging"
	"apparel-storefront/internal/migrate"
	"apparel-storefront/internal/repository/kv"
	"apparel-storefront/internal/service/catalog"
	"apparel-storefront/internal/service/payment"
	"apparel-storefront/internal/service/visitor"
	"apparel-storefront/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	shutdownTracing := telemetry.Setup(cfg.TracingEnabled, logger)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("open storage")
	}
	defer closeStore()

	client, err := backend.New(backend.Config{BaseURL: cfg.BackendURL, Timeout: cfg.BackendTimeout}, logger)
	if err != nil {
		logger.WithError(err).Fatal("init commerce api client")
	}

	visitors := visitor.NewRegistry(store, client, logger)
	go visitors.Run(ctx, cfg.VisitorIdleTimeout/2, cfg.VisitorIdleTimeout)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Visitors:       visitors,
		Catalog:        catalog.New(client, logger),
		Orders:         client,
		Store:          store,
		PublicOrigin:   cfg.PublicOrigin,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		CookieSecure:   cfg.CookieSecure,
		Watch: payment.Backoff{
			Initial:  cfg.StatusWatch.Initial,
			Max:      cfg.StatusWatch.Max,
			Attempts: cfg.StatusWatch.Attempts,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("init server")
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{"addr": cfg.HTTPAddr, "kv_backend": cfg.KVBackend}).Info("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.WithField("signal", sig.String()).Info("shutting down")
	case err := <-serverErr:
		logger.WithError(err).Error("server error")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	} else {
		logger.Info("server stopped")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Warn("flush traces failed")
	}
}

// openStore builds the key-value backend named by KV_BACKEND. The returned
// func releases its connections.
func openStore(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (kv.Store, func(), error) {
	switch cfg.KVBackend {
	case config.KVMemory:
		logger.Warn("using in-memory storage; visitor state is lost on restart")
		return kv.NewMemory(), func() {}, nil

	case config.KVPostgres:
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}
		if err := migrate.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		return kv.NewPostgres(pool), pool.Close, nil

	case config.KVRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return kv.NewRedis(rdb, cfg.KVTTL), func() { _ = rdb.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown KV_BACKEND %q", cfg.KVBackend)
}
