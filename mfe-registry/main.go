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

	"github.com/mosaic-labs/mosaic-go/internal/platform/env"
	"github.com/mosaic-labs/mosaic-go/internal/platform/httpserver"
	"github.com/mosaic-labs/mosaic-go/internal/platform/objectstore"
	"github.com/mosaic-labs/mosaic-go/internal/platform/postgres"
	repopg "github.com/mosaic-labs/mosaic-go/internal/repo/postgres"
	"github.com/mosaic-labs/mosaic-go/internal/service/deploy"
	"github.com/mosaic-labs/mosaic-go/internal/service/health"
	"github.com/mosaic-labs/mosaic-go/internal/service/publisher"
	releasesvc "github.com/mosaic-labs/mosaic-go/internal/service/release"
	"github.com/mosaic-labs/mosaic-go/internal/service/resolver"
	storageobjectstore "github.com/mosaic-labs/mosaic-go/internal/storage/objectstore"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("MOSAIC_HTTP_ADDR", ":8080")
	shutdownTimeout, err := env.Duration("MOSAIC_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	requestTimeout, err := env.Duration("MOSAIC_REQUEST_TIMEOUT", 5*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	cacheTTL, err := env.Duration("MOSAIC_REGISTRY_CACHE_TTL", 5*time.Minute)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	bootstrap, err := env.Bool("MOSAIC_DB_BOOTSTRAP", false)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(2)
	}
	db, err := postgres.Open(ctx, dbCfg)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if bootstrap {
		bootstrapCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := repopg.EnsureSchema(bootstrapCtx, db); err != nil {
			cancel()
			logger.Error("schema bootstrap failed", "error", err)
			os.Exit(1)
		}
		cancel()
	}

	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid object store config", "error", err)
		os.Exit(2)
	}
	storeClient, err := objectstore.NewMinIOClient(storeCfg)
	if err != nil {
		logger.Error("object store client init failed", "error", err)
		os.Exit(2)
	}
	startupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := objectstore.EnsureBuckets(startupCtx, storeClient, storeCfg); err != nil {
		cancel()
		logger.Error("object store unavailable", "error", err)
		os.Exit(1)
	}
	cancel()

	moduleStore := repopg.NewModuleStore(db)
	releaseStore := repopg.NewReleaseStore(db)
	auditAppender := repopg.NewAuditAppender(db, nil)
	txManager := repopg.NewTxManager(db)

	artifactStore, err := storageobjectstore.NewMinioStoreWithClient(storeClient)
	if err != nil {
		logger.Error("artifact store init failed", "error", err)
		os.Exit(2)
	}

	releaseService, err := releasesvc.NewService(releaseStore, auditAppender)
	if err != nil {
		logger.Error("release service init failed", "error", err)
		os.Exit(2)
	}
	deployService, err := deploy.NewService(txManager)
	if err != nil {
		logger.Error("deploy service init failed", "error", err)
		os.Exit(2)
	}
	resolverService, err := resolver.NewService(moduleStore)
	if err != nil {
		logger.Error("resolver init failed", "error", err)
		os.Exit(2)
	}
	prober, err := health.NewProber(moduleStore, artifactStore, storeCfg.BucketServe, 750*time.Millisecond)
	if err != nil {
		logger.Error("health prober init failed", "error", err)
		os.Exit(2)
	}
	publishService, err := publisher.NewService(moduleStore, artifactStore, storeCfg.BucketServe, storeCfg.BucketPersist, auditAppender)
	if err != nil {
		logger.Error("publisher init failed", "error", err)
		os.Exit(2)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("mfe-registry"))
	mux.HandleFunc(
		"/readyz",
		httpserver.ReadyzWithChecks(
			"mfe-registry",
			httpserver.ReadinessCheck{
				Name: "postgres",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
					defer cancel()
					return db.PingContext(checkCtx)
				},
			},
			httpserver.ReadinessCheck{
				Name: "minio",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
					defer cancel()
					return objectstore.CheckBuckets(checkCtx, storeClient, storeCfg)
				},
			},
		),
	)

	api := newRegistryAPI(logger, moduleStore, releaseService, deployService, resolverService, prober, publishService, cacheTTL, requestTimeout)
	api.register(mux)

	cfg := httpserver.Config{
		Service:         "mfe-registry",
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}

	if err := httpserver.Run(ctx, logger, cfg, httpserver.Wrap(logger, "mfe-registry", mux)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
