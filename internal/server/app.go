// Package server wires the vaultboard components together and runs them:
// the gRPC endpoint, the ops HTTP server and the audit emitter.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ShubhamGupta2412/vaultboard/internal/audit"
	"github.com/ShubhamGupta2412/vaultboard/internal/logging"
	"github.com/ShubhamGupta2412/vaultboard/internal/protect"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/auth"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/blobstore"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/cache"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/config"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/metrics"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/ops"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/repositories/repomanager"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	gs "github.com/ShubhamGupta2412/vaultboard/internal/server/grpc"
)

const (
	kafkaPartitions  = 3
	kafkaReplication = 1
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	emitter    *audit.Emitter
	grpcServer *gs.GRPCServer
	opsServer  *ops.Server
	closers    []func()
}

// NewApp validates cfg and builds every component. Optional backends
// (Kafka, Redis, S3) are skipped when their settings are empty.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)
	app := &App{config: cfg, logger: logger}

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db
	app.closers = append(app.closers, func() { _ = db.Close() })

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		app.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	protector, err := protect.New([]byte(cfg.EncryptionSecret), protect.WithFallbackHook(func(r protect.FallbackReason) {
		m.IncDecryptFallback(string(r))
	}))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("content protection: %w", err)
	}

	accessLogs := rm.AccessLogs(db)
	sinks := audit.MultiSink{accessLogs}
	if len(cfg.KafkaBrokers) > 0 {
		cl, err := audit.NewKafkaClient(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("kafka init error: %w", err)
		}
		app.closers = append(app.closers, cl.Close)
		if err := audit.EnsureTopic(ctx, cl, cfg.KafkaTopic, kafkaPartitions, kafkaReplication); err != nil {
			app.Close()
			return nil, err
		}
		sinks = append(sinks, audit.NewKafkaSink(cl, cfg.KafkaTopic))
	}

	app.emitter = audit.NewEmitter(sinks, audit.EmitterConfig{
		BufferSize:    cfg.AuditBufferSize,
		BatchSize:     cfg.AuditBatchSize,
		FlushInterval: cfg.AuditFlushInterval,
	}, logger, m)
	trail := audit.NewTrail(app.emitter, accessLogs)

	checks := map[string]ops.Check{"postgres": db.PingContext}

	var principalCache auth.PrincipalCache
	if cfg.RedisURL != "" {
		client, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		principalCache = cache.NewPrincipalCache(client, cfg.PrincipalCacheTTL)
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	var blobs services.BlobStore
	if cfg.S3Bucket != "" {
		store, err := blobstore.New(ctx, blobstore.Options{
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			BaseEndpoint: cfg.S3BaseEndpoint,
			Bucket:       cfg.S3Bucket,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("blob store init error: %w", err)
		}
		blobs = store
	}

	ps := services.NewPrincipalService(db, rm, cfg, logger)
	resolver := auth.NewResolver(ps, principalCache, logger, m)
	es := services.NewEntryService(db, rm, protector, trail, blobs, logger, m)

	app.grpcServer = gs.NewGRPCServer(cfg.GRPCAddr, logger, ps, es, resolver, cfg.JWTSecret, m)
	app.opsServer = ops.NewServer(cfg.MetricsAddr, ops.NewRouter(reg, checks), logger)

	return app, nil
}

// Close releases the backends opened by NewApp, most recent first.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}

// Run serves until SIGINT/SIGTERM or a server failure. The audit emitter
// is stopped only after both servers have returned, so events recorded
// during graceful shutdown are still flushed.
func (app *App) Run(ctx context.Context) error {
	defer app.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	emitterCtx, stopEmitter := context.WithCancel(context.Background())
	emitterDone := make(chan struct{})
	go func() {
		defer close(emitterDone)
		_ = app.emitter.Run(emitterCtx)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.grpcServer.Run(gctx) })
	g.Go(func() error { return app.opsServer.Run(gctx) })
	err := g.Wait()

	stopEmitter()
	<-emitterDone

	if err != nil {
		app.logger.Error(ctx, "app stopped with error", "error", err)
		return err
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}
