package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadcall_backend/internal/adapters"
	"leadcall_backend/internal/adapters/storage"
	"leadcall_backend/internal/calls"
	"leadcall_backend/internal/calls/reconciler"
	"leadcall_backend/internal/events"
	apphttp "leadcall_backend/internal/http"
	"leadcall_backend/internal/http/router"
	"leadcall_backend/internal/leads"
	"leadcall_backend/internal/scheduler"
	"leadcall_backend/internal/summarizer"
	"leadcall_backend/migrations"
	"leadcall_backend/platform/config"
	"leadcall_backend/platform/db"
	"leadcall_backend/platform/logger"
	"leadcall_backend/platform/retry"
	"leadcall_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := retry.Do(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := retry.Do(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	summarizerSvc, err := summarizer.NewFromConfig(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize summarizer", "error", err)
		panic("failed to initialize summarizer: " + err.Error())
	}

	archive := initTranscriptArchive(ctx, cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule := leads.NewModule(pool, eventBus, val, cfg, log)
	leadResolver := adapters.NewCallLeadResolver(leadsModule.Repository())
	callsModule := calls.NewModule(pool, leadResolver, summarizerSvc, archive, eventBus, cfg, log)

	trigger, closeScheduler := initScanTrigger(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}
	scheduler.NewSubscriber(trigger, leadsModule.Repository(), log).RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			callsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		eventBus.Wait()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	log.Info("server stopped")
}

// initTranscriptArchive returns nil when MinIO is not configured.
func initTranscriptArchive(ctx context.Context, cfg *config.Config, log *logger.Logger) reconciler.TranscriptArchive {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; call transcripts are not archived")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinioBucketCallTranscripts()
	if err := retry.Do(ctx, log, "ensure call-transcripts bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "callTranscriptsBucket", bucket)

	return adapters.NewTranscriptArchive(storageSvc, bucket)
}

// initScanTrigger returns a nil trigger when Redis is not configured; leads
// then wait for the scheduler's sweep.
func initScanTrigger(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.ScanTrigger, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; outbound scans run on the scheduler sweep only")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}
