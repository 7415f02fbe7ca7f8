package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	leadrepo "leadcall_backend/internal/leads/repository"
	"leadcall_backend/internal/scheduler"
	"leadcall_backend/internal/voice"
	"leadcall_backend/platform/config"
	"leadcall_backend/platform/db"
	"leadcall_backend/platform/logger"
	"leadcall_backend/platform/retry"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	voiceClient := voice.New(cfg, log)
	if !voiceClient.Configured() {
		log.Warn("RETELL_API_KEY or RETELL_FROM_NUMBER not configured; dials will fail and be rescheduled")
	}

	dialer := scheduler.NewDialer(
		leadrepo.New(pool),
		client,
		voiceClient,
		cfg.GetOutboundScanBatchSize(),
		cfg.GetOutboundMaxAttempts(),
		log,
	)

	worker, err := scheduler.NewWorker(cfg, dialer, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	// Pick up leads that became due while no scheduler was running.
	if err := client.TriggerOutboundScan(ctx, scheduler.OutboundScanPayload{Reason: "startup"}); err != nil {
		log.Warn("startup scan trigger failed", "error", err)
	}

	sweeper := scheduler.NewSweeper(client, cfg.GetOutboundSweepInterval(), log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})
	g.Go(func() error {
		worker.Run(gctx)
		stop()
		return nil
	})
	_ = g.Wait()
	log.Info("scheduler stopped")
}
