package scheduler

import (
	"context"
	"time"

	"leadcall_backend/platform/logger"

	"github.com/robfig/cron/v3"
)

const defaultSweepInterval = time.Minute

// Sweeper periodically triggers a scan so a lost trigger only delays a
// scheduled call.
type Sweeper struct {
	trigger  ScanTrigger
	interval time.Duration
	log      *logger.Logger
}

// NewSweeper builds a sweeper. Intervals below one second are rounded up
// by the cron schedule.
func NewSweeper(trigger ScanTrigger, interval time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{trigger: trigger, interval: interval, log: log}
}

// Run blocks until ctx is cancelled, then waits for an in-flight sweep.
func (s *Sweeper) Run(ctx context.Context) {
	if s == nil || s.trigger == nil {
		return
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(cron.Every(s.interval), cron.FuncJob(func() { s.sweep(ctx) }))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
}

func (s *Sweeper) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.trigger.TriggerOutboundScan(ctx, OutboundScanPayload{Reason: "sweep"}); err != nil {
		s.log.Warn("outbound sweep trigger failed", "error", err)
	}
}
