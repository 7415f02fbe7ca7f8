package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"leadcall_backend/platform/config"
	"leadcall_backend/platform/metrics"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// scanUniqueTTL collapses bursts of triggers into one pending scan.
const scanUniqueTTL = 30 * time.Second

type Client struct {
	client *asynq.Client
	queue  string
}

// ScanTrigger requests an outbound scan. Implementations must not block on
// the scan itself.
type ScanTrigger interface {
	TriggerOutboundScan(ctx context.Context, payload OutboundScanPayload) error
}

// DialEnqueuer queues a single outbound call.
type DialEnqueuer interface {
	EnqueueDial(ctx context.Context, payload OutboundDialPayload) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// TriggerOutboundScan enqueues a scan. A scan already pending within the
// unique window absorbs the trigger and nil is returned.
func (c *Client) TriggerOutboundScan(ctx context.Context, payload OutboundScanPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewOutboundScanTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.Unique(scanUniqueTTL))
	switch {
	case errors.Is(err, asynq.ErrDuplicateTask):
		metrics.SchedulerTriggers.WithLabelValues("deduplicated").Inc()
		return nil
	case err != nil:
		metrics.SchedulerTriggers.WithLabelValues("failed").Inc()
		return err
	}
	metrics.SchedulerTriggers.WithLabelValues("enqueued").Inc()
	return nil
}

// EnqueueDial queues one call. The task id is derived from the lead and its
// attempt count, so a claimed lead is queued at most once per attempt.
func (c *Client) EnqueueDial(ctx context.Context, payload OutboundDialPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewOutboundDialTask(payload)
	if err != nil {
		return err
	}

	taskID := fmt.Sprintf("dial:%s:%d", payload.LeadID, payload.Attempts)
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.TaskID(taskID), asynq.MaxRetry(3))
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
