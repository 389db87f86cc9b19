package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

type ConsumerConfig struct {
	Brokers      []string
	Topic        string
	Group        string
	RetryBackoff time.Duration
}

// Consumer reads the booking action topic and commits each record only
// after it has been handled.
type Consumer struct {
	client  *kgo.Client
	handler *Handler
	logger  *slog.Logger
	backoff time.Duration
}

func NewConsumer(cfg ConsumerConfig, handler *Handler, logger *slog.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.Group == "" {
		return nil, errors.New("kafka consumer needs brokers, topic and group")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.DisableAutoCommit(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger, backoff: cfg.RetryBackoff}, nil
}

// Run polls until ctx is cancelled. A record whose handling fails is retried
// in place, so records of one partition are stored in order.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "kafka fetch error", "topic", topic, "partition", partition, "error", err)
		})

		var failed error
		fetches.EachRecord(func(rec *kgo.Record) {
			if failed != nil {
				return
			}
			failed = c.handleWithRetry(ctx, rec)
		})
		if failed != nil {
			if ctx.Err() != nil {
				return nil
			}
			return failed
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, rec *kgo.Record) error {
	for {
		err := c.handler.Handle(ctx, rec)
		if err == nil {
			if err := c.client.CommitRecords(ctx, rec); err != nil {
				c.logger.WarnContext(ctx, "kafka commit failed", "offset", rec.Offset, "error", err)
			}
			return nil
		}
		c.logger.ErrorContext(ctx, "booking action not stored, retrying",
			"topic", rec.Topic,
			"partition", rec.Partition,
			"offset", rec.Offset,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff):
		}
	}
}

func (c *Consumer) Close() {
	c.client.Close()
}
