package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/atvirokodosprendimai/bookingaudit/internal/adapters/queue"
	"github.com/atvirokodosprendimai/bookingaudit/internal/app"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/usecase"
	"github.com/atvirokodosprendimai/bookingaudit/internal/platform/logger"
)

func main() {
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "bookingaudit",
		Usage: "Booking audit trail: ingest booking actions, serve rendered timelines",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":8080",
				Sources: cli.EnvVars("BOOKINGAUDIT_ADDR"),
				Usage:   "HTTP listen address",
			},
			&cli.StringFlag{
				Name:    "db-driver",
				Value:   "sqlite",
				Sources: cli.EnvVars("BOOKINGAUDIT_DB_DRIVER"),
				Usage:   "Store driver: sqlite or postgres",
			},
			&cli.StringFlag{
				Name:    "db-dsn",
				Value:   "./bookingaudit.sqlite",
				Sources: cli.EnvVars("BOOKINGAUDIT_DB_DSN"),
				Usage:   "SQLite file path or postgres DSN",
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "json",
				Sources: cli.EnvVars("BOOKINGAUDIT_LOG_FORMAT"),
				Usage:   "Log format: json or text",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Sources: cli.EnvVars("BOOKINGAUDIT_LOG_LEVEL"),
				Usage:   "Log level: debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Sources: cli.EnvVars("BOOKINGAUDIT_REDIS_ADDR"),
				Usage:   "Optional redis address for the entity projection cache",
			},
			&cli.DurationFlag{
				Name:    "redis-ttl",
				Value:   10 * time.Minute,
				Sources: cli.EnvVars("BOOKINGAUDIT_REDIS_TTL"),
				Usage:   "TTL of cached entity projections",
			},
			&cli.StringFlag{
				Name:    "bootstrap-api-key",
				Sources: cli.EnvVars("BOOKINGAUDIT_BOOTSTRAP_API_KEY"),
				Usage:   "Optional producer API key to upsert at startup",
			},
			&cli.StringFlag{
				Name:    "bootstrap-key-name",
				Value:   "bootstrap",
				Sources: cli.EnvVars("BOOKINGAUDIT_BOOTSTRAP_KEY_NAME"),
				Usage:   "Name for bootstrap API key",
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Sources: cli.EnvVars("BOOKINGAUDIT_KAFKA_BROKERS"),
				Usage:   "Kafka seed brokers",
			},
			&cli.StringFlag{
				Name:    "kafka-topic",
				Value:   "booking-actions",
				Sources: cli.EnvVars("BOOKINGAUDIT_KAFKA_TOPIC"),
				Usage:   "Topic carrying booking action events",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the ingestion and viewer HTTP API",
				Action: serve,
			},
			{
				Name:  "consume",
				Usage: "Ingest booking action events from Kafka",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "kafka-group",
						Value:   "bookingaudit",
						Sources: cli.EnvVars("BOOKINGAUDIT_KAFKA_GROUP"),
						Usage:   "Consumer group",
					},
					&cli.DurationFlag{
						Name:    "retry-backoff",
						Value:   time.Second,
						Sources: cli.EnvVars("BOOKINGAUDIT_KAFKA_RETRY_BACKOFF"),
						Usage:   "Wait between attempts to store a record",
					},
					&cli.BoolFlag{
						Name:  "create-topic",
						Usage: "Create the topic if it does not exist",
					},
				},
				Action: consume,
			},
			{
				Name:  "publish",
				Usage: "Publish booking action messages (one JSON object per line) from stdin or a file to Kafka",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "Read messages from this file instead of stdin",
					},
				},
				Action: publish,
			},
			{
				Name:  "check-history",
				Usage: "Report stored records the viewer cannot render",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Value: 500,
						Usage: "Records read per batch",
					},
				},
				Action: checkHistory,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("bookingaudit failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Command) (*slog.Logger, error) {
	log, err := logger.New(os.Stderr, c.String("log-format"), c.String("log-level"))
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)
	return log, nil
}

func openApp(ctx context.Context, c *cli.Command) (*app.App, *slog.Logger, error) {
	log, err := newLogger(c)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, app.Config{
		DBDriver:         c.String("db-driver"),
		DBDSN:            c.String("db-dsn"),
		BootstrapAPIKey:  c.String("bootstrap-api-key"),
		BootstrapKeyName: c.String("bootstrap-key-name"),
		RedisAddr:        c.String("redis-addr"),
		RedisTTL:         c.Duration("redis-ttl"),
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("create app: %w", err)
	}
	return a, log, nil
}

func closeApp(a *app.App, log *slog.Logger) {
	if err := a.Close(); err != nil {
		log.Error("close resources", "error", err)
	}
}

func serve(ctx context.Context, c *cli.Command) error {
	a, log, err := openApp(ctx, c)
	if err != nil {
		return err
	}
	defer closeApp(a, log)

	server := a.NewServer(c.String("addr"))
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case sig := <-sigCh:
		log.Info("received signal", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func consume(ctx context.Context, c *cli.Command) error {
	brokers := c.StringSlice("kafka-brokers")
	topic := c.String("kafka-topic")

	a, log, err := openApp(ctx, c)
	if err != nil {
		return err
	}
	defer closeApp(a, log)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if c.Bool("create-topic") {
		if err := queue.EnsureTopic(ctx, brokers, topic, 3, 1); err != nil {
			return err
		}
	}

	consumer, err := a.NewConsumer(queue.ConsumerConfig{
		Brokers:      brokers,
		Topic:        topic,
		Group:        c.String("kafka-group"),
		RetryBackoff: c.Duration("retry-backoff"),
	})
	if err != nil {
		return err
	}
	defer consumer.Close()

	log.Info("consuming booking actions", "topic", topic, "group", c.String("kafka-group"))
	return consumer.Run(ctx)
}

func publish(ctx context.Context, c *cli.Command) error {
	log, err := newLogger(c)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if path := c.String("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		in = f
	}

	producer, err := queue.NewProducer(c.StringSlice("kafka-brokers"), c.String("kafka-topic"))
	if err != nil {
		return err
	}
	defer producer.Close()

	decoder := json.NewDecoder(in)
	published := 0
	for {
		var msg domain.BookingActionMessage
		if err := decoder.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("decode message %d: %w", published+1, err)
		}
		if err := producer.Publish(ctx, msg); err != nil {
			return err
		}
		published++
	}
	log.Info("published booking actions", "count", published, "topic", c.String("kafka-topic"))
	return nil
}

func checkHistory(ctx context.Context, c *cli.Command) error {
	a, log, err := openApp(ctx, c)
	if err != nil {
		return err
	}
	defer closeApp(a, log)

	enc := json.NewEncoder(os.Stdout)
	issues := 0
	checked, err := a.CheckHistory(ctx, int(c.Int("batch-size")), func(issue usecase.HistoryIssue) error {
		issues++
		return enc.Encode(issue)
	})
	if err != nil {
		return err
	}
	log.Info("history check finished", "checked", checked, "issues", issues)
	if issues > 0 {
		return fmt.Errorf("%d of %d records cannot be rendered as stored", issues, checked)
	}
	return nil
}
