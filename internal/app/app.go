package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/atvirokodosprendimai/bookingaudit/internal/adapters/directory"
	"github.com/atvirokodosprendimai/bookingaudit/internal/adapters/gormstore"
	"github.com/atvirokodosprendimai/bookingaudit/internal/adapters/gormstore/gormdb"
	"github.com/atvirokodosprendimai/bookingaudit/internal/adapters/httpapi"
	"github.com/atvirokodosprendimai/bookingaudit/internal/adapters/queue"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/display"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/ports"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/schema"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/usecase"
	"github.com/atvirokodosprendimai/bookingaudit/internal/platform/metrics"
	"github.com/atvirokodosprendimai/bookingaudit/migrations"
)

type Config struct {
	DBDriver         string
	DBDSN            string
	BootstrapAPIKey  string
	BootstrapKeyName string
	RedisAddr        string
	RedisTTL         time.Duration
}

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// App holds the wired services shared by every command.
type App struct {
	Ingest   *usecase.IngestService
	Viewer   *usecase.ViewerService
	Auth     *usecase.AuthService
	Records  *gormstore.AuditRecordRepository
	Schemas  *schema.Registry
	Handlers *display.Registry
	Metrics  *prometheus.Registry

	log    *slog.Logger
	closer resourceCloser
}

func New(ctx context.Context, cfg Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := gormdb.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.DBDriver, err)
	}
	closer := resourceCloser{closers: []io.Closer{db}}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := migrations.Up(migrateCtx, writeSQLDB, db.Dialect()); err != nil {
		_ = closer.Close()
		return nil, err
	}

	fetchers := []ports.EntityFetcher{directory.NewUserFetcher(db), directory.NewAttendeeFetcher(db)}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			_ = rdb.Close()
			_ = closer.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		closer.closers = append(closer.closers, rdb)

		ttl := cfg.RedisTTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		cache := directory.NewRedisCache(rdb)
		for i, f := range fetchers {
			fetchers[i] = directory.NewCachedFetcher(f, cache, ttl, log)
		}
		log.Info("projection cache enabled", "redis_addr", cfg.RedisAddr, "ttl", ttl)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	schemas := schema.Default()
	handlers := display.NewRegistry()
	records := gormstore.NewAuditRecordRepository(db)
	actors := gormstore.NewActorRepository(db)
	apiKeys := gormstore.NewAPIKeyRepository(db)

	a := &App{
		Ingest:   usecase.NewIngestService(usecase.NewActorResolver(actors), records, schemas, log, m),
		Viewer:   usecase.NewViewerService(directory.NewBookingAuthorizer(db), records, actors, schemas, handlers, fetchers, log, m),
		Auth:     usecase.NewAuthService(apiKeys),
		Records:  records,
		Schemas:  schemas,
		Handlers: handlers,
		Metrics:  reg,
		log:      log,
		closer:   closer,
	}

	if cfg.BootstrapAPIKey != "" {
		bootstrapCtx, bootstrapCancel := context.WithTimeout(ctx, 5*time.Second)
		err := a.Auth.Bootstrap(bootstrapCtx, cfg.BootstrapAPIKey, cfg.BootstrapKeyName)
		bootstrapCancel()
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("bootstrap api key: %w", err)
		}
	}

	return a, nil
}

func (a *App) Close() error {
	return a.closer.Close()
}

func (a *App) NewServer(addr string) *http.Server {
	handler := httpapi.NewHandler(a.Ingest, a.Viewer, a.Auth, a.Metrics, a.log)
	return &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (a *App) NewConsumer(cfg queue.ConsumerConfig) (*queue.Consumer, error) {
	return queue.NewConsumer(cfg, queue.NewHandler(a.Ingest, a.log), a.log)
}

func (a *App) CheckHistory(ctx context.Context, batchSize int, report func(usecase.HistoryIssue) error) (int, error) {
	return usecase.CheckHistory(ctx, a.Records, a.Schemas, a.Handlers, batchSize, report)
}
