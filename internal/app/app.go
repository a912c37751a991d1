package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/lisek75/uma-food-chatbot/internal/config"
	"github.com/lisek75/uma-food-chatbot/internal/event"
	handler "github.com/lisek75/uma-food-chatbot/internal/handler/http"
	"github.com/lisek75/uma-food-chatbot/internal/repository"
	"github.com/lisek75/uma-food-chatbot/internal/repository/mysql"
	"github.com/lisek75/uma-food-chatbot/internal/repository/postgres"
	rediscache "github.com/lisek75/uma-food-chatbot/internal/repository/redis"
	"github.com/lisek75/uma-food-chatbot/internal/service"
	"github.com/lisek75/uma-food-chatbot/internal/session"
	mysqlmigrations "github.com/lisek75/uma-food-chatbot/migrations/mysql"
	pgmigrations "github.com/lisek75/uma-food-chatbot/migrations/postgres"
	"github.com/lisek75/uma-food-chatbot/pkg/database"
	"github.com/lisek75/uma-food-chatbot/pkg/health"
	pkgkafka "github.com/lisek75/uma-food-chatbot/pkg/kafka"
	"github.com/lisek75/uma-food-chatbot/pkg/tracing"
)

const (
	serviceName     = "uma-food-chatbot"
	shutdownTimeout = 5 * time.Second
)

// backend is the relational store holding both the catalog and the ledger.
type backend struct {
	catalog repository.CatalogRepository
	ledger  repository.LedgerRepository
	ping    func(ctx context.Context) error
	close   func()
}

// App wires together all dependencies and runs the chatbot backend.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	db             *backend
	redis          *redis.Client
	producer       *pkgkafka.Producer
	reaper         *session.Reaper
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracingCfg := tracing.DefaultConfig(serviceName)
	tracingCfg.Environment = cfg.Environment
	tracingCfg.OTLPEndpoint = cfg.OTELEndpoint
	tracingCfg.SampleRate = cfg.OTELSampleRate
	tracingCfg.Enabled = cfg.OTELEnabled
	tracerShutdown, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)

	// Ledger and catalog database.
	db, err := openBackend(ctx, cfg, logger)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, err
	}

	a := &App{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		tracerShutdown: tracerShutdown,
	}

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical(cfg.DBDriver, db.ping)

	// Optional Redis read-through cache in front of the catalog.
	var cache *rediscache.CatalogCache
	if cfg.CatalogCacheEnabled {
		client, err := database.NewRedisClient(ctx, cfg.RedisConfig())
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client

		cache = rediscache.NewCatalogCache(db.catalog, client, cfg.CatalogCacheTTL(), logger)
		if err := cache.Invalidate(ctx); err != nil {
			logger.Warn("failed to invalidate catalog cache", slog.String("error", err.Error()))
		}
		healthHandler.RegisterNonCritical("redis", cache.Ping)
		logger.Info("catalog cache enabled",
			slog.String("addr", cfg.RedisAddr),
			slog.Duration("ttl", cfg.CatalogCacheTTL()),
		)
	}

	// Optional Kafka producer for order events.
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	router, reaper := wire(cfg, logger, db, cache, a.producer, healthHandler)
	a.reaper = reaper

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// wire builds the session store, services and router on top of the
// connected infrastructure. cache and producer may be nil.
func wire(
	cfg *config.Config,
	logger *slog.Logger,
	db *backend,
	cache *rediscache.CatalogCache,
	producer *pkgkafka.Producer,
	healthHandler *health.Handler,
) (http.Handler, *session.Reaper) {
	var catalogRepo repository.CatalogRepository = db.catalog
	if cache != nil {
		catalogRepo = cache
	}

	store := session.NewStore()
	reaper := session.NewReaper(store, cfg.SweepInterval(), cfg.SessionTimeout(), logger)

	catalog := service.NewCatalogGateway(catalogRepo, cfg.BreakerConfig("catalog"), logger)
	eventProducer := event.NewProducer(producer, logger)
	ordering := service.NewOrderingService(store, catalog, db.ledger, eventProducer, logger)

	router := handler.NewRouter(handler.Services{
		Ordering: ordering,
		Orders:   ordering,
		Catalog:  catalog,
	}, healthHandler, logger)

	return router, reaper
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	switch cfg.DBDriver {
	case config.DriverMySQL:
		mysqlCfg := cfg.MySQLConfig()
		db, err := database.NewMySQLDB(ctx, &mysqlCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to mysql: %w", err)
		}
		logger.Info("connected to MySQL",
			slog.String("host", cfg.MySQLHost),
			slog.Int("port", cfg.MySQLPort),
			slog.String("database", cfg.MySQLDB),
		)

		if err := database.RunMySQLMigrations(ctx, db, mysqlmigrations.FS, logger); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		database.RegisterSQLDBMetrics(db, cfg.MySQLDB)

		return newMySQLBackend(db), nil

	default:
		pgCfg := cfg.PostgresConfig()
		pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)

		if err := database.RunMigrations(ctx, pool, pgmigrations.FS, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		database.RegisterPoolMetrics(pool, "chatbot")

		return newPostgresBackend(pool, pool.Close), nil
	}
}

func newPostgresBackend(pool database.DBTX, closeFn func()) *backend {
	ledger := postgres.NewLedgerRepository(pool)
	return &backend{
		catalog: postgres.NewCatalogRepository(pool),
		ledger:  ledger,
		ping:    ledger.Ping,
		close:   closeFn,
	}
}

func newMySQLBackend(db *sql.DB) *backend {
	ledger := mysql.NewLedgerRepository(db)
	return &backend{
		catalog: mysql.NewCatalogRepository(db),
		ledger:  ledger,
		ping:    ledger.Ping,
		close:   func() { _ = db.Close() },
	}
}

// Run starts the HTTP server and the session reaper and blocks until the
// context is canceled or the server fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.reaper.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutdown signal received")
		return a.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.closeResources()

	a.logger.Info("application shutdown complete")
	return nil
}

func (a *App) closeResources() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	a.db.close()
}
