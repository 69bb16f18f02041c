package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/PatronScore/internal/anonymize"
	"github.com/utafrali/PatronScore/internal/cache"
	"github.com/utafrali/PatronScore/internal/config"
	"github.com/utafrali/PatronScore/internal/event"
	handler "github.com/utafrali/PatronScore/internal/handler/http"
	"github.com/utafrali/PatronScore/internal/metrics"
	"github.com/utafrali/PatronScore/internal/publisher"
	"github.com/utafrali/PatronScore/internal/publisher/mock"
	"github.com/utafrali/PatronScore/internal/publisher/reddit"
	"github.com/utafrali/PatronScore/internal/repository/postgres"
	"github.com/utafrali/PatronScore/internal/service"
	"github.com/utafrali/PatronScore/internal/share"
	"github.com/utafrali/PatronScore/internal/textgen"
	"github.com/utafrali/PatronScore/migrations"
	"github.com/utafrali/PatronScore/pkg/database"
	"github.com/utafrali/PatronScore/pkg/health"
	"github.com/utafrali/PatronScore/pkg/httpclient"
	pkgkafka "github.com/utafrali/PatronScore/pkg/kafka"
	"github.com/utafrali/PatronScore/pkg/middleware"
	"github.com/utafrali/PatronScore/pkg/tracing"
)

// ServiceName identifies the service in logs, traces and pool metrics.
const ServiceName = "reputation-service"

// App wires together all dependencies and runs the reputation service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	stopLimiter    context.CancelFunc
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Tracing.
	traceCfg := tracing.DefaultConfig(ServiceName)
	traceCfg.Environment = cfg.Environment
	traceCfg.OTLPEndpoint = cfg.OTLPEndpoint
	traceCfg.SampleRate = cfg.TracingSampleRate
	traceCfg.Enabled = cfg.TracingEnabled
	shutdown, err := tracing.InitTracer(ctx, traceCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = shutdown

	// PostgreSQL pool and schema.
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL
	pgCfg.MaxConns = cfg.PostgresMaxConns
	pgCfg.MinConns = cfg.PostgresMinConns

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, ServiceName); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)

	// Aggregate cache.
	var aggCache cache.AggregateCache
	if cfg.UseRedis() {
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Addr = cfg.RedisAddr
		redisCfg.Password = cfg.RedisPass
		redisCfg.DB = cfg.RedisDB

		rdb, err := database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			a.closeAll()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		aggCache = cache.NewRedis(rdb, cfg.CacheTTL)
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
	} else {
		aggCache = cache.NewMemory()
		logger.Warn("aggregate cache is in process memory; do not run more than one instance")
	}

	// Kafka producer.
	a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Domain metrics.
	m, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	// External collaborators.
	titles := textgen.New(
		newBreakerClient(textgen.CollaboratorName, cfg.TitleTimeout, logger),
		textgen.Config{BaseURL: cfg.TitleAPIURL, APIKey: cfg.TitleAPIKey, Model: cfg.TitleModel},
	)
	if cfg.TitleAPIKey == "" {
		logger.Warn("TITLE_API_KEY is not set; shared posts use the fallback title")
	}
	pub := newPublisher(cfg, logger)

	keys := anonymize.NewHasher(cfg.LookupKeyPepper)
	if !keys.Keyed() {
		logger.Warn("LOOKUP_KEY_PEPPER is not set; lookup keys are unkeyed SHA-256")
	}

	// Build the dependency graph.
	reputationService := service.NewReputationService(service.Deps{
		Customers: postgres.NewCustomerRepository(pool),
		Reviews:   postgres.NewReviewRepository(pool),
		Cache:     aggCache,
		Shares:    share.NewGenerator(titles, cfg.TitleTimeout, logger, share.WithMetrics(m)),
		Publisher: pub,
		Events:    event.NewProducer(a.producer, logger),
		Metrics:   m,
		Logger:    logger,

		LookupKeys: keys,
	})

	// Health checks.
	healthHandler := health.NewHandler(2 * time.Second)
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if a.rdb != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return a.rdb.Ping(ctx).Err()
		})
	}
	healthHandler.Register("kafka", a.producer.Ping)

	// Phone lookups are throttled per client.
	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	a.stopLimiter = stopLimiter
	lookupLimit := middleware.RateLimit(limiterCtx, middleware.RateLimitConfig{
		PerMinute:      cfg.LookupRatePerMinute,
		Burst:          cfg.LookupRateBurst,
		TrustForwarded: cfg.TrustForwarded,
	}, logger)

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		Service:     reputationService,
		Health:      healthHandler,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		PprofCIDRs:  cfg.PprofCIDRs,
		LookupLimit: lookupLimit,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return a, nil
}

// newBreakerClient returns an HTTP client for one collaborator guarded by a
// circuit breaker.
func newBreakerClient(name string, timeout time.Duration, logger *slog.Logger) *httpclient.CircuitBreakerClient {
	clientCfg := httpclient.DefaultConfig()
	if timeout > 0 {
		clientCfg.Timeout = timeout
	}
	return httpclient.NewCircuitBreakerClient(
		httpclient.New(clientCfg),
		httpclient.DefaultCircuitBreakerConfig(name),
		logger,
	)
}

// newPublisher selects the external network shared reviews are posted to.
func newPublisher(cfg *config.Config, logger *slog.Logger) publisher.Publisher {
	if cfg.PublisherProvider == publisher.ProviderReddit {
		logger.Info("publishing shared reviews to reddit")
		return reddit.New(newBreakerClient(reddit.CollaboratorName, 0, logger), reddit.Config{
			ClientID:     cfg.RedditClientID,
			ClientSecret: cfg.RedditSecret,
			Username:     cfg.RedditUsername,
			Password:     cfg.RedditPassword,
			UserAgent:    cfg.RedditUserAgent,
			AuthURL:      cfg.RedditAuthURL,
			APIURL:       cfg.RedditAPIURL,
		})
	}
	logger.Info("publishing shared reviews to the mock publisher")
	return mock.New(cfg.MockPublisherURL)
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeAll()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.closeAll()
	a.logger.Info("application shutdown complete")
	return nil
}

// closeAll releases every resource opened so far. It is safe on a partially
// built App.
func (a *App) closeAll() {
	if a.stopLimiter != nil {
		a.stopLimiter()
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if a.pool != nil {
		a.pool.Close()
	}

	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
