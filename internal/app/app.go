// Package app wires the service together and owns its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/mintworks/launchgate/internal/config"
	"github.com/mintworks/launchgate/internal/domain"
	"github.com/mintworks/launchgate/internal/eligibility"
	"github.com/mintworks/launchgate/internal/event"
	handler "github.com/mintworks/launchgate/internal/handler/http"
	"github.com/mintworks/launchgate/internal/ledger"
	"github.com/mintworks/launchgate/internal/oracle"
	"github.com/mintworks/launchgate/internal/pricing"
	"github.com/mintworks/launchgate/internal/registry"
	"github.com/mintworks/launchgate/internal/scoring"
	"github.com/mintworks/launchgate/internal/service"
	"github.com/mintworks/launchgate/pkg/health"
	"github.com/mintworks/launchgate/pkg/httpclient"
	"github.com/mintworks/launchgate/pkg/kafka"
	"github.com/mintworks/launchgate/pkg/logger"
	"github.com/mintworks/launchgate/pkg/tracing"
)

// App is the assembled service.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server

	registry *registry.Registry
	access   *service.AccessService
	admin    *service.AdminService

	producer        *kafka.Producer
	redisClient     *redis.Client
	tracingShutdown func(context.Context) error

	sweeperCancel context.CancelFunc
}

// New builds the application from configuration.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.New(cfg.ServiceName, cfg.LogLevel)
	slog.SetDefault(log)

	tracingShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.TracingEndpoint,
		SampleRate:     cfg.TracingSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	app := &App{cfg: cfg, logger: log, tracingShutdown: tracingShutdown}

	healthHandler := health.NewHandler()

	balances, socials, err := app.buildOracles(healthHandler)
	if err != nil {
		return nil, err
	}

	var publisher *event.Publisher
	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(kafka.DefaultProducerConfig(cfg.KafkaBrokers), log)
		if err := pingKafka(ctx, producer); err != nil {
			return nil, fmt.Errorf("kafka not reachable: %w", err)
		}
		app.producer = producer
		publisher = event.NewPublisher(producer, log)
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
	}

	reg := registry.NewRegistry()
	led := ledger.NewLedger(cfg.ReservationTTL)

	weights := scoring.Weights{
		PlatformWeights: map[domain.Platform]float64{
			domain.PlatformTwitter:  cfg.ScoreWeightTwitter,
			domain.PlatformTelegram: cfg.ScoreWeightTelegram,
			domain.PlatformDiscord:  cfg.ScoreWeightDiscord,
		},
		VerifiedAccountBonus: cfg.ScoreVerifiedBonus,
		MultiPlatformBonus:   cfg.ScoreMultiPlatBonus,
	}

	accessCfg := service.AccessConfig{
		OracleRetries:       cfg.OracleRetries,
		OracleRetryInterval: cfg.OracleRetryWait,
	}

	app.registry = reg
	app.access = service.NewAccessService(
		reg,
		scoring.NewEngine(weights),
		eligibility.NewEvaluator(),
		pricing.NewEngine(),
		led,
		balances,
		socials,
		publisher,
		oracle.SystemClock{},
		accessCfg,
		log,
	)
	app.admin = service.NewAdminService(reg, publisher, oracle.SystemClock{}, log)

	if cfg.SeedDemo {
		if err := app.seedDemo(ctx); err != nil {
			return nil, fmt.Errorf("seed demo launch: %w", err)
		}
	}

	router := handler.NewRouter(handler.RouterConfig{
		Access:      handler.NewAccessHandler(app.access, log),
		Phases:      handler.NewPhaseHandler(app.admin, log),
		Health:      healthHandler,
		Logger:      log,
		AdminSecret: cfg.AdminJWTSecret,
		ServiceName: cfg.ServiceName,
	})

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return app, nil
}

// buildOracles selects the configured signal sources and layers the redis
// cache over the balance oracle when enabled.
func (a *App) buildOracles(healthHandler *health.Handler) (oracle.BalanceOracle, oracle.SocialProvider, error) {
	var balances oracle.BalanceOracle
	var socials oracle.SocialProvider

	switch a.cfg.OracleMode {
	case config.OracleModeStatic:
		balances = oracle.NewStaticBalanceOracle()
		socials = oracle.NewStaticSocialProvider()
	case config.OracleModeHTTP:
		base := httpclient.New(httpclient.DefaultConfig())
		balanceClient := httpclient.NewCircuitBreakerClient(base,
			httpclient.DefaultCircuitBreakerConfig("balance-oracle"), a.logger)
		socialClient := httpclient.NewCircuitBreakerClient(base,
			httpclient.DefaultCircuitBreakerConfig("social-provider"), a.logger)
		balances = oracle.NewHTTPBalanceOracle(balanceClient, a.cfg.BalanceOracleURL)
		socials = oracle.NewHTTPSocialProvider(socialClient, a.cfg.SocialProviderURL)
	default:
		return nil, nil, fmt.Errorf("unknown oracle mode %q", a.cfg.OracleMode)
	}

	if a.cfg.RedisEnabled {
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
		})
		a.redisClient = client
		balances = oracle.NewCachedBalanceOracle(balances, client, a.cfg.BalanceCacheTTL, a.logger)
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	return balances, socials, nil
}

// Run serves HTTP until the context is canceled, then shuts down cleanly.
func (a *App) Run(ctx context.Context) error {
	sweeperCtx, cancel := context.WithCancel(context.Background())
	a.sweeperCancel = cancel
	go a.access.RunReservationSweeper(sweeperCtx, a.cfg.SweeperInterval)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening",
			slog.String("addr", a.server.Addr),
			slog.String("environment", a.cfg.Environment))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		return a.Shutdown()
	}
}

// Shutdown stops the server, the sweeper, and the outbound clients in
// dependency order.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error

	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if a.sweeperCancel != nil {
		a.sweeperCancel()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka close: %w", err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if a.tracingShutdown != nil {
		if err := a.tracingShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.logger.Info("shutdown complete")
	return nil
}

// pingKafka retries broker connectivity briefly so a racing broker startup
// does not kill the service.
func pingKafka(ctx context.Context, producer *kafka.Producer) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	return backoff.Retry(func() error {
		return producer.Ping(ctx)
	}, backoff.WithContext(bo, ctx))
}
