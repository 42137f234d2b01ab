package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/avergin/sessionguard/internal/core/port"
	"github.com/avergin/sessionguard/internal/infra/config"
	"github.com/avergin/sessionguard/internal/infra/database"
	"github.com/avergin/sessionguard/internal/infra/email"
	kafkainfra "github.com/avergin/sessionguard/internal/infra/kafka"
	"github.com/avergin/sessionguard/internal/infra/logger"
	redisinfra "github.com/avergin/sessionguard/internal/infra/redis"
	"github.com/avergin/sessionguard/internal/infra/security"
	"github.com/avergin/sessionguard/internal/infra/telemetry"
	"github.com/avergin/sessionguard/internal/repository/memory"
	postgresrepo "github.com/avergin/sessionguard/internal/repository/postgres"
	redisrepo "github.com/avergin/sessionguard/internal/repository/redis"
	"github.com/avergin/sessionguard/internal/transport/http/middleware"
	"github.com/avergin/sessionguard/internal/transport/http/routes"
	"github.com/avergin/sessionguard/internal/usecase"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	hasher   *security.PasswordHasher
	producer *kafkainfra.Producer
	tracing  *telemetry.TracerProvider
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	var tracing *telemetry.TracerProvider
	if cfg.Telemetry.TracingEnabled {
		tracing, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
	}

	argonCfg := security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}
	hasher, err := security.NewPasswordHasher(argonCfg, cfg.Argon2.Workers)
	if err != nil {
		return nil, fmt.Errorf("init password hasher: %w", err)
	}

	app := &Application{cfg: cfg, logger: log, hasher: hasher, tracing: tracing}

	needsPostgres := cfg.Storage.Users == config.StorePostgres
	needsRedis := cfg.Storage.Challenges == config.StoreRedis || cfg.Storage.Revocations == config.StoreRedis

	if needsPostgres {
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			app.closePartial()
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		app.pool = pool
	}

	if needsRedis {
		redisClient, err := redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			app.closePartial()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		app.redis = redisClient
	}

	var users port.UserStore
	if needsPostgres {
		users = postgresrepo.NewUserStore(app.pool, hasher)
	} else {
		users = memory.NewUserStore(hasher)
	}

	var challenges port.ChallengeStore
	if cfg.Storage.Challenges == config.StoreRedis {
		challenges = redisrepo.NewChallengeStore(app.redis.Client(), cfg.Redis.ChallengePrefix, cfg.TwoFA.ChallengeTTL)
	} else {
		challenges = memory.NewChallengeStore(cfg.TwoFA.ChallengeTTL)
	}

	var revoked port.RevocationStore
	if cfg.Storage.Revocations == config.StoreRedis {
		revoked = redisrepo.NewRevocationStore(app.redis.Client(), cfg.Redis.RevocationPrefix)
	} else {
		revoked = memory.NewRevocationStore()
	}

	tokens, err := security.NewTokenAuthority(cfg.JWT.Secret, cfg.JWT.TokenTTL, revoked)
	if err != nil {
		app.closePartial()
		return nil, fmt.Errorf("init token authority: %w", err)
	}

	var notifier port.Notifier
	if cfg.Email.Mode == "postmark" {
		notifier, err = email.NewPostmarkNotifier(cfg.Email, log)
		if err != nil {
			app.closePartial()
			return nil, fmt.Errorf("init postmark notifier: %w", err)
		}
	} else {
		notifier = email.NewLoggingNotifier(log)
	}

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			app.producer = kafkaProducer
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	authService := usecase.NewAuthService(users, challenges, revoked, tokens, notifier, eventPublisher, log)
	signupService := usecase.NewSignupService(users, eventPublisher, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		app.closePartial()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	deps := routes.Dependencies{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics,
		Services: routes.ServiceSet{
			Auth:   authService,
			Signup: signupService,
		},
	}
	if app.pool != nil {
		deps.Database = app.pool
	}
	if app.redis != nil {
		deps.Cache = app.redis
	}

	app.engine = routes.Register(deps)

	return app, nil
}

func (a *Application) closePartial() {
	if a.hasher != nil {
		a.hasher.Close()
	}
	if a.producer != nil {
		_ = a.producer.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.closePartial()
	defer func() {
		if a.tracing != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = a.tracing.Shutdown(shutdownCtx)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
