package appcontext

import (
	"context"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/ratelimit"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/platform/logger"
	"github.com/RoyceAzure/lab/storefront/internal/platform/observability"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/token"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const tokenIssuer = "storefront"

type ApplicationContext struct {
	Cf             *config.Config
	Logger         *zerolog.Logger
	DbDao          *db.UnifiedDBImpl
	RedisClient    *redis.Client
	ProductCache   redis_repo.IProductCache
	Limiter        ratelimit.ILimiter
	EventProducer  producer.IOrderEventProducer
	TokenMaker     token.Maker
	StockLedger    *service.StockLedger
	StatusMachine  *service.OrderStatusMachine
	ProductService service.IProductService
	CartService    service.ICartService
	OrderService   service.IOrderService
	UserService    service.IUserService
	AdminService   service.IAdminService

	tracerShutdown func(context.Context) error
}

func NewApplicationContext(ctx context.Context, cf *config.Config) (*ApplicationContext, error) {
	app := &ApplicationContext{
		Cf:     cf,
		Logger: logger.New(cf.LogLevel, cf.IsDebug()),
	}
	if err := app.Init(ctx); err != nil {
		// 已建立的連線要釋放
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.Shutdown(shutdownCtx)
		return nil, err
	}
	return app, nil
}

func (app *ApplicationContext) Init(ctx context.Context) error {
	for _, step := range []struct {
		name string
		fn   func(context.Context) error
	}{
		{"tracing", app.setUpTracing},
		{"database", app.setUpDb},
		{"redis", app.setUpRedis},
		{"event producer", app.setUpEventProducer},
		{"token maker", app.setUpTokenMaker},
		{"services", app.setUpServices},
	} {
		app.Logger.Info().Msgf("Start setup %s", step.name)
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("setup %s: %w", step.name, err)
		}
		app.Logger.Info().Msgf("Finish setup %s", step.name)
	}
	return nil
}

func (app *ApplicationContext) setUpTracing(ctx context.Context) error {
	shutdown, err := observability.SetupTracingSDK(ctx, app.Cf.OtelEndpoint)
	if err != nil {
		return err
	}
	app.tracerShutdown = shutdown
	return nil
}

func (app *ApplicationContext) connConfig() db.ConnConfig {
	return db.ConnConfig{
		DbName:          app.Cf.DbName,
		Host:            app.Cf.DbHost,
		Port:            app.Cf.DbPort,
		User:            app.Cf.DbUser,
		Pas:             app.Cf.DbPas,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

func (app *ApplicationContext) setUpDb(ctx context.Context) error {
	cf := app.connConfig()
	if app.Cf.DbAutoMigrate {
		if err := db.RunDBMigration(app.Cf.MigrationURL, cf); err != nil {
			return fmt.Errorf("db migration: %w", err)
		}
	}

	conn, err := db.GetDbConn(cf, app.Logger)
	if err != nil {
		return err
	}
	app.DbDao = db.NewUnifiedDB(conn)

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// setUpRedis REDIS_ADDR 為空時不使用快取與限流
func (app *ApplicationContext) setUpRedis(ctx context.Context) error {
	if app.Cf.RedisAddr == "" {
		app.Logger.Warn().Msg("REDIS_ADDR is empty, product cache and rate limit disabled")
		return nil
	}
	client, err := redis_repo.NewRedisClient(ctx, app.Cf.RedisAddr,
		redis_repo.WithPassword(app.Cf.RedisPassword),
		redis_repo.WithDB(app.Cf.RedisDB),
	)
	if err != nil {
		return err
	}
	app.RedisClient = client
	app.ProductCache = redis_repo.NewProductCacheRepo(client, "storefront", app.Cf.ProductCacheTTL)
	app.Limiter = ratelimit.NewRsTokenBucket(client, &ratelimit.LimiterConfig{
		Prefix:   "storefront:ratelimit",
		Capacity: app.Cf.RateLimitCapacity,
		RatePS:   app.Cf.RateLimitRefill,
	})
	return nil
}

// setUpEventProducer KAFKA_BROKERS 為空時不發送事件
func (app *ApplicationContext) setUpEventProducer(context.Context) error {
	cfg := producer.Config{
		Brokers:       app.Cf.KafkaBrokerList(),
		Topic:         app.Cf.KafkaOrderTopic,
		RetryAttempts: 3,
	}
	if len(cfg.Brokers) == 0 {
		app.Logger.Warn().Msg("KAFKA_BROKERS is empty, order events disabled")
		app.EventProducer = producer.NoopOrderEventProducer{}
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	app.EventProducer = producer.NewOrderEventProducer(producer.NewKafkaWriter(cfg, app.Logger), cfg.RetryAttempts)
	return nil
}

func (app *ApplicationContext) setUpTokenMaker(context.Context) error {
	maker, err := token.NewJWTMaker(app.Cf.AuthTokenKey, tokenIssuer)
	if err != nil {
		return fmt.Errorf("AUTH_TOKEN_KEY: %w", err)
	}
	app.TokenMaker = maker
	return nil
}

func (app *ApplicationContext) setUpServices(context.Context) error {
	app.StockLedger = service.NewStockLedger(app.DbDao, app.ProductCache, app.Logger)
	app.StatusMachine = service.NewOrderStatusMachine(app.DbDao, app.StockLedger, app.EventProducer, app.Logger)
	app.ProductService = service.NewProductService(app.DbDao, app.StockLedger, app.ProductCache, app.Logger)
	app.CartService = service.NewCartService(app.DbDao, app.Logger)
	app.OrderService = service.NewOrderService(
		app.DbDao,
		app.StockLedger,
		app.StatusMachine,
		config.LiveStoreSettings{},
		app.EventProducer,
		app.Logger,
	)
	app.UserService = service.NewUserService(app.DbDao, app.TokenMaker, service.TokenDurations{
		Access:  app.Cf.AccessTokenDuration,
		Refresh: app.Cf.RefreshTokenDuration,
	}, app.Logger)
	app.AdminService = service.NewAdminService(app.DbDao)
	return nil
}

// Shutdown 先關閉對外的 producer 與 redis, 最後關閉 DB
func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	app.Logger.Info().Msg("Start application shutdown")

	done := make(chan error, 1)
	go func() {
		var g errgroup.Group
		if app.EventProducer != nil {
			g.Go(app.EventProducer.Close)
		}
		if app.RedisClient != nil {
			g.Go(app.RedisClient.Close)
		}
		if app.tracerShutdown != nil {
			g.Go(func() error { return app.tracerShutdown(ctx) })
		}
		err := g.Wait()

		if app.DbDao != nil {
			app.Logger.Info().Msg("Closing database connection...")
			if closeErr := app.DbDao.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}
		done <- err
	}()

	select {
	case err := <-done:
		app.Logger.Info().Err(err).Msg("Application shutdown complete")
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}
