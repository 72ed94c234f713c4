package app

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/GlebRadaev/cryptocheckout/internal/config"
	"github.com/GlebRadaev/cryptocheckout/internal/events"
	"github.com/GlebRadaev/cryptocheckout/internal/handlers"
	"github.com/GlebRadaev/cryptocheckout/internal/network"
	"github.com/GlebRadaev/cryptocheckout/internal/pg"
	"github.com/GlebRadaev/cryptocheckout/internal/rates"
	"github.com/GlebRadaev/cryptocheckout/internal/repo"
	"github.com/GlebRadaev/cryptocheckout/internal/service"
	"github.com/GlebRadaev/cryptocheckout/internal/sweeper"
	"github.com/GlebRadaev/cryptocheckout/pkg/clients"
	"github.com/GlebRadaev/cryptocheckout/pkg/logger"
)

const eventBuffer = 1024

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg     *config.Config
	api     *handlers.Handlers
	srv     *service.Services
	repo    *repo.Repositories
	sweeper *sweeper.Service

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()

	err := logger.InitLogger(cfg)
	if err != nil {
		return errors.Wrap(err, "can't init logger")
	}
	if err := cfg.Validate(); err != nil {
		zap.L().Error("invalid configuration: ", zap.Error(err))
		return errors.Wrap(err, "invalid configuration")
	}
	networks, err := network.NewRegistry(cfg.Wallets())
	if err != nil {
		return errors.Wrap(err, "can't build network registry")
	}

	pool, err := getPgxpool(ctx, cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return errors.Wrap(err, "can't build pgx pool")
	}
	if err := pg.RunMigrations(pool); err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return errors.Wrap(err, "can't run migrations")
	}
	txManager := pg.NewTXManager(pool)

	rdb, err := getRedis(ctx, cfg)
	if err != nil {
		zap.L().Error("connect to redis failed: ", zap.Error(err))
		return errors.Wrap(err, "can't connect to redis")
	}

	conn := pg.New(pool)
	a.cfg = cfg
	a.repo = repo.New(conn, txManager, rdb)

	httpClient := clients.NewHTTPClient()
	rateSource := rates.NewCache(cfg.RateCacheTTL, cfg.RateMaxStale, cfg.RateProviderTimeout,
		rates.NewCoinGecko(cfg.CoinGeckoURL, httpClient),
		rates.NewCoinbase(cfg.CoinbaseURL, httpClient),
	)

	a.srv = service.New(a.repo, rateSource, networks, a.startPublisher(ctx), service.Options{
		JWTSecret:      cfg.JWTSecret,
		TokenTTL:       cfg.TokenTTL,
		AdminToken:     cfg.AdminToken,
		SpreadBps:      cfg.SpreadBps,
		QuoteTTL:       cfg.QuoteTTL,
		ReservationTTL: cfg.ReservationTTL,
	})
	if err := a.initCatalog(ctx); err != nil {
		return errors.Wrap(err, "can't initialize catalog stock")
	}
	a.api = handlers.New(a.srv)
	a.sweeper = sweeper.New(a.srv.PaymentService, a.srv.StockService, cfg.SweepInterval, cfg.SweepBatch)

	if err = a.startHTTPServer(ctx); err != nil {
		return errors.Wrap(err, "can't start http server")
	}

	a.sweeper.Start(ctx)

	a.ready = true
	zap.L().Info("all systems started successfully",
		zap.String("stockBackend", cfg.StockBackend),
		zap.Int("networks", len(networks.Enabled())),
	)
	return nil
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		return nil, err
	}
	return dbpool, nil
}

// getRedis returns nil when stock lives in Postgres.
func getRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.StockBackend != config.StockBackendRedis {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (a *Application) startPublisher(ctx context.Context) events.Publisher {
	if len(a.cfg.KafkaBrokers) == 0 {
		zap.L().Info("kafka brokers not configured, events are discarded")
		return events.NopPublisher{}
	}
	publisher := events.NewKafkaPublisher(a.cfg.KafkaBrokers, a.cfg.KafkaTopic, eventBuffer)
	publisher.Start(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		publisher.WaitClosed()
	}()
	return publisher
}

func (a *Application) initCatalog(ctx context.Context) error {
	products, err := a.repo.CatalogRepo.List(ctx)
	if err != nil {
		return err
	}
	return a.srv.StockService.InitializeCatalog(ctx, products)
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:              a.cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(sCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.errCh <- errors.Wrap(err, "http server exited with error")
		}
	}()

	return nil
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	return appErr
}
