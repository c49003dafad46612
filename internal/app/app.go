// Package app assembles the booking server: storage, caches, broker,
// handlers and background workers, and runs them until a shutdown signal.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/bookyourshow/internal/config"
	"github.com/iliyamo/bookyourshow/internal/database"
	"github.com/iliyamo/bookyourshow/internal/flow"
	"github.com/iliyamo/bookyourshow/internal/handler"
	"github.com/iliyamo/bookyourshow/internal/metrics"
	"github.com/iliyamo/bookyourshow/internal/middleware"
	"github.com/iliyamo/bookyourshow/internal/migrations"
	"github.com/iliyamo/bookyourshow/internal/queue"
	"github.com/iliyamo/bookyourshow/internal/repository"
	"github.com/iliyamo/bookyourshow/internal/router"
	"github.com/iliyamo/bookyourshow/internal/scheduler"
	"github.com/iliyamo/bookyourshow/internal/service"
)

const metricsInterval = 15 * time.Second

type App struct {
	cfg        config.Config
	log        *zap.Logger
	db         *sql.DB
	rdb        *redis.Client
	recorder   *metrics.Recorder
	httpServer *http.Server
	scheduler  *scheduler.Scheduler
	publisher  *queue.Publisher
	stopPub    context.CancelFunc
	pubDone    chan struct{}
	consumer   *queue.Consumer
}

func New(cfg config.Config) (*App, error) {
	app := &App{cfg: cfg, recorder: metrics.NewRecorder()}

	log, err := newLogger(cfg.App)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	app.log = log

	if err = app.initDB(); err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	if err = app.runMigrations(); err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	app.initRedis()

	if err = app.initServices(); err != nil {
		app.closeStores()
		return nil, fmt.Errorf("init services: %w", err)
	}

	return app, nil
}

func newLogger(cfg config.AppConfig) (*zap.Logger, error) {
	if cfg.IsProd() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func (a *App) initDB() error {
	db, err := database.Open(context.Background(), a.cfg.DB)
	if err != nil {
		return err
	}
	a.db = db
	a.log.Info("database connected",
		zap.String("host", a.cfg.DB.Host),
		zap.String("port", a.cfg.DB.Port),
		zap.String("database", a.cfg.DB.Name),
	)
	return nil
}

func (a *App) runMigrations() error {
	if !a.cfg.DB.AutoMigrate {
		a.log.Info("automatic migrations disabled")
		return nil
	}
	ctx := context.Background()
	if err := migrations.Up(ctx, a.db, a.log); err != nil {
		return err
	}
	v, err := migrations.Version(ctx, a.db, a.log)
	if err != nil {
		return err
	}
	a.log.Info("migrations applied", zap.Int64("version", v))
	return nil
}

// initRedis connects the optional Redis client.  Without it rate limiting
// and caching pass through and the flow endpoints answer 503.
func (a *App) initRedis() {
	a.rdb = config.NewRedisClient(a.cfg.Redis)
	if a.rdb == nil {
		a.log.Warn("redis unavailable, running without cache, rate limit and flow sessions",
			zap.String("addr", a.cfg.Redis.Address()))
		return
	}
	a.log.Info("redis connected", zap.String("addr", a.cfg.Redis.Address()))
}

func (a *App) initServices() error {
	users := repository.NewUserRepo(a.db)
	tokens := repository.NewTokenRepo(a.db)
	movies := repository.NewMovieRepo(a.db)
	theaters := repository.NewTheaterRepo(a.db)
	shows := repository.NewShowRepo(a.db)
	bookings := repository.NewBookingRepo(a.db)
	audit := repository.NewAuditRepo(a.db)
	helper := database.NewHelper(a.db, a.log)
	reports := repository.NewReportRepo(helper)

	if a.cfg.Admin.Enabled() {
		created, err := users.EnsureAdmin(context.Background(),
			a.cfg.Admin.Name, a.cfg.Admin.Email, a.cfg.Admin.Password, a.cfg.Auth.BcryptCost)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			a.log.Info("admin account created", zap.String("email", a.cfg.Admin.Email))
		}
	}

	a.publisher = queue.NewPublisher(a.cfg.RabbitMQ.URL, a.log, a.recorder)
	if a.cfg.RabbitMQ.ConsumerEnabled {
		a.consumer = queue.NewConsumer(a.cfg.RabbitMQ.URL, a.cfg.App.AuditLogPath, a.log)
	}

	bookingService := service.NewBookingService(helper, shows, bookings, audit, a.publisher, a.recorder, a.log)
	invalidator := middleware.NewCacheInvalidator(a.cfg.Cache, a.rdb)

	flowHandler := handler.NewFlowHandler(nil, movies, shows, bookingService, a.log)
	if a.rdb != nil {
		flowHandler.Sessions = flow.NewRedisStore(a.rdb, a.cfg.Flow.SessionTTL)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(
		middleware.Recovery(a.log),
		middleware.RequestLogger(a.log, a.recorder),
		middleware.NewTokenBucket(a.cfg.RateLimit, a.rdb, a.log),
	)

	secret := a.cfg.Auth.JWTSecret
	router.RegisterRoutes(e, handler.NewHealthHandler(a.db), metrics.Handler())
	router.RegisterAuth(e, handler.NewAuthHandler(a.cfg.Auth, users, tokens), secret)
	router.RegisterPublic(e,
		handler.NewBrowseHandler(movies, theaters, shows, bookingService),
		middleware.NewRedisCache(a.cfg.Cache, a.rdb, a.recorder, a.log),
	)
	router.RegisterCustomer(e, handler.NewBookingHandler(bookingService, a.log), flowHandler, secret)
	router.RegisterAdmin(e,
		handler.NewAdminHandler(movies, theaters, shows, reports, audit, invalidator, a.log),
		secret,
	)

	a.scheduler = scheduler.New(movies, invalidator, tokens, a.recorder, a.cfg.Scheduler.Interval, a.log)

	a.httpServer = &http.Server{
		Addr:         a.cfg.App.Addr(),
		Handler:      e,
		ReadTimeout:  a.cfg.App.ReadTimeout,
		WriteTimeout: a.cfg.App.WriteTimeout,
	}

	return nil
}

// Run serves HTTP and the background workers until SIGINT or SIGTERM,
// then shuts everything down in order.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go a.scheduler.Start(ctx)
	go a.recorder.Collect(ctx, metricsInterval)

	// The publisher outlives the signal so requests still in flight during
	// shutdown can queue their events; shutdown stops it after HTTP.
	pubCtx, stopPub := context.WithCancel(context.Background())
	a.stopPub, a.pubDone = stopPub, make(chan struct{})
	go func() {
		defer close(a.pubDone)
		a.publisher.Run(pubCtx)
	}()
	if a.consumer != nil {
		go a.consumer.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server starting",
			zap.String("addr", a.httpServer.Addr),
			zap.String("env", a.cfg.App.Env),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case runErr = <-errCh:
		stop()
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (a *App) shutdown() error {
	a.log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.App.ShutdownTimeout)
	defer cancel()

	var err error
	if e := a.httpServer.Shutdown(shutdownCtx); e != nil {
		err = fmt.Errorf("http server shutdown: %w", e)
	} else {
		a.log.Info("HTTP server stopped")
	}

	if a.stopPub != nil {
		a.stopPub()
		<-a.pubDone
		a.log.Info("event publisher stopped")
	}

	a.closeStores()
	a.log.Info("app stopped")
	_ = a.log.Sync()
	return err
}

func (a *App) closeStores() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn("close redis", zap.Error(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn("close db", zap.Error(err))
		return
	}
	a.log.Info("database connection closed")
}
