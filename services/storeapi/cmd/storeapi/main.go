package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/pkg/tracing"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/cache"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/config"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/httpserver"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/repo"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/service"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	shutdownTracing, err := tracing.Setup(cfg.ServiceName)
	if err != nil {
		log.Fatalf("tracing init error: %v", err)
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(initCtx, pkgdb.Options{DSN: cfg.DatabaseURL, SQLitePath: cfg.SQLitePath})
	if err != nil {
		cancel()
		log.Fatalf("db init error: %v", err)
	}
	Repo := &repo.GormRepo{DB: db}
	err = Repo.Migrate(initCtx)
	cancel()
	if err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	var cartCache cache.CartCache = cache.Noop{}
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cartCache = cache.NewRedisCartCache(rdb, cfg.CartCacheTTL)
	}

	publisher := events.New(cfg.KafkaBrokers)

	e := echo.New()
	e.HideBanner = true

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           tracing.Handler(e, cfg.ServiceName),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORS())
	e.Use(middleware.Secure())

	httpserver.Register(e, &httpserver.Deps{
		ProductHandler: &httpserver.ProductHTTP{
			Svc:       &service.CatalogService{Repo: Repo, Cache: cartCache, Events: publisher},
			JWTSecret: cfg.JWTAccessSecret,
		},
		CartHandler: &httpserver.CartHTTP{
			Svc: &service.CartService{Repo: Repo, Cache: cartCache, Events: publisher},
		},
		OrderHandler: &httpserver.OrderHTTP{
			Svc: &service.OrderService{Repo: Repo, Cache: cartCache, Events: publisher},
		},
		JWTSecret: cfg.JWTAccessSecret,
		DB:        Repo,
	})

	go func() {
		logger.Info("server_starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("server_stopping")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing_shutdown_failed", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("publisher_close_failed", "error", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_failed", "error", err)
	}

	logger.Info("server_stopped")
}
