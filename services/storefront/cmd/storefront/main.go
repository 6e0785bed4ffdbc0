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
	"github.com/sony/gobreaker/v2"

	"github.com/Skotchmaster/storefront/internal/storeclient"
	"github.com/Skotchmaster/storefront/pkg/logging"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/pkg/tracing"
	"github.com/Skotchmaster/storefront/services/storefront/internal/config"
	"github.com/Skotchmaster/storefront/services/storefront/internal/engine"
	"github.com/Skotchmaster/storefront/services/storefront/internal/httpserver"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	shutdownTracing, err := tracing.Setup(cfg.ServiceName)
	if err != nil {
		log.Fatalf("tracing init error: %v", err)
	}

	client := storeclient.New(storeclient.Options{
		BaseURL: cfg.StoreAPIURL,
		Timeout: cfg.StoreAPITimeout,
	})
	registry := engine.NewRegistry(client, cfg.EngineIdleTTL)

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
	e.Use(middleware.Secure())

	httpserver.Register(e, &httpserver.Deps{
		Registry:  registry,
		JWTSecret: cfg.JWTAccessSecret,
		SignInURL: cfg.SignInURL,
		Ready:     func() bool { return client.State() != gobreaker.StateOpen },

		CSRF:         cfg.CSRF,
		SecureCookie: cfg.CookieSecure,
	})

	sweepCtx, stopSweep := context.WithCancel(logging.IntoContext(context.Background(), logger))
	go registry.Run(sweepCtx, cfg.SweepInterval)

	go func() {
		logger.Info("server_starting", "addr", cfg.Addr(), "store_api", cfg.StoreAPIURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("server_stopping")
	stopSweep()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing_shutdown_failed", "error", err)
	}
	logger.Info("server_stopped")
}
