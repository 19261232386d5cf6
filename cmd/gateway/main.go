// Binary gateway runs the public reverse proxy in front of the auth and
// user services.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"porter/internal/gateway"
	"porter/internal/platform/config"
	"porter/internal/platform/httpserver"
	"porter/internal/platform/logger"
	"porter/internal/platform/metrics"
	"porter/internal/platform/middleware"
)

func main() {
	log := logger.New("gateway")

	var cfg config.Gateway
	if err := config.Load(&cfg); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("gateway failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Gateway, log *slog.Logger) error {
	g, err := gateway.New(cfg.AuthServiceURL, cfg.UserServiceURL, log, metrics.NewGateway())
	if err != nil {
		return err
	}

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(cfg.RequestTimeout))
	g.Register(router)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return httpserver.Serve(ctx, httpserver.New(cfg.Addr, router), cfg.ShutdownPeriod, log)
}
