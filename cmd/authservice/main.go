// Binary authservice runs the auth orchestrator: registration, credential
// login, the Google OAuth flow, and bearer token verification.
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

	"porter/internal/audit"
	"porter/internal/auth/directory"
	"porter/internal/auth/handler"
	"porter/internal/auth/lockout"
	"porter/internal/auth/provider"
	"porter/internal/auth/service"
	"porter/internal/auth/token"
	"porter/internal/platform/config"
	"porter/internal/platform/httpserver"
	"porter/internal/platform/logger"
	"porter/internal/platform/metrics"
	"porter/internal/platform/middleware"
	"porter/internal/platform/redis"
	"porter/pkg/platform/middleware/device"
)

func main() {
	log := logger.New("auth-service")

	var cfg config.AuthService
	if err := config.Load(&cfg); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("auth service failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.AuthService, log *slog.Logger) error {
	tokens, err := token.New(cfg.JWTSecret, "porter-auth", cfg.TokenTTL)
	if err != nil {
		return err
	}

	idp, err := provider.NewGoogle(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	if err != nil {
		return err
	}

	dir := directory.New(cfg.UserServiceURL, cfg.DirectoryTimeout)

	opts := []service.Option{service.WithMetrics(metrics.NewAuth())}

	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		opts = append(opts, service.WithThrottle(lockout.NewRedis(rdb, cfg.LockoutLimit, cfg.LockoutWindow)))
		log.Info("login lockout enabled", "limit", cfg.LockoutLimit, "window", cfg.LockoutWindow)
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := audit.NewKafka(ctx, cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			return err
		}
		defer publisher.Close()
		opts = append(opts, service.WithAuditPublisher(publisher))
		log.Info("audit publisher enabled", "topic", cfg.AuditTopic)
	}

	svc := service.New(dir, idp, tokens, log, opts...)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(cfg.RequestTimeout))
	router.Use(device.Middleware)
	handler.New(svc, log, cfg.FrontendURL).Register(router)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return httpserver.Serve(ctx, httpserver.New(cfg.Addr, router), cfg.ShutdownPeriod, log)
}
