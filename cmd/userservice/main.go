// Binary userservice runs the user directory: account storage, credential
// verification, and lookups consumed by the auth service.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"porter/internal/platform/config"
	"porter/internal/platform/httpserver"
	"porter/internal/platform/logger"
	"porter/internal/platform/metrics"
	"porter/internal/platform/middleware"
	"porter/internal/user/handler"
	"porter/internal/user/service"
	"porter/internal/user/store"
	"porter/pkg/platform/httputil"
)

func main() {
	log := logger.New("user-service")

	var cfg config.UserService
	if err := config.Load(&cfg); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("user service failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.UserService, log *slog.Logger) error {
	users, cleanup, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := service.New(users, log, metrics.NewUser())

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(cfg.RequestTimeout))
	handler.New(svc, log).Register(router)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "User service is running"})
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return httpserver.Serve(ctx, httpserver.New(cfg.Addr, router), cfg.ShutdownPeriod, log)
}

// newStore selects Postgres when a DSN is configured, otherwise the
// in-memory store for local runs.
func newStore(ctx context.Context, cfg config.UserService, log *slog.Logger) (store.Store, func(), error) {
	if cfg.DatabaseDSN == "" {
		log.Warn("no DATABASE_DSN configured, using in-memory store")
		return store.NewMemory(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	if err := store.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store.NewPostgres(db), func() { db.Close() }, nil
}
