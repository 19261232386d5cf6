// Package gateway relays public traffic to the auth and user services by
// path prefix. It terminates nothing else: bodies, headers, and statuses
// pass through untouched.
package gateway

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"

	"porter/internal/platform/metrics"
	dErrors "porter/pkg/domain-errors"
	platformhttp "porter/pkg/platform/httputil"
)

// Gateway routes requests to upstream services.
type Gateway struct {
	logger  *slog.Logger
	metrics *metrics.Gateway
	auth    http.Handler
	users   http.Handler
}

// New builds a gateway for the two upstream base URLs.
func New(authURL, userURL string, logger *slog.Logger, m *metrics.Gateway) (*Gateway, error) {
	g := &Gateway{logger: logger, metrics: m}

	auth, err := g.upstream("auth", authURL)
	if err != nil {
		return nil, err
	}
	users, err := g.upstream("users", userURL)
	if err != nil {
		return nil, err
	}

	g.auth = auth
	g.users = users
	return g, nil
}

// Register mounts the proxy routes. Anything outside the two API prefixes
// falls through to the router's 404.
func (g *Gateway) Register(r chi.Router) {
	r.Handle("/api/auth", g.auth)
	r.Handle("/api/auth/*", g.auth)
	r.Handle("/api/users", g.users)
	r.Handle("/api/users/*", g.users)
	r.Get("/health", g.HandleHealth)
}

// HandleHealth handles GET /health for the gateway itself.
func (g *Gateway) HandleHealth(w http.ResponseWriter, r *http.Request) {
	platformhttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Gateway is running"})
}

// upstream builds a reverse proxy for one service. Connection failures
// answer with the shared 502 error shape instead of the proxy default.
func (g *Gateway) upstream(name, baseURL string) (http.Handler, error) {
	target, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s upstream url: %w", name, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid %s upstream url %q", name, baseURL)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		g.logger.ErrorContext(r.Context(), "upstream request failed",
			"upstream", name, "path", r.URL.Path, "error", err)
		platformhttp.WriteError(w, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, name+" service unavailable"))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.metrics != nil {
			g.metrics.ProxiedRequests.WithLabelValues(name).Inc()
		}
		proxy.ServeHTTP(w, r)
	}), nil
}
