// Package config holds the immutable per-service configuration structs.
// Each struct is parsed from the environment exactly once in main and passed
// down by value; nothing re-reads the environment per request.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Redis captures connection settings for the shared Redis client.
// An empty URL means Redis-backed features are disabled.
type Redis struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// AuthService is the auth orchestrator configuration. JWTSecret is a startup
// precondition: parsing fails when it is missing, the process must not start.
type AuthService struct {
	Addr string `env:"AUTH_ADDR" envDefault:":3003"`

	JWTSecret string        `env:"JWT_SECRET,notEmpty"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	UserServiceURL   string        `env:"USER_SERVICE_URL" envDefault:"http://user-service:3002"`
	DirectoryTimeout time.Duration `env:"DIRECTORY_TIMEOUT" envDefault:"5s"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URI" envDefault:"http://localhost:8000/api/auth/google/callback"`

	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	Redis          Redis
	LockoutLimit   int           `env:"LOGIN_LOCKOUT_LIMIT" envDefault:"10"`
	LockoutWindow  time.Duration `env:"LOGIN_LOCKOUT_WINDOW" envDefault:"15m"`
	KafkaBrokers   []string      `env:"KAFKA_BROKERS"`
	AuditTopic     string        `env:"AUDIT_TOPIC" envDefault:"porter.auth.audit"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownPeriod time.Duration `env:"SHUTDOWN_PERIOD" envDefault:"10s"`
}

// UserService is the user directory configuration. An empty DSN selects the
// in-memory store, which is only meant for local runs and tests.
type UserService struct {
	Addr           string        `env:"USER_ADDR" envDefault:":3002"`
	DatabaseDSN    string        `env:"DATABASE_DSN"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownPeriod time.Duration `env:"SHUTDOWN_PERIOD" envDefault:"10s"`
}

// Gateway is the reverse-proxy configuration.
type Gateway struct {
	Addr           string        `env:"GATEWAY_ADDR" envDefault:":8000"`
	AuthServiceURL string        `env:"AUTH_SERVICE_URL" envDefault:"http://auth-service:3003"`
	UserServiceURL string        `env:"USER_SERVICE_URL" envDefault:"http://user-service:3002"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	ShutdownPeriod time.Duration `env:"SHUTDOWN_PERIOD" envDefault:"10s"`
}

// Load parses cfg from the environment.
func Load[T any](cfg *T) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
