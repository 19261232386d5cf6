package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Auth holds the Prometheus metrics exposed by the auth orchestrator.
type Auth struct {
	Registrations   prometheus.Counter
	Logins          *prometheus.CounterVec
	OAuthLogins     *prometheus.CounterVec
	TokensVerified  *prometheus.CounterVec
	DirectoryErrors prometheus.Counter
}

// NewAuth creates and registers the auth service metrics.
func NewAuth() *Auth {
	return &Auth{
		Registrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "porter_auth_registrations_total",
			Help: "Total number of successful user registrations",
		}),
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "porter_auth_logins_total",
			Help: "Total number of credential login attempts by outcome",
		}, []string{"outcome"}),
		OAuthLogins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "porter_auth_oauth_completions_total",
			Help: "Total number of Google OAuth completions by outcome",
		}, []string{"outcome"}),
		TokensVerified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "porter_auth_tokens_verified_total",
			Help: "Total number of bearer token verifications by outcome",
		}, []string{"outcome"}),
		DirectoryErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "porter_auth_directory_errors_total",
			Help: "Total number of user directory calls that failed upstream",
		}),
	}
}

// RecordRegistration counts one successful registration.
func (a *Auth) RecordRegistration() { a.Registrations.Inc() }

// RecordLogin counts one credential login attempt by outcome.
func (a *Auth) RecordLogin(outcome string) { a.Logins.WithLabelValues(outcome).Inc() }

// RecordOAuth counts one OAuth completion attempt by outcome.
func (a *Auth) RecordOAuth(outcome string) { a.OAuthLogins.WithLabelValues(outcome).Inc() }

// RecordVerification counts one token verification by outcome.
func (a *Auth) RecordVerification(outcome string) { a.TokensVerified.WithLabelValues(outcome).Inc() }

// RecordDirectoryError counts one failed upstream directory call.
func (a *Auth) RecordDirectoryError() { a.DirectoryErrors.Inc() }

// User holds the Prometheus metrics exposed by the user directory service.
type User struct {
	UsersCreated  prometheus.Counter
	Verifications *prometheus.CounterVec
}

// NewUser creates and registers the user service metrics.
func NewUser() *User {
	return &User{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "porter_user_users_created_total",
			Help: "Total number of users created in the directory",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "porter_user_credential_verifications_total",
			Help: "Total number of credential verifications by outcome",
		}, []string{"outcome"}),
	}
}

// Gateway holds the Prometheus metrics exposed by the reverse proxy.
type Gateway struct {
	ProxiedRequests *prometheus.CounterVec
}

// NewGateway creates and registers the gateway metrics.
func NewGateway() *Gateway {
	return &Gateway{
		ProxiedRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "porter_gateway_proxied_requests_total",
			Help: "Total number of requests relayed by upstream service",
		}, []string{"upstream"}),
	}
}
