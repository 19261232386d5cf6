// Package provider contains identity provider clients for OAuth login.
// Implementations return verified identity facts only; user creation,
// linking, and token issuance happen in the orchestrator.
package provider

import (
	"context"
	"errors"

	"porter/internal/auth/models"
)

// Exchange failures and verification failures carry different public error
// codes, so implementations must wrap one of these sentinels.
var (
	ErrExchange     = errors.New("authorization code exchange failed")
	ErrVerification = errors.New("identity token verification failed")
)

// IdentityProvider is the contract the orchestrator consumes.
type IdentityProvider interface {
	// AuthCodeURL returns the provider-hosted authorization URL. No local
	// state is created; the redirect is stateless.
	AuthCodeURL() string

	// Exchange trades an authorization code for a verified identity
	// assertion. The code's freshness and single-use semantics are whatever
	// the provider enforces.
	Exchange(ctx context.Context, code string) (*models.IdentityAssertion, error)
}
