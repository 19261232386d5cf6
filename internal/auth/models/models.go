// Package models defines the auth orchestrator's request and result types.
package models

// RegisterRequest carries credential registration inputs.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest carries credential login inputs.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthUser is the account projection returned with every successful auth
// flow. Name and Picture are only populated on OAuth flows; they come from
// the provider assertion, not from the directory record.
type AuthUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

// AuthResult is the transient outcome of a successful auth flow. It is
// returned to the caller and never persisted.
type AuthResult struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// IdentityAssertion is the verified identity extracted from a provider ID
// token during an OAuth exchange. It is ephemeral: the orchestrator reads
// it once per completion and never stores it.
type IdentityAssertion struct {
	Subject string
	Email   string
	Name    string
	Picture string
}
