// Package audit records security-relevant auth events. Emission is
// fire-and-forget: a failing audit sink must never fail a login.
package audit

import (
	"context"
	"time"
)

// Action names an auditable auth event.
type Action string

const (
	ActionUserRegistered   Action = "user_registered"
	ActionLoginSucceeded   Action = "login_succeeded"
	ActionLoginFailed      Action = "login_failed"
	ActionOAuthCompleted   Action = "oauth_completed"
	ActionOAuthUserCreated Action = "oauth_user_created"
	ActionTokenRejected    Action = "token_rejected"
)

// Event is emitted from the orchestrator to capture key auth actions.
// Keep it transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Device    string    `json:"device,omitempty"`
}

// Publisher delivers events to a sink.
type Publisher interface {
	Emit(ctx context.Context, event Event)
	Close() error
}

// Nop discards all events. Used when no audit sink is configured.
type Nop struct{}

func (Nop) Emit(ctx context.Context, event Event) {}
func (Nop) Close() error                          { return nil }
