// Package service implements the auth orchestrator: it drives the register,
// login, and Google OAuth flows against the user directory and the identity
// provider, and owns session token issuance.
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"porter/internal/audit"
	"porter/internal/auth/directory"
	"porter/internal/auth/models"
	"porter/internal/auth/provider"
	dErrors "porter/pkg/domain-errors"
	"porter/pkg/platform/middleware/device"
	"porter/pkg/platform/sentinel"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Directory is the user directory contract the orchestrator consumes.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*directory.Record, error)
	FindByID(ctx context.Context, id string) (*directory.Record, error)
	Create(ctx context.Context, username, email, password string) (*directory.Record, error)
	VerifyCredentials(ctx context.Context, email, password string) (*directory.Record, error)
}

// Provider exchanges OAuth authorization codes for verified identities.
type Provider interface {
	AuthCodeURL() string
	Exchange(ctx context.Context, code string) (*models.IdentityAssertion, error)
}

// Tokens signs and validates session tokens.
type Tokens interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}

// Throttle limits repeated failed logins.
type Throttle interface {
	Allowed(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Clear(ctx context.Context, email string) error
}

// Metrics is the subset of auth metrics the orchestrator records.
type Metrics interface {
	RecordRegistration()
	RecordLogin(outcome string)
	RecordOAuth(outcome string)
	RecordVerification(outcome string)
	RecordDirectoryError()
}

type Service struct {
	directory Directory
	provider  Provider
	tokens    Tokens
	throttle  Throttle
	auditor   audit.Publisher
	logger    *slog.Logger
	metrics   Metrics
	tracer    trace.Tracer
}

// Option configures optional collaborators.
type Option func(*Service)

// WithThrottle enables failed-login limiting. Without it the service
// accepts every attempt.
func WithThrottle(throttle Throttle) Option {
	return func(s *Service) { s.throttle = throttle }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(metrics Metrics) Option {
	return func(s *Service) { s.metrics = metrics }
}

func New(dir Directory, idp Provider, tokens Tokens, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		directory: dir,
		provider:  idp,
		tokens:    tokens,
		auditor:   audit.Nop{},
		logger:    logger,
		tracer:    otel.Tracer("porter/auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a credential account and issues a session token.
// Field validation lives at the directory boundary; its rejections surface
// here as a single validation_failed kind so internal storage detail never
// leaks to the caller.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Register")
	defer span.End()

	record, err := s.directory.Create(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return nil, s.mapDirectoryWriteError(err)
	}

	result, err := s.finishAuth(record, nil)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", record.ID, "username", record.Username)
	s.auditor.Emit(ctx, s.event(ctx, audit.ActionUserRegistered, record.ID, record.Email))
	if s.metrics != nil {
		s.metrics.RecordRegistration()
	}
	return result, nil
}

// Login verifies credentials against the directory and issues a token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer span.End()

	if s.throttle != nil {
		allowed, err := s.throttle.Allowed(ctx, req.Email)
		if err != nil {
			// The throttle is advisory; a broken Redis must not block logins.
			s.logger.WarnContext(ctx, "login throttle check failed", "error", err)
		} else if !allowed {
			return nil, dErrors.New(dErrors.CodeRateLimited, "too many failed login attempts, try again later")
		}
	}

	record, err := s.directory.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidCredentials), errors.Is(err, directory.ErrValidation):
			s.recordLoginFailure(ctx, req.Email)
			return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid credentials")
		case errors.Is(err, sentinel.ErrUnavailable):
			return nil, s.upstreamUnavailable(err)
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "login failed")
		}
	}

	if s.throttle != nil {
		if err := s.throttle.Clear(ctx, req.Email); err != nil {
			s.logger.WarnContext(ctx, "failed to clear login throttle", "error", err)
		}
	}

	result, err := s.finishAuth(record, nil)
	if err != nil {
		return nil, err
	}

	s.auditor.Emit(ctx, s.event(ctx, audit.ActionLoginSucceeded, record.ID, record.Email))
	if s.metrics != nil {
		s.metrics.RecordLogin("success")
	}
	return result, nil
}

// GoogleAuthURL returns the provider-hosted authorization URL. No local
// state is created before the user comes back with a code.
func (s *Service) GoogleAuthURL() string {
	return s.provider.AuthCodeURL()
}

// CompleteGoogleAuth runs the OAuth completion sequence: exchange the code,
// verify the identity, reconcile it against the directory (find or create),
// then issue a session token. Each call is a single best-effort attempt; the
// only durable side effect is the account created during reconciliation, and
// that happens only after the identity has been verified.
func (s *Service) CompleteGoogleAuth(ctx context.Context, code string) (*models.AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.CompleteGoogleAuth")
	defer span.End()

	if strings.TrimSpace(code) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "authorization code is required")
	}

	assertion, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.recordOAuthFailure()
		s.logger.WarnContext(ctx, "google code exchange failed", "error", err)
		if errors.Is(err, provider.ErrVerification) {
			return nil, dErrors.Wrap(err, dErrors.CodeOAuthVerification, "google identity verification failed")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeOAuthExchange, "google authentication failed")
	}

	if assertion.Email == "" || assertion.Name == "" {
		s.recordOAuthFailure()
		return nil, dErrors.New(dErrors.CodeIncompleteIdentity, "google identity is missing email or name")
	}

	record, created, err := s.findOrCreateByEmail(ctx, assertion)
	if err != nil {
		s.recordOAuthFailure()
		return nil, err
	}

	result, err := s.finishAuth(record, assertion)
	if err != nil {
		return nil, err
	}

	if created {
		s.auditor.Emit(ctx, s.event(ctx, audit.ActionOAuthUserCreated, record.ID, record.Email))
	}
	s.auditor.Emit(ctx, s.event(ctx, audit.ActionOAuthCompleted, record.ID, record.Email))
	if s.metrics != nil {
		s.metrics.RecordOAuth("success")
	}
	s.logger.InfoContext(ctx, "google auth completed", "user_id", record.ID, "created", created)
	return result, nil
}

// Verify validates a session token and resolves the current user record.
// The token is a reference, not a cache: the record always comes fresh from
// the directory, so a deleted user fails verification immediately.
func (s *Service) Verify(ctx context.Context, tokenString string) (*models.AuthUser, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Verify")
	defer span.End()

	userID, err := s.tokens.Verify(tokenString)
	if err != nil {
		s.auditor.Emit(ctx, s.event(ctx, audit.ActionTokenRejected, "", ""))
		if s.metrics != nil {
			s.metrics.RecordVerification("rejected")
		}
		return nil, err
	}

	record, err := s.directory.FindByID(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			if s.metrics != nil {
				s.metrics.RecordVerification("user_not_found")
			}
			return nil, dErrors.New(dErrors.CodeUserNotFound, "user not found")
		case errors.Is(err, sentinel.ErrUnavailable):
			return nil, s.upstreamUnavailable(err)
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "token verification failed")
		}
	}

	if s.metrics != nil {
		s.metrics.RecordVerification("accepted")
	}
	return &models.AuthUser{ID: record.ID, Username: record.Username, Email: record.Email}, nil
}

// findOrCreateByEmail reconciles a verified identity against the directory.
// A lost create race surfaces as a conflict for the caller to retry; retrying
// server-side could mask a real duplicate-account bug.
func (s *Service) findOrCreateByEmail(ctx context.Context, assertion *models.IdentityAssertion) (*directory.Record, bool, error) {
	record, err := s.directory.FindByEmail(ctx, assertion.Email)
	if err == nil {
		return record, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, s.upstreamUnavailable(err)
	}

	// The directory schema requires a password even though this account will
	// only ever sign in through the provider; generate one nobody can guess
	// and throw it away.
	username := deriveUsername(assertion.Name)
	created, err := s.directory.Create(ctx, username, assertion.Email, randomPassword())
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, false, dErrors.New(dErrors.CodeConflict, "account already exists, retry sign-in")
		}
		return nil, false, s.upstreamUnavailable(err)
	}
	return created, true, nil
}

// finishAuth issues the session token and assembles the result. OAuth flows
// pass the assertion so name and picture ride along without being persisted.
func (s *Service) finishAuth(record *directory.Record, assertion *models.IdentityAssertion) (*models.AuthResult, error) {
	signed, err := s.tokens.Issue(record.ID)
	if err != nil {
		return nil, err
	}

	user := models.AuthUser{
		ID:       record.ID,
		Username: record.Username,
		Email:    record.Email,
	}
	if assertion != nil {
		user.Name = assertion.Name
		user.Picture = assertion.Picture
	}
	return &models.AuthResult{Token: signed, User: user}, nil
}

func (s *Service) mapDirectoryWriteError(err error) error {
	switch {
	case errors.Is(err, directory.ErrValidation):
		return dErrors.Wrap(err, dErrors.CodeValidation, validationMessage(err))
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "username or email already taken")
	case errors.Is(err, sentinel.ErrUnavailable):
		return s.upstreamUnavailable(err)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "registration failed")
	}
}

// upstreamUnavailable marks a directory outage: counted in metrics and
// surfaced to the caller as a 502-class error with no upstream detail.
func (s *Service) upstreamUnavailable(err error) error {
	if s.metrics != nil {
		s.metrics.RecordDirectoryError()
	}
	return dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "user directory unavailable")
}

func (s *Service) recordLoginFailure(ctx context.Context, email string) {
	if s.throttle != nil {
		if err := s.throttle.RecordFailure(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "failed to record login failure", "error", err)
		}
	}
	s.auditor.Emit(ctx, s.event(ctx, audit.ActionLoginFailed, "", email))
	if s.metrics != nil {
		s.metrics.RecordLogin("failure")
	}
}

func (s *Service) recordOAuthFailure() {
	if s.metrics != nil {
		s.metrics.RecordOAuth("failure")
	}
}

func (s *Service) event(ctx context.Context, action audit.Action, userID, email string) audit.Event {
	return audit.Event{
		Timestamp: time.Now().UTC(),
		Action:    action,
		UserID:    userID,
		Email:     email,
		Device:    device.GetSummary(ctx),
	}
}

// validationMessage extracts the directory's caller-safe rejection reason
// from a wrapped validation error.
func validationMessage(err error) string {
	if after, ok := strings.CutPrefix(err.Error(), directory.ErrValidation.Error()+": "); ok {
		return after
	}
	return "invalid registration input"
}

// deriveUsername builds a username candidate from a display name: lowercase,
// whitespace stripped, random numeric suffix to dodge collisions.
func deriveUsername(name string) string {
	base := strings.ToLower(strings.Join(strings.Fields(name), ""))
	if base == "" {
		base = "user"
	}
	// Rune-wise so a multi-byte display name never truncates mid-character.
	if runes := []rune(base); len(runes) > 26 {
		base = string(runes[:26])
	}
	suffix := "000"
	if n, err := rand.Int(rand.Reader, big.NewInt(1000)); err == nil {
		suffix = strconv.FormatInt(n.Int64(), 10)
	}
	return base + suffix
}

// randomPassword returns a high-entropy placeholder password for
// provider-created accounts.
func randomPassword() string {
	buf := make([]byte, 24)
	_, _ = rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}
