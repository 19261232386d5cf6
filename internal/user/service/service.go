// Package service implements the user directory operations: create with
// credentials, verify credentials, and lookups. It owns validation and
// password hashing; persistence is delegated to the store.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"porter/internal/platform/metrics"
	"porter/internal/user/models"
	"porter/internal/user/password"
	"porter/internal/user/store"
	dErrors "porter/pkg/domain-errors"
	"porter/pkg/platform/sentinel"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 30
	passwordMinLen = 6
)

type Service struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.User
}

func New(store store.Store, logger *slog.Logger, m *metrics.User) *Service {
	return &Service{store: store, logger: logger, metrics: m}
}

// CreateRequest carries the inputs for account creation.
type CreateRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Create validates the request, hashes the password, and persists the record.
// A uniqueness violation on email or username surfaces as CodeConflict.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := validate(username, email, req.Password); err != nil {
		return nil, err
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "user with this email or username already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.logger.InfoContext(ctx, "user created", "user_id", user.ID, "username", user.Username)
	if s.metrics != nil {
		s.metrics.UsersCreated.Inc()
	}
	return user, nil
}

// VerifyCredentials checks an email/password pair. Unknown email and wrong
// password are deliberately indistinguishable to the caller.
func (s *Service) VerifyCredentials(ctx context.Context, email, plaintext string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || plaintext == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordVerification(ctx, "rejected")
			return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if !password.Matches(user.PasswordHash, plaintext) {
		s.recordVerification(ctx, "rejected")
		return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid credentials")
	}

	s.recordVerification(ctx, "accepted")
	return user, nil
}

// FindByID resolves a user record by its identifier.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	return user, nil
}

// FindByEmail resolves a user record by email.
func (s *Service) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	return user, nil
}

func (s *Service) recordVerification(ctx context.Context, outcome string) {
	if s.metrics != nil {
		s.metrics.Verifications.WithLabelValues(outcome).Inc()
	}
	if outcome == "rejected" {
		s.logger.WarnContext(ctx, "credential verification rejected")
	}
}

func validate(username, email, plaintext string) error {
	// Character count, not byte count; multi-byte usernames count per rune.
	if n := utf8.RuneCountInString(username); n < usernameMinLen || n > usernameMaxLen {
		return dErrors.New(dErrors.CodeValidation, "username must be between 3 and 30 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	if len(plaintext) < passwordMinLen {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	}
	return nil
}
