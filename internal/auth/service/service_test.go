package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"porter/internal/audit"
	"porter/internal/auth/directory"
	"porter/internal/auth/models"
	"porter/internal/auth/provider"
	"porter/internal/auth/service/mocks"
	dErrors "porter/pkg/domain-errors"
	"porter/pkg/platform/sentinel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type serviceMocks struct {
	directory *mocks.MockDirectory
	provider  *mocks.MockProvider
	tokens    *mocks.MockTokens
	throttle  *mocks.MockThrottle
	auditor   *audit.Memory
}

func newTestService(t *testing.T, opts ...Option) (*Service, *serviceMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)

	m := &serviceMocks{
		directory: mocks.NewMockDirectory(ctrl),
		provider:  mocks.NewMockProvider(ctrl),
		tokens:    mocks.NewMockTokens(ctrl),
		throttle:  mocks.NewMockThrottle(ctrl),
		auditor:   audit.NewMemory(),
	}
	opts = append([]Option{WithAuditPublisher(m.auditor)}, opts...)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(m.directory, m.provider, m.tokens, logger, opts...)
	return svc, m
}

func record() *directory.Record {
	return &directory.Record{
		ID:       "6f1c8e9a-0b2d-4c3e-8f5a-1b2c3d4e5f60",
		Username: "alice",
		Email:    "alice@example.com",
	}
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account and issues token", func(t *testing.T) {
		svc, m := newTestService(t)
		rec := record()

		m.directory.EXPECT().Create(gomock.Any(), "alice", "alice@example.com", "hunter22").Return(rec, nil)
		m.tokens.EXPECT().Issue(rec.ID).Return("signed-token", nil)

		result, err := svc.Register(ctx, models.RegisterRequest{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "hunter22",
		})
		require.NoError(t, err)
		assert.Equal(t, "signed-token", result.Token)
		assert.Equal(t, rec.ID, result.User.ID)
		assert.Equal(t, "alice", result.User.Username)
		assert.Empty(t, result.User.Name)

		events := m.auditor.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionUserRegistered, events[0].Action)
		assert.Equal(t, rec.ID, events[0].UserID)
	})

	t.Run("maps duplicate account to conflict", func(t *testing.T) {
		svc, m := newTestService(t)

		m.directory.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrConflict)

		result, err := svc.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "hunter22"})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.Empty(t, m.auditor.Events())
	})

	t.Run("surfaces directory rejection reason as validation failure", func(t *testing.T) {
		svc, m := newTestService(t)

		rejection := fmt.Errorf("%w: username must be between 3 and 30 characters", directory.ErrValidation)
		m.directory.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, rejection)

		result, err := svc.Register(ctx, models.RegisterRequest{Username: "al", Email: "alice@example.com", Password: "hunter22"})
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "between 3 and 30")
	})

	t.Run("maps unreachable directory to upstream unavailable", func(t *testing.T) {
		svc, m := newTestService(t)

		m.directory.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrUnavailable)

		_, err := svc.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "hunter22"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstreamUnavailable))
	})

	t.Run("directory outage is counted in metrics", func(t *testing.T) {
		met := mocks.NewMockMetrics(gomock.NewController(t))
		svc, m := newTestService(t, WithMetrics(met))

		m.directory.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrUnavailable)
		met.EXPECT().RecordDirectoryError()

		_, err := svc.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "hunter22"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstreamUnavailable))
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	req := models.LoginRequest{Email: "alice@example.com", Password: "hunter22"}

	t.Run("issues token for valid credentials", func(t *testing.T) {
		svc, m := newTestService(t)
		rec := record()

		m.directory.EXPECT().VerifyCredentials(gomock.Any(), req.Email, req.Password).Return(rec, nil)
		m.tokens.EXPECT().Issue(rec.ID).Return("signed-token", nil)

		result, err := svc.Login(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "signed-token", result.Token)

		events := m.auditor.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionLoginSucceeded, events[0].Action)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		svc, m := newTestService(t)

		m.directory.EXPECT().VerifyCredentials(gomock.Any(), req.Email, req.Password).Return(nil, sentinel.ErrInvalidCredentials)
		unknownErr := loginErr(t, svc, ctx, req)

		m.directory.EXPECT().VerifyCredentials(gomock.Any(), req.Email, req.Password).Return(nil, sentinel.ErrInvalidCredentials)
		wrongErr := loginErr(t, svc, ctx, req)

		assert.True(t, dErrors.HasCode(unknownErr, dErrors.CodeInvalidCredentials))
		assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	})

	t.Run("records failure in throttle and audit log", func(t *testing.T) {
		svc, m := newTestService(t)
		svc.throttle = m.throttle

		m.throttle.EXPECT().Allowed(gomock.Any(), req.Email).Return(true, nil)
		m.directory.EXPECT().VerifyCredentials(gomock.Any(), req.Email, req.Password).Return(nil, sentinel.ErrInvalidCredentials)
		m.throttle.EXPECT().RecordFailure(gomock.Any(), req.Email).Return(nil)

		_, err := svc.Login(ctx, req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidCredentials))

		events := m.auditor.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionLoginFailed, events[0].Action)
		assert.Equal(t, req.Email, events[0].Email)
	})

	t.Run("rejects throttled account before touching the directory", func(t *testing.T) {
		svc, m := newTestService(t)
		svc.throttle = m.throttle

		m.throttle.EXPECT().Allowed(gomock.Any(), req.Email).Return(false, nil)

		_, err := svc.Login(ctx, req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeRateLimited))
	})

	t.Run("throttle outage does not block logins", func(t *testing.T) {
		svc, m := newTestService(t)
		svc.throttle = m.throttle
		rec := record()

		m.throttle.EXPECT().Allowed(gomock.Any(), req.Email).Return(false, assert.AnError)
		m.directory.EXPECT().VerifyCredentials(gomock.Any(), req.Email, req.Password).Return(rec, nil)
		m.throttle.EXPECT().Clear(gomock.Any(), req.Email).Return(nil)
		m.tokens.EXPECT().Issue(rec.ID).Return("signed-token", nil)

		result, err := svc.Login(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "signed-token", result.Token)
	})

	t.Run("clears throttle after success", func(t *testing.T) {
		svc, m := newTestService(t)
		svc.throttle = m.throttle
		rec := record()

		m.throttle.EXPECT().Allowed(gomock.Any(), req.Email).Return(true, nil)
		m.directory.EXPECT().VerifyCredentials(gomock.Any(), req.Email, req.Password).Return(rec, nil)
		m.throttle.EXPECT().Clear(gomock.Any(), req.Email).Return(nil)
		m.tokens.EXPECT().Issue(rec.ID).Return("signed-token", nil)

		_, err := svc.Login(ctx, req)
		require.NoError(t, err)
	})
}

func loginErr(t *testing.T, svc *Service, ctx context.Context, req models.LoginRequest) error {
	t.Helper()
	result, err := svc.Login(ctx, req)
	require.Error(t, err)
	require.Nil(t, result)
	return err
}

func TestService_GoogleAuthURL(t *testing.T) {
	svc, m := newTestService(t)

	m.provider.EXPECT().AuthCodeURL().Return("https://accounts.google.com/o/oauth2/auth?client_id=abc")
	assert.Contains(t, svc.GoogleAuthURL(), "accounts.google.com")
}

func TestService_CompleteGoogleAuth(t *testing.T) {
	ctx := context.Background()
	assertion := &models.IdentityAssertion{
		Subject: "google-sub-1",
		Email:   "alice@example.com",
		Name:    "Alice Liddell",
		Picture: "https://lh3.example.com/alice.jpg",
	}

	t.Run("rejects empty code without contacting the provider", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.CompleteGoogleAuth(ctx, "  ")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("failed exchange creates no account", func(t *testing.T) {
		svc, m := newTestService(t)

		m.provider.EXPECT().Exchange(gomock.Any(), "bad-code").Return(nil, fmt.Errorf("%w: code already redeemed", provider.ErrExchange))

		result, err := svc.CompleteGoogleAuth(ctx, "bad-code")
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOAuthExchange))
		assert.Empty(t, m.auditor.Events())
	})

	t.Run("failed verification maps to its own kind", func(t *testing.T) {
		svc, m := newTestService(t)

		m.provider.EXPECT().Exchange(gomock.Any(), "code").Return(nil, fmt.Errorf("%w: audience mismatch", provider.ErrVerification))

		_, err := svc.CompleteGoogleAuth(ctx, "code")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOAuthVerification))
	})

	t.Run("rejects identity missing name", func(t *testing.T) {
		svc, m := newTestService(t)
		partial := *assertion
		partial.Name = ""

		m.provider.EXPECT().Exchange(gomock.Any(), "code").Return(&partial, nil)

		_, err := svc.CompleteGoogleAuth(ctx, "code")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeIncompleteIdentity))
	})

	t.Run("existing account signs in without a create", func(t *testing.T) {
		svc, m := newTestService(t)
		rec := record()

		m.provider.EXPECT().Exchange(gomock.Any(), "code").Return(assertion, nil)
		m.directory.EXPECT().FindByEmail(gomock.Any(), assertion.Email).Return(rec, nil)
		m.tokens.EXPECT().Issue(rec.ID).Return("signed-token", nil)

		result, err := svc.CompleteGoogleAuth(ctx, "code")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, result.User.ID)
		assert.Equal(t, assertion.Name, result.User.Name)
		assert.Equal(t, assertion.Picture, result.User.Picture)

		events := m.auditor.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionOAuthCompleted, events[0].Action)
	})

	t.Run("first sign-in creates an account with a derived username", func(t *testing.T) {
		svc, m := newTestService(t)
		rec := record()

		m.provider.EXPECT().Exchange(gomock.Any(), "code").Return(assertion, nil)
		m.directory.EXPECT().FindByEmail(gomock.Any(), assertion.Email).Return(nil, sentinel.ErrNotFound)
		m.directory.EXPECT().Create(gomock.Any(), gomock.Any(), assertion.Email, gomock.Any()).DoAndReturn(
			func(ctx context.Context, username, email, password string) (*directory.Record, error) {
				assert.True(t, strings.HasPrefix(username, "aliceliddell"))
				assert.Equal(t, strings.ToLower(username), username)
				assert.NotContains(t, username, " ")
				assert.GreaterOrEqual(t, len(password), 24)
				return rec, nil
			})
		m.tokens.EXPECT().Issue(rec.ID).Return("signed-token", nil)

		result, err := svc.CompleteGoogleAuth(ctx, "code")
		require.NoError(t, err)
		assert.Equal(t, "signed-token", result.Token)

		events := m.auditor.Events()
		require.Len(t, events, 2)
		assert.Equal(t, audit.ActionOAuthUserCreated, events[0].Action)
		assert.Equal(t, audit.ActionOAuthCompleted, events[1].Action)
	})

	t.Run("second completion finds the account created by the first", func(t *testing.T) {
		svc, m := newTestService(t)
		rec := record()

		gomock.InOrder(
			m.provider.EXPECT().Exchange(gomock.Any(), "code-1").Return(assertion, nil),
			m.directory.EXPECT().FindByEmail(gomock.Any(), assertion.Email).Return(nil, sentinel.ErrNotFound),
			m.directory.EXPECT().Create(gomock.Any(), gomock.Any(), assertion.Email, gomock.Any()).Return(rec, nil),
			m.tokens.EXPECT().Issue(rec.ID).Return("token-1", nil),
			m.provider.EXPECT().Exchange(gomock.Any(), "code-2").Return(assertion, nil),
			m.directory.EXPECT().FindByEmail(gomock.Any(), assertion.Email).Return(rec, nil),
			m.tokens.EXPECT().Issue(rec.ID).Return("token-2", nil),
		)

		first, err := svc.CompleteGoogleAuth(ctx, "code-1")
		require.NoError(t, err)
		second, err := svc.CompleteGoogleAuth(ctx, "code-2")
		require.NoError(t, err)
		assert.Equal(t, first.User.ID, second.User.ID)
	})

	t.Run("lost create race surfaces as conflict for the caller to retry", func(t *testing.T) {
		svc, m := newTestService(t)

		m.provider.EXPECT().Exchange(gomock.Any(), "code").Return(assertion, nil)
		m.directory.EXPECT().FindByEmail(gomock.Any(), assertion.Email).Return(nil, sentinel.ErrNotFound)
		m.directory.EXPECT().Create(gomock.Any(), gomock.Any(), assertion.Email, gomock.Any()).Return(nil, sentinel.ErrConflict)

		_, err := svc.CompleteGoogleAuth(ctx, "code")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func TestService_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves a fresh record from the directory", func(t *testing.T) {
		svc, m := newTestService(t)
		rec := record()

		m.tokens.EXPECT().Verify("signed-token").Return(rec.ID, nil)
		m.directory.EXPECT().FindByID(gomock.Any(), rec.ID).Return(rec, nil)

		user, err := svc.Verify(ctx, "signed-token")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, user.ID)
		assert.Equal(t, rec.Username, user.Username)
	})

	t.Run("rejected token is audited", func(t *testing.T) {
		svc, m := newTestService(t)

		m.tokens.EXPECT().Verify("garbage").Return("", dErrors.New(dErrors.CodeInvalidToken, "invalid or expired token"))

		_, err := svc.Verify(ctx, "garbage")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidToken))

		events := m.auditor.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionTokenRejected, events[0].Action)
	})

	t.Run("deleted user fails with user_not_found", func(t *testing.T) {
		svc, m := newTestService(t)
		rec := record()

		m.tokens.EXPECT().Verify("signed-token").Return(rec.ID, nil)
		m.directory.EXPECT().FindByID(gomock.Any(), rec.ID).Return(nil, sentinel.ErrNotFound)

		_, err := svc.Verify(ctx, "signed-token")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUserNotFound))
	})
}

func TestDeriveUsername(t *testing.T) {
	t.Run("lowercases and strips whitespace", func(t *testing.T) {
		username := deriveUsername("  Alice  Liddell ")
		assert.True(t, strings.HasPrefix(username, "aliceliddell"))
		assert.NotContains(t, username, " ")
		for _, r := range strings.TrimPrefix(username, "aliceliddell") {
			assert.True(t, unicode.IsDigit(r))
		}
	})

	t.Run("falls back for empty display names", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(deriveUsername("   "), "user"))
	})

	t.Run("stays within the directory length limit", func(t *testing.T) {
		long := strings.Repeat("verylongname", 10)
		assert.LessOrEqual(t, len(deriveUsername(long)), 30)
	})

	t.Run("truncates multi-byte names on rune boundaries", func(t *testing.T) {
		username := deriveUsername(strings.Repeat("名前", 20))
		assert.True(t, utf8.ValidString(username))
		assert.NotContains(t, username, string(utf8.RuneError))
		assert.LessOrEqual(t, utf8.RuneCountInString(username), 30)
	})
}
