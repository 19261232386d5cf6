package service

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"porter/internal/user/store"
	dErrors "porter/pkg/domain-errors"
)

type UserServiceSuite struct {
	suite.Suite
	svc *Service
	ctx context.Context
}

func (s *UserServiceSuite) SetupTest() {
	s.svc = New(store.NewMemory(), slog.Default(), nil)
	s.ctx = context.Background()
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) TestCreate() {
	s.Run("creates a user and returns a non-empty id", func() {
		user, err := s.svc.Create(s.ctx, CreateRequest{
			Username: "alice",
			Email:    "a@x.com",
			Password: "secret1",
		})
		s.Require().NoError(err)
		s.NotEmpty(user.ID)
		s.Equal("alice", user.Username)
		s.Equal("a@x.com", user.Email)
		s.NotEqual("secret1", user.PasswordHash)
	})

	s.Run("re-registering the same email is a conflict", func() {
		_, err := s.svc.Create(s.ctx, CreateRequest{Username: "zoe", Email: "zoe@x.com", Password: "secret1"})
		s.Require().NoError(err)

		_, err = s.svc.Create(s.ctx, CreateRequest{Username: "zoe2", Email: "zoe@x.com", Password: "secret2"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("re-registering the same username is a conflict", func() {
		_, err := s.svc.Create(s.ctx, CreateRequest{Username: "bob", Email: "bob@x.com", Password: "secret1"})
		s.Require().NoError(err)

		_, err = s.svc.Create(s.ctx, CreateRequest{Username: "bob", Email: "bob2@x.com", Password: "secret2"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects short usernames", func() {
		_, err := s.svc.Create(s.ctx, CreateRequest{Username: "ab", Email: "ab@x.com", Password: "secret1"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("counts the username limit in characters, not bytes", func() {
		// 10 CJK runes are 30 bytes; they must still pass.
		user, err := s.svc.Create(s.ctx, CreateRequest{Username: strings.Repeat("字", 10), Email: "cjk@x.com", Password: "secret1"})
		s.Require().NoError(err)
		s.Equal(strings.Repeat("字", 10), user.Username)

		_, err = s.svc.Create(s.ctx, CreateRequest{Username: strings.Repeat("字", 31), Email: "cjk2@x.com", Password: "secret1"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects malformed email", func() {
		_, err := s.svc.Create(s.ctx, CreateRequest{Username: "carol", Email: "not-an-email", Password: "secret1"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects short passwords", func() {
		_, err := s.svc.Create(s.ctx, CreateRequest{Username: "carol", Email: "c@x.com", Password: "short"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("normalizes email casing", func() {
		user, err := s.svc.Create(s.ctx, CreateRequest{Username: "dave", Email: "Dave@X.com", Password: "secret1"})
		s.Require().NoError(err)
		s.Equal("dave@x.com", user.Email)
	})
}

func (s *UserServiceSuite) TestVerifyCredentials() {
	created, err := s.svc.Create(s.ctx, CreateRequest{Username: "erin", Email: "erin@x.com", Password: "hunter22"})
	s.Require().NoError(err)

	s.Run("accepts the correct password", func() {
		user, err := s.svc.VerifyCredentials(s.ctx, "erin@x.com", "hunter22")
		s.Require().NoError(err)
		s.Equal(created.ID, user.ID)
	})

	s.Run("wrong password and unknown email fail identically", func() {
		_, wrongPass := s.svc.VerifyCredentials(s.ctx, "erin@x.com", "wrong")
		_, unknown := s.svc.VerifyCredentials(s.ctx, "nobody@x.com", "hunter22")

		s.Require().Error(wrongPass)
		s.Require().Error(unknown)
		s.True(dErrors.HasCode(wrongPass, dErrors.CodeInvalidCredentials))
		s.True(dErrors.HasCode(unknown, dErrors.CodeInvalidCredentials))
		s.Equal(wrongPass.Error(), unknown.Error())
	})
}

func (s *UserServiceSuite) TestLookups() {
	created, err := s.svc.Create(s.ctx, CreateRequest{Username: "frank", Email: "frank@x.com", Password: "secret1"})
	s.Require().NoError(err)

	s.Run("finds by id", func() {
		user, err := s.svc.FindByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal("frank", user.Username)
	})

	s.Run("finds by email regardless of case", func() {
		user, err := s.svc.FindByEmail(s.ctx, "Frank@X.com")
		s.Require().NoError(err)
		s.Equal(created.ID, user.ID)
	})

	s.Run("missing records are not_found", func() {
		_, err := s.svc.FindByEmail(s.ctx, "ghost@x.com")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
