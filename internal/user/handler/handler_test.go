package handler

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"porter/internal/user/service"
	"porter/internal/user/store"
	"porter/pkg/testutil"
)

type UserHandlerSuite struct {
	suite.Suite
	router chi.Router
}

func (s *UserHandlerSuite) SetupTest() {
	svc := service.New(store.NewMemory(), slog.Default(), nil)
	s.router = chi.NewRouter()
	New(svc, slog.Default()).Register(s.router)
}

func TestUserHandlerSuite(t *testing.T) {
	suite.Run(t, new(UserHandlerSuite))
}

func (s *UserHandlerSuite) createUser(username, email, password string) map[string]any {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/users", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	return *testutil.UnmarshalResponse[map[string]any](s.T(), rr)
}

func (s *UserHandlerSuite) TestCreate() {
	s.Run("returns 201 with the public user shape", func() {
		body := s.createUser("alice", "a@x.com", "secret1")

		user := body["user"].(map[string]any)
		s.NotEmpty(user["id"])
		s.Equal("alice", user["username"])
		s.Equal("a@x.com", user["email"])
		s.NotContains(user, "passwordHash")
		s.NotContains(user, "password_hash")
	})

	s.Run("duplicate email returns 409 conflict", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/users", map[string]string{
			"username": "alice2", "email": "a@x.com", "password": "secret2",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("malformed body returns 400", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/api/users", "{bad-json")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_failed")
	})

	s.Run("short password returns 400", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/users", map[string]string{
			"username": "bob", "email": "bob@x.com", "password": "short",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_failed")
	})
}

func (s *UserHandlerSuite) TestVerify() {
	s.createUser("carol", "carol@x.com", "hunter22")

	s.Run("valid credentials return the user", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/users/verify", map[string]string{
			"email": "carol@x.com", "password": "hunter22",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)

		body := *testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		s.Equal("carol", body["user"].(map[string]any)["username"])
	})

	s.Run("bad password returns 401 invalid_credentials", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/users/verify", map[string]string{
			"email": "carol@x.com", "password": "wrong",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "invalid_credentials")
	})

	s.Run("unknown email returns the same error", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/users/verify", map[string]string{
			"email": "ghost@x.com", "password": "hunter22",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "invalid_credentials")
	})
}

func (s *UserHandlerSuite) TestLookups() {
	body := s.createUser("dave", "dave@x.com", "secret1")
	id := body["user"].(map[string]any)["id"].(string)

	s.Run("get by id", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/api/users/"+id)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("get by email", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/api/users/email/dave@x.com")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("unknown id returns 404", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/api/users/00000000-0000-0000-0000-000000000000")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("malformed id returns 404", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/api/users/not-a-uuid")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}
