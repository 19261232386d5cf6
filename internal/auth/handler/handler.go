// Package handler exposes the auth HTTP surface: registration, login, the
// Google OAuth flow, and bearer token verification.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"porter/internal/auth/models"
	dErrors "porter/pkg/domain-errors"
	"porter/pkg/platform/httputil"
)

// Service defines the auth operations the handler depends on.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error)
	GoogleAuthURL() string
	CompleteGoogleAuth(ctx context.Context, code string) (*models.AuthResult, error)
	Verify(ctx context.Context, token string) (*models.AuthUser, error)
}

// Handler wires auth endpoints to the orchestrator.
type Handler struct {
	service     Service
	logger      *slog.Logger
	frontendURL string
}

// New constructs an auth handler. frontendURL is the origin the OAuth
// callback page hands results to.
func New(service Service, logger *slog.Logger, frontendURL string) *Handler {
	return &Handler{service: service, logger: logger, frontendURL: frontendURL}
}

// Register mounts the auth endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/auth/register", h.HandleRegister)
	r.Post("/api/auth/login", h.HandleLogin)
	r.Get("/api/auth/google/url", h.HandleGoogleURL)
	r.Get("/api/auth/google/callback", h.HandleGoogleCallbackPage)
	r.Post("/api/auth/google/callback", h.HandleGoogleCallback)
	r.Get("/api/auth/verify", h.HandleVerify)
	r.Get("/health", h.HandleHealth)
}

// HandleRegister handles POST /api/auth/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	result, err := h.service.Register(ctx, req)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "registration failed", "error", err)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"token":   result.Token,
		"user":    result.User,
	})
}

// HandleLogin handles POST /api/auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	result, err := h.service.Login(ctx, req)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "login failed", "error", err)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   result.Token,
		"user":    result.User,
	})
}

// HandleGoogleURL handles GET /api/auth/google/url.
func (h *Handler) HandleGoogleURL(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"authUrl": h.service.GoogleAuthURL(),
	})
}

// HandleGoogleCallbackPage handles GET /api/auth/google/callback, the
// browser leg of the flow. It always answers with HTML: the popup page
// reports the outcome to the opener window.
func (h *Handler) HandleGoogleCallbackPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.service.CompleteGoogleAuth(ctx, r.URL.Query().Get("code"))
	if err != nil {
		h.logger.WarnContext(ctx, "google callback failed", "error", err)
		h.serveErrorPage(w, callbackErrorMessage(err))
		return
	}

	h.serveSuccessPage(w, result)
}

// HandleGoogleCallback handles POST /api/auth/google/callback, the JSON
// variant for clients that capture the code themselves.
func (h *Handler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	result, err := h.service.CompleteGoogleAuth(ctx, req.Code)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "google auth failed", "error", err)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Google authentication successful",
		"token":   result.Token,
		"user":    result.User,
	})
}

// HandleVerify handles GET /api/auth/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, ok := bearerToken(r)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidToken, "missing bearer token"))
		return
	}

	user, err := h.service.Verify(ctx, token)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Auth service is running"})
}

// callbackErrorMessage picks the text shown on the error page. Only typed
// domain messages are exposed; anything else gets a generic line.
func callbackErrorMessage(err error) string {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) && domainErr.Code != dErrors.CodeInternal {
		return domainErr.Message
	}
	return "Authentication failed"
}

func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
