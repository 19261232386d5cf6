// Package handler exposes the user directory HTTP contract consumed by the
// auth service: create, verify credentials, and lookups by id or email.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"porter/internal/user/models"
	"porter/internal/user/service"
	dErrors "porter/pkg/domain-errors"
	"porter/pkg/platform/httputil"
)

// Service defines the directory operations the handler depends on.
type Service interface {
	Create(ctx context.Context, req service.CreateRequest) (*models.User, error)
	VerifyCredentials(ctx context.Context, email, password string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Handler wires directory endpoints to the user service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a user directory handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the directory endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/users", h.HandleCreate)
	r.Post("/api/users/verify", h.HandleVerify)
	r.Get("/api/users/{id}", h.HandleGetByID)
	r.Get("/api/users/email/{email}", h.HandleGetByEmail)
}

// HandleCreate handles POST /api/users.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	user, err := h.service.Create(ctx, req)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "user creation failed", "error", err)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    user.Public(),
	})
}

// HandleVerify handles POST /api/users/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	user, err := h.service.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"user": user.Public()})
}

// HandleGetByID handles GET /api/users/{id}.
func (h *Handler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "user not found"))
		return
	}

	user, err := h.service.FindByID(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"user": user.Public()})
}

// HandleGetByEmail handles GET /api/users/email/{email}.
func (h *Handler) HandleGetByEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.service.FindByEmail(ctx, chi.URLParam(r, "email"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"user": user.Public()})
}
