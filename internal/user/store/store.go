// Package store persists directory user records. Implementations return
// pkg/platform/sentinel errors; the service layer translates them.
package store

import (
	"context"

	"github.com/google/uuid"

	"porter/internal/user/models"
)

// Store is the user record persistence contract.
//
// Create returns sentinel.ErrConflict when the email or username is already
// taken; uniqueness is enforced by the store, which is what turns concurrent
// find-or-create races into conflicts instead of duplicates.
type Store interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}
