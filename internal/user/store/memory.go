package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"porter/internal/user/models"
	"porter/pkg/platform/sentinel"
)

// InMemoryStore keeps user records in process memory. It enforces the same
// email/username uniqueness as the Postgres store so tests exercise the
// conflict paths faithfully.
type InMemoryStore struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*models.User
	byEmail    map[string]uuid.UUID
	byUsername map[string]uuid.UUID
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:       make(map[uuid.UUID]*models.User),
		byEmail:    make(map[string]uuid.UUID),
		byUsername: make(map[string]uuid.UUID),
	}
}

func (s *InMemoryStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	emailKey := strings.ToLower(user.Email)
	usernameKey := strings.ToLower(user.Username)
	if _, exists := s.byEmail[emailKey]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byUsername[usernameKey]; exists {
		return sentinel.ErrConflict
	}

	copied := *user
	s.byID[user.ID] = &copied
	s.byEmail[emailKey] = user.ID
	s.byUsername[usernameKey] = user.ID
	return nil
}

func (s *InMemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *InMemoryStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.byID[id]
	return &copied, nil
}
