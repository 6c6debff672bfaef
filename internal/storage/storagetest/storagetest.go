// Package storagetest provides in-memory record stores for tests.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wedding-invitation/internal/models"
	"wedding-invitation/internal/storage"
)

// MemoryDSN is an in-memory sqlite database with foreign keys enforced.
const MemoryDSN = "file::memory:?_foreign_keys=on"

// New returns a migrated in-memory store that is closed when the test ends.
func New(t testing.TB) *storage.Storage {
	t.Helper()

	s, err := storage.NewStorage(context.Background(), MemoryDSN, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open test storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// CreateUser inserts an account with the given id and returns its identity.
func CreateUser(t testing.TB, s *storage.Storage, id string) *models.Identity {
	t.Helper()

	now := time.Now().UTC()
	email := id + "@example.com"
	user := &models.User{ID: id, Email: email, PasswordHash: "x", CreatedAt: now}
	profile := &models.UserProfile{ID: "profile-" + id, UserID: id, CreatedAt: now, UpdatedAt: now}
	if err := s.CreateUser(context.Background(), user, profile); err != nil {
		t.Fatalf("failed to create user %s: %v", id, err)
	}
	return &models.Identity{ID: id, Email: email}
}
