// Package dbtest opens migrated SQLite databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"kidcoins/internal/database"
	"kidcoins/internal/models"
)

// New returns a migrated database in a temporary directory. It is closed
// when the test finishes.
func New(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "kidcoins.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// CreateUser inserts a user directly, bypassing password hashing
func CreateUser(t testing.TB, db database.DBTX, email string, role models.Role) *models.User {
	t.Helper()

	now := time.Now().UTC()
	id, err := db.ExecReturningID(context.Background(),
		`INSERT INTO users (email, password_hash, name, role, current_streak, lock_version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, 0, ?, ?)`,
		email, "not-a-hash", email, string(role), now, now)
	if err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return &models.User{ID: id, Email: email, Name: email, Role: role, CreatedAt: now, UpdatedAt: now}
}

// Link creates a family relation
func Link(t testing.TB, db database.DBTX, parentID, childID int64) {
	t.Helper()

	_, err := db.ExecContext(context.Background(),
		`INSERT INTO family_relations (parent_id, child_id, created_at) VALUES (?, ?, ?)`,
		parentID, childID, time.Now().UTC())
	if err != nil {
		t.Fatalf("failed to link %d -> %d: %v", parentID, childID, err)
	}
}
