package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/askbox/internal/apperror"
	"github.com/sakif/askbox/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// ":memory:" creates a fresh database that lives only for the test — fast,
// isolated, destroyed on close. The pool is pinned to one connection (see
// New), so every query in a test sees the same in-memory database.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser creates a local-secret user and fails the test on error.
func createTestUser(t *testing.T, db *DB, handle string) *model.User {
	t.Helper()
	user := &model.User{
		Handle:     handle,
		SecretHash: "$2a$04$fakehashfortest",
		AuthKind:   model.AuthSecret,
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %q: %v", handle, err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Handle:     "abc123",
		SecretHash: "$2a$04$somehash",
		AuthKind:   model.AuthSecret,
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if user.ID == "" {
		t.Error("CreateUser() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreateUser() did not set user.CreatedAt")
	}
}

func TestCreateUser_DuplicateHandle(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "taken")

	dup := &model.User{
		Handle:     "taken",
		SecretHash: "$2a$04$otherhash",
		AuthKind:   model.AuthSecret,
	}
	err := db.CreateUser(context.Background(), dup)
	if err == nil {
		t.Fatal("CreateUser() should fail for a duplicate handle")
	}
	// The UNIQUE violation must surface as Conflict, never as a raw
	// storage error.
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser() error = %v, want ErrConflict", err)
	}
}

func TestCreateUser_GitHubKind(t *testing.T) {
	db := newTestDB(t)

	ghID := int64(424242)
	user := &model.User{
		Handle:   "octocat",
		GitHubID: &ghID,
		AuthKind: model.AuthGitHub,
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	found, err := db.GetUserByGitHubID(context.Background(), 424242)
	if err != nil {
		t.Fatalf("GetUserByGitHubID() error = %v", err)
	}
	if found.Handle != "octocat" {
		t.Errorf("Handle = %q, want %q", found.Handle, "octocat")
	}
	if found.GitHubID == nil || *found.GitHubID != 424242 {
		t.Errorf("GitHubID = %v, want 424242", found.GitHubID)
	}
	if found.AuthKind != model.AuthGitHub {
		t.Errorf("AuthKind = %q, want %q", found.AuthKind, model.AuthGitHub)
	}
}

func TestCreateUser_DuplicateGitHubID(t *testing.T) {
	db := newTestDB(t)

	ghID := int64(7)
	first := &model.User{Handle: "gh1", GitHubID: &ghID, AuthKind: model.AuthGitHub}
	if err := db.CreateUser(context.Background(), first); err != nil {
		t.Fatalf("CreateUser() first: %v", err)
	}

	second := &model.User{Handle: "gh2", GitHubID: &ghID, AuthKind: model.AuthGitHub}
	err := db.CreateUser(context.Background(), second)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser() error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestGetUserByHandle(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "findme1")

	found, err := db.GetUserByHandle(context.Background(), "findme1")
	if err != nil {
		t.Fatalf("GetUserByHandle() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}
	if found.SecretHash != created.SecretHash {
		t.Error("SecretHash should round-trip through storage")
	}
}

func TestGetUserByHandle_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByHandle(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByHandle() error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "nonexistent-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// PROFILE UPDATE TESTS
// =========================================================================

func TestUpdateUserProfile(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "profileuser")

	user.DisplayName = "Profile User"
	user.WalletAddress = "0xabc"
	user.Telegram = "profileuser_tg"
	if err := db.UpdateUserProfile(context.Background(), user); err != nil {
		t.Fatalf("UpdateUserProfile() error = %v", err)
	}

	found, err := db.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.DisplayName != "Profile User" {
		t.Errorf("DisplayName = %q, want %q", found.DisplayName, "Profile User")
	}
	if found.WalletAddress != "0xabc" {
		t.Errorf("WalletAddress = %q, want %q", found.WalletAddress, "0xabc")
	}
	// Identity columns must be untouched
	if found.Handle != "profileuser" {
		t.Errorf("Handle changed to %q", found.Handle)
	}
	if found.SecretHash != user.SecretHash {
		t.Error("SecretHash must not change on profile update")
	}
}

func TestUpdateUserProfile_NotFound(t *testing.T) {
	db := newTestDB(t)

	ghost := &model.User{ID: "no-such-id"}
	err := db.UpdateUserProfile(context.Background(), ghost)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateUserProfile() error = %v, want ErrNotFound", err)
	}
}
