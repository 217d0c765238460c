package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/askbox/internal/apperror"
	"github.com/sakif/askbox/internal/model"
	"github.com/sakif/askbox/internal/repository"
)

// Compile-time check that *DB implements repository.UserRepository.
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, handle, secret_hash, github_id, auth_kind,
	display_name, wallet_address, telegram, questions_received, created_at, updated_at`

// CreateUser inserts a new user row.
//
// The service layer checks handle availability first for a friendly error,
// but two concurrent registrations of the same handle can both pass that
// check — the UNIQUE constraint is the backstop, and we translate its
// violation to Conflict here so the raw storage error never escapes.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, handle, secret_hash, github_id, auth_kind,
		     display_name, wallet_address, telegram, questions_received, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		user.ID,
		user.Handle,
		user.SecretHash,
		user.GitHubID,
		user.AuthKind,
		user.DisplayName,
		user.WalletAddress,
		user.Telegram,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("handle", user.Handle)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Handle, err)
	}

	return nil
}

// GetUserByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no such user exists.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.scanUser(
		db.conn.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = ?`, id),
		id,
	)
}

// GetUserByHandle retrieves a user by handle. The caller is expected to have
// normalized the handle (lowercase) — storage only ever sees canonical form.
func (db *DB) GetUserByHandle(ctx context.Context, handle string) (*model.User, error) {
	return db.scanUser(
		db.conn.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE handle = ?`, handle),
		handle,
	)
}

// GetUserByGitHubID retrieves a user by external GitHub identity.
func (db *DB) GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return db.scanUser(
		db.conn.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE github_id = ?`, githubID),
		fmt.Sprintf("github:%d", githubID),
	)
}

// UpdateUserProfile persists the mutable profile fields. Identity columns
// (handle, credentials, auth kind, counters) are deliberately not touched.
func (db *DB) UpdateUserProfile(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET display_name = ?, wallet_address = ?, telegram = ?, updated_at = ?
		 WHERE id = ?`,
		user.DisplayName,
		user.WalletAddress,
		user.Telegram,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user profile %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// scanUser reads one user row. The github_id column is nullable, which maps
// onto the *int64 field directly.
func (db *DB) scanUser(row *sql.Row, ref string) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Handle,
		&u.SecretHash,
		&u.GitHubID,
		&u.AuthKind,
		&u.DisplayName,
		&u.WalletAddress,
		&u.Telegram,
		&u.QuestionsReceived,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", ref)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", ref, err)
	}
	return &u, nil
}
