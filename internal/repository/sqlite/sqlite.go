// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — the whole store is a single file next to
// the binary. No separate database server to install or manage, which is
// exactly right for a single-node service, and ":memory:" gives tests a
// fresh isolated database for free.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// SQLite — works everywhere Go works.
//
// CONCURRENCY MODEL:
// Requests never hold locks across each other; every multi-statement write
// is scoped to its own transaction, and the only place atomicity is a
// correctness requirement (not a convenience) is AnswerQuestion in
// question.go. Everything else relies on SQLite's default isolation.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Blank import: the driver registers itself with database/sql under the
	// name "sqlite" in its init().
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements every repository
// interface. One type for all entities keeps cross-entity transactions
// (answer-and-retire) trivial.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/askbox.db" → file-based database (persistent)
//   - ":memory:"       → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// A single connection serializes writers at the pool level. SQLite only
	// allows one writer at a time anyway, and with ":memory:" every pool
	// connection would otherwise get its OWN private database.
	conn.SetMaxOpenConns(1)

	// sql.Open doesn't actually connect; Ping surfaces bad paths and
	// permission problems immediately instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in progress — important for a
	// web server where requests overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite for backwards compatibility.
	// questions.user_id and answers.user_id reference users, so turn them on.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	// Wait up to 5s for a locked database instead of failing immediately.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Always defer this next to New —
// it flushes the WAL and releases the file lock.
func (db *DB) Close() error {
	return db.conn.Close()
}

// schema is the full relational model. CREATE TABLE IF NOT EXISTS keeps it
// safe to run on every startup.
//
// Notes on the less obvious columns:
//   - users.handle is UNIQUE and stored lowercase; case-insensitive
//     uniqueness is enforced by normalizing before storage.
//   - users.questions_received is the increment-only "total questions ever"
//     counter. It must live on the user row because answered questions are
//     hard-deleted, so the total can never be re-derived from question rows.
//   - answers.question_id is NOT a foreign key on purpose: the question row
//     is deleted in the same transaction that creates the answer, so the
//     reference is historical.
//   - questions.source_ip exists for rate-limit accounting only.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                 TEXT PRIMARY KEY,
	handle             TEXT NOT NULL UNIQUE,
	secret_hash        TEXT NOT NULL DEFAULT '',
	github_id          INTEGER UNIQUE,
	auth_kind          TEXT NOT NULL CHECK (auth_kind IN ('secret', 'github')),
	display_name       TEXT NOT NULL DEFAULT '',
	wallet_address     TEXT NOT NULL DEFAULT '',
	telegram           TEXT NOT NULL DEFAULT '',
	questions_received INTEGER NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at);

CREATE TABLE IF NOT EXISTS questions (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id),
	text       TEXT NOT NULL,
	source_ip  TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_questions_user_id ON questions(user_id);
CREATE INDEX IF NOT EXISTS idx_questions_created_at ON questions(created_at);

CREATE TABLE IF NOT EXISTS answers (
	id            TEXT PRIMARY KEY,
	question_id   TEXT NOT NULL,
	user_id       TEXT NOT NULL REFERENCES users(id),
	question_text TEXT NOT NULL,
	answer_text   TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_answers_user_id ON answers(user_id);
CREATE INDEX IF NOT EXISTS idx_answers_created_at ON answers(created_at);
`

func (db *DB) migrate() error {
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// modernc.org/sqlite doesn't export a typed error for this, so we match the
// stable SQLite error text. Used to translate insert races into Conflict
// instead of leaking a raw storage error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
