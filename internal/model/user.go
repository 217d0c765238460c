// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — plain data carriers with
// struct tags declaring the one serialization contract per entity. Handlers,
// services, and the repository all share these shapes; there is no per-handler
// field renaming at the boundary.
package model

import "time"

// AuthKind says which credential path a user registered with.
// Exactly one credential column is populated per kind: SecretHash for
// AuthSecret, GitHubID for AuthGitHub.
type AuthKind string

const (
	// AuthSecret is the local path: a generated secret shown once at
	// registration, stored only as a bcrypt hash.
	AuthSecret AuthKind = "secret"
	// AuthGitHub is the external path: identity proven by GitHub OAuth,
	// no local secret exists.
	AuthGitHub AuthKind = "github"
)

// User represents one public handle.
//
// The handle is globally unique and stored lowercase — uniqueness is
// case-insensitive at registration time. GitHubID is our link to the external
// identity provider; it is an int64 because GitHub user IDs are plain
// integers, and it is nullable (pointer) because locally-registered users
// have no external identity at all.
//
// SecretHash is NEVER serialized. The json:"-" tag is load-bearing: the
// plaintext secret is shown exactly once at registration and no read of a
// User may ever expose the hash afterwards.
type User struct {
	ID         string   `json:"id"            db:"id"`
	Handle     string   `json:"handle"        db:"handle"`
	SecretHash string   `json:"-"             db:"secret_hash"`
	GitHubID   *int64   `json:"-"             db:"github_id"`
	AuthKind   AuthKind `json:"authKind"      db:"auth_kind"`

	// Profile metadata — the only fields a user may change after creation.
	DisplayName   string `json:"displayName"   db:"display_name"`
	WalletAddress string `json:"walletAddress" db:"wallet_address"`
	Telegram      string `json:"telegram"      db:"telegram"`

	// QuestionsReceived is an increment-only counter bumped on every
	// submitted question. It must survive question deletion (answered
	// questions are hard-deleted), so it can never be re-derived from
	// live rows.
	QuestionsReceived int64 `json:"-" db:"questions_received"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// PublicProfile is the anonymous-facing view of a User, returned by the
// handle-check endpoint. It deliberately omits auth kind and counters.
type PublicProfile struct {
	Handle      string    `json:"handle"`
	DisplayName string    `json:"displayName,omitempty"`
	Answers     int64     `json:"answers"`
	CreatedAt   time.Time `json:"createdAt"`
}
