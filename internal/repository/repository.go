// Package repository declares the storage interfaces the service layer
// depends on. There is exactly ONE set of typed store operations — the
// sqlite package implements all of them on a single DB type, and services
// receive only the interface slice they need.
package repository

import (
	"context"
	"time"

	"github.com/sakif/askbox/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	// CreateUser inserts a new user. Returns apperror.ErrConflict if the
	// handle (or GitHub identity) is already taken — including when the
	// conflict is only detected by the UNIQUE constraint under a race.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByHandle(ctx context.Context, handle string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	// UpdateUserProfile persists the mutable profile fields (display name,
	// wallet address, telegram) and updated_at. Nothing else on a user row
	// changes after creation.
	UpdateUserProfile(ctx context.Context, user *model.User) error
}

type QuestionRepository interface {
	// CreateQuestion inserts a pending question AND increments the owner's
	// questions_received counter in the same transaction.
	CreateQuestion(ctx context.Context, q *model.Question) error
	GetQuestionByID(ctx context.Context, id string) (*model.Question, error)
	ListPendingQuestions(ctx context.Context, userID string, opts ListOptions) ([]model.Question, error)
	DeleteQuestion(ctx context.Context, id string) error
	// AnswerQuestion atomically creates the answer (freezing the question
	// text into it) and deletes the question row. Exactly one of two racing
	// callers succeeds; the loser gets apperror.ErrNotFound.
	AnswerQuestion(ctx context.Context, questionID string, answer *model.Answer) error
}

type AnswerRepository interface {
	GetAnswerByID(ctx context.Context, id string) (*model.Answer, error)
	ListAnswersByUser(ctx context.Context, userID string, opts ListOptions) ([]model.Answer, error)
	CountAnswersByUser(ctx context.Context, userID string) (int64, error)
	UpdateAnswer(ctx context.Context, answer *model.Answer) error
	DeleteAnswer(ctx context.Context, id string) error
}

type ActivityRepository interface {
	// ActivitySince returns questions, answers, and users created strictly
	// after the cursor, each capped to limit rows, oldest first.
	ActivitySince(ctx context.Context, since time.Time, limit int) (*model.Activity, error)
}
