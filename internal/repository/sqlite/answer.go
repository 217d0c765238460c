package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/askbox/internal/apperror"
	"github.com/sakif/askbox/internal/model"
	"github.com/sakif/askbox/internal/repository"
)

// Compile-time check that *DB implements repository.AnswerRepository.
var _ repository.AnswerRepository = (*DB)(nil)

// Answers are only ever CREATED inside AnswerQuestion's transaction (see
// question.go) — this file covers the public read side and the owner's
// edit/delete operations.

// GetAnswerByID retrieves a single answer.
func (db *DB) GetAnswerByID(ctx context.Context, id string) (*model.Answer, error) {
	var a model.Answer
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, question_id, user_id, question_text, answer_text, created_at, updated_at
		 FROM answers WHERE id = ?`,
		id,
	).Scan(&a.ID, &a.QuestionID, &a.UserID, &a.QuestionText, &a.AnswerText, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("answer", id)
		}
		return nil, fmt.Errorf("sqlite: getting answer %s: %w", id, err)
	}
	return &a, nil
}

// ListAnswersByUser returns a user's public answers, newest first.
func (db *DB) ListAnswersByUser(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Answer, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, question_id, user_id, question_text, answer_text, created_at, updated_at
		 FROM answers
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing answers: %w", err)
	}
	defer rows.Close()

	answers := make([]model.Answer, 0, limit)
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.UserID, &a.QuestionText,
			&a.AnswerText, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning answer row: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating answers: %w", err)
	}

	return answers, nil
}

// CountAnswersByUser returns the user's total answer count, used for
// pagination and the owner stats.
func (db *DB) CountAnswersByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM answers WHERE user_id = ?`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting answers: %w", err)
	}
	return count, nil
}

// UpdateAnswer persists an edited answer text. Authorship, the frozen
// question text, and created_at are immutable — only answer_text and
// updated_at change.
func (db *DB) UpdateAnswer(ctx context.Context, answer *model.Answer) error {
	answer.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE answers SET answer_text = ?, updated_at = ? WHERE id = ?`,
		answer.AnswerText,
		answer.UpdatedAt,
		answer.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating answer %s: %w", answer.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("answer", answer.ID)
	}
	return nil
}

// DeleteAnswer hard-deletes an answer. The originating question is long gone
// by construction, so nothing else is affected.
func (db *DB) DeleteAnswer(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM answers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting answer %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("answer", id)
	}
	return nil
}
