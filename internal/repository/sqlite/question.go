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

// Compile-time check that *DB implements repository.QuestionRepository.
var _ repository.QuestionRepository = (*DB)(nil)

// CreateQuestion inserts a pending question and bumps the owner's
// questions_received counter in the same transaction.
//
// The counter ride-along matters: "total questions ever received" must keep
// counting after questions are deleted by answering, so it is an immutable
// increment recorded at submit time — if the insert commits, so does the
// increment, and neither survives alone.
func (db *DB) CreateQuestion(ctx context.Context, q *model.Question) error {
	q.ID = xid.New().String()
	q.CreatedAt = time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning submit tx: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO questions (id, user_id, text, source_ip, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		q.ID,
		q.UserID,
		q.Text,
		q.SourceIP,
		q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting question: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE users SET questions_received = questions_received + 1 WHERE id = ?`,
		q.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing questions_received: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Owner vanished between the service's handle lookup and now.
		return apperror.NotFound("user", q.UserID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing submit tx: %w", err)
	}
	return nil
}

// GetQuestionByID retrieves a single pending question.
// Returns apperror.ErrNotFound if the row is gone — which is also how an
// already-answered or already-discarded question presents.
func (db *DB) GetQuestionByID(ctx context.Context, id string) (*model.Question, error) {
	var q model.Question
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, text, source_ip, created_at
		 FROM questions WHERE id = ?`,
		id,
	).Scan(&q.ID, &q.UserID, &q.Text, &q.SourceIP, &q.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("question", id)
		}
		return nil, fmt.Errorf("sqlite: getting question %s: %w", id, err)
	}
	return &q, nil
}

// ListPendingQuestions returns a user's unanswered inbox, oldest first —
// answering in arrival order is the natural workflow.
func (db *DB) ListPendingQuestions(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Question, error) {
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
		`SELECT id, user_id, text, source_ip, created_at
		 FROM questions
		 WHERE user_id = ?
		 ORDER BY created_at ASC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing pending questions: %w", err)
	}
	defer rows.Close()

	questions := make([]model.Question, 0, limit)
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.UserID, &q.Text, &q.SourceIP, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning question row: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating questions: %w", err)
	}

	return questions, nil
}

// DeleteQuestion removes a question unconditionally (the Discard transition).
// RowsAffected == 0 means the row was already consumed → NotFound.
func (db *DB) DeleteQuestion(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting question %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("question", id)
	}
	return nil
}

// AnswerQuestion performs the answer-and-retire transition: insert the
// Answer (with the question text frozen into it), delete the Question, both
// in one transaction.
//
// THE ATOMICITY REQUIREMENT:
// This is the one place in the system where a multi-statement transaction is
// a correctness requirement, not a convenience. A crash between the two
// statements must not leave a question both answered and still pending, nor
// an answer whose question was never retired (which would allow answering
// the same question twice).
//
// THE RACE:
// Two concurrent calls on the same question id must yield exactly one
// success. The loser's DELETE affects zero rows inside the transaction —
// the row is already gone — so it rolls back its inserted answer and
// reports NotFound. SQLite's write serialization guarantees the two
// transactions can't interleave their delete checks.
func (db *DB) AnswerQuestion(ctx context.Context, questionID string, answer *model.Answer) error {
	now := time.Now()
	answer.ID = xid.New().String()
	answer.QuestionID = questionID
	answer.CreatedAt = now
	answer.UpdatedAt = now

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning answer tx: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	// Re-read the question inside the transaction: text and owner are
	// copied from what is actually being retired, not from a stale caller
	// snapshot.
	var q model.Question
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_id, text FROM questions WHERE id = ?`,
		questionID,
	).Scan(&q.ID, &q.UserID, &q.Text)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFound("question", questionID)
		}
		return fmt.Errorf("sqlite: reading question %s in answer tx: %w", questionID, err)
	}

	answer.UserID = q.UserID
	answer.QuestionText = q.Text

	_, err = tx.ExecContext(ctx,
		`INSERT INTO answers (id, question_id, user_id, question_text, answer_text, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		answer.ID,
		answer.QuestionID,
		answer.UserID,
		answer.QuestionText,
		answer.AnswerText,
		answer.CreatedAt,
		answer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting answer: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM questions WHERE id = ?`, questionID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting answered question: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Lost the race — roll everything back, including our answer.
		return apperror.NotFound("question", questionID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing answer tx: %w", err)
	}
	return nil
}
