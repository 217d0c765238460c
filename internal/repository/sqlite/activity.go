package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/askbox/internal/model"
	"github.com/sakif/askbox/internal/repository"
)

// Compile-time check that *DB implements repository.ActivityRepository.
var _ repository.ActivityRepository = (*DB)(nil)

// ActivitySince returns everything created strictly after the cursor, each
// entity capped to limit rows, oldest first. Purely derived — the feed has
// no state of its own; the returned Timestamp is the next cursor.
//
// The strict > comparison is what makes polling monotone: a row reported in
// one poll sits at or before that poll's returned timestamp, so the next
// poll (using that timestamp as its cursor) cannot report it again.
func (db *DB) ActivitySince(ctx context.Context, since time.Time, limit int) (*model.Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	// The snapshot timestamp is taken BEFORE the queries. Rows created
	// while we query land after this cursor and will be picked up by the
	// next poll instead of being skipped.
	now := time.Now()

	activity := &model.Activity{
		Questions: []model.Question{},
		Answers:   []model.Answer{},
		Users:     []model.PublicProfile{},
		Timestamp: now,
	}

	qRows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, text, created_at
		 FROM questions
		 WHERE created_at > ?
		 ORDER BY created_at ASC
		 LIMIT ?`,
		since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying question activity: %w", err)
	}
	defer qRows.Close()
	for qRows.Next() {
		var q model.Question
		if err := qRows.Scan(&q.ID, &q.UserID, &q.Text, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning question activity: %w", err)
		}
		activity.Questions = append(activity.Questions, q)
	}
	if err := qRows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating question activity: %w", err)
	}

	aRows, err := db.conn.QueryContext(ctx,
		`SELECT id, question_id, user_id, question_text, answer_text, created_at, updated_at
		 FROM answers
		 WHERE created_at > ?
		 ORDER BY created_at ASC
		 LIMIT ?`,
		since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying answer activity: %w", err)
	}
	defer aRows.Close()
	for aRows.Next() {
		var a model.Answer
		if err := aRows.Scan(&a.ID, &a.QuestionID, &a.UserID, &a.QuestionText,
			&a.AnswerText, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning answer activity: %w", err)
		}
		activity.Answers = append(activity.Answers, a)
	}
	if err := aRows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating answer activity: %w", err)
	}

	// New users surface as public profiles only — no auth kind, no counters.
	uRows, err := db.conn.QueryContext(ctx,
		`SELECT handle, display_name, created_at
		 FROM users
		 WHERE created_at > ?
		 ORDER BY created_at ASC
		 LIMIT ?`,
		since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying user activity: %w", err)
	}
	defer uRows.Close()
	for uRows.Next() {
		var p model.PublicProfile
		if err := uRows.Scan(&p.Handle, &p.DisplayName, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user activity: %w", err)
		}
		activity.Users = append(activity.Users, p)
	}
	if err := uRows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user activity: %w", err)
	}

	return activity, nil
}
