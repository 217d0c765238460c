package sqlite

import (
	"context"
	"testing"
	"time"
)

func TestActivitySince(t *testing.T) {
	db := newTestDB(t)

	cursor := time.Now().Add(-time.Minute)

	owner := createTestUser(t, db, "active1")
	submitTestQuestion(t, db, owner.ID, "anything new around here?")
	answerTestQuestion(t, db, owner.ID, "and what about this one?", "all quiet")

	activity, err := db.ActivitySince(context.Background(), cursor, 20)
	if err != nil {
		t.Fatalf("ActivitySince() error = %v", err)
	}

	if len(activity.Users) != 1 {
		t.Errorf("users = %d, want 1", len(activity.Users))
	}
	// One question is still pending; the answered one's row is gone and
	// must NOT reappear as question activity.
	if len(activity.Questions) != 1 {
		t.Errorf("questions = %d, want 1", len(activity.Questions))
	}
	if len(activity.Answers) != 1 {
		t.Errorf("answers = %d, want 1", len(activity.Answers))
	}
	if activity.Timestamp.IsZero() {
		t.Error("Timestamp must be set — it is the client's next cursor")
	}

	// Users surface as public profiles: handle only, nothing sensitive
	if activity.Users[0].Handle != "active1" {
		t.Errorf("user handle = %q, want %q", activity.Users[0].Handle, "active1")
	}
}

func TestActivitySince_Monotone(t *testing.T) {
	db := newTestDB(t)

	owner := createTestUser(t, db, "monotone")
	submitTestQuestion(t, db, owner.ID, "will I be reported twice?")

	first, err := db.ActivitySince(context.Background(), time.Now().Add(-time.Minute), 20)
	if err != nil {
		t.Fatalf("first poll error = %v", err)
	}
	if len(first.Questions) != 1 {
		t.Fatalf("first poll questions = %d, want 1", len(first.Questions))
	}

	// Re-poll with the returned cursor: the same row must not come back.
	second, err := db.ActivitySince(context.Background(), first.Timestamp, 20)
	if err != nil {
		t.Fatalf("second poll error = %v", err)
	}
	if len(second.Questions) != 0 || len(second.Users) != 0 {
		t.Errorf("second poll re-reported rows: %d questions, %d users",
			len(second.Questions), len(second.Users))
	}
}

func TestActivitySince_EmptyWindow(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "earlybird")

	activity, err := db.ActivitySince(context.Background(), time.Now().Add(time.Hour), 20)
	if err != nil {
		t.Fatalf("ActivitySince() error = %v", err)
	}
	if len(activity.Questions)+len(activity.Answers)+len(activity.Users) != 0 {
		t.Error("a future cursor must return an empty window")
	}
}
