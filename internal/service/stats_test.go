package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/askbox/internal/apperror"
)

func newTestStatsService(store *fakeStore) *StatsService {
	return NewStatsService(store, store, testLogger())
}

func TestOwnerStats(t *testing.T) {
	store := newFakeStore()
	svc := newTestStatsService(store)
	qsvc := newTestQuestionService(store)
	owner := registerFakeUser(t, store, "counted")

	// 3 received: 1 answered, 1 discarded, 1 still pending
	q1, _ := qsvc.Submit(context.Background(), "counted", "first question here?", "")
	q2, _ := qsvc.Submit(context.Background(), "counted", "second question here?", "")
	if _, err := qsvc.Submit(context.Background(), "counted", "third question here?", ""); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := qsvc.Answer(context.Background(), owner, q1.ID, "answered"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if err := qsvc.Discard(context.Background(), owner, q2.ID); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}

	stats, err := svc.OwnerStats(context.Background(), owner, "Counted")
	if err != nil {
		t.Fatalf("OwnerStats() error = %v", err)
	}
	if stats.TotalQuestions != 3 {
		t.Errorf("TotalQuestions = %d, want 3 (discard never decrements)", stats.TotalQuestions)
	}
	if stats.TotalAnswers != 1 {
		t.Errorf("TotalAnswers = %d, want 1", stats.TotalAnswers)
	}
	if stats.Pending != 2 {
		t.Errorf("Pending = %d, want 2 (derived, discards included)", stats.Pending)
	}
}

func TestOwnerStats_NotOwner(t *testing.T) {
	store := newFakeStore()
	svc := newTestStatsService(store)
	alice := registerFakeUser(t, store, "alice1")
	registerFakeUser(t, store, "bob123")

	_, err := svc.OwnerStats(context.Background(), alice, "bob123")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("OwnerStats() error = %v, want ErrForbidden", err)
	}
}

func TestOwnerStats_NeverNegativePending(t *testing.T) {
	store := newFakeStore()
	svc := newTestStatsService(store)
	qsvc := newTestQuestionService(store)
	asvc := newTestAnswerService(store)
	owner := registerFakeUser(t, store, "deleter")

	q, _ := qsvc.Submit(context.Background(), "deleter", "will you delete the answer?", "")
	a, err := qsvc.Answer(context.Background(), owner, q.ID, "yes")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if err := asvc.Delete(context.Background(), owner, a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	stats, err := svc.OwnerStats(context.Background(), owner, "deleter")
	if err != nil {
		t.Fatalf("OwnerStats() error = %v", err)
	}
	// received=1, answered=0 after the delete
	if stats.Pending < 0 {
		t.Errorf("Pending = %d, must never be negative", stats.Pending)
	}
}

func TestActivity_DefaultsZeroCursor(t *testing.T) {
	store := newFakeStore()
	svc := newTestStatsService(store)
	registerFakeUser(t, store, "fresh1")

	activity, err := svc.Activity(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Activity() error = %v", err)
	}
	if len(activity.Users) != 1 {
		t.Errorf("users = %d, want the recent registration", len(activity.Users))
	}
	if activity.Timestamp.IsZero() {
		t.Error("Activity() must return the next cursor")
	}
}

func TestActivity_FutureCursor(t *testing.T) {
	store := newFakeStore()
	svc := newTestStatsService(store)
	registerFakeUser(t, store, "fresh1")

	activity, err := svc.Activity(context.Background(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Activity() error = %v", err)
	}
	if len(activity.Users)+len(activity.Questions)+len(activity.Answers) != 0 {
		t.Error("a future cursor must return an empty window")
	}
}
