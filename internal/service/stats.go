package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/askbox/internal/apperror"
	"github.com/sakif/askbox/internal/model"
	"github.com/sakif/askbox/internal/repository"
	"github.com/sakif/askbox/internal/validate"
)

// ActivityWindowCap bounds each entity list in one activity poll.
const ActivityWindowCap = 20

// StatsService derives the owner's counters and serves the public activity
// feed.
type StatsService struct {
	answers  repository.AnswerRepository
	activity repository.ActivityRepository
	logger   *slog.Logger
}

func NewStatsService(
	answers repository.AnswerRepository,
	activity repository.ActivityRepository,
	logger *slog.Logger,
) *StatsService {
	return &StatsService{
		answers:  answers,
		activity: activity,
		logger:   logger,
	}
}

// OwnerStats computes the caller's own counters. Pending is derived, not
// stored: received is increment-only, answers are countable, and whatever is
// neither answered nor still pending was discarded — a number we never
// report.
func (s *StatsService) OwnerStats(ctx context.Context, caller *model.User, rawHandle string) (*model.Stats, error) {
	handle := validate.NormalizeHandle(rawHandle)
	if caller.Handle != handle {
		return nil, apperror.Forbidden("you can only read your own stats")
	}

	answered, err := s.answers.CountAnswersByUser(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("service/stats: counting answers for %s: %w", handle, err)
	}

	pending := caller.QuestionsReceived - answered
	if pending < 0 {
		// Deleted answers make answered shrink while received never does.
		pending = 0
	}

	return &model.Stats{
		Handle:         caller.Handle,
		TotalQuestions: caller.QuestionsReceived,
		TotalAnswers:   answered,
		Pending:        pending,
	}, nil
}

// Activity returns everything created strictly after the client's cursor,
// plus the server timestamp to use as the next cursor. A zero cursor means
// "start from now-ish" — we hand back the last hour so a fresh client sees
// something.
func (s *StatsService) Activity(ctx context.Context, since time.Time) (*model.Activity, error) {
	if since.IsZero() {
		since = time.Now().Add(-time.Hour)
	}
	return s.activity.ActivitySince(ctx, since, ActivityWindowCap)
}
