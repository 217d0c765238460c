package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/askbox/internal/apperror"
	"github.com/sakif/askbox/internal/model"
	"github.com/sakif/askbox/internal/repository"
)

// fakeStore is an in-memory stand-in for the sqlite layer. Service tests
// exercise business rules against it without touching a database; the
// storage semantics themselves are covered by the repository tests.
type fakeStore struct {
	users     map[string]*model.User
	questions map[string]*model.Question
	answers   map[string]*model.Answer

	failNext error // next call returns this and clears it
}

var (
	_ repository.UserRepository     = (*fakeStore)(nil)
	_ repository.QuestionRepository = (*fakeStore)(nil)
	_ repository.AnswerRepository   = (*fakeStore)(nil)
	_ repository.ActivityRepository = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[string]*model.User),
		questions: make(map[string]*model.Question),
		answers:   make(map[string]*model.Answer),
	}
}

func (f *fakeStore) fail() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	if err := f.fail(); err != nil {
		return err
	}
	for _, u := range f.users {
		if u.Handle == user.Handle {
			return apperror.Conflict("handle", user.Handle)
		}
		if user.GitHubID != nil && u.GitHubID != nil && *u.GitHubID == *user.GitHubID {
			return apperror.Conflict("github account", fmt.Sprint(*user.GitHubID))
		}
	}
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeStore) GetUserByHandle(_ context.Context, handle string) (*model.User, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if u.Handle == handle {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user", handle)
}

func (f *fakeStore) GetUserByGitHubID(_ context.Context, ghID int64) (*model.User, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if u.GitHubID != nil && *u.GitHubID == ghID {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user", fmt.Sprint(ghID))
}

func (f *fakeStore) UpdateUserProfile(_ context.Context, user *model.User) error {
	if err := f.fail(); err != nil {
		return err
	}
	if _, ok := f.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) CreateQuestion(_ context.Context, q *model.Question) error {
	if err := f.fail(); err != nil {
		return err
	}
	owner, ok := f.users[q.UserID]
	if !ok {
		return apperror.NotFound("user", q.UserID)
	}
	q.ID = xid.New().String()
	q.CreatedAt = time.Now().UTC()
	f.questions[q.ID] = q
	owner.QuestionsReceived++
	return nil
}

func (f *fakeStore) GetQuestionByID(_ context.Context, id string) (*model.Question, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	if q, ok := f.questions[id]; ok {
		return q, nil
	}
	return nil, apperror.NotFound("question", id)
}

func (f *fakeStore) ListPendingQuestions(_ context.Context, userID string, _ repository.ListOptions) ([]model.Question, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	var out []model.Question
	for _, q := range f.questions {
		if q.UserID == userID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteQuestion(_ context.Context, id string) error {
	if err := f.fail(); err != nil {
		return err
	}
	if _, ok := f.questions[id]; !ok {
		return apperror.NotFound("question", id)
	}
	delete(f.questions, id)
	return nil
}

func (f *fakeStore) AnswerQuestion(_ context.Context, questionID string, answer *model.Answer) error {
	if err := f.fail(); err != nil {
		return err
	}
	q, ok := f.questions[questionID]
	if !ok {
		return apperror.NotFound("question", questionID)
	}
	answer.ID = xid.New().String()
	answer.QuestionID = q.ID
	answer.UserID = q.UserID
	answer.QuestionText = q.Text
	answer.CreatedAt = time.Now().UTC()
	answer.UpdatedAt = answer.CreatedAt
	f.answers[answer.ID] = answer
	delete(f.questions, questionID)
	return nil
}

func (f *fakeStore) GetAnswerByID(_ context.Context, id string) (*model.Answer, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	if a, ok := f.answers[id]; ok {
		return a, nil
	}
	return nil, apperror.NotFound("answer", id)
}

func (f *fakeStore) ListAnswersByUser(_ context.Context, userID string, opts repository.ListOptions) ([]model.Answer, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	var all []model.Answer
	for _, a := range f.answers {
		if a.UserID == userID {
			all = append(all, *a)
		}
	}
	if opts.Offset >= len(all) {
		return nil, nil
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return all, nil
}

func (f *fakeStore) CountAnswersByUser(_ context.Context, userID string) (int64, error) {
	if err := f.fail(); err != nil {
		return 0, err
	}
	var n int64
	for _, a := range f.answers {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) UpdateAnswer(_ context.Context, answer *model.Answer) error {
	if err := f.fail(); err != nil {
		return err
	}
	if _, ok := f.answers[answer.ID]; !ok {
		return apperror.NotFound("answer", answer.ID)
	}
	f.answers[answer.ID] = answer
	return nil
}

func (f *fakeStore) DeleteAnswer(_ context.Context, id string) error {
	if err := f.fail(); err != nil {
		return err
	}
	if _, ok := f.answers[id]; !ok {
		return apperror.NotFound("answer", id)
	}
	delete(f.answers, id)
	return nil
}

func (f *fakeStore) ActivitySince(_ context.Context, since time.Time, limit int) (*model.Activity, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	activity := &model.Activity{Timestamp: time.Now().UTC()}
	for _, q := range f.questions {
		if q.CreatedAt.After(since) && len(activity.Questions) < limit {
			activity.Questions = append(activity.Questions, *q)
		}
	}
	for _, a := range f.answers {
		if a.CreatedAt.After(since) && len(activity.Answers) < limit {
			activity.Answers = append(activity.Answers, *a)
		}
	}
	for _, u := range f.users {
		if u.CreatedAt.After(since) && len(activity.Users) < limit {
			activity.Users = append(activity.Users, model.PublicProfile{
				Handle:    u.Handle,
				CreatedAt: u.CreatedAt,
			})
		}
	}
	return activity, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
