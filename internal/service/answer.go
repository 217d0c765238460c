package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/askbox/internal/apperror"
	"github.com/sakif/askbox/internal/model"
	"github.com/sakif/askbox/internal/repository"
	"github.com/sakif/askbox/internal/validate"
)

// Pagination bounds for the public answers list.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AnswerService owns the public answers surface and the owner's edit and
// delete operations on published answers.
type AnswerService struct {
	answers repository.AnswerRepository
	users   repository.UserRepository
	logger  *slog.Logger
}

func NewAnswerService(
	answers repository.AnswerRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *AnswerService {
	return &AnswerService{
		answers: answers,
		users:   users,
		logger:  logger,
	}
}

// ListByHandle returns one page of a handle's published answers, newest
// first. Public: no authentication involved.
func (s *AnswerService) ListByHandle(ctx context.Context, rawHandle string, page, limit int) (*model.AnswerPage, error) {
	handle := validate.NormalizeHandle(rawHandle)

	owner, err := s.users.GetUserByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	answers, err := s.answers.ListAnswersByUser(ctx, owner.ID, repository.ListOptions{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("service/answer: listing answers for %s: %w", handle, err)
	}

	total, err := s.answers.CountAnswersByUser(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("service/answer: counting answers for %s: %w", handle, err)
	}

	pages := int((total + int64(limit) - 1) / int64(limit))
	if pages < 1 {
		pages = 1
	}

	return &model.AnswerPage{
		Answers: answers,
		Total:   total,
		Page:    page,
		Pages:   pages,
	}, nil
}

// Edit replaces the text of one of the caller's published answers. The
// frozen question text never changes.
func (s *AnswerService) Edit(ctx context.Context, caller *model.User, answerID, newText string) (*model.Answer, error) {
	answer, err := s.answers.GetAnswerByID(ctx, answerID)
	if err != nil {
		return nil, err
	}
	if answer.UserID != caller.ID {
		return nil, apperror.Forbidden("you can only edit your own answers")
	}

	if violations := validate.AnswerText(newText); len(violations) > 0 {
		return nil, apperror.ValidationList("answer", violations)
	}

	answer.AnswerText = newText
	if err := s.answers.UpdateAnswer(ctx, answer); err != nil {
		return nil, err
	}

	s.logger.Info("answer edited",
		slog.String("answerID", answer.ID),
		slog.String("handle", caller.Handle),
	)
	return answer, nil
}

// Delete removes one of the caller's published answers.
func (s *AnswerService) Delete(ctx context.Context, caller *model.User, answerID string) error {
	answer, err := s.answers.GetAnswerByID(ctx, answerID)
	if err != nil {
		return err
	}
	if answer.UserID != caller.ID {
		return apperror.Forbidden("you can only delete your own answers")
	}

	if err := s.answers.DeleteAnswer(ctx, answerID); err != nil {
		return err
	}

	s.logger.Info("answer deleted",
		slog.String("answerID", answerID),
		slog.String("handle", caller.Handle),
	)
	return nil
}
