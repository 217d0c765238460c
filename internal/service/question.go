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

// QuestionService owns the question lifecycle: anonymous submission, the
// owner's pending inbox, and the two ways a pending question leaves it
// (answered or discarded).
type QuestionService struct {
	questions repository.QuestionRepository
	users     repository.UserRepository
	picker    *validate.MessagePicker
	logger    *slog.Logger
}

func NewQuestionService(
	questions repository.QuestionRepository,
	users repository.UserRepository,
	picker *validate.MessagePicker,
	logger *slog.Logger,
) *QuestionService {
	return &QuestionService{
		questions: questions,
		users:     users,
		picker:    picker,
		logger:    logger,
	}
}

// Submit accepts an anonymous question for the given handle. No caller
// identity is involved; the source IP is kept for rate limiting only and
// never reaches the owner.
func (s *QuestionService) Submit(ctx context.Context, rawHandle, text, sourceIP string) (*model.Question, error) {
	handle := validate.NormalizeHandle(rawHandle)

	owner, err := s.users.GetUserByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}

	if violations := validate.QuestionText(text); len(violations) > 0 {
		return nil, apperror.ValidationList("text", violations)
	}
	if validate.ContainsProfanity(text) {
		return nil, apperror.ValidationFailed("text", s.picker.Pick())
	}

	question := &model.Question{
		UserID:   owner.ID,
		Text:     text,
		SourceIP: sourceIP,
	}
	if err := s.questions.CreateQuestion(ctx, question); err != nil {
		return nil, fmt.Errorf("service/question: creating question for %s: %w", handle, err)
	}

	// Deliberately no question text in the log: pending questions are
	// owner-private.
	s.logger.Info("question submitted",
		slog.String("questionID", question.ID),
		slog.String("handle", handle),
	)

	return question, nil
}

// Pending lists the caller's unanswered questions, oldest first. Owner-only:
// a handle's pending inbox is visible to nobody else.
func (s *QuestionService) Pending(ctx context.Context, caller *model.User, rawHandle string) ([]model.Question, error) {
	handle := validate.NormalizeHandle(rawHandle)
	if caller.Handle != handle {
		return nil, apperror.Forbidden("you can only read your own pending questions")
	}
	return s.questions.ListPendingQuestions(ctx, caller.ID, repository.ListOptions{})
}

// Answer publishes an answer to one of the caller's pending questions and
// retires the question, atomically. A question that was answered or
// discarded moments ago reads as NotFound — the row is simply gone, and the
// caller cannot distinguish "never existed" from "lost the race".
func (s *QuestionService) Answer(ctx context.Context, caller *model.User, questionID, answerText string) (*model.Answer, error) {
	question, err := s.questions.GetQuestionByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if question.UserID != caller.ID {
		return nil, apperror.Forbidden("you can only answer questions asked to you")
	}

	if violations := validate.AnswerText(answerText); len(violations) > 0 {
		return nil, apperror.ValidationList("answer", violations)
	}

	answer := &model.Answer{AnswerText: answerText}
	if err := s.questions.AnswerQuestion(ctx, questionID, answer); err != nil {
		return nil, err
	}

	s.logger.Info("question answered",
		slog.String("questionID", questionID),
		slog.String("answerID", answer.ID),
		slog.String("handle", caller.Handle),
	)

	return answer, nil
}

// Discard deletes a pending question without answering it. The received
// counter keeps counting it.
func (s *QuestionService) Discard(ctx context.Context, caller *model.User, questionID string) error {
	question, err := s.questions.GetQuestionByID(ctx, questionID)
	if err != nil {
		return err
	}
	if question.UserID != caller.ID {
		return apperror.Forbidden("you can only discard questions asked to you")
	}

	if err := s.questions.DeleteQuestion(ctx, questionID); err != nil {
		return err
	}

	s.logger.Info("question discarded",
		slog.String("questionID", questionID),
		slog.String("handle", caller.Handle),
	)
	return nil
}
