package handler

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/askbox/internal/auth"
	"github.com/sakif/askbox/internal/model"
	"github.com/sakif/askbox/internal/service"
)

// QuestionHandler covers the question lifecycle: anonymous submission,
// the owner's pending inbox, answering, and discarding.
type QuestionHandler struct {
	questions *service.QuestionService
	logger    *slog.Logger
}

func NewQuestionHandler(questions *service.QuestionService, logger *slog.Logger) *QuestionHandler {
	return &QuestionHandler{questions: questions, logger: logger}
}

// HandleSubmit accepts an anonymous question for a handle.
//
// HTTP: POST /api/questions/{handle}
// REQUEST BODY: {"text": "..."}
//
// No auth header is read even when one is present — submission is anonymous
// by construction. The client IP (resolved by the RealIP middleware) is
// recorded for rate limiting only.
func (h *QuestionHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	if handle == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "handle is required",
		})
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid question JSON",
			slog.String("error", err.Error()),
			slog.String("requestID", middleware.GetReqID(r.Context())),
		)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	question, err := h.questions.Submit(r.Context(), handle, req.Text, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"questionId": question.ID,
	})
}

// HandlePending lists the caller's unanswered questions.
//
// HTTP: GET /api/questions/{handle}/unanswered
// Auth: Required (and the handle must be the caller's own)
func (h *QuestionHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}

	pending, err := h.questions.Pending(r.Context(), user, r.PathValue("handle"))
	if err != nil {
		writeError(w, err)
		return
	}
	if pending == nil {
		// Empty inbox serializes as [], not null
		pending = []model.Question{}
	}
	writeJSON(w, http.StatusOK, pending)
}

// HandleAnswer answers a pending question, retiring it atomically.
//
// HTTP: POST /api/questions/{id}/answer
// Auth: Required
// REQUEST BODY: {"text": "..."}
func (h *QuestionHandler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	answer, err := h.questions.Answer(r.Context(), user, r.PathValue("id"), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"answerId": answer.ID,
	})
}

// HandleDiscard deletes a pending question without answering it.
//
// HTTP: DELETE /api/questions/{id}
// Auth: Required
func (h *QuestionHandler) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}

	if err := h.questions.Discard(r.Context(), user, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "question discarded"})
}

// clientIP returns the address the RealIP middleware resolved. RemoteAddr
// still carries a port when the middleware is absent (tests); strip it.
func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host
}
