package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/askbox/internal/model"
)

// publishAnswer submits a question and answers it, returning the answer ID.
func publishAnswer(t *testing.T, env *testEnv, handle, token, questionText, answerText string) string {
	t.Helper()
	qID := submitQuestion(t, env, handle, questionText)
	req := httptest.NewRequest(http.MethodPost, "/api/questions/"+qID+"/answer",
		jsonBody(t, map[string]string{"text": answerText}))
	req.SetPathValue("id", qID)
	rr := env.do(env.questions.HandleAnswer, req, token)
	if rr.Code != http.StatusCreated {
		t.Fatalf("answer returned %d: %s", rr.Code, rr.Body.String())
	}
	return decode[map[string]string](t, rr)["answerId"]
}

func TestHandleListAnswers(t *testing.T) {
	t.Run("public page", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.registerUser(t, "published")
		publishAnswer(t, env, "published", token, "what do you publish?", "answers, mostly")

		req := httptest.NewRequest(http.MethodGet, "/api/answers/published", nil)
		req.SetPathValue("handle", "published")
		rr := env.do(env.answers.HandleList, req, "")

		assert.Equal(t, http.StatusOK, rr.Code)
		page := decode[model.AnswerPage](t, rr)
		assert.Equal(t, int64(1), page.Total)
		assert.Equal(t, 1, page.Pages)
		assert.Len(t, page.Answers, 1)
		assert.Equal(t, "what do you publish?", page.Answers[0].QuestionText)
	})

	t.Run("unknown handle", func(t *testing.T) {
		env := newTestEnv(t)

		req := httptest.NewRequest(http.MethodGet, "/api/answers/ghost", nil)
		req.SetPathValue("handle", "ghost")
		rr := env.do(env.answers.HandleList, req, "")

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("paging params", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.registerUser(t, "prolific")
		for i := 0; i < 3; i++ {
			publishAnswer(t, env, "prolific", token, "another question here?", "another answer")
		}

		req := httptest.NewRequest(http.MethodGet, "/api/answers/prolific?page=2&limit=2", nil)
		req.SetPathValue("handle", "prolific")
		rr := env.do(env.answers.HandleList, req, "")

		assert.Equal(t, http.StatusOK, rr.Code)
		page := decode[model.AnswerPage](t, rr)
		assert.Equal(t, int64(3), page.Total)
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 2, page.Pages)
		assert.Len(t, page.Answers, 1)
	})
}

func TestHandleEditAnswer(t *testing.T) {
	t.Run("owner edits", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.registerUser(t, "editor1")
		aID := publishAnswer(t, env, "editor1", token, "first impressions?", "pretty good")

		req := httptest.NewRequest(http.MethodPut, "/api/answers/"+aID,
			strings.NewReader(`{"text":"on reflection, excellent"}`))
		req.SetPathValue("id", aID)
		rr := env.do(env.answers.HandleEdit, req, token)

		assert.Equal(t, http.StatusOK, rr.Code)
		edited := decode[model.Answer](t, rr)
		assert.Equal(t, "on reflection, excellent", edited.AnswerText)
		assert.Equal(t, "first impressions?", edited.QuestionText)
	})

	t.Run("someone else's answer is forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		ownerToken := env.registerUser(t, "author1")
		intruderToken := env.registerUser(t, "intruder")
		aID := publishAnswer(t, env, "author1", ownerToken, "whose answer is this?", "mine")

		req := httptest.NewRequest(http.MethodPut, "/api/answers/"+aID,
			strings.NewReader(`{"text":"mine now"}`))
		req.SetPathValue("id", aID)
		rr := env.do(env.answers.HandleEdit, req, intruderToken)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestHandleDeleteAnswer(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "remover")
	aID := publishAnswer(t, env, "remover", token, "should this stay up?", "no")

	req := httptest.NewRequest(http.MethodDelete, "/api/answers/"+aID, nil)
	req.SetPathValue("id", aID)
	rr := env.do(env.answers.HandleDelete, req, token)

	assert.Equal(t, http.StatusOK, rr.Code)

	// Gone from the public list too
	list := httptest.NewRequest(http.MethodGet, "/api/answers/remover", nil)
	list.SetPathValue("handle", "remover")
	page := decode[model.AnswerPage](t, env.do(env.answers.HandleList, list, ""))
	assert.Equal(t, int64(0), page.Total)
}

func TestHandleStats(t *testing.T) {
	t.Run("own stats", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.registerUser(t, "counted")
		publishAnswer(t, env, "counted", token, "first question here?", "answered")
		submitQuestion(t, env, "counted", "second question here?")

		req := httptest.NewRequest(http.MethodGet, "/api/stats/counted", nil)
		req.SetPathValue("handle", "counted")
		rr := env.do(env.stats.HandleStats, req, token)

		assert.Equal(t, http.StatusOK, rr.Code)
		stats := decode[model.Stats](t, rr)
		assert.Equal(t, int64(2), stats.TotalQuestions)
		assert.Equal(t, int64(1), stats.TotalAnswers)
		assert.Equal(t, int64(1), stats.Pending)
	})

	t.Run("someone else's stats are forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		env.registerUser(t, "target")
		intruderToken := env.registerUser(t, "intruder")

		req := httptest.NewRequest(http.MethodGet, "/api/stats/target", nil)
		req.SetPathValue("handle", "target")
		rr := env.do(env.stats.HandleStats, req, intruderToken)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestHandleActivity(t *testing.T) {
	t.Run("recent window", func(t *testing.T) {
		env := newTestEnv(t)
		env.registerUser(t, "fresh1")

		req := httptest.NewRequest(http.MethodGet, "/api/activity", nil)
		rr := env.do(env.stats.HandleActivity, req, "")

		assert.Equal(t, http.StatusOK, rr.Code)
		activity := decode[model.Activity](t, rr)
		assert.Len(t, activity.Users, 1)
		assert.False(t, activity.Timestamp.IsZero())
	})

	t.Run("malformed cursor", func(t *testing.T) {
		env := newTestEnv(t)

		req := httptest.NewRequest(http.MethodGet, "/api/activity?since=yesterday", nil)
		rr := env.do(env.stats.HandleActivity, req, "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
