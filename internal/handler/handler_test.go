package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/askbox/internal/auth"
	"github.com/sakif/askbox/internal/handler"
	"github.com/sakif/askbox/internal/repository/sqlite"
	"github.com/sakif/askbox/internal/service"
	"github.com/sakif/askbox/internal/validate"
)

// testEnv wires real services over an in-memory database. Handler tests go
// through the same stack a request would, minus the router and rate
// limiting.
type testEnv struct {
	db        *sqlite.DB
	tokens    *auth.TokenService
	users     *handler.UserHandler
	questions *handler.QuestionHandler
	answers   *handler.AnswerHandler
	stats     *handler.StatsHandler

	userSvc *service.UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	secrets := auth.NewSecretServiceForTest(bcrypt.MinCost)

	userSvc := service.NewUserService(db, db, tokens, secrets, logger)
	questionSvc := service.NewQuestionService(db, db, validate.NewMessagePicker(1), logger)
	answerSvc := service.NewAnswerService(db, db, logger)
	statsSvc := service.NewStatsService(db, db, logger)

	return &testEnv{
		db:        db,
		tokens:    tokens,
		users:     handler.NewUserHandler(userSvc, logger),
		questions: handler.NewQuestionHandler(questionSvc, logger),
		answers:   handler.NewAnswerHandler(answerSvc, logger),
		stats:     handler.NewStatsHandler(statsSvc, logger),
		userSvc:   userSvc,
	}
}

// registerUser registers a handle and returns (handle, bearer token).
func (env *testEnv) registerUser(t *testing.T, handle string) string {
	t.Helper()
	result, err := env.userSvc.Register(t.Context(), handle)
	if err != nil {
		t.Fatalf("failed to register %q: %v", handle, err)
	}
	authed, err := env.userSvc.Authenticate(t.Context(), handle, result.Secret)
	if err != nil {
		t.Fatalf("failed to authenticate %q: %v", handle, err)
	}
	return authed.Token
}

// authMW is the real bearer-token middleware over the test environment.
func authMW(env *testEnv) func(http.Handler) http.Handler {
	return auth.RequireAuth(env.tokens, env.db)
}

// do runs a handler func directly, optionally behind the auth middleware.
func (env *testEnv) do(h http.HandlerFunc, req *http.Request, token string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		auth.RequireAuth(env.tokens, env.db)(h).ServeHTTP(rr, req)
		return rr
	}
	h.ServeHTTP(rr, req)
	return rr
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatalf("failed to encode request body: %v", err)
	}
	return &buf
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return out
}
