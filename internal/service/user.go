// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept primitives and model types, never HTTP types, and return
// domain errors (apperror), never status codes. Validation runs here, BEFORE
// any store call — the database's own constraints are the redundant second
// line of defence, never the first.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/askbox/internal/apperror"
	"github.com/sakif/askbox/internal/auth"
	"github.com/sakif/askbox/internal/model"
	"github.com/sakif/askbox/internal/repository"
	"github.com/sakif/askbox/internal/validate"
)

// Profile field bounds. Loose — these are display metadata, not identities.
const (
	MaxDisplayNameLength = 50
	MaxWalletLength      = 100
	MaxTelegramLength    = 32
)

// UserService owns handle registration, both authentication paths, and the
// small set of user reads and mutations.
type UserService struct {
	users   repository.UserRepository
	answers repository.AnswerRepository
	tokens  *auth.TokenService
	secrets *auth.SecretService
	logger  *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	answers repository.AnswerRepository,
	tokens *auth.TokenService,
	secrets *auth.SecretService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:   users,
		answers: answers,
		tokens:  tokens,
		secrets: secrets,
		logger:  logger,
	}
}

// RegisterResult carries the one-time plaintext secret next to the created
// user. The secret exists only in this value — it is never stored and never
// derivable again. Losing it means losing write access to the handle; there
// is no recovery flow.
type RegisterResult struct {
	User   *model.User
	Secret string
}

// Register creates a new local-secret handle.
//
// The availability check before CreateUser gives a friendly Conflict for the
// common case; the UNIQUE constraint catches the register-register race and
// the repository translates it to the same Conflict.
func (s *UserService) Register(ctx context.Context, rawHandle string) (*RegisterResult, error) {
	if violations := validate.Handle(rawHandle); len(violations) > 0 {
		return nil, apperror.ValidationList("handle", violations)
	}
	handle := validate.NormalizeHandle(rawHandle)

	_, err := s.users.GetUserByHandle(ctx, handle)
	if err == nil {
		return nil, apperror.Conflict("handle", handle)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/user: checking handle %s: %w", handle, err)
	}

	plaintext, hash, err := s.secrets.Generate()
	if err != nil {
		return nil, fmt.Errorf("service/user: generating secret: %w", err)
	}

	user := &model.User{
		Handle:     handle,
		SecretHash: hash,
		AuthKind:   model.AuthSecret,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("handle registered",
		slog.String("userID", user.ID),
		slog.String("handle", user.Handle),
	)

	return &RegisterResult{User: user, Secret: plaintext}, nil
}

// AuthResult bundles the issued token with the authenticated user.
type AuthResult struct {
	User  *model.User
	Token string
}

// Authenticate verifies a handle's secret and issues a session token.
//
// The auth-kind check comes BEFORE the hash comparison on purpose: a GitHub
// handle has no local secret, so hash-compare would fail anyway — but the
// caller deserves "this handle signs in with GitHub", not a generic
// mismatch. All three failure modes are still 401s.
func (s *UserService) Authenticate(ctx context.Context, rawHandle, secret string) (*AuthResult, error) {
	handle := validate.NormalizeHandle(rawHandle)

	user, err := s.users.GetUserByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid handle or secret")
		}
		return nil, fmt.Errorf("service/user: fetching handle %s: %w", handle, err)
	}

	if user.AuthKind != model.AuthSecret {
		return nil, apperror.Unauthorized("this handle signs in with GitHub, not a secret")
	}

	if err := s.secrets.Verify(user.SecretHash, secret); err != nil {
		return nil, apperror.Unauthorized("invalid handle or secret")
	}

	token, err := s.tokens.Generate(auth.Identity{UserID: user.ID, Handle: user.Handle})
	if err != nil {
		return nil, fmt.Errorf("service/user: issuing token for %s: %w", user.Handle, err)
	}

	s.logger.Info("handle authenticated", slog.String("handle", user.Handle))

	return &AuthResult{User: user, Token: token}, nil
}

// ExternalLogin signs a GitHub identity in, creating the user on first
// contact. Idempotent by GitHub ID: the same account always resolves to the
// same askbox user, whatever happens to its GitHub username later.
//
// External login must never dead-end: if the derived handle is unusable or
// taken, we disambiguate with a generated suffix instead of failing.
func (s *UserService) ExternalLogin(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil {
		return nil, fmt.Errorf("service/user: GitHub user must not be nil")
	}

	user, err := s.users.GetUserByGitHubID(ctx, gh.ID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/user: looking up github id %d: %w", gh.ID, err)
	}

	if user == nil {
		user, err = s.createExternalUser(ctx, gh)
		if err != nil {
			return nil, err
		}
	}

	token, err := s.tokens.Generate(auth.Identity{UserID: user.ID, Handle: user.Handle})
	if err != nil {
		return nil, fmt.Errorf("service/user: issuing token for %s: %w", user.Handle, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

func (s *UserService) createExternalUser(ctx context.Context, gh *auth.GitHubUser) (*model.User, error) {
	ghID := gh.ID
	handle := s.deriveHandle(ctx, gh.Login)

	user := &model.User{
		Handle:   handle,
		GitHubID: &ghID,
		AuthKind: model.AuthGitHub,
	}
	err := s.users.CreateUser(ctx, user)
	if errors.Is(err, apperror.ErrConflict) {
		// Lost a race on the derived handle — suffix and try once more.
		user.Handle = suffixHandle(handle)
		err = s.users.CreateUser(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("service/user: creating external user (githubID=%d): %w", gh.ID, err)
	}

	s.logger.Info("external user created",
		slog.String("userID", user.ID),
		slog.String("handle", user.Handle),
		slog.Int64("githubID", gh.ID),
	)
	return user, nil
}

// deriveHandle turns a GitHub login into a valid, available handle:
// lowercase, stripped to [a-z0-9], clamped to the length bound, suffixed
// when invalid or already claimed by someone else.
func (s *UserService) deriveHandle(ctx context.Context, login string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(login) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	candidate := b.String()
	if len(candidate) > validate.MaxHandleLength {
		candidate = candidate[:validate.MaxHandleLength]
	}

	if len(validate.Handle(candidate)) > 0 {
		return suffixHandle(candidate)
	}

	_, err := s.users.GetUserByHandle(ctx, candidate)
	if err == nil {
		// Taken — disambiguate rather than fail.
		return suffixHandle(candidate)
	}
	return candidate
}

// suffixHandle appends a fresh uniqueness token, keeping the result within
// the handle length bound. xid output is lowercase base32, so the suffix is
// always handle-legal.
func suffixHandle(base string) string {
	suffix := xid.New().String()
	suffix = suffix[len(suffix)-7:]
	if len(base) > validate.MaxHandleLength-len(suffix) {
		base = base[:validate.MaxHandleLength-len(suffix)]
	}
	if base == "" {
		base = "user" + suffix
		return base
	}
	return base + suffix
}

// GetUserByID returns the user for the given internal ID. Used by the
// auth middleware indirectly and by /api/me.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/user: user ID must not be empty")
	}
	return s.users.GetUserByID(ctx, id)
}

// PublicProfile is the anonymous handle check: does this inbox exist, and
// what may strangers see about it.
func (s *UserService) PublicProfile(ctx context.Context, rawHandle string) (*model.PublicProfile, error) {
	handle := validate.NormalizeHandle(rawHandle)

	user, err := s.users.GetUserByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}

	answers, err := s.answers.CountAnswersByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/user: counting answers for %s: %w", handle, err)
	}

	return &model.PublicProfile{
		Handle:      user.Handle,
		DisplayName: user.DisplayName,
		Answers:     answers,
		CreatedAt:   user.CreatedAt,
	}, nil
}

// UpdateProfile sets the caller's display metadata — the only mutation a
// user row supports after creation.
func (s *UserService) UpdateProfile(ctx context.Context, caller *model.User, displayName, walletAddress, telegram string) (*model.User, error) {
	displayName = strings.TrimSpace(displayName)
	walletAddress = strings.TrimSpace(walletAddress)
	telegram = strings.TrimSpace(strings.TrimPrefix(telegram, "@"))

	var violations []string
	if len(displayName) > MaxDisplayNameLength {
		violations = append(violations,
			fmt.Sprintf("display name must be at most %d characters", MaxDisplayNameLength))
	}
	if len(walletAddress) > MaxWalletLength {
		violations = append(violations,
			fmt.Sprintf("wallet address must be at most %d characters", MaxWalletLength))
	}
	if len(telegram) > MaxTelegramLength {
		violations = append(violations,
			fmt.Sprintf("telegram username must be at most %d characters", MaxTelegramLength))
	}
	if len(violations) > 0 {
		return nil, apperror.ValidationList("profile", violations)
	}

	caller.DisplayName = displayName
	caller.WalletAddress = walletAddress
	caller.Telegram = telegram

	if err := s.users.UpdateUserProfile(ctx, caller); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("handle", caller.Handle))
	return caller, nil
}
