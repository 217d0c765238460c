package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/askbox/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue keys are compared by type AND value. A plain string key
// like "user" could be read or shadowed by any package that knows the
// string. A package-private type means only THIS package can create the key,
// so only this package controls what lives under it.
type contextKey string

const userKey contextKey = "user"

// UserLookup is the slice of the user repository the middleware needs.
// Declared here (consumer side) so auth doesn't depend on the repository
// package — the sqlite DB satisfies it structurally.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth enforces bearer-token authentication on protected routes.
//
// It reads "Authorization: Bearer <token>", validates the JWT, then
// RE-FETCHES the user row and cross-checks the token's handle against the
// stored one. The re-fetch is deliberate: a cached snapshot inside the token
// must never outlive the row it described, so a deleted or renamed handle
// invalidates old tokens even while their signatures still verify.
//
// On success the full *model.User is stored in the request context; on any
// failure the chain stops with 401.
func RequireAuth(tokens *TokenService, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, tokens, users)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the authenticated user from the request context.
// Returns (nil, false) if the request is anonymous.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// resolveUser extracts the bearer token, validates it, and loads the live
// user row it points at.
func resolveUser(r *http.Request, tokens *TokenService, users UserLookup) (*model.User, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return nil, errAuthRequired
	}

	id, err := tokens.Validate(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return nil, err
	}

	// Token is authentic — now confirm the row it describes still exists
	// and still carries the same handle.
	user, err := users.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		return nil, err
	}
	if user.Handle != id.Handle {
		return nil, errStaleToken
	}

	return user, nil
}

var (
	errAuthRequired = &authError{"missing bearer token"}
	errStaleToken   = &authError{"token no longer matches its user"}
)

type authError struct{ msg string }

func (e *authError) Error() string { return "auth: " + e.msg }
