// Package handler holds the HTTP layer: decode the request, call one
// service method, encode the result. No business rules live here.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/askbox/internal/auth"
	"github.com/sakif/askbox/internal/service"
)

// UserHandler manages registration, secret login, and the user's own
// profile surface.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleRegister claims a new handle.
//
// HTTP: POST /api/users
// REQUEST BODY: {"handle": "myname"}
//
// The response carries the generated secret IN PLAINTEXT — the only time it
// is ever visible. The client must store it; the server keeps only the
// bcrypt hash.
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Handle string `json:"handle"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid register JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.users.Register(r.Context(), req.Handle)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"handle": result.User.Handle,
		"secret": result.Secret,
	})
}

// HandleLogin exchanges a handle + secret for a bearer token.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"handle": "myname", "secret": "..."}
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Handle string `json:"handle"`
		Secret string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid login JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.users.Authenticate(r.Context(), req.Handle, req.Secret)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token":  result.Token,
		"handle": result.User.Handle,
	})
}

// HandleMe returns the authenticated user's own record.
//
// HTTP: GET /api/me
// Auth: Required
//
// The model's json tags keep secret_hash, github_id and the raw counter out
// of the payload, so returning the struct directly is safe.
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but be safe.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandlePublicProfile is the anonymous handle check.
//
// HTTP: GET /api/users/{handle}
func (h *UserHandler) HandlePublicProfile(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	if handle == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "handle is required",
		})
		return
	}

	profile, err := h.users.PublicProfile(r.Context(), handle)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleUpdateProfile sets the caller's display metadata.
//
// HTTP: PUT /api/users/profile
// Auth: Required
// REQUEST BODY: {"displayName": "...", "walletAddress": "...", "telegram": "..."}
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}

	var req struct {
		DisplayName   string `json:"displayName"`
		WalletAddress string `json:"walletAddress"`
		Telegram      string `json:"telegram"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), user, req.DisplayName, req.WalletAddress, req.Telegram)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
