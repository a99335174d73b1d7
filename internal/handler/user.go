package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/service"
)

// UserHandler manages account endpoints. Registration goes through the
// auth service (it owns password hashing); everything else goes through
// the user service.
type UserHandler struct {
	users       *service.UserService
	authService *service.AuthService
	logger      *slog.Logger
}

func NewUserHandler(users *service.UserService, authService *service.AuthService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:       users,
		authService: authService,
		logger:      logger,
	}
}

// registerRequest is the payload for account creation. The password only
// ever appears here; responses carry the User model, which never encodes
// its hash.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleCreate registers a new account.
//
// HTTP: POST /users/
// Body: {"username": "...", "email": "...", "password": "..."}
//
// A taken username or email comes back as 400 with error "conflict".
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleList returns a page of accounts.
//
// HTTP: GET /users/?limit=20&offset=0
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), parseListOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleGet returns a single account.
//
// HTTP: GET /users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "user ID is required"))
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdate applies a partial update to an account.
//
// HTTP: PUT /users/{id}
// Auth: required; only the account holder may update, anyone else gets 403.
//
// Omitted fields keep their stored values. A patched password is re-hashed
// before storage.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, chi.URLParam(r, "id"))
}

// HandleUpdateSelf is HandleUpdate addressed to the caller's own account.
//
// HTTP: PUT /users/
// Auth: required
func (h *UserHandler) HandleUpdateSelf(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}
	h.update(w, r, actor.ID)
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "user ID is required"))
		return
	}
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var patch model.UserPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.users.Update(r.Context(), actor, id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDelete removes an account and echoes the removed record. The
// holder's posts are removed with it.
//
// HTTP: DELETE /users/{id}
// Auth: required; only the account holder may delete.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, chi.URLParam(r, "id"))
}

// HandleDeleteSelf is HandleDelete addressed to the caller's own account.
//
// HTTP: DELETE /users/
// Auth: required
func (h *UserHandler) HandleDeleteSelf(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}
	h.delete(w, r, actor.ID)
}

func (h *UserHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "user ID is required"))
		return
	}
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	deleted, err := h.users.Delete(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}
