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

// PostHandler manages post endpoints. Reads are public; mutations require
// a bearer token and go through the service's ownership checks.
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

func NewPostHandler(posts *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

// createPostRequest is the payload for post creation. There is no owner
// field: ownership always comes from the authenticated caller.
type createPostRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HandleCreate stores a new post owned by the caller.
//
// HTTP: POST /posts/
// Auth: required
// Body: {"title": "...", "description": "..."}
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	author, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var req createPostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.posts.Create(r.Context(), author, req.Title, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleList returns a page of posts, optionally filtered to one author.
//
// HTTP: GET /posts/?limit=20&offset=0&userId=abc
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts := parseListOptions(r)

	var (
		posts []model.Post
		err   error
	)
	if userID := r.URL.Query().Get("userId"); userID != "" {
		posts, err = h.posts.ListByUser(r.Context(), userID, opts)
	} else {
		posts, err = h.posts.List(r.Context(), opts)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleGet returns a single post.
//
// HTTP: GET /posts/{id}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "post ID is required"))
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleUpdate applies a partial update to a post.
//
// HTTP: PUT /posts/{id}
// Auth: required; non-owners get 403, an unknown id gets 404.
//
// Omitted fields keep their stored values.
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "post ID is required"))
		return
	}
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var patch model.PostPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.posts.Update(r.Context(), actor, id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDelete removes a post and echoes the removed record.
//
// HTTP: DELETE /posts/{id}
// Auth: required; non-owners get 403.
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "post ID is required"))
		return
	}
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	deleted, err := h.posts.Delete(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}
