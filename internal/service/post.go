package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

const (
	maxTitleLen       = 256
	maxDescriptionLen = 4096
)

// PostService handles post reads and ownership-gated mutations.
type PostService struct {
	posts  repository.PostRepository
	logger *slog.Logger
}

func NewPostService(posts repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{posts: posts, logger: logger}
}

// Create stores a new post owned by the author. Ownership is taken from
// the authenticated caller, never from the request payload.
func (s *PostService) Create(ctx context.Context, author *model.User, title, description string) (*model.Post, error) {
	if author == nil {
		return nil, apperror.Unauthorized("authentication required")
	}

	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	post := &model.Post{
		Title:       title,
		Description: description,
		UserID:      author.ID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("postID", post.ID),
		slog.String("userID", author.ID),
	)

	return post, nil
}

// GetByID returns a single post by its ID.
func (s *PostService) GetByID(ctx context.Context, id string) (*model.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// List returns a page of posts across all authors.
func (s *PostService) List(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	return s.posts.List(ctx, opts)
}

// ListByUser returns a page of posts owned by one author.
func (s *PostService) ListByUser(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Post, error) {
	return s.posts.ListByUser(ctx, userID, opts)
}

// Update applies a partial update to a post. An unknown id is reported
// before the ownership check; only the owner may update. Fields left nil
// in the patch keep their stored values, and ownership never changes.
func (s *PostService) Update(ctx context.Context, actor *model.User, id string, patch model.PostPatch) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canMutate(actor, post) {
		return nil, apperror.Forbidden("you can only update your own posts")
	}

	if err := validatePostPatch(patch); err != nil {
		return nil, err
	}

	updated := patch.Apply(*post)
	if err := s.posts.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("updating post %s: %w", id, err)
	}

	s.logger.Info("post updated", slog.String("postID", id))

	return &updated, nil
}

// Delete removes a post and returns the removed record. Only the owner
// may delete.
func (s *PostService) Delete(ctx context.Context, actor *model.User, id string) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canMutate(actor, post) {
		return nil, apperror.Forbidden("you can only delete your own posts")
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("deleting post %s: %w", id, err)
	}

	s.logger.Info("post deleted", slog.String("postID", id))

	return post, nil
}

// canMutate is the single ownership check for post mutations.
func canMutate(actor *model.User, post *model.Post) bool {
	return actor != nil && actor.ID == post.UserID
}

func validateTitle(title string) error {
	if title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > maxTitleLen {
		return apperror.ValidationFailed("title", fmt.Sprintf("title must be %d characters or less", maxTitleLen))
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > maxDescriptionLen {
		return apperror.ValidationFailed("description", fmt.Sprintf("description must be %d characters or less", maxDescriptionLen))
	}
	return nil
}

func validatePostPatch(patch model.PostPatch) error {
	if patch.Empty() {
		return apperror.ValidationFailed("body", "no fields to update")
	}
	if patch.Title != nil {
		if err := validateTitle(strings.TrimSpace(*patch.Title)); err != nil {
			return err
		}
	}
	if patch.Description != nil {
		if err := validateDescription(*patch.Description); err != nil {
			return err
		}
	}
	return nil
}
