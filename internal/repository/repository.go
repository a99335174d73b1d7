// Package repository declares the storage interfaces consumed by the
// service layer. The sqlite subpackage provides the implementation; tests
// substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/blog-api/internal/model"
)

// ListOptions paginates list queries. Zero values mean "use defaults";
// implementations clamp out-of-range values rather than erroring.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists user records.
//
// Create and Update return a conflict error when the username or email
// collides with another user. Get/Update/Delete return a not-found error
// for absent IDs. Delete cascades to the user's posts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

// PostRepository persists post records. Update never touches user_id;
// ownership is fixed at creation.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, opts ListOptions) ([]model.Post, error)
	ListByUser(ctx context.Context, userID string, opts ListOptions) ([]model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id string) error
}
