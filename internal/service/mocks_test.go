package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

// Hand-written in-memory mocks. The services only see the repository
// interfaces, so these swap in for the sqlite stores without the services
// noticing. No database setup, and error paths (missing rows, conflicts)
// are trivial to trigger.

type mockUserRepo struct {
	users  map[string]*model.User
	nextID int
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return apperror.Conflict("user", "username")
		}
		if u.Email == user.Email {
			return apperror.Conflict("user", "email")
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (m *mockUserRepo) GetByGitHubID(_ context.Context, githubID int64) (*model.User, error) {
	if githubID != 0 {
		for _, u := range m.users {
			if u.GitHubID == githubID {
				result := *u
				return &result, nil
			}
		}
	}
	return nil, apperror.NotFound("user", fmt.Sprintf("github:%d", githubID))
}

func (m *mockUserRepo) List(_ context.Context, opts repository.ListOptions) ([]model.User, error) {
	result := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		result = append(result, *u)
	}
	if opts.Offset >= len(result) {
		return []model.User{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(m.users, id)
	return nil
}

type mockPostRepo struct {
	posts  map[string]*model.Post
	nextID int
}

var _ repository.PostRepository = (*mockPostRepo)(nil)

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{posts: make(map[string]*model.Post)}
}

func (m *mockPostRepo) Create(_ context.Context, post *model.Post) error {
	m.nextID++
	post.ID = fmt.Sprintf("post-%d", m.nextID)
	stored := *post
	m.posts[post.ID] = &stored
	return nil
}

func (m *mockPostRepo) GetByID(_ context.Context, id string) (*model.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	result := *p
	return &result, nil
}

func (m *mockPostRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Post, error) {
	result := make([]model.Post, 0, len(m.posts))
	for _, p := range m.posts {
		result = append(result, *p)
	}
	if opts.Offset >= len(result) {
		return []model.Post{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *mockPostRepo) ListByUser(_ context.Context, userID string, opts repository.ListOptions) ([]model.Post, error) {
	result := make([]model.Post, 0)
	for _, p := range m.posts {
		if p.UserID == userID {
			result = append(result, *p)
		}
	}
	if opts.Offset >= len(result) {
		return []model.Post{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *mockPostRepo) Update(_ context.Context, post *model.Post) error {
	if _, ok := m.posts[post.ID]; !ok {
		return apperror.NotFound("post", post.ID)
	}
	stored := *post
	m.posts[post.ID] = &stored
	return nil
}

func (m *mockPostRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.posts[id]; !ok {
		return apperror.NotFound("post", id)
	}
	delete(m.posts, id)
	return nil
}

// =========================================================================
// SHARED HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestAuthService(t *testing.T) (*AuthService, *mockUserRepo) {
	t.Helper()
	repo := newMockUserRepo()
	tokens, err := auth.NewTokenService("test-secret-at-least-16", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	svc := NewAuthService(repo, tokens, auth.NewPasswordServiceForTest(), testLogger())
	return svc, repo
}

func newTestUserService(t *testing.T) (*UserService, *mockUserRepo) {
	t.Helper()
	repo := newMockUserRepo()
	svc := NewUserService(repo, auth.NewPasswordServiceForTest(), testLogger())
	return svc, repo
}

func newTestPostService(t *testing.T) (*PostService, *mockPostRepo) {
	t.Helper()
	repo := newMockPostRepo()
	svc := NewPostService(repo, testLogger())
	return svc, repo
}

// registerUser creates an account through the auth service so tests get a
// realistic user record with a usable password hash.
func registerUser(t *testing.T, svc *AuthService, username string) *model.User {
	t.Helper()
	user, err := svc.Register(context.Background(), username, username+"@example.com", "s3cret")
	if err != nil {
		t.Fatalf("setup: Register(%q) error = %v", username, err)
	}
	return user
}
