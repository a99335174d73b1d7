package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
)

// stubResolver resolves a fixed set of usernames, standing in for the user
// repository.
type stubResolver struct {
	users map[string]*model.User
}

func (s *stubResolver) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if u, ok := s.users[username]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("user", username)
}

func newMiddlewareFixture(t *testing.T) (*TokenService, http.Handler, *model.User) {
	t.Helper()

	ts := newTestTokenService(t)
	alice := &model.User{ID: "u-alice", Username: "alice", Email: "a@x.com"}
	resolver := &stubResolver{users: map[string]*model.User{"alice": alice}}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// The protected handler echoes the resolved user's ID.
	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			t.Error("UserFromContext returned no user on a protected route")
			return
		}
		w.Write([]byte(user.ID))
	})

	return ts, RequireAuth(ts, resolver, logger)(protected), alice
}

func TestRequireAuth_ValidToken(t *testing.T) {
	ts, handler, alice := newMiddlewareFixture(t)

	token, _ := ts.Generate("alice")
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if rr.Body.String() != alice.ID {
		t.Errorf("resolved user = %q, want %q", rr.Body.String(), alice.ID)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	ts, handler, _ := newMiddlewareFixture(t)

	expired, _ := ts.GenerateWithDuration("alice", -time.Second)
	unknownUser, _ := ts.Generate("nobody")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc123"},
		{"bare token without scheme", "justastring"},
		{"garbage token", "Bearer garbage"},
		{"expired token", "Bearer " + expired},
		{"valid token for deleted user", "Bearer " + unknownUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rr.Code)
			}
		})
	}
}

func TestUserFromContext_Anonymous(t *testing.T) {
	if _, ok := UserFromContext(context.Background()); ok {
		t.Error("UserFromContext on an empty context should report no user")
	}
}
