package handler_test

// Full-stack handler tests: requests go through the real chi router into
// the service and sqlite layers, with an in-memory database per test.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blog-api/internal/config"
	"github.com/sakif/blog-api/internal/server"
)

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type postResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      string `json:"userId"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg := config.Config{
		DBPath:     ":memory:",
		JWTSecret:  "handler-test-secret-key",
		AccessTTL:  30 * time.Minute,
		BcryptCost: 4, // fast hashing for tests
	}

	srv, err := server.New(cfg, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return ts
}

// do sends a request with an optional bearer token and JSON body.
func do(t *testing.T, ts *httptest.Server, method, path, token, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := ts.Client().Do(req)
	require.NoError(t, err)

	// Drain and replace the body so callers can skip closing it.
	raw, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	res.Body = io.NopCloser(bytes.NewReader(raw))
	return res
}

func decodeBody(t *testing.T, res *http.Response, dst interface{}) {
	t.Helper()
	defer res.Body.Close()
	require.NoError(t, json.NewDecoder(res.Body).Decode(dst))
}

func registerUser(t *testing.T, ts *httptest.Server, username string) userResponse {
	t.Helper()

	body := fmt.Sprintf(`{"username":%q,"email":"%s@example.com","password":"s3cret"}`, username, username)
	res := do(t, ts, http.MethodPost, "/users/", "", body)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var user userResponse
	decodeBody(t, res, &user)
	return user
}

func login(t *testing.T, ts *httptest.Server, username, password string) string {
	t.Helper()

	form := url.Values{"username": {username}, "password": {password}}
	res, err := ts.Client().Post(ts.URL+"/token", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var tr tokenResponse
	decodeBody(t, res, &tr)
	require.Equal(t, "bearer", tr.TokenType)
	require.NotEmpty(t, tr.AccessToken)
	return tr.AccessToken
}

func createPost(t *testing.T, ts *httptest.Server, token, title, description string) postResponse {
	t.Helper()

	body := fmt.Sprintf(`{"title":%q,"description":%q}`, title, description)
	res := do(t, ts, http.MethodPost, "/posts/", token, body)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var post postResponse
	decodeBody(t, res, &post)
	return post
}

// =========================================================================
// REGISTRATION AND LOGIN
// =========================================================================

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	res := do(t, ts, http.MethodPost, "/users/", "", `{"username":"alice","email":"alice@example.com","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)

	raw, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)

	var user userResponse
	require.NoError(t, json.Unmarshal(raw, &user))
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)

	// The password and its hash never appear in responses.
	assert.NotContains(t, string(raw), "s3cret")
	assert.NotContains(t, string(raw), "password")

	token := login(t, ts, "alice", "s3cret")
	assert.NotEmpty(t, token)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice")

	res := do(t, ts, http.MethodPost, "/users/", "", `{"username":"alice","email":"other@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var errRes struct {
		Error string `json:"error"`
	}
	decodeBody(t, res, &errRes)
	assert.Equal(t, "conflict", errRes.Error)
}

func TestRegister_InvalidBody(t *testing.T) {
	ts := newTestServer(t)

	res := do(t, ts, http.MethodPost, "/users/", "", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

// Unknown username and wrong password must be indistinguishable: same
// status, same body.
func TestToken_BadCredentials(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice")

	post := func(username, password string) (int, string) {
		form := url.Values{"username": {username}, "password": {password}}
		res, err := ts.Client().Post(ts.URL+"/token", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
		require.NoError(t, err)
		body, err := io.ReadAll(res.Body)
		res.Body.Close()
		require.NoError(t, err)
		return res.StatusCode, string(body)
	}

	unknownStatus, unknownBody := post("nobody", "s3cret")
	wrongStatus, wrongBody := post("alice", "wrong")

	assert.Equal(t, http.StatusUnauthorized, unknownStatus)
	assert.Equal(t, http.StatusUnauthorized, wrongStatus)
	assert.Equal(t, unknownBody, wrongBody)
}

// =========================================================================
// POSTS
// =========================================================================

func TestPostLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice := registerUser(t, ts, "alice")
	token := login(t, ts, "alice", "s3cret")

	created := createPost(t, ts, token, "first post", "hello world")
	assert.Equal(t, alice.ID, created.UserID)

	// Reads are public.
	res := do(t, ts, http.MethodGet, "/posts/"+created.ID, "", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var fetched postResponse
	decodeBody(t, res, &fetched)
	assert.Equal(t, "first post", fetched.Title)

	res = do(t, ts, http.MethodGet, "/posts/", "", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var listed []postResponse
	decodeBody(t, res, &listed)
	assert.Len(t, listed, 1)

	// Partial update: only the title changes.
	res = do(t, ts, http.MethodPut, "/posts/"+created.ID, token, `{"title":"renamed"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var updated postResponse
	decodeBody(t, res, &updated)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, "hello world", updated.Description)

	// Delete echoes the removed post.
	res = do(t, ts, http.MethodDelete, "/posts/"+created.ID, token, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var deleted postResponse
	decodeBody(t, res, &deleted)
	assert.Equal(t, created.ID, deleted.ID)

	res = do(t, ts, http.MethodGet, "/posts/"+created.ID, "", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestPostMutations_RequireAuth(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice")
	token := login(t, ts, "alice", "s3cret")
	created := createPost(t, ts, token, "mine", "body")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"create", http.MethodPost, "/posts/", `{"title":"t"}`},
		{"update", http.MethodPut, "/posts/" + created.ID, `{"title":"t"}`},
		{"delete", http.MethodDelete, "/posts/" + created.ID, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := do(t, ts, tt.method, tt.path, "", tt.body)
			assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
			assert.Equal(t, "Bearer", res.Header.Get("WWW-Authenticate"))
		})
	}
}

// The scenario the whole API is built around: one user's token gets no
// mutation rights over another user's post.
func TestPostOwnership(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice")
	registerUser(t, ts, "bob")
	aliceToken := login(t, ts, "alice", "s3cret")
	bobToken := login(t, ts, "bob", "s3cret")

	created := createPost(t, ts, aliceToken, "alice writes", "her story")

	res := do(t, ts, http.MethodPut, "/posts/"+created.ID, bobToken, `{"title":"bob was here"}`)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res = do(t, ts, http.MethodDelete, "/posts/"+created.ID, bobToken, "")
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	// The post is untouched and the owner still has full control.
	res = do(t, ts, http.MethodGet, "/posts/"+created.ID, "", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var fetched postResponse
	decodeBody(t, res, &fetched)
	assert.Equal(t, "alice writes", fetched.Title)

	res = do(t, ts, http.MethodDelete, "/posts/"+created.ID, aliceToken, "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

// A missing post reports 404 even to a token that wouldn't own it, so
// probing can't distinguish "absent" from "someone else's".
func TestPostUpdate_UnknownID(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice")
	token := login(t, ts, "alice", "s3cret")

	res := do(t, ts, http.MethodPut, "/posts/nonexistent", token, `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

// The payload types reject unknown fields, so a client can't smuggle an
// ownership change through an update body.
func TestPostUpdate_RejectsUnknownFields(t *testing.T) {
	ts := newTestServer(t)
	bob := registerUser(t, ts, "bob")
	registerUser(t, ts, "alice")
	aliceToken := login(t, ts, "alice", "s3cret")
	created := createPost(t, ts, aliceToken, "mine", "body")

	payload := fmt.Sprintf(`{"title":"renamed","userId":%q}`, bob.ID)
	res := do(t, ts, http.MethodPut, "/posts/"+created.ID, aliceToken, payload)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestPostList_FilterByUser(t *testing.T) {
	ts := newTestServer(t)
	alice := registerUser(t, ts, "alice")
	registerUser(t, ts, "bob")
	aliceToken := login(t, ts, "alice", "s3cret")
	bobToken := login(t, ts, "bob", "s3cret")

	createPost(t, ts, aliceToken, "a1", "")
	createPost(t, ts, aliceToken, "a2", "")
	createPost(t, ts, bobToken, "b1", "")

	res := do(t, ts, http.MethodGet, "/posts/?userId="+alice.ID, "", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var posts []postResponse
	decodeBody(t, res, &posts)
	assert.Len(t, posts, 2)
	for _, p := range posts {
		assert.Equal(t, alice.ID, p.UserID)
	}
}

// =========================================================================
// USERS
// =========================================================================

func TestUsersMe(t *testing.T) {
	ts := newTestServer(t)
	alice := registerUser(t, ts, "alice")
	token := login(t, ts, "alice", "s3cret")

	res := do(t, ts, http.MethodGet, "/users/me", token, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var me userResponse
	decodeBody(t, res, &me)
	assert.Equal(t, alice.ID, me.ID)

	res = do(t, ts, http.MethodGet, "/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestUserUpdate_OnlySelf(t *testing.T) {
	ts := newTestServer(t)
	alice := registerUser(t, ts, "alice")
	registerUser(t, ts, "bob")
	bobToken := login(t, ts, "bob", "s3cret")

	res := do(t, ts, http.MethodPut, "/users/"+alice.ID, bobToken, `{"email":"hijack@example.com"}`)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	aliceToken := login(t, ts, "alice", "s3cret")
	res = do(t, ts, http.MethodPut, "/users/"+alice.ID, aliceToken, `{"email":"new@example.com"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var updated userResponse
	decodeBody(t, res, &updated)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, "alice", updated.Username)
}

func TestUserUpdate_PasswordChangesLogin(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice")
	token := login(t, ts, "alice", "s3cret")

	res := do(t, ts, http.MethodPut, "/users/", token, `{"password":"new-pass"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)

	// The old password is dead, the new one works.
	form := url.Values{"username": {"alice"}, "password": {"s3cret"}}
	resp, err := ts.Client().Post(ts.URL+"/token", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	login(t, ts, "alice", "new-pass")
}

func TestUserDelete_CascadesToPosts(t *testing.T) {
	ts := newTestServer(t)
	alice := registerUser(t, ts, "alice")
	token := login(t, ts, "alice", "s3cret")
	created := createPost(t, ts, token, "doomed", "goes with the account")

	res := do(t, ts, http.MethodDelete, "/users/"+alice.ID, token, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var deleted userResponse
	decodeBody(t, res, &deleted)
	assert.Equal(t, alice.ID, deleted.ID)

	// The account's posts are gone with it.
	res = do(t, ts, http.MethodGet, "/posts/"+created.ID, "", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	// A token for a deleted account no longer authenticates.
	res = do(t, ts, http.MethodGet, "/users/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestUserGet_NotFound(t *testing.T) {
	ts := newTestServer(t)

	res := do(t, ts, http.MethodGet, "/users/nonexistent", "", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
