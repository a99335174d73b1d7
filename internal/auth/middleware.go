package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/blog-api/internal/model"
)

// contextKey is unexported so only this package can read or write the
// authenticated user in a request context.
type contextKey string

const userKey contextKey = "user"

// UserResolver looks up the live user record for a verified token subject.
// Satisfied by repository.UserRepository; declared here so the middleware
// doesn't depend on the repository package.
type UserResolver interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// RequireAuth enforces authentication on protected routes.
//
// It extracts the bearer token from the Authorization header, verifies it,
// and resolves the embedded username to the current user record. The token
// itself carries no user data beyond the username, so a profile update or a
// deleted account takes effect on the very next request. Any failure in the
// chain (missing header, bad signature, expiry, unknown username) yields the
// same 401 response.
func RequireAuth(tokens *TokenService, users UserResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, err := subjectFromRequest(r, tokens)
			if err != nil {
				logger.Debug("auth: rejected token", slog.String("reason", err.Error()))
				unauthorized(w)
				return
			}

			user, err := users.GetByUsername(r.Context(), username)
			if err != nil {
				// Token was valid but the account no longer resolves.
				logger.Debug("auth: token subject not found", slog.String("username", username))
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user attached by RequireAuth.
// ok is false on routes that did not pass through the middleware.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// subjectFromRequest parses "Authorization: Bearer <token>" and validates
// the token, returning the subject username.
func subjectFromRequest(r *http.Request, tokens *TokenService) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrTokenMalformed
	}
	return tokens.Validate(strings.TrimSpace(token))
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
}
