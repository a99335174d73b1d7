// Package service contains the business logic layer.
//
// Handlers parse HTTP and translate errors; services enforce the rules
// (credential checks, uniqueness, ownership, partial-update merging);
// repositories move records in and out of storage. Services accept
// primitives and model types, never HTTP types, and return domain errors
// from the apperror package.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

// invalidCredentials is the one message used for every login failure.
// Unknown username and wrong password must be indistinguishable to the
// caller, otherwise the endpoint leaks which usernames exist.
const invalidCredentials = "invalid username or password"

// AuthService handles registration and credential verification.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record with the issued bearer token.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account with a hashed password.
// A taken username or email surfaces as a conflict error.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("registering user %s: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies a username/password pair and issues a bearer token.
//
// Both failure paths (unknown user, wrong password) return the same
// unauthorized error. The password check runs against whatever hash is
// stored; for accounts without a password (GitHub-only) it simply fails.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperror.Unauthorized(invalidCredentials)
	}

	if !s.passwords.Verify(user.PasswordHash, password) {
		return nil, apperror.Unauthorized(invalidCredentials)
	}

	token, err := s.tokens.Generate(user.Username)
	if err != nil {
		return nil, fmt.Errorf("issuing token for %s: %w", username, err)
	}

	s.logger.Info("user logged in", slog.String("username", user.Username))

	return &AuthResult{User: user, Token: token}, nil
}

// LoginOrRegisterGitHub completes the GitHub OAuth callback: the first
// login creates an account linked to the GitHub ID, later logins resolve
// the existing one. Either way the caller gets the same bearer token as
// the password flow.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user, err := s.users.GetByGitHubID(ctx, ghUser.ID)
	if err != nil {
		user, err = s.registerGitHubUser(ctx, ghUser)
		if err != nil {
			return nil, err
		}
	}

	token, err := s.tokens.Generate(user.Username)
	if err != nil {
		return nil, fmt.Errorf("issuing token for %s: %w", user.Username, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("username", user.Username),
		slog.Int64("githubID", ghUser.ID),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// registerGitHubUser creates an account from a GitHub profile. The account
// has no password hash, so password login for it fails closed. A GitHub
// login colliding with an existing username gets a suffixed one; a hidden
// email gets GitHub's noreply address so the email UNIQUE constraint holds.
func (s *AuthService) registerGitHubUser(ctx context.Context, ghUser *auth.GitHubUser) (*model.User, error) {
	email := ghUser.Email
	if email == "" {
		email = fmt.Sprintf("%d+%s@users.noreply.github.com", ghUser.ID, ghUser.Login)
	}

	user := &model.User{
		Username: ghUser.Login,
		Email:    email,
		GitHubID: ghUser.ID,
	}
	err := s.users.Create(ctx, user)
	if err == nil {
		return user, nil
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Field != "username" {
		return nil, fmt.Errorf("registering GitHub user %s: %w", ghUser.Login, err)
	}

	// Username taken by a local account; disambiguate with the GitHub ID.
	user.Username = fmt.Sprintf("%s-gh%d", ghUser.Login, ghUser.ID)
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("registering GitHub user %s: %w", user.Username, err)
	}
	return user, nil
}

func validateUsername(username string) error {
	if username == "" {
		return apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > 100 {
		return apperror.ValidationFailed("username", "username must be 100 characters or less")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	if !strings.Contains(email, "@") {
		return apperror.ValidationFailed("email", "email must be a valid address")
	}
	return nil
}
