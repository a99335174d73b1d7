package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

// UserService handles account reads and self-service mutations.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{users: users, passwords: passwords, logger: logger}
}

// List returns a page of accounts.
func (s *UserService) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	return s.users.List(ctx, opts)
}

// GetByID returns a single account by its ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// Update applies a partial update to the account identified by id.
// An unknown id is reported before the ownership check, and only the
// account holder may update it. A patched password is re-hashed; fields
// left nil in the patch keep their stored values.
func (s *UserService) Update(ctx context.Context, actor *model.User, id string, patch model.UserPatch) (*model.User, error) {
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.ID != target.ID {
		return nil, apperror.Forbidden("you can only update your own account")
	}

	if err := validateUserPatch(patch); err != nil {
		return nil, err
	}

	var hash string
	if patch.Password != nil {
		hash, err = s.passwords.Hash(*patch.Password)
		if err != nil {
			return nil, apperror.ValidationFailed("password", err.Error())
		}
	}

	updated := patch.Apply(*target, hash)
	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("updating user %s: %w", id, err)
	}

	s.logger.Info("user updated", slog.String("userID", updated.ID))

	return &updated, nil
}

// Delete removes the account identified by id and returns the removed
// record. Only the account holder may delete it; the holder's posts go
// with the account.
func (s *UserService) Delete(ctx context.Context, actor *model.User, id string) (*model.User, error) {
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.ID != target.ID {
		return nil, apperror.Forbidden("you can only delete your own account")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("deleting user %s: %w", id, err)
	}

	s.logger.Info("user deleted", slog.String("userID", id))

	return target, nil
}

func validateUserPatch(patch model.UserPatch) error {
	if patch.Empty() {
		return apperror.ValidationFailed("body", "no fields to update")
	}
	if patch.Username != nil {
		if err := validateUsername(strings.TrimSpace(*patch.Username)); err != nil {
			return err
		}
	}
	if patch.Email != nil {
		if err := validateEmail(strings.TrimSpace(*patch.Email)); err != nil {
			return err
		}
	}
	if patch.Password != nil && *patch.Password == "" {
		return apperror.ValidationFailed("password", "password must not be empty")
	}
	return nil
}
