package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("post", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("username", "username is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("user", "username"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("not the owner of this post"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("invalid username or password"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("post", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Unauthorized does NOT match ErrForbidden",
			err:       Unauthorized("invalid token"),
			target:    ErrForbidden,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

// Errors stay matchable even after being wrapped by intermediate layers.
func TestErrorsIs_ThroughWrapping(t *testing.T) {
	inner := Forbidden("not the owner of this post")
	wrapped := fmt.Errorf("updating post: %w", inner)

	if !errors.Is(wrapped, ErrForbidden) {
		t.Error("wrapped error should still match ErrForbidden")
	}
}

func TestErrorsAs(t *testing.T) {
	err := fmt.Errorf("service: %w", NotFound("user", "u-1"))

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("errors.As should extract *AppError from a wrapped chain")
	}
	if appErr.Message != "user not found with id u-1" {
		t.Errorf("Message = %q", appErr.Message)
	}
}

func TestMessage(t *testing.T) {
	err := ValidationFailed("title", "title is required")
	if err.Error() != "title is required" {
		t.Errorf("Error() = %q, want %q", err.Error(), "title is required")
	}
	if err.Field != "title" {
		t.Errorf("Field = %q, want %q", err.Field, "title")
	}
}
