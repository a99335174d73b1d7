// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Username and Email are unique across all users; the database enforces this
// with UNIQUE constraints and the service layer translates violations into
// conflict errors.
//
// PasswordHash holds the bcrypt digest, never the plaintext. The json:"-"
// tag keeps it out of every API response. GitHubID is non-zero only for
// accounts created through the GitHub login path; those accounts have an
// empty PasswordHash, so password login for them fails closed.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"hashed_password"`
	GitHubID     int64     `json:"-"         db:"github_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// UserPatch is a partial update to a User.
//
// Pointer fields encode presence: a nil field leaves the stored value
// unchanged, a non-nil field replaces it (even when it points at an empty
// string). Password carries plaintext and must be hashed by the service
// before the patch reaches storage.
type UserPatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Apply returns the next version of u with the patch's set fields replacing
// the stored ones. It is a pure function: u is not modified, and the same
// inputs always produce the same output. hashedPassword is the bcrypt digest
// of Password and is only consulted when Password is set.
func (p UserPatch) Apply(u User, hashedPassword string) User {
	next := u
	if p.Username != nil {
		next.Username = *p.Username
	}
	if p.Email != nil {
		next.Email = *p.Email
	}
	if p.Password != nil {
		next.PasswordHash = hashedPassword
	}
	return next
}

// Empty reports whether the patch sets no fields at all.
func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.Password == nil
}
