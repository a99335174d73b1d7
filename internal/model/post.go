package model

import "time"

// Post is a user-owned resource. UserID references the owner; the posts
// table declares it with ON DELETE CASCADE, so deleting a user removes
// their posts.
type Post struct {
	ID          string    `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	UserID      string    `json:"userId"      db:"user_id"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// PostPatch is a partial update to a Post. Same presence semantics as
// UserPatch: nil keeps the stored value, non-nil replaces it. Ownership
// (UserID) is never patchable.
type PostPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// Empty reports whether the patch sets no fields at all.
func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Description == nil
}

// Apply returns the next version of p0 with the patch's set fields replacing
// the stored ones. Pure: p0 is not modified.
func (p PostPatch) Apply(p0 Post) Post {
	next := p0
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	return next
}
