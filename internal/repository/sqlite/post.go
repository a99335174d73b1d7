package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

// compile-time check that *PostStore implements repository.PostRepository
var _ repository.PostRepository = (*PostStore)(nil)

// PostStore implements repository.PostRepository on the shared connection.
// Obtain one with db.Posts().
type PostStore struct {
	db *DB
}

// Posts returns the post repository view of the database.
func (db *DB) Posts() *PostStore {
	return &PostStore{db: db}
}

const postColumns = `id, title, description, user_id, created_at, updated_at`

// Create inserts a new post. ID and timestamps are generated here and
// written back onto the struct. The owner (UserID) must reference an
// existing user or the FK constraint rejects the insert.
func (s *PostStore) Create(ctx context.Context, post *model.Post) error {
	now := time.Now().UTC()
	post.ID = xid.New().String()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, title, description, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.Title,
		post.Description,
		post.UserID,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting post: %w", err)
	}

	return nil
}

// GetByID returns a single post by ID.
func (s *PostStore) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post

	err := s.db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ?`, id,
	).Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.UserID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}

	return &p, nil
}

// List returns posts ordered newest first.
func (s *PostStore) List(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	return s.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		opts)
}

// ListByUser returns one user's posts, newest first.
func (s *PostStore) ListByUser(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Post, error) {
	return s.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		opts, userID)
}

func (s *PostStore) queryPosts(ctx context.Context, query string, opts repository.ListOptions, args ...any) ([]model.Post, error) {
	limit, offset := clampList(opts.Limit, opts.Offset)
	args = append(args, limit, offset)

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0, limit)
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.UserID,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	return posts, nil
}

// Update persists a merged post record. user_id, id, and created_at are
// immutable; updated_at is refreshed here.
func (s *PostStore) Update(ctx context.Context, post *model.Post) error {
	post.UpdatedAt = time.Now().UTC()

	result, err := s.db.conn.ExecContext(ctx,
		`UPDATE posts
		 SET title = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		post.Title,
		post.Description,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %s: %w", post.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", post.ID)
	}

	return nil
}

// Delete removes a post by ID.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.conn.ExecContext(ctx,
		`DELETE FROM posts WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", id)
	}

	return nil
}
