package posts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const postColumns = `id, author_id, category_id, title, slug, body, status, liked_by, created_at, updated_at`

// Create inserts a new post row.
func (r *Repository) Create(ctx context.Context, post Post) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO posts (id, author_id, category_id, title, slug, body, status, liked_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		post.ID, post.AuthorID, post.CategoryID, post.Title, post.Slug, post.Body, string(post.Status), post.LikedBy, post.CreatedAt, post.UpdatedAt)
	return err
}

// Get fetches a post by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Post, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1`, id)
	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, ErrNotFound
		}
		return Post{}, err
	}
	return post, nil
}

// UpdateStatus moves the stored lifecycle status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE posts SET status=$2, updated_at=NOW() WHERE id=$1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateContent rewrites title, slug and body.
func (r *Repository) UpdateContent(ctx context.Context, id uuid.UUID, title, slug, body string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE posts SET title=$2, slug=$3, body=$4, updated_at=NOW() WHERE id=$1`, id, title, slug, body)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the row. Returns false when nothing was deleted.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// List returns posts matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts`
	args := []any{}
	where := ""
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = fmt.Sprintf(" WHERE status=$%d", len(args))
	}
	if filter.AuthorID != 0 {
		args = append(args, filter.AuthorID)
		if where == "" {
			where = fmt.Sprintf(" WHERE author_id=$%d", len(args))
		} else {
			where += fmt.Sprintf(" AND author_id=$%d", len(args))
		}
	}
	query += where + ` ORDER BY created_at DESC`
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, (page-1)*perPage)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanPost(row pgx.Row) (Post, error) {
	var post Post
	var status string
	if err := row.Scan(&post.ID, &post.AuthorID, &post.CategoryID, &post.Title, &post.Slug, &post.Body, &status, &post.LikedBy, &post.CreatedAt, &post.UpdatedAt); err != nil {
		return Post{}, err
	}
	parsed, ok := ParseStatus(status)
	if !ok {
		return Post{}, fmt.Errorf("posts: unknown stored status %q", status)
	}
	post.Status = parsed
	return post, nil
}

var _ RepositoryPort = (*Repository)(nil)
