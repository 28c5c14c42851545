package engagement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed like-set persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetLikedBy returns the stored like set for a post.
func (r *Repository) GetLikedBy(ctx context.Context, postID uuid.UUID) ([]int64, error) {
	var members []int64
	err := r.pool.QueryRow(ctx, `SELECT liked_by FROM posts WHERE id=$1`, postID).Scan(&members)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return members, nil
}

// ReplaceLikedBy writes the full next set guarded by the expected previous
// set. Zero rows updated means the precondition failed: either the post is
// gone or a concurrent writer changed the set, which surfaces as
// ErrConflict so the caller rolls back and reconciles.
func (r *Repository) ReplaceLikedBy(ctx context.Context, postID uuid.UUID, expect, next []int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE posts SET liked_by=$2, updated_at=NOW() WHERE id=$1 AND liked_by=$3`, postID, next, expect)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if checkErr := r.pool.QueryRow(ctx, `SELECT true FROM posts WHERE id=$1`, postID).Scan(&exists); checkErr != nil {
			if errors.Is(checkErr, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return checkErr
		}
		return ErrConflict
	}
	return nil
}

var _ StorePort = (*Repository)(nil)
