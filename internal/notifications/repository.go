package notifications

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort abstracts notification persistence.
type RepositoryPort interface {
	Insert(ctx context.Context, n Notification) error
	ListForAudiences(ctx context.Context, audiences []string, limit, offset int) ([]Notification, error)
}

// Repository provides PostgreSQL backed notification storage.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores one notification row.
func (r *Repository) Insert(ctx context.Context, n Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, message, post_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.ID, n.UserID, n.Type, n.Message, n.PostID, n.CreatedAt)
	return err
}

// ListForAudiences returns the newest rows visible to any of the given
// audience markers.
func (r *Repository) ListForAudiences(ctx context.Context, audiences []string, limit, offset int) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, message, post_id, created_at
		FROM notifications
		WHERE user_id = ANY($1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, audiences, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.PostID, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
