package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-press/inkwell/internal/rbac"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	UpdateRole(ctx context.Context, id int64, role rbac.Role) error
	SetActive(ctx context.Context, id int64, active bool) error
}

const userColumns = `id, email, name, role, email_verified, is_active, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns all users.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns one user by ID.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// UpdateRole stores a new role for the user.
func (r *Repository) UpdateRole(ctx context.Context, id int64, role rbac.Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role=$2, updated_at=NOW() WHERE id=$1`, id, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive flips the account's active flag.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active=$2, updated_at=NOW() WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ActorByID resolves a fresh actor from the users table. Called once per
// request so a role change made by an admin binds on the target's next
// request without re-authentication.
func (r *Repository) ActorByID(ctx context.Context, id int64) (rbac.Actor, error) {
	user, err := r.GetUser(ctx, id)
	if err != nil {
		return rbac.Actor{}, err
	}
	if !user.IsActive {
		return rbac.Actor{}, ErrNotFound
	}
	return rbac.Actor{
		ID:            user.ID,
		Name:          user.Name,
		Role:          user.Role,
		Authenticated: true,
		EmailVerified: user.EmailVerified,
	}, nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	var role string
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &role, &user.EmailVerified, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return User{}, err
	}
	// Stored roles off the ladder deliberately stay unknown: Rank() maps
	// them to 0 and every permission check denies.
	user.Role = rbac.Role(role)
	return user, nil
}

var (
	_ RepositoryPort   = (*Repository)(nil)
	_ rbac.ActorSource = (*Repository)(nil)
)
