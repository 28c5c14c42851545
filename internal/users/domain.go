package users

import (
	"errors"
	"time"

	"github.com/inkwell-press/inkwell/internal/rbac"
)

// User represents a user account for management.
type User struct {
	ID            int64
	Email         string
	Name          string
	Role          rbac.Role
	EmailVerified bool
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var (
	// ErrNotFound indicates the user does not exist.
	ErrNotFound = errors.New("users: not found")
	// ErrUnknownRole indicates a role value off the ladder.
	ErrUnknownRole = errors.New("users: unknown role")
)
