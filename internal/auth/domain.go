package auth

import (
	"time"

	"github.com/inkwell-press/inkwell/internal/rbac"
)

// User represents an authenticated user account.
type User struct {
	ID            int64
	Email         string
	Name          string
	PasswordHash  string
	Role          rbac.Role
	EmailVerified bool
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
