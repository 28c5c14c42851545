package categories

import (
	"errors"
	"time"
)

// Category groups posts for navigation.
type Category struct {
	ID        int64
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	// ErrNotFound indicates the category does not exist.
	ErrNotFound = errors.New("categories: not found")
	// ErrDuplicate indicates a name collision.
	ErrDuplicate = errors.New("categories: duplicate name")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("categories: invalid input")
)
