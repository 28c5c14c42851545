package posts

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-press/inkwell/internal/rbac"
)

// Post moderation statuses.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus maps a raw string onto a known status. Anything else is
// rejected by the caller rather than compared loosely.
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return Status(raw), true
	default:
		return "", false
	}
}

// Post domain model. LikedBy is the authoritative like set: it contains no
// duplicates and its cardinality IS the like count. Any numeric counter held
// elsewhere is a derived cache that must converge to len(LikedBy).
type Post struct {
	ID         uuid.UUID
	AuthorID   int64
	CategoryID int64
	Title      string
	Slug       string
	Body       string
	Status     Status
	LikedBy    []int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LikeCount derives the like total from the set at read time.
func (p Post) LikeCount() int {
	return len(p.LikedBy)
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("posts: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("posts: invalid input")
)

// InvalidTransitionError reports a lifecycle move outside the allowed table.
// It carries the attempted pair and the actor's resolved permission snapshot
// for diagnostics; the stored state is never touched.
type InvalidTransitionError struct {
	From  Status
	To    Status
	Perms rbac.PermissionSet
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("posts: invalid transition %s -> %s", e.From, e.To)
}

// Lifecycle event types published to the notification bridge.
type EventType string

const (
	EventNewPost  EventType = "new_post"
	EventApproval EventType = "approval"
)

// Event describes a broadcast-worthy lifecycle change.
type Event struct {
	Type      EventType
	PostID    uuid.UUID
	Message   string
	ActorName string
}
