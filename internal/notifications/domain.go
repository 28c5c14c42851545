package notifications

import (
	"time"

	"github.com/google/uuid"
)

const (
	// AudienceAll marks a broadcast visible to every user.
	AudienceAll = "all"
	// AudienceModerators marks a row visible to admin-rank users only.
	AudienceModerators = "moderators"
)

// Notification is one stored fan-out row. UserID holds a numeric user ID
// for targeted rows or an audience marker for shared ones.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	PostID    uuid.UUID `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
