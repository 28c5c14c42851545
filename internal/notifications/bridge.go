package notifications

import (
	"context"
	"log/slog"

	"github.com/inkwell-press/inkwell/internal/posts"
	"github.com/inkwell-press/inkwell/jobs"
)

// Bridge hands lifecycle events to the background queue. Publishing is
// fire-and-forget from the content core's point of view; a queue outage
// never blocks or rolls back the state change that produced the event.
type Bridge struct {
	client *jobs.Client
	logger *slog.Logger
}

// NewBridge constructs a Bridge.
func NewBridge(client *jobs.Client, logger *slog.Logger) *Bridge {
	return &Bridge{client: client, logger: logger}
}

// Publish enqueues a notify:dispatch task for the event. New submissions go
// to moderators; approvals broadcast to everyone.
func (b *Bridge) Publish(ctx context.Context, evt posts.Event) error {
	audience := AudienceModerators
	if evt.Type == posts.EventApproval {
		audience = AudienceAll
	}
	_, err := b.client.EnqueueNotifyDispatch(ctx, jobs.NotifyDispatchPayload{
		Type:      string(evt.Type),
		PostID:    evt.PostID.String(),
		Message:   evt.Message,
		ActorName: evt.ActorName,
		Audience:  audience,
	})
	if err != nil && b.logger != nil {
		b.logger.Warn("enqueue notification", slog.String("type", string(evt.Type)), slog.Any("error", err))
	}
	return err
}

var _ posts.EventPublisher = (*Bridge)(nil)
