package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/inkwell-press/inkwell/internal/rbac"
	"github.com/inkwell-press/inkwell/jobs"
)

// Service persists and lists notification rows.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Dispatch stores the notification row for a dequeued event.
func (s *Service) Dispatch(ctx context.Context, payload jobs.NotifyDispatchPayload) error {
	postID, err := uuid.Parse(payload.PostID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("drop notification with bad post id", slog.String("post_id", payload.PostID))
		}
		return nil
	}
	audience := payload.Audience
	if audience == "" {
		audience = AudienceAll
	}
	return s.repo.Insert(ctx, Notification{
		ID:        uuid.New(),
		UserID:    audience,
		Type:      payload.Type,
		Message:   payload.Message,
		PostID:    postID,
		CreatedAt: time.Now().UTC(),
	})
}

// ListFor returns the notifications visible to the actor: rows targeted at
// them, broadcasts, and the moderator feed when the actor is admin-rank.
func (s *Service) ListFor(ctx context.Context, actor rbac.Actor, limit, offset int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	audiences := []string{strconv.FormatInt(actor.ID, 10), AudienceAll}
	if actor.Role.AtLeast(rbac.RoleAdmin) {
		audiences = append(audiences, AudienceModerators)
	}
	return s.repo.ListForAudiences(ctx, audiences, limit, offset)
}

// DispatchHandler adapts the service into an Asynq handler.
func DispatchHandler(service *Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload jobs.NotifyDispatchPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return service.Dispatch(ctx, payload)
	}
}
