package posts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-press/inkwell/internal/rbac"
	"github.com/inkwell-press/inkwell/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	Create(ctx context.Context, post Post) error
	Get(ctx context.Context, id uuid.UUID) (Post, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpdateContent(ctx context.Context, id uuid.UUID, title, slug, body string) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]Post, error)
}

// EventPublisher receives broadcast-worthy lifecycle events. Delivery is
// best-effort: a publish failure never undoes the state change.
type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ListFilter narrows post listings.
type ListFilter struct {
	Status   Status
	AuthorID int64
	Page     int
	PerPage  int
}

// Service orchestrates the post lifecycle.
type Service struct {
	repo       RepositoryPort
	bridge     EventPublisher
	moderation *shared.ModerationRecorder
	audit      AuditPort
	logger     *slog.Logger
}

// NewService constructs the posts service.
func NewService(repo RepositoryPort, bridge EventPublisher, moderation *shared.ModerationRecorder, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, bridge: bridge, moderation: moderation, audit: audit, logger: logger}
}

// CreateInput describes a creation payload. AsDraft is the only caller
// choice; the published status is derived from the actor.
type CreateInput struct {
	Title      string
	Body       string
	CategoryID int64
	AsDraft    bool
}

// Create persists a new post with the status derived from the actor's rank.
func (s *Service) Create(ctx context.Context, actor rbac.Actor, input CreateInput) (Post, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Post{}, ErrValidation
	}
	status, err := InitialStatus(actor, input.AsDraft)
	if err != nil {
		return Post{}, err
	}
	now := time.Now().UTC()
	post := Post{
		ID:         uuid.New(),
		AuthorID:   actor.ID,
		CategoryID: input.CategoryID,
		Title:      title,
		Slug:       Slugify(title),
		Body:       input.Body,
		Status:     status,
		LikedBy:    []int64{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return Post{}, err
	}
	if status == StatusPending && s.moderation != nil {
		_ = s.moderation.EnsureSubmit(ctx, post.ID, actor.ID, fmt.Sprintf("post %q submitted for review", post.Title))
	}
	if status != StatusDraft {
		// Creation straight into approved is a broadcast, the same event a
		// moderator approval would emit.
		evt := Event{
			Type:      EventNewPost,
			PostID:    post.ID,
			ActorName: actor.Name,
			Message:   fmt.Sprintf("%s published a new post: %s", actor.Name, post.Title),
		}
		if status == StatusApproved {
			evt.Type = EventApproval
			evt.Message = fmt.Sprintf("%q was approved", post.Title)
		}
		s.publish(ctx, evt)
	}
	s.recordAudit(ctx, actor.ID, "POST_CREATE", post.ID, map[string]any{"status": string(status)})
	return post, nil
}

// Transition applies a lifecycle move after validating it against the
// transition table. A no-op request returns the post unchanged without
// writing or emitting anything.
func (s *Service) Transition(ctx context.Context, actor rbac.Actor, postID uuid.UUID, to Status, note string) (Post, error) {
	post, err := s.repo.Get(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	next, err := NextStatus(actor, post, to)
	if err != nil {
		return Post{}, err
	}
	if next == post.Status {
		return post, nil
	}
	if err := s.repo.UpdateStatus(ctx, postID, next); err != nil {
		return Post{}, err
	}
	prev := post.Status
	post.Status = next
	post.UpdatedAt = time.Now().UTC()
	s.recordModeration(ctx, actor, post, note)
	if Broadcastable(prev, next) {
		s.publish(ctx, Event{
			Type:      EventApproval,
			PostID:    post.ID,
			ActorName: actor.Name,
			Message:   fmt.Sprintf("%q was approved", post.Title),
		})
	}
	s.recordAudit(ctx, actor.ID, "POST_TRANSITION", post.ID, map[string]any{"from": string(prev), "to": string(next)})
	return post, nil
}

// UpdateContent rewrites title and body for the owner or an admin-rank actor.
func (s *Service) UpdateContent(ctx context.Context, actor rbac.Actor, postID uuid.UUID, title, body string) (Post, error) {
	post, err := s.repo.Get(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	if !rbac.CanEditOrDelete(actor, post.AuthorID) {
		return Post{}, rbac.ErrPermissionDenied
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return Post{}, ErrValidation
	}
	slug := Slugify(title)
	if err := s.repo.UpdateContent(ctx, postID, title, slug, body); err != nil {
		return Post{}, err
	}
	post.Title = title
	post.Slug = slug
	post.Body = body
	post.UpdatedAt = time.Now().UTC()
	s.recordAudit(ctx, actor.ID, "POST_UPDATE", post.ID, nil)
	return post, nil
}

// Delete removes the post entirely. There is no deleted status.
func (s *Service) Delete(ctx context.Context, actor rbac.Actor, postID uuid.UUID) error {
	post, err := s.repo.Get(ctx, postID)
	if err != nil {
		return err
	}
	if !rbac.CanEditOrDelete(actor, post.AuthorID) {
		return rbac.ErrPermissionDenied
	}
	deleted, err := s.repo.Delete(ctx, postID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	s.recordAudit(ctx, actor.ID, "POST_DELETE", post.ID, map[string]any{"title": post.Title})
	return nil
}

// Get returns a post, hiding unapproved content from anyone who is neither
// its author nor a moderator.
func (s *Service) Get(ctx context.Context, actor rbac.Actor, postID uuid.UUID) (Post, error) {
	post, err := s.repo.Get(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	if post.Status != StatusApproved && !s.canSeeUnapproved(actor, post) {
		return Post{}, ErrNotFound
	}
	return post, nil
}

// List returns posts visible to the actor. Non-moderators asking for
// anything beyond approved content are restricted to their own posts.
func (s *Service) List(ctx context.Context, actor rbac.Actor, filter ListFilter) ([]Post, error) {
	if filter.Status != "" && filter.Status != StatusApproved && !rbac.CanModeratePosts(actor) {
		filter.AuthorID = actor.ID
	}
	if filter.Status == "" && !rbac.CanModeratePosts(actor) {
		filter.Status = StatusApproved
	}
	return s.repo.List(ctx, filter)
}

// ModerationHistory returns the moderation timeline for the post's author
// or a moderator.
func (s *Service) ModerationHistory(ctx context.Context, actor rbac.Actor, postID uuid.UUID) ([]shared.ModerationLog, error) {
	post, err := s.repo.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !rbac.CanModeratePosts(actor) && !(actor.Authenticated && actor.ID == post.AuthorID) {
		return nil, rbac.ErrPermissionDenied
	}
	if s.moderation == nil {
		return nil, nil
	}
	return s.moderation.List(ctx, postID)
}

func (s *Service) canSeeUnapproved(actor rbac.Actor, post Post) bool {
	if rbac.CanModeratePosts(actor) {
		return true
	}
	return actor.Authenticated && actor.ID == post.AuthorID
}

func (s *Service) recordModeration(ctx context.Context, actor rbac.Actor, post Post, note string) {
	if s.moderation == nil {
		return
	}
	var action shared.ModerationAction
	switch post.Status {
	case StatusPending:
		action = shared.ModerationSubmit
	case StatusApproved:
		action = shared.ModerationApprove
	case StatusRejected:
		action = shared.ModerationReject
	case StatusDraft:
		action = shared.ModerationUnpublish
	default:
		return
	}
	if err := s.moderation.Record(ctx, shared.ModerationLog{PostID: post.ID, ActorID: actor.ID, Action: action, Note: note}); err != nil && s.logger != nil {
		s.logger.Warn("record moderation", slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, postID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "post", EntityID: postID.String(), Meta: meta}); err != nil && s.logger != nil {
		s.logger.Warn("record audit", slog.Any("error", err))
	}
}

func (s *Service) publish(ctx context.Context, evt Event) {
	if s.bridge == nil {
		return
	}
	if err := s.bridge.Publish(ctx, evt); err != nil && s.logger != nil {
		s.logger.Warn("publish lifecycle event", slog.String("type", string(evt.Type)), slog.Any("error", err))
	}
}
