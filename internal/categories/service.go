package categories

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/inkwell-press/inkwell/internal/posts"
	"github.com/inkwell-press/inkwell/internal/rbac"
	"github.com/inkwell-press/inkwell/internal/shared"
)

// AuditPort records administrative actions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles category business logic.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// List returns all categories. Reading is open to everyone.
func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

// Create adds a category. Management rank required.
func (s *Service) Create(ctx context.Context, actor rbac.Actor, name string) (Category, error) {
	if !rbac.CanManageCategories(actor) {
		return Category{}, rbac.ErrPermissionDenied
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, ErrValidation
	}
	cat, err := s.repo.Create(ctx, name, posts.Slugify(name))
	if err != nil {
		return Category{}, err
	}
	s.recordAudit(ctx, actor, "CATEGORY_CREATE", cat.ID, map[string]any{"name": name})
	return cat, nil
}

// Update renames a category. Management rank required.
func (s *Service) Update(ctx context.Context, actor rbac.Actor, id int64, name string) (Category, error) {
	if !rbac.CanManageCategories(actor) {
		return Category{}, rbac.ErrPermissionDenied
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, ErrValidation
	}
	cat, err := s.repo.Update(ctx, id, name, posts.Slugify(name))
	if err != nil {
		return Category{}, err
	}
	s.recordAudit(ctx, actor, "CATEGORY_UPDATE", id, map[string]any{"name": name})
	return cat, nil
}

// Delete removes a category. Management rank required.
func (s *Service) Delete(ctx context.Context, actor rbac.Actor, id int64) error {
	if !rbac.CanManageCategories(actor) {
		return rbac.ErrPermissionDenied
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "CATEGORY_DELETE", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor rbac.Actor, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "categories",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
