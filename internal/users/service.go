package users

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/inkwell-press/inkwell/internal/rbac"
	"github.com/inkwell-press/inkwell/internal/shared"
)

// AuditPort records administrative actions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user management logic.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// ListUsers returns all users. Requires user management rank.
func (s *Service) ListUsers(ctx context.Context, actor rbac.Actor) ([]User, error) {
	if !rbac.CanManageUsers(actor) {
		return nil, rbac.ErrPermissionDenied
	}
	return s.repo.ListUsers(ctx)
}

// ChangeRole moves a user to a new ladder role. The target's current role
// gates the change: nobody modifies a super_admin, and demoting or promoting
// an admin-rank account requires super_admin.
func (s *Service) ChangeRole(ctx context.Context, actor rbac.Actor, userID int64, newRole rbac.Role) (User, error) {
	role, ok := rbac.ParseRole(string(newRole))
	if !ok {
		return User{}, ErrUnknownRole
	}
	target, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if !rbac.CanChangeRole(actor, target.Role) {
		return User{}, rbac.ErrPermissionDenied
	}
	// Granting super_admin is as protected as taking it away.
	if role == rbac.RoleSuperAdmin && actor.Role != rbac.RoleSuperAdmin {
		return User{}, rbac.ErrPermissionDenied
	}
	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, actor, "USER_ROLE_CHANGE", userID, map[string]any{
		"from": string(target.Role),
		"to":   string(role),
	})
	target.Role = role
	return target, nil
}

// SetActive enables or disables an account. Disabled accounts fail actor
// resolution, so existing sessions lose access on their next request.
func (s *Service) SetActive(ctx context.Context, actor rbac.Actor, userID int64, active bool) error {
	target, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !rbac.CanChangeRole(actor, target.Role) {
		return rbac.ErrPermissionDenied
	}
	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		return err
	}
	action := "USER_DEACTIVATE"
	if active {
		action = "USER_ACTIVATE"
	}
	s.recordAudit(ctx, actor, action, userID, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor rbac.Actor, action string, userID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "users",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
