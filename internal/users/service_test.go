package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inkwell-press/inkwell/internal/rbac"
)

type memoryUserRepo struct {
	users map[int64]User
}

func newMemoryUserRepo(seed ...User) *memoryUserRepo {
	repo := &memoryUserRepo{users: make(map[int64]User)}
	for _, u := range seed {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *memoryUserRepo) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryUserRepo) GetUser(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *memoryUserRepo) UpdateRole(ctx context.Context, id int64, role rbac.Role) error {
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	r.users[id] = u
	return nil
}

func (r *memoryUserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	r.users[id] = u
	return nil
}

func managementActor(role rbac.Role) rbac.Actor {
	return rbac.Actor{ID: 1, Name: "mgmt", Role: role, Authenticated: true, EmailVerified: true}
}

func TestChangeRolePolicies(t *testing.T) {
	repo := newMemoryUserRepo(
		User{ID: 10, Role: rbac.RoleWriter, IsActive: true},
		User{ID: 11, Role: rbac.RoleAdmin, IsActive: true},
		User{ID: 12, Role: rbac.RoleSuperAdmin, IsActive: true},
	)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	// Admin may move a writer on the ladder.
	updated, err := svc.ChangeRole(ctx, managementActor(rbac.RoleAdmin), 10, rbac.RoleUser)
	require.NoError(t, err)
	require.Equal(t, rbac.RoleUser, updated.Role)

	// Admin may not touch another admin.
	_, err = svc.ChangeRole(ctx, managementActor(rbac.RoleAdmin), 11, rbac.RoleWriter)
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)

	// Super admin may demote an admin.
	updated, err = svc.ChangeRole(ctx, managementActor(rbac.RoleSuperAdmin), 11, rbac.RoleWriter)
	require.NoError(t, err)
	require.Equal(t, rbac.RoleWriter, updated.Role)

	// Nobody touches a super_admin.
	_, err = svc.ChangeRole(ctx, managementActor(rbac.RoleSuperAdmin), 12, rbac.RoleAdmin)
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)

	// Only a super admin may grant super_admin.
	_, err = svc.ChangeRole(ctx, managementActor(rbac.RoleAdmin), 10, rbac.RoleSuperAdmin)
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)

	// Roles off the ladder are rejected before any lookup.
	_, err = svc.ChangeRole(ctx, managementActor(rbac.RoleAdmin), 10, rbac.Role("owner"))
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestSetActiveGatedLikeRoleChange(t *testing.T) {
	repo := newMemoryUserRepo(
		User{ID: 10, Role: rbac.RoleWriter, IsActive: true},
		User{ID: 12, Role: rbac.RoleSuperAdmin, IsActive: true},
	)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.SetActive(ctx, managementActor(rbac.RoleAdmin), 10, false))
	got, err := repo.GetUser(ctx, 10)
	require.NoError(t, err)
	require.False(t, got.IsActive)

	err = svc.SetActive(ctx, managementActor(rbac.RoleAdmin), 12, false)
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)
}

func TestListUsersRequiresManagementRank(t *testing.T) {
	repo := newMemoryUserRepo(User{ID: 10, Role: rbac.RoleWriter, IsActive: true})
	svc := NewService(repo, nil, nil)

	_, err := svc.ListUsers(context.Background(), managementActor(rbac.RoleWriter))
	require.ErrorIs(t, err, rbac.ErrPermissionDenied)

	users, err := svc.ListUsers(context.Background(), managementActor(rbac.RoleAdmin))
	require.NoError(t, err)
	require.Len(t, users, 1)
}
