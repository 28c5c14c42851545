package rbac

import "errors"

// ErrPermissionDenied indicates the actor lacks the required rank for an
// action. Handlers surface it as a specific, blocking message.
var ErrPermissionDenied = errors.New("rbac: permission denied")

// PermissionSet is a capability snapshot resolved from an actor at a single
// point in time. It is never cached across actions: a role can change
// between calls, so every decision re-resolves from the latest actor.
type PermissionSet struct {
	CanCreate           bool `json:"can_create"`
	CanModerate         bool `json:"can_moderate"`
	CanManageUsers      bool `json:"can_manage_users"`
	CanManageCategories bool `json:"can_manage_categories"`
	CanViewDashboard    bool `json:"can_view_dashboard"`
}

// Resolve evaluates every permission predicate against the actor.
func Resolve(actor Actor) PermissionSet {
	return PermissionSet{
		CanCreate:           CanCreatePost(actor),
		CanModerate:         CanModeratePosts(actor),
		CanManageUsers:      CanManageUsers(actor),
		CanManageCategories: CanManageCategories(actor),
		CanViewDashboard:    CanViewDashboard(actor),
	}
}

// CanCreatePost reports whether the actor may create content. A verified
// writer is the baseline; admin-rank actors bypass the verification gate
// entirely and are never blocked by verification state.
func CanCreatePost(actor Actor) bool {
	if !actor.Authenticated {
		return false
	}
	if actor.Role.AtLeast(RoleAdmin) {
		return true
	}
	return actor.Role.AtLeast(RoleWriter) && actor.EmailVerified
}

// CanModeratePosts reports whether the actor may approve or reject posts.
func CanModeratePosts(actor Actor) bool {
	return actor.Authenticated && actor.Role.AtLeast(RoleAdmin)
}

// CanManageUsers reports whether the actor may administer user accounts.
func CanManageUsers(actor Actor) bool {
	return actor.Authenticated && actor.Role.AtLeast(RoleAdmin)
}

// CanManageCategories reports whether the actor may administer categories.
func CanManageCategories(actor Actor) bool {
	return actor.Authenticated && actor.Role.AtLeast(RoleAdmin)
}

// CanEditOrDelete reports whether the actor may modify the post owned by
// authorID: the owner may, and so may any admin-rank actor.
func CanEditOrDelete(actor Actor, authorID int64) bool {
	if !actor.Authenticated {
		return false
	}
	return actor.ID == authorID || actor.Role.AtLeast(RoleAdmin)
}

// CanViewDashboard requires only an authenticated session.
func CanViewDashboard(actor Actor) bool {
	return actor.Authenticated
}

// CanChangeRole reports whether the actor may change the role of a user
// currently holding targetRole. Nobody may modify a super_admin, and
// changing an admin-rank account requires super_admin.
func CanChangeRole(actor Actor, targetRole Role) bool {
	if !CanManageUsers(actor) {
		return false
	}
	if targetRole == RoleSuperAdmin {
		return false
	}
	if targetRole.AtLeast(RoleAdmin) {
		return actor.Role == RoleSuperAdmin
	}
	return true
}
