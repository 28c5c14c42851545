package rbac

// Role identifies a tier on the fixed role ladder.
type Role string

// Ladder roles, lowest to highest. RoleSuperAdmin sits outside the linear
// ladder as a sentinel that outranks everything and bypasses the
// email-verification gate applied to admin and below.
const (
	RoleReader     Role = "reader"
	RoleUser       Role = "user"
	RoleWriter     Role = "writer"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Rank returns the total-order position of the role. Unknown roles rank 0
// so that a corrupted or unrecognised value can never grant access.
func (r Role) Rank() int {
	switch r {
	case RoleReader:
		return 10
	case RoleUser:
		return 20
	case RoleWriter:
		return 30
	case RoleAdmin:
		return 40
	case RoleSuperAdmin:
		return 100
	default:
		return 0
	}
}

// AtLeast reports whether r meets or exceeds the required tier. It returns
// false when either side is unknown: absence of a recognised role must never
// imply elevated trust.
func (r Role) AtLeast(required Role) bool {
	requiredRank := required.Rank()
	if requiredRank == 0 {
		return false
	}
	return r.Rank() >= requiredRank
}

// ParseRole maps a stored string onto a ladder role. The second return is
// false for anything not on the ladder; callers treat that as deny.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleReader, RoleUser, RoleWriter, RoleAdmin, RoleSuperAdmin:
		return Role(raw), true
	default:
		return "", false
	}
}

// Actor is the resolved identity a permission decision is evaluated against.
// It is always passed explicitly into resolver, lifecycle and engagement
// calls; the core never reads it from ambient state. Role changes made by an
// administrator take effect on the next request because the actor is
// re-resolved from storage every time.
type Actor struct {
	ID            int64
	Name          string
	Role          Role
	Authenticated bool
	EmailVerified bool
}
