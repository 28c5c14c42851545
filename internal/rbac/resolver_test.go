package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func verifiedActor(role Role) Actor {
	return Actor{ID: 7, Name: "tester", Role: role, Authenticated: true, EmailVerified: true}
}

func TestRankOrdering(t *testing.T) {
	require.Less(t, RoleReader.Rank(), RoleUser.Rank())
	require.Less(t, RoleUser.Rank(), RoleWriter.Rank())
	require.Less(t, RoleWriter.Rank(), RoleAdmin.Rank())
	require.Less(t, RoleAdmin.Rank(), RoleSuperAdmin.Rank())
	require.Equal(t, 0, Role("owner").Rank())
	require.Equal(t, 0, Role("").Rank())
}

func TestAtLeastUnknownNeverGrants(t *testing.T) {
	require.False(t, Role("owner").AtLeast(RoleReader))
	require.False(t, RoleSuperAdmin.AtLeast(Role("owner")))
	require.False(t, Role("").AtLeast(Role("")))
}

// Granting a permission at one tier must grant it at every higher tier.
func TestPermissionsAreMonotonic(t *testing.T) {
	ladder := []Role{RoleReader, RoleUser, RoleWriter, RoleAdmin, RoleSuperAdmin}
	checks := map[string]func(Actor) bool{
		"create":            CanCreatePost,
		"moderate":          CanModeratePosts,
		"manage_users":      CanManageUsers,
		"manage_categories": CanManageCategories,
		"dashboard":         CanViewDashboard,
	}
	for name, check := range checks {
		granted := false
		for _, role := range ladder {
			got := check(verifiedActor(role))
			if granted {
				require.True(t, got, "%s lost at %s", name, role)
			}
			granted = granted || got
		}
	}
}

func TestCanCreatePostVerificationGate(t *testing.T) {
	unverifiedWriter := verifiedActor(RoleWriter)
	unverifiedWriter.EmailVerified = false
	require.False(t, CanCreatePost(unverifiedWriter))
	require.True(t, CanCreatePost(verifiedActor(RoleWriter)))

	// Admin rank bypasses the verification gate entirely.
	unverifiedAdmin := verifiedActor(RoleAdmin)
	unverifiedAdmin.EmailVerified = false
	require.True(t, CanCreatePost(unverifiedAdmin))

	unverifiedSuper := verifiedActor(RoleSuperAdmin)
	unverifiedSuper.EmailVerified = false
	require.True(t, CanCreatePost(unverifiedSuper))

	require.False(t, CanCreatePost(verifiedActor(RoleUser)))
	require.False(t, CanCreatePost(Actor{Role: RoleWriter, EmailVerified: true}))
}

func TestUnknownRoleDeniesEverything(t *testing.T) {
	actor := verifiedActor(Role("owner"))
	require.False(t, CanCreatePost(actor))
	require.False(t, CanModeratePosts(actor))
	require.False(t, CanManageUsers(actor))
	require.False(t, CanManageCategories(actor))
	// Dashboard needs only authentication.
	require.True(t, CanViewDashboard(actor))
}

func TestCanEditOrDelete(t *testing.T) {
	author := verifiedActor(RoleWriter)
	require.True(t, CanEditOrDelete(author, author.ID))
	require.False(t, CanEditOrDelete(author, author.ID+1))
	require.True(t, CanEditOrDelete(verifiedActor(RoleAdmin), author.ID+1))
	require.False(t, CanEditOrDelete(Actor{ID: 7}, 7))
}

func TestCanChangeRole(t *testing.T) {
	admin := verifiedActor(RoleAdmin)
	super := verifiedActor(RoleSuperAdmin)

	// Nobody touches a super_admin.
	require.False(t, CanChangeRole(admin, RoleSuperAdmin))
	require.False(t, CanChangeRole(super, RoleSuperAdmin))

	// Changing an admin-rank account requires super_admin.
	require.False(t, CanChangeRole(admin, RoleAdmin))
	require.True(t, CanChangeRole(super, RoleAdmin))

	require.True(t, CanChangeRole(admin, RoleWriter))
	require.False(t, CanChangeRole(verifiedActor(RoleWriter), RoleReader))
}

func TestResolveSnapshot(t *testing.T) {
	perms := Resolve(verifiedActor(RoleAdmin))
	require.True(t, perms.CanCreate)
	require.True(t, perms.CanModerate)
	require.True(t, perms.CanManageUsers)
	require.True(t, perms.CanManageCategories)
	require.True(t, perms.CanViewDashboard)

	anon := Resolve(Actor{})
	require.False(t, anon.CanCreate)
	require.False(t, anon.CanViewDashboard)
}
