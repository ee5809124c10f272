package users_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skylineops/costview/users"
)

func TestKnownRole(t *testing.T) {
	require.True(t, users.KnownRole(users.RoleBasicUser))
	require.True(t, users.KnownRole(users.RoleAdmin))
	require.False(t, users.KnownRole("ROLE_WIZARD"))
	require.False(t, users.KnownRole(""))
	require.False(t, users.KnownRole("role_admin"))
}

func TestUser_RoleHelpers(t *testing.T) {
	admin := users.User{Roles: []users.Role{
		{ID: 1, Name: users.RoleBasicUser},
		{ID: 2, Name: users.RoleAdmin},
	}}
	basic := users.User{Roles: []users.Role{{ID: 1, Name: users.RoleBasicUser}}}

	require.True(t, admin.IsAdmin())
	require.False(t, basic.IsAdmin())
	require.True(t, basic.HasRole(users.RoleBasicUser))
	require.False(t, basic.HasRole(users.RoleAdmin))
	require.Equal(t, []string{users.RoleBasicUser, users.RoleAdmin}, admin.RoleNames())
	require.Empty(t, users.User{}.RoleNames())
}
