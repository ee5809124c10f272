package fakeuserrepo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/skylineops/costview/internal/errors"
	"github.com/skylineops/costview/users"
	fakeuserrepo "github.com/skylineops/costview/users/repofake"
)

func TestProvision_FirstLoginCreatesBasicUser(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()

	user, err := repo.Provision(context.Background(), "sub-0001", "jane.doe@example.com", "Jane Doe")
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.True(t, user.IsActive)
	require.Equal(t, []string{users.RoleBasicUser}, user.RoleNames())
}

func TestProvision_ExistingUserSyncsDrift(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()

	first, err := repo.Provision(context.Background(), "sub-0001", "old@example.com", "Jane Doe")
	require.NoError(t, err)

	second, err := repo.Provision(context.Background(), "sub-0001", "new@example.com", "Jane D. Doe")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "new@example.com", second.Email)
	require.Equal(t, "Jane D. Doe", second.FullName)

	// The old email no longer resolves.
	_, err = repo.GetByEmail(context.Background(), "old@example.com")
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestSetRole_ReplacesAssignments(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	user, err := repo.Provision(context.Background(), "sub-0001", "jane.doe@example.com", "")
	require.NoError(t, err)

	updated, err := repo.SetRole(context.Background(), user.ID, users.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, []string{users.RoleAdmin}, updated.RoleNames())
}

func TestSetRole_UnknownRole(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	user, err := repo.Provision(context.Background(), "sub-0001", "jane.doe@example.com", "")
	require.NoError(t, err)

	_, err = repo.SetRole(context.Background(), user.ID, "ROLE_WIZARD")
	require.ErrorIs(t, err, apperrors.ErrInvalidRole)
}

func TestSetRole_UserNotFound(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()

	_, err := repo.SetRole(context.Background(), 99, users.RoleAdmin)
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestList_SortedByID(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	repo.Seed(&users.User{ID: 7, ExternalID: "sub-7", Email: "seven@example.com"})
	repo.Seed(&users.User{ID: 3, ExternalID: "sub-3", Email: "three@example.com"})

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, int64(3), list[0].ID)
	require.Equal(t, int64(7), list[1].ID)
}

func TestGetByID_ReturnsCopy(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	seeded := repo.Seed(&users.User{ExternalID: "sub-1", Email: "one@example.com", Roles: []users.Role{{ID: 1, Name: users.RoleBasicUser}}})

	got, err := repo.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)

	got.Roles[0].Name = "mutated"
	again, err := repo.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, users.RoleBasicUser, again.Roles[0].Name)
}
