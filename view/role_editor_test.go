package view_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skylineops/costview/apiclient"
	"github.com/skylineops/costview/users"
	"github.com/skylineops/costview/view"
)

type roleBackend struct {
	server *httptest.Server

	status   int
	detail   string
	lastBody string
	requests int
}

func setupRoleBackend(t *testing.T) *roleBackend {
	t.Helper()

	b := &roleBackend{status: http.StatusOK}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.requests++
		var role string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&role))
		b.lastBody = role

		w.Header().Set("Content-Type", "application/json")
		if b.status != http.StatusOK {
			w.WriteHeader(b.status)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": b.detail})
			return
		}
		_ = json.NewEncoder(w).Encode(users.User{
			ID:    42,
			Email: "jane.doe@example.com",
			Roles: []users.Role{{Name: role}},
		})
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *roleBackend) editor(refresh func()) *view.RoleEditor {
	api := apiclient.New(b.server.URL, staticTokens{token: "access-abc"})
	return view.NewRoleEditor(api, 42, users.RoleBasicUser, refresh)
}

// staticTokens is a fixed-token source for driving the client in tests.
type staticTokens struct {
	token string
}

func (s staticTokens) AccessToken(context.Context) (string, error) {
	return s.token, nil
}

func TestRoleEditor_SuccessfulChange(t *testing.T) {
	backend := setupRoleBackend(t)

	var refreshes int
	editor := backend.editor(func() { refreshes++ })

	err := editor.Submit(context.Background(), users.RoleAdmin)
	require.NoError(t, err)

	require.Equal(t, users.RoleAdmin, editor.Selected())
	require.Empty(t, editor.Err())
	require.Equal(t, 1, refreshes)
	// The request body is the bare role-name string.
	require.Equal(t, users.RoleAdmin, backend.lastBody)
}

func TestRoleEditor_ForbiddenRevertsSelection(t *testing.T) {
	backend := setupRoleBackend(t)
	backend.status = http.StatusForbidden
	backend.detail = "Not authorized"

	var refreshes int
	editor := backend.editor(func() { refreshes++ })

	err := editor.Submit(context.Background(), users.RoleAdmin)
	require.Error(t, err)

	require.Equal(t, users.RoleBasicUser, editor.Selected())
	require.Equal(t, "Not authorized", editor.Err())
	require.Zero(t, refreshes)
}

func TestRoleEditor_UnknownRoleKeepsBackendMessage(t *testing.T) {
	backend := setupRoleBackend(t)
	backend.status = http.StatusUnprocessableEntity
	backend.detail = "Invalid role: ROLE_WIZARD"

	editor := backend.editor(nil)

	err := editor.Submit(context.Background(), "ROLE_WIZARD")
	require.Error(t, err)
	require.Equal(t, "Invalid role: ROLE_WIZARD", editor.Err())
	require.Equal(t, users.RoleBasicUser, editor.Selected())
}

func TestRoleEditor_ErrorClearedOnSuccess(t *testing.T) {
	backend := setupRoleBackend(t)
	backend.status = http.StatusForbidden
	backend.detail = "Not authorized"
	editor := backend.editor(nil)

	require.Error(t, editor.Submit(context.Background(), users.RoleAdmin))
	require.NotEmpty(t, editor.Err())

	backend.status = http.StatusOK
	require.NoError(t, editor.Submit(context.Background(), users.RoleAdmin))
	require.Empty(t, editor.Err())
}
