package view_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skylineops/costview/session"
)

const (
	testTimeout = 2 * time.Second
	testTick    = 5 * time.Millisecond
)

// authenticate drives a full sign-in round trip against the fake provider.
func authenticate(t *testing.T, store *session.Store) {
	t.Helper()

	authURL := store.SignIn("/")
	req := httptest.NewRequest("GET", authURL, nil)
	_, err := store.HandleCallback(context.Background(), req.URL.Query().Get("state"), "code")
	require.NoError(t, err)
}
