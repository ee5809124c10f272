package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skylineops/costview/apiclient"
	"github.com/skylineops/costview/session"
)

// staticTokens is a TokenSource returning a fixed token or error.
type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) AccessToken(context.Context) (string, error) {
	return s.token, s.err
}

type recordingBackend struct {
	server *httptest.Server

	requests    int
	lastMethod  string
	lastPath    string
	lastAuth    string
	lastBody    []byte
	respStatus  int
	respPayload any
}

func setupBackend(t *testing.T) *recordingBackend {
	t.Helper()

	b := &recordingBackend{respStatus: http.StatusOK, respPayload: map[string]string{"message": "ok"}}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.requests++
		b.lastMethod = r.Method
		b.lastPath = r.URL.Path
		b.lastAuth = r.Header.Get("Authorization")
		b.lastBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(b.respStatus)
		_ = json.NewEncoder(w).Encode(b.respPayload)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func TestCall_SetsBearerHeader(t *testing.T) {
	backend := setupBackend(t)
	client := apiclient.New(backend.server.URL, staticTokens{token: "access-abc"})

	body, err := client.Call(context.Background(), http.MethodGet, "/api/users/me", nil)
	require.NoError(t, err)
	require.NotEmpty(t, body)
	require.Equal(t, "Bearer access-abc", backend.lastAuth)
	require.Equal(t, "/api/users/me", backend.lastPath)
}

func TestCall_TokenFailureAbortsBeforeNetwork(t *testing.T) {
	backend := setupBackend(t)
	tokenErr := &session.AuthError{Reason: "unauthenticated"}
	client := apiclient.New(backend.server.URL, staticTokens{err: tokenErr})

	_, err := client.Call(context.Background(), http.MethodGet, "/api/protected", nil)

	var authErr *session.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Zero(t, backend.requests)
}

func TestCall_NonSuccessStatusIsHTTPError(t *testing.T) {
	backend := setupBackend(t)
	backend.respStatus = http.StatusForbidden
	backend.respPayload = map[string]string{"detail": "Not authorized"}
	client := apiclient.New(backend.server.URL, staticTokens{token: "access-abc"})

	_, err := client.Call(context.Background(), http.MethodGet, "/api/users", nil)

	var httpErr *apiclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusForbidden, httpErr.Status)
	require.Equal(t, "Not authorized", httpErr.Message())
}

func TestCall_TransportFailureIsNetworkError(t *testing.T) {
	backend := setupBackend(t)
	backend.server.Close()
	client := apiclient.New(backend.server.URL, staticTokens{token: "access-abc"})

	_, err := client.Call(context.Background(), http.MethodGet, "/api/users", nil)

	var netErr *apiclient.NetworkError
	require.ErrorAs(t, err, &netErr)

	var httpErr *apiclient.HTTPError
	require.False(t, errors.As(err, &httpErr))
}

func TestPut_SendsBodyAndDecodesResponse(t *testing.T) {
	backend := setupBackend(t)
	backend.respPayload = map[string]any{"id": 42, "email": "jane.doe@example.com"}
	client := apiclient.New(backend.server.URL, staticTokens{token: "access-abc"})

	var out struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	}
	err := client.Put(context.Background(), "/api/users/42/role", "ROLE_ADMIN", &out)
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, backend.lastMethod)
	require.JSONEq(t, `"ROLE_ADMIN"`, string(backend.lastBody))
	require.Equal(t, int64(42), out.ID)
}

func TestHTTPError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  apiclient.HTTPError
		want string
	}{
		{"detail field", apiclient.HTTPError{Status: 404, Body: []byte(`{"detail":"User not found"}`)}, "User not found"},
		{"error field", apiclient.HTTPError{Status: 400, Body: []byte(`{"error":"bad request"}`)}, "bad request"},
		{"plain body", apiclient.HTTPError{Status: 502, Body: []byte("upstream down")}, "upstream down"},
		{"empty body", apiclient.HTTPError{Status: 500}, "request failed with status 500"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.err.Message())
		})
	}
}
