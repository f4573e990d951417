package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rpggio/motherai/internal/domain/user"
	"github.com/rpggio/motherai/internal/telemetry"
	"github.com/rpggio/motherai/internal/tokenstore"
	"github.com/stretchr/testify/require"
)

type recordingNavigator struct {
	calls  atomic.Int32
	reason atomic.Value
}

func (n *recordingNavigator) RedirectToLogin(_ context.Context, reason string) {
	n.calls.Add(1)
	n.reason.Store(reason)
}

func newTestGateway(t *testing.T, handler http.HandlerFunc) (*Gateway, *tokenstore.Memory, *recordingNavigator) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := tokenstore.NewMemory()
	nav := &recordingNavigator{}
	gw := New(store, Options{BaseURL: srv.URL, Navigator: nav, Metrics: telemetry.New()})
	return gw, store, nav
}

func seed(t *testing.T, store tokenstore.Store) {
	t.Helper()
	err := store.SetSession(context.Background(), tokenstore.Session{
		AccessToken:  "token-1",
		RefreshToken: "refresh-1",
		User:         &user.User{ID: "u1", Status: user.StatusApproved},
	})
	require.NoError(t, err)
}

func TestDo_InjectsBearerAndRequestID(t *testing.T) {
	var gotAuth, gotID, gotPath string
	gw, store, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotID = r.Header.Get("X-Request-ID")
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "demo"})
	})
	seed(t, store)

	var out struct{ Name string }
	err := gw.Do(context.Background(), http.MethodGet, "/projects", nil, &out)
	require.NoError(t, err)
	require.Equal(t, "Bearer token-1", gotAuth)
	require.NotEmpty(t, gotID)
	require.Equal(t, "/api/v1/projects", gotPath)
	require.Equal(t, "demo", out.Name)
}

func TestDo_NoTokenSendsUnauthenticated(t *testing.T) {
	var gotAuth string
	gw, _, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, gw.Do(context.Background(), http.MethodGet, "/projects", nil, nil))
	require.Empty(t, gotAuth)
}

func TestDo_UnauthorizedClearsSessionAndRedirects(t *testing.T) {
	gw, store, nav := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Token expired"}`))
	})
	seed(t, store)

	err := gw.Do(context.Background(), http.MethodGet, "/projects", nil, nil)
	require.ErrorIs(t, err, ErrUnauthorized)

	sess, loadErr := store.Load(context.Background())
	require.NoError(t, loadErr)
	require.True(t, sess.Empty())
	require.Equal(t, int32(1), nav.calls.Load())
	require.Equal(t, "Token expired", nav.reason.Load())
}

func TestDo_UnauthorizedOnAuthPathPassesThrough(t *testing.T) {
	gw, store, nav := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid email or password"}`))
	})
	seed(t, store)

	for _, path := range []string{"/auth/login", "/auth/register", "/auth/refresh", "/auth/logout"} {
		err := gw.Do(context.Background(), http.MethodPost, path, map[string]string{}, nil)
		require.ErrorIs(t, err, ErrUnauthorized)

		var se *StatusError
		require.True(t, errors.As(err, &se))
		require.Equal(t, "Invalid email or password", se.Detail)
	}

	sess, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-1", sess.AccessToken)
	require.Zero(t, nav.calls.Load())
}

func TestDo_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusInternalServerError, ErrServer},
		{http.StatusBadGateway, ErrServer},
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusConflict, ErrBadRequest},
	}

	for _, tc := range cases {
		gw, store, nav := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		seed(t, store)

		err := gw.Do(context.Background(), http.MethodGet, "/projects/p1", nil, nil)
		require.ErrorIs(t, err, tc.want, "status %d", tc.status)
		require.Equal(t, tc.status, StatusCode(err))

		sess, loadErr := store.Load(context.Background())
		require.NoError(t, loadErr)
		require.Equal(t, "token-1", sess.AccessToken, "status %d must not touch the session", tc.status)
		require.Zero(t, nav.calls.Load())
	}
}

func TestDo_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	gw := New(tokenstore.NewMemory(), Options{BaseURL: url})
	err := gw.Do(context.Background(), http.MethodGet, "/projects", nil, nil)
	require.ErrorIs(t, err, ErrTransport)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, "/projects", te.Path)
}

func TestReadDetail(t *testing.T) {
	cases := map[string]string{
		`{"detail":"Email already registered"}`:                    "Email already registered",
		`{"detail":[{"msg":"field required"},{"msg":"too short"}]}`: "field required; too short",
		`{"message":"boom"}`:                                       "boom",
		`plain text failure`:                                       "plain text failure",
		``:                                                         "",
		`{"detail":{"code":"x"}}`:                                  `{"code":"x"}`,
	}
	for body, want := range cases {
		require.Equal(t, want, readDetail(strings.NewReader(body)), body)
	}
}

func TestOpenStream_ReturnsBodyOnSuccess(t *testing.T) {
	gw, store, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"type\":\"start\"}\n\n"))
	})
	seed(t, store)

	resp, err := gw.OpenStream(context.Background(), "/projects/p1/messages", map[string]any{"content": "hi", "phase": 1})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOpenStream_ErrorCarriesDetail(t *testing.T) {
	gw, store, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Invalid phase"}`))
	})
	seed(t, store)

	_, err := gw.OpenStream(context.Background(), "/projects/p1/messages", map[string]any{"content": "hi"})
	require.ErrorIs(t, err, ErrBadRequest)
	require.Contains(t, err.Error(), "Invalid phase")
}
