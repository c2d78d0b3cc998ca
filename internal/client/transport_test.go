package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gaprio/auth-service/internal/client/credentials"
	"github.com/gaprio/auth-service/internal/models"
)

// authServer is a fake auth backend: /protected accepts only the tokens in
// accept, /auth/refresh-token exchanges refreshToken for nextAccess.
type authServer struct {
	mu            sync.Mutex
	accept        map[string]bool
	refreshWith   string
	nextAccess    string
	alwaysReject  bool
	refreshFails  bool
	refreshDelay  time.Duration
	refreshCalls  atomic.Int64
	protectedHits atomic.Int64
	lastBearer    string
}

func (s *authServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/protected", func(w http.ResponseWriter, r *http.Request) {
		s.protectedHits.Add(1)
		token := bearer(r)
		s.mu.Lock()
		s.lastBearer = token
		ok := s.accept[token] && !s.alwaysReject
		s.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls.Add(1)
		if s.refreshDelay > 0 {
			time.Sleep(s.refreshDelay)
		}
		var req models.RefreshTokenRequest
		json.NewDecoder(r.Body).Decode(&req)
		if s.refreshFails || req.RefreshToken != s.refreshWith {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"reason": "invalid or expired refresh token"})
			return
		}
		s.mu.Lock()
		s.accept[s.nextAccess] = true
		s.mu.Unlock()
		json.NewEncoder(w).Encode(models.DataEnvelope[models.AccessTokenResponse]{
			Data: models.AccessTokenResponse{AccessToken: s.nextAccess},
		})
	})
	return mux
}

func bearer(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

func newPipeline(t *testing.T, srv *httptest.Server, store credentials.Store, onLogout func()) *http.Client {
	t.Helper()
	return &http.Client{
		Transport: NewTransport(store, srv.URL+"/auth/refresh-token", onLogout),
	}
}

func get(t *testing.T, c *http.Client, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestTransportAttachesBearerToken(t *testing.T) {
	backend := &authServer{accept: map[string]bool{"T1": true}}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(credentials.Session{AccessToken: "T1", RefreshToken: "R1"}))

	c := newPipeline(t, srv, store, nil)
	resp := get(t, c, srv.URL+"/protected")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "T1", backend.lastBearer)
	require.EqualValues(t, 0, backend.refreshCalls.Load())
}

func TestTransportRefreshesAndRetriesOnceOnFirstUnauthorized(t *testing.T) {
	backend := &authServer{
		accept:      map[string]bool{}, // T1 is already expired
		refreshWith: "R1",
		nextAccess:  "T2",
	}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(credentials.Session{AccessToken: "T1", RefreshToken: "R1"}))

	c := newPipeline(t, srv, store, nil)
	resp := get(t, c, srv.URL+"/protected")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 1, backend.refreshCalls.Load())
	require.EqualValues(t, 2, backend.protectedHits.Load())
	require.Equal(t, "T2", backend.lastBearer)

	// Access token updated, refresh token untouched.
	session, ok := store.Get()
	require.True(t, ok)
	require.Equal(t, "T2", session.AccessToken)
	require.Equal(t, "R1", session.RefreshToken)
}

func TestTransportDoesNotRefreshTwiceForOneRequest(t *testing.T) {
	// Refresh succeeds but the retried request is rejected again: the
	// second 401 must pass through without another refresh cycle.
	backend := &authServer{
		accept:       map[string]bool{},
		refreshWith:  "R1",
		nextAccess:   "T2",
		alwaysReject: true,
	}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(credentials.Session{AccessToken: "T1", RefreshToken: "R1"}))

	logouts := 0
	c := newPipeline(t, srv, store, func() { logouts++ })

	resp := get(t, c, srv.URL+"/protected")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.EqualValues(t, 1, backend.refreshCalls.Load())
	require.EqualValues(t, 2, backend.protectedHits.Load())
	require.Equal(t, 0, logouts)
}

func TestTransportEachLogicalRequestGetsOwnRefreshCycle(t *testing.T) {
	backend := &authServer{
		accept:      map[string]bool{},
		refreshWith: "R1",
		nextAccess:  "T2",
	}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(credentials.Session{AccessToken: "T1", RefreshToken: "R1"}))

	c := newPipeline(t, srv, store, nil)

	// First request: 401 -> refresh -> retry with T2 succeeds.
	resp := get(t, c, srv.URL+"/protected")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Server revokes T2 behind our back; next request 401s, refresh is
	// attempted once more (new logical request), retried once, done.
	backend.mu.Lock()
	delete(backend.accept, "T2")
	backend.nextAccess = "T3"
	backend.mu.Unlock()

	resp = get(t, c, srv.URL+"/protected")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 2, backend.refreshCalls.Load())
}

func TestTransportNoRefreshTokenClearsSessionWithoutRefreshCall(t *testing.T) {
	backend := &authServer{accept: map[string]bool{}}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(credentials.Session{AccessToken: "T1"}))

	logouts := 0
	c := newPipeline(t, srv, store, func() { logouts++ })
	resp := get(t, c, srv.URL+"/protected")

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.EqualValues(t, 0, backend.refreshCalls.Load())
	require.Equal(t, 1, logouts)

	_, ok := store.Get()
	require.False(t, ok)
}

func TestTransportFailedRefreshClearsSessionAndSignalsLogout(t *testing.T) {
	backend := &authServer{
		accept:       map[string]bool{},
		refreshWith:  "R1",
		refreshFails: true,
	}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(credentials.Session{AccessToken: "T1", RefreshToken: "R1"}))

	logouts := 0
	c := newPipeline(t, srv, store, func() { logouts++ })
	resp := get(t, c, srv.URL+"/protected")

	// The original unauthorized response is surfaced, both tokens are
	// gone and the logout hook fired.
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 1, logouts)

	session, ok := store.Get()
	require.False(t, ok)
	require.Empty(t, session.AccessToken)
	require.Empty(t, session.RefreshToken)
}

func TestTransportNonUnauthorizedStatusesPassThrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/teapot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(credentials.Session{AccessToken: "T1", RefreshToken: "R1"}))

	c := newPipeline(t, srv, store, nil)
	resp := get(t, c, srv.URL+"/teapot")

	require.Equal(t, http.StatusTeapot, resp.StatusCode)
	session, _ := store.Get()
	require.Equal(t, "T1", session.AccessToken)
}

func TestTransportCoalescesConcurrentRefreshes(t *testing.T) {
	backend := &authServer{
		accept:       map[string]bool{},
		refreshWith:  "R1",
		nextAccess:   "T2",
		refreshDelay: 50 * time.Millisecond,
	}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(credentials.Session{AccessToken: "T1", RefreshToken: "R1"}))

	c := newPipeline(t, srv, store, nil)

	const concurrent = 8
	var wg sync.WaitGroup
	statuses := make([]int, concurrent)
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			statuses[i] = get(t, c, srv.URL+"/protected").StatusCode
		}(i)
	}
	wg.Wait()

	for _, status := range statuses {
		require.Equal(t, http.StatusOK, status)
	}
	require.EqualValues(t, 1, backend.refreshCalls.Load())

	session, _ := store.Get()
	require.Equal(t, "T2", session.AccessToken)
	require.Equal(t, "R1", session.RefreshToken)
}
