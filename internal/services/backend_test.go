package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/TushxrTxndon/CampusBazaar/internal/gateway"
	"github.com/TushxrTxndon/CampusBazaar/internal/models"
	"github.com/TushxrTxndon/CampusBazaar/internal/store"
	"github.com/stretchr/testify/require"
)

// fakeBackend records every request and answers from registered routes
type fakeBackend struct {
	mu     sync.Mutex
	mux    *http.ServeMux
	calls  []string
	bodies map[string][]json.RawMessage
}

func newFakeBackend(t *testing.T) (*fakeBackend, *gateway.Client) {
	t.Helper()
	fb := &fakeBackend{mux: http.NewServeMux(), bodies: make(map[string][]json.RawMessage)}
	srv := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(srv.Close)

	gw, err := gateway.New(srv.URL, gateway.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return fb, gw
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	fb.mu.Lock()
	fb.calls = append(fb.calls, key)
	if r.Header.Get("Content-Type") == "application/json" {
		var raw json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err == nil {
			fb.bodies[key] = append(fb.bodies[key], raw)
		}
	}
	fb.mu.Unlock()
	fb.mux.ServeHTTP(w, r)
}

func (fb *fakeBackend) handle(pattern string, status int, body any) {
	fb.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
}

func (fb *fakeBackend) Calls() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.calls...)
}

func (fb *fakeBackend) Body(t *testing.T, key string, i int, v any) {
	t.Helper()
	fb.mu.Lock()
	defer fb.mu.Unlock()
	require.Greater(t, len(fb.bodies[key]), i, "no body %d for %s", i, key)
	require.NoError(t, json.Unmarshal(fb.bodies[key][i], v))
}

func loggedInSession(t *testing.T, email string) *SessionService {
	t.Helper()
	s := newSession(store.NewMemoryBackend())
	s.Restore(context.Background())
	_, err := s.Login(context.Background(), models.UserProfile{EmailID: email, FirstName: "Test"})
	require.NoError(t, err)
	return s
}
