package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"safewarner/internal/service"
)

func TestUserIdMiddleware(t *testing.T) {
	auth := &mockAuth{parseID: 9}
	mon := &mockMonitoring{mode: "MANUAL"}
	s := &service.Service{Authorization: auth, Monitoring: mon}
	r := newTestRouter(s)

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session/status", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status=%d, want 401", w.Code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session/status", nil)
		req.Header.Set("Authorization", "Basic abc123")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status=%d, want 401", w.Code)
		}
	})

	t.Run("empty bearer token", func(t *testing.T) {
		before := auth.lastParseToken
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session/status", nil)
		req.Header.Set("Authorization", "Bearer ")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status=%d, want 401", w.Code)
		}
		if auth.lastParseToken != before {
			t.Fatal("empty token should be rejected before parsing")
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		auth.parseErr = errors.New("expired")
		defer func() { auth.parseErr = nil }()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session/status", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status=%d, want 401", w.Code)
		}
	})

	t.Run("valid token passes through", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session/status", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d, want 200", w.Code)
		}
		if auth.lastParseToken != "good-token" {
			t.Fatalf("token passed = %q", auth.lastParseToken)
		}
	})
}
