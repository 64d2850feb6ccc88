package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/http/middleware"
)

type stubResolver struct {
	user *domain.User
	err  error
}

func (s *stubResolver) UserFromToken(_ context.Context, _ string) (*domain.User, error) {
	return s.user, s.err
}

func okHandler(t *testing.T, sawUser **domain.User) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*sawUser = middleware.CurrentUser(r)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthWithoutToken(t *testing.T) {
	var seen *domain.User
	h := middleware.RequireAuth(&stubResolver{})(okHandler(t, &seen))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var env struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Status != "fail" || env.Message == "" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestRequireAuthBearerHeader(t *testing.T) {
	var seen *domain.User
	resolver := &stubResolver{user: &domain.User{ID: 7, Role: domain.RoleUser}}
	h := middleware.RequireAuth(resolver)(okHandler(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen == nil || seen.ID != 7 {
		t.Errorf("user not stored on context: %+v", seen)
	}
}

func TestRequireAuthCookieFallback(t *testing.T) {
	var seen *domain.User
	resolver := &stubResolver{user: &domain.User{ID: 9}}
	h := middleware.RequireAuth(resolver)(okHandler(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "sometoken"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || seen == nil || seen.ID != 9 {
		t.Errorf("cookie token not accepted: code=%d user=%+v", rec.Code, seen)
	}
}

func TestRequireAuthResolverError(t *testing.T) {
	var seen *domain.User
	resolver := &stubResolver{err: domain.ErrAuthentication("Invalid token. Please log in again!")}
	h := middleware.RequireAuth(resolver)(okHandler(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if seen != nil {
		t.Error("handler must not run on auth failure")
	}
}

func TestRestrictTo(t *testing.T) {
	var seen *domain.User
	resolver := &stubResolver{user: &domain.User{ID: 1, Role: domain.RoleUser}}
	h := middleware.RequireAuth(resolver)(
		middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide)(okHandler(t, &seen)))

	req := httptest.NewRequest(http.MethodDelete, "/tours/1", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for plain user, got %d", rec.Code)
	}

	resolver.user.Role = domain.RoleAdmin
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected admin to pass, got %d", rec.Code)
	}
}
