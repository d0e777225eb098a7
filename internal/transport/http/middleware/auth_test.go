package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"earnedpay/internal/domain/auth"
	"earnedpay/internal/identity"
)

type roleTable map[string]string

func (t roleTable) Role(_ context.Context, uid string) (string, error) {
	if uid == "broken" {
		return "", errors.New("db down")
	}
	role, ok := t[uid]
	if !ok {
		return "", auth.ErrUserNotFound
	}
	return role, nil
}

func bearer(t *testing.T, secret, uid string) string {
	t.Helper()
	token, err := identity.Mint(secret, identity.Claims{UID: uid, PhoneNumber: "+919876543210"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	return "Bearer " + token
}

func TestAuthMiddlewareSetsUser(t *testing.T) {
	secret := "test-secret"
	called := false
	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		user, ok := GetUser(r.Context())
		if !ok {
			t.Fatal("expected user in context")
		}
		if user.UID != "u1" || user.PhoneNumber != "+919876543210" || user.Role != "" {
			t.Fatalf("unexpected user: %+v", user)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, secret, "u1"))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatal("expected handler to run")
	}
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("did not expect user in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestRequireIdentityReportsReason(t *testing.T) {
	handler := Auth("secret")(RequireIdentity(noContent()))

	cases := []struct {
		header string
		want   string
	}{
		{"", "Missing authorization header"},
		{"Token abc", "Invalid authorization header format"},
		{"Bearer not-a-jwt", "Invalid or expired token"},
		{bearer(t, "other", "x"), "Invalid or expired token"},
	}
	for _, c := range cases {
		header, want := c.header, c.want
		req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-token", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%q: expected 401, got %d", header, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("%q: expected detail %q, got %s", header, want, rec.Body.String())
		}
	}
}

func TestRequireUserResolvesRole(t *testing.T) {
	secret := "test-secret"
	roles := roleTable{"w1": auth.RoleWorker}
	var seen auth.Principal
	handler := Auth(secret)(RequireUser(roles)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUser(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/workers/me", nil)
	req.Header.Set("Authorization", bearer(t, secret, "w1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || seen.Role != auth.RoleWorker {
		t.Fatalf("expected worker principal, got %d %+v", rec.Code, seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/workers/me", nil)
	req.Header.Set("Authorization", bearer(t, secret, "stranger"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "User not registered") {
		t.Fatalf("expected 404 User not registered, got %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/workers/me", nil)
	req.Header.Set("Authorization", bearer(t, secret, "broken"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on lookup failure, got %d", rec.Code)
	}
}

func TestRequirePermissionNamesRole(t *testing.T) {
	handler := RequirePermission(auth.PermWithdraw)(noContent())

	req := httptest.NewRequest(http.MethodPost, "/api/workers/me/withdraw", nil)
	req = req.WithContext(WithUser(req.Context(), auth.Principal{UID: "e1", Role: auth.RoleEmployer}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden || !strings.Contains(rec.Body.String(), "Access denied. Worker role required.") {
		t.Fatalf("expected worker role required, got %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/workers/me/withdraw", nil)
	req = req.WithContext(WithUser(req.Context(), auth.Principal{UID: "w1", Role: auth.RoleWorker}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected worker to pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	RequirePermission(auth.PermSettlementsProcess)(noContent()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal, got %d", rec.Code)
	}
}
