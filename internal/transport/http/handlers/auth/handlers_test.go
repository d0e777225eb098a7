package authhandler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"earnedpay/internal/domain/auth"
	"earnedpay/internal/identity"
	"earnedpay/internal/transport/http/middleware"
)

const secret = "test-secret"

type fakeService struct {
	users map[string]auth.User
}

func (f *fakeService) VerifyToken(_ context.Context, p auth.Principal, role string) (auth.User, error) {
	if u, ok := f.users[p.UID]; ok {
		return u, nil
	}
	u := auth.User{UID: p.UID, Role: role, PhoneNumber: p.PhoneNumber, CustomID: "EP-0042"}
	f.users[p.UID] = u
	return u, nil
}

func (f *fakeService) Me(_ context.Context, uid string) (auth.User, error) {
	u, ok := f.users[uid]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeService) Role(_ context.Context, uid string) (string, error) {
	u, ok := f.users[uid]
	if !ok {
		return "", auth.ErrUserNotFound
	}
	return u.Role, nil
}

func newRouter(svc *fakeService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Auth(secret))
	NewHandler(svc, svc).RegisterRoutes(r)
	return r
}

func token(t *testing.T, uid string) string {
	t.Helper()
	tok, err := identity.Mint(secret, identity.Claims{UID: uid, PhoneNumber: "+919812345678"}, time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return tok
}

func do(t *testing.T, h http.Handler, method, path, tok, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestVerifyTokenRegistersThenMe(t *testing.T) {
	svc := &fakeService{users: map[string]auth.User{}}
	router := newRouter(svc)
	tok := token(t, "uid-1")

	rec := do(t, router, http.MethodGet, "/auth/me", tok, "")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "User not registered") {
		t.Fatalf("expected unregistered user, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodPost, "/auth/verify-token", tok, `{"role":"employer"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify-token: %d %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Success bool      `json:"success"`
		User    auth.User `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Success || out.User.Role != auth.RoleEmployer || out.User.PhoneNumber != "+919812345678" {
		t.Fatalf("unexpected verify response %+v", out)
	}

	rec = do(t, router, http.MethodGet, "/auth/me", tok, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"custom_id":"EP-0042"`) {
		t.Fatalf("expected registered user, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestVerifyTokenDefaultsToWorker(t *testing.T) {
	svc := &fakeService{users: map[string]auth.User{}}
	rec := do(t, newRouter(svc), http.MethodPost, "/auth/verify-token", token(t, "uid-2"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("verify-token: %d %s", rec.Code, rec.Body.String())
	}
	if svc.users["uid-2"].Role != auth.RoleWorker {
		t.Fatalf("expected worker role, got %q", svc.users["uid-2"].Role)
	}
}

func TestVerifyTokenRejectsUnknownRole(t *testing.T) {
	svc := &fakeService{users: map[string]auth.User{}}
	rec := do(t, newRouter(svc), http.MethodPost, "/auth/verify-token", token(t, "uid-3"), `{"role":"admin"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(svc.users) != 0 {
		t.Fatal("no user should be created for an unknown role")
	}
}

func TestVerifyTokenRequiresToken(t *testing.T) {
	svc := &fakeService{users: map[string]auth.User{}}
	rec := do(t, newRouter(svc), http.MethodPost, "/auth/verify-token", "", `{"role":"worker"}`)
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "Missing authorization header") {
		t.Fatalf("expected 401, got %d %s", rec.Code, rec.Body.String())
	}
}
