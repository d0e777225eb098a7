package audithandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"earnedpay/internal/domain/audit"
	"earnedpay/internal/domain/auth"
	"earnedpay/internal/identity"
	"earnedpay/internal/transport/http/middleware"
)

const secret = "test-secret"

type roles map[string]string

func (r roles) Role(_ context.Context, uid string) (string, error) {
	role, ok := r[uid]
	if !ok {
		return "", auth.ErrUserNotFound
	}
	return role, nil
}

type fakeService struct {
	entityType string
	entityID   string
	limit      int
}

func (f *fakeService) ListForEntity(_ context.Context, entityType, entityID string, limit int) ([]audit.Event, error) {
	f.entityType, f.entityID, f.limit = entityType, entityID, limit
	return []audit.Event{{
		ID:         7,
		ActorUID:   entityID,
		Action:     audit.ActionConfigUpdated,
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}}, nil
}

func get(t *testing.T, svc Service, uid, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Use(middleware.Auth(secret))
	NewHandler(svc, roles{"e1": auth.RoleEmployer, "w1": auth.RoleWorker}).RegisterRoutes(r)

	tok, err := identity.Mint(secret, identity.Claims{UID: uid}, time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListScopesToCaller(t *testing.T) {
	svc := &fakeService{}
	rec := get(t, svc, "e1", "/audit/me?limit=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	if svc.entityType != "employer" || svc.entityID != "e1" || svc.limit != 10 {
		t.Fatalf("unexpected query %+v", svc)
	}
	if !strings.Contains(rec.Body.String(), audit.ActionConfigUpdated) {
		t.Fatalf("expected event in body, got %s", rec.Body.String())
	}
}

func TestExportWritesCSV(t *testing.T) {
	rec := get(t, &fakeService{}, "e1", "/audit/me/export")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "text/csv" {
		t.Fatalf("unexpected export response %d %v", rec.Code, rec.Header())
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "7,e1,"+audit.ActionConfigUpdated) {
		t.Fatalf("unexpected csv %q", rec.Body.String())
	}
}

func TestWorkersCannotReadAudit(t *testing.T) {
	if rec := get(t, &fakeService{}, "w1", "/audit/me"); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
