package handlers_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"earnedpay/internal/app/server"
	"earnedpay/internal/domain/wage"
	"earnedpay/internal/identity"
	"earnedpay/internal/platform/config"
)

const journeySecret = "journey-secret"

// databaseURL returns TEST_DATABASE_URL, or starts a throwaway Postgres when
// EARNEDPAY_INTEGRATION=1.
func databaseURL(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped with -short")
	}
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return dsn
	}
	if os.Getenv("EARNEDPAY_INTEGRATION") != "1" {
		t.Skip("set EARNEDPAY_INTEGRATION=1 or TEST_DATABASE_URL to run")
	}

	ctx := context.Background()
	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("earnedpay"),
		postgres.WithUsername("earnedpay"),
		postgres.WithPassword("earnedpay"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, pg)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("resolve connection string: %v", err)
	}
	return dsn
}

func newJourneyServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		Addr:               ":0",
		DatabaseURL:        databaseURL(t),
		IdentitySecret:     journeySecret,
		Environment:        "test",
		AllowedOrigins:     []string{"*"},
		UPIMockMode:        true,
		RunMigrations:      true,
		MigrationsDir:      filepath.Join("..", "..", "..", "..", "migrations"),
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
		MetricsEnabled:     true,
	}
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return ts
}

type apiCall struct {
	t      *testing.T
	client *http.Client
	base   string
}

func (c apiCall) do(method, path, token string, body any, headers map[string]string) (*http.Response, []byte) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func (c apiCall) expect(status int, method, path, token string, body any, out any) {
	c.t.Helper()
	resp, raw := c.do(method, path, token, body, nil)
	if resp.StatusCode != status {
		c.t.Fatalf("%s %s: expected %d, got %d %s", method, path, status, resp.StatusCode, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			c.t.Fatalf("%s %s: decode %s: %v", method, path, raw, err)
		}
	}
}

func mintToken(t *testing.T, uid, phone string) string {
	t.Helper()
	token, err := identity.Mint(journeySecret, identity.Claims{UID: uid, PhoneNumber: phone}, time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return token
}

func TestEarnedWageJourney(t *testing.T) {
	ts := newJourneyServer(t)
	api := apiCall{t: t, client: ts.Client(), base: ts.URL}

	n := time.Now().UnixNano()
	employerToken := mintToken(t, fmt.Sprintf("emp-%d", n), fmt.Sprintf("+9190%08d", n%100000000))
	workerPhone := fmt.Sprintf("+9198%08d", n%100000000)
	workerToken := mintToken(t, fmt.Sprintf("wrk-%d", n), workerPhone)
	month := wage.CycleMonth(time.Now())
	today := time.Now().UTC().Format(wage.DateLayout)

	api.expect(http.StatusOK, http.MethodPost, "/api/auth/verify-token", employerToken, map[string]string{"role": "employer"}, nil)
	api.expect(http.StatusOK, http.MethodPut, "/api/employers/me", employerToken, map[string]any{
		"company_name":      "Journey Traders",
		"withdrawal_config": wage.EmployerConfig{MaxPercentage: 50, PaydayDay: 5, MinAmount: 100},
	}, nil)

	var added struct {
		WorkerID string `json:"worker_id"`
	}
	api.expect(http.StatusCreated, http.MethodPost, "/api/employers/me/workers", employerToken, map[string]string{
		"full_name": "Asha", "phone_number": workerPhone, "upi_id": "asha@upi",
	}, &added)

	// The worker signs up with the phone number the employer registered.
	api.expect(http.StatusOK, http.MethodPost, "/api/auth/verify-token", workerToken, map[string]string{"role": "worker"}, nil)
	var me struct {
		Role       string `json:"role"`
		EmployerID string `json:"employer_id"`
		FullName   string `json:"full_name"`
	}
	api.expect(http.StatusOK, http.MethodGet, "/api/auth/me", workerToken, nil, &me)
	if me.Role != "worker" || me.EmployerID == "" || me.FullName != "Asha" {
		t.Fatalf("worker should be linked to the employer row, got %+v", me)
	}

	api.expect(http.StatusOK, http.MethodPost, "/api/employers/attendance", employerToken, map[string]any{
		"entries": []wage.AttendanceEntry{{WorkerID: added.WorkerID, Date: today, HoursWorked: 8, WagePerHour: 500}},
	}, nil)

	var balance wage.Balance
	api.expect(http.StatusOK, http.MethodGet, "/api/workers/me/balance", workerToken, nil, &balance)
	if balance.TotalEarned != 4000 || balance.AvailableToWithdraw != 2000 {
		t.Fatalf("unexpected balance %+v", balance)
	}

	api.expect(http.StatusBadRequest, http.MethodPost, "/api/workers/me/withdraw", workerToken,
		wage.WithdrawalRequest{Amount: 2500, PayoutAddress: "asha@upi"}, nil)

	req := wage.WithdrawalRequest{Amount: 1500, PayoutAddress: "asha@upi"}
	key := map[string]string{"Idempotency-Key": fmt.Sprintf("journey-%d", n)}
	resp, first := api.do(http.MethodPost, "/api/workers/me/withdraw", workerToken, req, key)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("withdraw: %d %s", resp.StatusCode, first)
	}
	resp, second := api.do(http.MethodPost, "/api/workers/me/withdraw", workerToken, req, key)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replayed receipt, got %d %s", resp.StatusCode, second)
	}
	var firstReceipt, replayed struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(first, &firstReceipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if err := json.Unmarshal(second, &replayed); err != nil {
		t.Fatalf("decode replay: %v", err)
	}
	if replayed != firstReceipt || firstReceipt.Status != wage.WithdrawalStatusCompleted {
		t.Fatalf("replay should return the stored receipt, got %+v vs %+v", replayed, firstReceipt)
	}

	api.expect(http.StatusOK, http.MethodGet, "/api/workers/me/balance", workerToken, nil, &balance)
	if balance.TotalWithdrawn != 1500 || balance.AvailableToWithdraw != 500 {
		t.Fatalf("withdrawal should be applied once, got %+v", balance)
	}

	api.expect(http.StatusForbidden, http.MethodGet, "/api/employers/me/dashboard", workerToken, nil, nil)

	var settled struct {
		SettlementID  string  `json:"settlement_id"`
		NetSettlement float64 `json:"net_settlement"`
		WorkersCount  int     `json:"workers_count"`
	}
	api.expect(http.StatusOK, http.MethodPost, "/api/settlements/process", employerToken, map[string]string{"month": month}, &settled)
	if settled.NetSettlement != 2500 || settled.WorkersCount != 1 {
		t.Fatalf("unexpected settlement %+v", settled)
	}
	api.expect(http.StatusNotFound, http.MethodPost, "/api/settlements/process", employerToken, map[string]string{"month": month}, nil)

	resp, pdf := api.do(http.MethodGet, "/api/settlements/"+settled.SettlementID+"/statement", employerToken, nil, nil)
	if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("statement: %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	api.expect(http.StatusOK, http.MethodGet, "/api/workers/me/balance", workerToken, nil, &balance)
	if balance.TotalEarned != 0 {
		t.Fatalf("settled ledger should no longer count, got %+v", balance)
	}
}

func TestUnregisteredAndUnauthenticatedRequests(t *testing.T) {
	ts := newJourneyServer(t)
	api := apiCall{t: t, client: ts.Client(), base: ts.URL}

	var body struct {
		Detail string `json:"detail"`
	}
	api.expect(http.StatusUnauthorized, http.MethodGet, "/api/auth/me", "", nil, &body)
	if body.Detail != "Missing authorization header" {
		t.Fatalf("unexpected detail %q", body.Detail)
	}

	token := mintToken(t, fmt.Sprintf("ghost-%d", time.Now().UnixNano()), "")
	api.expect(http.StatusNotFound, http.MethodGet, "/api/auth/me", token, nil, &body)
	if body.Detail != "User not registered" {
		t.Fatalf("unexpected detail %q", body.Detail)
	}

	resp, _ := api.do(http.MethodGet, "/readyz", "", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz: %d", resp.StatusCode)
	}
}
