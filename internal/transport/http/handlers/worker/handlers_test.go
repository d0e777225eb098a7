package workerhandler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"earnedpay/internal/domain/auth"
	"earnedpay/internal/domain/wage"
	"earnedpay/internal/domain/worker"
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
	balance     wage.Balance
	withdrawErr error
	lastLimit   int
	lastUPI     string
}

func (f *fakeService) Profile(_ context.Context, uid string) (worker.Worker, error) {
	if uid != "w1" {
		return worker.Worker{}, worker.ErrProfileNotFound
	}
	return worker.Worker{ID: "row-1", FullName: "Asha"}, nil
}

func (f *fakeService) Balance(context.Context, string) (wage.Balance, error) {
	return f.balance, nil
}

func (f *fakeService) Withdrawals(_ context.Context, _ string, limit int) ([]wage.Withdrawal, error) {
	f.lastLimit = limit
	return nil, nil
}

func (f *fakeService) Withdraw(_ context.Context, _ auth.Principal, req wage.WithdrawalRequest) (worker.Receipt, error) {
	if f.withdrawErr != nil {
		return worker.Receipt{}, f.withdrawErr
	}
	return worker.Receipt{ID: "wd-1", Amount: req.Amount, Status: wage.WithdrawalStatusCompleted, TransactionID: "TXN000000000001"}, nil
}

func (f *fakeService) UpdateUPI(_ context.Context, _ string, upiID string) error {
	if !wage.ValidUPI(upiID) {
		return worker.ErrInvalidUPI
	}
	f.lastUPI = upiID
	return nil
}

func (f *fakeService) UpdatePassword(_ context.Context, _ string, password string) error {
	if len(password) < auth.MinPasswordLength {
		return auth.ErrPasswordTooShort
	}
	return nil
}

func newRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Auth(secret))
	NewHandler(svc, roles{"w1": auth.RoleWorker, "e1": auth.RoleEmployer}, nil).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, uid, body string) *httptest.ResponseRecorder {
	t.Helper()
	tok, err := identity.Mint(secret, identity.Claims{UID: uid}, time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return body.Detail
}

func TestBalance(t *testing.T) {
	svc := &fakeService{balance: wage.Balance{TotalEarned: 10000, MaxWithdrawable: 4000, AvailableToWithdraw: 4000}}
	rec := do(t, newRouter(svc), http.MethodGet, "/workers/me/balance", "w1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("balance: %d %s", rec.Code, rec.Body.String())
	}
	var got wage.Balance
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.AvailableToWithdraw != 4000 {
		t.Fatalf("expected 4000 available, got %v", got.AvailableToWithdraw)
	}
}

func TestEmployerIsForbidden(t *testing.T) {
	rec := do(t, newRouter(&fakeService{}), http.MethodGet, "/workers/me/balance", "e1", "")
	if rec.Code != http.StatusForbidden || detail(t, rec) != "Access denied. Worker role required." {
		t.Fatalf("expected 403, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestWithdrawErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		detail string
	}{
		{&wage.RejectionError{Reason: wage.ReasonInsufficientBalance, Message: "Insufficient balance. Available: ₹0.00"}, http.StatusBadRequest, "Insufficient balance. Available: ₹0.00"},
		{worker.ErrNoActiveLedger, http.StatusBadRequest, "No active wage ledger found"},
		{fmt.Errorf("%w: gateway timeout", worker.ErrPayoutFailed), http.StatusInternalServerError, "Withdrawal processing failed"},
	}
	for _, c := range cases {
		svc := &fakeService{withdrawErr: c.err}
		rec := do(t, newRouter(svc), http.MethodPost, "/workers/me/withdraw", "w1", `{"amount":100,"upi_id":"asha@upi"}`)
		if rec.Code != c.status || detail(t, rec) != c.detail {
			t.Fatalf("%v: expected %d %q, got %d %s", c.err, c.status, c.detail, rec.Code, rec.Body.String())
		}
	}
}

func TestWithdrawReceipt(t *testing.T) {
	rec := do(t, newRouter(&fakeService{}), http.MethodPost, "/workers/me/withdraw", "w1", `{"amount":250,"upi_id":"asha@upi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("withdraw: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"transaction_id":"TXN000000000001"`) {
		t.Fatalf("expected transaction id in receipt, got %s", rec.Body.String())
	}
}

func TestWithdrawalsLimit(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newRouter(svc), http.MethodGet, "/workers/me/withdrawals?limit=5", "w1", "")
	if rec.Code != http.StatusOK || svc.lastLimit != 5 {
		t.Fatalf("expected limit 5, got %d %d", rec.Code, svc.lastLimit)
	}
	if !strings.Contains(rec.Body.String(), `"withdrawals":[]`) {
		t.Fatalf("expected empty list, got %s", rec.Body.String())
	}
}

func TestUpdateUPIAndPassword(t *testing.T) {
	svc := &fakeService{}
	router := newRouter(svc)

	rec := do(t, router, http.MethodPut, "/workers/me/upi", "w1", `{"upi_id":"9999999999"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected invalid UPI to fail, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPut, "/workers/me/upi", "w1", `{"upi_id":"asha@okaxis"}`)
	if rec.Code != http.StatusOK || svc.lastUPI != "asha@okaxis" {
		t.Fatalf("expected UPI update, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodPut, "/workers/me/password", "w1", `{"password":"12"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected short password to fail, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPut, "/workers/me/password", "w1", `{"password":"4321"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Password updated successfully") {
		t.Fatalf("expected password update, got %d %s", rec.Code, rec.Body.String())
	}
}
