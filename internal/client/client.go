// Package client is the typed request interface to the EarnedPay backend.
// Every call takes the caller's bearer token explicitly; the client itself
// holds no session state.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"earnedpay/internal/domain/wage"
)

const (
	DefaultBaseURL = "http://localhost:8000"
	apiPrefix      = "/api"

	headerIdempotencyKey = "Idempotency-Key"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method  string
	path    string
	token   string
	body    any
	headers map[string]string
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	raw, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: req.method + " " + req.path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	op := req.method + " " + req.path

	var body io.Reader
	if req.body != nil && req.method != http.MethodGet {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+apiPrefix+req.path, body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	for key, value := range req.headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp.StatusCode, raw)
	}
	return raw, nil
}

func decodeAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{Status: status, Detail: defaultDetail}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Code   string          `json:"code"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apiErr
	}
	apiErr.Code = payload.Code
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil && strings.TrimSpace(detail) != "" {
		apiErr.Detail = detail
	}
	return apiErr
}

// Auth

func (c *Client) VerifyToken(ctx context.Context, token, role string) (User, error) {
	var out struct {
		Success bool `json:"success"`
		User    User `json:"user"`
	}
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/verify-token", token: token, body: map[string]string{"role": role}}, &out)
	return out.User, err
}

func (c *Client) CurrentUser(ctx context.Context, token string) (User, error) {
	var out User
	err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me", token: token}, &out)
	return out, err
}

// Workers

func (c *Client) WorkerProfile(ctx context.Context, token string) (Worker, error) {
	var out Worker
	err := c.do(ctx, request{method: http.MethodGet, path: "/workers/me", token: token}, &out)
	return out, err
}

func (c *Client) Balance(ctx context.Context, token string) (wage.Balance, error) {
	var out wage.Balance
	err := c.do(ctx, request{method: http.MethodGet, path: "/workers/me/balance", token: token}, &out)
	return out, err
}

// Withdrawals returns the history newest first. A limit of zero uses the
// backend default.
func (c *Client) Withdrawals(ctx context.Context, token string, limit int) ([]wage.Withdrawal, error) {
	path := "/workers/me/withdrawals"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var out struct {
		Withdrawals []wage.Withdrawal `json:"withdrawals"`
	}
	err := c.do(ctx, request{method: http.MethodGet, path: path, token: token}, &out)
	return out.Withdrawals, err
}

// Withdraw submits a withdrawal. The idempotency key lets the backend
// recognise a duplicate delivery of the same submission.
func (c *Client) Withdraw(ctx context.Context, token string, req wage.WithdrawalRequest, idempotencyKey string) (WithdrawalReceipt, error) {
	var out WithdrawalReceipt
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers[headerIdempotencyKey] = idempotencyKey
	}
	err := c.do(ctx, request{method: http.MethodPost, path: "/workers/me/withdraw", token: token, body: req, headers: headers}, &out)
	return out, err
}

func (c *Client) UpdateUPI(ctx context.Context, token, upiID string) error {
	return c.do(ctx, request{method: http.MethodPut, path: "/workers/me/upi", token: token, body: map[string]string{"upi_id": upiID}}, nil)
}

func (c *Client) UpdatePassword(ctx context.Context, token, password string) error {
	return c.do(ctx, request{method: http.MethodPut, path: "/workers/me/password", token: token, body: map[string]string{"password": password}}, nil)
}

// Employers

func (c *Client) Dashboard(ctx context.Context, token string) (Dashboard, error) {
	var out Dashboard
	err := c.do(ctx, request{method: http.MethodGet, path: "/employers/me/dashboard", token: token}, &out)
	return out, err
}

func (c *Client) Workers(ctx context.Context, token string) ([]Worker, error) {
	var out struct {
		Workers []Worker `json:"workers"`
	}
	err := c.do(ctx, request{method: http.MethodGet, path: "/employers/me/workers", token: token}, &out)
	return out.Workers, err
}

func (c *Client) AddWorker(ctx context.Context, token string, worker NewWorker) (string, error) {
	var out struct {
		WorkerID string `json:"worker_id"`
	}
	err := c.do(ctx, request{method: http.MethodPost, path: "/employers/me/workers", token: token, body: worker}, &out)
	return out.WorkerID, err
}

func (c *Client) SubmitAttendance(ctx context.Context, token string, entries []wage.AttendanceEntry) (AttendanceResult, error) {
	var out AttendanceResult
	body := map[string][]wage.AttendanceEntry{"entries": entries}
	err := c.do(ctx, request{method: http.MethodPost, path: "/employers/attendance", token: token, body: body}, &out)
	return out, err
}

func (c *Client) EmployerProfile(ctx context.Context, token string) (Employer, error) {
	var out Employer
	err := c.do(ctx, request{method: http.MethodGet, path: "/employers/me", token: token}, &out)
	return out, err
}

func (c *Client) UpdateEmployerProfile(ctx context.Context, token string, update EmployerUpdate) error {
	return c.do(ctx, request{method: http.MethodPut, path: "/employers/me", token: token, body: update}, nil)
}

// Settlements

func (c *Client) Settlements(ctx context.Context, token string) ([]SettlementSummary, error) {
	var out struct {
		Settlements []SettlementSummary `json:"settlements"`
	}
	err := c.do(ctx, request{method: http.MethodGet, path: "/settlements/", token: token}, &out)
	return out.Settlements, err
}

func (c *Client) ProcessSettlement(ctx context.Context, token, month string) (SettlementResult, error) {
	var out SettlementResult
	err := c.do(ctx, request{method: http.MethodPost, path: "/settlements/process", token: token, body: map[string]string{"month": month}}, &out)
	return out, err
}

// SettlementStatement downloads the PDF statement for a processed settlement.
func (c *Client) SettlementStatement(ctx context.Context, token, settlementID string) ([]byte, error) {
	return c.send(ctx, request{method: http.MethodGet, path: "/settlements/" + url.PathEscape(settlementID) + "/statement", token: token})
}
