package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	defaultDetail       = "Request failed"
	notRegisteredDetail = "User not registered"
)

// APIError is a non-2xx response. Detail is the backend's message and is safe
// to show as-is.
type APIError struct {
	Status int
	Code   string
	Detail string
}

func (e *APIError) Error() string {
	return e.Detail
}

// TransportError covers everything that prevented a usable response: dial
// failures, cancelled contexts, and bodies that are not JSON.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotRegistered reports whether the identity is valid but has no account
// with the backend yet.
func IsNotRegistered(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusNotFound || strings.Contains(apiErr.Detail, notRegisteredDetail)
}

func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// Message turns any client error into text for the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	if IsTransport(err) {
		return "Could not reach EarnedPay. Check your connection and try again."
	}
	return err.Error()
}
