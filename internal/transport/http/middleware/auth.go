package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"earnedpay/internal/domain/auth"
	"earnedpay/internal/identity"
	"earnedpay/internal/transport/http/api"
)

const ctxKeyAuthFailure ctxKey = "auth_failure"

// RoleLookup resolves the registered role of a user.
type RoleLookup interface {
	Role(ctx context.Context, uid string) (string, error)
}

// Auth verifies the bearer identity token. Requests without a valid token pass
// through without a principal; the reason is kept for RequireIdentity.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, withAuthFailure(r, "Missing authorization header"))
				return
			}
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, withAuthFailure(r, "Invalid authorization header format"))
				return
			}

			claims, err := identity.Verify(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, withAuthFailure(r, "Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, auth.Principal{
				UID:         claims.UID,
				PhoneNumber: claims.PhoneNumber,
				Email:       claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func withAuthFailure(r *http.Request, detail string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKeyAuthFailure, detail))
}

func GetUser(ctx context.Context) (auth.Principal, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.Principal)
	return user, ok
}

// WithUser stores p as the request principal.
func WithUser(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, ctxKeyUser, p)
}

// RequireIdentity rejects requests without a verified identity token.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests whose identity has not registered yet and
// fills the principal's role.
func RequireUser(lookup RoleLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				unauthorized(w, r)
				return
			}
			role, err := lookup.Role(r.Context(), user.UID)
			switch {
			case errors.Is(err, auth.ErrUserNotFound):
				api.Fail(w, http.StatusNotFound, "not_registered", "User not registered", GetRequestID(r.Context()))
				return
			case err != nil:
				api.Fail(w, http.StatusInternalServerError, "role_lookup_failed", "failed to load user", GetRequestID(r.Context()))
				return
			}
			user.Role = role
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	detail, _ := r.Context().Value(ctxKeyAuthFailure).(string)
	if detail == "" {
		detail = "Missing authorization header"
	}
	api.Fail(w, http.StatusUnauthorized, "unauthorized", detail, GetRequestID(r.Context()))
}
