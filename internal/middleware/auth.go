package middleware

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/qareel/backend/internal/auth"
	"github.com/qareel/backend/internal/logging"
)

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Success: false,
		Error:   errorBody{Message: message, Code: code},
	})
}

// RequireAuth rejects requests that carry no valid credential and stores the
// authenticated user ID on the request context.
func RequireAuth(authenticator *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := authenticator.Authenticate(r)
			if err != nil {
				logging.FromContext(r.Context()).Warn("request rejected", "reason", "unauthorized")
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSubject(r.Context(), subject)))
		})
	}
}

// RateLimit throttles requests per client IP using the provided limiter.
func RateLimit(limiter RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
