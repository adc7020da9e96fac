package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kasuganosora/gridsource/pkg/logger"
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

type contextKey string

const ctxKeyRequestID contextKey = "request_id"

const (
	headerRequestID = "X-Request-ID"
	headerSessionID = "X-Session-ID"
)

// GetRequestIDFromContext returns the request id assigned by RequestIDMiddleware
func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// RecoveryMiddleware recovers from panics and returns a 500 error
func RecoveryMiddleware(l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					l.Error("[HTTP API] panic recovered: %v", err)
					writeJSON(w, http.StatusInternalServerError, ErrorResponse{
						Error:     "internal server error",
						Code:      http.StatusInternalServerError,
						RequestID: GetRequestIDFromContext(r.Context()),
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware adds CORS headers
func CORSMiddleware(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+headerSessionID+", "+headerRequestID)
				w.Header().Set("Access-Control-Expose-Headers", headerRequestID)
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestIDMiddleware keeps the caller's X-Request-ID or assigns a new one
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware logs HTTP requests and records request metrics
func LoggingMiddleware(l logger.Logger, m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status code
			wrapped := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			if m != nil {
				m.observeRequest(r.Method, route, wrapped.statusCode, duration)
			}

			l.Info("[HTTP API] %s %s %s %s %d %s", GetRequestIDFromContext(r.Context()), sessionKey(r), r.Method, r.URL.Path, wrapped.statusCode, duration)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture status code
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes it as an ErrorResponse
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	writeJSON(w, status, ErrorResponse{
		Error:     err.Error(),
		Code:      status,
		RequestID: GetRequestIDFromContext(r.Context()),
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var (
		opErr       *domain.ErrInvalidFilterOperator
		valueErr    *domain.ErrInvalidFilterValue
		deepErr     *domain.ErrFilterTooDeep
		sortErr     *domain.ErrInvalidSort
		limitErr    *domain.ErrRowLimitExceeded
		windowErr   *domain.ErrInvalidWindow
		configErr   *domain.ErrInvalidConfig
		notFoundErr *domain.ErrDatasetNotFound
		rowErr      *domain.ErrRowNotFound
		updateErr   *domain.ErrInvalidUpdate
		readOnlyErr *domain.ErrReadOnly
		connErr     *domain.ErrNotConnected
	)
	switch {
	case errors.As(err, &opErr), errors.As(err, &valueErr), errors.As(err, &deepErr),
		errors.As(err, &sortErr), errors.As(err, &limitErr), errors.As(err, &windowErr),
		errors.As(err, &configErr), errors.As(err, &updateErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr), errors.As(err, &rowErr):
		return http.StatusNotFound
	case errors.As(err, &readOnlyErr):
		return http.StatusConflict
	case errors.Is(err, errRateLimited), errors.Is(err, errSessionBusy):
		return http.StatusTooManyRequests
	case errors.Is(err, errInjectedFailure), errors.As(err, &connErr):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// sessionKey identifies the caller for per-session limits
func sessionKey(r *http.Request) string {
	if id := r.Header.Get(headerSessionID); id != "" {
		return id
	}
	return getClientIP(r)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.SplitN(xff, ",", 2)
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	// RemoteAddr is "IP:port"
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
