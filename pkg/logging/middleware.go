package logging

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestIDMiddleware adds a request ID to each HTTP request and logs request/response.
// Long-lived event streams are logged when they open and close.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		wrapped := NewStatusRecorder(w)

		start := time.Now()
		stream := strings.HasPrefix(r.URL.Path, "/api/subscribe/")
		if stream {
			InfoContext(ctx, "stream opened", "path", r.URL.Path, "remoteAddr", r.RemoteAddr)
		} else {
			DebugContext(ctx, "request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr,
			)
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.Status(),
			"durationMs", duration.Milliseconds(),
		}
		switch {
		case wrapped.Status() >= 500:
			ErrorContext(ctx, "request failed", attrs...)
		case wrapped.Status() >= 400:
			WarnContext(ctx, "request rejected", attrs...)
		case stream:
			InfoContext(ctx, "stream closed", attrs...)
		default:
			InfoContext(ctx, "request completed", attrs...)
		}
	})
}

// StatusRecorder wraps http.ResponseWriter to capture the status code
type StatusRecorder struct {
	http.ResponseWriter
	statusCode int
}

// NewStatusRecorder wraps w; the status defaults to 200
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	if rec, ok := w.(*StatusRecorder); ok {
		return rec
	}
	return &StatusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

// Status returns the status code written so far
func (rw *StatusRecorder) Status() int {
	return rw.statusCode
}

func (rw *StatusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher for SSE support
func (rw *StatusRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController
func (rw *StatusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
