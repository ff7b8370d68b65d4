package web

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/kgview/pkg/logging"
	"github.com/ritzau/kgview/pkg/metrics"
)

// recoveryMiddleware turns a handler panic into a 500 response
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.ErrorContext(r.Context(), "panic in HTTP handler",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(apiError{Error: "INTERNAL", Message: "internal server error"})
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records request counts and durations per route template
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := logging.NewStatusRecorder(w)

		next.ServeHTTP(wrapped, r)

		path := "static"
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil && tpl != "/" {
				path = tpl
			}
		}

		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.Status())).Inc()
	})
}
