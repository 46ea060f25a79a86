package logging

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// AuditIDHeader carries the audit record id of a staged request. The request
// log repeats it so log lines can be joined with the audit trail.
const AuditIDHeader = "X-Audit-ID"

var unloggedPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

var statusRecorderPool = sync.Pool{
	New: func() any {
		return &statusRecorder{status: http.StatusOK}
	},
}

// LoggingMiddleware logs one structured line per request. Report text never
// reaches the log; only sizes, route and outcome do.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if unloggedPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := statusRecorderPool.Get().(*statusRecorder)
			rec.reset(w)
			defer func() {
				rec.ResponseWriter = nil
				statusRecorderPool.Put(rec)
			}()

			next.ServeHTTP(rec, r)

			logger.Log(r.Context(), levelForStatus(rec.status), "HTTP request", requestAttrs(r, rec, time.Since(start))...)
		})
	}
}

func requestAttrs(r *http.Request, rec *statusRecorder, elapsed time.Duration) []any {
	requestID, ok := r.Context().Value(middleware.RequestIDKey).(string)
	if !ok || requestID == "" {
		requestID = "unknown"
	}

	attrs := []any{
		"request_id", requestID,
		"method", r.Method,
		"path", r.URL.Path,
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		attrs = append(attrs, "route", rctx.RoutePattern())
	}
	if r.URL.RawQuery != "" {
		attrs = append(attrs, "query", r.URL.RawQuery)
	}
	if r.ContentLength > 0 {
		attrs = append(attrs, "request_bytes", r.ContentLength)
	}
	if id := rec.Header().Get(AuditIDHeader); id != "" {
		attrs = append(attrs, "audit_id", id)
	}
	return append(attrs,
		"remote_addr", r.RemoteAddr,
		"status_code", rec.status,
		"response_bytes", rec.written,
		"duration_ms", elapsed.Milliseconds(),
	)
}

// levelForStatus logs server faults as errors and rejected input as warnings.
func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// statusRecorder keeps the first status code and the body size.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	written     int
	wroteHeader bool
}

func (s *statusRecorder) reset(w http.ResponseWriter) {
	s.ResponseWriter = w
	s.status = http.StatusOK
	s.written = 0
	s.wroteHeader = false
}

func (s *statusRecorder) WriteHeader(status int) {
	if s.wroteHeader {
		return
	}
	s.wroteHeader = true
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(data []byte) (int, error) {
	s.wroteHeader = true
	n, err := s.ResponseWriter.Write(data)
	s.written += n
	return n, err
}
