package logging

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func newCapturingLogger() (*slog.Logger, *strings.Builder) {
	var out strings.Builder
	return slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug})), &out
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		requestID  any
		status     int
		auditID    string
		wantEmpty  bool
		wantParts  []string
		rejectPart []string
	}{
		{
			name:      "health probe is not logged",
			method:    http.MethodGet,
			target:    "/health",
			status:    http.StatusOK,
			wantEmpty: true,
		},
		{
			name:      "metrics scrape is not logged",
			method:    http.MethodGet,
			target:    "/metrics",
			status:    http.StatusOK,
			wantEmpty: true,
		},
		{
			name:       "staged request carries audit id",
			method:     http.MethodPost,
			target:     "/v1/stage",
			requestID:  "req-1",
			status:     http.StatusOK,
			auditID:    "6f1c2d7e-0000-4000-8000-000000000001",
			wantParts:  []string{"level=INFO", "request_id=req-1", "path=/v1/stage", "audit_id=6f1c2d7e-0000-4000-8000-000000000001", "status_code=200"},
			rejectPart: []string{"query="},
		},
		{
			name:      "non string request id falls back",
			method:    http.MethodGet,
			target:    "/v1/cancer-types",
			requestID: 12345,
			status:    http.StatusOK,
			wantParts: []string{"request_id=unknown"},
		},
		{
			name:      "query string is kept",
			method:    http.MethodGet,
			target:    "/v1/audit?limit=5",
			status:    http.StatusOK,
			wantParts: []string{`query="limit=5"`},
		},
		{
			name:      "rejected input logs a warning",
			method:    http.MethodPost,
			target:    "/v1/analyze",
			status:    http.StatusUnprocessableEntity,
			wantParts: []string{"level=WARN", "status_code=422"},
		},
		{
			name:      "server fault logs an error",
			method:    http.MethodPost,
			target:    "/v1/analyze",
			status:    http.StatusInternalServerError,
			wantParts: []string{"level=ERROR", "status_code=500"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, out := newCapturingLogger()
			handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.auditID != "" {
					w.Header().Set(AuditIDHeader, tt.auditID)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte("{}"))
			}))

			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.requestID != nil {
				req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, tt.requestID))
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
			logs := out.String()
			if tt.wantEmpty {
				if logs != "" {
					t.Errorf("expected no log output, got: %s", logs)
				}
				return
			}
			for _, part := range tt.wantParts {
				if !strings.Contains(logs, part) {
					t.Errorf("log should contain %q, got: %s", part, logs)
				}
			}
			for _, part := range tt.rejectPart {
				if strings.Contains(logs, part) {
					t.Errorf("log should not contain %q, got: %s", part, logs)
				}
			}
		})
	}
}

func TestLoggingMiddlewareRoutePattern(t *testing.T) {
	logger, out := newCapturingLogger()

	r := chi.NewRouter()
	r.Use(LoggingMiddleware(logger))
	r.Get("/v1/audit/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/audit/abc", nil))

	logs := out.String()
	if !strings.Contains(logs, "route=/v1/audit/{id}") {
		t.Errorf("log should contain the route pattern, got: %s", logs)
	}
	if !strings.Contains(logs, "level=WARN") {
		t.Errorf("404 should log at warn, got: %s", logs)
	}
}

func TestStatusRecorder(t *testing.T) {
	recorder := httptest.NewRecorder()
	rec := &statusRecorder{}
	rec.reset(recorder)

	rec.WriteHeader(http.StatusNotFound)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", recorder.Code, http.StatusNotFound)
	}

	data := []byte("not found")
	n, err := rec.Write(data)
	if err != nil || n != len(data) {
		t.Fatalf("Write() = %d, %v", n, err)
	}

	rec.WriteHeader(http.StatusInternalServerError)
	if rec.status != http.StatusNotFound {
		t.Errorf("status changed after first write to %d", rec.status)
	}
	if rec.written != len(data) {
		t.Errorf("written = %d, want %d", rec.written, len(data))
	}
}
