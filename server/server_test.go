package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rawmatterx/oncostaging/config"
	"github.com/rawmatterx/oncostaging/logging"
)

// mockHandler records which endpoint served a request
type mockHandler struct {
	last string
}

func (m *mockHandler) reply(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.last = name
		w.WriteHeader(http.StatusOK)
	}
}

func (m *mockHandler) ExtractFeatures(w http.ResponseWriter, r *http.Request) {
	m.reply("extract")(w, r)
}
func (m *mockHandler) StageFeatures(w http.ResponseWriter, r *http.Request) {
	m.reply("stage")(w, r)
}
func (m *mockHandler) AnalyzeReport(w http.ResponseWriter, r *http.Request) {
	m.reply("analyze")(w, r)
}
func (m *mockHandler) ListCancerTypes(w http.ResponseWriter, r *http.Request) {
	m.reply("cancer-types")(w, r)
}
func (m *mockHandler) ListAuditRecords(w http.ResponseWriter, r *http.Request) {
	m.reply("audit-list")(w, r)
}
func (m *mockHandler) GetAuditRecord(w http.ResponseWriter, r *http.Request) {
	m.reply("audit-get")(w, r)
}
func (m *mockHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	m.reply("health")(w, r)
}

func testConfig() *config.Config {
	return &config.Config{
		Port:           "0",
		Address:        "127.0.0.1",
		Env:            config.EnvTest,
		MaxRequestBody: 1048576,
		MaxHeaderSize:  1048576,
		CORSOrigins:    []string{"https://clinic.example.org"},
	}
}

func TestSetupRoutes(t *testing.T) {
	logging.InitLogger("")
	h := &mockHandler{}
	s := NewServer(testConfig(), h)
	defer s.rateLimiter.Stop()

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{"POST", "/v1/extract", "extract"},
		{"POST", "/v1/stage", "stage"},
		{"POST", "/v1/analyze", "analyze"},
		{"GET", "/v1/cancer-types", "cancer-types"},
		{"GET", "/v1/audit", "audit-list"},
		{"GET", "/v1/audit/0f8fad5b-d9cb-469f-a165-70867728950e", "audit-get"},
		{"GET", "/health", "health"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			h.last = ""
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			rr := httptest.NewRecorder()
			s.Router().ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d", rr.Code)
			}
			if h.last != tt.want {
				t.Errorf("served by %q, want %q", h.last, tt.want)
			}
			if rr.Header().Get("X-RateLimit-Remaining") == "" {
				t.Error("rate limit headers missing")
			}
		})
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	logging.InitLogger("")
	s := NewServer(testConfig(), &mockHandler{})
	defer s.rateLimiter.Stop()

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest("GET", "/v1/unknown", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest("GET", "/v1/stage", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong method status = %d, want 405", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	logging.InitLogger("")
	s := NewServer(testConfig(), &mockHandler{})
	defer s.rateLimiter.Stop()

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "staging_results_total") && !strings.Contains(rr.Body.String(), "http_request_in_flight") {
		t.Error("expected service metrics in /metrics output")
	}
}

func TestCORS(t *testing.T) {
	logging.InitLogger("")
	s := NewServer(testConfig(), &mockHandler{})
	defer s.rateLimiter.Stop()

	req := httptest.NewRequest("OPTIONS", "/v1/stage", nil)
	req.Header.Set("Origin", "https://clinic.example.org")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://clinic.example.org" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest("OPTIONS", "/v1/stage", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr = httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Allow-Origin %q for foreign origin", got)
	}
}

func TestRecovererReturns500(t *testing.T) {
	logging.InitLogger("")
	s := NewServer(testConfig(), &mockHandler{})
	defer s.rateLimiter.Stop()

	s.router.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest("GET", "/panic", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
}

func TestServerLifecycle(t *testing.T) {
	logging.InitLogger("")
	s := NewServer(testConfig(), &mockHandler{})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start() returned %v after shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
