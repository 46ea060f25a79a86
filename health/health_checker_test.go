package health

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rawmatterx/oncostaging/entities"
	"github.com/rawmatterx/oncostaging/interfaces"
)

// MockCatalog for testing
type MockCatalog struct {
	refs        []entities.GuidelineReference
	lastUpdated time.Time
}

func (m *MockCatalog) Lookup(string) (entities.GuidelineReference, bool) {
	return entities.GuidelineReference{}, false
}
func (m *MockCatalog) All() []entities.GuidelineReference { return m.refs }
func (m *MockCatalog) Replace(refs []entities.GuidelineReference) { m.refs = refs }
func (m *MockCatalog) GetLastUpdated() time.Time { return m.lastUpdated }

// MockAuditStore for testing
type MockAuditStore struct {
	interfaces.AuditStore
	pingErr error
	count   int64
}

func (m *MockAuditStore) Ping(context.Context) error { return m.pingErr }
func (m *MockAuditStore) Count(context.Context) (int64, error) {
	return m.count, nil
}

// MockEngine for testing
type MockEngine struct {
	interfaces.StagingEngine
	types []string
}

func (m *MockEngine) SupportedCancerTypes() []string { return m.types }

func defaultRefs() []entities.GuidelineReference {
	return []entities.GuidelineReference{{CancerType: "lung", URL: "https://example.org/lung.pdf"}}
}

func TestHealthCheck(t *testing.T) {
	engine := &MockEngine{types: []string{"lung", "breast"}}

	tests := []struct {
		name           string
		catalog        *MockCatalog
		store          interfaces.AuditStore
		engine         *MockEngine
		expectedStatus string
		expectedHTTP   int
	}{
		{
			name:           "healthy with audit",
			catalog:        &MockCatalog{refs: defaultRefs(), lastUpdated: time.Now()},
			store:          &MockAuditStore{count: 3},
			engine:         engine,
			expectedStatus: "healthy",
			expectedHTTP:   http.StatusOK,
		},
		{
			name:           "healthy without audit",
			catalog:        &MockCatalog{refs: defaultRefs(), lastUpdated: time.Now()},
			store:          nil,
			engine:         engine,
			expectedStatus: "healthy",
			expectedHTTP:   http.StatusOK,
		},
		{
			name:           "audit unreachable",
			catalog:        &MockCatalog{refs: defaultRefs(), lastUpdated: time.Now()},
			store:          &MockAuditStore{pingErr: errors.New("database is locked")},
			engine:         engine,
			expectedStatus: "unhealthy",
			expectedHTTP:   http.StatusServiceUnavailable,
		},
		{
			name:           "no stagers",
			catalog:        &MockCatalog{refs: defaultRefs(), lastUpdated: time.Now()},
			engine:         &MockEngine{},
			expectedStatus: "unhealthy",
			expectedHTTP:   http.StatusServiceUnavailable,
		},
		{
			name:           "empty catalog",
			catalog:        &MockCatalog{},
			engine:         engine,
			expectedStatus: "degraded",
			expectedHTTP:   http.StatusOK,
		},
		{
			name:           "stale catalog",
			catalog:        &MockCatalog{refs: defaultRefs(), lastUpdated: time.Now().Add(-72 * time.Hour)},
			engine:         engine,
			expectedStatus: "degraded",
			expectedHTTP:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewHealthChecker(tt.catalog, tt.store, tt.engine, 24*time.Hour)
			status, data, httpStatus := checker.HealthCheck(context.Background())

			if status != tt.expectedStatus {
				t.Errorf("status = %q, want %q", status, tt.expectedStatus)
			}
			if httpStatus != tt.expectedHTTP {
				t.Errorf("httpStatus = %d, want %d", httpStatus, tt.expectedHTTP)
			}
			for _, key := range []string{"cancer_types", "guidelines", "guidelines_updated", "guidelines_age_hours", "uptime_seconds", "audit"} {
				if _, ok := data[key]; !ok {
					t.Errorf("missing %q in health data", key)
				}
			}
		})
	}
}

func TestHealthCheckAuditDetails(t *testing.T) {
	catalog := &MockCatalog{refs: defaultRefs(), lastUpdated: time.Now()}
	engine := &MockEngine{types: []string{"lung"}}

	_, data, _ := NewHealthChecker(catalog, &MockAuditStore{count: 7}, engine, time.Hour).HealthCheck(context.Background())
	if data["audit"] != "ok" {
		t.Errorf("audit = %v, want ok", data["audit"])
	}
	if data["audit_records"] != int64(7) {
		t.Errorf("audit_records = %v, want 7", data["audit_records"])
	}

	_, data, _ = NewHealthChecker(catalog, nil, engine, time.Hour).HealthCheck(context.Background())
	if data["audit"] != "disabled" {
		t.Errorf("audit = %v, want disabled", data["audit"])
	}

	_, data, _ = NewHealthChecker(catalog, &MockAuditStore{pingErr: errors.New("boom")}, engine, time.Hour).HealthCheck(context.Background())
	if data["audit_error"] != "boom" {
		t.Errorf("audit_error = %v, want boom", data["audit_error"])
	}
}
