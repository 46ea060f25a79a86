// Package health reports the readiness of the staging service.
package health

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/rawmatterx/oncostaging/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	catalog       interfaces.GuidelineCatalog
	store         interfaces.AuditStore
	engine        interfaces.StagingEngine
	maxCatalogAge time.Duration
	startTime     time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies.
// store may be nil when auditing is disabled. The catalog is reported as
// degraded once it is older than twice reloadInterval.
func NewHealthChecker(catalog interfaces.GuidelineCatalog, store interfaces.AuditStore,
	engine interfaces.StagingEngine, reloadInterval time.Duration) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		catalog:       catalog,
		store:         store,
		engine:        engine,
		maxCatalogAge: 2 * reloadInterval,
		startTime:     time.Now(),
	}
}

// HealthCheck returns the status served on /health. Unhealthy answers 503;
// a stale guideline catalog only degrades the status since staging itself
// does not depend on it.
func (h *HealthCheckerImpl) HealthCheck(ctx context.Context) (status string, data map[string]any, httpStatus int) {
	guidelines := h.catalog.All()
	lastUpdate := h.catalog.GetLastUpdated()
	catalogAge := time.Since(lastUpdate)

	data = map[string]any{
		"cancer_types":         len(h.engine.SupportedCancerTypes()),
		"guidelines":           len(guidelines),
		"guidelines_updated":   lastUpdate.Format(time.RFC3339),
		"guidelines_age_hours": math.Round(catalogAge.Hours()*10) / 10,
		"uptime_seconds":       math.Round(time.Since(h.startTime).Seconds()),
	}

	var auditErr error
	if h.store == nil {
		data["audit"] = "disabled"
	} else if auditErr = h.store.Ping(ctx); auditErr != nil {
		data["audit"] = "unreachable"
		data["audit_error"] = auditErr.Error()
	} else {
		data["audit"] = "ok"
		if n, err := h.store.Count(ctx); err == nil {
			data["audit_records"] = n
		}
	}

	switch {
	case len(h.engine.SupportedCancerTypes()) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case auditErr != nil:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case len(guidelines) == 0 || lastUpdate.IsZero():
		status = "degraded"
		httpStatus = http.StatusOK

	case h.maxCatalogAge > 0 && catalogAge > h.maxCatalogAge:
		status = "degraded"
		httpStatus = http.StatusOK

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return status, data, httpStatus
}
