// Package scheduler runs the background jobs of the staging service:
// guideline catalog reloads, audit retention pruning and a staleness check.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/rawmatterx/oncostaging/interfaces"
	"github.com/rawmatterx/oncostaging/logging"
	"github.com/rawmatterx/oncostaging/metrics"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// DefaultPruneAt is the local time of day the retention job runs.
const DefaultPruneAt = "03:00"

// CatalogReloader is the part of the guideline catalog the scheduler drives.
type CatalogReloader interface {
	Reload() error
	GetLastUpdated() time.Time
}

// Options configures the job intervals.
type Options struct {
	ReloadEvery   time.Duration
	RetentionDays int
	PruneAt       string
}

// Scheduler handles catalog reloads and audit pruning using dependency injection
type Scheduler struct {
	catalog   CatalogReloader
	store     interfaces.AuditStore
	opts      Options
	scheduler *gocron.Scheduler
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance. store may be nil, which
// disables the retention job.
func NewScheduler(catalog CatalogReloader, store interfaces.AuditStore, opts Options) *Scheduler {
	if opts.PruneAt == "" {
		opts.PruneAt = DefaultPruneAt
	}
	if opts.ReloadEvery <= 0 {
		opts.ReloadEvery = 24 * time.Hour
	}
	return &Scheduler{
		catalog:   catalog,
		store:     store,
		opts:      opts,
		scheduler: gocron.NewScheduler(time.Local),
		now:       time.Now,
	}
}

// Start loads the catalog once and schedules the recurring jobs.
func (s *Scheduler) Start() error {
	// Initial load
	if err := s.reloadGuidelines(); err != nil {
		logging.Error("Failed to perform initial guideline load", "error", err)
		return fmt.Errorf("initial guideline load failed: %w", err)
	}

	_, err := s.scheduler.Every(s.opts.ReloadEvery).WaitForSchedule().Do(func() {
		if err := s.reloadGuidelines(); err != nil {
			logging.Error("Failed to reload guidelines", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule guideline reloads", "error", err)
		return fmt.Errorf("failed to schedule guideline reloads: %w", err)
	}

	if s.store != nil && s.opts.RetentionDays > 0 {
		_, err = s.scheduler.Every(1).Days().At(s.opts.PruneAt).Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := s.pruneAudit(ctx); err != nil {
				logging.Error("Failed to prune audit records", "error", err)
			}
		})
		if err != nil {
			logging.Error("Failed to schedule audit pruning", "error", err)
			return fmt.Errorf("failed to schedule audit pruning: %w", err)
		}
	}

	_, err = s.scheduler.Every(1).Hour().WaitForSchedule().Do(func() { s.checkStaleness() })
	if err != nil {
		return fmt.Errorf("failed to schedule staleness check: %w", err)
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// reloadGuidelines refreshes the guideline catalog
func (s *Scheduler) reloadGuidelines() error {
	start := s.now()
	if err := s.catalog.Reload(); err != nil {
		return fmt.Errorf("failed to reload guideline catalog: %w", err)
	}
	logging.Info("Guideline catalog refreshed", "duration", time.Since(start).String())
	return nil
}

// pruneAudit deletes audit records older than the retention window
func (s *Scheduler) pruneAudit(ctx context.Context) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -s.opts.RetentionDays)
	removed, err := s.store.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	metrics.AuditRecordsPruned.Add(float64(removed))
	logging.Info("Audit records pruned", "removed", removed, "cutoff", cutoff.Format(time.RFC3339))
	return removed, nil
}

// checkStaleness warns when the catalog missed more than one reload
func (s *Scheduler) checkStaleness() bool {
	age := s.now().Sub(s.catalog.GetLastUpdated())
	if age > 2*s.opts.ReloadEvery {
		logging.Warn("Guideline catalog has not been refreshed", "age", age.Round(time.Minute).String())
		return true
	}
	return false
}
