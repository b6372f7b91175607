// Package scheduler refreshes the Splatoon schedule snapshots in the
// background so chat lookups are usually served from cache.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"neubott/internal/schedule"
)

// Source is the schedule cache being kept warm.
type Source interface {
	Rotation(ctx context.Context) (schedule.RotationSummary, error)
	Shift(ctx context.Context) (schedule.ShiftSummary, error)
}

// Scheduler periodically asks the cache for both documents. The cache only
// goes to the network for a snapshot that has expired.
type Scheduler struct {
	source Source
	log    *slog.Logger
	tick   time.Duration
}

// New creates a Scheduler with a 5-minute interval.
func New(source Source, log *slog.Logger) *Scheduler {
	return &Scheduler{
		source: source,
		log:    log,
		tick:   5 * time.Minute,
	}
}

// SetTickInterval overrides the default 5-minute interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.refreshAll(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshAll(ctx)
		}
	}
}

func (s *Scheduler) refreshAll(ctx context.Context) {
	rotation, err := s.source.Rotation(ctx)
	if err != nil {
		s.log.Error("refresh rotation", "error", err)
	} else if !rotation.Cached {
		s.log.Debug("rotation snapshot replaced", "remaining", rotation.Remaining)
	}

	if ctx.Err() != nil {
		return
	}

	shift, err := s.source.Shift(ctx)
	if err != nil {
		s.log.Error("refresh shift", "error", err)
	} else if !shift.Cached {
		s.log.Debug("shift snapshot replaced", "open", shift.Open)
	}
}
