// Package schedule serves the current Splatoon 2 battle rotation and Salmon
// Run shift from splatoon2.ink through a single-slot snapshot cache.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"neubott/internal/metrics"
)

// ErrRemoteFetch wraps every failure to obtain a fresh document.
var ErrRemoteFetch = errors.New("remote fetch failed")

// DefaultBaseURL is the public schedule source.
const DefaultBaseURL = "https://splatoon2.ink"

// Kind selects one of the two cached documents.
type Kind string

// Cached document kinds.
const (
	KindRotation Kind = "rotation"
	KindShift    Kind = "shift"
)

// Slot is the storage name of the kind's snapshot.
func (k Kind) Slot() string {
	if k == KindShift {
		return "spl2-salmonrun"
	}
	return "spl2-battle"
}

func (k Kind) path() string {
	if k == KindShift {
		return "/data/coop-schedules.json"
	}
	return "/data/schedules.json"
}

// Cache returns current schedules, refreshing a snapshot only once it expired.
type Cache struct {
	store   SnapshotStore
	fetcher *Fetcher
	baseURL string
	log     *slog.Logger
	now     func() time.Time
	group   singleflight.Group
}

// NewCache creates a Cache reading from baseURL (DefaultBaseURL when empty).
func NewCache(store SnapshotStore, fetcher *Fetcher, baseURL string, log *slog.Logger) *Cache {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Cache{
		store:   store,
		fetcher: fetcher,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     log,
		now:     time.Now,
	}
}

// SetClock overrides the time source used for freshness checks.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// Rotation returns the current battle rotation.
func (c *Cache) Rotation(ctx context.Context) (RotationSummary, error) {
	began := time.Now()
	doc, cached, err := current(ctx, c, KindRotation, ParseSchedules)
	if err != nil {
		return RotationSummary{}, err
	}
	sum := SummarizeRotation(doc, c.now())
	sum.Cached = cached
	sum.Elapsed = time.Since(began)
	return sum, nil
}

// Shift returns the current Salmon Run shift.
func (c *Cache) Shift(ctx context.Context) (ShiftSummary, error) {
	began := time.Now()
	doc, cached, err := current(ctx, c, KindShift, ParseCoopSchedules)
	if err != nil {
		return ShiftSummary{}, err
	}
	sum := SummarizeShift(doc, c.now(), c.baseURL+"/assets/splatnet")
	sum.Cached = cached
	sum.Elapsed = time.Since(began)
	return sum, nil
}

// current returns the snapshot of kind when it is still valid, otherwise a
// freshly fetched document that has already been persisted. A snapshot that
// cannot be read or parsed counts as absent.
func current[D windowed](ctx context.Context, c *Cache, kind Kind, parse func([]byte) (D, error)) (D, bool, error) {
	var zero D

	raw, err := c.store.Load(ctx, kind)
	switch {
	case errors.Is(err, ErrNoSnapshot):
	case err != nil:
		c.log.Warn("load snapshot", "kind", kind, "error", err)
	default:
		doc, err := parse(raw)
		if err != nil {
			c.log.Warn("discard unreadable snapshot", "kind", kind, "error", err)
			break
		}
		_, end, _ := doc.window()
		if c.now().Before(end) {
			metrics.ScheduleCacheHits.WithLabelValues(string(kind)).Inc()
			return doc, true, nil
		}
		c.log.Debug("snapshot expired", "kind", kind, "end_time", end)
	}

	v, err, _ := c.group.Do(string(kind), func() (any, error) {
		return fetchFresh(ctx, c, kind, parse)
	})
	if err != nil {
		return zero, false, err
	}
	return v.(D), false, nil
}

// fetchFresh downloads and parses kind, then overwrites its snapshot.
// A failed save is logged; the fresh document is still served.
func fetchFresh[D windowed](ctx context.Context, c *Cache, kind Kind, parse func([]byte) (D, error)) (D, error) {
	var zero D
	url := c.baseURL + kind.path()

	body, err := c.fetcher.Fetch(ctx, url)
	if err == nil {
		var doc D
		if doc, err = parse(body); err == nil {
			metrics.ObserveFetch(string(kind), nil)
			if err := c.store.Save(ctx, kind, body); err != nil {
				c.log.Error("save snapshot", "kind", kind, "error", err)
			}
			c.log.Info("schedule refreshed", "kind", kind, "url", url)
			return doc, nil
		}
	}

	metrics.ObserveFetch(string(kind), err)
	c.log.Error("fetch schedule", "kind", kind, "url", url, "error", err)
	return zero, fmt.Errorf("%w: %w", ErrRemoteFetch, err)
}
