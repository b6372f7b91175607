package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var (
	duringRotation = time.Unix(1700000000+600, 0)
	rotationEnd    = time.Unix(1700007200, 0)
)

func newTestCache(t *testing.T, transport *mockTransport, now time.Time) (*Cache, string) {
	t.Helper()
	dir := t.TempDir()
	c := NewCache(NewFileStore(dir), NewFetcher(transport), "https://example.com/", slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.SetClock(func() time.Time { return now })
	return c, dir
}

func fixtureTransport(t *testing.T) *mockTransport {
	t.Helper()
	return &mockTransport{bodies: map[string]string{
		"/data/schedules.json":      loadFixture(t, "testdata/schedules.json"),
		"/data/coop-schedules.json": loadFixture(t, "testdata/coop-schedules.json"),
	}}
}

func TestCacheRotationFetchesWhenEmpty(t *testing.T) {
	transport := fixtureTransport(t)
	c, dir := newTestCache(t, transport, duringRotation)

	sum, err := c.Rotation(context.Background())
	if err != nil {
		t.Fatalf("Rotation: %v", err)
	}
	if sum.Cached {
		t.Error("expected fresh result, got cached")
	}
	if diff := cmp.Diff("Turf War", sum.TurfWar.Rule); diff != "" {
		t.Errorf("rule mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/data/schedules.json"}, transport.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(dir, "spl2-battle.json")); err != nil {
		t.Errorf("snapshot not written: %v", err)
	}
}

func TestCacheRotationServesFreshSnapshot(t *testing.T) {
	transport := fixtureTransport(t)
	c, _ := newTestCache(t, transport, duringRotation)

	if _, err := c.Rotation(context.Background()); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	sum, err := c.Rotation(context.Background())
	if err != nil {
		t.Fatalf("Rotation: %v", err)
	}
	if !sum.Cached {
		t.Error("expected cached result")
	}
	if diff := cmp.Diff(1, transport.callCount()); diff != "" {
		t.Errorf("fetch count mismatch (-want +got):\n%s", diff)
	}
}

func TestCacheRefetchesAtEndTime(t *testing.T) {
	transport := fixtureTransport(t)
	c, dir := newTestCache(t, transport, duringRotation)

	if _, err := c.Rotation(context.Background()); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	// The next rotation window ends four hours after the first one.
	nextEnd := rotationEnd.Add(4 * time.Hour)
	transport.bodies["/data/schedules.json"] = strings.ReplaceAll(
		transport.bodies["/data/schedules.json"],
		`"end_time": `+strconv.FormatInt(rotationEnd.Unix(), 10),
		`"end_time": `+strconv.FormatInt(nextEnd.Unix(), 10),
	)

	c.SetClock(func() time.Time { return rotationEnd })
	sum, err := c.Rotation(context.Background())
	if err != nil {
		t.Fatalf("Rotation: %v", err)
	}
	if sum.Cached {
		t.Error("snapshot at its end time must not be served")
	}
	if diff := cmp.Diff(4*time.Hour, sum.Remaining); diff != "" {
		t.Errorf("remaining mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(2, transport.callCount()); diff != "" {
		t.Errorf("fetch count mismatch (-want +got):\n%s", diff)
	}

	raw, err := NewFileStore(dir).Load(context.Background(), KindRotation)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	stored, err := ParseSchedules(raw)
	if err != nil {
		t.Fatalf("ParseSchedules: %v", err)
	}
	if diff := cmp.Diff(nextEnd.Unix(), stored.Regular[0].EndTime); diff != "" {
		t.Errorf("stored end time mismatch (-want +got):\n%s", diff)
	}

	sum, err = c.Rotation(context.Background())
	if err != nil {
		t.Fatalf("Rotation: %v", err)
	}
	if !sum.Cached {
		t.Error("replaced snapshot should be served from cache")
	}
}

func TestCacheFetchFailure(t *testing.T) {
	transport := fixtureTransport(t)
	c, _ := newTestCache(t, transport, duringRotation)

	if _, err := c.Rotation(context.Background()); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	// Stale snapshots are never served when the refresh fails.
	c.SetClock(func() time.Time { return rotationEnd.Add(time.Minute) })
	transport.err = io.ErrUnexpectedEOF

	_, err := c.Rotation(context.Background())
	if !errors.Is(err, ErrRemoteFetch) {
		t.Fatalf("error = %v, want ErrRemoteFetch", err)
	}
}

func TestCacheInvalidRemoteDocument(t *testing.T) {
	transport := &mockTransport{bodies: map[string]string{"/data/schedules.json": "<html>maintenance</html>"}}
	c, dir := newTestCache(t, transport, duringRotation)

	_, err := c.Rotation(context.Background())
	if !errors.Is(err, ErrRemoteFetch) {
		t.Fatalf("error = %v, want ErrRemoteFetch", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "spl2-battle.json")); !os.IsNotExist(err) {
		t.Errorf("invalid document must not be saved, stat err = %v", err)
	}
}

func TestCacheReplacesCorruptSnapshot(t *testing.T) {
	transport := fixtureTransport(t)
	c, dir := newTestCache(t, transport, duringRotation)

	if err := os.WriteFile(filepath.Join(dir, "spl2-battle.json"), []byte("{broken"), 0o600); err != nil {
		t.Fatalf("write corrupt snapshot: %v", err)
	}

	sum, err := c.Rotation(context.Background())
	if err != nil {
		t.Fatalf("Rotation: %v", err)
	}
	if sum.Cached {
		t.Error("corrupt snapshot must not be reported as cached")
	}
	if diff := cmp.Diff(1, transport.callCount()); diff != "" {
		t.Errorf("fetch count mismatch (-want +got):\n%s", diff)
	}
}

func TestCacheShift(t *testing.T) {
	transport := fixtureTransport(t)
	c, dir := newTestCache(t, transport, time.Unix(1700000000+3600, 0))

	sum, err := c.Shift(context.Background())
	if err != nil {
		t.Fatalf("Shift: %v", err)
	}
	if !sum.Open {
		t.Fatal("expected open shift")
	}
	if diff := cmp.Diff(33*time.Hour, sum.Remaining); diff != "" {
		t.Errorf("remaining mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("https://example.com/assets/splatnet/images/coop_stage/smokeyard.png", sum.StageImage); diff != "" {
		t.Errorf("stage image mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/data/coop-schedules.json"}, transport.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(dir, "spl2-salmonrun.json")); err != nil {
		t.Errorf("snapshot not written: %v", err)
	}

	if _, err := c.Shift(context.Background()); err != nil {
		t.Fatalf("second Shift: %v", err)
	}
	if diff := cmp.Diff(1, transport.callCount()); diff != "" {
		t.Errorf("fetch count mismatch (-want +got):\n%s", diff)
	}
}
