package tracking_test

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/internal/service/tracking"
	"github.com/aibekzh/fleet-dispatch/pkg/logger"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubShiftDirectory struct {
	mu     sync.Mutex
	active map[uuid.UUID]bool
}

func newStubDirectory(active ...uuid.UUID) *stubShiftDirectory {
	d := &stubShiftDirectory{active: make(map[uuid.UUID]bool)}
	for _, id := range active {
		d.active[id] = true
	}
	return d
}

func (d *stubShiftDirectory) IsShiftActive(shiftID uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active[shiftID]
}

type stubFanout struct {
	mu        sync.Mutex
	published []models.LocationFanoutMessage
}

func (f *stubFanout) PublishLocation(_ context.Context, msg models.LocationFanoutMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, msg)
	return nil
}

func (f *stubFanout) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func newChannel(dir *stubShiftDirectory, fanout *stubFanout, bufSize int) *tracking.Channel {
	return tracking.NewChannel(dir, fanout, "tracking-test", bufSize, logger.InitLogger("tracking-test", logger.LevelError))
}

// drain collects everything currently buffered without blocking.
func drain(sub *tracking.Subscriber) []models.LocationReport {
	var out []models.LocationReport
	for {
		select {
		case r, ok := <-sub.Feed():
			if !ok {
				return out
			}
			out = append(out, r)
		default:
			return out
		}
	}
}

func TestReportDeliveredToSubscribers(t *testing.T) {
	shiftID := uuid.MustNew()
	fanout := &stubFanout{}
	ch := newChannel(newStubDirectory(shiftID), fanout, 8)

	first, stopFirst := ch.Subscribe(t.Context())
	defer stopFirst()
	second, stopSecond := ch.Subscribe(t.Context())
	defer stopSecond()

	geo := models.GeoPoint{Lat: 51.1, Lng: 71.4}
	now := time.Now().UTC()
	require.NoError(t, ch.Report(t.Context(), shiftID, geo, now))

	for _, sub := range []*tracking.Subscriber{first, second} {
		got := drain(sub)
		require.Len(t, got, 1)
		assert.Equal(t, shiftID, got[0].ShiftID)
		assert.Equal(t, geo, got[0].Geo)
		assert.Equal(t, now, got[0].ReportedAt)
	}

	assert.Equal(t, 1, fanout.count())
}

func TestReportInvalidCoordinates(t *testing.T) {
	shiftID := uuid.MustNew()
	ch := newChannel(newStubDirectory(shiftID), &stubFanout{}, 8)

	err := ch.Report(t.Context(), shiftID, models.GeoPoint{Lat: 91, Lng: 0}, time.Now())
	require.ErrorIs(t, err, types.ErrInvalidCoordinates)
}

func TestReportInactiveShiftDroppedSilently(t *testing.T) {
	fanout := &stubFanout{}
	ch := newChannel(newStubDirectory(), fanout, 8)

	sub, stop := ch.Subscribe(t.Context())
	defer stop()

	// Post-shift stragglers are noise, not errors.
	err := ch.Report(t.Context(), uuid.MustNew(), models.GeoPoint{Lat: 1, Lng: 1}, time.Now())
	require.NoError(t, err)

	assert.Empty(t, drain(sub))
	assert.Zero(t, fanout.count())
}

func TestReportStaleTimestampDropped(t *testing.T) {
	shiftID := uuid.MustNew()
	ch := newChannel(newStubDirectory(shiftID), &stubFanout{}, 8)

	sub, stop := ch.Subscribe(t.Context())
	defer stop()

	base := time.Now().UTC()
	require.NoError(t, ch.Report(t.Context(), shiftID, models.GeoPoint{Lat: 1, Lng: 1}, base))
	require.NoError(t, ch.Report(t.Context(), shiftID, models.GeoPoint{Lat: 2, Lng: 2}, base.Add(-time.Second)))
	// Equal timestamps are allowed, only strictly older ones are dropped.
	require.NoError(t, ch.Report(t.Context(), shiftID, models.GeoPoint{Lat: 3, Lng: 3}, base))

	got := drain(sub)
	require.Len(t, got, 2)
	assert.Equal(t, 1.0, got[0].Geo.Lat)
	assert.Equal(t, 3.0, got[1].Geo.Lat)
}

func TestStaleWatermarkClearedAfterShiftEnds(t *testing.T) {
	shiftID := uuid.MustNew()
	dir := newStubDirectory(shiftID)
	ch := newChannel(dir, &stubFanout{}, 8)

	sub, stop := ch.Subscribe(t.Context())
	defer stop()

	base := time.Now().UTC()
	require.NoError(t, ch.Report(t.Context(), shiftID, models.GeoPoint{Lat: 1, Lng: 1}, base))

	// Shift ends; a straggler clears the watermark.
	dir.mu.Lock()
	delete(dir.active, shiftID)
	dir.mu.Unlock()
	require.NoError(t, ch.Report(t.Context(), shiftID, models.GeoPoint{Lat: 2, Lng: 2}, base.Add(time.Second)))

	// Shift id reused for a new run: older wall-clock times are valid again.
	dir.mu.Lock()
	dir.active[shiftID] = true
	dir.mu.Unlock()
	require.NoError(t, ch.Report(t.Context(), shiftID, models.GeoPoint{Lat: 3, Lng: 3}, base.Add(-time.Hour)))

	got := drain(sub)
	require.Len(t, got, 2)
	assert.Equal(t, 3.0, got[1].Geo.Lat)
}

func TestSlowSubscriberLosesOldest(t *testing.T) {
	shiftID := uuid.MustNew()
	ch := newChannel(newStubDirectory(shiftID), &stubFanout{}, 2)

	sub, stop := ch.Subscribe(t.Context())
	defer stop()

	base := time.Now().UTC()
	for i := 0; i < 4; i++ {
		geo := models.GeoPoint{Lat: float64(i), Lng: 0}
		require.NoError(t, ch.Report(t.Context(), shiftID, geo, base.Add(time.Duration(i)*time.Second)))
	}

	// Buffer held two; the two oldest were pushed out, the newest survive.
	got := drain(sub)
	require.Len(t, got, 2)
	assert.Equal(t, 2.0, got[0].Geo.Lat)
	assert.Equal(t, 3.0, got[1].Geo.Lat)
}

func TestSlowSubscriberDoesNotAffectOthers(t *testing.T) {
	shiftID := uuid.MustNew()
	ch := newChannel(newStubDirectory(shiftID), &stubFanout{}, 2)

	slow, stopSlow := ch.Subscribe(t.Context())
	defer stopSlow()
	fast, stopFast := ch.Subscribe(t.Context())
	defer stopFast()

	base := time.Now().UTC()
	var fastGot []models.LocationReport
	for i := 0; i < 5; i++ {
		geo := models.GeoPoint{Lat: float64(i), Lng: 0}
		require.NoError(t, ch.Report(t.Context(), shiftID, geo, base.Add(time.Duration(i)*time.Second)))
		fastGot = append(fastGot, drain(fast)...)
	}

	require.Len(t, fastGot, 5)
	for i, r := range fastGot {
		assert.Equal(t, float64(i), r.Geo.Lat)
	}
	assert.Len(t, drain(slow), 2)
}

func TestUnsubscribeClosesFeed(t *testing.T) {
	ch := newChannel(newStubDirectory(), &stubFanout{}, 8)

	sub, stop := ch.Subscribe(t.Context())
	stop()

	_, open := <-sub.Feed()
	assert.False(t, open)

	// Idempotent.
	stop()
}

func TestContextCancelUnsubscribes(t *testing.T) {
	ch := newChannel(newStubDirectory(), &stubFanout{}, 8)

	ctx, cancel := context.WithCancel(t.Context())
	sub, _ := ch.Subscribe(ctx)
	cancel()

	select {
	case _, open := <-sub.Feed():
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("feed not closed after context cancel")
	}
}

func TestUnsubscribeReleasesWatcherGoroutine(t *testing.T) {
	ch := newChannel(newStubDirectory(), &stubFanout{}, 8)

	before := runtime.NumGoroutine()

	// A background context never cancels, so only the unsubscribe path can
	// release the per-subscriber watcher.
	stops := make([]func(), 0, 32)
	for i := 0; i < 32; i++ {
		_, stop := ch.Subscribe(context.Background())
		stops = append(stops, stop)
	}
	for _, stop := range stops {
		stop()
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= before {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("%d goroutines still running, expected at most %d", runtime.NumGoroutine(), before)
}

func TestReportAfterUnsubscribeDoesNotPanic(t *testing.T) {
	shiftID := uuid.MustNew()
	ch := newChannel(newStubDirectory(shiftID), &stubFanout{}, 2)

	_, stop := ch.Subscribe(t.Context())
	stop()

	require.NoError(t, ch.Report(t.Context(), shiftID, models.GeoPoint{Lat: 1, Lng: 1}, time.Now()))
}
