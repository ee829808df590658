package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/pkg/logger"
	wrap "github.com/aibekzh/fleet-dispatch/pkg/logger/wrapper"
	"github.com/aibekzh/fleet-dispatch/pkg/metrics"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
)

// ShiftDirectory answers whether a shift id is currently active. Backed by
// the shift service's registry.
type ShiftDirectory interface {
	IsShiftActive(shiftID uuid.UUID) bool
}

// Publisher relays accepted reports to the location fanout exchange for
// consumers outside this process.
type Publisher interface {
	PublishLocation(ctx context.Context, msg models.LocationFanoutMessage) error
}

// Channel is the live-position ingestion/broadcast path. Many driver
// connections report concurrently; many dashboard sessions subscribe
// concurrently. Ingestion never blocks on a slow subscriber: each subscriber
// owns a bounded buffer and loses its oldest report when it falls behind.
//
// Reports for inactive shifts and reports older than the last one seen for
// their shift are dropped and counted, never surfaced as errors: post-shift
// network noise and reordered packets are expected.
type Channel struct {
	shifts    ShiftDirectory
	publisher Publisher

	mu       sync.Mutex
	subs     map[*Subscriber]struct{}
	lastSeen map[uuid.UUID]time.Time

	serviceName string
	bufSize     int
	l           logger.Logger
}

// Subscriber is one dashboard consumer of the live feed.
type Subscriber struct {
	ch   chan models.LocationReport
	done chan struct{}
	once sync.Once
}

// Feed returns the subscriber's report stream. Closed on unsubscribe.
func (s *Subscriber) Feed() <-chan models.LocationReport {
	return s.ch
}

func NewChannel(shifts ShiftDirectory, publisher Publisher, serviceName string, bufSize int, l logger.Logger) *Channel {
	if bufSize <= 0 {
		bufSize = 64
	}
	return &Channel{
		shifts:      shifts,
		publisher:   publisher,
		subs:        make(map[*Subscriber]struct{}),
		lastSeen:    make(map[uuid.UUID]time.Time),
		serviceName: serviceName,
		bufSize:     bufSize,
		l:           l,
	}
}

// Report ingests one position sample for a shift. Invalid coordinates are the
// only error path; drops are silent by contract.
func (c *Channel) Report(ctx context.Context, shiftID uuid.UUID, geo models.GeoPoint, reportedAt time.Time) error {
	ctx = wrap.WithAction(ctx, types.ActionReportLocation)

	if err := geo.Validate(); err != nil {
		return wrap.Error(ctx, err)
	}

	if !c.shifts.IsShiftActive(shiftID) {
		// Lazy cleanup: the first straggler after shift end clears the
		// shift's ordering watermark.
		c.mu.Lock()
		delete(c.lastSeen, shiftID)
		c.mu.Unlock()

		metrics.RecordLocationDrop(c.serviceName, metrics.DropInactiveShift)
		c.l.Debug(ctx, "dropped report for inactive shift", "shift_id", shiftID)
		return nil
	}

	report := models.LocationReport{
		ShiftID:    shiftID,
		Geo:        geo,
		ReportedAt: reportedAt,
	}

	c.mu.Lock()
	// Per-shift timestamps must be non-decreasing; a late arrival is dropped
	// rather than reordered to keep the channel O(1) per message.
	if last, ok := c.lastSeen[shiftID]; ok && reportedAt.Before(last) {
		c.mu.Unlock()
		metrics.RecordLocationDrop(c.serviceName, metrics.DropStaleTimestamp)
		c.l.Debug(ctx, "dropped out-of-order report", "shift_id", shiftID)
		return nil
	}
	c.lastSeen[shiftID] = reportedAt

	// Delivery happens under the lock: every send below is non-blocking, and
	// closing a feed also takes the lock, so a send can never hit a closed
	// channel.
	for sub := range c.subs {
		c.offer(sub, report)
	}
	c.mu.Unlock()

	metrics.LocationReportsIngested.WithLabelValues(c.serviceName).Inc()
	c.publishFanout(ctx, report)

	return nil
}

// offer delivers the report without ever blocking the ingestion path. A full
// subscriber loses its oldest buffered report to make room. Called with c.mu
// held.
func (c *Channel) offer(sub *Subscriber, report models.LocationReport) {
	select {
	case sub.ch <- report:
		return
	default:
	}

	// Buffer full: drop oldest, then retry once. The subscriber may have
	// drained concurrently, in which case the second send just succeeds.
	select {
	case <-sub.ch:
		metrics.RecordLocationDrop(c.serviceName, metrics.DropSlowSubscriber)
	default:
	}

	select {
	case sub.ch <- report:
	default:
		metrics.RecordLocationDrop(c.serviceName, metrics.DropSlowSubscriber)
	}
}

// Subscribe registers a dashboard consumer. The feed is closed when the
// returned cancel function runs or the context ends.
func (c *Channel) Subscribe(ctx context.Context) (*Subscriber, func()) {
	sub := &Subscriber{
		ch:   make(chan models.LocationReport, c.bufSize),
		done: make(chan struct{}),
	}

	c.mu.Lock()
	c.subs[sub] = struct{}{}
	c.mu.Unlock()

	unsubscribe := func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if _, registered := c.subs[sub]; registered {
			delete(c.subs, sub)
			sub.once.Do(func() {
				close(sub.ch)
				close(sub.done)
			})
		}
	}

	// The watcher must also exit on explicit unsubscribe, or every subscriber
	// created with a long-lived context would leave a goroutine behind.
	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-sub.done:
		}
	}()

	return sub, unsubscribe
}

func (c *Channel) publishFanout(ctx context.Context, report models.LocationReport) {
	if c.publisher == nil {
		return
	}

	msg := models.LocationFanoutMessage{
		ShiftID:    report.ShiftID,
		Lat:        report.Geo.Lat,
		Lng:        report.Geo.Lng,
		ReportedAt: report.ReportedAt,
	}

	if err := c.publisher.PublishLocation(ctx, msg); err != nil {
		c.l.Warn(ctx, "failed to publish location to fanout", "err", err.Error())
	}
}
