package wshandler

import (
	"context"
	"net/http"

	"github.com/aibekzh/fleet-dispatch/internal/service/tracking"
	"github.com/aibekzh/fleet-dispatch/pkg/logger"
	wrap "github.com/aibekzh/fleet-dispatch/pkg/logger/wrapper"
	"github.com/aibekzh/fleet-dispatch/pkg/metrics"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
	ws "github.com/aibekzh/fleet-dispatch/pkg/wshub"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
)

// LocationFeed hands out live location subscriptions. Implemented by the
// tracking channel.
type LocationFeed interface {
	Subscribe(ctx context.Context) (*tracking.Subscriber, func())
}

// DashboardWS serves dashboard feed sockets. Every session gets its own
// bounded subscription to the tracking channel; a slow dashboard loses old
// frames instead of slowing ingestion down.
type DashboardWS struct {
	hub  *ws.ConnectionHub
	feed LocationFeed

	serviceName string
	l           logger.Logger
}

func NewDashboardWS(hub *ws.ConnectionHub, feed LocationFeed, serviceName string, l logger.Logger) *DashboardWS {
	return &DashboardWS{
		hub:         hub,
		feed:        feed,
		serviceName: serviceName,
		l:           l,
	}
}

// Handle upgrades GET /ws/dashboard and streams location_update frames until
// the peer disconnects.
func (h *DashboardWS) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "dashboard_feed")

	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "websocket upgrade failed", err)
		return
	}

	sessionID := uuid.MustNew()
	conn := ws.NewConn(ctx, sessionID, sock)
	if err := h.hub.Add(conn); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to register dashboard connection", err)
		_ = conn.Close()
		return
	}

	metrics.WebSocketConnectionsGauge.WithLabelValues(h.serviceName, "dashboard").Inc()
	defer func() {
		_ = h.hub.Delete(sessionID)
		metrics.WebSocketConnectionsGauge.WithLabelValues(h.serviceName, "dashboard").Dec()
	}()

	sub, unsubscribe := h.feed.Subscribe(ctx)
	defer unsubscribe()

	h.l.Info(ctx, "dashboard connected", "session_id", sessionID)

	// Writer: pump the subscription into the socket. Ends when the feed is
	// closed by unsubscribe or the write fails.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for report := range sub.Feed() {
			frame := models.DashboardLocationFrame{
				Type:       "location_update",
				ShiftID:    report.ShiftID,
				Lat:        report.Geo.Lat,
				Lng:        report.Geo.Lng,
				ReportedAt: report.ReportedAt,
			}
			if err := conn.Send(frame); err != nil {
				h.l.Debug(ctx, "dashboard send failed", "session_id", sessionID, "err", err.Error())
				return
			}
		}
	}()

	// Reader: dashboards don't send anything meaningful; the read loop exists
	// to notice the disconnect.
	if err := conn.Listen(func(map[string]any) error { return nil }); err != nil {
		h.l.Debug(ctx, "dashboard connection closed", "session_id", sessionID, "reason", err.Error())
	}

	unsubscribe()
	<-done
}
