package wshandler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/pkg/logger"
	wrap "github.com/aibekzh/fleet-dispatch/pkg/logger/wrapper"
	"github.com/aibekzh/fleet-dispatch/pkg/metrics"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
	ws "github.com/aibekzh/fleet-dispatch/pkg/wshub"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ShiftResolver maps a driver to their active shift id.
type ShiftResolver interface {
	ShiftForDriver(driverID uuid.UUID) (uuid.UUID, bool)
}

// LocationSink ingests position samples coming off a driver socket.
type LocationSink interface {
	Report(ctx context.Context, shiftID uuid.UUID, geo models.GeoPoint, reportedAt time.Time) error
}

// DriverWS serves the per-driver location socket. One socket per driver; a
// reconnect replaces the previous registration.
type DriverWS struct {
	hub    *ws.ConnectionHub
	shifts ShiftResolver
	sink   LocationSink

	serviceName string
	l           logger.Logger
}

func NewDriverWS(hub *ws.ConnectionHub, shifts ShiftResolver, sink LocationSink, serviceName string, l logger.Logger) *DriverWS {
	return &DriverWS{
		hub:         hub,
		shifts:      shifts,
		sink:        sink,
		serviceName: serviceName,
		l:           l,
	}
}

// Handle upgrades GET /ws/drivers/{driver_id} and pumps inbound
// location_report frames into the tracking channel until the peer hangs up.
func (h *DriverWS) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionReportLocation)

	driverID, err := uuid.Parse(r.PathValue("driver_id"))
	if err != nil {
		http.Error(w, "invalid driver uuid format", http.StatusBadRequest)
		return
	}
	ctx = wrap.WithDriverID(ctx, driverID.String())

	// Resolve the shift before committing to the upgrade; a driver without an
	// active shift has nothing to report.
	shiftID, ok := h.shifts.ShiftForDriver(driverID)
	if !ok {
		http.Error(w, types.ErrShiftNotFound.Error(), http.StatusNotFound)
		return
	}
	ctx = wrap.WithShiftID(ctx, shiftID.String())

	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "websocket upgrade failed", err)
		return
	}

	conn := ws.NewConn(ctx, driverID, sock)
	if err := h.hub.Add(conn); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to register driver connection", err)
		_ = conn.Close()
		return
	}

	metrics.WebSocketConnectionsGauge.WithLabelValues(h.serviceName, "driver").Inc()
	defer func() {
		_ = h.hub.Delete(driverID)
		metrics.WebSocketConnectionsGauge.WithLabelValues(h.serviceName, "driver").Dec()
	}()

	h.l.Info(ctx, "driver connected")

	err = conn.Listen(func(msg map[string]any) error {
		frame, err := decodeLocationFrame(msg)
		if err != nil {
			// Malformed frames don't kill the socket, the driver app just
			// gets told and keeps going.
			_ = errorResponse(conn, err.Error())
			return nil
		}

		if err := h.sink.Report(ctx, shiftID, models.GeoPoint{Lat: frame.Lat, Lng: frame.Lng}, frame.ReportedAt); err != nil {
			_ = errorResponse(conn, err.Error())
		}
		return nil
	})
	if err != nil {
		h.l.Debug(ctx, "driver connection closed", "reason", err.Error())
	}
}

func decodeLocationFrame(msg map[string]any) (*models.DriverLocationFrame, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	var frame models.DriverLocationFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, err
	}

	if frame.Type != "location_report" {
		return nil, errUnknownFrameType(frame.Type)
	}
	if frame.ReportedAt.IsZero() {
		frame.ReportedAt = time.Now().UTC()
	}

	return &frame, nil
}

type errUnknownFrameType string

func (e errUnknownFrameType) Error() string {
	return "unknown frame type: " + string(e)
}
