package models

import (
	"time"

	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
)

// LocationReport is one position sample from an active shift. Transient: it is
// relayed to subscribers and the fanout exchange, never persisted by the core.
type LocationReport struct {
	ShiftID    uuid.UUID `json:"shift_id"`
	Geo        GeoPoint  `json:"geo"`
	ReportedAt time.Time `json:"reported_at"`
}

/* ======================= websocket ======================= */

// DriverLocationFrame is the inbound message on a driver's shift socket.
type DriverLocationFrame struct {
	Type       string    `json:"type"` // expected: "location_report"
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	ReportedAt time.Time `json:"reported_at"`
}

// DashboardLocationFrame is the outbound message on a dashboard feed socket.
type DashboardLocationFrame struct {
	Type       string    `json:"type"` // always "location_update"
	ShiftID    uuid.UUID `json:"shift_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	ReportedAt time.Time `json:"reported_at"`
}

/* ======================= rabbitmq ======================= */

// LocationFanoutMessage mirrors the in-process subscriber feed onto the
// location fanout exchange for off-box consumers.
type LocationFanoutMessage struct {
	ShiftID    uuid.UUID `json:"shift_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	ReportedAt time.Time `json:"reported_at"`
}
