package models

import (
	"time"

	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
)

// Route is one vehicle's sequenced stop list for a single assignment pass.
// A new pass supersedes the previous route, it is never mutated in place.
type Route struct {
	ID            uuid.UUID `json:"id"`
	VehicleID     uuid.UUID `json:"vehicle_id"`
	Stops         []Order   `json:"stops"`
	TotalDistance float64   `json:"total_distance"`
	CreatedAt     time.Time `json:"created_at"`
}

// StopIDs returns the ids of the route stops in visiting order.
func (r *Route) StopIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Stops))
	for _, o := range r.Stops {
		ids = append(ids, o.ID)
	}
	return ids
}

// RouteResult reports the per-vehicle outcome of one assignment pass.
// Persistence failures for one vehicle do not block the others, so a single
// pass can carry both successes and failures.
type RouteResult struct {
	VehicleID uuid.UUID `json:"vehicle_id"`
	Route     *Route    `json:"route,omitempty"`
	Err       error     `json:"-"`
	Error     string    `json:"error,omitempty"`
}

/* ======================= rabbitmq ======================= */

type RouteAssignedMessage struct {
	RouteID       uuid.UUID `json:"route_id"`
	VehicleID     uuid.UUID `json:"vehicle_id"`
	StopCount     int       `json:"stop_count"`
	TotalDistance float64   `json:"total_distance"`
	Timestamp     time.Time `json:"timestamp"`
}
