package models

import (
	"time"

	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
)

// Shift binds one driver, one vehicle and one route together for the duration
// of a working shift. At most one shift per driver may be ACTIVE at a time.
type Shift struct {
	ID        uuid.UUID         `json:"id"`
	DriverID  uuid.UUID         `json:"driver_id"`
	VehicleID uuid.UUID         `json:"vehicle_id"`
	Route     Route             `json:"route"`
	Status    types.ShiftStatus `json:"status"`
	StartedAt time.Time         `json:"started_at"`
	EndedAt   *time.Time        `json:"ended_at,omitempty"`
}

// UnresolvedOrderIDs returns ids of stops that are not yet in a terminal
// status, in route order.
func (s *Shift) UnresolvedOrderIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, o := range s.Route.Stops {
		if !o.Status.Terminal() {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

/* ======================= rabbitmq ======================= */

type ShiftEventMessage struct {
	ShiftID   uuid.UUID `json:"shift_id"`
	DriverID  uuid.UUID `json:"driver_id"`
	VehicleID uuid.UUID `json:"vehicle_id"`
	Event     string    `json:"event"` // "shift_started" | "shift_ended" | "shift_force_ended"
	Timestamp time.Time `json:"timestamp"`
}
