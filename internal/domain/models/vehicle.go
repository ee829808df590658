package models

import (
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
)

// Vehicle is a fleet member eligible for assignment. Owned by the fleet
// directory, read-only to the dispatch core.
type Vehicle struct {
	ID       uuid.UUID `json:"id"`
	Plate    string    `json:"plate"`
	Origin   GeoPoint  `json:"origin"`
	Capacity *int      `json:"capacity,omitempty"`
}
