package dispatch

import (
	"time"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
)

// Sequence orders one vehicle's stop group into a visitable route using
// greedy nearest-neighbor construction from the vehicle's origin.
//
// At each step the unvisited stop closest to the last visited point wins;
// distance ties go to the lowest order id. This is intentionally a greedy
// O(n²) heuristic, not a TSP solver, and the tie-break rule is part of the
// contract so repeated runs produce identical routes.
func Sequence(vehicleID uuid.UUID, stops []models.Order, origin models.GeoPoint) models.Route {
	route := models.Route{
		ID:        uuid.MustNew(),
		VehicleID: vehicleID,
		Stops:     make([]models.Order, 0, len(stops)),
		CreatedAt: time.Now().UTC(),
	}

	remaining := make([]models.Order, len(stops))
	copy(remaining, stops)

	current := origin
	for len(remaining) > 0 {
		best := 0
		bestDist := current.DistanceTo(remaining[0].Geo)

		for i := 1; i < len(remaining); i++ {
			d := current.DistanceTo(remaining[i].Geo)
			if d < bestDist || (d == bestDist && lessID(remaining[i].ID, remaining[best].ID)) {
				best = i
				bestDist = d
			}
		}

		chosen := remaining[best]
		route.Stops = append(route.Stops, chosen)
		route.TotalDistance += bestDist
		current = chosen.Geo

		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	return route
}

func lessID(a, b uuid.UUID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
