package models

import (
	"math"

	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
)

// GeoPoint is a geocoded position. The core never sees raw addresses, only
// points that already passed through the geocoding collaborator.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks that both components are finite and inside WGS84 bounds.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) ||
		math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return types.ErrInvalidCoordinates
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return types.ErrInvalidCoordinates
	}
	return nil
}

// DistanceTo returns the planar Euclidean distance between two points.
// Routing works on this proxy instead of road distance; the road-network
// integration lives outside the core.
func (p GeoPoint) DistanceTo(other GeoPoint) float64 {
	dLat := p.Lat - other.Lat
	dLng := p.Lng - other.Lng
	return math.Sqrt(dLat*dLat + dLng*dLng)
}
