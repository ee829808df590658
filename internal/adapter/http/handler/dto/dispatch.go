package dto

import (
	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/pkg/validator"
)

type CreateOrderRequest struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (r *CreateOrderRequest) Validate(v *validator.Validator) {
	v.Check(r.Address != "", "address", "must be provided")
	v.Check(len(r.Address) < 500, "address", "must be less than 500 characters")

	// Coordinates are optional as a pair; when one is present both must be.
	if r.Latitude != nil || r.Longitude != nil {
		v.Check(r.Latitude != nil, "latitude", "must be provided together with longitude")
		v.Check(r.Longitude != nil, "longitude", "must be provided together with latitude")
	}
	if r.Latitude != nil {
		v.Check(*r.Latitude >= -90 && *r.Latitude <= 90, "latitude", "must be between -90 and 90")
	}
	if r.Longitude != nil {
		v.Check(*r.Longitude >= -180 && *r.Longitude <= 180, "longitude", "must be between -180 and 180")
	}
}

// Geo returns the explicit coordinates, or nil when the address should be
// geocoded instead.
func (r *CreateOrderRequest) Geo() *models.GeoPoint {
	if r.Latitude == nil || r.Longitude == nil {
		return nil
	}
	return &models.GeoPoint{Lat: *r.Latitude, Lng: *r.Longitude}
}
