package models_test

import (
	"math"
	"testing"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoPointValidate(t *testing.T) {
	valid := []models.GeoPoint{
		{Lat: 0, Lng: 0},
		{Lat: 90, Lng: 180},
		{Lat: -90, Lng: -180},
		{Lat: 51.1282, Lng: 71.4307},
	}
	for _, p := range valid {
		assert.NoError(t, p.Validate(), "point %+v", p)
	}

	invalid := []models.GeoPoint{
		{Lat: 90.0001, Lng: 0},
		{Lat: -91, Lng: 0},
		{Lat: 0, Lng: 180.5},
		{Lat: 0, Lng: -181},
		{Lat: math.NaN(), Lng: 0},
		{Lat: 0, Lng: math.Inf(1)},
	}
	for _, p := range invalid {
		assert.ErrorIs(t, p.Validate(), types.ErrInvalidCoordinates, "point %+v", p)
	}
}

func TestGeoPointDistanceTo(t *testing.T) {
	a := models.GeoPoint{Lat: 0, Lng: 0}
	b := models.GeoPoint{Lat: 3, Lng: 4}

	require.InDelta(t, 5.0, a.DistanceTo(b), 1e-9)
	require.InDelta(t, 5.0, b.DistanceTo(a), 1e-9)
	require.Zero(t, a.DistanceTo(a))
}
