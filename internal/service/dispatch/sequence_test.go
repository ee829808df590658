package dispatch_test

import (
	"math"
	"testing"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/service/dispatch"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceNearestNeighborOrder(t *testing.T) {
	vehicleID := uuid.MustNew()
	origin := models.GeoPoint{Lat: 0, Lng: 0}

	near := orderAt(0, 1)
	mid := orderAt(0, 2)
	far := orderAt(0, 3)

	// Deliberately shuffled input.
	route := dispatch.Sequence(vehicleID, []models.Order{far, near, mid}, origin)

	require.Len(t, route.Stops, 3)
	assert.Equal(t, near.ID, route.Stops[0].ID)
	assert.Equal(t, mid.ID, route.Stops[1].ID)
	assert.Equal(t, far.ID, route.Stops[2].ID)

	assert.Equal(t, vehicleID, route.VehicleID)
	assert.InDelta(t, 3.0, route.TotalDistance, 1e-9)
	assert.False(t, route.ID.IsNil())
}

func TestSequenceTotalDistanceAccumulates(t *testing.T) {
	origin := models.GeoPoint{Lat: 0, Lng: 0}
	a := orderAt(1, 1)
	b := orderAt(2, 2)

	route := dispatch.Sequence(uuid.MustNew(), []models.Order{b, a}, origin)

	require.Len(t, route.Stops, 2)
	assert.InDelta(t, 2*math.Sqrt2, route.TotalDistance, 1e-9)
}

func TestSequenceEquidistantTieGoesToLowerID(t *testing.T) {
	origin := models.GeoPoint{Lat: 0, Lng: 0}

	low := models.Order{ID: uuid.UUID{0x01}, Geo: models.GeoPoint{Lat: 0, Lng: 1}}
	high := models.Order{ID: uuid.UUID{0x02}, Geo: models.GeoPoint{Lat: 1, Lng: 0}}

	route := dispatch.Sequence(uuid.MustNew(), []models.Order{high, low}, origin)

	require.Len(t, route.Stops, 2)
	assert.Equal(t, low.ID, route.Stops[0].ID)
	assert.Equal(t, high.ID, route.Stops[1].ID)
}

func TestSequenceDeterministic(t *testing.T) {
	origin := models.GeoPoint{Lat: 10, Lng: 10}
	stops := []models.Order{
		orderAt(10, 12), orderAt(11, 10), orderAt(9, 9), orderAt(12, 12),
	}
	vehicleID := uuid.MustNew()

	first := dispatch.Sequence(vehicleID, stops, origin)
	second := dispatch.Sequence(vehicleID, stops, origin)

	require.Equal(t, len(first.Stops), len(second.Stops))
	for i := range first.Stops {
		assert.Equal(t, first.Stops[i].ID, second.Stops[i].ID)
	}
	assert.Equal(t, first.TotalDistance, second.TotalDistance)
}

func TestSequenceEmptyGroup(t *testing.T) {
	route := dispatch.Sequence(uuid.MustNew(), nil, models.GeoPoint{})

	assert.Empty(t, route.Stops)
	assert.Zero(t, route.TotalDistance)
}

func TestSequenceDoesNotMutateInput(t *testing.T) {
	origin := models.GeoPoint{Lat: 0, Lng: 0}
	stops := []models.Order{orderAt(0, 3), orderAt(0, 1), orderAt(0, 2)}
	ids := []uuid.UUID{stops[0].ID, stops[1].ID, stops[2].ID}

	dispatch.Sequence(uuid.MustNew(), stops, origin)

	for i := range stops {
		assert.Equal(t, ids[i], stops[i].ID)
	}
}
