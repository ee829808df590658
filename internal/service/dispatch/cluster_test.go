package dispatch_test

import (
	"testing"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/internal/service/dispatch"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderAt(lat, lng float64) models.Order {
	return models.Order{
		ID:     uuid.MustNew(),
		Geo:    models.GeoPoint{Lat: lat, Lng: lng},
		Status: types.OrderPending,
	}
}

// Two dense pockets far apart, three orders each.
func twoPockets() []models.Order {
	return []models.Order{
		orderAt(0.0, 0.0),
		orderAt(0.1, 0.0),
		orderAt(0.0, 0.1),
		orderAt(50.0, 50.0),
		orderAt(50.1, 50.0),
		orderAt(50.0, 50.1),
	}
}

func TestAssignPartitionsEveryOrderOnce(t *testing.T) {
	a := dispatch.NewAssigner(42, 100)
	orders := twoPockets()

	groups, err := a.Assign(orders, 2)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	seen := make(map[uuid.UUID]int)
	for _, g := range groups {
		assert.NotEmpty(t, g)
		for _, o := range g {
			seen[o.ID]++
		}
	}
	require.Len(t, seen, len(orders))
	for id, n := range seen {
		assert.Equal(t, 1, n, "order %s assigned %d times", id, n)
	}
}

func TestAssignSeparatesDistantPockets(t *testing.T) {
	a := dispatch.NewAssigner(1, 100)
	orders := twoPockets()

	groups, err := a.Assign(orders, 2)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// Each group must be spatially homogeneous: all members on the same side.
	for _, g := range groups {
		require.NotEmpty(t, g)
		south := g[0].Geo.Lat < 25
		for _, o := range g {
			assert.Equal(t, south, o.Geo.Lat < 25)
		}
	}
}

func TestAssignDeterministic(t *testing.T) {
	orders := twoPockets()

	first, err := dispatch.NewAssigner(7, 100).Assign(orders, 2)
	require.NoError(t, err)
	second, err := dispatch.NewAssigner(7, 100).Assign(orders, 2)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		require.Equal(t, len(first[i]), len(second[i]))
		for j := range first[i] {
			assert.Equal(t, first[i][j].ID, second[i][j].ID)
		}
	}
}

func TestAssignNoVehicles(t *testing.T) {
	a := dispatch.NewAssigner(42, 100)

	_, err := a.Assign(twoPockets(), 0)
	require.ErrorIs(t, err, types.ErrNoCapacity)

	_, err = a.Assign(twoPockets(), -1)
	require.ErrorIs(t, err, types.ErrNoCapacity)
}

func TestAssignNoOrders(t *testing.T) {
	a := dispatch.NewAssigner(42, 100)

	groups, err := a.Assign(nil, 3)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestAssignFewerOrdersThanVehicles(t *testing.T) {
	a := dispatch.NewAssigner(42, 100)
	orders := []models.Order{orderAt(0, 0), orderAt(10, 10)}

	groups, err := a.Assign(orders, 5)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	for _, g := range groups {
		assert.Len(t, g, 1)
	}
}

func TestAssignCoincidentOrdersKeepGroupsNonEmpty(t *testing.T) {
	a := dispatch.NewAssigner(42, 100)
	orders := []models.Order{
		orderAt(1, 1),
		orderAt(1, 1),
		orderAt(1, 1),
	}

	groups, err := a.Assign(orders, 3)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	total := 0
	for _, g := range groups {
		assert.NotEmpty(t, g)
		total += len(g)
	}
	assert.Equal(t, len(orders), total)
}
