package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/internal/service/dispatch"
	"github.com/aibekzh/fleet-dispatch/pkg/logger"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrderRepo struct {
	mu      sync.Mutex
	pending []models.Order
	created []models.Order

	createErr  error
	pendingErr error
}

func (s *stubOrderRepo) Create(_ context.Context, order *models.Order) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, *order)
	return nil
}

func (s *stubOrderRepo) Pending(context.Context) ([]models.Order, error) {
	return s.pending, s.pendingErr
}

type stubVehicleRepo struct {
	vehicles []models.Vehicle
	err      error
}

func (s *stubVehicleRepo) Available(context.Context) ([]models.Vehicle, error) {
	return s.vehicles, s.err
}

type stubRouteRepo struct {
	mu      sync.Mutex
	saved   []models.Route
	failFor map[uuid.UUID]error // keyed by vehicle id
}

func (s *stubRouteRepo) Save(_ context.Context, route *models.Route) error {
	if err, ok := s.failFor[route.VehicleID]; ok {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, *route)
	return nil
}

type stubRoutePublisher struct {
	mu       sync.Mutex
	assigned []models.RouteAssignedMessage
	err      error
}

func (s *stubRoutePublisher) PublishRouteAssigned(_ context.Context, msg models.RouteAssignedMessage) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assigned = append(s.assigned, msg)
	return nil
}

type stubGeocoder struct {
	lng, lat float64
	err      error
	asked    string
}

func (s *stubGeocoder) GetLocation(_ context.Context, address string) (float64, float64, error) {
	s.asked = address
	return s.lng, s.lat, s.err
}

func vehicleAt(lat, lng float64) models.Vehicle {
	return models.Vehicle{
		ID:     uuid.MustNew(),
		Plate:  "KZ 001 ABC",
		Origin: models.GeoPoint{Lat: lat, Lng: lng},
	}
}

func newDispatchService(orders *stubOrderRepo, vehicles *stubVehicleRepo, routes *stubRouteRepo, pub *stubRoutePublisher, geo *stubGeocoder) *dispatch.Service {
	return dispatch.New(
		orders, vehicles, routes,
		dispatch.NewAssigner(42, 100),
		pub, geo,
		"dispatch-test", 5*time.Second,
		logger.InitLogger("dispatch-test", logger.LevelError),
	)
}

func TestCreateOrderWithCoordinates(t *testing.T) {
	orders := &stubOrderRepo{}
	svc := newDispatchService(orders, &stubVehicleRepo{}, &stubRouteRepo{}, &stubRoutePublisher{}, &stubGeocoder{})

	geo := &models.GeoPoint{Lat: 51.1, Lng: 71.4}
	order, err := svc.CreateOrder(t.Context(), "Mangilik El 55", geo)
	require.NoError(t, err)

	assert.False(t, order.ID.IsNil())
	assert.Equal(t, *geo, order.Geo)
	assert.Equal(t, types.OrderPending, order.Status)
	require.Len(t, orders.created, 1)
	assert.Equal(t, order.ID, orders.created[0].ID)
}

func TestCreateOrderGeocodesAddress(t *testing.T) {
	orders := &stubOrderRepo{}
	geo := &stubGeocoder{lng: 71.4, lat: 51.1}
	svc := newDispatchService(orders, &stubVehicleRepo{}, &stubRouteRepo{}, &stubRoutePublisher{}, geo)

	order, err := svc.CreateOrder(t.Context(), "Mangilik El 55", nil)
	require.NoError(t, err)

	assert.Equal(t, "Mangilik El 55", geo.asked)
	assert.Equal(t, models.GeoPoint{Lat: 51.1, Lng: 71.4}, order.Geo)
}

func TestCreateOrderGeocoderFailure(t *testing.T) {
	boom := errors.New("locationiq unavailable")
	svc := newDispatchService(&stubOrderRepo{}, &stubVehicleRepo{}, &stubRouteRepo{}, &stubRoutePublisher{}, &stubGeocoder{err: boom})

	_, err := svc.CreateOrder(t.Context(), "nowhere", nil)
	require.ErrorIs(t, err, boom)
}

func TestCreateOrderRejectsInvalidCoordinates(t *testing.T) {
	svc := newDispatchService(&stubOrderRepo{}, &stubVehicleRepo{}, &stubRouteRepo{}, &stubRoutePublisher{}, &stubGeocoder{})

	_, err := svc.CreateOrder(t.Context(), "", &models.GeoPoint{Lat: 120, Lng: 0})
	require.ErrorIs(t, err, types.ErrInvalidCoordinates)
}

func TestRunAssignmentCoversAllOrders(t *testing.T) {
	orders := &stubOrderRepo{pending: twoPockets()}
	vehicles := &stubVehicleRepo{vehicles: []models.Vehicle{
		vehicleAt(0, 0),
		vehicleAt(50, 50),
	}}
	routes := &stubRouteRepo{}
	pub := &stubRoutePublisher{}
	svc := newDispatchService(orders, vehicles, routes, pub, &stubGeocoder{})

	results, err := svc.RunAssignment(t.Context())
	require.NoError(t, err)
	require.Len(t, results, 2)

	seen := make(map[uuid.UUID]int)
	for _, res := range results {
		require.NoError(t, res.Err)
		require.NotNil(t, res.Route)
		for _, stop := range res.Route.Stops {
			seen[stop.ID]++
		}
	}
	require.Len(t, seen, len(orders.pending))
	for _, n := range seen {
		assert.Equal(t, 1, n)
	}

	assert.Len(t, routes.saved, 2)
	assert.Len(t, pub.assigned, 2)
}

func TestRunAssignmentNoPendingOrders(t *testing.T) {
	svc := newDispatchService(
		&stubOrderRepo{},
		&stubVehicleRepo{vehicles: []models.Vehicle{vehicleAt(0, 0)}},
		&stubRouteRepo{}, &stubRoutePublisher{}, &stubGeocoder{},
	)

	_, err := svc.RunAssignment(t.Context())
	require.ErrorIs(t, err, types.ErrNoPendingOrders)
}

func TestRunAssignmentNoAvailableVehicles(t *testing.T) {
	svc := newDispatchService(
		&stubOrderRepo{pending: twoPockets()},
		&stubVehicleRepo{},
		&stubRouteRepo{}, &stubRoutePublisher{}, &stubGeocoder{},
	)

	_, err := svc.RunAssignment(t.Context())
	require.ErrorIs(t, err, types.ErrNoAvailableVehicles)
}

func TestRunAssignmentContinuesPastPersistFailure(t *testing.T) {
	broken := vehicleAt(50, 50)
	orders := &stubOrderRepo{pending: twoPockets()}
	vehicles := &stubVehicleRepo{vehicles: []models.Vehicle{vehicleAt(0, 0), broken}}
	routes := &stubRouteRepo{failFor: map[uuid.UUID]error{
		broken.ID: errors.New("connection reset"),
	}}
	pub := &stubRoutePublisher{}
	svc := newDispatchService(orders, vehicles, routes, pub, &stubGeocoder{})

	results, err := svc.RunAssignment(t.Context())
	require.NoError(t, err)
	require.Len(t, results, 2)

	var ok, failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			assert.Equal(t, broken.ID, res.VehicleID)
			assert.Nil(t, res.Route)
			assert.NotEmpty(t, res.Error)

			var perr *types.PersistenceError
			require.ErrorAs(t, res.Err, &perr)
			assert.Equal(t, "route", perr.Entity)
		} else {
			ok++
			assert.NotNil(t, res.Route)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)

	// Only the persisted route gets announced.
	assert.Len(t, routes.saved, 1)
	require.Len(t, pub.assigned, 1)
	assert.NotEqual(t, broken.ID, pub.assigned[0].VehicleID)
}

func TestRunAssignmentPublishFailureDoesNotFailPass(t *testing.T) {
	orders := &stubOrderRepo{pending: twoPockets()}
	vehicles := &stubVehicleRepo{vehicles: []models.Vehicle{vehicleAt(0, 0), vehicleAt(50, 50)}}
	routes := &stubRouteRepo{}
	pub := &stubRoutePublisher{err: errors.New("broker down")}
	svc := newDispatchService(orders, vehicles, routes, pub, &stubGeocoder{})

	results, err := svc.RunAssignment(t.Context())
	require.NoError(t, err)
	for _, res := range results {
		assert.NoError(t, res.Err)
	}
	assert.Len(t, routes.saved, 2)
}
