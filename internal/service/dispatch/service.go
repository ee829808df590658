package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/pkg/logger"
	wrap "github.com/aibekzh/fleet-dispatch/pkg/logger/wrapper"
	"github.com/aibekzh/fleet-dispatch/pkg/metrics"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
)

// Service runs assignment passes: partition pending orders among available
// vehicles, sequence each partition into a route, persist per vehicle.
type Service struct {
	repos     repos
	assigner  *Assigner
	publisher Publisher
	geocoder  GeoCoder

	serviceName string
	timeout     time.Duration
	l           logger.Logger
}

type repos struct {
	order   OrderRepo
	vehicle VehicleRepo
	route   RouteRepo
}

func New(
	orderRepo OrderRepo,
	vehicleRepo VehicleRepo,
	routeRepo RouteRepo,
	assigner *Assigner,
	publisher Publisher,
	geocoder GeoCoder,
	serviceName string,
	timeout time.Duration,
	l logger.Logger,
) *Service {
	return &Service{
		repos: repos{
			order:   orderRepo,
			vehicle: vehicleRepo,
			route:   routeRepo,
		},
		assigner:    assigner,
		publisher:   publisher,
		geocoder:    geocoder,
		serviceName: serviceName,
		timeout:     timeout,
		l:           l,
	}
}

// CreateOrder registers a new pending order. When geo is nil the address is
// resolved through the geocoding collaborator first, so everything downstream
// only ever sees valid coordinates.
func (s *Service) CreateOrder(ctx context.Context, address string, geo *models.GeoPoint) (*models.Order, error) {
	ctx = wrap.WithAction(ctx, "create_order")

	if geo == nil {
		lng, lat, err := s.geocoder.GetLocation(ctx, address)
		if err != nil {
			return nil, wrap.Error(ctx, fmt.Errorf("failed to geocode address: %w", err))
		}
		geo = &models.GeoPoint{Lat: lat, Lng: lng}
	}

	if err := geo.Validate(); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	order := &models.Order{
		ID:        uuid.MustNew(),
		Geo:       *geo,
		Status:    types.OrderPending,
		Address:   address,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repos.order.Create(ctx, order); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("failed to create order: %w", err))
	}

	s.l.Info(ctx, "order created", "order_id", order.ID)

	return order, nil
}

// RunAssignment executes one assignment pass over the current pending orders
// and available vehicles.
//
// An empty input is an operational precondition failure, not a silent no-op:
// the caller gets ErrNoPendingOrders or ErrNoAvailableVehicles. The pure
// clustering/sequencing computation runs on a worker goroutine bounded by the
// configured timeout. Each route is persisted as its own unit: one vehicle's
// persistence failure is reported in its result entry and does not block the
// rest of the batch.
func (s *Service) RunAssignment(ctx context.Context) ([]models.RouteResult, error) {
	ctx = wrap.WithAction(ctx, types.ActionRunAssignment)

	orders, err := s.repos.order.Pending(ctx)
	if err != nil {
		s.recordRun("error")
		return nil, wrap.Error(ctx, fmt.Errorf("failed to load pending orders: %w", err))
	}
	if len(orders) == 0 {
		s.recordRun("no_pending_orders")
		return nil, wrap.Error(ctx, types.ErrNoPendingOrders)
	}

	vehicles, err := s.repos.vehicle.Available(ctx)
	if err != nil {
		s.recordRun("error")
		return nil, wrap.Error(ctx, fmt.Errorf("failed to load available vehicles: %w", err))
	}
	if len(vehicles) == 0 {
		s.recordRun("no_available_vehicles")
		return nil, wrap.Error(ctx, types.ErrNoAvailableVehicles)
	}

	routes, err := s.computeRoutes(ctx, orders, vehicles)
	if err != nil {
		s.recordRun("error")
		return nil, wrap.Error(ctx, err)
	}

	// Continue-on-error persistence: collect per-vehicle outcomes.
	results := make([]models.RouteResult, 0, len(routes))
	for i := range routes {
		route := routes[i]
		result := models.RouteResult{VehicleID: route.VehicleID}

		if err := s.repos.route.Save(ctx, &route); err != nil {
			perr := &types.PersistenceError{Entity: "route", ID: route.ID.String(), Err: err}
			result.Err = perr
			result.Error = perr.Error()
			metrics.RoutesPersistedTotal.WithLabelValues(s.serviceName, "error").Inc()
			s.l.Error(wrap.ErrorCtx(ctx, err), "failed to persist route", perr,
				"vehicle_id", route.VehicleID,
			)
		} else {
			result.Route = &route
			metrics.RoutesPersistedTotal.WithLabelValues(s.serviceName, "success").Inc()
			s.publishAssigned(ctx, &route)
		}

		results = append(results, result)
	}

	s.recordRun("success")
	s.l.Info(ctx, "assignment pass completed",
		"orders", len(orders),
		"vehicles", len(vehicles),
		"routes", len(routes),
	)

	return results, nil
}

// computeRoutes runs the CPU-bound partition+sequence pass on a worker
// goroutine so a slow pass cannot pin the request path past the timeout.
func (s *Service) computeRoutes(ctx context.Context, orders []models.Order, vehicles []models.Vehicle) ([]models.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type outcome struct {
		routes []models.Route
		err    error
	}

	resCh := make(chan outcome, 1)
	go func() {
		groups, err := s.assigner.Assign(orders, len(vehicles))
		if err != nil {
			resCh <- outcome{err: err}
			return
		}

		// Group i pairs with vehicles[i]; the fleet directory's ordering
		// decides which vehicle gets which cluster.
		routes := make([]models.Route, 0, len(groups))
		for i, group := range groups {
			routes = append(routes, Sequence(vehicles[i].ID, group, vehicles[i].Origin))
		}
		resCh <- outcome{routes: routes}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("assignment computation aborted: %w", ctx.Err())
	case out := <-resCh:
		return out.routes, out.err
	}
}

func (s *Service) publishAssigned(ctx context.Context, route *models.Route) {
	if s.publisher == nil {
		return
	}

	msg := models.RouteAssignedMessage{
		RouteID:       route.ID,
		VehicleID:     route.VehicleID,
		StopCount:     len(route.Stops),
		TotalDistance: route.TotalDistance,
		Timestamp:     time.Now().UTC(),
	}

	// Best effort: the route is already persisted, a publish failure must not
	// fail the pass.
	if err := s.publisher.PublishRouteAssigned(ctx, msg); err != nil {
		s.l.Warn(ctx, "failed to publish route assigned event",
			"route_id", route.ID,
			"err", err.Error(),
		)
	}
}

func (s *Service) recordRun(status string) {
	metrics.AssignmentRunsTotal.WithLabelValues(s.serviceName, status).Inc()
}
