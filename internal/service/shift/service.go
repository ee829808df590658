package shift

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/pkg/logger"
	wrap "github.com/aibekzh/fleet-dispatch/pkg/logger/wrapper"
	"github.com/aibekzh/fleet-dispatch/pkg/metrics"
	"github.com/aibekzh/fleet-dispatch/pkg/trm"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
)

// Service owns the active-shift registry and the per-order delivery state
// machine. The registry is the single shared resource guarded here: shift
// start/end is mutually exclusive per driver, and order transitions are
// linearized per shift so concurrent conflicting requests get exactly one
// winner.
type Service struct {
	repos     repos
	directory DriverDirectory
	publisher Publisher
	txm       trm.TxManager

	mu      sync.Mutex
	active  map[uuid.UUID]*activeShift // keyed by driver id
	byShift map[uuid.UUID]uuid.UUID    // shift id -> driver id

	serviceName string
	l           logger.Logger
}

type repos struct {
	shift ShiftRepo
	order OrderRepo
	route RouteRepo
}

// activeShift serializes all mutations of one shift. A nil shift marks a
// reservation: the driver slot is taken while StartShift is still doing IO.
type activeShift struct {
	mu    sync.Mutex
	shift *models.Shift
}

func New(
	shiftRepo ShiftRepo,
	orderRepo OrderRepo,
	routeRepo RouteRepo,
	directory DriverDirectory,
	publisher Publisher,
	txm trm.TxManager,
	serviceName string,
	l logger.Logger,
) *Service {
	return &Service{
		repos: repos{
			shift: shiftRepo,
			order: orderRepo,
			route: routeRepo,
		},
		directory:   directory,
		publisher:   publisher,
		txm:         txm,
		active:      make(map[uuid.UUID]*activeShift),
		byShift:     make(map[uuid.UUID]uuid.UUID),
		serviceName: serviceName,
		l:           l,
	}
}

// StartShift opens a shift for the driver on the given vehicle, consuming the
// vehicle's latest assigned route. Fails with ErrShiftAlreadyActive when the
// driver already holds an active shift, no matter how the calls interleave.
func (s *Service) StartShift(ctx context.Context, driverID, vehicleID uuid.UUID) (*models.Shift, error) {
	ctx = wrap.WithAction(ctx, types.ActionStartShift)
	ctx = wrap.WithDriverID(ctx, driverID.String())

	exists, err := s.directory.DriverExists(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("failed to validate driver: %w", err))
	}
	if !exists {
		return nil, wrap.Error(ctx, types.ErrDriverNotFound)
	}

	// Reserve the driver slot before doing any IO so a concurrent StartShift
	// for the same driver loses immediately.
	s.mu.Lock()
	if _, ok := s.active[driverID]; ok {
		s.mu.Unlock()
		return nil, wrap.Error(ctx, types.ErrShiftAlreadyActive)
	}
	slot := &activeShift{}
	s.active[driverID] = slot
	s.mu.Unlock()

	shift, err := s.openShift(ctx, driverID, vehicleID)
	if err != nil {
		s.mu.Lock()
		delete(s.active, driverID)
		s.mu.Unlock()
		return nil, err
	}

	// The slot is already visible through s.active, so the shift pointer must
	// be published under the slot lock that all readers take.
	slot.mu.Lock()
	slot.shift = shift
	slot.mu.Unlock()

	s.mu.Lock()
	s.byShift[shift.ID] = driverID
	s.mu.Unlock()

	metrics.ActiveShiftsGauge.WithLabelValues(s.serviceName).Inc()
	s.publishShiftEvent(ctx, shift, "shift_started")
	s.l.Info(wrap.WithShiftID(ctx, shift.ID.String()), "shift started",
		"vehicle_id", vehicleID,
		"stops", len(shift.Route.Stops),
	)

	return shift, nil
}

func (s *Service) openShift(ctx context.Context, driverID, vehicleID uuid.UUID) (*models.Shift, error) {
	// A crash may have left an active shift in storage that the registry does
	// not know about yet; refuse to open a second one on top of it.
	stored, err := s.repos.shift.LoadActive(ctx, driverID)
	if err != nil && !errors.Is(err, types.ErrShiftNotFound) {
		return nil, wrap.Error(ctx, fmt.Errorf("failed to load active shift: %w", err))
	}
	if stored != nil {
		return nil, wrap.Error(ctx, types.ErrShiftAlreadyActive)
	}

	route, err := s.repos.route.LatestForVehicle(ctx, vehicleID)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("failed to load route for vehicle: %w", err))
	}
	if route == nil {
		return nil, wrap.Error(ctx, types.ErrRouteNotFound)
	}

	shift := &models.Shift{
		ID:        uuid.MustNew(),
		DriverID:  driverID,
		VehicleID: vehicleID,
		Route:     *route,
		Status:    types.ShiftActive,
		StartedAt: time.Now().UTC(),
	}

	if err := s.repos.shift.Create(ctx, shift); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("failed to persist shift: %w", err))
	}

	return shift, nil
}

// TransitionOrder applies one step of the per-order state machine:
//
//	Pending  -> EnRoute              (idempotent: EnRoute -> EnRoute is a no-op)
//	Pending  -> Cancelled            (requires a driver cancel reason)
//	EnRoute  -> Delivered | Cancelled (terminal)
//
// Every other combination fails with ErrInvalidTransition and changes
// nothing. The check-then-set runs under the shift lock, so of two racing
// conflicting transitions exactly one wins and the loser gets
// ErrInvalidTransition.
func (s *Service) TransitionOrder(ctx context.Context, driverID, orderID uuid.UUID, target types.OrderStatus, reason *types.CancelReason) error {
	ctx = wrap.WithAction(ctx, types.ActionTransitionOrder)
	ctx = wrap.WithDriverID(ctx, driverID.String())
	ctx = wrap.WithOrderID(ctx, orderID.String())

	slot, err := s.lookupActive(driverID)
	if err != nil {
		return wrap.Error(ctx, err)
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	shift := slot.shift
	if shift == nil {
		return wrap.Error(ctx, types.ErrShiftNotFound)
	}
	ctx = wrap.WithShiftID(ctx, shift.ID.String())

	idx := -1
	for i := range shift.Route.Stops {
		if shift.Route.Stops[i].ID == orderID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return wrap.Error(ctx, types.ErrOrderNotInShift)
	}

	current := shift.Route.Stops[idx].Status

	switch {
	case current == types.OrderEnRoute && target == types.OrderEnRoute:
		// Re-opening navigation to a stop is expected; no error, no side effects.
		return nil

	case current == types.OrderPending && target == types.OrderEnRoute:
		// fallthrough to apply

	case (current == types.OrderPending || current == types.OrderEnRoute) && target == types.OrderCancelled:
		if reason == nil || !reason.ValidDriverReason() {
			return wrap.Error(ctx, types.ErrInvalidCancelReason)
		}

	case current == types.OrderEnRoute && target == types.OrderDelivered:
		reason = nil

	default:
		return wrap.Error(ctx, fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, current, target))
	}

	// Persist first; in-memory state only moves on success, so a storage
	// failure leaves the machine unchanged.
	if err := s.repos.order.SaveStatus(ctx, orderID, target, reason); err != nil {
		return wrap.Error(ctx, &types.PersistenceError{Entity: "order", ID: orderID.String(), Err: err})
	}

	shift.Route.Stops[idx].Status = target
	shift.Route.Stops[idx].CancelReason = reason

	metrics.OrderTransitionsTotal.WithLabelValues(s.serviceName, target.String()).Inc()
	s.publishOrderStatus(ctx, shift.ID, orderID, target, reason)
	s.l.Info(ctx, "order transitioned", "from", current, "to", target)

	return nil
}

// EndShift closes the driver's active shift. It succeeds only when every stop
// on the route is Delivered or Cancelled; otherwise it fails with a
// ShiftIncompleteError carrying the blocking order ids.
func (s *Service) EndShift(ctx context.Context, driverID uuid.UUID) error {
	ctx = wrap.WithAction(ctx, types.ActionEndShift)
	return s.endShift(ctx, driverID, false)
}

// ForceEndShift is the administrative override: every unresolved stop is
// cancelled with reason SHIFT_FORCE_ENDED and the shift is closed. This is
// the only path around the ShiftIncomplete guard.
func (s *Service) ForceEndShift(ctx context.Context, driverID uuid.UUID) error {
	ctx = wrap.WithAction(ctx, types.ActionForceEndShift)
	return s.endShift(ctx, driverID, true)
}

func (s *Service) endShift(ctx context.Context, driverID uuid.UUID, force bool) error {
	ctx = wrap.WithDriverID(ctx, driverID.String())

	slot, err := s.lookupActive(driverID)
	if err != nil {
		return wrap.Error(ctx, err)
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	shift := slot.shift
	if shift == nil {
		return wrap.Error(ctx, types.ErrShiftNotFound)
	}
	ctx = wrap.WithShiftID(ctx, shift.ID.String())

	unresolved := shift.UnresolvedOrderIDs()
	if len(unresolved) > 0 && !force {
		ids := make([]string, 0, len(unresolved))
		for _, id := range unresolved {
			ids = append(ids, id.String())
		}
		return wrap.Error(ctx, &types.ShiftIncompleteError{OrderIDs: ids})
	}

	// One transaction for the whole close: force-cancels and the shift row
	// commit together or not at all. On failure the shift stays active and no
	// stop has moved.
	reason := types.CancelShiftForceEnded
	err = s.inTx(ctx, func(ctx context.Context) error {
		for _, orderID := range unresolved {
			if err := s.repos.order.SaveStatus(ctx, orderID, types.OrderCancelled, &reason); err != nil {
				return &types.PersistenceError{Entity: "order", ID: orderID.String(), Err: err}
			}
		}
		if err := s.repos.shift.End(ctx, shift.ID); err != nil {
			return &types.PersistenceError{Entity: "shift", ID: shift.ID.String(), Err: err}
		}
		return nil
	})
	if err != nil {
		return wrap.Error(ctx, err)
	}

	for i := range shift.Route.Stops {
		if shift.Route.Stops[i].Status.Terminal() {
			continue
		}
		shift.Route.Stops[i].Status = types.OrderCancelled
		shift.Route.Stops[i].CancelReason = &reason
		metrics.OrderTransitionsTotal.WithLabelValues(s.serviceName, types.OrderCancelled.String()).Inc()
		s.publishOrderStatus(ctx, shift.ID, shift.Route.Stops[i].ID, types.OrderCancelled, &reason)
	}

	now := time.Now().UTC()
	shift.Status = types.ShiftEnded
	shift.EndedAt = &now

	s.mu.Lock()
	delete(s.active, driverID)
	delete(s.byShift, shift.ID)
	s.mu.Unlock()

	metrics.ActiveShiftsGauge.WithLabelValues(s.serviceName).Dec()

	event := "shift_ended"
	if force {
		event = "shift_force_ended"
	}
	s.publishShiftEvent(ctx, shift, event)
	s.l.Info(ctx, "shift ended", "forced", force)

	return nil
}

// ActiveShift returns a copy of the driver's active shift.
func (s *Service) ActiveShift(ctx context.Context, driverID uuid.UUID) (*models.Shift, error) {
	slot, err := s.lookupActive(driverID)
	if err != nil {
		return nil, wrap.Error(wrap.WithDriverID(ctx, driverID.String()), err)
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.shift == nil {
		return nil, wrap.Error(ctx, types.ErrShiftNotFound)
	}

	cp := *slot.shift
	cp.Route.Stops = append([]models.Order(nil), slot.shift.Route.Stops...)
	return &cp, nil
}

// ActiveShifts returns copies of all currently active shifts, for the
// dispatcher overview.
func (s *Service) ActiveShifts(ctx context.Context) []models.Shift {
	s.mu.Lock()
	slots := make([]*activeShift, 0, len(s.active))
	for _, slot := range s.active {
		slots = append(slots, slot)
	}
	s.mu.Unlock()

	shifts := make([]models.Shift, 0, len(slots))
	for _, slot := range slots {
		slot.mu.Lock()
		if slot.shift != nil {
			cp := *slot.shift
			cp.Route.Stops = append([]models.Order(nil), slot.shift.Route.Stops...)
			shifts = append(shifts, cp)
		}
		slot.mu.Unlock()
	}
	return shifts
}

// IsShiftActive reports whether the shift id belongs to a live shift. The
// location channel keys ingestion on this.
func (s *Service) IsShiftActive(shiftID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byShift[shiftID]
	return ok
}

// ShiftForDriver resolves the active shift id of a driver, used when binding
// a driver's websocket to its shift.
func (s *Service) ShiftForDriver(driverID uuid.UUID) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.active[driverID]
	if !ok {
		return uuid.Nil, false
	}
	// The slot may still be a reservation without a shift.
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.shift == nil {
		return uuid.Nil, false
	}
	return slot.shift.ID, true
}

// inTx runs fn inside a storage transaction when a manager is configured.
func (s *Service) inTx(ctx context.Context, fn func(context.Context) error) error {
	if s.txm == nil {
		return fn(ctx)
	}
	return s.txm.Do(ctx, fn)
}

func (s *Service) lookupActive(driverID uuid.UUID) (*activeShift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.active[driverID]
	if !ok {
		return nil, types.ErrShiftNotFound
	}
	return slot, nil
}

func (s *Service) publishOrderStatus(ctx context.Context, shiftID, orderID uuid.UUID, status types.OrderStatus, reason *types.CancelReason) {
	if s.publisher == nil {
		return
	}

	msg := models.OrderStatusMessage{
		OrderID:   orderID,
		ShiftID:   shiftID,
		Status:    status.String(),
		Timestamp: time.Now().UTC(),
	}
	if reason != nil {
		msg.Reason = reason.String()
	}

	if err := s.publisher.PublishOrderStatus(ctx, msg); err != nil {
		s.l.Warn(ctx, "failed to publish order status", "err", err.Error())
	}
}

func (s *Service) publishShiftEvent(ctx context.Context, shift *models.Shift, event string) {
	if s.publisher == nil {
		return
	}

	msg := models.ShiftEventMessage{
		ShiftID:   shift.ID,
		DriverID:  shift.DriverID,
		VehicleID: shift.VehicleID,
		Event:     event,
		Timestamp: time.Now().UTC(),
	}

	if err := s.publisher.PublishShiftEvent(ctx, msg); err != nil {
		s.l.Warn(ctx, "failed to publish shift event", "event", event, "err", err.Error())
	}
}
