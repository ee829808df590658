package shift

import (
	"context"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
)

type ShiftRepo interface {
	Create(ctx context.Context, shift *models.Shift) error
	End(ctx context.Context, shiftID uuid.UUID) error
	LoadActive(ctx context.Context, driverID uuid.UUID) (*models.Shift, error)
}

type OrderRepo interface {
	SaveStatus(ctx context.Context, orderID uuid.UUID, status types.OrderStatus, reason *types.CancelReason) error
}

type RouteRepo interface {
	LatestForVehicle(ctx context.Context, vehicleID uuid.UUID) (*models.Route, error)
}

// DriverDirectory is the fleet/driver collaborator that vouches for a driver
// id before a shift may start.
type DriverDirectory interface {
	DriverExists(ctx context.Context, driverID uuid.UUID) (bool, error)
}

type Publisher interface {
	PublishOrderStatus(ctx context.Context, msg models.OrderStatusMessage) error
	PublishShiftEvent(ctx context.Context, msg models.ShiftEventMessage) error
}
