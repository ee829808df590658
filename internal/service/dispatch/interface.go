package dispatch

import (
	"context"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
)

type OrderRepo interface {
	Create(ctx context.Context, order *models.Order) error
	Pending(ctx context.Context) ([]models.Order, error)
}

type VehicleRepo interface {
	Available(ctx context.Context) ([]models.Vehicle, error)
}

type RouteRepo interface {
	Save(ctx context.Context, route *models.Route) error
}

type Publisher interface {
	PublishRouteAssigned(ctx context.Context, msg models.RouteAssignedMessage) error
}

// GeoCoder resolves a street address into coordinates. Called on order intake
// only; the assignment pass itself never geocodes.
type GeoCoder interface {
	GetLocation(ctx context.Context, address string) (lng float64, lat float64, err error)
}
