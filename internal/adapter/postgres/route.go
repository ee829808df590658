package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RouteRepo struct {
	db *pgxpool.Pool
}

func NewRouteRepo(db *pgxpool.Pool) *RouteRepo {
	return &RouteRepo{
		db: db,
	}
}

// Save persists one route with its ordered stop list as a jsonb snapshot. The
// snapshot keeps the stop sequence exactly as computed, independent of later
// order table updates.
func (r *RouteRepo) Save(ctx context.Context, route *models.Route) error {
	const op = "RouteRepo.Save"
	query := `
		INSERT INTO routes(id, vehicle_id, stops, total_distance, created_at)
		VALUES($1, $2, $3, $4, $5)`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query,
		route.ID,
		route.VehicleID,
		route.Stops,
		route.TotalDistance,
		route.CreatedAt,
	); err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}

	return nil
}

// LatestForVehicle returns the most recently assigned route for a vehicle,
// or a not-found sentinel when the vehicle has never been routed.
func (r *RouteRepo) LatestForVehicle(ctx context.Context, vehicleID uuid.UUID) (*models.Route, error) {
	const op = "RouteRepo.LatestForVehicle"
	query := `
		SELECT id, vehicle_id, stops, total_distance, created_at
		FROM routes
		WHERE vehicle_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var route models.Route
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, vehicleID).Scan(
		&route.ID,
		&route.VehicleID,
		&route.Stops,
		&route.TotalDistance,
		&route.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRouteNotFound
		}
		return nil, fmt.Errorf("%s: %v", op, err)
	}

	return &route, nil
}
