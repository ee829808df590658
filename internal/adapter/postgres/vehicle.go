package repo

import (
	"context"
	"fmt"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VehicleRepo struct {
	db *pgxpool.Pool
}

func NewVehicleRepo(db *pgxpool.Pool) *VehicleRepo {
	return &VehicleRepo{
		db: db,
	}
}

// Available returns the fleet eligible for the next assignment pass, ordered
// by id so repeated passes over the same fleet see the same vehicle order.
func (r *VehicleRepo) Available(ctx context.Context) ([]models.Vehicle, error) {
	const op = "VehicleRepo.Available"
	query := `
		SELECT id, plate, origin_lat, origin_lng, capacity
		FROM vehicles
		WHERE is_available = TRUE
		ORDER BY id`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.ID, &v.Plate, &v.Origin.Lat, &v.Origin.Lng, &v.Capacity); err != nil {
			return nil, fmt.Errorf("%s: %v", op, err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}

	return vehicles, nil
}
