package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ShiftRepo struct {
	db *pgxpool.Pool
}

func NewShiftRepo(db *pgxpool.Pool) *ShiftRepo {
	return &ShiftRepo{
		db: db,
	}
}

func (r *ShiftRepo) Create(ctx context.Context, shift *models.Shift) error {
	const op = "ShiftRepo.Create"
	query := `
		INSERT INTO shifts(id, driver_id, vehicle_id, route_id, status, started_at)
		VALUES($1, $2, $3, $4, $5, $6)`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query,
		shift.ID,
		shift.DriverID,
		shift.VehicleID,
		shift.Route.ID,
		shift.Status,
		shift.StartedAt,
	); err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}

	return nil
}

func (r *ShiftRepo) End(ctx context.Context, shiftID uuid.UUID) error {
	const op = "ShiftRepo.End"
	query := `
		UPDATE shifts
		SET status = $2, ended_at = $3
		WHERE id = $1 AND status = $4`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, shiftID, types.ShiftEnded, time.Now().UTC(), types.ShiftActive)
	if err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrShiftNotFound
	}

	return nil
}

// LoadActive returns the driver's ACTIVE shift with its route snapshot, or
// ErrShiftNotFound. Stop statuses are overlaid from the orders table so a
// restarted process adopts the shift with up-to-date progress, not the
// statuses frozen at assignment time.
func (r *ShiftRepo) LoadActive(ctx context.Context, driverID uuid.UUID) (*models.Shift, error) {
	const op = "ShiftRepo.LoadActive"
	query := `
		SELECT s.id, s.driver_id, s.vehicle_id, s.status, s.started_at,
		       r.id, r.vehicle_id, r.stops, r.total_distance, r.created_at
		FROM shifts s
		JOIN routes r ON r.id = s.route_id
		WHERE s.driver_id = $1 AND s.status = $2`

	var shift models.Shift
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, driverID, types.ShiftActive).Scan(
		&shift.ID,
		&shift.DriverID,
		&shift.VehicleID,
		&shift.Status,
		&shift.StartedAt,
		&shift.Route.ID,
		&shift.Route.VehicleID,
		&shift.Route.Stops,
		&shift.Route.TotalDistance,
		&shift.Route.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrShiftNotFound
		}
		return nil, fmt.Errorf("%s: %v", op, err)
	}

	if err := r.overlayStopStatuses(ctx, &shift); err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}

	return &shift, nil
}

func (r *ShiftRepo) overlayStopStatuses(ctx context.Context, shift *models.Shift) error {
	if len(shift.Route.Stops) == 0 {
		return nil
	}

	ids := make([]string, 0, len(shift.Route.Stops))
	for _, stop := range shift.Route.Stops {
		ids = append(ids, stop.ID.String())
	}

	query := `
		SELECT id, status, cancel_reason
		FROM orders
		WHERE id = ANY($1)`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	current := make(map[uuid.UUID]models.Order, len(ids))
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.Status, &o.CancelReason); err != nil {
			return err
		}
		current[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range shift.Route.Stops {
		if o, ok := current[shift.Route.Stops[i].ID]; ok {
			shift.Route.Stops[i].Status = o.Status
			shift.Route.Stops[i].CancelReason = o.CancelReason
		}
	}

	return nil
}
