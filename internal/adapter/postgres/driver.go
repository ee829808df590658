package repo

import (
	"context"
	"fmt"

	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DriverRepo struct {
	db *pgxpool.Pool
}

func NewDriverRepo(db *pgxpool.Pool) *DriverRepo {
	return &DriverRepo{
		db: db,
	}
}

func (r *DriverRepo) DriverExists(ctx context.Context, driverID uuid.UUID) (bool, error) {
	const op = "DriverRepo.DriverExists"
	query := `SELECT EXISTS(SELECT 1 FROM drivers WHERE id = $1)`

	var exists bool
	if err := TxorDB(ctx, r.db).QueryRow(ctx, query, driverID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %v", op, err)
	}

	return exists, nil
}
