package repo

import (
	"context"
	"fmt"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepo struct {
	db *pgxpool.Pool
}

func NewOrderRepo(db *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{
		db: db,
	}
}

func (r *OrderRepo) Create(ctx context.Context, order *models.Order) error {
	const op = "OrderRepo.Create"
	query := `
		INSERT INTO orders(id, lat, lng, address, status, created_at)
		VALUES($1, $2, $3, $4, $5, $6)`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query,
		order.ID,
		order.Geo.Lat,
		order.Geo.Lng,
		order.Address,
		order.Status,
		order.CreatedAt,
	); err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}

	return nil
}

// Pending returns all orders awaiting assignment, oldest first. The secondary
// id ordering keeps the assignment pass input deterministic for orders
// created in the same instant.
func (r *OrderRepo) Pending(ctx context.Context) ([]models.Order, error) {
	const op = "OrderRepo.Pending"
	query := `
		SELECT id, lat, lng, address, status, created_at
		FROM orders
		WHERE status = $1
		ORDER BY created_at, id`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, types.OrderPending)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.Geo.Lat, &o.Geo.Lng, &o.Address, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %v", op, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}

	return orders, nil
}

// SaveStatus writes the order's new status, and cancel reason when present.
func (r *OrderRepo) SaveStatus(ctx context.Context, orderID uuid.UUID, status types.OrderStatus, reason *types.CancelReason) error {
	const op = "OrderRepo.SaveStatus"
	query := `
		UPDATE orders
		SET status = $2, cancel_reason = $3
		WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, orderID, status, reason)
	if err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrOrderNotFound
	}

	return nil
}
