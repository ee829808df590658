package models

import (
	"time"

	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
)

type Order struct {
	ID           uuid.UUID           `json:"id"`
	Geo          GeoPoint            `json:"geo"`
	Status       types.OrderStatus   `json:"status"`
	CancelReason *types.CancelReason `json:"cancel_reason,omitempty"`

	// Address is intake metadata only, the dispatch core works on Geo.
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Cluster is the ephemeral grouping produced by the partition step and
// consumed immediately by the sequencer. Never persisted on its own.
type Cluster struct {
	VehicleID uuid.UUID
	Orders    []Order
}

/* ======================= rabbitmq ======================= */

type OrderStatusMessage struct {
	OrderID   uuid.UUID `json:"order_id"`
	ShiftID   uuid.UUID `json:"shift_id"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
