package dto

import (
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
	"github.com/aibekzh/fleet-dispatch/pkg/validator"
)

type StartShiftRequest struct {
	VehicleID uuid.UUID `json:"vehicle_id"`
}

func (r *StartShiftRequest) Validate(v *validator.Validator) {
	v.Check(!r.VehicleID.IsNil(), "vehicle_id", "must be provided")
}

type TransitionOrderRequest struct {
	Status types.OrderStatus   `json:"status"`
	Reason *types.CancelReason `json:"reason,omitempty"`
}

func (r *TransitionOrderRequest) Validate(v *validator.Validator) {
	v.Check(
		validator.In(string(r.Status),
			string(types.OrderEnRoute),
			string(types.OrderDelivered),
			string(types.OrderCancelled),
		),
		"status", "must be one of EN_ROUTE, DELIVERED, CANCELLED",
	)

	if r.Status == types.OrderCancelled {
		if r.Reason == nil {
			v.AddError("reason", "must be provided for a cancellation")
		} else {
			v.Check(r.Reason.ValidDriverReason(), "reason", "is not a valid cancellation reason")
		}
	} else {
		v.Check(r.Reason == nil, "reason", "only applies to cancellations")
	}
}
