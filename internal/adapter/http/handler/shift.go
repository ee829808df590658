package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/aibekzh/fleet-dispatch/internal/adapter/http/handler/dto"
	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/pkg/logger"
	wrap "github.com/aibekzh/fleet-dispatch/pkg/logger/wrapper"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
	"github.com/aibekzh/fleet-dispatch/pkg/validator"
)

type Shift struct {
	service ShiftService
	l       logger.Logger
}

type ShiftService interface {
	StartShift(ctx context.Context, driverID, vehicleID uuid.UUID) (*models.Shift, error)
	EndShift(ctx context.Context, driverID uuid.UUID) error
	ForceEndShift(ctx context.Context, driverID uuid.UUID) error
	TransitionOrder(ctx context.Context, driverID, orderID uuid.UUID, target types.OrderStatus, reason *types.CancelReason) error
	ActiveShift(ctx context.Context, driverID uuid.UUID) (*models.Shift, error)
}

func NewShift(service ShiftService, l logger.Logger) *Shift {
	return &Shift{
		service: service,
		l:       l,
	}
}

// StartShift godoc
// @Summary      Start shift
// @Description  Opens a shift for the driver with the vehicle's latest route. Fails when the driver already has an active shift.
// @Tags         Shifts
// @Accept       json
// @Produce      json
// @Param        driver_id path string true "Driver ID"
// @Param        request body dto.StartShiftRequest true "Vehicle to drive"
// @Success      201  {object}  map[string]any
// @Failure      409  {object}  map[string]string
// @Router       /drivers/{driver_id}/shifts [post]
func (h *Shift) StartShift(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionStartShift)

	driverID, err := uuid.Parse(r.PathValue("driver_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid driver uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid driver uuid format")
		return
	}
	ctx = wrap.WithDriverID(ctx, driverID.String())

	var req dto.StartShiftRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	shift, err := h.service.StartShift(ctx, driverID, req.VehicleID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to start shift", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"shift": shift,
	}

	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "shift started successfully", "shift_id", shift.ID)
}

// ActiveShift godoc
// @Summary      Get active shift
// @Description  Returns the driver's currently active shift.
// @Tags         Shifts
// @Produce      json
// @Param        driver_id path string true "Driver ID"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]string
// @Router       /drivers/{driver_id}/shift [get]
func (h *Shift) ActiveShift(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_active_shift")

	driverID, err := uuid.Parse(r.PathValue("driver_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid driver uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid driver uuid format")
		return
	}
	ctx = wrap.WithDriverID(ctx, driverID.String())

	shift, err := h.service.ActiveShift(ctx, driverID)
	if err != nil {
		h.l.Warn(ctx, "no active shift", "err", err.Error())
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"shift": shift,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}

// EndShift godoc
// @Summary      End shift
// @Description  Ends the driver's active shift. Refused while any stop is still PENDING or EN_ROUTE; the response lists the unresolved order ids.
// @Tags         Shifts
// @Produce      json
// @Param        driver_id path string true "Driver ID"
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  map[string]any
// @Router       /drivers/{driver_id}/shifts/end [post]
func (h *Shift) EndShift(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionEndShift)

	h.endShift(w, r, ctx, h.service.EndShift, "shift ended")
}

// ForceEndShift godoc
// @Summary      Force-end shift
// @Description  Ends the driver's active shift regardless of remaining stops; unresolved stops are cancelled with reason SHIFT_FORCE_ENDED.
// @Tags         Shifts
// @Produce      json
// @Param        driver_id path string true "Driver ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /drivers/{driver_id}/shifts/force-end [post]
func (h *Shift) ForceEndShift(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionForceEndShift)

	h.endShift(w, r, ctx, h.service.ForceEndShift, "shift force-ended")
}

func (h *Shift) endShift(
	w http.ResponseWriter,
	r *http.Request,
	ctx context.Context,
	end func(context.Context, uuid.UUID) error,
	message string,
) {
	driverID, err := uuid.Parse(r.PathValue("driver_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid driver uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid driver uuid format")
		return
	}
	ctx = wrap.WithDriverID(ctx, driverID.String())

	if err := end(ctx, driverID); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to end shift", err)

		// An incomplete shift carries the blocking order ids; surface them so
		// the driver app can show what is left.
		var incomplete *types.ShiftIncompleteError
		if errors.As(err, &incomplete) {
			errorResponse(w, http.StatusConflict, envelope{
				"message":           incomplete.Error(),
				"unresolved_orders": incomplete.OrderIDs,
			})
			return
		}

		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"message": message,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, message)
}

// TransitionOrder godoc
// @Summary      Transition order status
// @Description  Moves one stop of the driver's active shift to EN_ROUTE, DELIVERED or CANCELLED. Repeating EN_ROUTE is a no-op; terminal stops cannot move again.
// @Tags         Shifts
// @Accept       json
// @Produce      json
// @Param        driver_id path string true "Driver ID"
// @Param        order_id path string true "Order ID"
// @Param        request body dto.TransitionOrderRequest true "Target status"
// @Success      200  {object}  map[string]any
// @Failure      409  {object}  map[string]string
// @Router       /drivers/{driver_id}/orders/{order_id}/status [post]
func (h *Shift) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionTransitionOrder)

	driverID, err := uuid.Parse(r.PathValue("driver_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid driver uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid driver uuid format")
		return
	}
	orderID, err := uuid.Parse(r.PathValue("order_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid order uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid order uuid format")
		return
	}
	ctx = wrap.WithDriverID(ctx, driverID.String())
	ctx = wrap.WithOrderID(ctx, orderID.String())

	var req dto.TransitionOrderRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	if err := h.service.TransitionOrder(ctx, driverID, orderID, req.Status, req.Reason); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to transition order", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"order_id": orderID,
		"status":   req.Status,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "order transitioned successfully", "status", req.Status)
}
