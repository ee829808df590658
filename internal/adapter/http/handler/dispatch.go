package handler

import (
	"context"
	"net/http"

	"github.com/aibekzh/fleet-dispatch/internal/adapter/http/handler/dto"
	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/pkg/logger"
	wrap "github.com/aibekzh/fleet-dispatch/pkg/logger/wrapper"
	"github.com/aibekzh/fleet-dispatch/pkg/validator"
)

type Dispatch struct {
	service DispatchService
	shifts  ShiftOverview
	l       logger.Logger
}

type DispatchService interface {
	CreateOrder(ctx context.Context, address string, geo *models.GeoPoint) (*models.Order, error)
	RunAssignment(ctx context.Context) ([]models.RouteResult, error)
}

// ShiftOverview exposes the in-memory shift registry for the dashboard
// overview endpoint.
type ShiftOverview interface {
	ActiveShifts(ctx context.Context) []models.Shift
}

func NewDispatch(service DispatchService, shifts ShiftOverview, l logger.Logger) *Dispatch {
	return &Dispatch{
		service: service,
		shifts:  shifts,
		l:       l,
	}
}

// CreateOrder godoc
// @Summary      Create order
// @Description  Registers a new pending delivery order. Coordinates are geocoded from the address when omitted.
// @Tags         Dispatch
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateOrderRequest true "New order"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /orders [post]
func (h *Dispatch) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_order")

	var req dto.CreateOrderRequest
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

	order, err := h.service.CreateOrder(ctx, req.Address, req.Geo())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to create order", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"order": order,
	}

	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "order created successfully", "order_id", order.ID)
}

// RunAssignment godoc
// @Summary      Run assignment pass
// @Description  Partitions pending orders among available vehicles and persists one route per vehicle. Vehicles whose route failed to persist are reported per entry.
// @Tags         Dispatch
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]any
// @Failure      409  {object}  map[string]string
// @Router       /dispatch/assignments [post]
func (h *Dispatch) RunAssignment(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionRunAssignment)

	results, err := h.service.RunAssignment(ctx)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "assignment pass failed", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	persisted := 0
	for _, res := range results {
		if res.Err == nil {
			persisted++
		}
	}

	response := envelope{
		"results":   results,
		"persisted": persisted,
		"failed":    len(results) - persisted,
	}

	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "assignment pass finished", "persisted", persisted, "failed", len(results)-persisted)
}

// Overview godoc
// @Summary      Dispatch overview
// @Description  Returns the currently active shifts with their route progress.
// @Tags         Dispatch
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /dispatch/overview [get]
func (h *Dispatch) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "dispatch_overview")

	shifts := h.shifts.ActiveShifts(ctx)

	response := envelope{
		"active_shifts": len(shifts),
		"shifts":        shifts,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}
