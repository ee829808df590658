package server

import (
	"net/http"

	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// setupRoutes wires the full HTTP surface onto the mux.
func (a *API) setupRoutes() {
	mux := a.mux

	// System health
	mux.HandleFunc("/health", a.routes.health.HealthCheck)

	setupSwaggerRoutes(mux)
	setupMetricsRoute(mux)

	// Orders and assignment (dispatcher side)
	mux.Handle("POST /orders", a.m.RequireRoles(a.routes.dispatch.CreateOrder, types.RoleDispatcher))
	mux.Handle("POST /dispatch/assignments", a.m.RequireRoles(a.routes.dispatch.RunAssignment, types.RoleDispatcher))
	mux.Handle("GET /dispatch/overview", a.m.RequireRoles(a.routes.dispatch.Overview, types.RoleDispatcher))

	// Shifts and order progress (driver side)
	mux.Handle("POST /drivers/{driver_id}/shifts", a.m.RequireRoles(a.routes.shift.StartShift, types.RoleDriver))
	mux.Handle("GET /drivers/{driver_id}/shift", a.m.RequireRoles(a.routes.shift.ActiveShift, types.RoleDriver, types.RoleDispatcher))
	mux.Handle("POST /drivers/{driver_id}/shifts/end", a.m.RequireRoles(a.routes.shift.EndShift, types.RoleDriver))
	mux.Handle("POST /drivers/{driver_id}/shifts/force-end", a.m.RequireRoles(a.routes.shift.ForceEndShift, types.RoleDispatcher))
	mux.Handle("POST /drivers/{driver_id}/orders/{order_id}/status", a.m.RequireRoles(a.routes.shift.TransitionOrder, types.RoleDriver))

	// WebSocket endpoints for live tracking
	mux.HandleFunc("GET /ws/drivers/{driver_id}", a.routes.driverWS.Handle)
	mux.HandleFunc("GET /ws/dashboard", a.routes.dashboardWS.Handle)
}

// setupSwaggerRoutes configures the Swagger UI endpoint.
func setupSwaggerRoutes(mux *http.ServeMux) {
	swaggerURL := httpSwagger.InstanceName("dispatch")
	mux.HandleFunc("/swagger/", httpSwagger.Handler(swaggerURL))
}

// setupMetricsRoute configures the Prometheus metrics endpoint.
func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
