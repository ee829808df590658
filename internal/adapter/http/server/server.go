package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aibekzh/fleet-dispatch/config"
	"github.com/aibekzh/fleet-dispatch/internal/adapter/http/handler"
	"github.com/aibekzh/fleet-dispatch/internal/adapter/http/middleware"
	wshandler "github.com/aibekzh/fleet-dispatch/internal/adapter/http/ws"
	"github.com/aibekzh/fleet-dispatch/pkg/logger"
	wrap "github.com/aibekzh/fleet-dispatch/pkg/logger/wrapper"
	"github.com/aibekzh/fleet-dispatch/pkg/token"
)

const serverIPAddress = "%s:%s"

type API struct {
	mux    *http.ServeMux
	server *http.Server
	routes *handlers
	m      *middleware.Middleware

	addr string
	cfg  config.Config
	log  logger.Logger
}

type handlers struct {
	health      *handler.Health
	dispatch    *handler.Dispatch
	shift       *handler.Shift
	driverWS    *wshandler.DriverWS
	dashboardWS *wshandler.DashboardWS
}

func New(
	cfg config.Config,
	dispatchHandler *handler.Dispatch,
	shiftHandler *handler.Shift,
	driverWS *wshandler.DriverWS,
	dashboardWS *wshandler.DashboardWS,
	verifier *token.Verifier,
	log logger.Logger,
) (*API, error) {
	if verifier == nil {
		return nil, errors.New("token verifier is required")
	}

	addr := fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Server.Port)

	routes := &handlers{
		health:      handler.NewHealth(cfg.ServiceName, log),
		dispatch:    dispatchHandler,
		shift:       shiftHandler,
		driverWS:    driverWS,
		dashboardWS: dashboardWS,
	}

	mid := middleware.NewMiddleware(verifier, log)

	api := &API{
		mux:    http.NewServeMux(),
		routes: routes,
		m:      mid,
		addr:   addr,
		cfg:    cfg,
		log:    log,
	}

	api.server = &http.Server{
		Addr:    api.addr,
		Handler: api.withMiddleware(),
	}

	api.setupRoutes()

	return api, nil
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

// withMiddleware applies the outer middleware chain to the mux.
func (a *API) withMiddleware() http.Handler {
	metricsWrap := a.m.Metrics(a.cfg.ServiceName)
	return a.m.Recover(a.m.RequestID(a.m.Logging(metricsWrap(a.m.Auth(a.mux)))))
}
