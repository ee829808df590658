package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aibekzh/fleet-dispatch/config"
	"github.com/aibekzh/fleet-dispatch/internal/adapter/http/handler"
	"github.com/aibekzh/fleet-dispatch/internal/adapter/http/server"
	wshandler "github.com/aibekzh/fleet-dispatch/internal/adapter/http/ws"
	"github.com/aibekzh/fleet-dispatch/internal/adapter/locationiq"
	repo "github.com/aibekzh/fleet-dispatch/internal/adapter/postgres"
	broker "github.com/aibekzh/fleet-dispatch/internal/adapter/rabbit"
	"github.com/aibekzh/fleet-dispatch/internal/service/dispatch"
	"github.com/aibekzh/fleet-dispatch/internal/service/shift"
	"github.com/aibekzh/fleet-dispatch/internal/service/tracking"
	"github.com/aibekzh/fleet-dispatch/pkg/logger"
	"github.com/aibekzh/fleet-dispatch/pkg/postgres"
	"github.com/aibekzh/fleet-dispatch/pkg/rabbit"
	"github.com/aibekzh/fleet-dispatch/pkg/token"
	"github.com/aibekzh/fleet-dispatch/pkg/trm"
	ws "github.com/aibekzh/fleet-dispatch/pkg/wshub"
)

// App assembles the dispatch service: postgres, rabbitmq, the three domain
// services and the HTTP surface.
type App struct {
	postgresDB *postgres.PostgreDB
	rabbitMQ   *rabbit.RabbitMQ
	httpServer *server.API

	driverHub    *ws.ConnectionHub
	dashboardHub *ws.ConnectionHub

	cfg config.Config
	log logger.Logger
}

func NewApplication(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	postgresDB, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "failed to setup database", err)
		return nil, err
	}

	rabbitMQ, err := rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		log.Error(ctx, "failed to setup rabbitmq", err)
		return nil, err
	}

	dispatchBroker := broker.NewDispatchBroker(rabbitMQ, cfg.ServiceName, log)
	if err := dispatchBroker.Setup(ctx); err != nil {
		log.Error(ctx, "failed to declare exchanges", err)
		return nil, err
	}

	// Repositories
	orderRepo := repo.NewOrderRepo(postgresDB.Pool)
	vehicleRepo := repo.NewVehicleRepo(postgresDB.Pool)
	routeRepo := repo.NewRouteRepo(postgresDB.Pool)
	shiftRepo := repo.NewShiftRepo(postgresDB.Pool)
	driverRepo := repo.NewDriverRepo(postgresDB.Pool)

	txManager := trm.New(postgresDB.Pool)

	// Services
	assigner := dispatch.NewAssigner(cfg.Dispatch.KMeansSeed, cfg.Dispatch.KMeansMaxIter)
	geocoder := locationiq.New(cfg.External.LocationIQapiKey)

	dispatchService := dispatch.New(
		orderRepo, vehicleRepo, routeRepo,
		assigner, dispatchBroker, geocoder,
		cfg.ServiceName, cfg.Dispatch.AssignmentTimeout, log,
	)

	shiftService := shift.New(
		shiftRepo, orderRepo, routeRepo,
		driverRepo, dispatchBroker, txManager,
		cfg.ServiceName, log,
	)

	trackingChannel := tracking.NewChannel(
		shiftService, dispatchBroker,
		cfg.ServiceName, cfg.Tracking.SubscriberBuffer, log,
	)

	// HTTP surface
	verifier := token.NewVerifier(cfg.Auth.JWTSecret)

	driverHub := ws.NewConnHub(log)
	dashboardHub := ws.NewConnHub(log)

	dispatchHandler := handler.NewDispatch(dispatchService, shiftService, log)
	shiftHandler := handler.NewShift(shiftService, log)
	driverWS := wshandler.NewDriverWS(driverHub, shiftService, trackingChannel, cfg.ServiceName, log)
	dashboardWS := wshandler.NewDashboardWS(dashboardHub, trackingChannel, cfg.ServiceName, log)

	httpServer, err := server.New(cfg, dispatchHandler, shiftHandler, driverWS, dashboardWS, verifier, log)
	if err != nil {
		log.Error(ctx, "failed to setup http server", err)
		return nil, err
	}

	return &App{
		postgresDB:   postgresDB,
		rabbitMQ:     rabbitMQ,
		httpServer:   httpServer,
		driverHub:    driverHub,
		dashboardHub: dashboardHub,
		cfg:          cfg,
		log:          log,
	}, nil
}

// Run starts the HTTP server and blocks until a shutdown signal or a fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.httpServer.Run(ctx, errCh)
	defer func() {
		a.close(ctx)
		a.log.Info(ctx, "dispatch service closed")
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	a.log.Info(ctx, "dispatch service started")

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		a.log.Info(ctx, "shutting down application", "signal", sig.String())
		return nil
	}
}

func (a *App) close(ctx context.Context) {
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Warn(ctx, "failed to gracefully close http server", "error", err.Error())
		}
	}

	if a.driverHub != nil {
		a.driverHub.Close()
	}
	if a.dashboardHub != nil {
		a.dashboardHub.Close()
	}

	if a.rabbitMQ != nil {
		if err := a.rabbitMQ.Close(ctx); err != nil {
			a.log.Warn(ctx, "failed to gracefully close rabbitmq", "error", err.Error())
		}
	}

	if a.postgresDB != nil && a.postgresDB.Pool != nil {
		a.postgresDB.Pool.Close()
	}
}
