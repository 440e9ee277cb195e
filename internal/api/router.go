package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/rotafacil/fleet-engine/docs" // swagger spec, generated
	"github.com/rotafacil/fleet-engine/internal/api/handler"
	"github.com/rotafacil/fleet-engine/internal/core/ports"
)

// Dependencies carries the wired services and adapters the router exposes.
// Composition happens in main; the router only binds them to endpoints.
type Dependencies struct {
	Planner     ports.PlannerService
	Reoptimizer ports.ReoptimizeService
	Fleet       ports.FleetService
	Tracker     ports.TrackerService
	Capacity    handler.CapacityChecker
	Dispatcher  handler.PositionDispatcher
	Positions   ports.PositionStore
	GeofenceLog ports.GeofenceEventRepository
	Stream      handler.LiveStreamer
	Mongo       *mongo.Database
	Redis       *redis.Client
	Logger      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("fleet"))

	// --- Handlers ---
	routeHandler := handler.NewRouteHandler(deps.Planner, deps.Reoptimizer, deps.Tracker, deps.Stream)
	fleetHandler := handler.NewFleetHandler(deps.Fleet, deps.Capacity)
	trackingHandler := handler.NewTrackingHandler(deps.Dispatcher, deps.Tracker, deps.Positions, deps.GeofenceLog)

	// --- Route planning ---
	v1 := e.Group("/v1")
	v1.GET("/routes/:id", routeHandler.Get)
	v1.POST("/routes/:id/optimize", routeHandler.Optimize)
	v1.POST("/routes/:id/reoptimize", routeHandler.Reoptimize)
	v1.PATCH("/routes/:id/status", routeHandler.UpdateStatus)
	v1.GET("/routes/:id/live", routeHandler.Live)

	// --- Fleet distribution ---
	v1.POST("/fleet/distribute", fleetHandler.Distribute)
	v1.POST("/fleet/suggest", fleetHandler.Suggest)
	v1.POST("/fleet/redistribute/:driver_id", fleetHandler.Redistribute)
	v1.POST("/capacity/check", fleetHandler.CheckCapacity)

	// --- Tracking ---
	v1.POST("/tracking/position", trackingHandler.ReceivePosition)
	v1.POST("/tracking/position/batch", trackingHandler.ReceivePositionBatch)
	v1.PATCH("/stops/:id/status", trackingHandler.UpdateStopStatus)
	v1.PATCH("/drivers/:id/status", trackingHandler.UpdateDriverStatus)
	v1.GET("/drivers/:id/positions", trackingHandler.ListPositions)
	v1.GET("/drivers/:id/geofence-events", trackingHandler.ListGeofenceEvents)

	// --- Health probes ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability and docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
