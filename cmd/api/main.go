package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rotafacil/fleet-engine/internal/api"
	"github.com/rotafacil/fleet-engine/internal/core/service"
	mongodb "github.com/rotafacil/fleet-engine/internal/infrastructure/db/mongo"
	redisdb "github.com/rotafacil/fleet-engine/internal/infrastructure/db/redis"
	"github.com/rotafacil/fleet-engine/internal/infrastructure/queue"
	"github.com/rotafacil/fleet-engine/internal/infrastructure/stream"
	"github.com/rotafacil/fleet-engine/internal/pkg/config"
	"github.com/rotafacil/fleet-engine/pkg/logger"
)

// @title        Fleet Engine API
// @version      1.0
// @description  Route optimization and fleet coordination for last-mile delivery.
// @BasePath     /
func main() {
	_ = godotenv.Load() // .env is optional, real environments set variables directly

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	routeRepo := mongodb.NewRouteRepository(db)
	stopRepo := mongodb.NewStopRepository(db)
	driverRepo := mongodb.NewDriverRepository(db)
	zoneRepo := mongodb.NewZoneRepository(db)
	geofenceRepo := mongodb.NewGeofenceEventRepository(db)
	historyRepo := mongodb.NewStatusHistoryRepository(db)
	positionStore := redisdb.NewPositionStore(rdb, cfg.Engine.PositionHistoryLimit)

	if err := routeRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("route index creation failed")
	}
	if err := geofenceRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("geofence index creation failed")
	}

	// --- Core services ---
	hub := stream.NewHub(logger.With("stream"))
	builder := service.NewRouteBuilder(cfg.Engine, logger.With("builder"))
	capacity := service.NewCapacityValidator()
	planner := service.NewPlanner(routeRepo, builder, logger.With("planner"))
	fleet := service.NewFleetDistributor(stopRepo, driverRepo, routeRepo, builder, capacity, logger.With("fleet"))
	reoptimizer := service.NewReoptimizer(routeRepo, builder, hub, logger.With("reoptimizer"))
	geofence := service.NewGeofenceEvaluator(zoneRepo, geofenceRepo, cfg.Engine, logger.With("geofence"))
	tracker := service.NewTracker(routeRepo, driverRepo, stopRepo, historyRepo, positionStore, hub, fleet, logger.With("tracker"))

	dispatcher := queue.NewDispatcher(0, tracker, geofence, logger.With("dispatcher"))
	dispatcher.Start(ctx)

	// --- HTTP server ---
	e := api.NewRouter(api.Dependencies{
		Planner:     planner,
		Reoptimizer: reoptimizer,
		Fleet:       fleet,
		Tracker:     tracker,
		Capacity:    capacity,
		Dispatcher:  dispatcher,
		Positions:   positionStore,
		GeofenceLog: geofenceRepo,
		Stream:      hub,
		Mongo:       db,
		Redis:       rdb,
		Logger:      log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
