package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
	"github.com/rotafacil/fleet-engine/internal/core/ports"
)

// PositionDispatcher is the interface the handler uses to enqueue samples.
type PositionDispatcher interface {
	Enqueue(p domain.Position)
	EnqueueBatch(positions []domain.Position)
}

// TrackingHandler handles position ingestion and the status state machines.
type TrackingHandler struct {
	dispatcher PositionDispatcher
	tracker    ports.TrackerService
	positions  ports.PositionStore
	geofence   ports.GeofenceEventRepository
}

func NewTrackingHandler(
	dispatcher PositionDispatcher,
	tracker ports.TrackerService,
	positions ports.PositionStore,
	geofence ports.GeofenceEventRepository,
) *TrackingHandler {
	return &TrackingHandler{
		dispatcher: dispatcher,
		tracker:    tracker,
		positions:  positions,
		geofence:   geofence,
	}
}

// ReceivePosition handles POST /v1/tracking/position — enqueues a sample for
// ordered ingestion, returns 202.
//
// @Summary      Ingest a driver position sample
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        body  body      positionRequest  true  "Position sample"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/tracking/position [post]
func (h *TrackingHandler) ReceivePosition(c echo.Context) error {
	var req positionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.dispatcher.Enqueue(toPosition(req))
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "position accepted"})
}

// ReceivePositionBatch handles POST /v1/tracking/position/batch.
//
// @Summary      Ingest a batch of position samples
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        body  body      []positionRequest  true  "Array of position samples"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/tracking/position/batch [post]
func (h *TrackingHandler) ReceivePositionBatch(c echo.Context) error {
	var reqs []positionRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(reqs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "batch cannot be empty")
	}

	positions := make([]domain.Position, 0, len(reqs))
	for _, req := range reqs {
		if err := c.Validate(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		positions = append(positions, toPosition(req))
	}

	h.dispatcher.EnqueueBatch(positions)
	return c.JSON(http.StatusAccepted, acceptedResponse{
		Message: "positions accepted",
		Count:   len(positions),
	})
}

// UpdateStopStatus handles PATCH /v1/stops/:id/status.
//
// @Summary      Transition a stop's delivery status
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Stop id"
// @Param        body  body      stopStatusRequest  true  "Target status"
// @Success      200   {object}  routeResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/stops/{id}/status [patch]
func (h *TrackingHandler) UpdateStopStatus(c echo.Context) error {
	var req stopStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	route, err := h.tracker.TransitionStop(c.Request().Context(), ports.StopTransitionInput{
		StopID:        c.Param("id"),
		RouteID:       req.RouteID,
		Status:        domain.DeliveryStatus(req.Status),
		FailureReason: domain.FailureReason(req.FailureReason),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRouteResponse(route))
}

// UpdateDriverStatus handles PATCH /v1/drivers/:id/status.
//
// @Summary      Transition a driver's availability status
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "Driver id"
// @Param        body  body      driverStatusRequest  true  "Target status"
// @Success      200   {object}  driverResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/drivers/{id}/status [patch]
func (h *TrackingHandler) UpdateDriverStatus(c echo.Context) error {
	var req driverStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	driver, err := h.tracker.TransitionDriver(c.Request().Context(), ports.DriverTransitionInput{
		DriverID: c.Param("id"),
		Status:   domain.DriverStatus(req.Status),
		Reason:   req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDriverResponse(driver))
}

// ListPositions handles GET /v1/drivers/:id/positions?limit=n.
//
// @Summary      List a driver's recent positions, newest first
// @Tags         tracking
// @Produce      json
// @Param        id     path      string  true   "Driver id"
// @Param        limit  query     int     false  "Maximum samples to return"
// @Success      200    {array}   positionResponse
// @Router       /v1/drivers/{id}/positions [get]
func (h *TrackingHandler) ListPositions(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	positions, err := h.positions.Recent(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return err
	}

	out := make([]positionResponse, len(positions))
	for i, p := range positions {
		out[i] = toPositionResponse(p)
	}
	return c.JSON(http.StatusOK, out)
}

// ListGeofenceEvents handles GET /v1/drivers/:id/geofence-events?limit=n.
//
// @Summary      List a driver's geofence events, newest first
// @Tags         tracking
// @Produce      json
// @Param        id     path      string  true   "Driver id"
// @Param        limit  query     int     false  "Maximum events to return"
// @Success      200    {array}   geofenceEventResponse
// @Router       /v1/drivers/{id}/geofence-events [get]
func (h *TrackingHandler) ListGeofenceEvents(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	events, err := h.geofence.ListByDriver(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return err
	}

	out := make([]geofenceEventResponse, len(events))
	for i, e := range events {
		out[i] = geofenceEventResponse{
			ID:           e.ID,
			DriverID:     e.DriverID,
			ZoneID:       e.ZoneID,
			Type:         string(e.Type),
			Position:     coordinatesResponse{Lat: e.Position.Lat, Lng: e.Position.Lng},
			BoundaryKm:   e.BoundaryKm,
			Timestamp:    e.Timestamp,
			DwellMinutes: e.DwellMinutes,
		}
	}
	return c.JSON(http.StatusOK, out)
}

func toPosition(req positionRequest) domain.Position {
	return domain.Position{
		DriverID:    req.DriverID,
		RouteID:     req.RouteID,
		Coordinates: domain.Coordinates{Lat: req.Coordinates.Lat, Lng: req.Coordinates.Lng},
		Timestamp:   req.Timestamp,
	}
}

func toPositionResponse(p *domain.Position) positionResponse {
	return positionResponse{
		DriverID:    p.DriverID,
		RouteID:     p.RouteID,
		Coordinates: coordinatesResponse{Lat: p.Coordinates.Lat, Lng: p.Coordinates.Lng},
		Timestamp:   p.Timestamp,
	}
}

func toDriverResponse(d *domain.Driver) driverResponse {
	out := driverResponse{
		ID:              d.ID,
		Name:            d.Name,
		Status:          string(d.Status),
		StatusReason:    d.StatusReason,
		ActiveRouteID:   d.ActiveRouteID,
		StatusChangedAt: d.StatusChangedAt,
	}
	if d.LastPosition != nil {
		p := toPositionResponse(d.LastPosition)
		out.LastPosition = &p
	}
	return out
}
