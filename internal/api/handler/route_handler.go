package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rotafacil/fleet-engine/internal/api/metrics"
	"github.com/rotafacil/fleet-engine/internal/core/domain"
	"github.com/rotafacil/fleet-engine/internal/core/ports"
)

// LiveStreamer is the interface the handler uses to hand a connection over to
// the websocket fan-out.
type LiveStreamer interface {
	ServeRoute(c echo.Context, routeID string) error
}

// RouteHandler handles HTTP requests for route planning and repair.
type RouteHandler struct {
	planner     ports.PlannerService
	reoptimizer ports.ReoptimizeService
	tracker     ports.TrackerService
	stream      LiveStreamer
}

func NewRouteHandler(planner ports.PlannerService, reoptimizer ports.ReoptimizeService, tracker ports.TrackerService, stream LiveStreamer) *RouteHandler {
	return &RouteHandler{
		planner:     planner,
		reoptimizer: reoptimizer,
		tracker:     tracker,
		stream:      stream,
	}
}

// Get handles GET /v1/routes/:id.
//
// @Summary      Get a route with its ordered stops and metrics
// @Tags         routes
// @Produce      json
// @Param        id   path      string  true  "Route id"
// @Success      200  {object}  routeResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/routes/{id} [get]
func (h *RouteHandler) Get(c echo.Context) error {
	route, err := h.planner.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRouteResponse(route))
}

// Optimize handles POST /v1/routes/:id/optimize.
//
// @Summary      Optimize the visiting order of a draft route
// @Tags         routes
// @Produce      json
// @Param        id   path      string  true  "Route id"
// @Success      200  {object}  routeResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/routes/{id}/optimize [post]
func (h *RouteHandler) Optimize(c echo.Context) error {
	route, err := h.planner.Optimize(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	metrics.RoutesOptimizedTotal.WithLabelValues("build").Inc()
	return c.JSON(http.StatusOK, toRouteResponse(route))
}

// Reoptimize handles POST /v1/routes/:id/reoptimize.
//
// @Summary      Apply a local repair for a mid-route disruption
// @Tags         routes
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Route id"
// @Param        body  body      reoptimizeRequest  true  "Disruption scenario"
// @Success      200   {object}  repairResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/routes/{id}/reoptimize [post]
func (h *RouteHandler) Reoptimize(c echo.Context) error {
	var req reoptimizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.reoptimizer.Reoptimize(c.Request().Context(), c.Param("id"), toReoptimizationRequest(req))
	if err != nil {
		return err
	}
	metrics.ReoptimizationsTotal.WithLabelValues(string(result.Motivo), result.Action).Inc()
	return c.JSON(http.StatusOK, toRepairResponse(result))
}

// UpdateStatus handles PATCH /v1/routes/:id/status.
//
// @Summary      Transition a route's lifecycle status
// @Tags         routes
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "Route id"
// @Param        body  body      routeStatusRequest  true  "Target status"
// @Success      200   {object}  routeResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/routes/{id}/status [patch]
func (h *RouteHandler) UpdateStatus(c echo.Context) error {
	var req routeStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	route, err := h.tracker.TransitionRoute(c.Request().Context(), c.Param("id"), domain.RouteStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRouteResponse(route))
}

// Live handles GET /v1/routes/:id/live — upgrades to a websocket and streams
// the route's status events.
//
// @Summary      Subscribe to a route's live status stream
// @Tags         routes
// @Param        id  path  string  true  "Route id"
// @Success      101
// @Failure      404  {object}  errorResponse
// @Router       /v1/routes/{id}/live [get]
func (h *RouteHandler) Live(c echo.Context) error {
	routeID := c.Param("id")
	// Reject unknown routes before upgrading the connection.
	if _, err := h.planner.Get(c.Request().Context(), routeID); err != nil {
		return err
	}
	return h.stream.ServeRoute(c, routeID)
}
