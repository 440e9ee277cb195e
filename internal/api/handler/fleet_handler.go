package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rotafacil/fleet-engine/internal/api/metrics"
	"github.com/rotafacil/fleet-engine/internal/core/domain"
	"github.com/rotafacil/fleet-engine/internal/core/ports"
)

// CapacityChecker validates candidate loads against a vehicle profile.
type CapacityChecker interface {
	CheckRoute(profile domain.CapacityProfile, loads []domain.Load) ports.CapacityReport
}

// FleetHandler handles HTTP requests for stop distribution and capacity checks.
type FleetHandler struct {
	fleet    ports.FleetService
	capacity CapacityChecker
}

func NewFleetHandler(fleet ports.FleetService, capacity CapacityChecker) *FleetHandler {
	return &FleetHandler{fleet: fleet, capacity: capacity}
}

// Distribute handles POST /v1/fleet/distribute.
//
// @Summary      Assign unassigned stops to available drivers
// @Tags         fleet
// @Accept       json
// @Produce      json
// @Param        body  body      distributeRequest  true  "Distribution batch"
// @Success      200   {object}  distributionResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/fleet/distribute [post]
func (h *FleetHandler) Distribute(c echo.Context) error {
	var req distributeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.fleet.Distribute(c.Request().Context(), req.OrgID, req.StopIDs)
	if err != nil {
		return err
	}
	recordDistribution(result)
	return c.JSON(http.StatusOK, toDistributionResponse(result))
}

// Suggest handles POST /v1/fleet/suggest — same assignment as Distribute but
// nothing is persisted.
//
// @Summary      Preview a distribution without committing it
// @Tags         fleet
// @Accept       json
// @Produce      json
// @Param        body  body      distributeRequest  true  "Distribution batch"
// @Success      200   {object}  distributionResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/fleet/suggest [post]
func (h *FleetHandler) Suggest(c echo.Context) error {
	var req distributeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.fleet.Suggest(c.Request().Context(), req.OrgID, req.StopIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDistributionResponse(result))
}

// Redistribute handles POST /v1/fleet/redistribute/:driver_id.
//
// @Summary      Pull a driver's pending stops back and redistribute them
// @Tags         fleet
// @Produce      json
// @Param        driver_id  path      string  true  "Driver id"
// @Success      200        {object}  distributionResponse
// @Failure      404        {object}  errorResponse
// @Router       /v1/fleet/redistribute/{driver_id} [post]
func (h *FleetHandler) Redistribute(c echo.Context) error {
	result, err := h.fleet.Redistribute(c.Request().Context(), c.Param("driver_id"))
	if err != nil {
		return err
	}
	recordDistribution(result)
	return c.JSON(http.StatusOK, toDistributionResponse(result))
}

// CheckCapacity handles POST /v1/capacity/check.
//
// @Summary      Check candidate loads against a vehicle capacity profile
// @Tags         fleet
// @Accept       json
// @Produce      json
// @Param        body  body      capacityCheckRequest  true  "Profile and loads"
// @Success      200   {object}  capacityReportResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/capacity/check [post]
func (h *FleetHandler) CheckCapacity(c echo.Context) error {
	var req capacityCheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	profile := domain.CapacityProfile{
		MaxWeightKg: req.Profile.MaxWeightKg,
		MaxVolumes:  req.Profile.MaxVolumes,
		MaxCubicM:   req.Profile.MaxCubicM,
	}
	loads := make([]domain.Load, len(req.Loads))
	for i, l := range req.Loads {
		loads[i] = domain.Load{WeightKg: l.WeightKg, Volumes: l.Volumes, CubicM: l.CubicM}
	}

	report := h.capacity.CheckRoute(profile, loads)
	return c.JSON(http.StatusOK, toCapacityResponse(report))
}

func toDistributionResponse(r *ports.DistributionResult) distributionResponse {
	out := distributionResponse{
		Assignments: make([]assignmentResponse, len(r.Assignments)),
		Routes:      make(map[string]routeResponse, len(r.Routes)),
		Unplaced:    make([]placementFailureResponse, len(r.Unplaced)),
	}
	for i, a := range r.Assignments {
		out.Assignments[i] = assignmentResponse{StopID: a.StopID, DriverID: a.DriverID}
	}
	for driverID, route := range r.Routes {
		out.Routes[driverID] = toRouteResponse(route)
	}
	for i, u := range r.Unplaced {
		out.Unplaced[i] = placementFailureResponse{StopID: u.StopID, Reason: u.Reason}
	}
	return out
}

func toCapacityResponse(r ports.CapacityReport) capacityReportResponse {
	out := capacityReportResponse{
		Fits:             r.Fits,
		WeightHeadroomKg: r.WeightHeadroomKg,
		VolumeHeadroom:   r.VolumeHeadroom,
		CubicHeadroomM:   r.CubicHeadroomM,
		UtilizationPct:   r.UtilizationPct,
	}
	if r.Exceeded != nil {
		out.Exceeded = r.Exceeded.Error()
	}
	return out
}

func recordDistribution(r *ports.DistributionResult) {
	metrics.StopsDistributedTotal.Add(float64(len(r.Assignments)))
	for _, u := range r.Unplaced {
		metrics.StopsUnplacedTotal.WithLabelValues(u.Reason).Inc()
	}
}
