package handler

// --- Request / Response types ---

type distributeRequest struct {
	OrgID   string   `json:"org_id" validate:"required"`
	StopIDs []string `json:"stop_ids,omitempty"`
}

type capacityProfileRequest struct {
	MaxWeightKg float64  `json:"max_weight_kg" validate:"gte=0"`
	MaxVolumes  int      `json:"max_volumes"   validate:"gte=0"`
	MaxCubicM   *float64 `json:"max_cubic_m,omitempty"`
}

type capacityCheckRequest struct {
	Profile capacityProfileRequest `json:"profile" validate:"required"`
	Loads   []loadRequest          `json:"loads"   validate:"required,min=1"`
}

type capacityReportResponse struct {
	Fits             bool     `json:"fits"`
	WeightHeadroomKg float64  `json:"weight_headroom_kg"`
	VolumeHeadroom   int      `json:"volume_headroom"`
	CubicHeadroomM   *float64 `json:"cubic_headroom_m,omitempty"`
	UtilizationPct   float64  `json:"utilization_pct"`
	Exceeded         string   `json:"exceeded,omitempty"`
}

type assignmentResponse struct {
	StopID   string `json:"stop_id"`
	DriverID string `json:"driver_id"`
}

type placementFailureResponse struct {
	StopID string `json:"stop_id"`
	Reason string `json:"reason"`
}

type distributionResponse struct {
	Assignments []assignmentResponse       `json:"assignments"`
	Routes      map[string]routeResponse   `json:"routes"`
	Unplaced    []placementFailureResponse `json:"unplaced"`
}
