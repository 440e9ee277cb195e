package service

import (
	"github.com/rotafacil/fleet-engine/internal/core/domain"
	"github.com/rotafacil/fleet-engine/internal/core/ports"
)

// Default placeholders applied when a stop arrives without load data. A
// missing weight must never count as zero, or capacity would be silently
// over-reported.
const (
	defaultWeightKg = 0.1
	minVolumes      = 1
)

// CapacityValidator checks candidate loads against a vehicle capacity
// profile. It is stateless and never mutates the profile.
type CapacityValidator struct{}

func NewCapacityValidator() *CapacityValidator {
	return &CapacityValidator{}
}

// resolveLoad is the named default-resolution step: missing weight or volume
// values are replaced with minimal non-zero placeholders.
func resolveLoad(l domain.Load) domain.Load {
	if l.WeightKg <= 0 {
		l.WeightKg = defaultWeightKg
	}
	if l.Volumes <= 0 {
		l.Volumes = minVolumes
	}
	return l
}

// Check validates a single candidate load against the profile.
func (v *CapacityValidator) Check(profile domain.CapacityProfile, load domain.Load) ports.CapacityReport {
	return v.CheckRoute(profile, []domain.Load{load})
}

// CheckRoute sums all loads and validates them against the profile, failing
// fast on the first dimension that would be exceeded. The report always
// carries the batch totals so callers can decide how to split.
func (v *CapacityValidator) CheckRoute(profile domain.CapacityProfile, loads []domain.Load) ports.CapacityReport {
	var totalWeight, totalCubic float64
	var totalVolumes int
	hasCubic := false

	for _, l := range loads {
		l = resolveLoad(l)
		totalWeight += l.WeightKg
		totalVolumes += l.Volumes
		if l.CubicM != nil {
			totalCubic += *l.CubicM
			hasCubic = true
		}
	}

	report := ports.CapacityReport{Fits: true}

	if profile.MaxWeightKg > 0 && totalWeight > profile.MaxWeightKg {
		report.Fits = false
		report.Exceeded = &domain.CapacityExceededError{
			Dimension: "weight_kg",
			Limit:     profile.MaxWeightKg,
			Attempted: totalWeight,
		}
	} else if profile.MaxVolumes > 0 && totalVolumes > profile.MaxVolumes {
		report.Fits = false
		report.Exceeded = &domain.CapacityExceededError{
			Dimension: "volumes",
			Limit:     float64(profile.MaxVolumes),
			Attempted: float64(totalVolumes),
		}
	} else if profile.MaxCubicM != nil && hasCubic && totalCubic > *profile.MaxCubicM {
		report.Fits = false
		report.Exceeded = &domain.CapacityExceededError{
			Dimension: "cubic_m",
			Limit:     *profile.MaxCubicM,
			Attempted: totalCubic,
		}
	}

	report.WeightHeadroomKg = profile.MaxWeightKg - totalWeight
	report.VolumeHeadroom = profile.MaxVolumes - totalVolumes
	if profile.MaxCubicM != nil {
		h := *profile.MaxCubicM - totalCubic
		report.CubicHeadroomM = &h
	}
	if profile.MaxWeightKg > 0 {
		report.UtilizationPct = totalWeight / profile.MaxWeightKg * 100
	}

	return report
}
