// Package mitigation extrapolates how far a velocity change applied ahead of
// time moves an impactor. It is a straight-line estimate, not orbital mechanics.
package mitigation

import "github.com/mr1hm/go-impactor/internal/impact"

const (
	hoursPerDay    = 24
	secondsPerHour = 3600
	metersPerKm    = 1000

	// KmPerDegree approximates one degree of latitude.
	KmPerDegree = 111.0
	// shiftDamping scales the degree shift applied to the impact point.
	shiftDamping = 0.1

	// AvoidanceThresholdKm is the displacement past which the impact counts as avoided.
	AvoidanceThresholdKm = 1000.0
)

// Request mirrors the mitigation form. Diameter, velocity and density describe
// the impactor but do not enter the linear model.
type Request struct {
	DiameterM        float64
	VelocityKmS      float64
	DensityKgM3      float64
	DeltaVMS         float64
	TimeBeforeImpact float64 // days
	Location         impact.Location
}

type Result struct {
	DeflectionDistanceKm float64          `json:"deflection_distance_km"`
	MissDistanceKm       float64          `json:"miss_distance_km"`
	ImpactAvoided        bool             `json:"impact_avoided"`
	OriginalImpact       impact.Location  `json:"original_impact"`
	NewImpact            *impact.Location `json:"new_impact"`
	DeltaVApplied        float64          `json:"delta_v_applied"`
	TimeBeforeImpactDays float64          `json:"time_before_impact_days"`
}

// DeflectionDistanceKm is delta-v (m/s) times lead time, in kilometres. The
// lead time is converted to seconds one factor at a time.
func DeflectionDistanceKm(deltaVMS, days float64) float64 {
	seconds := days * hoursPerDay * secondsPerHour
	return deltaVMS * seconds / metersPerKm
}

func Deflect(req Request) Result {
	distance := DeflectionDistanceKm(req.DeltaVMS, req.TimeBeforeImpact)
	avoided := distance > AvoidanceThresholdKm

	res := Result{
		DeflectionDistanceKm: distance,
		MissDistanceKm:       distance,
		ImpactAvoided:        avoided,
		OriginalImpact:       req.Location,
		DeltaVApplied:        req.DeltaVMS,
		TimeBeforeImpactDays: req.TimeBeforeImpact,
	}
	if !avoided {
		shift := (distance / KmPerDegree) * shiftDamping
		res.NewImpact = &impact.Location{
			Lat: req.Location.Lat + shift,
			Lon: req.Location.Lon + shift,
		}
	}
	return res
}
