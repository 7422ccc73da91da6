package impact

import (
	"errors"
	"fmt"
	"math"
)

// ErrNonFinite is wrapped by ComputationError when the arithmetic produced NaN
// or an infinity, e.g. for negative or absurdly large inputs.
var ErrNonFinite = errors.New("non-finite result")

type ComputationError struct {
	Quantity string
	Value    float64
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s evaluated to %v", e.Quantity, e.Value)
}

func (e *ComputationError) Unwrap() error {
	return ErrNonFinite
}

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Input is one simulation request. VelocityMS is in metres per second.
// AngleDeg is carried through untouched; no formula consumes it.
type Input struct {
	DiameterM   float64
	VelocityMS  float64
	DensityKgM3 float64
	AngleDeg    float64
	Location    *Location
}

type Result struct {
	DiameterM             float64     `json:"diameter_m"`
	DensityKgM3           float64     `json:"density_kgm3"`
	VelocityMS            float64     `json:"velocity_ms"`
	MassKg                float64     `json:"mass_kg"`
	KineticEnergyJoules   float64     `json:"kinetic_energy_joules"`
	KineticEnergyMegatons float64     `json:"kinetic_energy_megatons"`
	CraterDiameterKm      float64     `json:"crater_diameter_km"`
	CraterDepthKm         float64     `json:"crater_depth_km"`
	CraterRadiusKm        float64     `json:"crater_radius_km"`
	SeismicMagnitude      float64     `json:"seismic_magnitude"`
	ImpactType            ImpactType  `json:"impact_type"`
	Comparisons           Comparisons `json:"comparisons"`
	ImpactZones           Zones       `json:"impact_zones"`
	ImpactLocation        *Location   `json:"impact_location"`
}

// Simulate runs the full pipeline: energy, then crater, magnitude and
// comparisons, then damage zones from the crater radius.
func Simulate(in Input) (Result, error) {
	energy := CalculateKineticEnergy(in.DiameterM, in.VelocityMS, in.DensityKgM3)
	megatons := energy / JoulesPerMegaton
	crater := CalculateCraterSize(energy)
	craterRadiusKm := crater.RadiusM / MetersPerKilometer

	res := Result{
		DiameterM:             in.DiameterM,
		DensityKgM3:           in.DensityKgM3,
		VelocityMS:            in.VelocityMS,
		MassKg:                CalculateMass(in.DiameterM, in.DensityKgM3),
		KineticEnergyJoules:   energy,
		KineticEnergyMegatons: megatons,
		CraterDiameterKm:      crater.DiameterM / MetersPerKilometer,
		CraterDepthKm:         crater.DepthM / MetersPerKilometer,
		CraterRadiusKm:        craterRadiusKm,
		SeismicMagnitude:      CalculateSeismicMagnitude(energy),
		ImpactType:            ClassifyImpact(in.DiameterM),
		Comparisons:           EnergyComparisons(energy),
		ImpactZones:           CalculateImpactZones(craterRadiusKm, megatons),
	}
	if in.Location != nil {
		loc := *in.Location
		res.ImpactLocation = &loc
	}

	if err := res.checkFinite(); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (r Result) checkFinite() error {
	quantities := []struct {
		name  string
		value float64
	}{
		{"mass_kg", r.MassKg},
		{"kinetic_energy_joules", r.KineticEnergyJoules},
		{"crater_diameter_km", r.CraterDiameterKm},
		{"seismic_magnitude", r.SeismicMagnitude},
		{"hiroshima_bombs", r.Comparisons.HiroshimaBombs},
		{"thermal_radius", r.ImpactZones.ThermalRadius},
	}
	for _, q := range quantities {
		if math.IsNaN(q.value) || math.IsInf(q.value, 0) {
			return &ComputationError{Quantity: q.name, Value: q.value}
		}
	}
	return nil
}
