// Package impact estimates the physical consequences of an asteroid striking
// the ground. Every function is pure; results depend only on their arguments.
//
// The formulas are deliberately simple empirical approximations. They are
// kept exactly as they are so that outputs stay comparable across releases.
package impact

import (
	"math"
	"strconv"
)

const (
	JoulesPerKiloton = 4.184e12
	JoulesPerMegaton = 4.184e15

	MetersPerKilometer = 1000.0

	// DefaultDensityKgM3 is used when a caller omits the impactor density (stony body).
	DefaultDensityKgM3 = 3000.0
	// DefaultAngleDeg is accepted and echoed, never used in a formula.
	DefaultAngleDeg = 45.0
)

// crater scaling: diameter_m = craterCoefficient * kt^craterExponent * 1000
const (
	craterCoefficient = 0.8
	craterExponent    = 0.294
	craterDepthRatio  = 5.0
)

// seismic conversion: M = (2/3)*log10(E) - 5.87
const seismicOffset = 5.87

type Crater struct {
	DiameterM float64 `json:"diameter"`
	DepthM    float64 `json:"depth"`
	RadiusM   float64 `json:"radius"`
}

// CalculateMass returns the mass in kg of a sphere of the given diameter (m)
// and density (kg/m³).
func CalculateMass(diameterM, densityKgM3 float64) float64 {
	radius := diameterM / 2
	volume := (4.0 / 3.0) * math.Pi * math.Pow(radius, 3)
	return densityKgM3 * volume
}

// CalculateKineticEnergy returns the kinetic energy in joules. velocityMS must
// already be in metres per second.
func CalculateKineticEnergy(diameterM, velocityMS, densityKgM3 float64) float64 {
	mass := CalculateMass(diameterM, densityKgM3)
	return 0.5 * mass * math.Pow(velocityMS, 2)
}

// CalculateCraterSize converts energy to kilotons of TNT and applies the
// power-law scaling. Zero energy yields a zero-sized crater.
func CalculateCraterSize(kineticEnergyJ float64) Crater {
	energyKt := kineticEnergyJ / JoulesPerKiloton

	var diameter float64
	if energyKt != 0 {
		diameter = craterCoefficient * math.Pow(energyKt, craterExponent) * MetersPerKilometer
	}

	return Crater{
		DiameterM: diameter,
		DepthM:    diameter / craterDepthRatio,
		RadiusM:   diameter / 2,
	}
}

// CalculateSeismicMagnitude returns a Richter-like magnitude rounded to one
// decimal place. Non-positive energy returns exactly 0.
func CalculateSeismicMagnitude(kineticEnergyJ float64) float64 {
	if kineticEnergyJ <= 0 {
		return 0
	}
	magnitude := (2.0/3.0)*math.Log10(kineticEnergyJ) - seismicOffset
	return roundTenths(magnitude)
}

// roundTenths rounds the exact binary value to one decimal, ties to even.
// Scaling by 10 first can land on a spurious .5.
func roundTenths(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return r
}

type ImpactType string

const (
	ImpactTypeAirburstLocal ImpactType = "airburst / local"
	ImpactTypeRegional      ImpactType = "regional"
	ImpactTypeContinental   ImpactType = "continental"
	ImpactTypeGlobal        ImpactType = "global"
)

// ClassifyImpact buckets an impactor by diameter alone.
func ClassifyImpact(diameterM float64) ImpactType {
	switch {
	case diameterM < 25:
		return ImpactTypeAirburstLocal
	case diameterM < 100:
		return ImpactTypeRegional
	case diameterM < 1000:
		return ImpactTypeContinental
	default:
		return ImpactTypeGlobal
	}
}
