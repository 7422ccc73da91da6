package models

import "time"

// HazardAlert is emitted when a potentially hazardous approach enters the
// catalog. Energy and severity come from simulating a head-on impact.
type HazardAlert struct {
	ID             string    `json:"id"`
	AsteroidID     string    `json:"asteroid_id"`
	Name           string    `json:"name"`
	ApproachDate   string    `json:"close_approach_date"`
	DiameterM      float64   `json:"diameter_m"`
	VelocityKmS    float64   `json:"velocity_km_s"`
	MissDistanceKm float64   `json:"miss_distance_km"`
	EnergyMegatons float64   `json:"energy_megatons"`
	Severity       string    `json:"severity"`
	ImpactType     string    `json:"impact_type"`
	CreatedAt      time.Time `json:"created_at"`
}
