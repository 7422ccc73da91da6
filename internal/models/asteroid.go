package models

import "time"

// Asteroid is one close approach of a near-Earth object as reported by NeoWs.
// The same object can appear once per approach date.
type Asteroid struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	JPLURL         string    `json:"nasa_jpl_url,omitempty"`
	DiameterMinM   float64   `json:"diameter_min_m"`
	DiameterMaxM   float64   `json:"diameter_max_m"`
	VelocityKmS    float64   `json:"relative_velocity_km_s"`
	MissDistanceKm float64   `json:"miss_distance_km"`
	ApproachDate   string    `json:"close_approach_date"` // YYYY-MM-DD, empty when unknown
	Hazardous      bool      `json:"hazardous"`
	HasApproach    bool      `json:"-"`
	Raw            []byte    `json:"-"` // original JSON for debugging
	CreatedAt      time.Time `json:"-"` // when we ingested it
}

// Key identifies a stored approach.
func (a *Asteroid) Key() string {
	return a.ID + "@" + a.ApproachDate
}
