package impact

import (
	"cmp"
	"slices"
)

type ZoneName string

const (
	ZoneCrater     ZoneName = "crater"
	ZoneThermal    ZoneName = "thermal"
	ZoneShockwave  ZoneName = "shockwave"
	ZoneEarthquake ZoneName = "earthquake"
	ZoneEjecta     ZoneName = "ejecta"
)

type Zone struct {
	RadiusKm    float64 `json:"radius_km"`
	Description string  `json:"description"`
	Color       string  `json:"color"`
	Intensity   float64 `json:"intensity"`
}

// Zones holds the damage bands around ground zero. The flat radius fields are
// what map clients read; Bands carries the per-zone annotations.
type Zones struct {
	Epicenter        float64           `json:"epicenter"`
	ThermalRadius    float64           `json:"thermal_radius"`
	ShockwaveRadius  float64           `json:"shockwave_radius"`
	EarthquakeRadius float64           `json:"earthquake_radius"`
	EjectaRadius     float64           `json:"ejecta_radius"`
	Bands            map[ZoneName]Zone `json:"zones"`
}

type NamedZone struct {
	Name ZoneName
	Zone
}

var zoneTable = []struct {
	name        ZoneName
	multiplier  float64
	description string
	color       string
	intensity   float64
}{
	{ZoneCrater, 1, "Crater excavation and total vaporization", "#ff4444", 1.0},
	{ZoneThermal, 50, "Thermal radiation ignites fires and causes severe burns", "#ff4400", 0.8},
	{ZoneShockwave, 25, "Air blast flattens buildings and forests", "#ff8800", 0.6},
	{ZoneEarthquake, 15, "Ground shaking damages structures", "#ffaa00", 0.4},
	{ZoneEjecta, 8, "Falling ejecta and debris", "#ffff00", 0.2},
}

// CalculateImpactZones scales each band from the crater radius.
// energyMegatons is part of the signature but does not influence any radius.
func CalculateImpactZones(craterRadiusKm, energyMegatons float64) Zones {
	_ = energyMegatons

	bands := make(map[ZoneName]Zone, len(zoneTable))
	for _, z := range zoneTable {
		bands[z.name] = Zone{
			RadiusKm:    craterRadiusKm * z.multiplier,
			Description: z.description,
			Color:       z.color,
			Intensity:   z.intensity,
		}
	}

	return Zones{
		Epicenter:        bands[ZoneCrater].RadiusKm,
		ThermalRadius:    bands[ZoneThermal].RadiusKm,
		ShockwaveRadius:  bands[ZoneShockwave].RadiusKm,
		EarthquakeRadius: bands[ZoneEarthquake].RadiusKm,
		EjectaRadius:     bands[ZoneEjecta].RadiusKm,
		Bands:            bands,
	}
}

// Ordered returns the bands largest radius first, which is the drawing order
// for stacked map overlays.
func (z Zones) Ordered() []NamedZone {
	out := make([]NamedZone, 0, len(z.Bands))
	for name, zone := range z.Bands {
		out = append(out, NamedZone{Name: name, Zone: zone})
	}
	slices.SortFunc(out, func(a, b NamedZone) int {
		if c := cmp.Compare(b.RadiusKm, a.RadiusKm); c != 0 {
			return c
		}
		return cmp.Compare(b.Intensity, a.Intensity)
	})
	return out
}
