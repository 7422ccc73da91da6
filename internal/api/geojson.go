package api

import (
	"math"

	"github.com/mr1hm/go-impactor/internal/impact"
)

const (
	earthRadiusKm  = 6371.0
	circleSegments = 64
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry holds a Point ([lon, lat]) or a Polygon ([][][lon, lat]).
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// zonesToGeoJSON renders ground zero as a Point followed by one ring per
// damage band, largest first so stacked fills draw correctly.
func zonesToGeoJSON(res impact.Result) FeatureCollection {
	loc := impact.Location{}
	if res.ImpactLocation != nil {
		loc = *res.ImpactLocation
	}

	bands := res.ImpactZones.Ordered()
	features := make([]Feature, 0, len(bands)+1)

	features = append(features, Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: []float64{loc.Lon, loc.Lat},
		},
		Properties: map[string]any{
			"kind":                    "epicenter",
			"kinetic_energy_megatons": res.KineticEnergyMegatons,
			"crater_diameter_km":      res.CraterDiameterKm,
			"seismic_magnitude":       res.SeismicMagnitude,
			"impact_type":             res.ImpactType,
			"severity":                res.Comparisons.Severity,
			"risk_level":              res.Comparisons.RiskLevel,
		},
	})

	for _, z := range bands {
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Polygon",
				Coordinates: [][][]float64{circle(loc, z.RadiusKm)},
			},
			Properties: map[string]any{
				"kind":        "zone",
				"zone":        z.Name,
				"radius_km":   z.RadiusKm,
				"description": z.Description,
				"color":       z.Color,
				"intensity":   z.Intensity,
			},
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// circle approximates a geodesic circle as a closed ring of [lon, lat] pairs.
func circle(center impact.Location, radiusKm float64) [][]float64 {
	lat1 := center.Lat * math.Pi / 180
	lon1 := center.Lon * math.Pi / 180
	d := radiusKm / earthRadiusKm

	ring := make([][]float64, 0, circleSegments+1)
	for i := 0; i < circleSegments; i++ {
		bearing := 2 * math.Pi * float64(i) / circleSegments
		lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(bearing))
		lon2 := lon1 + math.Atan2(
			math.Sin(bearing)*math.Sin(d)*math.Cos(lat1),
			math.Cos(d)-math.Sin(lat1)*math.Sin(lat2),
		)
		ring = append(ring, []float64{normalizeLon(lon2 * 180 / math.Pi), lat2 * 180 / math.Pi})
	}
	return append(ring, ring[0])
}

func normalizeLon(lon float64) float64 {
	return math.Mod(lon+540, 360) - 180
}
