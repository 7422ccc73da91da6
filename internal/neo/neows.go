package neo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/mr1hm/go-impactor/internal/models"
)

// Defaults applied when a record lacks close-approach figures.
const (
	DefaultVelocityKmS    = 20.0
	DefaultMissDistanceKm = 10_000_000.0
)

// NeoWs response types.

type feedResponse struct {
	ElementCount     int                          `json:"element_count"`
	NearEarthObjects map[string][]json.RawMessage `json:"near_earth_objects"`
}

type neoObject struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	JPLURL            string            `json:"nasa_jpl_url"`
	EstimatedDiameter estimatedDiameter `json:"estimated_diameter"`
	Hazardous         bool              `json:"is_potentially_hazardous_asteroid"`
	CloseApproachData []closeApproach   `json:"close_approach_data"`
}

type estimatedDiameter struct {
	Meters diameterRange `json:"meters"`
}

type diameterRange struct {
	Min *float64 `json:"estimated_diameter_min"`
	Max *float64 `json:"estimated_diameter_max"`
}

type closeApproach struct {
	Date             string `json:"close_approach_date"`
	DateFull         string `json:"close_approach_date_full"`
	RelativeVelocity struct {
		KilometersPerSecond figure `json:"kilometers_per_second"`
	} `json:"relative_velocity"`
	MissDistance struct {
		Kilometers figure `json:"kilometers"`
	} `json:"miss_distance"`
	OrbitingBody string `json:"orbiting_body"`
}

// figure holds a number NeoWs may send quoted, bare, or as junk. Decoding
// never fails; Float64 reports whether the value parsed.
type figure json.RawMessage

func (f *figure) UnmarshalJSON(data []byte) error {
	*f = append((*f)[:0], data...)
	return nil
}

func (f figure) Float64() (float64, error) {
	s := string(bytes.Trim(bytes.TrimSpace(f), `"`))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite figure %q", s)
	}
	return v, nil
}

func (o neoObject) toAsteroid(raw []byte) models.Asteroid {
	a := models.Asteroid{
		ID:             o.ID,
		Name:           o.Name,
		JPLURL:         o.JPLURL,
		Hazardous:      o.Hazardous,
		VelocityKmS:    DefaultVelocityKmS,
		MissDistanceKm: DefaultMissDistanceKm,
		Raw:            raw,
	}
	if o.EstimatedDiameter.Meters.Min != nil {
		a.DiameterMinM = *o.EstimatedDiameter.Meters.Min
	}
	if o.EstimatedDiameter.Meters.Max != nil {
		a.DiameterMaxM = *o.EstimatedDiameter.Meters.Max
	}

	if len(o.CloseApproachData) > 0 {
		ca := o.CloseApproachData[0]
		a.HasApproach = true
		a.ApproachDate = ca.Date
		if v, err := ca.RelativeVelocity.KilometersPerSecond.Float64(); err == nil {
			a.VelocityKmS = v
		}
		if d, err := ca.MissDistance.Kilometers.Float64(); err == nil {
			a.MissDistanceKm = d
		}
	}
	return a
}

func decodeObject(raw json.RawMessage) (models.Asteroid, error) {
	var obj neoObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return models.Asteroid{}, err
	}
	return obj.toAsteroid(raw), nil
}
