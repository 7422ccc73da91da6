package impact

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateKineticEnergy_ReferenceImpactor(t *testing.T) {
	got := CalculateKineticEnergy(100, 20000, 3000)

	volume := (4.0 / 3.0) * math.Pi * math.Pow(50, 3)
	want := 0.5 * 3000 * volume * math.Pow(20000, 2)

	assert.InEpsilon(t, want, got, 1e-12)
	// 100 m stony body at 20 km/s carries pi * 1e17 J.
	assert.InEpsilon(t, math.Pi*1e17, got, 1e-9)
}

func TestCalculateKineticEnergy_Scaling(t *testing.T) {
	base := CalculateKineticEnergy(50, 15000, 2500)

	assert.InEpsilon(t, 4*base, CalculateKineticEnergy(50, 30000, 2500), 1e-12, "doubling velocity quadruples energy")
	assert.InEpsilon(t, 8*base, CalculateKineticEnergy(100, 15000, 2500), 1e-12, "doubling diameter multiplies energy by eight")
	assert.InEpsilon(t, 2*base, CalculateKineticEnergy(50, 15000, 5000), 1e-12, "energy is linear in density")

	prev := 0.0
	for _, d := range []float64{1, 10, 50, 200, 1000} {
		e := CalculateKineticEnergy(d, 15000, 2500)
		assert.Greater(t, e, prev)
		prev = e
	}
}

func TestCalculateKineticEnergy_NegativeVelocitySquared(t *testing.T) {
	assert.Equal(t, CalculateKineticEnergy(40, 12000, 3000), CalculateKineticEnergy(40, -12000, 3000))
}

func TestCalculateCraterSize_ZeroEnergy(t *testing.T) {
	c := CalculateCraterSize(0)
	assert.Equal(t, Crater{}, c)
	assert.False(t, math.IsNaN(c.DiameterM))
}

func TestCalculateCraterSize_Formula(t *testing.T) {
	energy := 3.2e17
	c := CalculateCraterSize(energy)

	want := 0.8 * math.Pow(energy/4.184e12, 0.294) * 1000
	assert.InEpsilon(t, want, c.DiameterM, 1e-12)
	assert.Equal(t, c.DiameterM/5, c.DepthM)
	assert.Equal(t, c.DiameterM/2, c.RadiusM)
}

func TestCalculateCraterSize_Monotonic(t *testing.T) {
	prev := CalculateCraterSize(0).DiameterM
	for _, e := range []float64{1, 1e6, 4.184e12, 1e15, 1e18, 1e21, 4.2e23} {
		c := CalculateCraterSize(e)
		assert.GreaterOrEqual(t, c.DiameterM, prev)
		assert.Equal(t, c.DiameterM/5, c.DepthM)
		assert.Equal(t, c.DiameterM/2, c.RadiusM)
		prev = c.DiameterM
	}
}

func TestCalculateCraterSize_OneKiloton(t *testing.T) {
	c := CalculateCraterSize(JoulesPerKiloton)
	assert.InDelta(t, 800.0, c.DiameterM, 1e-9)
}

func TestCalculateSeismicMagnitude_Clamp(t *testing.T) {
	assert.Equal(t, 0.0, CalculateSeismicMagnitude(0))
	assert.Equal(t, 0.0, CalculateSeismicMagnitude(-5))
	assert.Equal(t, 0.0, CalculateSeismicMagnitude(math.Inf(-1)))
}

func TestCalculateSeismicMagnitude_Rounded(t *testing.T) {
	tests := []struct {
		energy float64
		want   float64
	}{
		{1e9, 0.1},    // 6 - 5.87 = 0.13
		{1e15, 4.1},   // 10 - 5.87
		{1e18, 6.1},   // 12 - 5.87
		{4.2e23, 9.9}, // chicxulub
		{6.3e13, 3.3}, // hiroshima
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, CalculateSeismicMagnitude(tt.energy), 1e-9, "energy %g", tt.energy)
	}

	e := math.Pi * 1e17
	raw := (2.0/3.0)*math.Log10(e) - 5.87
	assert.InDelta(t, raw, CalculateSeismicMagnitude(e), 0.05+1e-12)
}

func TestCalculateSeismicMagnitude_JustBelowHalf(t *testing.T) {
	// Raw magnitude here is 2.0499999999999998; scaling by ten first would
	// round it up to 2.1.
	energy := 7.585775750291853e+11
	raw := (2.0/3.0)*math.Log10(energy) - 5.87
	require.Less(t, raw, 2.05)

	assert.Equal(t, 2.0, CalculateSeismicMagnitude(energy))
}

func TestRoundTenths(t *testing.T) {
	assert.Equal(t, 0.2, roundTenths(0.25), "exact tie rounds to even")
	assert.Equal(t, 0.3, roundTenths(0.35), "0.35 is stored just below the tie")
	assert.Equal(t, 0.3, roundTenths(0.26))
	assert.Equal(t, -1.5, roundTenths(-1.46))
}

func TestClassifySeverity_Boundaries(t *testing.T) {
	tests := []struct {
		ratio    float64
		severity Severity
		risk     RiskLevel
	}{
		{0, SeverityMinor, RiskLow},
		{9.999, SeverityMinor, RiskLow},
		{10.0, SeverityModerate, RiskMedium},
		{999.999, SeverityModerate, RiskMedium},
		{1000, SeverityMajor, RiskHigh},
		{99_999.9, SeverityMajor, RiskHigh},
		{100_000, SeverityCatastrophic, RiskExtreme},
		{999_999.99, SeverityCatastrophic, RiskExtreme},
		{1_000_000, SeverityExtinction, RiskMaximum},
		{1e12, SeverityExtinction, RiskMaximum},
	}
	for _, tt := range tests {
		severity, risk, description := ClassifySeverity(tt.ratio)
		assert.Equal(t, tt.severity, severity, "ratio %g", tt.ratio)
		assert.Equal(t, tt.risk, risk, "ratio %g", tt.ratio)
		assert.NotEmpty(t, description)
	}
}

func TestEnergyComparisons(t *testing.T) {
	energy := 5 * HiroshimaJoules
	c := EnergyComparisons(energy)

	assert.InEpsilon(t, 5.0, c.HiroshimaBombs, 1e-12)
	assert.InEpsilon(t, energy/4.184e15, c.MegatonBombs, 1e-12)
	assert.InEpsilon(t, energy/8.4e17, c.KrakatoaEruptions, 1e-12)
	assert.InEpsilon(t, energy/2.1e17, c.TsarBombs, 1e-12)
	assert.InEpsilon(t, energy/4.2e23, c.ChicxulubFraction, 1e-12)
	assert.InEpsilon(t, energy/(5.8e20/31_536_000), c.GlobalEnergySeconds, 1e-12)
	assert.Equal(t, SeverityMinor, c.Severity)
	assert.Equal(t, RiskLow, c.RiskLevel)
	assert.Equal(t, "Local damage only", c.Description)

	assert.Equal(t, SeverityModerate, EnergyComparisons(50*HiroshimaJoules).Severity)
	assert.Equal(t, SeverityMajor, EnergyComparisons(5_000*HiroshimaJoules).Severity)
	assert.Equal(t, SeverityCatastrophic, EnergyComparisons(500_000*HiroshimaJoules).Severity)
	assert.Equal(t, SeverityExtinction, EnergyComparisons(ChicxulubJoules).Severity)
}

func TestCalculateImpactZones_Multipliers(t *testing.T) {
	for _, r := range []float64{0.001, 0.5, 10.85, 300} {
		z := CalculateImpactZones(r, 123)

		assert.Equal(t, r, z.Epicenter)
		assert.Equal(t, r*50, z.ThermalRadius)
		assert.Equal(t, r*25, z.ShockwaveRadius)
		assert.Equal(t, r*15, z.EarthquakeRadius)
		assert.Equal(t, r*8, z.EjectaRadius)

		assert.Greater(t, z.ThermalRadius, z.ShockwaveRadius)
		assert.Greater(t, z.ShockwaveRadius, z.EarthquakeRadius)
		assert.Greater(t, z.EarthquakeRadius, z.EjectaRadius)
		assert.Greater(t, z.EjectaRadius, z.Epicenter)
	}
}

func TestCalculateImpactZones_EnergyIgnored(t *testing.T) {
	assert.Equal(t, CalculateImpactZones(2, 0), CalculateImpactZones(2, 1e9))
}

func TestCalculateImpactZones_Annotations(t *testing.T) {
	z := CalculateImpactZones(1, 0)
	require.Len(t, z.Bands, 5)

	want := map[ZoneName]struct {
		color     string
		intensity float64
	}{
		ZoneCrater:     {"#ff4444", 1.0},
		ZoneThermal:    {"#ff4400", 0.8},
		ZoneShockwave:  {"#ff8800", 0.6},
		ZoneEarthquake: {"#ffaa00", 0.4},
		ZoneEjecta:     {"#ffff00", 0.2},
	}
	for name, w := range want {
		band, ok := z.Bands[name]
		require.True(t, ok, "missing zone %s", name)
		assert.Equal(t, w.color, band.Color)
		assert.Equal(t, w.intensity, band.Intensity)
		assert.NotEmpty(t, band.Description)
	}
}

func TestZones_Ordered(t *testing.T) {
	ordered := CalculateImpactZones(2, 0).Ordered()
	require.Len(t, ordered, 5)

	names := make([]ZoneName, len(ordered))
	for i, z := range ordered {
		names[i] = z.Name
	}
	assert.Equal(t, []ZoneName{ZoneThermal, ZoneShockwave, ZoneEarthquake, ZoneEjecta, ZoneCrater}, names)
}

func TestClassifyImpact(t *testing.T) {
	tests := []struct {
		diameter float64
		want     ImpactType
	}{
		{1, ImpactTypeAirburstLocal},
		{24.99, ImpactTypeAirburstLocal},
		{25, ImpactTypeRegional},
		{99.9, ImpactTypeRegional},
		{100, ImpactTypeContinental},
		{999, ImpactTypeContinental},
		{1000, ImpactTypeGlobal},
		{16800, ImpactTypeGlobal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyImpact(tt.diameter), "diameter %g", tt.diameter)
	}
}

func TestSimulate_EndToEnd(t *testing.T) {
	res, err := Simulate(Input{DiameterM: 100, VelocityMS: 20000, DensityKgM3: 3000, AngleDeg: 45})
	require.NoError(t, err)

	energy := 0.5 * 3000 * ((4.0 / 3.0) * math.Pi * math.Pow(50, 3)) * math.Pow(20000, 2)
	craterM := 0.8 * math.Pow(energy/4.184e12, 0.294) * 1000
	magnitude := math.Round(((2.0/3.0)*math.Log10(energy)-5.87)*10) / 10

	assert.InEpsilon(t, energy, res.KineticEnergyJoules, 1e-6)
	assert.InEpsilon(t, energy/4.184e15, res.KineticEnergyMegatons, 1e-6)
	assert.InEpsilon(t, craterM/1000, res.CraterDiameterKm, 1e-6)
	assert.InEpsilon(t, craterM/5000, res.CraterDepthKm, 1e-6)
	assert.InEpsilon(t, craterM/2000, res.CraterRadiusKm, 1e-6)
	assert.Equal(t, magnitude, res.SeismicMagnitude)
	assert.InEpsilon(t, energy/6.3e13, res.Comparisons.HiroshimaBombs, 1e-6)
	assert.Equal(t, SeverityMajor, res.Comparisons.Severity)
	assert.Equal(t, ImpactTypeContinental, res.ImpactType)
	assert.InEpsilon(t, res.CraterRadiusKm*50, res.ImpactZones.ThermalRadius, 1e-12)
	assert.Nil(t, res.ImpactLocation)
}

func TestSimulate_Deterministic(t *testing.T) {
	in := Input{DiameterM: 370, VelocityMS: 12600, DensityKgM3: 2600}
	first, err := Simulate(in)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Simulate(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSimulate_EchoesLocation(t *testing.T) {
	loc := &Location{Lat: 40.7128, Lon: -74.006}
	res, err := Simulate(Input{DiameterM: 50, VelocityMS: 17000, DensityKgM3: 3000, Location: loc})
	require.NoError(t, err)

	require.NotNil(t, res.ImpactLocation)
	assert.Equal(t, *loc, *res.ImpactLocation)

	loc.Lat = 0
	assert.Equal(t, 40.7128, res.ImpactLocation.Lat, "result must not alias the caller's location")
}

func TestSimulate_ZeroVelocity(t *testing.T) {
	res, err := Simulate(Input{DiameterM: 10, VelocityMS: 0, DensityKgM3: 3000})
	require.NoError(t, err)

	assert.Zero(t, res.KineticEnergyJoules)
	assert.Zero(t, res.CraterDiameterKm)
	assert.Zero(t, res.SeismicMagnitude)
	assert.Equal(t, SeverityMinor, res.Comparisons.Severity)
}

func TestSimulate_NonFinite(t *testing.T) {
	tests := []struct {
		name string
		in   Input
	}{
		{"negative diameter", Input{DiameterM: -10, VelocityMS: 20000, DensityKgM3: 3000}},
		{"negative density", Input{DiameterM: 10, VelocityMS: 20000, DensityKgM3: -3000}},
		{"overflow", Input{DiameterM: 1e200, VelocityMS: 20000, DensityKgM3: 3000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Simulate(tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNonFinite))

			var compErr *ComputationError
			require.True(t, errors.As(err, &compErr))
			assert.NotEmpty(t, compErr.Quantity)
		})
	}
}

func TestResult_JSONShape(t *testing.T) {
	res, err := Simulate(Input{DiameterM: 100, VelocityMS: 20000, DensityKgM3: 3000})
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	for _, key := range []string{
		"kinetic_energy_joules", "kinetic_energy_megatons", "crater_diameter_km",
		"crater_depth_km", "crater_radius_km", "seismic_magnitude", "comparisons",
		"impact_zones", "impact_location",
	} {
		assert.Contains(t, m, key)
	}
	assert.Nil(t, m["impact_location"])

	zones := m["impact_zones"].(map[string]any)
	assert.Contains(t, zones, "thermal_radius")
	assert.Contains(t, zones["zones"], "ejecta")
}
