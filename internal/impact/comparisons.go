package impact

// Reference event energies, joules.
const (
	HiroshimaJoules = 6.3e13 // ~15 kt
	MegatonJoules   = JoulesPerMegaton
	KrakatoaJoules  = 8.4e17 // ~200 Mt
	TsarBombaJoules = 2.1e17 // ~50 Mt
	ChicxulubJoules = 4.2e23 // ~100 Tt

	// GlobalAnnualConsumptionJoules is world primary energy use over one year.
	GlobalAnnualConsumptionJoules = 5.8e20
	secondsPerYear                = 365 * 24 * 3600

	// GlobalConsumptionJoulesPerSecond is the annual figure as a per-second rate.
	GlobalConsumptionJoulesPerSecond = GlobalAnnualConsumptionJoules / secondsPerYear
)

type Severity string

const (
	SeverityMinor        Severity = "MINOR"
	SeverityModerate     Severity = "MODERATE"
	SeverityMajor        Severity = "MAJOR"
	SeverityCatastrophic Severity = "CATASTROPHIC"
	SeverityExtinction   Severity = "EXTINCTION LEVEL"
)

type RiskLevel string

const (
	RiskLow     RiskLevel = "Low"
	RiskMedium  RiskLevel = "Medium"
	RiskHigh    RiskLevel = "High"
	RiskExtreme RiskLevel = "Extreme"
	RiskMaximum RiskLevel = "Maximum"
)

// severityBands are checked in order; the first upper bound the ratio is
// strictly below wins. Anything past the last band is extinction level.
var severityBands = []struct {
	below       float64
	severity    Severity
	risk        RiskLevel
	description string
}{
	{10, SeverityMinor, RiskLow, "Local damage only"},
	{1_000, SeverityModerate, RiskMedium, "City-level destruction"},
	{100_000, SeverityMajor, RiskHigh, "Regional catastrophe"},
	{1_000_000, SeverityCatastrophic, RiskExtreme, "Continental-scale disaster"},
}

type Comparisons struct {
	HiroshimaBombs      float64   `json:"hiroshima_bombs"`
	MegatonBombs        float64   `json:"megaton_bombs"`
	KrakatoaEruptions   float64   `json:"krakatoa_eruptions"`
	TsarBombs           float64   `json:"tsar_bombs"`
	ChicxulubFraction   float64   `json:"chicxulub_fraction"`
	GlobalEnergySeconds float64   `json:"global_energy_seconds"`
	Severity            Severity  `json:"severity"`
	RiskLevel           RiskLevel `json:"risk_level"`
	Description         string    `json:"description"`
}

// ClassifySeverity maps a Hiroshima-equivalent ratio onto the severity scale.
func ClassifySeverity(hiroshimaRatio float64) (Severity, RiskLevel, string) {
	for _, band := range severityBands {
		if hiroshimaRatio < band.below {
			return band.severity, band.risk, band.description
		}
	}
	return SeverityExtinction, RiskMaximum, "Global mass extinction event"
}

// EnergyComparisons expresses an energy as multiples of well-known events.
func EnergyComparisons(kineticEnergyJ float64) Comparisons {
	c := Comparisons{
		HiroshimaBombs:      kineticEnergyJ / HiroshimaJoules,
		MegatonBombs:        kineticEnergyJ / MegatonJoules,
		KrakatoaEruptions:   kineticEnergyJ / KrakatoaJoules,
		TsarBombs:           kineticEnergyJ / TsarBombaJoules,
		ChicxulubFraction:   kineticEnergyJ / ChicxulubJoules,
		GlobalEnergySeconds: kineticEnergyJ / GlobalConsumptionJoulesPerSecond,
	}
	c.Severity, c.RiskLevel, c.Description = ClassifySeverity(c.HiroshimaBombs)
	return c
}
