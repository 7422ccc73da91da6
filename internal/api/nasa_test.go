package api

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mr1hm/go-impactor/internal/impact"
	"github.com/mr1hm/go-impactor/internal/models"
	"github.com/mr1hm/go-impactor/internal/neo"
)

func TestNASAAsteroids(t *testing.T) {
	d := newTestDeps()
	d.neo.listing = neo.Listing{Asteroids: neo.SampleAsteroids(), Source: neo.SourceSample}
	router := setupTestRouter(d)

	w := doJSON(router, "GET", "/nasa-asteroids", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	type listing struct {
		NEOs   []neoSummary `json:"neos"`
		Source string       `json:"source"`
	}
	resp := decode[listing](t, w)

	if resp.Source != neo.SourceSample {
		t.Errorf("expected sample source, got %q", resp.Source)
	}
	if len(resp.NEOs) != 2 {
		t.Fatalf("expected 2 neos, got %d", len(resp.NEOs))
	}
	apollo := resp.NEOs[1]
	if apollo.Name != "1862 Apollo (1932 HA)" || apollo.Diameter != 1500 || apollo.Velocity != 22.5 || !apollo.Hazardous {
		t.Errorf("unexpected summary %+v", apollo)
	}
	if apollo.Date != "2024-02-20" || apollo.MissDistance != 4_500_000 {
		t.Errorf("unexpected approach fields %+v", apollo)
	}
}

type feedResponse struct {
	StartDate string            `json:"start_date"`
	EndDate   string            `json:"end_date"`
	Count     int               `json:"count"`
	NEOs      []models.Asteroid `json:"neos"`
}

func TestNASANEOFeed_DefaultWindow(t *testing.T) {
	d := newTestDeps()
	d.neo.feed = []models.Asteroid{{ID: "3542519", Name: "(2010 PK9)", ApproachDate: "2025-10-16"}}
	router := setupTestRouter(d)

	w := doJSON(router, "GET", "/nasa-neo-feed", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := decode[feedResponse](t, w)
	if resp.StartDate != "2025-10-16" || resp.EndDate != "2025-10-17" {
		t.Errorf("expected today..tomorrow, got %s..%s", resp.StartDate, resp.EndDate)
	}
	if resp.Count != 1 || resp.NEOs[0].ID != "3542519" {
		t.Errorf("unexpected feed %+v", resp)
	}

	if len(d.neo.feedCalls) != 1 {
		t.Fatalf("expected one feed call, got %d", len(d.neo.feedCalls))
	}
	if !d.neo.feedCalls[0][0].Equal(time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start %v", d.neo.feedCalls[0][0])
	}
}

func TestNASANEOFeed_ExplicitRange(t *testing.T) {
	d := newTestDeps()
	router := setupTestRouter(d)

	w := doJSON(router, "GET", "/nasa-neo-feed?start_date=2025-01-01&end_date=2025-01-05", nil)
	resp := decode[feedResponse](t, w)

	if resp.StartDate != "2025-01-01" || resp.EndDate != "2025-01-05" {
		t.Errorf("expected requested range, got %s..%s", resp.StartDate, resp.EndDate)
	}
	if resp.Count != 0 || !strings.Contains(w.Body.String(), `"neos":[]`) {
		t.Errorf("expected empty array, got %s", w.Body.String())
	}
}

func TestNASANEOFeed_BadDate(t *testing.T) {
	d := newTestDeps()
	router := setupTestRouter(d)

	w := doJSON(router, "GET", "/nasa-neo-feed?start_date=16-10-2025", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if len(d.neo.feedCalls) != 0 {
		t.Error("feed must not be called with an invalid date")
	}
}

func TestNASANEOFeed_UpstreamError(t *testing.T) {
	d := newTestDeps()
	d.neo.feedErr = errors.New("neows API error: status 503")
	router := setupTestRouter(d)

	w := doJSON(router, "GET", "/nasa-neo-feed", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}

	resp := decode[map[string]string](t, w)
	if resp["error"] != "NASA feed fetch failed: neows API error: status 503" {
		t.Errorf("unexpected error %q", resp["error"])
	}
}

func TestSimulateNASA(t *testing.T) {
	d := newTestDeps()
	router := setupTestRouter(d)

	w := doJSON(router, "POST", "/simulate-impact-nasa", map[string]any{
		"id": "2001862", "name": "1862 Apollo (1932 HA)", "diameter": 1500,
		"velocity": 22.5, "miss_distance": 4500000, "date": "2024-02-20",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	type nasaResponse struct {
		Source     string              `json:"source"`
		Asteroid   nasaAsteroidRequest `json:"asteroid"`
		Simulation impact.Result       `json:"simulation"`
	}
	resp := decode[nasaResponse](t, w)

	if resp.Source != "NASA" || resp.Asteroid.ID != "2001862" {
		t.Errorf("unexpected envelope %+v", resp)
	}
	if resp.Simulation.VelocityMS != 22500 || resp.Simulation.DensityKgM3 != impact.DefaultDensityKgM3 {
		t.Errorf("expected km/s converted and default density, got %+v", resp.Simulation)
	}
	if resp.Simulation.ImpactType != impact.ImpactTypeGlobal {
		t.Errorf("expected global impact, got %s", resp.Simulation.ImpactType)
	}
	if resp.Simulation.ImpactLocation != nil {
		t.Error("expected no impact location")
	}

	if got := testutil.ToFloat64(d.metrics.Simulations.WithLabelValues("simulate_impact_nasa", "success")); got != 1 {
		t.Errorf("expected 1 successful simulation, got %v", got)
	}
}

func TestSimulateNASA_MissingName(t *testing.T) {
	router := setupTestRouter(newTestDeps())

	w := doJSON(router, "POST", "/simulate-impact-nasa", map[string]any{
		"id": "1", "diameter": 10, "velocity": 5, "miss_distance": 100,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestSimulateNASAByID(t *testing.T) {
	d := newTestDeps()
	d.neo.lookup = models.Asteroid{
		ID:             "3542519",
		Name:           "(2010 PK9)",
		JPLURL:         "https://ssd.jpl.nasa.gov/tools/sbdb_lookup.html#/?sstr=3542519",
		DiameterMinM:   120.5,
		DiameterMaxM:   269.4,
		VelocityKmS:    17.2331,
		MissDistanceKm: 4580123.77,
		ApproachDate:   "2025-10-18",
		HasApproach:    true,
	}
	router := setupTestRouter(d)

	w := doJSON(router, "GET", "/simulate-impact-nasa/3542519?density=2600", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if d.neo.lookupCall != "3542519" {
		t.Errorf("expected lookup of 3542519, got %q", d.neo.lookupCall)
	}

	type byIDResponse struct {
		Asteroid struct {
			ID       string  `json:"id"`
			Diameter float64 `json:"diameter_m_used"`
			Velocity float64 `json:"velocity_km_s_used"`
			Date     string  `json:"close_approach_date"`
		} `json:"asteroid"`
		Simulation impact.Result `json:"simulation"`
		Source     string        `json:"source"`
	}
	resp := decode[byIDResponse](t, w)

	if resp.Asteroid.Diameter != 269.4 || resp.Asteroid.Velocity != 17.2331 || resp.Asteroid.Date != "2025-10-18" {
		t.Errorf("unexpected asteroid block %+v", resp.Asteroid)
	}
	want := impact.CalculateKineticEnergy(269.4, d.neo.lookup.VelocityKmS*impact.MetersPerKilometer, 2600)
	if resp.Simulation.KineticEnergyJoules != want {
		t.Errorf("energy %v, want %v", resp.Simulation.KineticEnergyJoules, want)
	}
}

func TestSimulateNASAByID_Errors(t *testing.T) {
	tests := []struct {
		name   string
		lookup models.Asteroid
		err    error
		query  string
		status int
	}{
		{"not found", models.Asteroid{}, neo.ErrNotFound, "", http.StatusNotFound},
		{"no diameter", models.Asteroid{ID: "1", HasApproach: true, VelocityKmS: 10}, nil, "", http.StatusBadRequest},
		{"no approach", models.Asteroid{ID: "1", DiameterMaxM: 50}, nil, "", http.StatusBadRequest},
		{"upstream failure", models.Asteroid{}, errors.New("connection reset"), "", http.StatusInternalServerError},
		{"bad density", models.Asteroid{}, nil, "?density=-3", http.StatusBadRequest},
		{"bad angle", models.Asteroid{}, nil, "?angle=steep", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps()
			d.neo.lookup = tt.lookup
			d.neo.lookupErr = tt.err
			router := setupTestRouter(d)

			w := doJSON(router, "GET", "/simulate-impact-nasa/1"+tt.query, nil)
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}
