package main

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	internalgrpc "github.com/mr1hm/go-impactor/internal/grpc"
	"github.com/mr1hm/go-impactor/internal/impact"
	"github.com/mr1hm/go-impactor/internal/mitigation"
	"github.com/mr1hm/go-impactor/internal/models"
	"github.com/mr1hm/go-impactor/internal/observability"
	"github.com/mr1hm/go-impactor/internal/repository"
	"github.com/mr1hm/go-impactor/internal/stream"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSimulateCmd(t *testing.T) {
	out, err := run(t, "simulate", "--diameter", "100", "--velocity", "20")
	require.NoError(t, err)

	var res impact.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, impact.CalculateKineticEnergy(100, 20000, 3000), res.KineticEnergyJoules)
	assert.Equal(t, impact.ImpactTypeContinental, res.ImpactType)
	assert.Nil(t, res.ImpactLocation)
}

func TestSimulateCmd_LocationAndYAML(t *testing.T) {
	out, err := run(t, "simulate", "--diameter", "50", "--velocity", "17", "--lat", "0", "--lon", "10", "-o", "yaml")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "kinetic_energy_joules")
	assert.Equal(t, map[string]any{"lat": 0, "lon": 10}, doc["impact_location"])
}

func TestSimulateCmd_Errors(t *testing.T) {
	_, err := run(t, "simulate", "--velocity", "20")
	assert.Error(t, err, "diameter is required")

	_, err = run(t, "simulate", "--diameter", "-1", "--velocity", "20")
	assert.ErrorContains(t, err, "--diameter")

	_, err = run(t, "simulate", "--diameter", "1e200", "--velocity", "20")
	assert.ErrorContains(t, err, "calculation error")

	_, err = run(t, "simulate", "--diameter", "10", "--velocity", "20", "-o", "xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestDeflectCmd(t *testing.T) {
	out, err := run(t, "deflect", "--delta-v", "0.01", "--days", "365", "--lat", "10", "--lon", "20")
	require.NoError(t, err)

	var res mitigation.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDelta(t, 315.36, res.DeflectionDistanceKm, 1e-9)
	assert.False(t, res.ImpactAvoided)
	require.NotNil(t, res.NewImpact)
}

func startRemote(t *testing.T) string {
	t.Helper()

	db, err := repository.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Add(t.Context(), &models.Asteroid{ID: "2001862", Name: "1862 Apollo (1932 HA)", ApproachDate: "2024-02-20", DiameterMaxM: 1500}))

	hazards := stream.NewBroadcaster[*models.HazardAlert](0)
	srv := internalgrpc.NewServer(db, nil, hazards, observability.NewMetricsForTesting())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = srv.Serve(lis)
	}()

	t.Cleanup(func() {
		hazards.Close()
		srv.Stop()
		db.Close()
	})
	return lis.Addr().String()
}

func TestRemoteCommands(t *testing.T) {
	addr := startRemote(t)

	out, err := run(t, "--remote", addr, "simulate", "--diameter", "100", "--velocity", "20")
	require.NoError(t, err)
	var res impact.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, impact.CalculateKineticEnergy(100, 20000, 3000), res.KineticEnergyJoules)

	out, err = run(t, "--remote", addr, "deflect", "--delta-v", "1", "--days", "30")
	require.NoError(t, err)
	var mres mitigation.Result
	require.NoError(t, json.Unmarshal([]byte(out), &mres))
	assert.True(t, mres.ImpactAvoided)

	out, err = run(t, "--remote", addr, "neo", "lookup", "2001862")
	require.NoError(t, err)
	assert.Contains(t, out, "1862 Apollo")
}

const lookupBody = `{
  "id": "2001862",
  "name": "1862 Apollo (1932 HA)",
  "estimated_diameter": {"meters": {"estimated_diameter_min": 1400, "estimated_diameter_max": 1500}},
  "is_potentially_hazardous_asteroid": true,
  "close_approach_data": [{"close_approach_date": "2024-02-20", "relative_velocity": {"kilometers_per_second": "22.5"}, "miss_distance": {"kilometers": "4500000"}}]
}`

func TestNEOLookupCmd_Simulate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/neo/2001862", r.URL.Path)
		_, _ = w.Write([]byte(lookupBody))
	}))
	defer srv.Close()
	t.Setenv("NASA_NEO_BASE_URL", srv.URL)

	out, err := run(t, "neo", "lookup", "2001862", "--simulate")
	require.NoError(t, err)

	var resp struct {
		Asteroid   models.Asteroid `json:"asteroid"`
		Simulation impact.Result   `json:"simulation"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1500.0, resp.Asteroid.DiameterMaxM)
	assert.Equal(t, impact.ImpactTypeGlobal, resp.Simulation.ImpactType)
	assert.Equal(t, impact.SeverityExtinction, resp.Simulation.Comparisons.Severity)
}

func TestNEOFeedCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-10-16", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2025-10-18", r.URL.Query().Get("end_date"))
		_, _ = w.Write([]byte(`{"element_count": 1, "near_earth_objects": {"2024-02-20": [` + lookupBody + `]}}`))
	}))
	defer srv.Close()
	t.Setenv("NASA_NEO_BASE_URL", srv.URL)

	out, err := run(t, "neo", "feed", "--start", "2025-10-16", "--end", "2025-10-18", "-o", "yaml")
	require.NoError(t, err)

	var doc struct {
		Count int `yaml:"count"`
		NEOs  []struct {
			ID string `yaml:"id"`
		} `yaml:"neos"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 1, doc.Count)
	assert.Equal(t, "2001862", doc.NEOs[0].ID)

	_, err = run(t, "neo", "feed", "--start", "10/16/2025")
	assert.Error(t, err)
}
