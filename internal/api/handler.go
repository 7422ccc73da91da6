package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-impactor/internal/impact"
	"github.com/mr1hm/go-impactor/internal/mitigation"
	"github.com/mr1hm/go-impactor/internal/models"
	"github.com/mr1hm/go-impactor/internal/neo"
	"github.com/mr1hm/go-impactor/internal/observability"
	"github.com/mr1hm/go-impactor/internal/repository"
	"github.com/mr1hm/go-impactor/internal/stream"
)

const (
	Version = "2.0.0"

	defaultListLimit = 20
	maxListLimit     = 500
)

// NEOProvider is the slice of the NeoWs client the handlers need.
type NEOProvider interface {
	Upcoming(ctx context.Context) neo.Listing
	Feed(ctx context.Context, start, end time.Time) ([]models.Asteroid, error)
	Lookup(ctx context.Context, id string) (models.Asteroid, error)
}

type Handler struct {
	neo     NEOProvider
	repo    repository.AsteroidRepository
	alerts  repository.AlertRepository
	hazards *stream.Broadcaster[*models.HazardAlert]
	metrics *observability.Metrics
	clock   clockwork.Clock
}

func NewHandler(
	provider NEOProvider,
	repo repository.AsteroidRepository,
	alerts repository.AlertRepository,
	hazards *stream.Broadcaster[*models.HazardAlert],
	metrics *observability.Metrics,
) *Handler {
	return &Handler{
		neo:     provider,
		repo:    repo,
		alerts:  alerts,
		hazards: hazards,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.root)
	r.GET("/health", h.health)

	r.POST("/simulate", h.simulate)
	r.POST("/simulate/geojson", h.simulateGeoJSON)
	r.POST("/simulate-impact", h.simulateManual)
	r.POST("/simulate-mitigation", h.simulateMitigation)

	r.GET("/nasa-asteroids", h.nasaAsteroids)
	r.GET("/nasa-neo-feed", h.nasaNEOFeed)
	r.POST("/simulate-impact-nasa", h.simulateNASA)
	r.GET("/simulate-impact-nasa/:id", h.simulateNASAByID)

	r.GET("/api/asteroids", h.getAsteroids)
	r.GET("/api/asteroids/stream", h.streamHazards)
	r.GET("/api/alerts", h.getAlerts)
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":      "Impactor-2025 Simulation API with NASA Integration",
		"status":       "active",
		"version":      Version,
		"data_sources": []string{"NASA NEO API", "Scientific Impact Models"},
	})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   h.clock.Now().UTC().Format(time.RFC3339),
	})
}

type simulateRequest struct {
	Diameter float64  `json:"diameter" binding:"required,gt=0"`
	Velocity *float64 `json:"velocity" binding:"required"` // km/s
	Density  float64  `json:"density" binding:"required,gt=0"`
	Lat      *float64 `json:"lat" binding:"omitempty,gte=-90,lte=90"`
	Lon      *float64 `json:"lon" binding:"omitempty,gte=-180,lte=180"`
}

func (r simulateRequest) input() impact.Input {
	in := impact.Input{
		DiameterM:   r.Diameter,
		VelocityMS:  *r.Velocity * impact.MetersPerKilometer,
		DensityKgM3: r.Density,
	}
	if r.Lat != nil && r.Lon != nil {
		in.Location = &impact.Location{Lat: *r.Lat, Lon: *r.Lon}
	}
	return in
}

func (h *Handler) simulate(c *gin.Context) {
	var req simulateRequest
	if !h.bindJSON(c, "simulate", &req) {
		return
	}

	res, ok := h.runSimulation(c, "simulate", req.input())
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

type geoSimulateRequest struct {
	Diameter float64  `json:"diameter" binding:"required,gt=0"`
	Velocity *float64 `json:"velocity" binding:"required"`
	Density  float64  `json:"density" binding:"required,gt=0"`
	Lat      *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lon      *float64 `json:"lon" binding:"required,gte=-180,lte=180"`
}

func (h *Handler) simulateGeoJSON(c *gin.Context) {
	var req geoSimulateRequest
	if !h.bindJSON(c, "simulate_geojson", &req) {
		return
	}

	res, ok := h.runSimulation(c, "simulate_geojson", simulateRequest(req).input())
	if !ok {
		return
	}
	c.JSON(http.StatusOK, zonesToGeoJSON(res))
}

type manualImpactRequest struct {
	Diameter float64  `json:"diameter" binding:"required,gt=0"`
	Velocity *float64 `json:"velocity" binding:"required"`
	Density  *float64 `json:"density" binding:"omitempty,gt=0"`
	Angle    *float64 `json:"angle"`
}

func (h *Handler) simulateManual(c *gin.Context) {
	var req manualImpactRequest
	if !h.bindJSON(c, "simulate_impact", &req) {
		return
	}

	density, angle := impact.DefaultDensityKgM3, impact.DefaultAngleDeg
	if req.Density != nil {
		density = *req.Density
	}
	if req.Angle != nil {
		angle = *req.Angle
	}

	res, ok := h.runSimulation(c, "simulate_impact", impact.Input{
		DiameterM:   req.Diameter,
		VelocityMS:  *req.Velocity * impact.MetersPerKilometer,
		DensityKgM3: density,
		AngleDeg:    angle,
	})
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"input": gin.H{
			"diameter": req.Diameter,
			"velocity": *req.Velocity,
			"density":  density,
			"angle":    angle,
		},
		"result": res,
		"source": "ImpactCalculator",
	})
}

type mitigationRequest struct {
	Diameter         *float64 `json:"diameter" binding:"required"`
	Velocity         *float64 `json:"velocity" binding:"required"`
	Density          *float64 `json:"density" binding:"required"`
	DeltaV           *float64 `json:"delta_v" binding:"required"`
	TimeBeforeImpact *float64 `json:"time_before_impact" binding:"required,gte=0"`
	Lat              *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lon              *float64 `json:"lon" binding:"required,gte=-180,lte=180"`
}

func (h *Handler) simulateMitigation(c *gin.Context) {
	var req mitigationRequest
	if !h.bindJSON(c, "simulate_mitigation", &req) {
		return
	}

	res := mitigation.Deflect(mitigation.Request{
		DiameterM:        *req.Diameter,
		VelocityKmS:      *req.Velocity,
		DensityKgM3:      *req.Density,
		DeltaVMS:         *req.DeltaV,
		TimeBeforeImpact: *req.TimeBeforeImpact,
		Location:         impact.Location{Lat: *req.Lat, Lon: *req.Lon},
	})
	h.metrics.Simulations.WithLabelValues("simulate_mitigation", "success").Inc()
	c.JSON(http.StatusOK, res)
}

// neoSummary is the compact record shape the map front-end consumes.
type neoSummary struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Diameter     float64 `json:"diameter"`
	Velocity     float64 `json:"velocity"`
	MissDistance float64 `json:"miss_distance"`
	Date         string  `json:"date"`
	Hazardous    bool    `json:"hazardous"`
}

func (h *Handler) nasaAsteroids(c *gin.Context) {
	listing := h.neo.Upcoming(c.Request.Context())

	neos := make([]neoSummary, 0, len(listing.Asteroids))
	for _, a := range listing.Asteroids {
		neos = append(neos, neoSummary{
			ID:           a.ID,
			Name:         a.Name,
			Diameter:     a.DiameterMaxM,
			Velocity:     a.VelocityKmS,
			MissDistance: a.MissDistanceKm,
			Date:         a.ApproachDate,
			Hazardous:    a.Hazardous,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"neos":   neos,
		"source": listing.Source,
	})
}

func (h *Handler) nasaNEOFeed(c *gin.Context) {
	today := neo.Today(h.clock)
	start, end := today, today.AddDate(0, 0, 1)

	if s := c.Query("start_date"); s != "" {
		t, err := neo.ParseDate(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		start = t
	}
	if e := c.Query("end_date"); e != "" {
		t, err := neo.ParseDate(e)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		end = t
	}

	asteroids, err := h.neo.Feed(c.Request.Context(), start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "NASA feed fetch failed: " + err.Error(),
		})
		return
	}
	if asteroids == nil {
		asteroids = []models.Asteroid{}
	}

	c.JSON(http.StatusOK, gin.H{
		"start_date": start.Format(neo.DateLayout),
		"end_date":   end.Format(neo.DateLayout),
		"count":      len(asteroids),
		"neos":       asteroids,
	})
}

type nasaAsteroidRequest struct {
	ID           string   `json:"id" binding:"required"`
	Name         string   `json:"name" binding:"required"`
	Diameter     float64  `json:"diameter" binding:"required,gt=0"`
	Velocity     *float64 `json:"velocity" binding:"required"` // km/s
	MissDistance *float64 `json:"miss_distance" binding:"required"`
	Date         string   `json:"date"`
}

func (h *Handler) simulateNASA(c *gin.Context) {
	var req nasaAsteroidRequest
	if !h.bindJSON(c, "simulate_impact_nasa", &req) {
		return
	}

	res, ok := h.runSimulation(c, "simulate_impact_nasa", impact.Input{
		DiameterM:   req.Diameter,
		VelocityMS:  *req.Velocity * impact.MetersPerKilometer,
		DensityKgM3: impact.DefaultDensityKgM3,
		AngleDeg:    impact.DefaultAngleDeg,
	})
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source":     "NASA",
		"asteroid":   req,
		"simulation": res,
	})
}

func (h *Handler) simulateNASAByID(c *gin.Context) {
	const endpoint = "simulate_impact_nasa_id"

	density, ok := floatQuery(c, "density", impact.DefaultDensityKgM3)
	if !ok || density <= 0 {
		h.metrics.Simulations.WithLabelValues(endpoint, "invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "density must be a number greater than 0"})
		return
	}
	angle, ok := floatQuery(c, "angle", impact.DefaultAngleDeg)
	if !ok {
		h.metrics.Simulations.WithLabelValues(endpoint, "invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "angle must be a number"})
		return
	}

	asteroid, err := h.neo.Lookup(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.neoError(c, endpoint, err)
		return
	}
	diameter, err := neo.DiameterForSimulation(asteroid)
	if err != nil {
		h.neoError(c, endpoint, err)
		return
	}
	if !asteroid.HasApproach {
		h.neoError(c, endpoint, neo.ErrNoApproach)
		return
	}

	res, ok := h.runSimulation(c, endpoint, impact.Input{
		DiameterM:   diameter,
		VelocityMS:  asteroid.VelocityKmS * impact.MetersPerKilometer,
		DensityKgM3: density,
		AngleDeg:    angle,
	})
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"asteroid": gin.H{
			"id":                  asteroid.ID,
			"name":                asteroid.Name,
			"nasa_jpl_url":        asteroid.JPLURL,
			"diameter_m_used":     diameter,
			"close_approach_date": asteroid.ApproachDate,
			"miss_distance_km":    asteroid.MissDistanceKm,
			"velocity_km_s_used":  asteroid.VelocityKmS,
		},
		"simulation": res,
		"source":     "ImpactCalculator",
	})
}

func (h *Handler) neoError(c *gin.Context, endpoint string, err error) {
	switch {
	case errors.Is(err, neo.ErrNotFound):
		h.metrics.Simulations.WithLabelValues(endpoint, "invalid").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "asteroid not found: " + c.Param("id")})
	case errors.Is(err, neo.ErrNoDiameter), errors.Is(err, neo.ErrNoApproach):
		h.metrics.Simulations.WithLabelValues(endpoint, "invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.metrics.Simulations.WithLabelValues(endpoint, "error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "NASA asteroid simulation failed: " + err.Error()})
	}
}

func (h *Handler) getAsteroids(c *gin.Context) {
	filter := repository.Filter{
		Limit: defaultListLimit, // Default to 20 asteroids if limit param not supplied
	}

	if hz := c.Query("hazardous"); hz != "" {
		if b, err := strconv.ParseBool(hz); err == nil {
			filter.Hazardous = &b
		}
	}
	if d := c.Query("min_diameter"); d != "" {
		if diameter, err := strconv.ParseFloat(d, 64); err == nil {
			filter.MinDiameterM = &diameter
		}
	}
	if s := c.Query("since"); s != "" {
		if t, err := neo.ParseDate(s); err == nil {
			filter.Since = &t
		}
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= maxListLimit {
			filter.Limit = lim
		}
	}
	if o := c.Query("offset"); o != "" {
		if off, err := strconv.Atoi(o); err == nil && off > 0 {
			filter.Offset = off
		}
	}

	asteroids, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch asteroids",
		})
		return
	}
	if asteroids == nil {
		asteroids = []models.Asteroid{}
	}

	c.JSON(http.StatusOK, gin.H{
		"count":     len(asteroids),
		"asteroids": asteroids,
	})
}

func (h *Handler) getAlerts(c *gin.Context) {
	filter := repository.Filter{Limit: defaultListLimit}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= maxListLimit {
			filter.Limit = lim
		}
	}

	var (
		alerts []models.HazardAlert
		err    error
	)
	if id := c.Query("asteroid_id"); id != "" {
		alerts, err = h.alerts.GetByAsteroidID(c.Request.Context(), id)
	} else {
		alerts, err = h.alerts.ListAlerts(c.Request.Context(), filter)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch alerts",
		})
		return
	}
	if alerts == nil {
		alerts = []models.HazardAlert{}
	}

	c.JSON(http.StatusOK, gin.H{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// runSimulation writes the error response itself and reports false when the
// calculation failed.
func (h *Handler) runSimulation(c *gin.Context, endpoint string, in impact.Input) (impact.Result, bool) {
	res, err := impact.Simulate(in)
	if err != nil {
		h.metrics.Simulations.WithLabelValues(endpoint, "error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Calculation error: " + err.Error(),
		})
		return impact.Result{}, false
	}

	h.metrics.Simulations.WithLabelValues(endpoint, "success").Inc()
	h.metrics.SimulationSeverity.WithLabelValues(string(res.Comparisons.Severity)).Inc()
	return res, true
}

func floatQuery(c *gin.Context, key string, def float64) (float64, bool) {
	v := c.Query(key)
	if v == "" {
		return def, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
