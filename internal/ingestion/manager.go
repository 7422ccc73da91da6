// Package ingestion keeps the local NEO catalog in step with the NeoWs feed
// and raises hazard alerts for newly seen hazardous approaches.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-impactor/internal/config"
	"github.com/mr1hm/go-impactor/internal/impact"
	"github.com/mr1hm/go-impactor/internal/models"
	"github.com/mr1hm/go-impactor/internal/neo"
	"github.com/mr1hm/go-impactor/internal/observability"
	"github.com/mr1hm/go-impactor/internal/publisher"
	"github.com/mr1hm/go-impactor/internal/repository"
	"github.com/mr1hm/go-impactor/internal/stream"
	"github.com/mr1hm/go-impactor/internal/worker"
)

type FeedSource interface {
	Feed(ctx context.Context, start, end time.Time) ([]models.Asteroid, error)
}

type Store interface {
	repository.AsteroidRepository
	repository.AlertRepository
}

type Manager struct {
	cfg         *config.Config
	feed        FeedSource
	store       Store
	broadcaster *stream.Broadcaster[*models.HazardAlert]
	publisher   publisher.Publisher
	metrics     *observability.Metrics
	clock       clockwork.Clock
	pool        *worker.Pool[models.Asteroid]
	wg          sync.WaitGroup
}

func NewManager(
	cfg *config.Config,
	feed FeedSource,
	store Store,
	broadcaster *stream.Broadcaster[*models.HazardAlert],
	pub publisher.Publisher,
	metrics *observability.Metrics,
) *Manager {
	if pub == nil {
		pub = publisher.Nop{}
	}
	return &Manager{
		cfg:         cfg,
		feed:        feed,
		store:       store,
		broadcaster: broadcaster,
		publisher:   pub,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.pool = worker.NewPool(m.cfg.Worker.Count, m.cfg.Worker.BufferSize, m.process)
	m.pool.Start(ctx)

	if m.cfg.NEO.PollEnabled {
		m.wg.Add(1)
		go m.runPoller(ctx, m.cfg.NEO.PollInterval)
	}
}

func (m *Manager) process(ctx context.Context, a models.Asteroid) error {
	exists, err := m.store.Exists(ctx, a.ID, a.ApproachDate)
	if err != nil {
		m.metrics.IngestedAsteroids.WithLabelValues("failed").Inc()
		return fmt.Errorf("check %s: %w", a.Key(), err)
	}
	if exists {
		m.metrics.IngestedAsteroids.WithLabelValues("skipped").Inc()
		return nil
	}

	a.CreatedAt = m.clock.Now().UTC()
	if err := m.store.Add(ctx, &a); err != nil {
		m.metrics.IngestedAsteroids.WithLabelValues("failed").Inc()
		return fmt.Errorf("store %s: %w", a.Key(), err)
	}
	m.metrics.IngestedAsteroids.WithLabelValues("stored").Inc()
	slog.Info("added asteroid", "id", a.ID, "name", a.Name, "approach", a.ApproachDate, "hazardous", a.Hazardous)

	if !a.Hazardous {
		return nil
	}
	return m.raiseAlert(ctx, a)
}

func (m *Manager) raiseAlert(ctx context.Context, a models.Asteroid) error {
	alert, err := m.buildAlert(a)
	if err != nil {
		slog.Warn("skipping hazard alert", "id", a.ID, "error", err)
		return nil
	}

	if err := m.store.AddAlert(ctx, alert); err != nil {
		return fmt.Errorf("store alert for %s: %w", a.Key(), err)
	}
	m.metrics.HazardAlerts.Inc()

	if m.broadcaster != nil {
		m.broadcaster.Broadcast(alert)
	}
	if err := m.publisher.Publish(ctx, alert); err != nil {
		// The alert is already stored and streamed; a broker outage is not fatal.
		slog.Error("publish hazard alert failed", "id", alert.ID, "error", err)
	}

	slog.Info("hazard alert", "asteroid", a.ID, "severity", alert.Severity, "megatons", alert.EnergyMegatons)
	return nil
}

// buildAlert simulates a head-on strike of the approach at standard rocky
// density to grade how bad it would be.
func (m *Manager) buildAlert(a models.Asteroid) (*models.HazardAlert, error) {
	diameter, err := neo.DiameterForSimulation(a)
	if err != nil {
		return nil, err
	}
	res, err := impact.Simulate(impact.Input{
		DiameterM:   diameter,
		VelocityMS:  a.VelocityKmS * impact.MetersPerKilometer,
		DensityKgM3: impact.DefaultDensityKgM3,
		AngleDeg:    impact.DefaultAngleDeg,
	})
	if err != nil {
		return nil, err
	}

	return &models.HazardAlert{
		ID:             uuid.NewString(),
		AsteroidID:     a.ID,
		Name:           a.Name,
		ApproachDate:   a.ApproachDate,
		DiameterM:      diameter,
		VelocityKmS:    a.VelocityKmS,
		MissDistanceKm: a.MissDistanceKm,
		EnergyMegatons: res.KineticEnergyMegatons,
		Severity:       string(res.Comparisons.Severity),
		ImpactType:     string(res.ImpactType),
		CreatedAt:      m.clock.Now().UTC(),
	}, nil
}

func (m *Manager) runPoller(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()
	slog.Info("starting poller", "source", "neows", "interval", interval, "days", m.cfg.NEO.FeedDays)

	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	// Initial poll
	m.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("poller shutting down", "source", "neows")
			return
		case <-ticker.Chan():
			m.poll(ctx)
		}
	}
}

func (m *Manager) poll(ctx context.Context) {
	start := neo.Today(m.clock)
	end := start.AddDate(0, 0, m.cfg.NEO.FeedDays)
	slog.Debug("polling", "source", "neows", "start", start.Format(neo.DateLayout), "end", end.Format(neo.DateLayout))

	asteroids, err := m.feed.Feed(ctx, start, end)
	if err != nil {
		slog.Error("poll failed", "source", "neows", "error", err)
		return
	}

	for i, a := range asteroids {
		if !m.pool.Submit(a) {
			slog.Warn("worker pool stopped, dropping rest of poll", "dropped", len(asteroids)-i)
			return
		}
	}

	slog.Debug("poll complete", "source", "neows", "count", len(asteroids))
}

// Stop stops the pool first so a poller blocked on a full queue is released.
func (m *Manager) Stop() {
	if m.pool != nil {
		m.pool.Stop()
	}
	m.wg.Wait()
	slog.Info("ingestion manager stopped")
}
