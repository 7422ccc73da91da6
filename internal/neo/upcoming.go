package neo

import (
	"context"
	"log/slog"

	"github.com/mr1hm/go-impactor/internal/models"
)

const (
	SourceFeed       = "NASA NEO API"
	SourceSimpleFeed = "NASA NEO API (Simple)"
	SourceSample     = "Sample Data (API Unavailable)"

	// UpcomingWindowDays is how far ahead the upcoming listing looks.
	UpcomingWindowDays = 7
)

type Listing struct {
	Asteroids []models.Asteroid
	Source    string
}

// Upcoming never fails: dated feed, then the default feed, then the static
// sample catalog.
func (c *Client) Upcoming(ctx context.Context) Listing {
	start := Today(c.clock)
	asteroids, err := c.Feed(ctx, start, start.AddDate(0, 0, UpcomingWindowDays))
	if err == nil {
		return Listing{Asteroids: asteroids, Source: SourceFeed}
	}

	slog.Warn("dated NeoWs feed failed, trying default window", "error", err)
	c.metrics.NEOFallbacks.WithLabelValues("simple").Inc()

	asteroids, err = c.defaultFeed(ctx)
	if err == nil {
		return Listing{Asteroids: asteroids, Source: SourceSimpleFeed}
	}

	slog.Error("NeoWs unavailable, serving sample data", "error", err)
	c.metrics.NEOFallbacks.WithLabelValues("sample").Inc()
	return Listing{Asteroids: SampleAsteroids(), Source: SourceSample}
}

// SampleAsteroids returns a fresh copy of the offline catalog.
func SampleAsteroids() []models.Asteroid {
	return []models.Asteroid{
		{
			ID:             "2000433",
			Name:           "433 Eros (A898 PA)",
			DiameterMinM:   16800,
			DiameterMaxM:   16800,
			VelocityKmS:    24.3,
			MissDistanceKm: 26_700_000,
			ApproachDate:   "2024-01-15",
			Hazardous:      false,
			HasApproach:    true,
		},
		{
			ID:             "2001862",
			Name:           "1862 Apollo (1932 HA)",
			DiameterMinM:   1500,
			DiameterMaxM:   1500,
			VelocityKmS:    22.5,
			MissDistanceKm: 4_500_000,
			ApproachDate:   "2024-02-20",
			Hazardous:      true,
			HasApproach:    true,
		},
	}
}
