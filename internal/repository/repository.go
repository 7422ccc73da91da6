package repository

import (
	"context"
	"time"

	"github.com/mr1hm/go-impactor/internal/models"
)

type Filter struct {
	Limit        int
	Offset       int
	Since        *time.Time // approach date on or after
	Hazardous    *bool
	MinDiameterM *float64 // compared against the maximum estimate
}

type AsteroidRepository interface {
	Add(ctx context.Context, a *models.Asteroid) error
	// GetByID returns the latest stored approach, or nil when the object is unknown.
	GetByID(ctx context.Context, id string) (*models.Asteroid, error)
	Exists(ctx context.Context, id, approachDate string) (bool, error)
	List(ctx context.Context, opts Filter) ([]models.Asteroid, error)
}

type AlertRepository interface {
	AddAlert(ctx context.Context, a *models.HazardAlert) error
	GetByAsteroidID(ctx context.Context, asteroidID string) ([]models.HazardAlert, error)
	ListAlerts(ctx context.Context, opts Filter) ([]models.HazardAlert, error)
}
