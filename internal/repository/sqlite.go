package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mr1hm/go-impactor/internal/models"
)

const dateLayout = "2006-01-02"

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// Each connection to ":memory:" is its own database, and sqlite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS asteroids (
			id TEXT NOT NULL,
			approach_date TEXT NOT NULL,
			name TEXT NOT NULL,
			jpl_url TEXT,
			diameter_min_m REAL,
			diameter_max_m REAL,
			velocity_km_s REAL,
			miss_distance_km REAL,
			hazardous INTEGER NOT NULL DEFAULT 0,
			raw BLOB,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (id, approach_date)
		);

		CREATE TABLE IF NOT EXISTS hazard_alerts (
			id TEXT PRIMARY KEY,
			asteroid_id TEXT NOT NULL,
			name TEXT NOT NULL,
			approach_date TEXT NOT NULL,
			diameter_m REAL,
			velocity_km_s REAL,
			miss_distance_km REAL,
			energy_megatons REAL,
			severity TEXT NOT NULL,
			impact_type TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_asteroids_approach_date ON asteroids(approach_date);
		CREATE INDEX IF NOT EXISTS idx_asteroids_hazardous ON asteroids(hazardous);
		CREATE INDEX IF NOT EXISTS idx_hazard_alerts_asteroid_id ON hazard_alerts(asteroid_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) Add(ctx context.Context, a *models.Asteroid) error {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO asteroids (id, approach_date, name, jpl_url, diameter_min_m, diameter_max_m,
			velocity_km_s, miss_distance_km, hazardous, raw, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ApproachDate, a.Name, a.JPLURL, a.DiameterMinM, a.DiameterMaxM,
		a.VelocityKmS, a.MissDistanceKm, a.Hazardous, a.Raw, createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert asteroid %s: %w", a.Key(), err)
	}
	return nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id string) (*models.Asteroid, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+asteroidColumns+` FROM asteroids
		WHERE id = ?
		ORDER BY approach_date DESC
		LIMIT 1`, id)

	a, err := scanAsteroid(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asteroid %s: %w", id, err)
	}
	return a, nil
}

func (s *SQLiteDB) Exists(ctx context.Context, id, approachDate string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM asteroids WHERE id = ? AND approach_date = ?)`,
		id, approachDate,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check asteroid %s@%s: %w", id, approachDate, err)
	}
	return exists, nil
}

func (s *SQLiteDB) List(ctx context.Context, opts Filter) ([]models.Asteroid, error) {
	var (
		where []string
		args  []any
	)
	if opts.Since != nil {
		where = append(where, "approach_date >= ?")
		args = append(args, opts.Since.Format(dateLayout))
	}
	if opts.Hazardous != nil {
		where = append(where, "hazardous = ?")
		args = append(args, *opts.Hazardous)
	}
	if opts.MinDiameterM != nil {
		where = append(where, "diameter_max_m >= ?")
		args = append(args, *opts.MinDiameterM)
	}

	query := "SELECT " + asteroidColumns + " FROM asteroids"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY approach_date ASC, id ASC"
	query, args = paginate(query, args, opts)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list asteroids: %w", err)
	}
	defer rows.Close()

	var out []models.Asteroid
	for rows.Next() {
		a, err := scanAsteroid(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asteroid: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) AddAlert(ctx context.Context, a *models.HazardAlert) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hazard_alerts (id, asteroid_id, name, approach_date, diameter_m, velocity_km_s,
			miss_distance_km, energy_megatons, severity, impact_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.AsteroidID, a.Name, a.ApproachDate, a.DiameterM, a.VelocityKmS,
		a.MissDistanceKm, a.EnergyMegatons, a.Severity, a.ImpactType, a.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert hazard alert %s: %w", a.ID, err)
	}
	return nil
}

func (s *SQLiteDB) GetByAsteroidID(ctx context.Context, asteroidID string) ([]models.HazardAlert, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+alertColumns+" FROM hazard_alerts WHERE asteroid_id = ? ORDER BY created_at DESC",
		asteroidID,
	)
	if err != nil {
		return nil, fmt.Errorf("get alerts for %s: %w", asteroidID, err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

// ListAlerts honours Limit, Offset and Since (alert creation time).
func (s *SQLiteDB) ListAlerts(ctx context.Context, opts Filter) ([]models.HazardAlert, error) {
	query := "SELECT " + alertColumns + " FROM hazard_alerts"
	var args []any
	if opts.Since != nil {
		query += " WHERE created_at >= ?"
		args = append(args, opts.Since.UTC())
	}
	query += " ORDER BY created_at DESC"
	query, args = paginate(query, args, opts)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

const asteroidColumns = `id, approach_date, name, jpl_url, diameter_min_m, diameter_max_m,
	velocity_km_s, miss_distance_km, hazardous, raw, created_at`

const alertColumns = `id, asteroid_id, name, approach_date, diameter_m, velocity_km_s,
	miss_distance_km, energy_megatons, severity, impact_type, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAsteroid(sc scanner) (*models.Asteroid, error) {
	var (
		a      models.Asteroid
		jplURL sql.NullString
	)
	err := sc.Scan(&a.ID, &a.ApproachDate, &a.Name, &jplURL, &a.DiameterMinM, &a.DiameterMaxM,
		&a.VelocityKmS, &a.MissDistanceKm, &a.Hazardous, &a.Raw, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.JPLURL = jplURL.String
	a.HasApproach = a.ApproachDate != ""
	return &a, nil
}

func scanAlerts(rows *sql.Rows) ([]models.HazardAlert, error) {
	var out []models.HazardAlert
	for rows.Next() {
		var a models.HazardAlert
		if err := rows.Scan(&a.ID, &a.AsteroidID, &a.Name, &a.ApproachDate, &a.DiameterM, &a.VelocityKmS,
			&a.MissDistanceKm, &a.EnergyMegatons, &a.Severity, &a.ImpactType, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func paginate(query string, args []any, opts Filter) (string, []any) {
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}
	return query, args
}
