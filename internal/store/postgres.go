package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fleetops-sim/internal/fleet"
)

// Postgres stores geofences and alarms in PostgreSQL via a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL, verifies the connection, and runs
// the schema migrations.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Postgres{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

func (s *Postgres) migrate(ctx context.Context) error {
	migrations := []string{
		migrationCreateGeofences,
		migrationCreateAlarms,
	}
	for _, m := range migrations {
		if _, err := s.pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}
	return nil
}

const migrationCreateGeofences = `
CREATE TABLE IF NOT EXISTS geofences (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    polygon JSONB NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`

const migrationCreateAlarms = `
CREATE TABLE IF NOT EXISTS alarms (
    id BIGSERIAL PRIMARY KEY,
    asset_id VARCHAR(255) NOT NULL,
    geofence_id BIGINT REFERENCES geofences(id),
    rule TEXT NOT NULL,
    acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_alarms_asset_id ON alarms(asset_id);
CREATE INDEX IF NOT EXISTS idx_alarms_created_at ON alarms(created_at);
`

// GetGeofences returns a snapshot of all geofences. Iteration order is
// whatever the database returns.
func (s *Postgres) GetGeofences(ctx context.Context) ([]Geofence, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, polygon FROM geofences`)
	if err != nil {
		return nil, fmt.Errorf("query geofences: %w", err)
	}
	defer rows.Close()

	var fences []Geofence
	for rows.Next() {
		var (
			g   Geofence
			raw []byte
		)
		if err := rows.Scan(&g.ID, &g.Name, &raw); err != nil {
			return nil, fmt.Errorf("scan geofence: %w", err)
		}
		if err := json.Unmarshal(raw, &g.Polygon); err != nil {
			return nil, fmt.Errorf("decode polygon for geofence %d: %w", g.ID, err)
		}
		fences = append(fences, g)
	}
	return fences, rows.Err()
}

// CreateGeofence inserts a geofence and fills in its generated ID.
func (s *Postgres) CreateGeofence(ctx context.Context, name string, polygon []fleet.Position) (Geofence, error) {
	raw, err := json.Marshal(polygon)
	if err != nil {
		return Geofence{}, fmt.Errorf("encode polygon: %w", err)
	}
	g := Geofence{Name: name, Polygon: polygon}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO geofences (name, polygon) VALUES ($1, $2) RETURNING id`,
		name, raw,
	).Scan(&g.ID)
	if err != nil {
		return Geofence{}, fmt.Errorf("insert geofence: %w", err)
	}
	return g, nil
}

// DeleteGeofence removes a geofence by ID.
func (s *Postgres) DeleteGeofence(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM geofences WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete geofence: %w", err)
	}
	return nil
}

// InsertAlarm persists an alarm and returns its generated ID and timestamp.
func (s *Postgres) InsertAlarm(ctx context.Context, assetID string, geofenceID *int64, rule string) (int64, time.Time, error) {
	var (
		id int64
		ts time.Time
	)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO alarms (asset_id, geofence_id, rule) VALUES ($1, $2, $3) RETURNING id, created_at`,
		assetID, geofenceID, rule,
	).Scan(&id, &ts)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("insert alarm: %w", err)
	}
	return id, ts, nil
}

// ListAlarms returns the most recent alarms, newest first.
func (s *Postgres) ListAlarms(ctx context.Context, limit int) ([]AlarmRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, asset_id, geofence_id, rule, acknowledged, created_at
		 FROM alarms ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query alarms: %w", err)
	}
	defer rows.Close()

	var alarms []AlarmRecord
	for rows.Next() {
		var a AlarmRecord
		if err := rows.Scan(&a.ID, &a.AssetID, &a.GeofenceID, &a.Rule, &a.Acknowledged, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alarm: %w", err)
		}
		alarms = append(alarms, a)
	}
	return alarms, rows.Err()
}

// AcknowledgeAlarm marks an alarm as acknowledged. It reports whether a row
// was updated.
func (s *Postgres) AcknowledgeAlarm(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE alarms SET acknowledged = TRUE WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("acknowledge alarm: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
