package store

import (
	"context"
	"sync"
	"time"

	"fleetops-sim/internal/fleet"
)

// Memory keeps geofences and alarms in process memory. It backs print-only
// runs without a database and the engine tests.
type Memory struct {
	mu       sync.Mutex
	fences   []Geofence
	alarms   []AlarmRecord
	nextID   int64
	nextAlrm int64
}

// NewMemory creates an in-memory store seeded with the given geofences.
func NewMemory(fences []Geofence) *Memory {
	m := &Memory{nextID: 1, nextAlrm: 1}
	for _, g := range fences {
		g.ID = m.nextID
		m.nextID++
		m.fences = append(m.fences, g)
	}
	return m
}

// GetGeofences returns a copy of the current geofence set.
func (m *Memory) GetGeofences(ctx context.Context) ([]Geofence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Geofence, len(m.fences))
	copy(out, m.fences)
	return out, nil
}

// CreateGeofence adds a geofence and assigns it an ID.
func (m *Memory) CreateGeofence(ctx context.Context, name string, polygon []fleet.Position) (Geofence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := Geofence{ID: m.nextID, Name: name, Polygon: polygon}
	m.nextID++
	m.fences = append(m.fences, g)
	return g, nil
}

// DeleteGeofence removes a geofence by ID. Unknown IDs are a no-op.
func (m *Memory) DeleteGeofence(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, g := range m.fences {
		if g.ID == id {
			m.fences = append(m.fences[:i], m.fences[i+1:]...)
			break
		}
	}
	return nil
}

// InsertAlarm records an alarm and returns its ID and timestamp.
func (m *Memory) InsertAlarm(ctx context.Context, assetID string, geofenceID *int64, rule string) (int64, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	rec := AlarmRecord{
		ID:         m.nextAlrm,
		AssetID:    assetID,
		GeofenceID: geofenceID,
		Rule:       rule,
		CreatedAt:  now,
	}
	m.nextAlrm++
	m.alarms = append(m.alarms, rec)
	return rec.ID, now, nil
}

// ListAlarms returns the most recent alarms, newest first.
func (m *Memory) ListAlarms(ctx context.Context, limit int) ([]AlarmRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.alarms) {
		limit = len(m.alarms)
	}
	out := make([]AlarmRecord, 0, limit)
	for i := len(m.alarms) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.alarms[i])
	}
	return out, nil
}

// AcknowledgeAlarm marks an alarm acknowledged, reporting whether it exists.
func (m *Memory) AcknowledgeAlarm(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alarms {
		if m.alarms[i].ID == id {
			m.alarms[i].Acknowledged = true
			return true, nil
		}
	}
	return false, nil
}
