// Storage types shared by the postgres and in-memory stores
package store

import (
	"time"

	"fleetops-sim/internal/fleet"
)

// Geofence is a named polygon region. The polygon is an ordered vertex list,
// implicitly closed, with at least 3 vertices for a meaningful region.
type Geofence struct {
	ID      int64            `json:"id"`
	Name    string           `json:"name"`
	Polygon []fleet.Position `json:"polygon"`
}

// AlarmRecord is the persisted form of an alarm. Display metadata is not
// stored; only the composed rule string survives in the database.
type AlarmRecord struct {
	ID           int64     `json:"id"`
	AssetID      string    `json:"asset_id"`
	GeofenceID   *int64    `json:"geofence_id"`
	Rule         string    `json:"rule"`
	Acknowledged bool      `json:"acknowledged"`
	CreatedAt    time.Time `json:"created_at"`
}
