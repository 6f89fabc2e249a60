// Alarm types, display metadata, and the published alarm payload
package alarm

import (
	"fmt"
	"time"
)

// Type identifies the condition that raised an alarm.
type Type string

const (
	GeofenceEntry       Type = "geofence_entry"
	GeofenceExit        Type = "geofence_exit"
	LowBattery          Type = "low_battery"
	CriticalBattery     Type = "critical_battery"
	LowFuel             Type = "low_fuel"
	CriticalFuel        Type = "critical_fuel"
	CommunicationLost   Type = "communication_lost"
	MaintenanceRequired Type = "maintenance_required"
)

// Severity levels used in the display catalog.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Meta holds the display attributes attached to every published alarm.
type Meta struct {
	Name     string
	Color    string
	Severity string
	Icon     string
}

// Catalog maps each alarm type to its display metadata. The composed rule
// string persisted with an alarm is derived from this table.
var Catalog = map[Type]Meta{
	GeofenceEntry:       {Name: "Geofence entry", Color: "#2e86de", Severity: SeverityInfo, Icon: "📍"},
	GeofenceExit:        {Name: "Geofence exit", Color: "#8395a7", Severity: SeverityInfo, Icon: "🚪"},
	LowBattery:          {Name: "Low battery", Color: "#f39c12", Severity: SeverityWarning, Icon: "🪫"},
	CriticalBattery:     {Name: "Critical battery", Color: "#e74c3c", Severity: SeverityCritical, Icon: "🔋"},
	LowFuel:             {Name: "Low fuel", Color: "#f39c12", Severity: SeverityWarning, Icon: "⛽"},
	CriticalFuel:        {Name: "Critical fuel", Color: "#e74c3c", Severity: SeverityCritical, Icon: "⛽"},
	CommunicationLost:   {Name: "Communication lost", Color: "#c0392b", Severity: SeverityCritical, Icon: "📡"},
	MaintenanceRequired: {Name: "Maintenance required", Color: "#d35400", Severity: SeverityWarning, Icon: "🔧"},
}

// ComposeRule builds the human-readable rule string: icon, display name,
// and an optional detail suffix.
func ComposeRule(t Type, detail string) string {
	meta, ok := Catalog[t]
	if !ok {
		meta = Meta{Name: string(t)}
	}
	rule := meta.Name
	if meta.Icon != "" {
		rule = meta.Icon + " " + rule
	}
	if detail != "" {
		rule = fmt.Sprintf("%s (%s)", rule, detail)
	}
	return rule
}

// Alarm is the fully assembled payload published to alert subscribers after
// the persisted record's ID and timestamp are known.
type Alarm struct {
	ID           int64     `json:"id"`
	AssetID      string    `json:"asset_id"`
	GeofenceID   *int64    `json:"geofence_id"`
	Rule         string    `json:"rule"`
	Acknowledged bool      `json:"acknowledged"`
	Timestamp    time.Time `json:"timestamp"`
	Type         Type      `json:"alarm_type"`
	Color        string    `json:"color"`
	Severity     string    `json:"severity"`
}

// New assembles an alarm payload from its persisted identity and type.
func New(id int64, assetID string, geofenceID *int64, t Type, rule string, ts time.Time) Alarm {
	meta := Catalog[t]
	return Alarm{
		ID:         id,
		AssetID:    assetID,
		GeofenceID: geofenceID,
		Rule:       rule,
		Timestamp:  ts,
		Type:       t,
		Color:      meta.Color,
		Severity:   meta.Severity,
	}
}
