// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fleetops-sim/internal/fleet"
	"fleetops-sim/internal/store"
)

// Energy declares the power source of a fleet's assets.
// Type is "battery", "fuel", or "none".
type Energy struct {
	Type            string  `yaml:"type"`
	Level           float64 `yaml:"level"`
	Capacity        float64 `yaml:"capacity"`
	DrainRate       float64 `yaml:"drain_rate"`
	ConsumptionRate float64 `yaml:"consumption_rate"`
}

// Fleet defines a group of identical assets. Start overrides the initial
// position, which otherwise defaults to the route's first point.
type Fleet struct {
	Name   string      `yaml:"name"`
	Kind   string      `yaml:"kind"`
	Count  int         `yaml:"count"`
	Route  string      `yaml:"route"`
	Speed  float64     `yaml:"speed"`
	Status string      `yaml:"status"`
	Start  *[2]float64 `yaml:"start"`
	Energy Energy      `yaml:"energy"`
}

// Route defines a named polyline as [lat, lon] pairs.
type Route struct {
	Name   string       `yaml:"name"`
	Points [][2]float64 `yaml:"points"`
}

// Geofence defines a seed polygon for runs without a database.
type Geofence struct {
	Name    string       `yaml:"name"`
	Polygon [][2]float64 `yaml:"polygon"`
}

// SimulationConfig is the root configuration for routes, geofences, fleets,
// and the alarm evaluation parameters.
type SimulationConfig struct {
	Routes    []Route    `yaml:"routes"`
	Geofences []Geofence `yaml:"geofences"`
	Fleets    []Fleet    `yaml:"fleets"`

	// EvaluationInterval is the coarse cadence: geofence and alarm checks
	// run every Nth tick.
	EvaluationInterval int `yaml:"evaluation_interval"`
	// Fault rates are pointers so an explicit 0 disables the fault while
	// an absent key falls back to the engine defaults.
	CommunicationLossRate *float64 `yaml:"communication_loss_rate"`
	MaintenanceRate       *float64 `yaml:"maintenance_rate"`
	CriticalAlarmCooldown uint64   `yaml:"critical_alarm_cooldown"`
	LowAlarmCooldown      uint64   `yaml:"low_alarm_cooldown"`
	StreamBuffer          int      `yaml:"stream_buffer"`
}

// Load loads YAML config and validates it against a CUE schema.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg SimulationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Routes) == 0 {
		return nil, fmt.Errorf("config %s: no routes defined", configPath)
	}
	if len(cfg.Fleets) == 0 {
		return nil, fmt.Errorf("config %s: no fleets defined", configPath)
	}
	return &cfg, nil
}

// RouteTable converts the configured routes into the runtime table.
func (c *SimulationConfig) RouteTable() fleet.RouteTable {
	table := make(fleet.RouteTable, len(c.Routes))
	for _, r := range c.Routes {
		table[r.Name] = fleet.Route{Name: r.Name, Points: toPositions(r.Points)}
	}
	return table
}

// SeedGeofences converts the configured geofences into store records.
func (c *SimulationConfig) SeedGeofences() []store.Geofence {
	fences := make([]store.Geofence, 0, len(c.Geofences))
	for _, g := range c.Geofences {
		fences = append(fences, store.Geofence{Name: g.Name, Polygon: toPositions(g.Polygon)})
	}
	return fences
}

func toPositions(pairs [][2]float64) []fleet.Position {
	pts := make([]fleet.Position, len(pairs))
	for i, p := range pairs {
		pts[i] = fleet.Position{Lat: p[0], Lon: p[1]}
	}
	return pts
}
