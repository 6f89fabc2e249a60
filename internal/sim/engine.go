// Engine orchestrating the fleet simulation ticks
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"fleetops-sim/internal/alarm"
	"fleetops-sim/internal/broadcast"
	"fleetops-sim/internal/config"
	"fleetops-sim/internal/fleet"
	"fleetops-sim/internal/store"
)

// GeofenceSource provides the polygon set tested on each evaluation cycle.
type GeofenceSource interface {
	GetGeofences(ctx context.Context) ([]store.Geofence, error)
}

// AlarmSink persists raised alarms, returning the generated ID and timestamp.
type AlarmSink interface {
	InsertAlarm(ctx context.Context, assetID string, geofenceID *int64, rule string) (int64, time.Time, error)
}

// Store is the storage surface the engine depends on.
type Store interface {
	GeofenceSource
	AlarmSink
}

// SnapshotWriter is an interface to support different history outputs.
type SnapshotWriter interface {
	WriteSnapshot(fleet.SnapshotRow) error
}

// Optional: snapshot writers can also support batch mode.
type batchSnapshotWriter interface {
	WriteSnapshots([]fleet.SnapshotRow) error
}

// AlarmWriter receives every successfully persisted alarm.
type AlarmWriter interface {
	WriteAlarm(alarm.Alarm) error
}

// Default evaluation parameters, applied when the config leaves them zero.
const (
	defaultEvalInterval     = 10
	defaultCommLossRate     = 0.01
	defaultMaintenanceRate  = 0.005
	defaultCriticalCooldown = 300
	defaultLowCooldown      = 600
)

// Engine owns the periodic simulation loop: it advances assets, drains
// energy, evaluates geofence membership on a coarser cadence, raises
// rate-limited alarms, and fans snapshots out to subscribers. Assets are
// processed sequentially within a tick and at most one tick runs at a time.
type Engine struct {
	assets   []*fleet.Asset
	routes   fleet.RouteTable
	store    Store
	assetBus *broadcast.Broadcaster[fleet.SnapshotRow]
	alertBus *broadcast.Broadcaster[alarm.Alarm]
	history  SnapshotWriter
	alarmLog AlarmWriter

	tickInterval     time.Duration
	evalEvery        uint64
	commLossRate     float64
	maintenanceRate  float64
	criticalCooldown uint64
	lowCooldown      uint64

	ticks uint64
	mu    sync.Mutex
	rand  *rand.Rand
	now   func() time.Time
}

// NewEngine initializes assets from the fleet config and wires the engine to
// its storage and broadcasters. history and alarmLog may be nil.
func NewEngine(
	cfg *config.SimulationConfig,
	st Store,
	assetBus *broadcast.Broadcaster[fleet.SnapshotRow],
	alertBus *broadcast.Broadcaster[alarm.Alarm],
	history SnapshotWriter,
	alarmLog AlarmWriter,
	tickInterval time.Duration,
) (*Engine, error) {
	e := &Engine{
		routes:           cfg.RouteTable(),
		store:            st,
		assetBus:         assetBus,
		alertBus:         alertBus,
		history:          history,
		alarmLog:         alarmLog,
		tickInterval:     tickInterval,
		evalEvery:        uint64(cfg.EvaluationInterval),
		commLossRate:     defaultCommLossRate,
		maintenanceRate:  defaultMaintenanceRate,
		criticalCooldown: cfg.CriticalAlarmCooldown,
		lowCooldown:      cfg.LowAlarmCooldown,
		rand:             rand.New(rand.NewSource(time.Now().UnixNano())),
		now:              time.Now,
	}
	if e.evalEvery == 0 {
		e.evalEvery = defaultEvalInterval
	}
	// An explicit zero rate disables the fault; only absent keys default.
	if cfg.CommunicationLossRate != nil {
		e.commLossRate = *cfg.CommunicationLossRate
	}
	if cfg.MaintenanceRate != nil {
		e.maintenanceRate = *cfg.MaintenanceRate
	}
	if e.criticalCooldown == 0 {
		e.criticalCooldown = defaultCriticalCooldown
	}
	if e.lowCooldown == 0 {
		e.lowCooldown = defaultLowCooldown
	}

	for _, group := range cfg.Fleets {
		assets, err := buildFleet(group, e.routes)
		if err != nil {
			return nil, err
		}
		e.assets = append(e.assets, assets...)
	}
	return e, nil
}

func buildFleet(group config.Fleet, routes fleet.RouteTable) ([]*fleet.Asset, error) {
	kind, err := parseKind(group.Kind)
	if err != nil {
		return nil, fmt.Errorf("fleet %s: %w", group.Name, err)
	}
	status, err := parseStatus(group.Status, group.Route)
	if err != nil {
		return nil, fmt.Errorf("fleet %s: %w", group.Name, err)
	}

	var start fleet.Position
	switch {
	case group.Start != nil:
		start = fleet.Position{Lat: group.Start[0], Lon: group.Start[1]}
	case group.Route != fleet.RouteStationary:
		route, ok := routes[group.Route]
		if !ok {
			return nil, fmt.Errorf("fleet %s: unknown route %q", group.Name, group.Route)
		}
		start = route.Points[0]
	}

	assets := make([]*fleet.Asset, 0, group.Count)
	for i := 0; i < group.Count; i++ {
		assets = append(assets, &fleet.Asset{
			ID:       generateAssetID(group.Name, i),
			Name:     fmt.Sprintf("%s-%d", group.Name, i),
			Kind:     kind,
			Position: start,
			Route:    group.Route,
			Speed:    group.Speed,
			Status:   status,
			Energy:   buildEnergy(group.Energy),
		})
	}
	return assets, nil
}

func parseKind(s string) (fleet.Kind, error) {
	switch fleet.Kind(s) {
	case fleet.KindGroundVehicle, fleet.KindAircraft, fleet.KindDrone, fleet.KindShip:
		return fleet.Kind(s), nil
	default:
		return "", fmt.Errorf("unknown asset kind %q", s)
	}
}

func parseStatus(s, route string) (fleet.Status, error) {
	if s == "" {
		if route == fleet.RouteStationary {
			return fleet.StatusParked, nil
		}
		return fleet.StatusMobile, nil
	}
	switch fleet.Status(s) {
	case fleet.StatusParked, fleet.StatusMobile, fleet.StatusAirborne,
		fleet.StatusInUse, fleet.StatusReturning, fleet.StatusRefueling,
		fleet.StatusMaintenance:
		return fleet.Status(s), nil
	default:
		return "", fmt.Errorf("unknown asset status %q", s)
	}
}

func buildEnergy(cfg config.Energy) fleet.EnergySource {
	switch cfg.Type {
	case "battery":
		return &fleet.Battery{Charge: cfg.Level, DrainRate: cfg.DrainRate}
	case "fuel":
		return &fleet.Fuel{Fill: cfg.Level, Capacity: cfg.Capacity, ConsumptionRate: cfg.ConsumptionRate}
	default:
		return nil
	}
}

func generateAssetID(fleetName string, index int) string {
	// Include the asset's index along with a UUID to guarantee uniqueness.
	return fmt.Sprintf("%s-%d-%s", fleetName, index, uuid.New().String())
}

// Snapshot returns the latest state for all assets.
func (e *Engine) Snapshot() []fleet.SnapshotRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now().UTC()
	rows := make([]fleet.SnapshotRow, 0, len(e.assets))
	for _, a := range e.assets {
		rows = append(rows, a.Snapshot(now))
	}
	return rows
}

// TickCount returns the number of completed ticks.
func (e *Engine) TickCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks
}
