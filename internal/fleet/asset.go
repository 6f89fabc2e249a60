// Asset domain model for the fleet simulator
package fleet

import "time"

// Kind categorizes an asset and selects which stochastic fault checks apply.
type Kind string

const (
	KindGroundVehicle Kind = "ground_vehicle"
	KindAircraft      Kind = "aircraft"
	KindDrone         Kind = "drone"
	KindShip          Kind = "ship"
)

// Status is the coarse operational state of an asset. It is a plain
// enumerated field, not a state machine; the engine only reads it to pick
// fault branches.
type Status string

const (
	StatusParked      Status = "parked"
	StatusMobile      Status = "mobile"
	StatusAirborne    Status = "airborne"
	StatusInUse       Status = "in_use"
	StatusReturning   Status = "returning"
	StatusRefueling   Status = "refueling"
	StatusMaintenance Status = "maintenance"
)

// Position holds latitude and longitude in degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// EnergyKind distinguishes the two energy source variants.
type EnergyKind string

const (
	EnergyBattery EnergyKind = "battery"
	EnergyFuel    EnergyKind = "fuel"
)

// EnergySource is the fuel-or-battery abstraction powering an asset.
// A nil EnergySource means the asset has neither.
type EnergySource interface {
	Kind() EnergyKind
	// Level returns the current charge or fill percentage.
	Level() float64
	// Step applies one tick of drain. Level never goes below 0.
	Step()
}

// Battery drains by DrainRate percent per tick.
type Battery struct {
	Charge    float64
	DrainRate float64
}

func (b *Battery) Kind() EnergyKind { return EnergyBattery }
func (b *Battery) Level() float64   { return b.Charge }

func (b *Battery) Step() {
	b.Charge -= b.DrainRate
	if b.Charge < 0 {
		b.Charge = 0
	}
}

// Fuel drains by ConsumptionRate percent per tick. Capacity is the tank
// size in liters, carried for display only.
type Fuel struct {
	Fill            float64
	Capacity        float64
	ConsumptionRate float64
}

func (f *Fuel) Kind() EnergyKind { return EnergyFuel }
func (f *Fuel) Level() float64   { return f.Fill }

func (f *Fuel) Step() {
	f.Fill -= f.ConsumptionRate
	if f.Fill < 0 {
		f.Fill = 0
	}
}

// Asset holds the runtime state of one simulated asset. Records are created
// from config at startup; the engine mutates Position, Progress, Energy,
// InGeofence, and LastAlarmTick.
type Asset struct {
	ID       string
	Name     string
	Kind     Kind
	Position Position
	Route    string
	Progress float64
	Speed    float64
	Status   Status
	Energy   EnergySource

	// InGeofence is the membership result of the most recent evaluation
	// cycle, used to detect entry/exit transitions.
	InGeofence bool
	// LastAlarmTick is the tick count of the last energy alarm, used for
	// cooldown rate-limiting. Zero means no energy alarm has fired yet.
	LastAlarmTick uint64
}

// SnapshotRow is the per-asset, per-tick payload broadcast to subscribers
// and handed to history writers.
type SnapshotRow struct {
	AssetID         string     `json:"id"`
	Lat             float64    `json:"lat"`
	Lon             float64    `json:"lon"`
	Kind            Kind       `json:"kind"`
	Status          Status     `json:"status"`
	EnergyLevel     *float64   `json:"energy_level"`
	HasEnergySource bool       `json:"has_energy_source"`
	EnergyKind      EnergyKind `json:"energy_kind"`
	Timestamp       time.Time  `json:"ts"`
}

// Snapshot captures the asset's current state.
func (a *Asset) Snapshot(ts time.Time) SnapshotRow {
	row := SnapshotRow{
		AssetID:   a.ID,
		Lat:       a.Position.Lat,
		Lon:       a.Position.Lon,
		Kind:      a.Kind,
		Status:    a.Status,
		Timestamp: ts,
	}
	if a.Energy != nil {
		level := a.Energy.Level()
		row.EnergyLevel = &level
		row.HasEnergySource = true
		row.EnergyKind = a.Energy.Kind()
	}
	return row
}
