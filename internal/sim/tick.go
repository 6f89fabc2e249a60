package sim

import (
	"context"
	"fmt"
	"time"

	"fleetops-sim/internal/alarm"
	"fleetops-sim/internal/fleet"
	"fleetops-sim/internal/geo"
	"fleetops-sim/internal/logging"
	"fleetops-sim/internal/store"
)

// Run starts the simulation loop and stops when the context is done.
func (e *Engine) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting engine", "tick_interval", e.tickInterval, "assets", len(e.assets))
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.tick(ctx)
		case <-ctx.Done():
			log.Info("stopping engine")
			return
		}
	}
}

// tick advances every asset, broadcasts snapshots, and runs the coarse
// geofence/alarm evaluation every Nth tick.
func (e *Engine) tick(ctx context.Context) {
	log := logging.FromContext(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.ticks++
	now := e.now().UTC()

	rows := make([]fleet.SnapshotRow, 0, len(e.assets))
	for _, a := range e.assets {
		e.advance(ctx, a)
		rows = append(rows, a.Snapshot(now))
	}

	for _, row := range rows {
		e.assetBus.Publish(row)
	}

	if e.history != nil {
		if bw, ok := e.history.(batchSnapshotWriter); ok {
			if err := bw.WriteSnapshots(rows); err != nil {
				log.Error("snapshot batch write failed", "err", err)
			}
		} else {
			for _, row := range rows {
				if err := e.history.WriteSnapshot(row); err != nil {
					log.Error("snapshot write failed", "asset_id", row.AssetID, "err", err)
				}
			}
		}
	}

	if e.ticks%e.evalEvery == 0 {
		e.evaluate(ctx)
	}
}

// advance applies one tick of movement and energy drain to a single asset.
func (e *Engine) advance(ctx context.Context, a *fleet.Asset) {
	if a.Speed != 0 && a.Route != fleet.RouteStationary {
		route, ok := e.routes[a.Route]
		if !ok {
			// Configuration error: treat the asset as stationary, never
			// crash the tick over one bad route reference.
			logging.FromContext(ctx).Warn("unknown route", "asset_id", a.ID, "route", a.Route)
		} else {
			a.Position, a.Progress = route.Advance(a.Progress, a.Speed)
		}
	}
	if a.Energy != nil && a.Energy.Level() > 0 {
		a.Energy.Step()
	}
}

// evaluate runs the coarse-cadence geofence, energy, and fault checks. A
// geofence fetch failure skips the whole cycle; the next one retries.
func (e *Engine) evaluate(ctx context.Context) {
	log := logging.FromContext(ctx)
	fences, err := e.store.GetGeofences(ctx)
	if err != nil {
		log.Error("geofence fetch failed, skipping evaluation cycle", "err", err)
		return
	}
	for _, a := range e.assets {
		e.checkGeofences(ctx, a, fences)
		e.checkEnergy(ctx, a)
		e.checkFaults(ctx, a)
	}
}

// checkGeofences tests membership and raises entry/exit alarms on
// transitions. The first matching geofence wins; precedence between
// overlapping geofences follows storage iteration order.
func (e *Engine) checkGeofences(ctx context.Context, a *fleet.Asset, fences []store.Geofence) {
	inside := false
	var matched *store.Geofence
	for i := range fences {
		if geo.Contains(a.Position, fences[i].Polygon) {
			inside = true
			matched = &fences[i]
			break
		}
	}

	if inside && !a.InGeofence {
		id := matched.ID
		e.raise(ctx, a, alarm.GeofenceEntry, &id, matched.Name)
	} else if !inside && a.InGeofence {
		e.raise(ctx, a, alarm.GeofenceExit, nil, "")
	}
	a.InGeofence = inside
}

// checkEnergy raises rate-limited low/critical energy alarms. The critical
// branch is evaluated first; at most one energy alarm fires per cycle. An
// asset that has never alarmed fires on its first eligible cycle; the
// cooldown only spaces out repeats.
func (e *Engine) checkEnergy(ctx context.Context, a *fleet.Asset) {
	if a.Energy == nil {
		return
	}
	level := a.Energy.Level()
	if level <= 0 {
		return
	}

	critical, low := alarm.CriticalBattery, alarm.LowBattery
	if a.Energy.Kind() == fleet.EnergyFuel {
		critical, low = alarm.CriticalFuel, alarm.LowFuel
	}
	detail := fmt.Sprintf("%.0f%%", level)

	switch {
	case level <= 15:
		if a.LastAlarmTick == 0 || e.ticks-a.LastAlarmTick > e.criticalCooldown {
			e.raise(ctx, a, critical, nil, detail)
			a.LastAlarmTick = e.ticks
		}
	case level <= 30:
		if a.LastAlarmTick == 0 || e.ticks-a.LastAlarmTick > e.lowCooldown {
			e.raise(ctx, a, low, nil, detail)
			a.LastAlarmTick = e.ticks
		}
	}
}

// checkFaults models stochastic faults. No state is tracked, so a fault can
// fire on consecutive cycles.
func (e *Engine) checkFaults(ctx context.Context, a *fleet.Asset) {
	switch a.Status {
	case fleet.StatusAirborne:
		if e.rand.Float64() < e.commLossRate {
			e.raise(ctx, a, alarm.CommunicationLost, nil, "")
		}
	case fleet.StatusParked:
		if e.rand.Float64() < e.maintenanceRate {
			e.raise(ctx, a, alarm.MaintenanceRequired, nil, "")
		}
	}
}

// raise persists an alarm and publishes it to alert subscribers. If the
// insert fails the alarm is logged and dropped; the tick continues.
func (e *Engine) raise(ctx context.Context, a *fleet.Asset, t alarm.Type, geofenceID *int64, detail string) {
	log := logging.FromContext(ctx)
	rule := alarm.ComposeRule(t, detail)

	id, ts, err := e.store.InsertAlarm(ctx, a.ID, geofenceID, rule)
	if err != nil {
		log.Error("alarm insert failed, dropping alarm", "asset_id", a.ID, "type", t, "err", err)
		return
	}

	al := alarm.New(id, a.ID, geofenceID, t, rule, ts)
	e.alertBus.Publish(al)

	if e.alarmLog != nil {
		if err := e.alarmLog.WriteAlarm(al); err != nil {
			log.Error("alarm write failed", "alarm_id", al.ID, "err", err)
		}
	}
}
