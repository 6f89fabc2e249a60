package sim

import (
	"fleetops-sim/internal/alarm"
	"fleetops-sim/internal/fleet"
)

// MultiWriter fans writes out to several writers. The first error wins but
// every writer still sees the row.
type MultiWriter struct {
	snapshots []SnapshotWriter
	alarms    []AlarmWriter
}

// NewMultiWriter combines snapshot and alarm writers.
func NewMultiWriter(snapshots []SnapshotWriter, alarms []AlarmWriter) *MultiWriter {
	return &MultiWriter{snapshots: snapshots, alarms: alarms}
}

// WriteSnapshot forwards one row to all snapshot writers.
func (w *MultiWriter) WriteSnapshot(row fleet.SnapshotRow) error {
	var firstErr error
	for _, sw := range w.snapshots {
		if err := sw.WriteSnapshot(row); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WriteSnapshots forwards a batch, using batch mode where supported.
func (w *MultiWriter) WriteSnapshots(rows []fleet.SnapshotRow) error {
	var firstErr error
	for _, sw := range w.snapshots {
		var err error
		if bw, ok := sw.(batchSnapshotWriter); ok {
			err = bw.WriteSnapshots(rows)
		} else {
			for _, r := range rows {
				if werr := sw.WriteSnapshot(r); werr != nil && err == nil {
					err = werr
				}
			}
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WriteAlarm forwards one alarm to all alarm writers.
func (w *MultiWriter) WriteAlarm(a alarm.Alarm) error {
	var firstErr error
	for _, aw := range w.alarms {
		if err := aw.WriteAlarm(a); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
