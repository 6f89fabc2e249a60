// Writer implementation printing snapshots and alarms to STDOUT
package sim

import (
	"encoding/json"
	"fmt"

	"fleetops-sim/internal/alarm"
	"fleetops-sim/internal/fleet"
)

// StdoutWriter prints snapshot rows and alarms as JSON lines.
type StdoutWriter struct{}

// WriteSnapshot outputs a single snapshot row.
func (w *StdoutWriter) WriteSnapshot(row fleet.SnapshotRow) error {
	data, _ := json.Marshal(row)
	fmt.Println(string(data))
	return nil
}

// WriteSnapshots outputs multiple snapshot rows.
func (w *StdoutWriter) WriteSnapshots(rows []fleet.SnapshotRow) error {
	for _, r := range rows {
		_ = w.WriteSnapshot(r)
	}
	return nil
}

// WriteAlarm prints an alarm to STDOUT.
func (w *StdoutWriter) WriteAlarm(a alarm.Alarm) error {
	data, _ := json.Marshal(a)
	fmt.Println(string(data))
	return nil
}
