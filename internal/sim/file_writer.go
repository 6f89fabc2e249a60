package sim

import (
	"encoding/json"
	"os"

	"fleetops-sim/internal/alarm"
	"fleetops-sim/internal/fleet"
)

// FileWriter writes snapshots and alarms to JSONL files.
type FileWriter struct {
	snapFile  *os.File
	alarmFile *os.File
	snapEnc   *json.Encoder
	alarmEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. alarmPath may be empty to skip the
// alarm log.
func NewFileWriter(snapshotPath, alarmPath string) (*FileWriter, error) {
	sf, err := os.Create(snapshotPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{snapFile: sf, snapEnc: json.NewEncoder(sf)}
	if alarmPath != "" {
		af, err := os.Create(alarmPath)
		if err != nil {
			sf.Close()
			return nil, err
		}
		fw.alarmFile = af
		fw.alarmEnc = json.NewEncoder(af)
	}
	return fw, nil
}

// WriteSnapshot appends one snapshot row to the snapshot log.
func (w *FileWriter) WriteSnapshot(row fleet.SnapshotRow) error {
	return w.snapEnc.Encode(row)
}

// WriteSnapshots appends multiple snapshot rows.
func (w *FileWriter) WriteSnapshots(rows []fleet.SnapshotRow) error {
	for _, r := range rows {
		if err := w.snapEnc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteAlarm appends one alarm to the alarm log, if configured.
func (w *FileWriter) WriteAlarm(a alarm.Alarm) error {
	if w.alarmEnc == nil {
		return nil
	}
	return w.alarmEnc.Encode(a)
}

// Close flushes and closes the underlying files.
func (w *FileWriter) Close() error {
	err := w.snapFile.Close()
	if w.alarmFile != nil {
		if cerr := w.alarmFile.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
