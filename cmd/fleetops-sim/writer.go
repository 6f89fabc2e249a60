package main

import (
	"os"

	"fleetops-sim/internal/sim"
)

// newWriters sets up snapshot and alarm writers based on flags and env vars.
// It returns the writers and a cleanup function to close any resources.
func newWriters(printOnly, tui bool, logFile string) (sim.SnapshotWriter, sim.AlarmWriter, func(), error) {
	cleanup := func() {}

	history, alarmLog, closeBase, err := baseWriters(printOnly, tui)
	if err != nil {
		return nil, nil, nil, err
	}
	if logFile == "" {
		return history, alarmLog, closeBase, nil
	}

	fw, err := sim.NewFileWriter(logFile, logFile+".alarms")
	if err != nil {
		closeBase()
		return nil, nil, nil, err
	}

	snaps := []sim.SnapshotWriter{fw}
	alarms := []sim.AlarmWriter{fw}
	if history != nil {
		snaps = append(snaps, history)
	}
	if alarmLog != nil {
		alarms = append(alarms, alarmLog)
	}
	mw := sim.NewMultiWriter(snaps, alarms)
	cleanup = func() {
		fw.Close()
		closeBase()
	}
	return mw, mw, cleanup, nil
}

// baseWriters chooses the underlying writers from the display mode and the
// GREPTIMEDB_ENDPOINT env var.
func baseWriters(printOnly, tui bool) (sim.SnapshotWriter, sim.AlarmWriter, func(), error) {
	if tui {
		tw := sim.NewTUIWriter()
		return tw, tw, func() { tw.Close() }, nil
	}

	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if printOnly || endpoint == "" {
		sw := &sim.StdoutWriter{}
		return sw, sw, func() {}, nil
	}

	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = "public"
	}
	w, err := sim.NewGreptimeDBWriter(endpoint, database)
	if err != nil {
		return nil, nil, nil, err
	}
	// Greptime keeps the position history; alarms stay in the primary store.
	return w, nil, func() {}, nil
}
