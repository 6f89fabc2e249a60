package sim

import (
	"errors"
	"testing"

	"fleetops-sim/internal/alarm"
	"fleetops-sim/internal/fleet"
)

type failingWriter struct{ err error }

func (w *failingWriter) WriteSnapshot(fleet.SnapshotRow) error { return w.err }
func (w *failingWriter) WriteAlarm(alarm.Alarm) error          { return w.err }

type batchCounter struct {
	single int
	batch  int
}

func (w *batchCounter) WriteSnapshot(fleet.SnapshotRow) error { w.single++; return nil }
func (w *batchCounter) WriteSnapshots(rows []fleet.SnapshotRow) error {
	w.batch += len(rows)
	return nil
}

func TestMultiWriter_FansOut(t *testing.T) {
	a := &MockSnapshotWriter{}
	b := &MockSnapshotWriter{}
	mw := NewMultiWriter([]SnapshotWriter{a, b}, nil)

	if err := mw.WriteSnapshot(fleet.SnapshotRow{AssetID: "x"}); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if len(a.Rows) != 1 || len(b.Rows) != 1 {
		t.Errorf("Expected both writers to receive the row, got %d and %d", len(a.Rows), len(b.Rows))
	}
}

func TestMultiWriter_FirstErrorWinsButAllWrite(t *testing.T) {
	failed := errors.New("disk full")
	ok := &MockSnapshotWriter{}
	mw := NewMultiWriter([]SnapshotWriter{&failingWriter{err: failed}, ok}, nil)

	err := mw.WriteSnapshot(fleet.SnapshotRow{AssetID: "x"})
	if !errors.Is(err, failed) {
		t.Errorf("Expected the first error back, got %v", err)
	}
	if len(ok.Rows) != 1 {
		t.Error("Expected the healthy writer to still receive the row")
	}
}

func TestMultiWriter_BatchUpgrade(t *testing.T) {
	bc := &batchCounter{}
	plain := &MockSnapshotWriter{}
	mw := NewMultiWriter([]SnapshotWriter{bc, plain}, nil)

	rows := []fleet.SnapshotRow{{AssetID: "a"}, {AssetID: "b"}}
	if err := mw.WriteSnapshots(rows); err != nil {
		t.Fatalf("WriteSnapshots: %v", err)
	}
	if bc.batch != 2 || bc.single != 0 {
		t.Errorf("Expected batch path used, got batch=%d single=%d", bc.batch, bc.single)
	}
	if len(plain.Rows) != 2 {
		t.Errorf("Expected per-row fallback for plain writer, got %d", len(plain.Rows))
	}
}

func TestMultiWriter_AlarmFanOut(t *testing.T) {
	failed := errors.New("down")
	var got []alarm.Alarm
	okWriter := alarmCollector{out: &got}
	mw := NewMultiWriter(nil, []AlarmWriter{&failingWriter{err: failed}, okWriter})

	err := mw.WriteAlarm(alarm.Alarm{ID: 3})
	if !errors.Is(err, failed) {
		t.Errorf("Expected first error back, got %v", err)
	}
	if len(got) != 1 || got[0].ID != 3 {
		t.Errorf("Expected alarm delivered to healthy writer, got %+v", got)
	}
}

type alarmCollector struct{ out *[]alarm.Alarm }

func (c alarmCollector) WriteAlarm(a alarm.Alarm) error {
	*c.out = append(*c.out, a)
	return nil
}
