package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"fleetops-sim/internal/fleet"
	"fleetops-sim/internal/logging"
)

// Replay reads a recorded snapshot JSONL log and re-emits it through a
// writer. Rows sharing a timestamp are emitted together, one group per
// interval, so a recorded run plays back at tick cadence.
func Replay(ctx context.Context, path string, w SnapshotWriter, interval time.Duration) error {
	log := logging.FromContext(ctx)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot log: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		group   []fleet.SnapshotRow
		groupTS time.Time
	)

	flush := func() error {
		if len(group) == 0 {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
		if bw, ok := w.(batchSnapshotWriter); ok {
			if err := bw.WriteSnapshots(group); err != nil {
				log.Error("replay batch write failed", "err", err)
			}
		} else {
			for _, r := range group {
				if err := w.WriteSnapshot(r); err != nil {
					log.Error("replay write failed", "asset_id", r.AssetID, "err", err)
				}
			}
		}
		group = group[:0]
		return nil
	}

	for {
		var row fleet.SnapshotRow
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("decode snapshot log: %w", err)
		}
		if len(group) > 0 && !row.Timestamp.Equal(groupTS) {
			if err := flush(); err != nil {
				return err
			}
		}
		groupTS = row.Timestamp
		group = append(group, row)
	}
	return flush()
}
