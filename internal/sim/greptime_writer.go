package sim

import (
	"context"
	"log"
	"net"
	"strconv"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	ingesterContext "github.com/GreptimeTeam/greptimedb-ingester-go/context"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"fleetops-sim/internal/fleet"
)

// GreptimeDBWriter keeps a time-series history of asset positions in
// GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client *greptime.Client
	db     string
	table  string
}

// NewGreptimeDBWriter creates a new GreptimeDB writer. The ingester client
// auto-creates the history table on first write.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	cfg := greptime.NewConfig(endpoint).WithDatabase(database)
	if host, port, err := net.SplitHostPort(endpoint); err == nil {
		if p, err := strconv.Atoi(port); err == nil {
			cfg = greptime.NewConfig(host).WithPort(p).WithDatabase(database)
		}
	}
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	return &GreptimeDBWriter{
		client: client,
		db:     database,
		table:  "asset_positions",
	}, nil
}

// WriteSnapshot inserts a single snapshot row.
func (w *GreptimeDBWriter) WriteSnapshot(row fleet.SnapshotRow) error {
	return w.WriteSnapshots([]fleet.SnapshotRow{row})
}

// WriteSnapshots inserts multiple snapshot rows.
func (w *GreptimeDBWriter) WriteSnapshots(rows []fleet.SnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}

	ctx := ingesterContext.New(context.Background())

	tbl, err := table.New(w.table)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("asset_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("kind", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("lat", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("lon", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("status", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("energy_level", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("energy_kind", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}

	for _, r := range rows {
		level := -1.0
		if r.EnergyLevel != nil {
			level = *r.EnergyLevel
		}
		if err := tbl.AddRow(
			r.AssetID,
			string(r.Kind),
			r.Lat,
			r.Lon,
			string(r.Status),
			level,
			string(r.EnergyKind),
			r.Timestamp,
		); err != nil {
			return err
		}
	}

	if _, err := w.client.Write(ctx, tbl); err != nil {
		log.Printf("[GreptimeDBWriter] Write failed: %v", err)
		return err
	}
	return nil
}
