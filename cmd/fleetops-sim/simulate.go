package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fleetops-sim/internal/alarm"
	"fleetops-sim/internal/api"
	"fleetops-sim/internal/broadcast"
	"fleetops-sim/internal/config"
	"fleetops-sim/internal/fleet"
	"fleetops-sim/internal/logging"
	"fleetops-sim/internal/sim"
	"fleetops-sim/internal/store"
)

var (
	simPrintOnly  bool
	simTUI        bool
	simDebug      bool
	simConfigPath string
	simSchemaPath string
	simTick       time.Duration
	simLogFile    string
	simListen     string
)

// simStore is the full storage surface the simulate command needs: the
// engine's read/insert side plus the HTTP layer's CRUD side.
type simStore interface {
	sim.Store
	api.Store
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the real-time fleet simulator",
	Long:  "simulate starts the fleet position simulator with geofence alarms, live streams, and an HTTP API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		log := logging.New(simDebug)
		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), log))
		defer cancel()

		cfg, err := config.Load(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}

		tickInterval := simTick
		if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
			d, err := time.ParseDuration(envTick)
			if err != nil {
				return err
			}
			tickInterval = d
		}

		var st simStore
		if dsn := os.Getenv("DATABASE_URL"); dsn != "" && !simPrintOnly {
			pg, err := store.NewPostgres(ctx, dsn)
			if err != nil {
				return err
			}
			defer pg.Close()
			st = pg
			log.Info("using postgres store")
		} else {
			st = store.NewMemory(cfg.SeedGeofences())
			log.Info("using in-memory store", "geofences", len(cfg.Geofences))
		}

		history, alarmLog, cleanup, err := newWriters(simPrintOnly, simTUI, simLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		buffer := cfg.StreamBuffer
		if buffer <= 0 {
			buffer = broadcast.DefaultBuffer
		}
		assetBus := broadcast.New[fleet.SnapshotRow](buffer)
		alertBus := broadcast.New[alarm.Alarm](buffer)

		engine, err := sim.NewEngine(cfg, st, assetBus, alertBus, history, alarmLog, tickInterval)
		if err != nil {
			return err
		}

		srv := api.NewServer(engine, st, assetBus, alertBus)
		go func() {
			log.Info("http api listening", "addr", simListen)
			if err := srv.Start(ctx, simListen); err != nil {
				log.Error("http server failed", "err", err)
				cancel()
			}
		}()

		go engine.Run(ctx)

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigs:
		case <-ctx.Done():
		}

		cancel()
		log.Info("fleet simulation stopped")
		return nil
	},
}

func init() {
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print snapshots to STDOUT instead of writing to DB")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Render a live terminal dashboard instead of STDOUT output")
	simulateCmd.Flags().BoolVar(&simDebug, "debug", false, "Enable debug logging")
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
	simulateCmd.Flags().DurationVar(&simTick, "tick", time.Second, "Simulation tick interval (e.g. 500ms, 2s)")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export snapshot/alarm logs (JSONL)")
	simulateCmd.Flags().StringVar(&simListen, "listen", ":8080", "HTTP API listen address")
}
