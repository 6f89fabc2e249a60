package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fleetops-sim/internal/logging"
	"fleetops-sim/internal/sim"
)

var (
	replayInput    string
	replayInterval time.Duration
	replayTUI      bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded snapshot log",
	Long:  "replay feeds snapshot rows from a JSONL log back through a writer at tick cadence.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}

		log := logging.New(false)
		ctx := logging.NewContext(context.Background(), log)

		var w sim.SnapshotWriter
		if replayTUI {
			tw := sim.NewTUIWriter()
			defer tw.Close()
			w = tw
		} else {
			w = &sim.StdoutWriter{}
		}
		return sim.Replay(ctx, replayInput, w, replayInterval)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to snapshot log file")
	replayCmd.Flags().DurationVar(&replayInterval, "interval", time.Second, "Delay between replayed ticks")
	replayCmd.Flags().BoolVar(&replayTUI, "tui", false, "Render the replay in the terminal dashboard")
	replayCmd.MarkFlagRequired("input")
}
