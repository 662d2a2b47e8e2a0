package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/feederwatch/app"
	"github.com/kilianp07/feederwatch/config"
)

var (
	cycleCount  int
	cycleDryRun bool
)

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run monitoring cycles back to back and print a summary of each",
	RunE:  runCycles,
}

func init() {
	cycleCmd.Flags().IntVarP(&cycleCount, "count", "n", 1, "number of cycles to run")
	cycleCmd.Flags().BoolVar(&cycleDryRun, "dry-run", false, "keep snapshots in memory and skip the fault log and MQTT")
	rootCmd.AddCommand(cycleCmd)
}

func runCycles(cmd *cobra.Command, args []string) error {
	if cycleCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg, app.Options{DryRun: cycleDryRun})
	if err != nil {
		return err
	}
	defer closeService(svc)

	snaps, err := svc.RunCycles(ctx, cycleCount)
	out := cmd.OutOrStdout()
	for _, s := range snaps {
		fmt.Fprintf(out, "cycle %d: %d faults, assigned by %s", s.CycleNumber, s.TotalFaults, s.AssignmentSource)
		if s.DroppedRecommendations > 0 {
			fmt.Fprintf(out, " (%d recommendations dropped)", s.DroppedRecommendations)
		}
		fmt.Fprintln(out)
		for eng, n := range s.Summary.Engineers {
			fmt.Fprintf(out, "  %s: %d\n", eng, n)
		}
	}
	return err
}
