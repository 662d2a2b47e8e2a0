package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/feederwatch/config"
	coredash "github.com/kilianp07/feederwatch/core/dashboard"
	coresnap "github.com/kilianp07/feederwatch/core/snapshot"
	_ "github.com/kilianp07/feederwatch/infra/snapshot"
)

var historyCustomer int

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Inspect recorded cycle snapshots",
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the most recent snapshot as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeStore, err := openQueries()
		if err != nil {
			return err
		}
		defer closeStore()
		snap, err := svc.LatestData(cmd.Context())
		if err != nil {
			return err
		}
		if snap == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "{}")
			return nil
		}
		return writeJSON(cmd.OutOrStdout(), snap)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the fault history of one customer as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyCustomer <= 0 {
			return fmt.Errorf("--customer is required")
		}
		svc, closeStore, err := openQueries()
		if err != nil {
			return err
		}
		defer closeStore()
		hist, err := svc.CustomerHistory(cmd.Context(), historyCustomer)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), hist)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyCustomer, "customer", 0, "customer id")
	snapshotsCmd.AddCommand(latestCmd, historyCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

func openQueries() (*coredash.Service, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	store, err := coresnap.NewStore(cfg.Snapshots)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot store: %w", err)
	}
	return coredash.NewService(store, nil, 0, nil), func() { _ = store.Close() }, nil
}
