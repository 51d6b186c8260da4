package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func newReconcileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile stored state with the fleet once and print the report",
		Long: "Restores port reservations from running workers, reports managed containers\n" +
			"that no running worker owns, marks deployments without workers as failed and\n" +
			"pushes the running address set to the router.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(ctx, cfg, slog.Default())
			if err != nil {
				return err
			}
			defer a.Close()

			stopJournal, err := a.startJournal(ctx)
			if err != nil {
				return err
			}
			defer stopJournal()

			report, err := a.orch.Reconcile(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
