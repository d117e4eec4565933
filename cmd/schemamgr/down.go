package main

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	downTarget string
	downDryRun bool
)

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back installed migrations down to (but not including) a target version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		mgr, cleanup, err := buildManager(ctx, cfg, downDryRun)
		if err != nil {
			return err
		}
		defer cleanup()
		return mgr.Rollback(ctx, downTarget)
	},
}

func init() {
	downCmd.Flags().StringVar(&downTarget, "to", "", "target version to roll back to (empty = roll back everything)")
	downCmd.Flags().BoolVar(&downDryRun, "dry-run", false, "compute and log the plan without executing it")
}
