package main

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	upTarget string
	upDryRun bool
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations up to a target version (omit for all)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		mgr, cleanup, err := buildManager(ctx, cfg, upDryRun)
		if err != nil {
			return err
		}
		defer cleanup()
		return mgr.Install(ctx, upTarget)
	},
}

func init() {
	upCmd.Flags().StringVar(&upTarget, "to", "", "target version to install up to (empty = all pending)")
	upCmd.Flags().BoolVar(&upDryRun, "dry-run", false, "compute and log the plan without executing it")
}
