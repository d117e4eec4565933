package main

import (
	"context"

	"github.com/spf13/cobra"
)

var validateTarget string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the source tree and log the install plan without executing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		mgr, cleanup, err := buildManager(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer cleanup()
		return mgr.Install(ctx, validateTarget)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateTarget, "to", "", "target version to validate up to (empty = all pending)")
}
