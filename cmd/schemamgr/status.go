package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current version and pending versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		mgr, cleanup, err := buildManager(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer cleanup()

		current, pending, err := mgr.Status(ctx)
		if err != nil {
			return err
		}
		if current == "" {
			fmt.Println("current version: (none)")
		} else {
			fmt.Println("current version:", current)
		}
		if len(pending) == 0 {
			fmt.Println("pending versions: (none)")
			return nil
		}
		fmt.Println("pending versions:")
		for _, v := range pending {
			fmt.Println("  -", v)
		}
		return nil
	},
}
