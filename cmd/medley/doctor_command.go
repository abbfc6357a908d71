package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"medley/internal/deps"
	"medley/internal/notifications"
	"medley/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check tools, paths, and services the setup depends on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failures := 0

			toolRows := make([][]string, 0, 4)
			for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
				state := "ok"
				detail := status.Description
				if !status.Available {
					if status.Optional {
						state = "missing (optional)"
					} else {
						state = "missing"
						failures++
					}
					detail = status.Detail
				}
				toolRows = append(toolRows, []string{status.Name, status.Command, state, detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Tool", "Command", "State", "Detail"},
				toolRows,
				nil,
			))

			checkRows := make([][]string, 0, 8)
			for _, check := range preflight.RunAll(cmd.Context(), cfg) {
				state := "ok"
				if !check.Passed {
					state = "failed"
					failures++
				}
				checkRows = append(checkRows, []string{check.Name, state, check.Detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "State", "Detail"},
				checkRows,
				nil,
			))

			if failures > 0 {
				return fmt.Errorf("%d checks failed", failures)
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification to the configured ntfy topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Notifications.NtfyTopic == "" {
				return fmt.Errorf("no ntfy topic configured (set notifications.ntfy_topic)")
			}
			if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
