package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"medley/internal/audit"
	"medley/internal/executor"
	"medley/internal/logging"
	"medley/internal/snapshot"
	"medley/internal/worker"
)

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var policyFlag string
	var keepBackupFlag bool

	cmd := &cobra.Command{
		Use:   "apply <file>...",
		Short: "Apply the policy to files and record the audit trail",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			pol, err := ctx.loadPolicy(policyFlag)
			if err != nil {
				return err
			}

			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			store, err := audit.Open(cfg.Paths.AuditDBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			registry := executor.NewRegistry()
			if err := registry.RegisterExecutor(snapshot.Executor{}); err != nil {
				return err
			}

			pipeline := &worker.Pipeline{
				Policy:   pol,
				Analyzer: snapshot.Analyzer{},
				Registry: registry,
				Store:    store,
				Options: executor.Options{
					KeepBackup:   keepBackupFlag || cfg.Executor.KeepBackup,
					KeepOriginal: cfg.Executor.KeepOriginal,
				},
				Logger: logging.NewNop(),
			}

			out := cmd.OutOrStdout()
			var failures int
			for _, path := range args {
				if err := pipeline.Process(cmd.Context(), path); err != nil {
					failures++
					fmt.Fprintf(out, "%s: failed: %v\n", path, err)
					continue
				}
				fmt.Fprintf(out, "%s: done\n", path)
			}
			if failures > 0 {
				return fmt.Errorf("%d of %d files failed", failures, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&policyFlag, "policy", "", "Policy document path (defaults to the configured policy)")
	cmd.Flags().BoolVar(&keepBackupFlag, "keep-backup", false, "Keep the .bak copy after a successful mutation")
	return cmd
}
