package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"medley/internal/audit"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the recorded plan and operation history",
	}
	cmd.AddCommand(newAuditListCommand(ctx))
	cmd.AddCommand(newAuditShowCommand(ctx))
	return cmd
}

func newAuditListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent plans and operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openAuditStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			plans, err := store.RecentPlans(cmd.Context(), limit)
			if err != nil {
				return err
			}
			operations, err := store.RecentOperations(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(plans) == 0 && len(operations) == 0 {
				fmt.Fprintln(out, "audit log is empty")
				return nil
			}
			if len(plans) > 0 {
				fmt.Fprintln(out, renderPlanRecords(plans))
			}
			if len(operations) > 0 {
				fmt.Fprintln(out, renderOperations(operations))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of rows per table")
	return cmd
}

func newAuditShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Show the audit history for one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openAuditStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			path := args[0]
			plans, err := store.PlansForFile(cmd.Context(), path)
			if err != nil {
				return err
			}
			operations, err := store.OperationsForFile(cmd.Context(), path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(plans) == 0 && len(operations) == 0 {
				fmt.Fprintf(out, "no audit history for %s\n", path)
				return nil
			}
			if len(plans) > 0 {
				fmt.Fprintln(out, renderPlanRecords(plans))
			}
			if len(operations) > 0 {
				fmt.Fprintln(out, renderOperations(operations))
			}
			return nil
		},
	}
}

func openAuditStore(ctx *commandContext) (*audit.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return audit.Open(cfg.Paths.AuditDBPath)
}

func renderPlanRecords(plans []audit.PlanRecord) string {
	rows := make([][]string, 0, len(plans))
	for _, record := range plans {
		actions := ""
		if decoded, err := record.DecodePlan(); err == nil {
			actions = strconv.Itoa(len(decoded.Actions))
		}
		rows = append(rows, []string{
			shortID(record.ID),
			record.FilePath,
			record.PolicyVersion,
			string(record.Status),
			actions,
			formatAuditTime(record.UpdatedAt),
		})
	}
	return renderTable(
		[]string{"Plan", "File", "Policy", "Status", "Actions", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func renderOperations(operations []audit.Operation) string {
	rows := make([][]string, 0, len(operations))
	for _, op := range operations {
		rows = append(rows, []string{
			shortID(op.ID),
			op.FilePath,
			op.Phase,
			op.Action,
			string(op.Status),
			op.Error,
			formatAuditTime(op.UpdatedAt),
		})
	}
	return renderTable(
		[]string{"Operation", "File", "Phase", "Action", "Status", "Error", "Updated"},
		rows,
		nil,
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatAuditTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
