package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"medley/internal/expr"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [policy]",
		Short: "Compile a policy document and report problems",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			pol, err := ctx.loadPolicy(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "policy %s: ok\n", pol.VersionLabel())

			rows := make([][]string, 0, len(pol.Rules))
			for _, rule := range pol.Rules {
				branches := "then"
				if len(rule.Else) > 0 {
					branches = "then/else"
				}
				rows = append(rows, []string{rule.Name, expr.Serialize(rule.When), branches})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable(
					[]string{"Rule", "Condition", "Branches"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
			}

			if len(pol.Synthesis) > 0 {
				targets := make([]string, 0, len(pol.Synthesis))
				for _, target := range pol.Synthesis {
					targets = append(targets, fmt.Sprintf("%s/%dch/%s", target.Codec, target.Channels, target.Language))
				}
				fmt.Fprintf(out, "synthesis targets: %s\n", strings.Join(targets, ", "))
			}

			names := make([]string, 0, len(pol.Phases))
			for _, spec := range pol.Phases {
				names = append(names, spec.Name)
			}
			if len(names) > 0 {
				fmt.Fprintf(out, "phases: %s\n", strings.Join(names, " -> "))
			}
			return nil
		},
	}
	return cmd
}
