package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"medley/internal/executor"
	"medley/internal/plan"
	"medley/internal/rules"
	"medley/internal/snapshot"
	"medley/internal/worker"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var policyFlag string
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "plan <file>...",
		Short: "Evaluate the policy and show the resulting plan without touching files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := newDryRunPipeline(ctx, policyFlag)
			if err != nil {
				return err
			}

			for _, path := range args {
				pl, ruleResult, err := pipeline.PlanFile(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if jsonFlag {
					if pl == nil {
						pl = &plan.Plan{Path: path}
					}
					if err := writeJSON(cmd, pl); err != nil {
						return err
					}
					continue
				}
				renderPlan(cmd, path, pl, ruleResult)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&policyFlag, "policy", "", "Policy document path (defaults to the configured policy)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the raw plan as JSON")
	return cmd
}

// newDryRunPipeline builds a pipeline without a store or executor, enough
// for evaluation and planning.
func newDryRunPipeline(ctx *commandContext, policyPath string) (*worker.Pipeline, error) {
	pol, err := ctx.loadPolicy(policyPath)
	if err != nil {
		return nil, err
	}
	return &worker.Pipeline{
		Policy:   pol,
		Analyzer: snapshot.Analyzer{},
		Registry: executor.NewRegistry(),
	}, nil
}

func renderPlan(cmd *cobra.Command, path string, pl *plan.Plan, ruleResult *rules.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", path)

	if ruleResult != nil && ruleResult.MatchedRule != "" {
		fmt.Fprintf(out, "  matched rule: %s (%s branch)\n", ruleResult.MatchedRule, ruleResult.MatchedBranch)
	}
	if pl == nil {
		fmt.Fprintln(out, "  skipped by rule")
		return
	}
	if pl.IsEmpty() {
		fmt.Fprintln(out, "  no changes required")
		return
	}

	if len(pl.Actions) > 0 {
		rows := make([][]string, 0, len(pl.Actions))
		for _, action := range pl.Actions {
			track := fmt.Sprintf("%d", action.TrackIndex)
			if action.TrackIndex < 0 {
				track = "container"
			}
			rows = append(rows, []string{string(action.Type), track, action.Field, action.Current, action.Desired})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Action", "Track", "Field", "Current", "Desired"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
		))
	}

	if removed := pl.RemovedTracks(); len(removed) > 0 {
		rows := make([][]string, 0, len(removed))
		for _, d := range removed {
			rows = append(rows, []string{
				fmt.Sprintf("%d", d.Track.Index),
				string(d.Track.Type),
				d.Track.Codec,
				d.Track.Language,
				d.Reason,
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Remove", "Type", "Codec", "Language", "Reason"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
		))
	}

	if len(pl.TrackOrder) > 0 {
		order := make([]string, len(pl.TrackOrder))
		for i, idx := range pl.TrackOrder {
			order[i] = fmt.Sprintf("%d", idx)
		}
		fmt.Fprintf(out, "  track order: %s\n", strings.Join(order, " "))
	}

	if pl.Container != nil {
		fmt.Fprintf(out, "  container: %s -> %s\n", pl.Container.Source, pl.Container.Target)
		for _, inc := range pl.Container.IncompatibleTracks {
			fmt.Fprintf(out, "    track %d %s: %s (%s)\n", inc.TrackIndex, inc.SourceCodec, inc.Action, inc.Reason)
		}
		for _, warning := range pl.Container.Warnings {
			fmt.Fprintf(out, "    warning: %s\n", warning)
		}
	}

	if pl.HasSynthesis() {
		for _, op := range pl.Audio.Synthesis {
			fmt.Fprintf(out, "  synthesize: %s %dch %s from track %d (encoder %s)\n",
				op.Target.Codec, op.Target.Channels, op.Target.Language, op.SourceIndex, op.Encoder)
		}
	}

	for _, warning := range pl.Warnings {
		fmt.Fprintf(out, "  warning: %s\n", warning)
	}
	if ruleResult != nil {
		for _, warning := range ruleResult.Warnings {
			fmt.Fprintf(out, "  warning: %s\n", warning)
		}
	}
}
