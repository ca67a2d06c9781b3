package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/droverhq/drover/internal/mutate"
	"github.com/droverhq/drover/internal/timeparsing"
	"github.com/droverhq/drover/internal/types"
	"github.com/droverhq/drover/internal/ui"
)

var (
	staleThreshold string
	staleLabel     string
)

var staleCmd = &cobra.Command{
	Use:   "stale",
	Short: "List issues with no recent activity, optionally labeling them",
	Long: `List open issues with no recent activity.

With stale.treat_reopened_as_new enabled (the default), any update resets an
issue's clock, so reopened issues start fresh. Disabled, age is measured from
creation and reopening does not reset it. Pass --label to tag the stale set
through the usual preview-and-commit flow.`,
	Example: `  drover stale --threshold 90d
  drover stale --threshold 180d --label stale --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold := 90 * 24 * time.Hour
		if staleThreshold != "" {
			d, err := timeparsing.ParseCompactDuration(staleThreshold)
			if err != nil {
				return err
			}
			threshold = d
		}

		a, err := openAdapter()
		if err != nil {
			return err
		}
		all, err := a.FetchIssues(cmd.Context(), scopeFlag)
		if err != nil {
			return err
		}

		now := time.Now()
		var stale []types.Issue
		for _, iss := range all {
			if iss.Status.IsTerminal() {
				continue
			}
			since := iss.UpdatedAt
			if !cfg.TreatReopenedAsNew {
				since = iss.CreatedAt
			}
			if now.Sub(since) > threshold {
				stale = append(stale, iss)
			}
		}

		if len(stale) == 0 {
			if jsonOutput {
				return printJSON([]types.Issue{})
			}
			fmt.Println(ui.RenderMuted("no stale issues"))
			return nil
		}
		// JSON output carries exactly one document: the stale set when only
		// listing, the batch result when labeling.
		if jsonOutput && (staleLabel == "" || dryRun) {
			return printJSON(stale)
		}
		if !jsonOutput {
			for i := range stale {
				fmt.Println(ui.IssueLine(&stale[i]))
			}
			fmt.Println(ui.RenderMuted(fmt.Sprintf("%d stale issue(s)", len(stale))))
		}
		if staleLabel == "" || dryRun {
			return nil
		}

		plan, err := mutate.BuildPlan(stale, mutate.Changes{AddLabels: []string{staleLabel}})
		if err != nil {
			return err
		}
		if !confirm(fmt.Sprintf("Label %d issue(s) %q?", plan.ActiveSize(), staleLabel)) {
			fmt.Println(ui.RenderMuted("aborted"))
			return nil
		}
		engine := mutate.NewEngine(a, newNotifier(), newReporter(), cfg)
		batch, err := engine.Execute(cmd.Context(), plan, mutate.ModeCommit, mutate.Options{Previewed: true})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(batch)
		}
		printBatch(batch)
		return nil
	},
}

func init() {
	staleCmd.Flags().StringVar(&staleThreshold, "threshold", "", "Staleness age, e.g. 90d")
	staleCmd.Flags().StringVar(&staleLabel, "label", "", "Label to apply to the stale set")
	rootCmd.AddCommand(staleCmd)
}
