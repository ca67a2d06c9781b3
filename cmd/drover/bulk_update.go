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
	buAddLabels     []string
	buRemoveLabels  []string
	buStatus        string
	buPriority      string
	buAssignee      string
	buClearAssignee bool
	buEstimate      string
	buComment       string
	buNotify        []string
	buForce         bool
)

var bulkUpdateCmd = &cobra.Command{
	Use:   "bulk-update <filter>",
	Short: "Apply the same change to every issue matching a filter",
	Long: `Apply the same change to every issue matching a filter.

The plan is always previewed first. Without --yes the preview is followed by
a confirmation prompt; with --dry-run nothing is written. Plans larger than
the preview threshold refuse to commit blind (override with --force).`,
	Example: `  drover bulk-update 'label:needs-triage assignee:none' --add-label triaged --remove-label needs-triage
  drover bulk-update 'status:todo updated:>180d' --status closed --comment "Closing stale work" --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		changes, err := collectChanges()
		if err != nil {
			return err
		}

		a, err := openAdapter()
		if err != nil {
			return err
		}
		issues, err := selectIssues(cmd.Context(), a, args[0])
		if err != nil {
			return err
		}
		if len(issues) == 0 {
			fmt.Println(ui.RenderMuted("no issues match the filter"))
			return nil
		}

		plan, err := mutate.BuildPlan(issues, changes)
		if err != nil {
			return err
		}
		engine := mutate.NewEngine(a, newNotifier(), newReporter(), cfg)

		if _, err := engine.Execute(cmd.Context(), plan, mutate.ModePreview, mutate.Options{}); err != nil {
			return err
		}
		if jsonOutput {
			doc, err := plan.EncodeYAML()
			if err != nil {
				return err
			}
			fmt.Print(string(doc))
		} else {
			fmt.Print(plan.Preview())
		}
		if dryRun {
			return nil
		}
		if plan.ActiveSize() == 0 {
			fmt.Println(ui.RenderMuted("nothing to do"))
			return nil
		}
		if !confirm(fmt.Sprintf("Apply to %d issue(s)?", plan.ActiveSize())) {
			fmt.Println(ui.RenderMuted("aborted"))
			return nil
		}

		batch, err := engine.Execute(cmd.Context(), plan, mutate.ModeCommit,
			mutate.Options{Previewed: true, Force: buForce})
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

func collectChanges() (mutate.Changes, error) {
	changes := mutate.Changes{
		AddLabels:     buAddLabels,
		RemoveLabels:  buRemoveLabels,
		ClearAssignee: buClearAssignee,
		Comment:       buComment,
		Notify:        buNotify,
	}
	if buStatus != "" {
		s := types.Status(buStatus)
		if !s.IsValid() {
			return changes, types.Validationf("invalid status %q", buStatus)
		}
		changes.SetStatus = &s
	}
	if buPriority != "" {
		p, err := types.ParsePriority(buPriority)
		if err != nil {
			return changes, err
		}
		changes.SetPriority = &p
	}
	if buAssignee != "" {
		changes.SetAssignee = &buAssignee
	}
	if buEstimate != "" {
		d, err := parseEstimate(buEstimate)
		if err != nil {
			return changes, err
		}
		changes.SetEstimate = &d
	}
	return changes, nil
}

// parseEstimate accepts compact durations (8h, 3d, 1w) or Go durations.
func parseEstimate(s string) (time.Duration, error) {
	if timeparsing.IsCompactDuration(s) {
		return timeparsing.ParseCompactDuration(s)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, types.Validationf("invalid estimate %q (expected e.g. 8h, 3d, 1w)", s)
	}
	return d, nil
}

func printBatch(batch *mutate.BatchResult) {
	for _, r := range batch.Results {
		switch r.Outcome {
		case mutate.OutcomeSucceeded:
			fmt.Printf("%s %s\n", ui.RenderPass(ui.IconPass), r.Ref)
		case mutate.OutcomeFailed:
			fmt.Printf("%s %s: %s\n", ui.RenderFail(ui.IconFail), r.Ref, r.Reason)
		default:
			fmt.Printf("%s %s: %s\n", ui.RenderMuted(ui.IconSkip), r.Ref, r.Reason)
		}
	}
	fmt.Println(ui.RenderMuted(fmt.Sprintf("%d succeeded, %d failed, %d skipped",
		batch.Succeeded(), batch.Failed(), batch.Skipped())))
}

func init() {
	bulkUpdateCmd.Flags().StringSliceVar(&buAddLabels, "add-label", nil, "Label to add (repeatable)")
	bulkUpdateCmd.Flags().StringSliceVar(&buRemoveLabels, "remove-label", nil, "Label to remove (repeatable)")
	bulkUpdateCmd.Flags().StringVar(&buStatus, "status", "", "Target status (todo, in_progress, blocked, done, closed)")
	bulkUpdateCmd.Flags().StringVar(&buPriority, "priority", "", "Target priority (p0..p3)")
	bulkUpdateCmd.Flags().StringVar(&buAssignee, "assignee", "", "Assignee to set")
	bulkUpdateCmd.Flags().BoolVar(&buClearAssignee, "clear-assignee", false, "Clear the assignee")
	bulkUpdateCmd.Flags().StringVar(&buEstimate, "estimate", "", "Estimate to set (e.g. 8h, 3d)")
	bulkUpdateCmd.Flags().StringVar(&buComment, "comment", "", "Audit comment added after a successful update")
	bulkUpdateCmd.Flags().StringSliceVar(&buNotify, "notify", nil, "Recipient to notify per updated issue (repeatable)")
	bulkUpdateCmd.Flags().BoolVar(&buForce, "force", false, "Commit a large plan without a reviewed preview")
	rootCmd.AddCommand(bulkUpdateCmd)
}
