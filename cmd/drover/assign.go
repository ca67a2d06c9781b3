package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/droverhq/drover/internal/mutate"
	"github.com/droverhq/drover/internal/ui"
)

var (
	assignTo     string
	reassignFrom string
	reassignTo   string
)

var assignCmd = &cobra.Command{
	Use:     "assign <filter>",
	Short:   "Assign every issue matching a filter",
	Example: `  drover assign 'label:backend assignee:none priority:<=1' --to alice`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssignment(cmd, args[0], assignTo, nil)
	},
}

var reassignCmd = &cobra.Command{
	Use:   "reassign <filter>",
	Short: "Move issues from one assignee to another",
	Long: `Move issues from one assignee to another. The filter is narrowed to the
current assignee, and the new assignee is notified per issue.`,
	Example: `  drover reassign 'status:in_progress' --from bob --to alice`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filterText := fmt.Sprintf("%s assignee:%s", args[0], reassignFrom)
		return runAssignment(cmd, filterText, reassignTo, []string{reassignTo})
	},
}

func runAssignment(cmd *cobra.Command, filterText, to string, notifyList []string) error {
	a, err := openAdapter()
	if err != nil {
		return err
	}
	issues, err := selectIssues(cmd.Context(), a, filterText)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		fmt.Println(ui.RenderMuted("no issues match the filter"))
		return nil
	}

	changes := mutate.Changes{SetAssignee: &to, Notify: notifyList}
	plan, err := mutate.BuildPlan(issues, changes)
	if err != nil {
		return err
	}
	engine := mutate.NewEngine(a, newNotifier(), newReporter(), cfg)

	if dryRun {
		fmt.Print(plan.Preview())
		_, err := engine.Execute(cmd.Context(), plan, mutate.ModePreview, mutate.Options{})
		return err
	}
	if !confirm(fmt.Sprintf("Assign %d issue(s) to %s?", plan.ActiveSize(), to)) {
		fmt.Println(ui.RenderMuted("aborted"))
		return nil
	}
	batch, err := engine.Execute(cmd.Context(), plan, mutate.ModeCommit, mutate.Options{Previewed: true})
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(batch)
	}
	printBatch(batch)
	return nil
}

func init() {
	assignCmd.Flags().StringVar(&assignTo, "to", "", "Assignee to set (required)")
	_ = assignCmd.MarkFlagRequired("to")

	reassignCmd.Flags().StringVar(&reassignFrom, "from", "", "Current assignee (required)")
	reassignCmd.Flags().StringVar(&reassignTo, "to", "", "New assignee (required)")
	_ = reassignCmd.MarkFlagRequired("from")
	_ = reassignCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(assignCmd, reassignCmd)
}
