package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/droverhq/drover/internal/blocker"
	"github.com/droverhq/drover/internal/types"
	"github.com/droverhq/drover/internal/ui"
)

// defaultStateFile holds blocking relations between runs. Relations live in
// the workspace, not in a database: the tracker itself stays the source of
// truth for issue state.
const defaultStateFile = ".drover-blockers.yaml"

var (
	rbBlocking  string
	rbReason    string
	rbCategory  string
	rbImpact    string
	rbNotify    []string
	rbStateFile string
)

var reportBlockerCmd = &cobra.Command{
	Use:   "report-blocker <ref>",
	Short: "Record that an issue is blocked",
	Example: `  drover report-blocker fake:12 --reason "waiting on vendor fix" --category external --impact high
  drover report-blocker fake:12 --blocking fake:7 --reason "needs schema change" --category dependency --impact medium --notify team-lead`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		blocked, err := types.ParseRef(args[0])
		if err != nil {
			return err
		}
		params := blocker.ReportParams{
			Blocked:  blocked,
			Reason:   rbReason,
			Category: blocker.Category(rbCategory),
			Impact:   blocker.Impact(rbImpact),
			Notify:   rbNotify,
		}
		if rbBlocking != "" {
			b, err := types.ParseRef(rbBlocking)
			if err != nil {
				return err
			}
			params.Blocking = &b
		}
		if dryRun {
			fmt.Printf("would mark %s blocked (%s, %s impact): %s\n",
				blocked, rbCategory, rbImpact, rbReason)
			return nil
		}

		a, err := openAdapter()
		if err != nil {
			return err
		}
		tracker := blocker.NewTracker(a, newNotifier(), newReporter(), cfg)
		rel, err := tracker.Report(cmd.Context(), params)
		if err != nil {
			return err
		}

		rels, err := blocker.LoadFile(rbStateFile)
		if err != nil {
			return err
		}
		rels = append(rels, *rel)
		if err := blocker.SaveFile(rbStateFile, rels); err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(rel)
		}
		fmt.Printf("%s %s blocked, relation %s\n", ui.RenderPass(ui.IconPass), blocked, rel.ID)
		return nil
	},
}

func init() {
	reportBlockerCmd.Flags().StringVar(&rbBlocking, "blocking", "", "Ref of the issue doing the blocking")
	reportBlockerCmd.Flags().StringVar(&rbReason, "reason", "", "Why the issue is blocked (required)")
	reportBlockerCmd.Flags().StringVar(&rbCategory, "category", string(blocker.CategoryInternal),
		"Blocker category: external, internal or dependency")
	reportBlockerCmd.Flags().StringVar(&rbImpact, "impact", string(blocker.ImpactMedium),
		"Blocker impact: low, medium or high")
	reportBlockerCmd.Flags().StringSliceVar(&rbNotify, "notify", nil, "Recipient to notify (repeatable)")
	reportBlockerCmd.Flags().StringVar(&rbStateFile, "state-file", defaultStateFile, "Blocker state file")
	_ = reportBlockerCmd.MarkFlagRequired("reason")
	rootCmd.AddCommand(reportBlockerCmd)
}
