package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/droverhq/drover/internal/blocker"
	"github.com/droverhq/drover/internal/timeparsing"
	"github.com/droverhq/drover/internal/ui"
)

var (
	escThreshold string
	escStateFile string
)

var escalationsCmd = &cobra.Command{
	Use:   "escalations",
	Short: "Escalate blocking relations that sat unresolved too long",
	Long: `Check the blocker state file for relations open longer than the
threshold and escalate them: label the blocked issues, comment, and notify.
The check is idempotent; already-escalated relations never come due again.
With --dry-run the due relations are listed without side effects.`,
	Example: `  drover escalations
  drover escalations --threshold 3d --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		policy := blocker.PolicyFromConfig(cfg)
		if escThreshold != "" {
			age, err := timeparsing.ParseCompactDuration(escThreshold)
			if err != nil {
				return err
			}
			policy.Age = age
		}

		rels, err := blocker.LoadFile(escStateFile)
		if err != nil {
			return err
		}
		due := blocker.CheckEscalations(time.Now(), rels, policy)
		if len(due) == 0 {
			fmt.Println(ui.RenderMuted("nothing to escalate"))
			return nil
		}
		if jsonOutput && dryRun {
			return printJSON(due)
		}
		for _, r := range due {
			fmt.Printf("%s %s blocked for %s: %s\n",
				ui.RenderWarn(ui.IconWarn), r.Blocked, r.Age(time.Now()).Round(time.Hour), r.Reason)
		}
		if dryRun {
			return nil
		}

		a, err := openAdapter()
		if err != nil {
			return err
		}
		tracker := blocker.NewTracker(a, newNotifier(), newReporter(), cfg)

		// Escalate through pointers into the loaded slice so the stamps land
		// in the saved state.
		dueIDs := make(map[string]bool, len(due))
		for _, r := range due {
			dueIDs[r.ID] = true
		}
		var targets []*blocker.Relation
		for i := range rels {
			if dueIDs[rels[i].ID] {
				targets = append(targets, &rels[i])
			}
		}
		escErr := tracker.Escalate(cmd.Context(), targets, policy)
		if err := blocker.SaveFile(escStateFile, rels); err != nil {
			return err
		}
		if escErr != nil {
			return escErr
		}
		fmt.Printf("%s escalated %d relation(s)\n", ui.RenderPass(ui.IconPass), len(targets))
		return nil
	},
}

func init() {
	escalationsCmd.Flags().StringVar(&escThreshold, "threshold", "", "Escalation age, e.g. 3d (default from config)")
	escalationsCmd.Flags().StringVar(&escStateFile, "state-file", defaultStateFile, "Blocker state file")
	rootCmd.AddCommand(escalationsCmd)
}
