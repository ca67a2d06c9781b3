package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/droverhq/drover/internal/blocker"
	"github.com/droverhq/drover/internal/types"
	"github.com/droverhq/drover/internal/ui"
)

var (
	ubResolution string
	ubStateFile  string
)

var unblockCmd = &cobra.Command{
	Use:   "unblock <relation-id | ref>",
	Short: "Resolve a blocking relation",
	Long: `Resolve a blocking relation by its ID, or by the blocked issue's ref
(which resolves every open relation on that issue). The relation is kept in
the state file as history.`,
	Example: `  drover unblock 7f3c21aa-... --resolution "vendor shipped the fix"
  drover unblock fake:12 --resolution "schema change landed"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rels, err := blocker.LoadFile(ubStateFile)
		if err != nil {
			return err
		}
		targets := matchRelations(rels, args[0])
		if len(targets) == 0 {
			return types.Validationf("no open relation matches %q", args[0])
		}
		if dryRun {
			for _, i := range targets {
				fmt.Printf("would resolve relation %s on %s\n", rels[i].ID, rels[i].Blocked)
			}
			return nil
		}

		a, err := openAdapter()
		if err != nil {
			return err
		}
		tracker := blocker.NewTracker(a, newNotifier(), newReporter(), cfg)
		return resolveAndSave(cmd.Context(), tracker, ubStateFile, rels, targets, ubResolution)
	},
}

// resolveAndSave resolves each matched relation and always writes the state
// file, even on failure: resolutions that already landed on the tracker must
// not be re-applied by a rerun.
func resolveAndSave(ctx context.Context, tracker *blocker.Tracker, path string, rels []blocker.Relation, targets []int, resolution string) error {
	var errs []error
	for _, i := range targets {
		if err := tracker.Unblock(ctx, &rels[i], resolution); err != nil {
			errs = append(errs, fmt.Errorf("relation %s: %w", rels[i].ID, err))
			continue
		}
		fmt.Printf("%s resolved relation %s on %s\n", ui.RenderPass(ui.IconPass), rels[i].ID, rels[i].Blocked)
	}
	if err := blocker.SaveFile(path, rels); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// matchRelations finds open relations by relation ID or blocked-issue ref.
func matchRelations(rels []blocker.Relation, key string) []int {
	var out []int
	for i := range rels {
		if rels[i].State() == blocker.StateResolved {
			continue
		}
		if rels[i].ID == key || rels[i].Blocked.String() == key {
			out = append(out, i)
		}
	}
	return out
}

func init() {
	unblockCmd.Flags().StringVar(&ubResolution, "resolution", "", "How the blocker was resolved (required)")
	unblockCmd.Flags().StringVar(&ubStateFile, "state-file", defaultStateFile, "Blocker state file")
	_ = unblockCmd.MarkFlagRequired("resolution")
	rootCmd.AddCommand(unblockCmd)
}
