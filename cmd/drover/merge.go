package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/droverhq/drover/internal/merge"
	"github.com/droverhq/drover/internal/types"
	"github.com/droverhq/drover/internal/ui"
)

var (
	mergeKeep             string
	mergePreserveComments bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge <ref> <ref> [ref...]",
	Short: "Merge duplicate issues into one keeper",
	Long: `Merge duplicate issues into one keeper. Every other issue is closed with
a duplicate label and a pointer to the keeper; comments are copied onto the
keeper in chronological order and each loser's reporter is notified.`,
	Example: `  drover merge fake:A fake:B fake:C --keep fake:B`,
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, err := types.ParseRef(mergeKeep)
		if err != nil {
			return err
		}
		refs := make([]types.Ref, 0, len(args))
		for _, arg := range args {
			r, err := types.ParseRef(arg)
			if err != nil {
				return err
			}
			refs = append(refs, r)
		}
		if dryRun {
			for _, r := range refs {
				if r != keep {
					fmt.Printf("would close %s as a duplicate of %s\n", r, keep)
				}
			}
			return nil
		}
		if !confirm(fmt.Sprintf("Close %d issue(s) as duplicates of %s?", len(refs)-1, keep)) {
			fmt.Println(ui.RenderMuted("aborted"))
			return nil
		}

		a, err := openAdapter()
		if err != nil {
			return err
		}
		res, err := merge.NewMerger(a, newNotifier(), newReporter()).Merge(cmd.Context(), refs, keep,
			merge.Options{PreserveComments: mergePreserveComments})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(res)
		}
		for _, o := range res.Outcomes {
			switch {
			case o.Error != "":
				fmt.Printf("%s %s: %s\n", ui.RenderFail(ui.IconFail), o.Ref, o.Error)
			case o.AlreadyMerged:
				fmt.Printf("%s %s already merged\n", ui.RenderMuted(ui.IconSkip), o.Ref)
			default:
				fmt.Printf("%s %s closed as duplicate\n", ui.RenderPass(ui.IconPass), o.Ref)
			}
		}
		fmt.Println(ui.RenderMuted(fmt.Sprintf("%d merged, %d failed", res.Merged(), res.Failed())))
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeKeep, "keep", "", "Ref of the issue to keep (required)")
	mergeCmd.Flags().BoolVar(&mergePreserveComments, "preserve-comments", true, "Copy loser comments to the keeper")
	_ = mergeCmd.MarkFlagRequired("keep")
	rootCmd.AddCommand(mergeCmd)
}
