package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/droverhq/drover/internal/split"
	"github.com/droverhq/drover/internal/types"
	"github.com/droverhq/drover/internal/ui"
)

var (
	splitAnalyzeOnly   bool
	splitStrategy      string
	splitNumSubtasks   int
	splitPreserveAll   bool
	splitParentPolicy  string
	splitCommitChanges bool
)

var splitCmd = &cobra.Command{
	Use:   "split <ref>",
	Short: "Analyze an issue's complexity and split it into sub-issues",
	Long: `Analyze an issue's complexity and split it into sub-issues.

With --analyze only the complexity report is printed. Otherwise a split
suggestion is shown for review; nothing is created until --commit.`,
	Example: `  drover split fake:100 --analyze
  drover split fake:100 --strategy acceptance-criteria --commit
  drover split fake:100 --strategy fixed-count --num-subtasks 3 --parent-policy close --commit`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := types.ParseRef(args[0])
		if err != nil {
			return err
		}
		a, err := openAdapter()
		if err != nil {
			return err
		}
		iss, err := a.GetIssue(cmd.Context(), ref)
		if err != nil {
			return err
		}

		rep := split.Analyze(iss)
		if splitAnalyzeOnly {
			if jsonOutput {
				return printJSON(rep)
			}
			printComplexity(rep)
			return nil
		}

		strategy, err := split.ParseStrategy(splitStrategy)
		if err != nil {
			return err
		}
		sug, err := split.SuggestSplit(iss, strategy, split.SuggestOptions{
			Count:       splitNumSubtasks,
			PreserveAll: splitPreserveAll,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			if err := printJSON(sug); err != nil {
				return err
			}
		} else {
			doc, err := sug.EncodeYAML()
			if err != nil {
				return err
			}
			fmt.Print(string(doc))
		}
		if !splitCommitChanges || dryRun {
			fmt.Println(ui.RenderMuted("suggestion only; rerun with --commit to create sub-issues"))
			return nil
		}
		if !confirm(fmt.Sprintf("Create %d sub-issue(s) under %s?", len(sug.Stubs), ref)) {
			fmt.Println(ui.RenderMuted("aborted"))
			return nil
		}

		policy, err := split.ParseParentPolicy(splitParentPolicy)
		if err != nil {
			return err
		}
		res, err := split.NewSplitter(a, newReporter()).Commit(cmd.Context(), sug,
			split.CommitOptions{ParentPolicy: policy})
		if res != nil && len(res.Created) > 0 {
			refs := make([]string, 0, len(res.Created))
			for _, r := range res.Created {
				refs = append(refs, r.String())
			}
			fmt.Printf("%s created %s\n", ui.RenderPass(ui.IconPass), strings.Join(refs, ", "))
		}
		return err
	},
}

func printComplexity(rep split.Report) {
	level := rep.Level
	styled := string(level)
	switch level {
	case split.LevelHigh:
		styled = ui.RenderFail(styled)
	case split.LevelMedium:
		styled = ui.RenderWarn(styled)
	default:
		styled = ui.RenderPass(styled)
	}
	fmt.Printf("%s  complexity: %s (score %d)\n", ui.RenderAccent(rep.Ref.String()), styled, rep.Score)
	for _, s := range rep.Signals {
		fmt.Printf("  %s\n", s)
	}
	if rep.SplitRecommended {
		fmt.Println(ui.RenderWarn("split recommended"))
	}
}

func init() {
	splitCmd.Flags().BoolVar(&splitAnalyzeOnly, "analyze", false, "Print the complexity report only")
	splitCmd.Flags().StringVar(&splitStrategy, "strategy", string(split.StrategyAcceptanceCriteria),
		"Split strategy: acceptance-criteria, component or fixed-count")
	splitCmd.Flags().IntVar(&splitNumSubtasks, "num-subtasks", 2, "Stub count for the fixed-count strategy")
	splitCmd.Flags().BoolVar(&splitPreserveAll, "preserve-labels", false,
		"Copy all parent labels to stubs (default: only project:/team:/area:)")
	splitCmd.Flags().StringVar(&splitParentPolicy, "parent-policy", string(split.ParentAnnotate),
		"What happens to the parent: annotate or close")
	splitCmd.Flags().BoolVar(&splitCommitChanges, "commit", false, "Create the suggested sub-issues")
	rootCmd.AddCommand(splitCmd)
}
