package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/droverhq/drover/internal/blocker"
	"github.com/droverhq/drover/internal/types"
	"github.com/droverhq/drover/internal/ui"
)

var cpStateFile string

var criticalPathCmd = &cobra.Command{
	Use:     "critical-path <ref>",
	Short:   "Show the longest unresolved blocking chain from an issue",
	Example: `  drover critical-path fake:12`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := types.ParseRef(args[0])
		if err != nil {
			return err
		}
		rels, err := blocker.LoadFile(cpStateFile)
		if err != nil {
			return err
		}
		path, err := blocker.CriticalPath(rels, target)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(path)
		}
		parts := make([]string, 0, len(path))
		for _, r := range path {
			parts = append(parts, r.String())
		}
		fmt.Println(ui.RenderAccent(strings.Join(parts, " -> ")))
		fmt.Println(ui.RenderMuted(fmt.Sprintf("%d issue(s) on the critical path", len(path))))
		return nil
	},
}

func init() {
	criticalPathCmd.Flags().StringVar(&cpStateFile, "state-file", defaultStateFile, "Blocker state file")
	rootCmd.AddCommand(criticalPathCmd)
}
