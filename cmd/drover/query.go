package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/droverhq/drover/internal/types"
	"github.com/droverhq/drover/internal/ui"
)

var (
	querySort  string
	queryLimit int
)

var queryCmd = &cobra.Command{
	Use:   "query [filter]",
	Short: "List issues matching a filter expression",
	Long: `List issues matching a filter expression.

Filter terms are joined with AND: field:value, field:v1,v2 (OR within a
field), text:"substring", comparisons like updated:<30d or priority:<=1,
-term negation, and assignee:none empty checks.`,
	Example: `  drover query 'label:needs-triage assignee:none'
  drover query 'status:todo updated:>90d' --sort priority:asc --limit 20`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filterText := ""
		if len(args) == 1 {
			filterText = args[0]
		}
		sortSpec := querySort
		if sortSpec == "" {
			sortSpec = cfg.QuerySort
		}
		keys, err := types.ParseSortKeys(sortSpec)
		if err != nil {
			return err
		}
		limit := queryLimit
		if limit <= 0 {
			limit = cfg.QueryLimit
		}

		a, err := openAdapter()
		if err != nil {
			return err
		}
		issues, err := selectIssues(cmd.Context(), a, filterText)
		if err != nil {
			return err
		}
		types.SortIssues(issues, keys)
		truncated := false
		if len(issues) > limit {
			issues = issues[:limit]
			truncated = true
		}

		if jsonOutput {
			return printJSON(issues)
		}
		for i := range issues {
			fmt.Println(ui.IssueLine(&issues[i]))
		}
		summary := fmt.Sprintf("%d issue(s)", len(issues))
		if truncated {
			summary += fmt.Sprintf(" (limited to %d)", limit)
		}
		fmt.Println(ui.RenderMuted(summary))
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&querySort, "sort", "", "Sort keys, e.g. priority:asc,updated:desc")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "Maximum results (default from config)")
	rootCmd.AddCommand(queryCmd)
}
