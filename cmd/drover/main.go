package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/droverhq/drover/internal/adapter"
	_ "github.com/droverhq/drover/internal/adapter/adaptertest" // registers the fake platform
	"github.com/droverhq/drover/internal/config"
	"github.com/droverhq/drover/internal/filter"
	"github.com/droverhq/drover/internal/notify"
	"github.com/droverhq/drover/internal/report"
	"github.com/droverhq/drover/internal/types"
)

var (
	jsonOutput   bool
	platformName string
	scopeFlag    string
	dryRun       bool
	assumeYes    bool
	verboseFlag  bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:           "drover",
	Short:         "Bulk lifecycle operations for issue trackers",
	Long:          "drover runs filtered bulk operations against external issue trackers:\nupdates, splits, blocker tracking, and duplicate merges, with mandatory\npreviews for anything large.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if verboseFlag {
			log.SetLevel(log.DebugLevel)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&platformName, "platform", "fake", "Tracker platform adapter")
	rootCmd.PersistentFlags().StringVar(&scopeFlag, "scope", "", "Platform scope (project, team or repository)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Preview without writing to the tracker")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Skip confirmation prompts")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openAdapter() (adapter.Adapter, error) {
	return adapter.Open(platformName, map[string]string{"scope": scopeFlag})
}

func newReporter() report.Sink {
	return report.NewLogSink(nil)
}

func newNotifier() notify.Notifier {
	return notify.NewDispatcher(nil)
}

// selectIssues fetches the adapter's scope and applies the filter expression.
func selectIssues(ctx context.Context, a adapter.Adapter, filterText string) ([]types.Issue, error) {
	expr, err := filter.Parse(filterText)
	if err != nil {
		return nil, err
	}
	issues, err := a.FetchIssues(ctx, scopeFlag)
	if err != nil {
		return nil, fmt.Errorf("fetching issues: %w", err)
	}
	return filter.Select(expr, issues, time.Now()), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// confirm asks on stdin unless --yes was given.
func confirm(prompt string) bool {
	if assumeYes {
		return true
	}
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
