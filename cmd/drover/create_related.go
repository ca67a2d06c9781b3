package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/droverhq/drover/internal/adapter"
	"github.com/droverhq/drover/internal/types"
	"github.com/droverhq/drover/internal/ui"
)

var (
	crType          string
	crTitle         string
	crDescription   string
	crInheritLabels bool
)

var createRelatedCmd = &cobra.Command{
	Use:   "create-related <ref>",
	Short: "Create a new issue related to an existing one",
	Long: `Create a new issue related to an existing one.

Relationship types: follow-up (new work that builds on the existing issue),
prerequisite (the new issue must finish first), related (loose association)
and subtask (the new issue becomes a child of the existing one).`,
	Example: `  drover create-related fake:12 --type follow-up --title "Clean up feature flags"
  drover create-related fake:12 --type subtask --title "Write migration" --inherit-labels`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := types.ParseRef(args[0])
		if err != nil {
			return err
		}
		kind, err := relationKindOf(crType)
		if err != nil {
			return err
		}
		if dryRun {
			fmt.Printf("would create %q as %s of %s\n", crTitle, crType, base)
			return nil
		}

		a, err := openAdapter()
		if err != nil {
			return err
		}
		existing, err := a.GetIssue(cmd.Context(), base)
		if err != nil {
			return err
		}

		spec := adapter.IssueSpec{
			Title:       crTitle,
			Description: crDescription,
			Priority:    existing.Priority,
		}
		if crInheritLabels {
			spec.Labels = append([]string(nil), existing.Labels...)
		}
		if kind == adapter.RelParentChild {
			spec.Parent = &base
		}
		created, err := a.CreateIssue(cmd.Context(), spec)
		if err != nil {
			return err
		}

		rel := adapter.RelationSpec{From: base, To: created.Ref, Kind: kind}
		if kind == adapter.RelPrerequisite {
			// The new issue precedes the existing one.
			rel = adapter.RelationSpec{From: created.Ref, To: base, Kind: kind}
		}
		if err := a.CreateRelation(cmd.Context(), rel); err != nil {
			return err
		}
		note := fmt.Sprintf("Created %s %s: %s", crType, created.Ref, crTitle)
		if err := a.AddComment(cmd.Context(), base, note); err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(created)
		}
		fmt.Printf("%s created %s (%s of %s)\n", ui.RenderPass(ui.IconPass), created.Ref, crType, base)
		return nil
	},
}

func relationKindOf(name string) (adapter.RelationKind, error) {
	switch name {
	case "follow-up":
		return adapter.RelFollowUp, nil
	case "prerequisite":
		return adapter.RelPrerequisite, nil
	case "related":
		return adapter.RelRelatesTo, nil
	case "subtask":
		return adapter.RelParentChild, nil
	}
	return "", types.Validationf("unknown relationship type %q (expected follow-up, prerequisite, related or subtask)", name)
}

func init() {
	createRelatedCmd.Flags().StringVar(&crType, "type", "related",
		"Relationship type: follow-up, prerequisite, related or subtask")
	createRelatedCmd.Flags().StringVar(&crTitle, "title", "", "Title of the new issue (required)")
	createRelatedCmd.Flags().StringVar(&crDescription, "description", "", "Description of the new issue")
	createRelatedCmd.Flags().BoolVar(&crInheritLabels, "inherit-labels", false, "Copy the existing issue's labels")
	_ = createRelatedCmd.MarkFlagRequired("title")
	rootCmd.AddCommand(createRelatedCmd)
}
