package mutate

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/droverhq/drover/internal/adapter"
	"github.com/droverhq/drover/internal/types"
)

// Change is one planned per-issue mutation: the diff against the snapshot
// plus the projected before/after state for review.
type Change struct {
	Ref    types.Ref
	Diff   adapter.IssueDiff
	Before types.Issue
	After  types.Issue
	// NoOp marks issues whose snapshot already matches the intent.
	NoOp bool
}

// Plan is an immutable, ordered set of per-issue changes built from one
// snapshot. Build it with BuildPlan; execute it with Engine.Execute.
type Plan struct {
	changes   Changes
	entries   []Change
	createdAt time.Time
}

// BuildPlan computes per-issue diffs for the intent against the snapshot.
// Issues whose snapshot already satisfies the intent stay in the plan as
// no-ops so the preview shows them. A status change that no issue in the
// snapshot can legally make fails the whole build.
func BuildPlan(issues []types.Issue, changes Changes) (*Plan, error) {
	if err := changes.Validate(); err != nil {
		return nil, err
	}
	entries := make([]Change, 0, len(issues))
	for i := range issues {
		iss := issues[i]
		diff, err := changes.DiffFor(&iss)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Change{
			Ref:    iss.Ref,
			Diff:   diff,
			Before: iss,
			After:  project(iss, diff),
			NoOp:   diff.Empty(),
		})
	}
	return &Plan{changes: changes, entries: entries, createdAt: time.Now()}, nil
}

// Size returns the number of issues in the plan, no-ops included.
func (p *Plan) Size() int { return len(p.entries) }

// ActiveSize returns the number of issues the plan would actually write to.
func (p *Plan) ActiveSize() int {
	n := 0
	for _, e := range p.entries {
		if !e.NoOp {
			n++
		}
	}
	return n
}

// Entries returns a copy of the planned changes in order.
func (p *Plan) Entries() []Change {
	return append([]Change(nil), p.entries...)
}

// Preview renders the plan as human-reviewable text.
func (p *Plan) Preview() string {
	var b strings.Builder
	fmt.Fprintf(&b, "plan: %d issue(s), %d to change (%s)\n",
		p.Size(), p.ActiveSize(), p.changes.Summary())
	for _, e := range p.entries {
		if e.NoOp {
			fmt.Fprintf(&b, "  %s  (already up to date)\n", e.Ref)
			continue
		}
		fmt.Fprintf(&b, "  %s\n", e.Ref)
		for _, line := range describeDiff(e) {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	return b.String()
}

func describeDiff(e Change) []string {
	var lines []string
	if len(e.Diff.AddLabels) > 0 || len(e.Diff.RemoveLabels) > 0 {
		var parts []string
		for _, l := range e.Diff.AddLabels {
			parts = append(parts, "+"+l)
		}
		for _, l := range e.Diff.RemoveLabels {
			parts = append(parts, "-"+l)
		}
		lines = append(lines, "labels: "+strings.Join(parts, " "))
	}
	if e.Diff.SetStatus != nil {
		lines = append(lines, fmt.Sprintf("status: %s -> %s", e.Before.Status, *e.Diff.SetStatus))
	}
	if e.Diff.SetPriority != nil {
		lines = append(lines, fmt.Sprintf("priority: %s -> %s", e.Before.Priority, *e.Diff.SetPriority))
	}
	if e.Diff.SetAssignee != nil {
		from := e.Before.Assignee
		if from == "" {
			from = "(none)"
		}
		to := *e.Diff.SetAssignee
		if to == "" {
			to = "(none)"
		}
		lines = append(lines, fmt.Sprintf("assignee: %s -> %s", from, to))
	}
	if e.Diff.SetEstimate != nil {
		lines = append(lines, fmt.Sprintf("estimate: -> %s", *e.Diff.SetEstimate))
	}
	return lines
}

type planDoc struct {
	CreatedAt time.Time      `yaml:"created_at"`
	Changes   Changes        `yaml:"changes"`
	Issues    []planEntryDoc `yaml:"issues"`
}

type planEntryDoc struct {
	Ref     string   `yaml:"ref"`
	Applies bool     `yaml:"applies"`
	Diff    []string `yaml:"diff,omitempty"`
}

// EncodeYAML serializes the plan as a reviewable YAML document.
func (p *Plan) EncodeYAML() ([]byte, error) {
	doc := planDoc{CreatedAt: p.createdAt, Changes: p.changes}
	for _, e := range p.entries {
		doc.Issues = append(doc.Issues, planEntryDoc{
			Ref:     e.Ref.String(),
			Applies: !e.NoOp,
			Diff:    describeDiff(e),
		})
	}
	return yaml.Marshal(doc)
}

// project applies a diff to a copy of the issue for before/after display.
func project(iss types.Issue, diff adapter.IssueDiff) types.Issue {
	out := iss
	out.Labels = append([]string(nil), iss.Labels...)
	for _, l := range diff.AddLabels {
		out.Labels = append(out.Labels, l)
	}
	if len(diff.RemoveLabels) > 0 {
		keep := out.Labels[:0]
		for _, l := range out.Labels {
			removed := false
			for _, r := range diff.RemoveLabels {
				if l == r {
					removed = true
					break
				}
			}
			if !removed {
				keep = append(keep, l)
			}
		}
		out.Labels = keep
	}
	if diff.SetStatus != nil {
		out.Status = *diff.SetStatus
	}
	if diff.SetPriority != nil {
		out.Priority = *diff.SetPriority
	}
	if diff.SetAssignee != nil {
		out.Assignee = *diff.SetAssignee
	}
	if diff.SetEstimate != nil {
		est := *diff.SetEstimate
		out.Estimate = &est
	}
	return out
}
