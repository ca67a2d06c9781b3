// Package mutate plans and executes bulk changes against issue trackers.
// A plan is built from a snapshot, previewed, and committed; commits re-read
// each issue before writing so re-running a plan never double-applies.
package mutate

import (
	"fmt"
	"strings"
	"time"

	"github.com/droverhq/drover/internal/adapter"
	"github.com/droverhq/drover/internal/types"
)

// Changes is the caller's intent for a batch: which fields to set and which
// labels to add or remove, applied uniformly to every selected issue.
// Comment and Notify are side effects recorded after a successful apply.
type Changes struct {
	AddLabels     []string        `json:"add_labels,omitempty" yaml:"add_labels,omitempty"`
	RemoveLabels  []string        `json:"remove_labels,omitempty" yaml:"remove_labels,omitempty"`
	SetStatus     *types.Status   `json:"set_status,omitempty" yaml:"set_status,omitempty"`
	SetPriority   *types.Priority `json:"set_priority,omitempty" yaml:"set_priority,omitempty"`
	SetAssignee   *string         `json:"set_assignee,omitempty" yaml:"set_assignee,omitempty"`
	ClearAssignee bool            `json:"clear_assignee,omitempty" yaml:"clear_assignee,omitempty"`
	SetEstimate   *time.Duration  `json:"set_estimate,omitempty" yaml:"set_estimate,omitempty"`
	Comment       string          `json:"comment,omitempty" yaml:"comment,omitempty"`
	Notify        []string        `json:"notify,omitempty" yaml:"notify,omitempty"`
}

// IsEmpty reports whether no mutating field is set. Comment and Notify alone
// do not make a change.
func (c Changes) IsEmpty() bool {
	return len(c.AddLabels) == 0 && len(c.RemoveLabels) == 0 &&
		c.SetStatus == nil && c.SetPriority == nil &&
		c.SetAssignee == nil && !c.ClearAssignee && c.SetEstimate == nil
}

// Validate rejects change sets that can never be applied.
func (c Changes) Validate() error {
	if c.IsEmpty() {
		return types.Validationf("no changes specified")
	}
	for _, l := range append(append([]string{}, c.AddLabels...), c.RemoveLabels...) {
		if strings.TrimSpace(l) == "" {
			return types.Validationf("label names cannot be empty")
		}
	}
	for _, add := range c.AddLabels {
		for _, rm := range c.RemoveLabels {
			if add == rm {
				return types.Validationf("label %q is both added and removed", add)
			}
		}
	}
	if c.SetStatus != nil && !c.SetStatus.IsValid() {
		return types.Validationf("invalid status: %s", *c.SetStatus)
	}
	if c.SetPriority != nil && !c.SetPriority.IsValid() {
		return types.Validationf("priority must be between 0 and 3 (got %d)", *c.SetPriority)
	}
	if c.SetAssignee != nil && c.ClearAssignee {
		return types.Validationf("cannot set and clear the assignee in the same change")
	}
	if c.SetEstimate != nil && *c.SetEstimate < 0 {
		return types.Validationf("estimate cannot be negative")
	}
	return nil
}

// DiffFor computes the minimal adapter diff that brings the issue in line
// with the intent. Fields already at their target value are left out, so an
// issue that needs nothing yields an empty diff.
func (c Changes) DiffFor(iss *types.Issue) (adapter.IssueDiff, error) {
	var diff adapter.IssueDiff

	for _, l := range c.AddLabels {
		if !iss.HasLabel(l) {
			diff.AddLabels = append(diff.AddLabels, l)
		}
	}
	for _, l := range c.RemoveLabels {
		if iss.HasLabel(l) {
			diff.RemoveLabels = append(diff.RemoveLabels, l)
		}
	}
	if c.SetStatus != nil && *c.SetStatus != iss.Status {
		if !types.CanTransition(iss.Status, *c.SetStatus) {
			return adapter.IssueDiff{}, types.Validationf(
				"%s: cannot transition from %s to %s", iss.Ref, iss.Status, *c.SetStatus)
		}
		diff.SetStatus = c.SetStatus
	}
	if c.SetPriority != nil && *c.SetPriority != iss.Priority {
		diff.SetPriority = c.SetPriority
	}
	if c.SetAssignee != nil && *c.SetAssignee != iss.Assignee {
		diff.SetAssignee = c.SetAssignee
	}
	if c.ClearAssignee && iss.Assignee != "" {
		empty := ""
		diff.SetAssignee = &empty
	}
	if c.SetEstimate != nil && (iss.Estimate == nil || *iss.Estimate != *c.SetEstimate) {
		diff.SetEstimate = c.SetEstimate
	}
	return diff, nil
}

// Summary renders the intent as a short one-line description, used in
// notifications and the preview header.
func (c Changes) Summary() string {
	var parts []string
	for _, l := range c.AddLabels {
		parts = append(parts, "+"+l)
	}
	for _, l := range c.RemoveLabels {
		parts = append(parts, "-"+l)
	}
	if c.SetStatus != nil {
		parts = append(parts, "status="+string(*c.SetStatus))
	}
	if c.SetPriority != nil {
		parts = append(parts, "priority="+c.SetPriority.String())
	}
	if c.SetAssignee != nil {
		parts = append(parts, "assignee="+*c.SetAssignee)
	}
	if c.ClearAssignee {
		parts = append(parts, "assignee=none")
	}
	if c.SetEstimate != nil {
		parts = append(parts, fmt.Sprintf("estimate=%s", *c.SetEstimate))
	}
	return strings.Join(parts, " ")
}
