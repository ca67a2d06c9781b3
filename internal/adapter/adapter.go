// Package adapter defines the boundary between the core engines and external
// issue trackers. Each platform (GitHub, Linear, Jira-style systems) provides
// an implementation that normalizes its native status and priority
// vocabularies into the core's enumerations; the core never sees a wire
// protocol or a platform-specific field name.
package adapter

import (
	"context"
	"time"

	"github.com/droverhq/drover/internal/types"
)

// Adapter is the capability set every tracker integration must implement.
// All mutating calls are expected to be safe to retry: drover targets
// at-least-once delivery with idempotent writes, not exactly-once.
type Adapter interface {
	// Name returns the lowercase platform identifier (e.g. "github", "linear").
	Name() string

	// FetchIssues retrieves the issues in the given scope (project, team,
	// repository — the scope string is adapter-specific).
	FetchIssues(ctx context.Context, scope string) ([]types.Issue, error)

	// GetIssue retrieves a single issue by ref.
	GetIssue(ctx context.Context, ref types.Ref) (*types.Issue, error)

	// ApplyChange applies a field diff to an issue.
	ApplyChange(ctx context.Context, ref types.Ref, diff IssueDiff) error

	// CreateIssue creates a new issue and returns it with its ref populated.
	CreateIssue(ctx context.Context, spec IssueSpec) (*types.Issue, error)

	// CreateRelation records a relationship between two issues.
	CreateRelation(ctx context.Context, rel RelationSpec) error

	// AddComment appends a comment to an issue.
	AddComment(ctx context.Context, ref types.Ref, text string) error
}

// IssueDiff is the set of field changes applied to one issue. Nil pointer
// fields are left untouched. Labels are expressed as add/remove sets so
// concurrent label edits on the tracker side don't get clobbered by a
// full-list overwrite.
type IssueDiff struct {
	SetStatus     *types.Status     `json:"set_status,omitempty" yaml:"set_status,omitempty"`
	SetPriority   *types.Priority   `json:"set_priority,omitempty" yaml:"set_priority,omitempty"`
	SetAssignee   *string           `json:"set_assignee,omitempty" yaml:"set_assignee,omitempty"` // empty string clears
	AddLabels     []string          `json:"add_labels,omitempty" yaml:"add_labels,omitempty"`
	RemoveLabels  []string          `json:"remove_labels,omitempty" yaml:"remove_labels,omitempty"`
	SetEstimate   *time.Duration    `json:"set_estimate,omitempty" yaml:"set_estimate,omitempty"`
	SetParent     *types.Ref        `json:"set_parent,omitempty" yaml:"set_parent,omitempty"`
	CustomFields  map[string]string `json:"custom_fields,omitempty" yaml:"custom_fields,omitempty"`
}

// Empty reports whether the diff would change nothing.
func (d IssueDiff) Empty() bool {
	return d.SetStatus == nil &&
		d.SetPriority == nil &&
		d.SetAssignee == nil &&
		len(d.AddLabels) == 0 &&
		len(d.RemoveLabels) == 0 &&
		d.SetEstimate == nil &&
		d.SetParent == nil &&
		len(d.CustomFields) == 0
}

// IssueSpec describes a new issue to create.
type IssueSpec struct {
	Title       string
	Description string
	Priority    types.Priority
	Labels      []string
	Assignee    string
	Parent      *types.Ref
	Estimate    *time.Duration
}

// RelationKind names a relationship between two issues.
type RelationKind string

// Relation kinds
const (
	RelBlocks       RelationKind = "blocks"
	RelParentChild  RelationKind = "parent-child"
	RelDuplicates   RelationKind = "duplicates"
	RelRelatesTo    RelationKind = "relates-to"
	RelFollowUp     RelationKind = "follow-up"
	RelPrerequisite RelationKind = "prerequisite"
)

// IsValid checks if the relation kind is one of the known set.
func (k RelationKind) IsValid() bool {
	switch k {
	case RelBlocks, RelParentChild, RelDuplicates, RelRelatesTo, RelFollowUp, RelPrerequisite:
		return true
	}
	return false
}

// RelationSpec is a directed edge from one issue to another.
type RelationSpec struct {
	From types.Ref
	To   types.Ref
	Kind RelationKind
}
