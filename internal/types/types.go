// Package types defines core data structures for the drover bulk-operations engine.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Ref is a platform-qualified issue identifier, e.g. "github:acme/api#412"
// or "linear:ENG-1042". The platform prefix routes the ref to the right adapter;
// the ID part is opaque to the core.
type Ref struct {
	Platform string `json:"platform"`
	ID       string `json:"id"`
}

// ParseRef parses a "platform:id" string into a Ref.
func ParseRef(s string) (Ref, error) {
	idx := strings.Index(s, ":")
	if idx <= 0 || idx == len(s)-1 {
		return Ref{}, Validationf("invalid issue ref %q: expected <platform>:<id>", s)
	}
	return Ref{Platform: s[:idx], ID: s[idx+1:]}, nil
}

// String returns the canonical "platform:id" form.
func (r Ref) String() string {
	return r.Platform + ":" + r.ID
}

// IsZero reports whether the ref is unset.
func (r Ref) IsZero() bool {
	return r.Platform == "" && r.ID == ""
}

// Issue represents a normalized work item fetched from an external tracker.
// Adapters translate their native vocabularies into this shape; the core never
// sees platform-specific statuses or priority scales.
type Issue struct {
	Ref          Ref               `json:"ref"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	Status       Status            `json:"status"`
	Priority     Priority          `json:"priority"`
	Labels       []string          `json:"labels,omitempty"`
	Assignee     string            `json:"assignee,omitempty"`
	Reporter     string            `json:"reporter,omitempty"`
	Parent       *Ref              `json:"parent,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Estimate     *time.Duration    `json:"estimate,omitempty"`
	Comments     []Comment         `json:"comments,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"` // platform passthrough
}

// HasLabel reports whether the issue carries the given label.
func (i *Issue) HasLabel(label string) bool {
	for _, l := range i.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Validate checks that the issue has usable field values.
func (i *Issue) Validate() error {
	if i.Ref.IsZero() {
		return Validationf("issue ref is required")
	}
	if len(i.Title) == 0 {
		return Validationf("title is required")
	}
	if len(i.Title) > 500 {
		return Validationf("title must be 500 characters or less (got %d)", len(i.Title))
	}
	if !i.Status.IsValid() {
		return Validationf("invalid status: %s", i.Status)
	}
	if !i.Priority.IsValid() {
		return Validationf("priority must be between 0 and 3 (got %d)", i.Priority)
	}
	if i.Estimate != nil && *i.Estimate < 0 {
		return Validationf("estimate cannot be negative")
	}
	if i.Parent != nil && *i.Parent == i.Ref {
		return Validationf("issue %s cannot be its own parent", i.Ref)
	}
	return nil
}

// Status represents the normalized state of an issue.
type Status string

// Normalized status constants. Adapters map native vocabularies onto these.
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDone       Status = "done"
	StatusClosed     Status = "closed"
)

// IsValid checks if the status value is one of the normalized set.
func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusBlocked, StatusDone, StatusClosed:
		return true
	}
	return false
}

// IsTerminal reports whether the status ends the issue's lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusClosed
}

// validTransitions encodes which status changes the trackers accept.
// Reopening terminal issues lands back in todo.
var validTransitions = map[Status][]Status{
	StatusTodo:       {StatusInProgress, StatusBlocked, StatusClosed},
	StatusInProgress: {StatusTodo, StatusBlocked, StatusDone, StatusClosed},
	StatusBlocked:    {StatusTodo, StatusInProgress, StatusClosed},
	StatusDone:       {StatusTodo, StatusClosed},
	StatusClosed:     {StatusTodo},
}

// CanTransition reports whether moving from one status to another is allowed.
// Same-status transitions are always allowed (no-op writes are skipped upstream).
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Priority is an ordered urgency level: 0 (p0, highest) through 3 (p3, lowest).
type Priority int

// Priority constants
const (
	P0 Priority = iota
	P1
	P2
	P3
)

// IsValid checks if the priority is in range.
func (p Priority) IsValid() bool {
	return p >= P0 && p <= P3
}

// String returns the "p0".."p3" form.
func (p Priority) String() string {
	return fmt.Sprintf("p%d", int(p))
}

// ParsePriority accepts "p0".."p3" or a bare digit.
func ParsePriority(s string) (Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "p")
	switch s {
	case "0":
		return P0, nil
	case "1":
		return P1, nil
	case "2":
		return P2, nil
	case "3":
		return P3, nil
	}
	return 0, Validationf("invalid priority %q (expected p0..p3)", s)
}

// Comment represents a comment on an issue.
type Comment struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// DetectParentCycle walks parent references across the given snapshot and
// returns a ValidationError naming the first cycle found. Issues whose parent
// is outside the snapshot terminate the walk for that chain.
func DetectParentCycle(issues []Issue) error {
	parents := make(map[Ref]Ref, len(issues))
	for i := range issues {
		if issues[i].Parent != nil {
			parents[issues[i].Ref] = *issues[i].Parent
		}
	}
	for start := range parents {
		seen := map[Ref]bool{start: true}
		cur := start
		for {
			next, ok := parents[cur]
			if !ok {
				break
			}
			if seen[next] {
				return Validationf("parent cycle detected at %s", next)
			}
			seen[next] = true
			cur = next
		}
	}
	return nil
}
