// Package blocker tracks blocking relationships between issues: reporting a
// blocker, escalating relations that sit unresolved too long, resolving them,
// and computing the critical path through a blocking graph. Resolution marks
// relations resolved; history is never deleted.
package blocker

import (
	"time"

	"github.com/droverhq/drover/internal/types"
)

// Category classifies what kind of thing is blocking.
type Category string

// Blocker categories.
const (
	CategoryExternal   Category = "external"
	CategoryInternal   Category = "internal"
	CategoryDependency Category = "dependency"
)

// IsValid checks the category against the known set.
func (c Category) IsValid() bool {
	switch c {
	case CategoryExternal, CategoryInternal, CategoryDependency:
		return true
	}
	return false
}

// Impact grades how badly the blocker hurts.
type Impact string

// Impact levels.
const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// IsValid checks the impact against the known set.
func (i Impact) IsValid() bool {
	switch i {
	case ImpactLow, ImpactMedium, ImpactHigh:
		return true
	}
	return false
}

// State is derived from a relation's timestamps, never stored.
type State string

// Relation states.
const (
	StateOpen      State = "open"
	StateEscalated State = "escalated"
	StateResolved  State = "resolved"
)

// Relation records one blocking relationship. Blocking is nil when the
// blocker is external to the tracker (a vendor, a review, an outage).
type Relation struct {
	ID          string     `json:"id" yaml:"id"`
	Blocked     types.Ref  `json:"blocked" yaml:"blocked"`
	Blocking    *types.Ref `json:"blocking,omitempty" yaml:"blocking,omitempty"`
	Reason      string     `json:"reason" yaml:"reason"`
	Category    Category   `json:"category" yaml:"category"`
	Impact      Impact     `json:"impact" yaml:"impact"`
	OpenedAt    time.Time  `json:"opened_at" yaml:"opened_at"`
	EscalatedAt *time.Time `json:"escalated_at,omitempty" yaml:"escalated_at,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty" yaml:"resolved_at,omitempty"`
	Resolution  string     `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	NotifyList  []string   `json:"notify_list,omitempty" yaml:"notify_list,omitempty"`
}

// State derives the lifecycle state from the timestamps.
func (r *Relation) State() State {
	switch {
	case r.ResolvedAt != nil:
		return StateResolved
	case r.EscalatedAt != nil:
		return StateEscalated
	default:
		return StateOpen
	}
}

// Age returns how long the relation has been open, capped at resolution.
func (r *Relation) Age(now time.Time) time.Duration {
	end := now
	if r.ResolvedAt != nil {
		end = *r.ResolvedAt
	}
	return end.Sub(r.OpenedAt)
}
