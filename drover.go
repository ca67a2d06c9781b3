// Package drover provides a minimal public API for embedding drover's bulk
// issue operations in other Go tools.
//
// The CLI under cmd/drover is the primary surface. This package exports only
// the types and constructors needed to drive the engines programmatically
// against a registered platform adapter.
package drover

import (
	"github.com/droverhq/drover/internal/adapter"
	"github.com/droverhq/drover/internal/config"
	"github.com/droverhq/drover/internal/filter"
	"github.com/droverhq/drover/internal/merge"
	"github.com/droverhq/drover/internal/mutate"
	"github.com/droverhq/drover/internal/types"
)

// Core types for working with issues
type (
	Issue    = types.Issue
	Ref      = types.Ref
	Status   = types.Status
	Priority = types.Priority
)

// Status constants
const (
	StatusTodo       = types.StatusTodo
	StatusInProgress = types.StatusInProgress
	StatusBlocked    = types.StatusBlocked
	StatusDone       = types.StatusDone
	StatusClosed     = types.StatusClosed
)

// Adapter is the platform integration boundary. Register custom adapters with
// RegisterAdapter before opening them by name.
type Adapter = adapter.Adapter

// RegisterAdapter adds a named platform adapter factory.
func RegisterAdapter(name string, factory func(cfg map[string]string) (Adapter, error)) {
	adapter.Register(name, factory)
}

// OpenAdapter builds a registered adapter by name.
func OpenAdapter(name string, cfg map[string]string) (Adapter, error) {
	return adapter.Open(name, cfg)
}

// ParseFilter compiles a filter expression for use with MatchIssue.
func ParseFilter(text string) (filter.Expr, error) {
	return filter.Parse(text)
}

// SelectIssues returns the issues matching a compiled filter, in input order.
var SelectIssues = filter.Select

// Mutation planning and execution
type (
	Changes     = mutate.Changes
	Plan        = mutate.Plan
	BatchResult = mutate.BatchResult
)

// BuildPlan computes per-issue diffs for the intent against a snapshot.
var BuildPlan = mutate.BuildPlan

// NewEngine wires a mutation engine with default configuration.
func NewEngine(a Adapter) *mutate.Engine {
	return mutate.NewEngine(a, nil, nil, config.Defaults())
}

// NewMerger wires a duplicate merger.
func NewMerger(a Adapter) *merge.Merger {
	return merge.NewMerger(a, nil, nil)
}
