// Package adaptertest provides an in-memory Adapter used by engine tests and
// by the CLI's "fake" platform for offline experimentation. Failures are
// scriptable per ref so tests can exercise partial-failure paths without a
// network.
package adaptertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/droverhq/drover/internal/adapter"
	"github.com/droverhq/drover/internal/types"
)

func init() {
	adapter.Register("fake", func(cfg map[string]string) (adapter.Adapter, error) {
		return NewFake(), nil
	})
}

// AppliedChange records one ApplyChange call.
type AppliedChange struct {
	Ref  types.Ref
	Diff adapter.IssueDiff
}

// Fake is an in-memory Adapter. The zero value is not usable; call NewFake.
type Fake struct {
	mu sync.Mutex

	issues map[types.Ref]*types.Issue
	nextID int

	// Scriptable failures, keyed by ref string. A non-nil error makes the
	// corresponding call fail every time until the entry is removed.
	FailApply   map[string]error
	FailGet     map[string]error
	FailComment map[string]error

	// FailCreate makes every CreateIssue call fail.
	FailCreate error

	// ApplyErrOnce holds errors returned once then cleared, for retry tests.
	ApplyErrOnce map[string]error

	// Recorded calls.
	Applied    []AppliedChange
	Relations  []adapter.RelationSpec
	FetchCalls int
	GetCalls   int

	// Now supplies timestamps for UpdatedAt; defaults to time.Now.
	Now func() time.Time
}

// NewFake returns an empty in-memory adapter.
func NewFake() *Fake {
	return &Fake{
		issues:       make(map[types.Ref]*types.Issue),
		nextID:       1,
		FailApply:    make(map[string]error),
		FailGet:      make(map[string]error),
		FailComment:  make(map[string]error),
		ApplyErrOnce: make(map[string]error),
		Now:          time.Now,
	}
}

// Name implements Adapter.
func (f *Fake) Name() string { return "fake" }

// Seed stores copies of the given issues.
func (f *Fake) Seed(issues ...types.Issue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range issues {
		cp := cloneIssue(&issues[i])
		f.issues[cp.Ref] = cp
	}
}

// Issue returns a copy of the stored issue, or nil.
func (f *Fake) Issue(ref types.Ref) *types.Issue {
	f.mu.Lock()
	defer f.mu.Unlock()
	iss, ok := f.issues[ref]
	if !ok {
		return nil
	}
	return cloneIssue(iss)
}

// ApplyCount returns how many ApplyChange calls were recorded.
func (f *Fake) ApplyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Applied)
}

// FetchIssues implements Adapter. Scope is ignored: the fake holds one scope.
func (f *Fake) FetchIssues(ctx context.Context, scope string) ([]types.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FetchCalls++
	out := make([]types.Issue, 0, len(f.issues))
	for _, iss := range f.issues {
		out = append(out, *cloneIssue(iss))
	}
	types.SortIssues(out, []types.SortKey{{Field: types.SortFieldID, Direction: types.SortAsc}})
	return out, nil
}

// GetIssue implements Adapter.
func (f *Fake) GetIssue(ctx context.Context, ref types.Ref) (*types.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetCalls++
	if err := f.FailGet[ref.String()]; err != nil {
		return nil, err
	}
	iss, ok := f.issues[ref]
	if !ok {
		return nil, &adapter.PermanentError{Err: fmt.Errorf("%w: %s", adapter.ErrNotFound, ref)}
	}
	return cloneIssue(iss), nil
}

// ApplyChange implements Adapter.
func (f *Fake) ApplyChange(ctx context.Context, ref types.Ref, diff adapter.IssueDiff) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ApplyErrOnce[ref.String()]; err != nil {
		delete(f.ApplyErrOnce, ref.String())
		return err
	}
	if err := f.FailApply[ref.String()]; err != nil {
		return err
	}
	iss, ok := f.issues[ref]
	if !ok {
		return &adapter.PermanentError{Err: fmt.Errorf("%w: %s", adapter.ErrNotFound, ref)}
	}
	applyDiff(iss, diff, f.Now())
	f.Applied = append(f.Applied, AppliedChange{Ref: ref, Diff: diff})
	return nil
}

// CreateIssue implements Adapter.
func (f *Fake) CreateIssue(ctx context.Context, spec adapter.IssueSpec) (*types.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailCreate != nil {
		return nil, f.FailCreate
	}
	now := f.Now()
	iss := &types.Issue{
		Ref:         types.Ref{Platform: "fake", ID: fmt.Sprintf("F-%d", f.nextID)},
		Title:       spec.Title,
		Description: spec.Description,
		Status:      types.StatusTodo,
		Priority:    spec.Priority,
		Labels:      append([]string(nil), spec.Labels...),
		Assignee:    spec.Assignee,
		Parent:      spec.Parent,
		CreatedAt:   now,
		UpdatedAt:   now,
		Estimate:    spec.Estimate,
	}
	f.nextID++
	f.issues[iss.Ref] = iss
	return cloneIssue(iss), nil
}

// CreateRelation implements Adapter.
func (f *Fake) CreateRelation(ctx context.Context, rel adapter.RelationSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Relations = append(f.Relations, rel)
	return nil
}

// AddComment implements Adapter.
func (f *Fake) AddComment(ctx context.Context, ref types.Ref, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailComment[ref.String()]; err != nil {
		return err
	}
	iss, ok := f.issues[ref]
	if !ok {
		return &adapter.PermanentError{Err: fmt.Errorf("%w: %s", adapter.ErrNotFound, ref)}
	}
	iss.Comments = append(iss.Comments, types.Comment{
		Author:    "drover",
		Text:      text,
		CreatedAt: f.Now(),
	})
	return nil
}

func applyDiff(iss *types.Issue, diff adapter.IssueDiff, now time.Time) {
	if diff.SetStatus != nil {
		iss.Status = *diff.SetStatus
	}
	if diff.SetPriority != nil {
		iss.Priority = *diff.SetPriority
	}
	if diff.SetAssignee != nil {
		iss.Assignee = *diff.SetAssignee
	}
	for _, l := range diff.AddLabels {
		if !iss.HasLabel(l) {
			iss.Labels = append(iss.Labels, l)
		}
	}
	if len(diff.RemoveLabels) > 0 {
		keep := iss.Labels[:0]
		for _, l := range iss.Labels {
			remove := false
			for _, r := range diff.RemoveLabels {
				if l == r {
					remove = true
					break
				}
			}
			if !remove {
				keep = append(keep, l)
			}
		}
		iss.Labels = keep
	}
	if diff.SetEstimate != nil {
		est := *diff.SetEstimate
		iss.Estimate = &est
	}
	if diff.SetParent != nil {
		parent := *diff.SetParent
		iss.Parent = &parent
	}
	if len(diff.CustomFields) > 0 {
		if iss.CustomFields == nil {
			iss.CustomFields = make(map[string]string, len(diff.CustomFields))
		}
		for k, v := range diff.CustomFields {
			iss.CustomFields[k] = v
		}
	}
	iss.UpdatedAt = now
}

func cloneIssue(iss *types.Issue) *types.Issue {
	cp := *iss
	cp.Labels = append([]string(nil), iss.Labels...)
	cp.Comments = append([]types.Comment(nil), iss.Comments...)
	if iss.Parent != nil {
		p := *iss.Parent
		cp.Parent = &p
	}
	if iss.Estimate != nil {
		e := *iss.Estimate
		cp.Estimate = &e
	}
	if iss.CustomFields != nil {
		cp.CustomFields = make(map[string]string, len(iss.CustomFields))
		for k, v := range iss.CustomFields {
			cp.CustomFields[k] = v
		}
	}
	return &cp
}
