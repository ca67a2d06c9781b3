package split

import (
	"context"
	"fmt"
	"strings"

	"github.com/droverhq/drover/internal/adapter"
	"github.com/droverhq/drover/internal/report"
	"github.com/droverhq/drover/internal/types"
)

// ParentPolicy selects what happens to the parent after its stubs exist.
type ParentPolicy string

// Parent policies.
const (
	// ParentAnnotate leaves the parent open with a comment listing the stubs.
	ParentAnnotate ParentPolicy = "annotate"
	// ParentClose closes the parent once the stubs exist.
	ParentClose ParentPolicy = "close"
)

// ParseParentPolicy validates a policy name.
func ParseParentPolicy(s string) (ParentPolicy, error) {
	switch ParentPolicy(s) {
	case ParentAnnotate, ParentClose:
		return ParentPolicy(s), nil
	}
	return "", types.Validationf("unknown parent policy %q (expected annotate or close)", s)
}

// CommitOptions tune suggestion commit.
type CommitOptions struct {
	ParentPolicy ParentPolicy
}

// CommitResult names what a commit actually created. On partial failure it
// still lists every stub that exists so the caller can clean up or resume.
type CommitResult struct {
	Created       []types.Ref `json:"created"`
	ParentUpdated bool        `json:"parent_updated"`
}

// Splitter commits split suggestions through an adapter.
type Splitter struct {
	adapter  adapter.Adapter
	reporter report.Sink
}

// NewSplitter wires a splitter. Reporter may be nil.
func NewSplitter(a adapter.Adapter, r report.Sink) *Splitter {
	return &Splitter{adapter: a, reporter: r}
}

// Commit creates each stub with the suggestion's parent, records a
// parent-child relation, and then applies the parent policy. A stub creation
// failure stops the commit; the returned result still names the stubs created
// before the failure.
func (s *Splitter) Commit(ctx context.Context, sug *Suggestion, opts CommitOptions) (*CommitResult, error) {
	if len(sug.Stubs) == 0 {
		return nil, types.Validationf("suggestion has no stubs")
	}
	if opts.ParentPolicy == "" {
		opts.ParentPolicy = ParentAnnotate
	}
	if _, err := ParseParentPolicy(string(opts.ParentPolicy)); err != nil {
		return nil, err
	}

	res := &CommitResult{}
	parent := sug.Parent
	for i, stub := range sug.Stubs {
		created, err := s.adapter.CreateIssue(ctx, adapter.IssueSpec{
			Title:       stub.Title,
			Description: stub.Description,
			Labels:      stub.Labels,
			Parent:      &parent,
			Estimate:    stub.Estimate,
		})
		if err != nil {
			return res, fmt.Errorf("creating stub %d of %d: %w", i+1, len(sug.Stubs), err)
		}
		res.Created = append(res.Created, created.Ref)

		err = s.adapter.CreateRelation(ctx, adapter.RelationSpec{
			From: parent,
			To:   created.Ref,
			Kind: adapter.RelParentChild,
		})
		if err != nil {
			return res, fmt.Errorf("relating %s to parent: %w", created.Ref, err)
		}
	}

	if err := s.applyParentPolicy(ctx, sug, opts.ParentPolicy, res); err != nil {
		return res, err
	}
	res.ParentUpdated = true

	report.Emit(s.reporter, report.KindSplitCommitted, map[string]any{
		"parent":   parent.String(),
		"stubs":    len(res.Created),
		"strategy": string(sug.Strategy),
		"policy":   string(opts.ParentPolicy),
	})
	return res, nil
}

func (s *Splitter) applyParentPolicy(ctx context.Context, sug *Suggestion, policy ParentPolicy, res *CommitResult) error {
	refs := make([]string, 0, len(res.Created))
	for _, r := range res.Created {
		refs = append(refs, r.String())
	}
	note := fmt.Sprintf("Split into %d sub-issue(s): %s", len(refs), strings.Join(refs, ", "))

	if err := s.adapter.AddComment(ctx, sug.Parent, note); err != nil {
		return fmt.Errorf("annotating parent %s: %w", sug.Parent, err)
	}
	if policy == ParentClose {
		closed := types.StatusClosed
		err := s.adapter.ApplyChange(ctx, sug.Parent, adapter.IssueDiff{SetStatus: &closed})
		if err != nil {
			return fmt.Errorf("closing parent %s: %w", sug.Parent, err)
		}
	}
	return nil
}
