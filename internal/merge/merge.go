// Package merge consolidates duplicate issues into one keeper. Losers are
// closed and labeled, their comments are copied to the keeper in global
// chronological order, and their reporters are notified. Per-issue failures
// are recorded in the result; they never abort the rest of the merge or
// touch the keeper.
package merge

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/droverhq/drover/internal/adapter"
	"github.com/droverhq/drover/internal/notify"
	"github.com/droverhq/drover/internal/report"
	"github.com/droverhq/drover/internal/types"
)

// DuplicateLabel marks issues closed as duplicates.
const DuplicateLabel = "duplicate"

// Options tune a merge.
type Options struct {
	// PreserveComments copies loser comments onto the keeper.
	PreserveComments bool
}

// IssueOutcome is the result for one loser.
type IssueOutcome struct {
	Ref            types.Ref `json:"ref"`
	Closed         bool      `json:"closed"`
	AlreadyMerged  bool      `json:"already_merged,omitempty"`
	CommentsCopied int       `json:"comments_copied,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// Result aggregates a merge. CopyErrors are keeper-side comment copy failures;
// the merge itself still counts as done for the losers that closed.
type Result struct {
	Keep       types.Ref      `json:"keep"`
	Outcomes   []IssueOutcome `json:"outcomes"`
	CopyErrors []string       `json:"copy_errors,omitempty"`
}

// Merged returns how many losers were closed (this run or previously).
func (r *Result) Merged() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Closed || o.AlreadyMerged {
			n++
		}
	}
	return n
}

// Failed returns how many losers could not be closed.
func (r *Result) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Error != "" {
			n++
		}
	}
	return n
}

// Merger closes duplicates through an adapter.
type Merger struct {
	adapter  adapter.Adapter
	notifier notify.Notifier
	reporter report.Sink
}

// NewMerger wires a merger. Notifier and reporter may be nil.
func NewMerger(a adapter.Adapter, n notify.Notifier, r report.Sink) *Merger {
	return &Merger{adapter: a, notifier: n, reporter: r}
}

// sourcedComment is a loser comment staged for copying.
type sourcedComment struct {
	from    types.Ref
	order   int // source position, the tiebreak for equal timestamps
	comment types.Comment
}

// Merge closes every ref except keep as a duplicate of keep. Comments are
// copied to the keeper only from losers that actually closed, in global
// chronological order; a loser that is already closed and labeled duplicate
// is recognized and not copied again.
func (m *Merger) Merge(ctx context.Context, refs []types.Ref, keep types.Ref, opts Options) (*Result, error) {
	if len(refs) < 2 {
		return nil, types.Validationf("merge needs at least 2 issues (got %d)", len(refs))
	}
	keepFound := false
	seen := make(map[types.Ref]bool, len(refs))
	for _, r := range refs {
		if seen[r] {
			return nil, types.Validationf("duplicate ref %s in merge set", r)
		}
		seen[r] = true
		if r == keep {
			keepFound = true
		}
	}
	if !keepFound {
		return nil, types.Validationf("keep issue %s is not in the merge set", keep)
	}

	if _, err := m.adapter.GetIssue(ctx, keep); err != nil {
		return nil, fmt.Errorf("loading keep issue %s: %w", keep, err)
	}

	res := &Result{Keep: keep}
	var staged []sourcedComment
	order := 0

	for _, ref := range refs {
		if ref == keep {
			continue
		}
		outcome := IssueOutcome{Ref: ref}

		loser, err := m.adapter.GetIssue(ctx, ref)
		if err != nil {
			outcome.Error = err.Error()
			res.Outcomes = append(res.Outcomes, outcome)
			continue
		}
		if loser.Status == types.StatusClosed && loser.HasLabel(DuplicateLabel) {
			outcome.AlreadyMerged = true
			res.Outcomes = append(res.Outcomes, outcome)
			continue
		}

		closed := types.StatusClosed
		diff := adapter.IssueDiff{AddLabels: []string{DuplicateLabel}}
		if loser.Status != types.StatusClosed {
			diff.SetStatus = &closed
		}
		if err := m.adapter.ApplyChange(ctx, ref, diff); err != nil {
			outcome.Error = err.Error()
			res.Outcomes = append(res.Outcomes, outcome)
			continue
		}
		if err := m.adapter.AddComment(ctx, ref, fmt.Sprintf("Duplicate of %s.", keep)); err != nil {
			outcome.Error = err.Error()
			res.Outcomes = append(res.Outcomes, outcome)
			continue
		}
		outcome.Closed = true

		if opts.PreserveComments {
			for _, c := range loser.Comments {
				staged = append(staged, sourcedComment{from: ref, order: order, comment: c})
				order++
			}
		}
		if m.notifier != nil && loser.Reporter != "" {
			m.notifier.Notify(ctx, []string{loser.Reporter},
				fmt.Sprintf("%s was closed as a duplicate of %s", ref, keep))
		}
		res.Outcomes = append(res.Outcomes, outcome)
	}

	if opts.PreserveComments {
		m.copyComments(ctx, keep, staged, res)
	}

	report.Emit(m.reporter, report.KindMergeCompleted, map[string]any{
		"keep":   keep.String(),
		"merged": res.Merged(),
		"failed": res.Failed(),
	})
	return res, nil
}

// copyComments writes staged comments to the keeper in global chronological
// order. Equal timestamps keep their source order, so the copy is stable
// across runs with the same inputs. CommentsCopied counts only comments that
// actually landed on the keeper.
func (m *Merger) copyComments(ctx context.Context, keep types.Ref, staged []sourcedComment, res *Result) {
	sort.SliceStable(staged, func(i, j int) bool {
		if !staged[i].comment.CreatedAt.Equal(staged[j].comment.CreatedAt) {
			return staged[i].comment.CreatedAt.Before(staged[j].comment.CreatedAt)
		}
		return staged[i].order < staged[j].order
	})
	copied := make(map[types.Ref]int)
	for _, sc := range staged {
		text := fmt.Sprintf("From %s (%s, %s): %s",
			sc.from, sc.comment.Author, sc.comment.CreatedAt.Format(time.RFC3339), sc.comment.Text)
		if err := m.adapter.AddComment(ctx, keep, text); err != nil {
			res.CopyErrors = append(res.CopyErrors, fmt.Sprintf("%s: %v", sc.from, err))
			continue
		}
		copied[sc.from]++
	}
	for i := range res.Outcomes {
		res.Outcomes[i].CommentsCopied = copied[res.Outcomes[i].Ref]
	}
}
