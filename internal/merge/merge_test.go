package merge

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/droverhq/drover/internal/adapter"
	"github.com/droverhq/drover/internal/adapter/adaptertest"
	"github.com/droverhq/drover/internal/notify"
	"github.com/droverhq/drover/internal/report"
	"github.com/droverhq/drover/internal/types"
)

var mergeNow = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func ref(id string) types.Ref { return types.Ref{Platform: "fake", ID: id} }

// seedTriple stores the A/B/C duplicate set: A and C carry comments with
// interleaved timestamps, B is the keeper.
func seedTriple(fake *adaptertest.Fake) {
	fake.Seed(
		types.Issue{
			Ref: ref("A"), Title: "login broken", Status: types.StatusTodo, Reporter: "ann",
			Comments: []types.Comment{
				{Author: "ann", Text: "repro on staging", CreatedAt: mergeNow.Add(-3 * time.Hour)},
				{Author: "bo", Text: "same on prod", CreatedAt: mergeNow.Add(-1 * time.Hour)},
			},
		},
		types.Issue{Ref: ref("B"), Title: "login broken (canonical)", Status: types.StatusInProgress, Reporter: "bo"},
		types.Issue{
			Ref: ref("C"), Title: "cannot log in", Status: types.StatusTodo, Reporter: "cy",
			Comments: []types.Comment{
				{Author: "cy", Text: "started after the deploy", CreatedAt: mergeNow.Add(-2 * time.Hour)},
			},
		},
	)
}

func TestMergeValidation(t *testing.T) {
	fake := adaptertest.NewFake()
	seedTriple(fake)
	m := NewMerger(fake, nil, report.Nop{})

	tests := []struct {
		name    string
		refs    []types.Ref
		keep    types.Ref
		wantErr string
	}{
		{"too few", []types.Ref{ref("A")}, ref("A"), "at least 2"},
		{"keep outside set", []types.Ref{ref("A"), ref("C")}, ref("B"), "not in the merge set"},
		{"duplicate ref", []types.Ref{ref("A"), ref("A"), ref("B")}, ref("B"), "duplicate ref"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Merge(context.Background(), tt.refs, tt.keep, Options{})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Merge() error = %v, want substring %q", err, tt.wantErr)
			}
			if !types.IsValidation(err) {
				t.Errorf("error %v is not a ValidationError", err)
			}
		})
	}
	if fake.ApplyCount() != 0 {
		t.Errorf("ApplyCount() = %d, want 0 after rejected merges", fake.ApplyCount())
	}
}

func TestMergeClosesLosersAndPreservesComments(t *testing.T) {
	fake := adaptertest.NewFake()
	seedTriple(fake)
	rec := &notify.Recorder{}
	m := NewMerger(fake, rec, report.Nop{})

	res, err := m.Merge(context.Background(), []types.Ref{ref("A"), ref("B"), ref("C")}, ref("B"),
		Options{PreserveComments: true})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if res.Merged() != 2 || res.Failed() != 0 {
		t.Fatalf("merged=%d failed=%d, want 2/0", res.Merged(), res.Failed())
	}

	for _, id := range []string{"A", "C"} {
		loser := fake.Issue(ref(id))
		if loser.Status != types.StatusClosed || !loser.HasLabel(DuplicateLabel) {
			t.Errorf("%s status=%s labels=%v, want closed duplicate", id, loser.Status, loser.Labels)
		}
		found := false
		for _, c := range loser.Comments {
			if strings.Contains(c.Text, "Duplicate of fake:B") {
				found = true
			}
		}
		if !found {
			t.Errorf("%s comments = %+v, want duplicate-of comment", id, loser.Comments)
		}
	}

	keep := fake.Issue(ref("B"))
	if len(keep.Comments) != 3 {
		t.Fatalf("keeper has %d comments, want 3 copied", len(keep.Comments))
	}
	// Global chronological order across both sources: A(-3h), C(-2h), A(-1h).
	wantOrder := []string{"repro on staging", "started after the deploy", "same on prod"}
	for i, want := range wantOrder {
		if !strings.Contains(keep.Comments[i].Text, want) {
			t.Errorf("keeper comment %d = %q, want it to contain %q", i, keep.Comments[i].Text, want)
		}
	}

	wantCopied := map[string]int{"A": 2, "C": 1}
	for _, o := range res.Outcomes {
		if o.CommentsCopied != wantCopied[o.Ref.ID] {
			t.Errorf("%s CommentsCopied = %d, want %d", o.Ref, o.CommentsCopied, wantCopied[o.Ref.ID])
		}
	}

	// Reporters of both losers were notified; the keeper's reporter was not.
	if len(rec.Calls) != 2 {
		t.Fatalf("notify calls = %d, want 2", len(rec.Calls))
	}
	recipients := rec.Calls[0].Recipients[0] + "," + rec.Calls[1].Recipients[0]
	if !strings.Contains(recipients, "ann") || !strings.Contains(recipients, "cy") {
		t.Errorf("notified %s, want ann and cy", recipients)
	}
}

func TestMergeIsolatesCloseFailures(t *testing.T) {
	fake := adaptertest.NewFake()
	seedTriple(fake)
	fake.FailApply["fake:C"] = adapter.Permanentf("archived issues are read-only")
	m := NewMerger(fake, nil, report.Nop{})

	res, err := m.Merge(context.Background(), []types.Ref{ref("A"), ref("B"), ref("C")}, ref("B"),
		Options{PreserveComments: true})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if res.Merged() != 1 || res.Failed() != 1 {
		t.Fatalf("merged=%d failed=%d, want 1/1", res.Merged(), res.Failed())
	}

	// C stays open and its comments are not copied.
	if got := fake.Issue(ref("C")); got.Status != types.StatusTodo {
		t.Errorf("C status = %s, want untouched todo", got.Status)
	}
	keep := fake.Issue(ref("B"))
	if len(keep.Comments) != 2 {
		t.Errorf("keeper has %d comments, want only A's 2", len(keep.Comments))
	}
	for _, c := range keep.Comments {
		if strings.Contains(c.Text, "deploy") {
			t.Errorf("comment from failed loser was copied: %q", c.Text)
		}
	}
}

func TestMergeCountsOnlyLandedCopies(t *testing.T) {
	fake := adaptertest.NewFake()
	seedTriple(fake)
	fake.FailComment["fake:B"] = adapter.Permanentf("keeper comments are locked")
	m := NewMerger(fake, nil, report.Nop{})

	res, err := m.Merge(context.Background(), []types.Ref{ref("A"), ref("B"), ref("C")}, ref("B"),
		Options{PreserveComments: true})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if res.Merged() != 2 {
		t.Fatalf("merged = %d, want 2 (losers still close)", res.Merged())
	}
	if len(res.CopyErrors) != 3 {
		t.Errorf("copy errors = %d, want 3", len(res.CopyErrors))
	}
	for _, o := range res.Outcomes {
		if o.CommentsCopied != 0 {
			t.Errorf("%s claims %d copied comments, want 0 when every copy failed", o.Ref, o.CommentsCopied)
		}
	}
}

func TestMergeRerunDoesNotDoubleCopy(t *testing.T) {
	fake := adaptertest.NewFake()
	seedTriple(fake)
	m := NewMerger(fake, nil, report.Nop{})
	set := []types.Ref{ref("A"), ref("B"), ref("C")}

	if _, err := m.Merge(context.Background(), set, ref("B"), Options{PreserveComments: true}); err != nil {
		t.Fatalf("first Merge() error = %v", err)
	}
	firstCount := len(fake.Issue(ref("B")).Comments)

	res, err := m.Merge(context.Background(), set, ref("B"), Options{PreserveComments: true})
	if err != nil {
		t.Fatalf("second Merge() error = %v", err)
	}
	for _, o := range res.Outcomes {
		if !o.AlreadyMerged {
			t.Errorf("outcome %s = %+v, want already-merged", o.Ref, o)
		}
	}
	if got := len(fake.Issue(ref("B")).Comments); got != firstCount {
		t.Errorf("keeper comments grew from %d to %d on rerun", firstCount, got)
	}
}
