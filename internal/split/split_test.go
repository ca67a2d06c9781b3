package split

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/droverhq/drover/internal/adapter"
	"github.com/droverhq/drover/internal/adapter/adaptertest"
	"github.com/droverhq/drover/internal/report"
	"github.com/droverhq/drover/internal/types"
)

func durPtr(d time.Duration) *time.Duration { return &d }

func bigIssue() types.Issue {
	return types.Issue{
		Ref:      types.Ref{Platform: "fake", ID: "100"},
		Title:    "Rework ingestion pipeline",
		Status:   types.StatusTodo,
		Priority: types.P1,
		Labels:   []string{"backend", "database", "infra", "project:ingest", "team:platform"},
		Estimate: durPtr(24 * time.Hour),
		Description: `The pipeline needs a full rework.

## Acceptance Criteria

- [ ] Batch reader handles resume tokens
- [ ] Writes are chunked to 500 rows
- [ ] Failures land in a dead-letter queue

## Notes

- unrelated bullet outside the section
`,
	}
}

func TestAnalyzeLevels(t *testing.T) {
	tests := []struct {
		name      string
		issue     types.Issue
		wantLevel Level
		wantSplit bool
	}{
		{
			name: "trivial issue",
			issue: types.Issue{
				Ref:         types.Ref{Platform: "fake", ID: "1"},
				Title:       "Fix typo",
				Description: "One-line fix.",
			},
			wantLevel: LevelLow,
			wantSplit: false,
		},
		{
			name:      "oversized multi-domain issue",
			issue:     bigIssue(),
			wantLevel: LevelHigh,
			wantSplit: true,
		},
		{
			name: "small estimate over the cap still recommends",
			issue: types.Issue{
				Ref:      types.Ref{Platform: "fake", ID: "2"},
				Title:    "Migrate table",
				Estimate: durPtr(20 * time.Hour),
			},
			wantLevel: LevelMedium,
			wantSplit: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := Analyze(&tt.issue)
			if rep.Level != tt.wantLevel {
				t.Errorf("Level = %s, want %s (score %d, signals %v)", rep.Level, tt.wantLevel, rep.Score, rep.Signals)
			}
			if rep.SplitRecommended != tt.wantSplit {
				t.Errorf("SplitRecommended = %v, want %v", rep.SplitRecommended, tt.wantSplit)
			}
		})
	}
}

func TestAnalyzeIsAdvisory(t *testing.T) {
	iss := bigIssue()
	before := iss
	Analyze(&iss)
	if iss.Status != before.Status || len(iss.Labels) != len(before.Labels) {
		t.Error("Analyze mutated the issue")
	}
}

func TestSuggestAcceptanceCriteria(t *testing.T) {
	iss := bigIssue()
	sug, err := SuggestSplit(&iss, StrategyAcceptanceCriteria, SuggestOptions{})
	if err != nil {
		t.Fatalf("SuggestSplit() error = %v", err)
	}
	if len(sug.Stubs) != 3 {
		t.Fatalf("got %d stubs, want 3 (section bullets only): %+v", len(sug.Stubs), sug.Stubs)
	}
	if !strings.Contains(sug.Stubs[0].Title, "resume tokens") {
		t.Errorf("stub 0 title = %q, want the first criterion", sug.Stubs[0].Title)
	}
	if sug.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9 for an explicit section", sug.Confidence)
	}
}

func TestSuggestEstimateConservation(t *testing.T) {
	iss := bigIssue()
	sug, err := SuggestSplit(&iss, StrategyAcceptanceCriteria, SuggestOptions{})
	if err != nil {
		t.Fatalf("SuggestSplit() error = %v", err)
	}
	var total time.Duration
	for _, st := range sug.Stubs {
		if st.Estimate == nil {
			t.Fatal("stub missing estimate")
		}
		total += *st.Estimate
	}
	if total != *iss.Estimate {
		t.Errorf("stub estimates sum to %s, want %s", total, *iss.Estimate)
	}
}

func TestSuggestLabelInheritance(t *testing.T) {
	iss := bigIssue()

	sug, err := SuggestSplit(&iss, StrategyFixedCount, SuggestOptions{Count: 2})
	if err != nil {
		t.Fatalf("SuggestSplit() error = %v", err)
	}
	got := sug.Stubs[0].Labels
	if len(got) != 2 || got[0] != "project:ingest" || got[1] != "team:platform" {
		t.Errorf("inherited labels = %v, want only the preserved namespaces", got)
	}

	all, err := SuggestSplit(&iss, StrategyFixedCount, SuggestOptions{Count: 2, PreserveAll: true})
	if err != nil {
		t.Fatalf("SuggestSplit(PreserveAll) error = %v", err)
	}
	if len(all.Stubs[0].Labels) != len(iss.Labels) {
		t.Errorf("PreserveAll labels = %v, want all of %v", all.Stubs[0].Labels, iss.Labels)
	}
}

func TestSuggestValidation(t *testing.T) {
	plain := types.Issue{
		Ref:         types.Ref{Platform: "fake", ID: "3"},
		Title:       "No structure here",
		Description: "prose only",
	}

	tests := []struct {
		name     string
		strategy Strategy
		opts     SuggestOptions
		wantErr  string
	}{
		{"no criteria", StrategyAcceptanceCriteria, SuggestOptions{}, "no acceptance criteria"},
		{"no components", StrategyComponent, SuggestOptions{}, "no component labels"},
		{"fixed count too small", StrategyFixedCount, SuggestOptions{Count: 1}, "at least 2"},
		{"unknown strategy", Strategy("vibes"), SuggestOptions{}, "unknown split strategy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SuggestSplit(&plain, tt.strategy, tt.opts)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tt.wantErr)
			}
			if !types.IsValidation(err) {
				t.Errorf("error %v is not a ValidationError", err)
			}
		})
	}
}

func TestCommitCreatesStubsAndAnnotatesParent(t *testing.T) {
	fake := adaptertest.NewFake()
	iss := bigIssue()
	fake.Seed(iss)

	sug, err := SuggestSplit(&iss, StrategyComponent, SuggestOptions{})
	if err != nil {
		t.Fatalf("SuggestSplit() error = %v", err)
	}
	res, err := NewSplitter(fake, report.Nop{}).Commit(context.Background(), sug, CommitOptions{})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if len(res.Created) != 3 {
		t.Fatalf("created %d stubs, want 3 (backend, database, infra)", len(res.Created))
	}
	for _, ref := range res.Created {
		child := fake.Issue(ref)
		if child == nil || child.Parent == nil || *child.Parent != iss.Ref {
			t.Errorf("stub %s missing parent link to %s", ref, iss.Ref)
		}
	}
	if len(fake.Relations) != 3 {
		t.Fatalf("recorded %d relations, want 3", len(fake.Relations))
	}
	for _, rel := range fake.Relations {
		if rel.Kind != adapter.RelParentChild || rel.From != iss.Ref {
			t.Errorf("relation %+v, want parent-child from %s", rel, iss.Ref)
		}
	}

	parent := fake.Issue(iss.Ref)
	if len(parent.Comments) != 1 || !strings.Contains(parent.Comments[0].Text, "Split into 3") {
		t.Errorf("parent comments = %+v, want split annotation", parent.Comments)
	}
	if parent.Status != types.StatusTodo {
		t.Errorf("parent status = %s, annotate policy must not close it", parent.Status)
	}
}

func TestCommitClosePolicy(t *testing.T) {
	fake := adaptertest.NewFake()
	iss := bigIssue()
	fake.Seed(iss)

	sug, err := SuggestSplit(&iss, StrategyFixedCount, SuggestOptions{Count: 2})
	if err != nil {
		t.Fatalf("SuggestSplit() error = %v", err)
	}
	_, err = NewSplitter(fake, report.Nop{}).Commit(context.Background(), sug, CommitOptions{ParentPolicy: ParentClose})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if got := fake.Issue(iss.Ref).Status; got != types.StatusClosed {
		t.Errorf("parent status = %s, want closed", got)
	}
}

func TestCommitPartialFailureNamesCreatedStubs(t *testing.T) {
	fake := adaptertest.NewFake()
	iss := bigIssue()
	fake.Seed(iss)

	sug, err := SuggestSplit(&iss, StrategyFixedCount, SuggestOptions{Count: 3})
	if err != nil {
		t.Fatalf("SuggestSplit() error = %v", err)
	}
	// Annotation fails after all stubs are created.
	fake.FailComment[iss.Ref.String()] = adapter.Permanentf("comments disabled")

	res, err := NewSplitter(fake, report.Nop{}).Commit(context.Background(), sug, CommitOptions{})
	if err == nil {
		t.Fatal("Commit() error = nil, want annotation failure")
	}
	if len(res.Created) != 3 {
		t.Errorf("partial result names %d stubs, want 3", len(res.Created))
	}
	if res.ParentUpdated {
		t.Error("ParentUpdated = true, parent annotation failed")
	}
}
