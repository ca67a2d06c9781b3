package blocker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/droverhq/drover/internal/adapter"
	"github.com/droverhq/drover/internal/config"
	"github.com/droverhq/drover/internal/notify"
	"github.com/droverhq/drover/internal/report"
	"github.com/droverhq/drover/internal/types"
)

// BlockedLabel marks issues with an open blocking relation.
const BlockedLabel = "blocked"

// Tracker applies blocker lifecycle side effects through an adapter.
// Relations themselves are plain values; callers own their storage.
type Tracker struct {
	adapter  adapter.Adapter
	notifier notify.Notifier
	reporter report.Sink
	cfg      config.Config

	// Now supplies timestamps; tests pin it.
	Now func() time.Time
}

// NewTracker wires a tracker. Notifier and reporter may be nil.
func NewTracker(a adapter.Adapter, n notify.Notifier, r report.Sink, cfg config.Config) *Tracker {
	return &Tracker{adapter: a, notifier: n, reporter: r, cfg: cfg, Now: time.Now}
}

// ReportParams describes a new blocker.
type ReportParams struct {
	Blocked  types.Ref
	Blocking *types.Ref
	Reason   string
	Category Category
	Impact   Impact
	Notify   []string
}

// Report records a blocker: labels and comments the blocked issue, creates a
// blocks relation on the tracker when the blocker is another issue, and
// notifies the listed recipients. The returned relation starts open.
func (t *Tracker) Report(ctx context.Context, p ReportParams) (*Relation, error) {
	if p.Blocked.IsZero() {
		return nil, types.Validationf("blocked issue ref is required")
	}
	if p.Reason == "" {
		return nil, types.Validationf("blocker reason is required")
	}
	if !p.Category.IsValid() {
		return nil, types.Validationf("invalid blocker category %q (expected external, internal or dependency)", p.Category)
	}
	if !p.Impact.IsValid() {
		return nil, types.Validationf("invalid blocker impact %q (expected low, medium or high)", p.Impact)
	}
	if p.Blocking != nil && *p.Blocking == p.Blocked {
		return nil, types.Validationf("%s cannot block itself", p.Blocked)
	}

	rel := &Relation{
		ID:         uuid.NewString(),
		Blocked:    p.Blocked,
		Blocking:   p.Blocking,
		Reason:     p.Reason,
		Category:   p.Category,
		Impact:     p.Impact,
		OpenedAt:   t.Now(),
		NotifyList: p.Notify,
	}

	diff := adapter.IssueDiff{AddLabels: []string{BlockedLabel}}
	if err := t.adapter.ApplyChange(ctx, p.Blocked, diff); err != nil {
		return nil, fmt.Errorf("labeling %s: %w", p.Blocked, err)
	}

	note := fmt.Sprintf("Blocked (%s, %s impact): %s", p.Category, p.Impact, p.Reason)
	if p.Blocking != nil {
		note += fmt.Sprintf("\nBlocked by %s.", p.Blocking)
	}
	if err := t.adapter.AddComment(ctx, p.Blocked, note); err != nil {
		return nil, fmt.Errorf("commenting on %s: %w", p.Blocked, err)
	}

	if p.Blocking != nil {
		err := t.adapter.CreateRelation(ctx, adapter.RelationSpec{
			From: *p.Blocking,
			To:   p.Blocked,
			Kind: adapter.RelBlocks,
		})
		if err != nil {
			return nil, fmt.Errorf("recording blocks relation: %w", err)
		}
	}

	if t.notifier != nil && len(p.Notify) > 0 {
		t.notifier.Notify(ctx, p.Notify, fmt.Sprintf("%s is blocked: %s", p.Blocked, p.Reason))
	}
	report.Emit(t.reporter, report.KindRelationReported, map[string]any{
		"relation": rel.ID,
		"blocked":  p.Blocked.String(),
		"category": string(p.Category),
		"impact":   string(p.Impact),
	})
	return rel, nil
}

// Policy is the escalation rule: relations open longer than Age get Label.
type Policy struct {
	Age   time.Duration
	Label string
}

// PolicyFromConfig builds the policy the config prescribes.
func PolicyFromConfig(cfg config.Config) Policy {
	return Policy{Age: cfg.EscalationAge, Label: cfg.EscalationLabel}
}

// CheckEscalations returns the relations that are past the policy age,
// unresolved, and not yet escalated. It is pure: callers decide what to do
// with the result, and running it twice changes nothing.
func CheckEscalations(now time.Time, rels []Relation, policy Policy) []Relation {
	var due []Relation
	for _, r := range rels {
		if r.State() != StateOpen {
			continue
		}
		if now.Sub(r.OpenedAt) > policy.Age {
			due = append(due, r)
		}
	}
	return due
}

// Escalate applies escalation side effects to each relation: the policy label
// on the blocked issue, a comment, notifications, and the EscalatedAt stamp.
// One relation's failure does not stop the others.
func (t *Tracker) Escalate(ctx context.Context, rels []*Relation, policy Policy) error {
	var errs []error
	for _, rel := range rels {
		if rel.State() != StateOpen {
			continue
		}
		diff := adapter.IssueDiff{AddLabels: []string{policy.Label}}
		if err := t.adapter.ApplyChange(ctx, rel.Blocked, diff); err != nil {
			errs = append(errs, fmt.Errorf("escalating %s: %w", rel.Blocked, err))
			continue
		}
		note := fmt.Sprintf("Escalated: blocked for over %s (%s, %s impact): %s",
			policy.Age, rel.Category, rel.Impact, rel.Reason)
		if err := t.adapter.AddComment(ctx, rel.Blocked, note); err != nil {
			errs = append(errs, fmt.Errorf("escalating %s: %w", rel.Blocked, err))
			continue
		}
		now := t.Now()
		rel.EscalatedAt = &now

		if t.notifier != nil && len(rel.NotifyList) > 0 {
			t.notifier.Notify(ctx, rel.NotifyList,
				fmt.Sprintf("Escalation: %s has been blocked for over %s (%s)", rel.Blocked, policy.Age, rel.Reason))
		}
		report.Emit(t.reporter, report.KindRelationEscalated, map[string]any{
			"relation": rel.ID,
			"blocked":  rel.Blocked.String(),
			"age":      now.Sub(rel.OpenedAt).String(),
		})
	}
	return errors.Join(errs...)
}

// Unblock resolves the relation: strips the blocked and escalation labels,
// records the resolution as a comment, stamps ResolvedAt, and notifies the
// issue's assignee. The relation is kept, not deleted.
func (t *Tracker) Unblock(ctx context.Context, rel *Relation, resolution string) error {
	if rel.State() == StateResolved {
		return types.Validationf("relation %s is already resolved", rel.ID)
	}
	if resolution == "" {
		return types.Validationf("resolution is required")
	}

	diff := adapter.IssueDiff{RemoveLabels: []string{BlockedLabel, t.cfg.EscalationLabel}}
	if err := t.adapter.ApplyChange(ctx, rel.Blocked, diff); err != nil {
		return fmt.Errorf("unlabeling %s: %w", rel.Blocked, err)
	}
	note := "Unblocked: " + resolution
	if err := t.adapter.AddComment(ctx, rel.Blocked, note); err != nil {
		return fmt.Errorf("commenting on %s: %w", rel.Blocked, err)
	}

	now := t.Now()
	rel.ResolvedAt = &now
	rel.Resolution = resolution

	if t.notifier != nil {
		if iss, err := t.adapter.GetIssue(ctx, rel.Blocked); err == nil && iss.Assignee != "" {
			t.notifier.Notify(ctx, []string{iss.Assignee},
				fmt.Sprintf("%s is unblocked: %s", rel.Blocked, resolution))
		}
	}
	report.Emit(t.reporter, report.KindRelationResolved, map[string]any{
		"relation":   rel.ID,
		"blocked":    rel.Blocked.String(),
		"resolution": resolution,
	})
	return nil
}
