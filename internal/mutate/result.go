package mutate

import (
	"time"

	"github.com/droverhq/drover/internal/types"
)

// Outcome classifies what happened to one issue during execution.
type Outcome string

// Per-issue outcomes.
const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Skip reasons.
const (
	ReasonPreview        = "preview"
	ReasonAlreadyApplied = "already-applied"
	ReasonCanceled       = "canceled"
)

// Result is the outcome for one issue. Reason carries the skip reason or the
// failure message.
type Result struct {
	Ref     types.Ref `json:"ref"`
	Outcome Outcome   `json:"outcome"`
	Reason  string    `json:"reason,omitempty"`
}

// BatchResult aggregates per-issue results for one Execute call. Failures are
// recorded per issue and never abort the batch, so callers always get one
// result per planned issue.
type BatchResult struct {
	Mode       Mode      `json:"mode"`
	Results    []Result  `json:"results"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (b *BatchResult) count(o Outcome) int {
	n := 0
	for _, r := range b.Results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

// Succeeded returns the number of issues written successfully.
func (b *BatchResult) Succeeded() int { return b.count(OutcomeSucceeded) }

// Failed returns the number of issues whose write failed.
func (b *BatchResult) Failed() int { return b.count(OutcomeFailed) }

// Skipped returns the number of issues skipped (preview, no-op, canceled).
func (b *BatchResult) Skipped() int { return b.count(OutcomeSkipped) }

// FailedRefs returns the refs that failed, in plan order, for retry runs.
func (b *BatchResult) FailedRefs() []types.Ref {
	var refs []types.Ref
	for _, r := range b.Results {
		if r.Outcome == OutcomeFailed {
			refs = append(refs, r.Ref)
		}
	}
	return refs
}
