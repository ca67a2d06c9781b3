package mutate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/droverhq/drover/internal/adapter"
	"github.com/droverhq/drover/internal/config"
	"github.com/droverhq/drover/internal/notify"
	"github.com/droverhq/drover/internal/report"
	"github.com/droverhq/drover/internal/types"
)

// Mode selects between a dry preview and a real commit.
type Mode string

// Execution modes.
const (
	ModePreview Mode = "preview"
	ModeCommit  Mode = "commit"
)

// Options tune one Execute call.
type Options struct {
	// Force commits a large plan without a prior preview.
	Force bool
	// Previewed marks that the caller already ran and reviewed a preview.
	Previewed bool
}

// Engine executes mutation plans against one adapter. Comment and notify side
// effects are best-effort: their failures are logged, never fatal.
type Engine struct {
	adapter  adapter.Adapter
	notifier notify.Notifier
	reporter report.Sink
	cfg      config.Config
	logger   *log.Logger

	// retryBase is the initial backoff interval; tests shrink it.
	retryBase time.Duration
}

// NewEngine wires an engine. Notifier and reporter may be nil.
func NewEngine(a adapter.Adapter, n notify.Notifier, r report.Sink, cfg config.Config) *Engine {
	return &Engine{
		adapter:   a,
		notifier:  n,
		reporter:  r,
		cfg:       cfg,
		logger:    log.Default(),
		retryBase: 200 * time.Millisecond,
	}
}

// Execute runs the plan in the given mode. Preview never touches the adapter.
// Commit fans out across cfg.Workers goroutines, re-reads each issue before
// writing, retries transient failures, and isolates per-issue errors. The
// returned BatchResult always has one entry per planned issue, in plan order.
func (e *Engine) Execute(ctx context.Context, plan *Plan, mode Mode, opts Options) (*BatchResult, error) {
	entries := plan.Entries()
	batch := &BatchResult{
		Mode:      mode,
		Results:   make([]Result, len(entries)),
		StartedAt: time.Now(),
	}

	switch mode {
	case ModePreview:
		for i, ch := range entries {
			reason := ReasonPreview
			if ch.NoOp {
				reason = ReasonAlreadyApplied
			}
			batch.Results[i] = Result{Ref: ch.Ref, Outcome: OutcomeSkipped, Reason: reason}
		}
		batch.FinishedAt = time.Now()
		report.Emit(e.reporter, report.KindPlanPreviewed, map[string]any{
			"issues": plan.Size(),
			"active": plan.ActiveSize(),
		})
		return batch, nil

	case ModeCommit:
		if plan.Size() > e.cfg.PreviewThreshold && !opts.Force && !opts.Previewed {
			return nil, types.Validationf(
				"plan touches %d issues (threshold %d): preview first or pass force",
				plan.Size(), e.cfg.PreviewThreshold)
		}

	default:
		return nil, types.Validationf("unknown execution mode %q", mode)
	}

	sem := semaphore.NewWeighted(int64(e.cfg.Workers))
	var wg sync.WaitGroup
	for i, ch := range entries {
		if ch.NoOp {
			batch.Results[i] = Result{Ref: ch.Ref, Outcome: OutcomeSkipped, Reason: ReasonAlreadyApplied}
			continue
		}
		// A canceled context stops launching; in-flight workers finish and
		// record their own outcomes.
		if err := sem.Acquire(ctx, 1); err != nil {
			batch.Results[i] = Result{Ref: ch.Ref, Outcome: OutcomeSkipped, Reason: ReasonCanceled}
			continue
		}
		wg.Add(1)
		go func(i int, ch Change) {
			defer wg.Done()
			defer sem.Release(1)
			batch.Results[i] = e.commitOne(ctx, plan.changes, ch)
		}(i, ch)
	}
	wg.Wait()

	batch.FinishedAt = time.Now()
	report.Emit(e.reporter, report.KindPlanExecuted, map[string]any{
		"succeeded": batch.Succeeded(),
		"failed":    batch.Failed(),
		"skipped":   batch.Skipped(),
	})
	return batch, nil
}

// commitOne re-reads the issue, recomputes the diff against its current
// state, and applies it. An issue that already matches the intent is skipped
// without a write, which makes re-running a plan safe.
func (e *Engine) commitOne(ctx context.Context, changes Changes, ch Change) Result {
	var res Result
	op := func() error {
		cur, err := e.call(ctx, func(cctx context.Context) (*types.Issue, error) {
			return e.adapter.GetIssue(cctx, ch.Ref)
		})
		if err != nil {
			return classify(err)
		}
		diff, err := changes.DiffFor(cur)
		if err != nil {
			return backoff.Permanent(err)
		}
		if diff.Empty() {
			res = Result{Ref: ch.Ref, Outcome: OutcomeSkipped, Reason: ReasonAlreadyApplied}
			return nil
		}
		_, err = e.call(ctx, func(cctx context.Context) (*types.Issue, error) {
			return nil, e.adapter.ApplyChange(cctx, ch.Ref, diff)
		})
		if err != nil {
			return classify(err)
		}
		res = Result{Ref: ch.Ref, Outcome: OutcomeSucceeded}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.retryBase
	b.MaxElapsedTime = 0
	retries := uint64(e.cfg.RetryMaxAttempts - 1)
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)); err != nil {
		return Result{Ref: ch.Ref, Outcome: OutcomeFailed, Reason: err.Error()}
	}
	if res.Outcome == OutcomeSucceeded {
		e.recordSideEffects(ctx, changes, ch.Ref)
	}
	return res
}

// call runs one adapter operation under the per-call timeout.
func (e *Engine) call(ctx context.Context, fn func(context.Context) (*types.Issue, error)) (*types.Issue, error) {
	cctx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()
	return fn(cctx)
}

func (e *Engine) recordSideEffects(ctx context.Context, changes Changes, ref types.Ref) {
	if changes.Comment != "" {
		cctx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
		err := e.adapter.AddComment(cctx, ref, changes.Comment)
		cancel()
		if err != nil {
			e.logger.Warn("audit comment failed", "ref", ref.String(), "error", err)
		}
	}
	if len(changes.Notify) > 0 && e.notifier != nil {
		msg := fmt.Sprintf("Updated %s: %s", ref, changes.Summary())
		e.notifier.Notify(ctx, changes.Notify, msg)
	}
}

// classify maps adapter errors onto retry behavior: permanent errors stop
// immediately, everything else is assumed transient.
func classify(err error) error {
	if adapter.IsPermanent(err) || types.IsValidation(err) {
		return backoff.Permanent(err)
	}
	return err
}
