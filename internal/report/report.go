// Package report is the structured event sink for operation outcomes.
// It is a pure sink: no core behavior depends on whether anything listens.
package report

import (
	"time"

	"github.com/charmbracelet/log"
)

// Event kinds emitted by the engines.
const (
	KindPlanPreviewed     = "plan.previewed"
	KindPlanExecuted      = "plan.executed"
	KindRelationReported  = "relation.reported"
	KindRelationEscalated = "relation.escalated"
	KindRelationResolved  = "relation.resolved"
	KindSplitCommitted    = "split.committed"
	KindMergeCompleted    = "merge.completed"
)

// Event is one structured operation outcome.
type Event struct {
	Kind   string
	At     time.Time
	Fields map[string]any
}

// Sink receives events. Implementations must not block the caller for long
// and must never return errors into core flow.
type Sink interface {
	Emit(ev Event)
}

// LogSink writes events through a charmbracelet logger.
type LogSink struct {
	Logger *log.Logger
}

// NewLogSink wraps the given logger; nil uses the package default.
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{Logger: logger}
}

// Emit implements Sink.
func (s *LogSink) Emit(ev Event) {
	kv := make([]any, 0, 2*len(ev.Fields))
	for k, v := range ev.Fields {
		kv = append(kv, k, v)
	}
	s.Logger.Info(ev.Kind, kv...)
}

// Nop discards all events.
type Nop struct{}

// Emit implements Sink.
func (Nop) Emit(Event) {}

// Emit is a convenience for emitting through a possibly-nil sink.
func Emit(sink Sink, kind string, fields map[string]any) {
	if sink == nil {
		return
	}
	sink.Emit(Event{Kind: kind, At: time.Now(), Fields: fields})
}
