// Package trace defines the engine's diagnostic event stream (Enter,
// Succeed, MethodFail, CallFail) and a structured sink for it built on
// github.com/charmbracelet/log.
package trace

import (
	"io"

	"github.com/charmbracelet/log"
)

// Kind identifies a TraceEvent.
type Kind int

const (
	// Enter fires when a method's step chain begins executing, after its
	// argument pattern has matched.
	Enter Kind = iota
	// Succeed fires when a method's step chain reaches its end via k.
	Succeed
	// MethodFail fires when a method's step chain returns false.
	MethodFail
	// CallFail fires whenever a compound task's call driver gives up
	// without a successful answer: after zero successes, or after the
	// caller rejected every answer offered. It fires before any
	// MustSucceed check raises CallFailed.
	CallFail
)

func (k Kind) String() string {
	switch k {
	case Enter:
		return "enter"
	case Succeed:
		return "succeed"
	case MethodFail:
		return "method_fail"
	case CallFail:
		return "call_fail"
	default:
		return "unknown"
	}
}

// Event is one diagnostic occurrence during evaluation.
type Event struct {
	Kind     Kind
	TaskName string
	Depth    int
}

// Sink receives trace events. The engine never blocks on a Sink and never
// fails a call because of one; Sink.Emit is fire-and-forget from the
// engine's point of view.
type Sink interface {
	Emit(Event)
}

// logSink adapts charmbracelet/log to Sink.
type logSink struct {
	logger *log.Logger
}

// NewSink returns a Sink that writes structured events to w at the
// given level.
func NewSink(w io.Writer, level log.Level) Sink {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: false,
		Level:           level,
	})
	return &logSink{logger: l}
}

// Discard is a Sink that drops every event; the default when a caller
// does not ask for tracing.
var Discard Sink = discardSink{}

type discardSink struct{}

func (discardSink) Emit(Event) {}

func (s *logSink) Emit(e Event) {
	switch e.Kind {
	case Enter:
		s.logger.Debug("enter", "task", e.TaskName, "depth", e.Depth)
	case Succeed:
		s.logger.Debug("succeed", "task", e.TaskName, "depth", e.Depth)
	case MethodFail:
		s.logger.Debug("method fail", "task", e.TaskName, "depth", e.Depth)
	case CallFail:
		s.logger.Warn("call fail", "task", e.TaskName, "depth", e.Depth)
	}
}
