// Package frame implements MethodCallFrame: a node in the
// current call stack used to reconstruct source-level stack traces. It is
// diagnostic only; proof-search correctness never depends on it.
package frame

import (
	"fmt"
	"strings"

	"github.com/arborstep/step/term"
)

// Frame is one active method activation. Predecessor chains backward to
// the caller's frame (nil at the top-level call). There is deliberately
// no process-wide current-frame pointer: the frame is threaded through
// the evaluation environment, so two concurrent top-level Calls on
// distinct modules never interfere.
type Frame struct {
	TaskName    string
	Args        []term.Term
	Locals      []*term.Var
	Predecessor *Frame
	Path        string
	Line        int
}

// New builds a frame for a method activation.
func New(taskName string, args []term.Term, locals []*term.Var, pred *Frame, path string, line int) *Frame {
	return &Frame{TaskName: taskName, Args: args, Locals: locals, Predecessor: pred, Path: path, Line: line}
}

// Backtrace renders the frame chain from innermost to outermost, one call
// per line.
func (f *Frame) Backtrace() string {
	var b strings.Builder
	for cur := f; cur != nil; cur = cur.Predecessor {
		fmt.Fprintf(&b, "  %s%s", cur.TaskName, argsString(cur.Args))
		if cur.Path != "" {
			fmt.Fprintf(&b, "\t%s:%d", cur.Path, cur.Line)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func argsString(args []term.Term) string {
	if len(args) == 0 {
		return ""
	}
	s := "("
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}
