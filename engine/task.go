package engine

import (
	"github.com/arborstep/step/frame"
	"github.com/arborstep/step/output"
	"github.com/arborstep/step/term"
)

// Task is anything a CallStep can invoke: a CompoundTask (user-defined
// methods) or a primitive (host function). Both are looked up the same
// way and invoked the same way.
type Task interface {
	Invoke(buf *output.Buffer, env Env, args []term.Term, k Continuation, predecessor *frame.Frame) bool
}

// DeterministicTextGenerator is a primitive ABI shape: it always
// succeeds, producing tokens appended in order.
type DeterministicTextGenerator func(args []term.Term, buf *output.Buffer, env Env) []string

// Invoke appends the generated tokens and continues; a
// DeterministicTextGenerator cannot itself fail.
func (f DeterministicTextGenerator) Invoke(buf *output.Buffer, env Env, args []term.Term, k Continuation, predecessor *frame.Frame) bool {
	tokens := f(args, buf, env)
	before := buf.Len()
	buf.Append(tokens...)
	if k(buf, env, predecessor) {
		return true
	}
	buf.Truncate(before)
	return false
}

// Predicate is a primitive ABI shape that succeeds or fails without
// emitting anything itself.
type Predicate func(args []term.Term, buf *output.Buffer, env Env) bool

// Invoke runs the predicate and, on success, invokes k.
func (f Predicate) Invoke(buf *output.Buffer, env Env, args []term.Term, k Continuation, predecessor *frame.Frame) bool {
	if !f(args, buf, env) {
		return false
	}
	return k(buf, env, predecessor)
}

// MetaTask is a primitive ABI shape that receives the success
// continuation directly, used to implement the higher-order combinators
// (DoAll, Once, ExactlyOnce, Max, Min) as ordinary primitives.
type MetaTask func(args []term.Term, buf *output.Buffer, env Env, k Continuation, predecessor *frame.Frame) bool

// Invoke simply delegates to f.
func (f MetaTask) Invoke(buf *output.Buffer, env Env, args []term.Term, k Continuation, predecessor *frame.Frame) bool {
	return f(args, buf, env, k, predecessor)
}
