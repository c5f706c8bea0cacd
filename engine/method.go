package engine

import (
	"github.com/arborstep/step/frame"
	"github.com/arborstep/step/output"
	"github.com/arborstep/step/stepfail"
	"github.com/arborstep/step/term"
	"github.com/arborstep/step/trace"
)

// Method is one clause of a CompoundTask: an argument pattern plus a step
// chain.
type Method struct {
	TaskName string
	Pattern  term.Tuple   // may embed the locals below as placeholders
	Locals   []*term.Var  // declared local slots, one fresh Var per Try
	Body     Step         // chain head, nil for an empty body
	Weight   float64
	Path     string
	Line     int
}

// freshen replaces every declared local in pattern and body with a fresh
// Var, by substitution over a map keyed on the declared Var identity. The
// pattern and body stored on Method are templates: each Try call needs its
// own set of locals so that concurrent or re-entrant activations never
// alias each other's bindings.
func (m *Method) freshen() (term.Tuple, map[*term.Var]*term.Var) {
	subst := make(map[*term.Var]*term.Var, len(m.Locals))
	for _, v := range m.Locals {
		subst[v] = term.NewVar(v.String())
	}
	return substituteTuple(m.Pattern, subst), subst
}

func substituteTuple(t term.Tuple, subst map[*term.Var]*term.Var) term.Tuple {
	out := make(term.Tuple, len(t))
	for i, e := range t {
		out[i] = substituteTerm(e, subst)
	}
	return out
}

func substituteTerm(t term.Term, subst map[*term.Var]*term.Var) term.Term {
	switch v := t.(type) {
	case *term.Var:
		if fresh, ok := subst[v]; ok {
			return fresh
		}
		return v
	case term.Tuple:
		return substituteTuple(v, subst)
	case *term.ListCell:
		return &term.ListCell{Head: substituteTerm(v.Head, subst), Tail: substituteTerm(v.Tail, subst)}
	default:
		return t
	}
}

// Try attempts this method against args:
//  1. allocate fresh locals and substitute them into the pattern
//  2. unify the pattern against args; fail immediately (no frame, no
//     output) if that fails
//  3. build a MethodCallFrame
//  4. emit an Enter trace event
//  5. run the step chain with a continuation that emits Succeed and
//     restores the caller's frame before delegating to k
//  6. on failure, emit MethodFail and return false
func (m *Method) Try(buf *output.Buffer, env Env, args []term.Term, predecessor *frame.Frame, k Continuation, sink trace.Sink, depth int) bool {
	pattern, substMap := m.freshen()

	trail := env.Local
	ok := true
	if len(pattern) != len(args) {
		return false
	}
	for i := range pattern {
		var unifyOK bool
		trail, unifyOK = term.Unify(pattern[i], args[i], trail)
		if !unifyOK {
			ok = false
			break
		}
	}
	if !ok {
		return false
	}

	if env.Thread != nil && !env.Thread.Step() {
		panic(&stepfail.StepBudgetExceeded{TaskName: m.TaskName, Reason: env.Thread.CancelReason()})
	}

	locals := make([]*term.Var, len(m.Locals))
	for i, v := range m.Locals {
		locals[i] = substMap[v]
	}

	fr := frame.New(m.TaskName, args, locals, predecessor, m.Path, m.Line)
	callerSubst := env.Subst
	callEnv := env
	callEnv.Local = trail
	callEnv.Subst = substMap
	callEnv = callEnv.WithFrame(fr)

	sink.Emit(trace.Event{Kind: trace.Enter, TaskName: m.TaskName, Depth: depth})

	succeeded := continueChain(m.Body, buf, callEnv, func(buf *output.Buffer, env Env, _ *frame.Frame) bool {
		sink.Emit(trace.Event{Kind: trace.Succeed, TaskName: m.TaskName, Depth: depth})
		env = env.WithFrame(predecessor)
		env.Subst = callerSubst
		return k(buf, env, predecessor)
	}, fr)

	if !succeeded {
		sink.Emit(trace.Event{Kind: trace.MethodFail, TaskName: m.TaskName, Depth: depth})
	}
	return succeeded
}
