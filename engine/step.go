package engine

import (
	"math/rand/v2"

	"github.com/arborstep/step/frame"
	"github.com/arborstep/step/output"
	"github.com/arborstep/step/term"
)

// Step is one atomic operation inside a method body: emit,
// call, branch, or bind, each holding a link to its successor. A step
// chain is built right-to-left at parse time so appending is cheap and
// execution is a tail-call-shaped traversal: Try invokes its own logic and
// then continue(s) into Next, or directly into k if Next is nil.
type Step interface {
	// Try executes this step and everything after it. k is invoked at the
	// end of the chain, once for every way the chain reaches its end (a
	// rejected answer lets branches and multi-method calls retry), and its
	// return value is propagated back up through every Try call along the way.
	Try(buf *output.Buffer, env Env, k Continuation, predecessor *frame.Frame) bool

	// Next returns the following step, or nil at the end of the chain.
	Next() Step
}

// continueChain invokes next.Try if next is non-nil, else invokes k
// directly with the incoming state.
func continueChain(next Step, buf *output.Buffer, env Env, k Continuation, predecessor *frame.Frame) bool {
	if next == nil {
		return k(buf, env, predecessor)
	}
	return next.Try(buf, env, k, predecessor)
}

// EmitStep appends a fixed token sequence, then continues.
type EmitStep struct {
	Tokens []string
	next   Step
}

// NewEmit builds an EmitStep with the given successor.
func NewEmit(tokens []string, next Step) *EmitStep {
	return &EmitStep{Tokens: tokens, next: next}
}

func (s *EmitStep) Next() Step { return s.next }

func (s *EmitStep) Try(buf *output.Buffer, env Env, k Continuation, predecessor *frame.Frame) bool {
	before := buf.Len()
	buf.Append(s.Tokens...)
	if continueChain(s.next, buf, env, k, predecessor) {
		return true
	}
	buf.Truncate(before)
	return false
}

// CallStep invokes another task (compound or primitive) by name, with a
// resolved argument term list, then continues.
type CallStep struct {
	TaskTerm term.Term
	Args     []term.Term
	next     Step
}

// NewCall builds a CallStep with the given successor.
func NewCall(taskTerm term.Term, args []term.Term, next Step) *CallStep {
	return &CallStep{TaskTerm: taskTerm, Args: args, next: next}
}

func (s *CallStep) Next() Step { return s.next }

func (s *CallStep) Try(buf *output.Buffer, env Env, k Continuation, predecessor *frame.Frame) bool {
	before := buf.Len()
	taskVal := env.Resolve(s.TaskTerm)
	name, ok := taskVal.(term.String)
	if !ok {
		if sv, ok := taskVal.(*term.StateVar); ok {
			name = term.String(sv.Name())
		} else {
			buf.Truncate(before)
			return false
		}
	}

	arity := len(s.Args)
	task, err := env.Module.Resolve(env, string(name), arity)
	if err != nil {
		panic(err)
	}

	resolvedArgs := env.ResolveList(s.Args)

	ok = task.Invoke(buf, env, resolvedArgs, func(buf *output.Buffer, env Env, predecessor *frame.Frame) bool {
		return continueChain(s.next, buf, env, k, predecessor)
	}, predecessor)
	if !ok {
		buf.Truncate(before)
		return false
	}
	return true
}

// EmitTermStep resolves a term against the current local trail and emits
// its textual form, then continues. Unlike EmitStep's fixed token
// sequence, the token here is only known at run time: the builder emits
// one of these for a bare `?var` occurrence in a step chain's body.
type EmitTermStep struct {
	Term term.Term
	next Step
}

// NewEmitTerm builds an EmitTermStep with the given successor.
func NewEmitTerm(t term.Term, next Step) *EmitTermStep {
	return &EmitTermStep{Term: t, next: next}
}

func (s *EmitTermStep) Next() Step { return s.next }

func (s *EmitTermStep) Try(buf *output.Buffer, env Env, k Continuation, predecessor *frame.Frame) bool {
	before := buf.Len()
	buf.Append(env.Resolve(s.Term).String())
	if continueChain(s.next, buf, env, k, predecessor) {
		return true
	}
	buf.Truncate(before)
	return false
}

// BranchStep tries each alternative sub-chain in order (or shuffled), then
// continues via whichever alternative succeeded. A nil alternative means
// "do nothing and continue", the empty [else] clause.
type BranchStep struct {
	Alternatives []Step
	Shuffle      bool
	next         Step
}

// NewBranch builds a BranchStep with the given successor.
func NewBranch(alts []Step, shuffle bool, next Step) *BranchStep {
	return &BranchStep{Alternatives: alts, Shuffle: shuffle, next: next}
}

func (s *BranchStep) Next() Step { return s.next }

func (s *BranchStep) Try(buf *output.Buffer, env Env, k Continuation, predecessor *frame.Frame) bool {
	order := s.Alternatives
	if s.Shuffle {
		var rng *rand.Rand
		if env.Thread != nil {
			rng = env.Thread.Rand
		}
		order = shuffleSteps(order, rng)
	}
	for _, alt := range order {
		before := buf.Len()
		ok := continueChain(alt, buf, env, func(buf *output.Buffer, env Env, predecessor *frame.Frame) bool {
			return continueChain(s.next, buf, env, k, predecessor)
		}, predecessor)
		if ok {
			return true
		}
		buf.Truncate(before)
	}
	return false
}

func shuffleSteps(steps []Step, rng *rand.Rand) []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// PrimitiveStep invokes an already-resolved Task (typically a
// combinator closure built at definition time, e.g. DoAll(body) or
// Max(scoreVar, body)) with a resolved argument list, then continues.
// Unlike CallStep, there is no by-name lookup: the task is fixed when
// the step is constructed, which is how the higher-order combinators
// bind their captured body Step without needing a runtime name.
type PrimitiveStep struct {
	Task Task
	Args []term.Term
	next Step
}

// NewPrimitive builds a PrimitiveStep with the given successor.
func NewPrimitive(task Task, args []term.Term, next Step) *PrimitiveStep {
	return &PrimitiveStep{Task: task, Args: args, next: next}
}

func (s *PrimitiveStep) Next() Step { return s.next }

func (s *PrimitiveStep) Try(buf *output.Buffer, env Env, k Continuation, predecessor *frame.Frame) bool {
	before := buf.Len()
	resolvedArgs := env.ResolveList(s.Args)
	ok := s.Task.Invoke(buf, env, resolvedArgs, func(buf *output.Buffer, env Env, predecessor *frame.Frame) bool {
		return continueChain(s.next, buf, env, k, predecessor)
	}, predecessor)
	if !ok {
		buf.Truncate(before)
		return false
	}
	return true
}

// BindStep unifies two terms; on success it continues with the extended
// trail, on failure it returns false without ever invoking k.
type BindStep struct {
	Left, Right term.Term
	next        Step
}

// NewBind builds a BindStep with the given successor.
func NewBind(left, right term.Term, next Step) *BindStep {
	return &BindStep{Left: left, Right: right, next: next}
}

func (s *BindStep) Next() Step { return s.next }

func (s *BindStep) Try(buf *output.Buffer, env Env, k Continuation, predecessor *frame.Frame) bool {
	trail, ok := term.Unify(env.Instantiate(s.Left), env.Instantiate(s.Right), env.Local)
	if !ok {
		return false
	}
	env.Local = trail
	return continueChain(s.next, buf, env, k, predecessor)
}
