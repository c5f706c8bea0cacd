package engine

import (
	"github.com/arborstep/step/frame"
	"github.com/arborstep/step/output"
	"github.com/arborstep/step/stepfail"
	"github.com/arborstep/step/term"
)

// nonLocalExit is the in-band control signal Once/ExactlyOnce/Max/Min use
// to escape the backtracking search once they have the answer they want.
// It is unexported: no other package can
// construct, catch, or accidentally swallow one, so it can never be
// mistaken for a CallFailed or leak past the combinator that raised it.
type nonLocalExit struct {
	buf         []string
	local       term.Trail
	dyn         DynTrail
	predecessor *frame.Frame
}

// captured is one recorded solution of a combinator's body: its output
// slice and the bindings/state in effect when it succeeded.
type captured struct {
	slice []string
	local term.Trail
	dyn   DynTrail
	pred  *frame.Frame
}

// runBody drives body (a Step chain built from the combinator's argument
// tuple) to find solutions, invoking onSolution for each one. onSolution
// returns true to keep searching for more solutions, false to stop early.
// (Once does not return at all: it raises nonLocalExit from onSolution.)
func runBody(buf *output.Buffer, env Env, body Step, predecessor *frame.Frame, onSolution func(captured) bool) {
	before := buf.Len()
	continueChain(body, buf, env, func(buf *output.Buffer, env Env, pred *frame.Frame) bool {
		after := buf.Len()
		c := captured{
			slice: buf.Difference(before, after),
			local: env.Local,
			dyn:   env.Dyn,
			pred:  pred,
		}
		keepGoing := onSolution(c)
		// Returning false here tells the body's search to backtrack and
		// look for another solution; returning true commits.
		return !keepGoing
	}, predecessor)
}

// DoAll collects every successful output slice of body, concatenates them
// into the current buffer in search order, and invokes k once with the
// environment as it stood on entry: DoAll never propagates any inner
// unification outward.
func DoAll(body Step) MetaTask {
	return func(args []term.Term, buf *output.Buffer, env Env, k Continuation, predecessor *frame.Frame) bool {
		var all []string
		runBody(buf, env, body, predecessor, func(c captured) bool {
			all = append(all, c.slice...)
			return true // keep searching for every solution
		})
		buf.AppendSlice(all)
		return k(buf, env, predecessor)
	}
}

// Once runs body and, on its first success, commits to that answer: the
// surrounding search stack for body is discarded and k is invoked with the
// captured state. Implemented with nonLocalExit rather than as a loop,
// since the commit must happen from inside the still-live continuation
// chain.
func Once(body Step) MetaTask {
	return func(args []term.Term, buf *output.Buffer, env Env, k Continuation, predecessor *frame.Frame) bool {
		c, ok := once(buf, env, body, predecessor)
		if !ok {
			return false
		}
		buf.AppendSlice(c.slice)
		env.Local, env.Dyn = c.local, c.dyn
		return k(buf, env, c.pred)
	}
}

func once(buf *output.Buffer, env Env, body Step, predecessor *frame.Frame) (captured, bool) {
	before := buf.Len()
	var result *captured
	func() {
		defer func() {
			if r := recover(); r != nil {
				if exit, ok := r.(nonLocalExit); ok {
					// The exit skipped every step's truncate-on-failure, so
					// drop the body's output here; the caller replays it.
					buf.Truncate(before)
					result = &captured{slice: exit.buf, local: exit.local, dyn: exit.dyn, pred: exit.predecessor}
					return
				}
				panic(r)
			}
		}()
		runBody(buf, env, body, predecessor, func(c captured) bool {
			panic(nonLocalExit{buf: c.slice, local: c.local, dyn: c.dyn, predecessor: c.pred})
		})
	}()
	if result == nil {
		return captured{}, false
	}
	return *result, true
}

// ExactlyOnce is Once, but raises CallFailed (naming the first call term
// in body) instead of returning false when body has zero solutions.
func ExactlyOnce(body Step, firstCallName string) MetaTask {
	return func(args []term.Term, buf *output.Buffer, env Env, k Continuation, predecessor *frame.Frame) bool {
		c, ok := once(buf, env, body, predecessor)
		if !ok {
			panic(&stepfail.CallFailed{TaskName: firstCallName, Args: args, Frame: predecessor})
		}
		buf.AppendSlice(c.slice)
		env.Local, env.Dyn = c.local, c.dyn
		return k(buf, env, c.pred)
	}
}

// extremum drives Max/Min: iterate every solution of body, dereference
// scoreVar at each success, and keep the best-scoring capture. better(a,
// b) reports whether score a should replace the current best score b.
func extremum(scoreVar term.Term, body Step, buf *output.Buffer, env Env, predecessor *frame.Frame, better func(a, b float64) bool) (captured, term.Number, bool) {
	var (
		best      captured
		bestScore term.Number
		haveBest  bool
	)
	runBody(buf, env, body, predecessor, func(c captured) bool {
		scoreTerm := term.Resolve(scoreVar, c.local)
		if _, isVar := scoreTerm.(*term.Var); isVar {
			panic(&stepfail.ArgumentInstantiation{Context: "Max/Min score"})
		}
		num, ok := scoreTerm.(term.Number)
		if !ok {
			panic(&stepfail.ArgumentType{Context: "Max/Min score", Want: "number", Got: scoreTerm})
		}
		if !num.IsFinite() {
			panic(&stepfail.ArgumentType{Context: "Max/Min score", Want: "finite number", Got: scoreTerm})
		}
		if !haveBest || better(num.AsFloat(), bestScore.AsFloat()) {
			best = c
			bestScore = num
			haveBest = true
		}
		return true // keep searching every solution
	})
	return best, bestScore, haveBest
}

// Max iterates all solutions of body, tracks the one with the largest
// scoreVar, and replays it.
func Max(scoreVar *term.Var, body Step) MetaTask {
	return func(args []term.Term, buf *output.Buffer, env Env, k Continuation, predecessor *frame.Frame) bool {
		best, _, ok := extremum(env.Instantiate(scoreVar), body, buf, env, predecessor, func(a, b float64) bool { return a > b })
		if !ok {
			return false
		}
		buf.AppendSlice(best.slice)
		env.Local, env.Dyn = best.local, best.dyn
		return k(buf, env, best.pred)
	}
}

// Min is Max with the comparison reversed.
func Min(scoreVar *term.Var, body Step) MetaTask {
	return func(args []term.Term, buf *output.Buffer, env Env, k Continuation, predecessor *frame.Frame) bool {
		best, _, ok := extremum(env.Instantiate(scoreVar), body, buf, env, predecessor, func(a, b float64) bool { return a < b })
		if !ok {
			return false
		}
		buf.AppendSlice(best.slice)
		env.Local, env.Dyn = best.local, best.dyn
		return k(buf, env, best.pred)
	}
}
