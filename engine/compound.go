package engine

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/arborstep/step/frame"
	"github.com/arborstep/step/output"
	"github.com/arborstep/step/stepfail"
	"github.com/arborstep/step/term"
	"github.com/arborstep/step/trace"
)

// Flags is the per-task flag set. Declaring a method unions
// flags onto the task; there is deliberately no API to clear an
// individual flag; EraseMethods is the only reset.
type Flags struct {
	Shuffle             bool
	MultipleSolutions   bool
	Fallible            bool
	Main                bool
}

func (f Flags) union(o Flags) Flags {
	return Flags{
		Shuffle:           f.Shuffle || o.Shuffle,
		MultipleSolutions: f.MultipleSolutions || o.MultipleSolutions,
		Fallible:          f.Fallible || o.Fallible,
		Main:              f.Main || o.Main,
	}
}

// Deterministic reports the task's semantic contract that it promises at
// most one answer per call. This is the default; a task opts out with the
// MultipleSolutions flag.
func (f Flags) Deterministic() bool { return !f.MultipleSolutions }

// MustSucceed reports whether a call that exhausts every method without a
// success should raise CallFailed rather than silently returning false.
func (f Flags) MustSucceed() bool { return !f.Fallible }

// CompoundTask is a user-defined task: a name, a declared arity, its
// methods in declaration order, and its flag set.
type CompoundTask struct {
	Name    string
	Arity   int
	Methods []*Method
	Flags   Flags
	Sink    trace.Sink
}

// NewCompoundTask creates an empty task of the given name and arity.
func NewCompoundTask(name string, arity int) *CompoundTask {
	return &CompoundTask{Name: name, Arity: arity, Sink: trace.Discard}
}

// AddMethod appends a method, unioning its flags onto the task, and enforces arity.
func (t *CompoundTask) AddMethod(m *Method, flags Flags) error {
	if len(m.Pattern) != t.Arity {
		return &stepfail.ArgumentCount{TaskName: t.Name, Want: t.Arity, Got: len(m.Pattern)}
	}
	t.Methods = append(t.Methods, m)
	t.Flags = t.Flags.union(flags)
	return nil
}

// EraseMethods removes every method from the task and resets flags to
// empty; the monotonic union only ever grows otherwise.
func (t *CompoundTask) EraseMethods() {
	t.Methods = nil
	t.Flags = Flags{}
}

// effectiveMethods computes the order methods are tried in for one call:
// declaration order, or, if Shuffle is set, a weighted-shuffle
// permutation using the "sort by -ln(U)/w" sampler, which draws
// an expected order proportional to the weights in O(n log n). With equal
// weights the result is a uniformly random permutation, not the declared
// order; it repeats from run to run only when rng is seeded identically.
func (t *CompoundTask) effectiveMethods(rng *rand.Rand) []*Method {
	if !t.Flags.Shuffle || len(t.Methods) < 2 {
		return t.Methods
	}
	type scored struct {
		m     *Method
		score float64
	}
	float := rand.Float64
	if rng != nil {
		float = rng.Float64
	}
	scratch := make([]scored, len(t.Methods))
	for i, m := range t.Methods {
		w := m.Weight
		if w <= 0 {
			w = 1
		}
		u := float()
		for u == 0 {
			u = float()
		}
		scratch[i] = scored{m: m, score: -math.Log(u) / w}
	}
	sort.Slice(scratch, func(i, j int) bool { return scratch[i].score < scratch[j].score })
	out := make([]*Method, len(scratch))
	for i, s := range scratch {
		out[i] = s.m
	}
	return out
}

// Invoke is the call driver: it checks arity, computes the
// effective method order, tries each method (stopping after the first
// success if the task is Deterministic), and raises CallFailed if the
// task MustSucceed and zero methods succeeded.
func (t *CompoundTask) Invoke(buf *output.Buffer, env Env, args []term.Term, k Continuation, predecessor *frame.Frame) bool {
	if len(args) != t.Arity {
		panic(&stepfail.ArgumentCount{TaskName: t.Name, Want: t.Arity, Got: len(args)})
	}

	depth := 0
	for f := predecessor; f != nil; f = f.Predecessor {
		depth++
	}

	var rng *rand.Rand
	if env.Thread != nil {
		rng = env.Thread.Rand
	}

	// chainSucceeded records whether any method's step chain reached its
	// success continuation, even if the caller's k then rejected the
	// answer. A deterministic task promises at most one answer: once a
	// method has produced one, a rejection must not fall through to the
	// next method. A MultipleSolutions task keeps going, which is how
	// DoAll/Max/Min enumerate its answers.
	chainSucceeded := false
	wrapped := func(buf *output.Buffer, env Env, predecessor *frame.Frame) bool {
		chainSucceeded = true
		return k(buf, env, predecessor)
	}
	for _, m := range t.effectiveMethods(rng) {
		if m.Try(buf, env, args, predecessor, wrapped, t.Sink, depth) {
			return true
		}
		if chainSucceeded && t.Flags.Deterministic() {
			break
		}
	}

	t.Sink.Emit(trace.Event{Kind: trace.CallFail, TaskName: t.Name, Depth: depth})
	if !chainSucceeded && t.Flags.MustSucceed() {
		panic(&stepfail.CallFailed{TaskName: t.Name, Args: args, Frame: predecessor})
	}
	return false
}
