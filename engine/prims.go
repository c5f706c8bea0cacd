package engine

import (
	"github.com/arborstep/step/frame"
	"github.com/arborstep/step/output"
	"github.com/arborstep/step/stepfail"
	"github.com/arborstep/step/term"
)

// writeTask is the primitive behind the "Mention" default fallback: it
// emits each argument's resolved textual form, space separated, and
// always succeeds, exactly like an EmitTermStep applied to every
// argument in turn.
var writeTask DeterministicTextGenerator = func(args []term.Term, buf *output.Buffer, env Env) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = env.Resolve(a).String()
	}
	return out
}

// stringFormTask is a tokenising primitive: it joins the textual form
// of every argument but the last with no separator and unifies the
// result against the last argument, so
// `[StringForm 123 ?x]` binds ?x to the string "123". It must be a
// MetaTask, not a Predicate, because unification needs to extend the
// local trail the continuation sees.
var stringFormTask MetaTask = func(args []term.Term, buf *output.Buffer, env Env, k Continuation, predecessor *frame.Frame) bool {
	if len(args) == 0 {
		return false
	}
	joined := ""
	for _, a := range args[:len(args)-1] {
		joined += env.Resolve(a).String()
	}
	trail, ok := term.Unify(term.String(joined), args[len(args)-1], env.Local)
	if !ok {
		return false
	}
	env.Local = trail
	return k(buf, env, predecessor)
}

// throwTask is the `Throw` primitive: it always raises a Thrown error
// carrying its argument terms unmodified, never returning to its caller.
var throwTask Predicate = func(args []term.Term, buf *output.Buffer, env Env) bool {
	panic(&stepfail.Thrown{Args: env.ResolveList(args)})
}

// stateVarArg resolves a primitive's name argument to an interned state
// variable: a bare token parses as a String, an already-interned StateVar
// passes through, and an unbound variable or anything else is an error.
func stateVarArg(context string, arg term.Term, env Env) *term.StateVar {
	switch n := env.Resolve(arg).(type) {
	case *term.StateVar:
		return n
	case term.String:
		return term.Intern(string(n))
	case *term.Var:
		panic(&stepfail.ArgumentInstantiation{Context: context})
	default:
		panic(&stepfail.ArgumentType{Context: context, Want: "state variable name", Got: n})
	}
}

// setTask binds a state variable in the dynamic state: `[Set Count 5]`.
// The binding is backtrack-safe like any other: it is consed onto the
// dynamic trail the continuation sees, and dropped if the continuation
// fails. It survives into the module's state via `initially` or the
// Result.State a successful top-level call returns.
var setTask MetaTask = func(args []term.Term, buf *output.Buffer, env Env, k Continuation, predecessor *frame.Frame) bool {
	if len(args) != 2 {
		panic(&stepfail.ArgumentCount{TaskName: "Set", Want: 2, Got: len(args)})
	}
	sv := stateVarArg("Set", args[0], env)
	env = env.BindState(sv, env.Resolve(args[1]))
	return k(buf, env, predecessor)
}

// getTask unifies a state variable's current value with its second
// argument: `[Get Count ?c]`. The dynamic state is consulted first, then
// the module dictionary; a name bound in neither raises UndefinedVariable.
var getTask MetaTask = func(args []term.Term, buf *output.Buffer, env Env, k Continuation, predecessor *frame.Frame) bool {
	if len(args) != 2 {
		panic(&stepfail.ArgumentCount{TaskName: "Get", Want: 2, Got: len(args)})
	}
	sv := stateVarArg("Get", args[0], env)
	val, ok := env.StateValue(sv)
	if !ok {
		panic(&stepfail.UndefinedVariable{Name: sv.Name()})
	}
	trail, ok := term.Unify(env.Instantiate(args[1]), val, env.Local)
	if !ok {
		return false
	}
	env.Local = trail
	return k(buf, env, predecessor)
}

// installBuiltins registers the engine's small set of built-in primitives
// on a fresh module and wires the "Mention" default fallback to the
// Write primitive, routed through the pluggable default-bindings table.
func installBuiltins(m *Module) {
	write := term.Native{Value: Task(writeTask), Label: "Write"}
	m.Set("Write", write)
	m.Set("StringForm", term.Native{Value: Task(stringFormTask), Label: "StringForm"})
	m.Set("Throw", term.Native{Value: Task(throwTask), Label: "Throw"})
	m.Set("Set", term.Native{Value: Task(setTask), Label: "Set"})
	m.Set("Get", term.Native{Value: Task(getTask), Label: "Get"})
	m.SetDefault("Mention", write)
}
