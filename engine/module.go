package engine

import (
	"github.com/arborstep/step/frame"
	"github.com/arborstep/step/output"
	"github.com/arborstep/step/stepfail"
	"github.com/arborstep/step/term"
	"github.com/arborstep/step/trace"
)

// BindHook supplies a value for a state variable that the module's own
// dictionary and parent chain don't have. initiator is the module where
// the lookup originated: hooks cache their result there, not in the
// module that owns the hook, so derived values shadow the parent for
// subsequent lookups.
type BindHook func(initiator *Module, name string) (term.Term, bool)

type taskKey struct {
	name  string
	arity int
}

// Module is the named storage of tasks and state: a dictionary from
// state-variable identity to value, an optional parent for lookup
// fallback, and an optional list of bind hooks.
type Module struct {
	dict     *dict
	tasks    map[taskKey]*CompoundTask
	parent   *Module
	hooks    []BindHook
	Sink     trace.Sink
	defaults map[string]term.Term // pluggable default-bindings table
}

// NewModule returns an empty module with no parent, pre-populated with
// the engine's built-in primitives (Write, StringForm, Throw, Set, Get)
// and the "Mention" default fallback.
func NewModule() *Module {
	m := &Module{
		dict:     newDict(),
		tasks:    make(map[taskKey]*CompoundTask),
		Sink:     trace.Discard,
		defaults: make(map[string]term.Term),
	}
	installBuiltins(m)
	return m
}

// NewChildModule returns an empty module whose lookups fall back to
// parent. It carries no builtins of its own; Write/StringForm/Throw/
// Set/Get/Mention are inherited through the parent chain.
func NewChildModule(parent *Module) *Module {
	return &Module{
		dict:     newDict(),
		tasks:    make(map[taskKey]*CompoundTask),
		parent:   parent,
		Sink:     trace.Discard,
		defaults: make(map[string]term.Term),
	}
}

// AddBindHook registers a hook, tried after the dictionary/parent chain.
func (m *Module) AddBindHook(h BindHook) {
	m.hooks = append(m.hooks, h)
}

// SetDefault installs a pluggable default binding, consulted only when no
// dictionary entry, parent, or hook supplies a value for that name. The
// engine ships exactly one built-in default ("Mention" resolves to the
// module's Write primitive), routed through this table instead of a
// special case in lookup so it can be overridden or removed.
func (m *Module) SetDefault(name string, value term.Term) {
	m.defaults[name] = value
}

// Get looks name up: dictionary, then parent chain, then bind hooks in
// chain order, then the default-bindings table.
func (m *Module) Get(name string) (term.Term, bool) {
	return m.lookup(m, term.Intern(name))
}

// GetVar is Get for an already-interned state variable.
func (m *Module) GetVar(sv *term.StateVar) (term.Term, bool) {
	return m.lookup(m, sv)
}

func (m *Module) lookup(initiator *Module, sv *term.StateVar) (term.Term, bool) {
	for mod := m; mod != nil; mod = mod.parent {
		if v, ok := mod.dict.get(sv); ok {
			return v, true
		}
	}
	for mod := m; mod != nil; mod = mod.parent {
		for _, hook := range mod.hooks {
			if v, ok := hook(initiator, sv.Name()); ok {
				initiator.dict.set(sv, v)
				return v, true
			}
		}
	}
	for mod := m; mod != nil; mod = mod.parent {
		if v, ok := mod.defaults[sv.Name()]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set binds name in this module's own dictionary, shadowing (but not
// mutating) any parent binding.
func (m *Module) Set(name string, value term.Term) {
	m.dict.set(term.Intern(name), value)
}

// Defines reports whether name is bound in this module's own dictionary
// (not the parent chain or hooks).
func (m *Module) Defines(name string) bool {
	return m.dict.has(term.Intern(name))
}

// FindMainTask returns a task flagged Main (searching this module, then
// its parent chain), for driver programs that want "the" entry point of a
// loaded source tree without the caller having to name it. Tasks within a
// module are kept in a map, so when several there are flagged Main, which
// one is returned is not defined.
func (m *Module) FindMainTask() (*CompoundTask, bool) {
	for mod := m; mod != nil; mod = mod.parent {
		for _, t := range mod.tasks {
			if t.Flags.Main {
				return t, true
			}
		}
	}
	return nil, false
}

// FindTask resolves a task by name and arity, searching this module then
// its parent chain. If none is found and createIfNeeded is set, a new
// empty CompoundTask is created in this module (never in a parent) and
// returned.
func (m *Module) FindTask(name string, arity int, createIfNeeded bool) (*CompoundTask, bool) {
	key := taskKey{name, arity}
	for mod := m; mod != nil; mod = mod.parent {
		if t, ok := mod.tasks[key]; ok {
			return t, true
		}
	}
	if !createIfNeeded {
		return nil, false
	}
	t := NewCompoundTask(name, arity)
	t.Sink = m.Sink
	m.tasks[key] = t
	return t, true
}

// Resolve looks up the callable named name/arity for a CallStep: a
// compound task first, then a state-variable binding holding a
// term.Native primitive Task.
func (m *Module) Resolve(env Env, name string, arity int) (Task, error) {
	if t, ok := m.FindTask(name, arity, false); ok {
		return t, nil
	}
	if v, ok := m.Get(name); ok {
		if nv, ok := v.(term.Native); ok {
			if task, ok := nv.Value.(Task); ok {
				return task, nil
			}
		}
	}
	return nil, &stepfail.UndefinedVariable{Name: name}
}

// StateItem is one (name, value) entry of a module's own dictionary.
type StateItem struct {
	Name  string
	Value term.Term
}

// StateItems returns this module's own state bindings in insertion
// order, for REPL and diagnostic listings. Parent bindings are not
// included.
func (m *Module) StateItems() []StateItem {
	raw := m.dict.items()
	out := make([]StateItem, len(raw))
	for i, it := range raw {
		out[i] = StateItem{Name: it.Name, Value: it.Value}
	}
	return out
}

// MethodDef is the contract a front end uses to hand a parsed method
// definition to the core: (taskName, weight, argumentPattern, locals,
// stepChain, flags, path, line).
type MethodDef struct {
	TaskName string
	Weight   float64
	Pattern  term.Tuple
	Locals   []*term.Var
	Body     Step
	Flags    Flags
	Path     string
	Line     int
}

// DefineMethod adds def as a method of its named task, creating the task
// if this is its first method. Everything upstream of this call
// (tokenizing, bracket parsing, pattern/step construction) belongs to a
// front end, not the core.
func (m *Module) DefineMethod(def MethodDef) error {
	weight := def.Weight
	if weight <= 0 {
		weight = 1
	}
	task, _ := m.FindTask(def.TaskName, len(def.Pattern), true)
	method := &Method{
		TaskName: def.TaskName,
		Pattern:  def.Pattern,
		Locals:   def.Locals,
		Body:     def.Body,
		Weight:   weight,
		Path:     def.Path,
		Line:     def.Line,
	}
	return task.AddMethod(method, def.Flags)
}

// RunInitially executes the zero-arity pseudo-task named "initially" at
// load time, if one was defined, and keeps whatever dynamic state it
// produces as the module's own state.
func (m *Module) RunInitially() error {
	if _, ok := m.FindTask("initially", 0, false); !ok {
		return nil
	}
	res, err := m.Call("initially")
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}
	applyDynamicState(m, res.State)
	return nil
}

// applyDynamicState folds dyn into m's own dictionary. dyn is walked
// newest-first; the seen set keeps only the most recent (i.e. final)
// binding per state variable.
func applyDynamicState(m *Module, dyn DynTrail) {
	seen := make(map[*term.StateVar]bool)
	for cur := dyn; cur != nil; cur = cur.Tail() {
		sv, val := cur.Head()
		if seen[sv] {
			continue
		}
		seen[sv] = true
		m.dict.set(sv, val)
	}
}

// Result is the outcome of a successful top-level Call: the generated
// text and the final dynamic state.
type Result struct {
	Text  string
	State DynTrail
}

// Call resolves taskName/args, drives it, and returns either the
// generated text and new state, or (nil, nil) if the task simply failed.
// A raised error (CallFailed, ArgumentType, ...) is recovered here and
// returned as a Go error; a nonLocalExit escaping its combinator is a bug
// and is re-panicked rather than swallowed.
func (m *Module) Call(taskName string, args ...term.Term) (res *Result, err error) {
	return m.CallWithThread(nil, taskName, args...)
}

// CallWithThread is Call, but method activations are counted (and the
// call can be externally cancelled) against thread. A nil thread behaves
// exactly like Call.
func (m *Module) CallWithThread(thread *Thread, taskName string, args ...term.Term) (*Result, error) {
	return m.CallWithState(nil, thread, taskName, args...)
}

// CallWithState is CallWithThread seeded with an initial dynamic state,
// normally a prior call's Result.State, so state threads across
// top-level calls without being folded into the module dictionary.
func (m *Module) CallWithState(state DynTrail, thread *Thread, taskName string, args ...term.Term) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	env := Env{Module: m, Thread: thread, Dyn: state}
	task, lookupErr := m.Resolve(env, taskName, len(args))
	if lookupErr != nil {
		return nil, lookupErr
	}

	buf := output.New()
	var text string
	var finalState DynTrail
	ok := task.Invoke(buf, env, args, func(buf *output.Buffer, env Env, _ *frame.Frame) bool {
		text = buf.String()
		finalState = env.Dyn
		return true
	}, nil)
	if !ok {
		return nil, nil
	}
	return &Result{Text: text, State: finalState}, nil
}

// CallPredicate is like Call but discards any output: the continuation
// returns true without reading the buffer, and emitted tokens are not an
// error.
func (m *Module) CallPredicate(taskName string, args ...term.Term) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	env := Env{Module: m}
	task, lookupErr := m.Resolve(env, taskName, len(args))
	if lookupErr != nil {
		return false, lookupErr
	}

	buf := output.New()
	ok = task.Invoke(buf, env, args, func(buf *output.Buffer, env Env, _ *frame.Frame) bool {
		return true
	}, nil)
	return ok, nil
}

// CallFunction appends a fresh logic variable to args, runs taskName, and
// CopyTerms the fresh variable through the final bindings, raising
// ArgumentInstantiation if it is still unbound.
func CallFunction[T any](m *Module, taskName string, args ...term.Term) (zero T, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	result := term.NewVar("result")
	callArgs := append(append([]term.Term{}, args...), term.Term(result))

	env := Env{Module: m}
	task, lookupErr := m.Resolve(env, taskName, len(callArgs))
	if lookupErr != nil {
		return zero, lookupErr
	}

	buf := output.New()
	var finalLocal term.Trail
	ok := task.Invoke(buf, env, callArgs, func(buf *output.Buffer, env Env, _ *frame.Frame) bool {
		finalLocal = env.Local
		return true
	}, nil)
	if !ok {
		return zero, &stepfail.CallFailed{TaskName: taskName, Args: args}
	}

	resolved := term.CopyTerm(result, finalLocal)
	if _, unbound := resolved.(*term.Var); unbound {
		return zero, &stepfail.ArgumentInstantiation{Context: taskName}
	}
	if v, ok := any(resolved).(T); ok {
		return v, nil
	}
	if v, ok := convertResult[T](resolved); ok {
		return v, nil
	}
	return zero, &stepfail.ArgumentType{Context: taskName, Want: "matching Go type", Got: resolved}
}

// convertResult narrows a ground result term to a plain Go type for
// CallFunction callers that ask for int/int64/float64/string/bool rather
// than the term representation itself.
func convertResult[T any](resolved term.Term) (out T, ok bool) {
	switch p := any(&out).(type) {
	case *int:
		if num, isNum := resolved.(term.Number); isNum {
			if i, fits := num.AsInt64(); fits {
				*p = int(i)
				return out, true
			}
		}
	case *int64:
		if num, isNum := resolved.(term.Number); isNum {
			if i, fits := num.AsInt64(); fits {
				*p = i
				return out, true
			}
		}
	case *float64:
		if num, isNum := resolved.(term.Number); isNum {
			*p = num.AsFloat()
			return out, true
		}
	case *string:
		if s, isStr := resolved.(term.String); isStr {
			*p = string(s)
			return out, true
		}
	case *bool:
		if b, isBool := resolved.(term.Bool); isBool {
			*p = bool(b)
			return out, true
		}
	}
	return out, false
}
