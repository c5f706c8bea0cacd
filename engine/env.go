// Package engine implements the evaluation core: the binding
// environment, step chain, methods and compound tasks, the call driver,
// the higher-order combinators, and the module.
package engine

import (
	"github.com/arborstep/step/frame"
	"github.com/arborstep/step/output"
	"github.com/arborstep/step/term"
)

// DynTrail is the dynamic (state-variable) binding list, threaded
// through a top-level call and returned as the new state on success.
type DynTrail = *term.Bindings[*term.StateVar, term.Term]

// Env is the binding environment: a cheap handle bundling the
// owning Module, the current call Frame (for diagnostics only), the local
// trail, and the dynamic state. It is passed by value; because both trails
// are persistent, a continuation may retain an older Env while newer ones
// extend it without any copying.
type Env struct {
	Module *Module
	Frame  *frame.Frame
	Local  term.Trail
	Dyn    DynTrail

	// Subst maps the current method activation's template locals to the
	// fresh variables allocated for this activation. A method's pattern
	// and body are templates; steps route every term they use through
	// Instantiate so that re-entrant activations never alias each
	// other's bindings.
	Subst map[*term.Var]*term.Var

	// Thread bounds this call's method-activation count and lets a host
	// cancel the search between steps. Nil means unlimited and
	// uncancellable, the default for Module.Call.
	Thread *Thread
}

// Extend returns a new Env with v bound to value in the local trail.
func (e Env) Extend(v *term.Var, value term.Term) Env {
	e.Local = e.Local.Extend(v, value)
	return e
}

// BindState returns a new Env with sv bound to value in the dynamic state.
func (e Env) BindState(sv *term.StateVar, value term.Term) Env {
	e.Dyn = e.Dyn.Extend(sv, value)
	return e
}

// Resolve fully dereferences t against the local trail, after mapping
// any template local through this activation's substitution.
func (e Env) Resolve(t term.Term) term.Term {
	return term.Resolve(e.Instantiate(t), e.Local)
}

// ResolveList resolves every term in ts against the local trail.
func (e Env) ResolveList(ts []term.Term) []term.Term {
	out := make([]term.Term, len(ts))
	for i, t := range ts {
		out[i] = e.Resolve(t)
	}
	return out
}

// Instantiate replaces every template local in t with this activation's
// fresh variable for it. Terms with no template locals pass through
// unchanged.
func (e Env) Instantiate(t term.Term) term.Term {
	if len(e.Subst) == 0 {
		return t
	}
	return substituteTerm(t, e.Subst)
}

// StateValue looks sv up in the dynamic state, falling back to the module
// dictionary for values set before this call began.
func (e Env) StateValue(sv *term.StateVar) (term.Term, bool) {
	if v, ok := e.Dyn.Lookup(sv); ok {
		return v, true
	}
	if e.Module != nil {
		return e.Module.GetVar(sv)
	}
	return nil, false
}

// WithFrame returns a new Env with the current frame replaced. Used on
// method entry/exit instead of a process-global "current frame" pointer.
func (e Env) WithFrame(f *frame.Frame) Env {
	e.Frame = f
	return e
}

// Continuation is the success continuation threaded through every step's
// Try method: "what to do after this step succeeds". Invoking
// it and it returning true is the only way a step reports success. The
// local bindings, dynamic state, and module ride along bundled into the
// Env handle.
type Continuation func(buf *output.Buffer, env Env, predecessor *frame.Frame) bool
