// Package term implements the value model of the engine: ground values,
// logic variables, state variables, and tuples, plus the unifier that
// relates them.
package term

import "fmt"

// Term is any value in the engine's universe: a ground value, a local
// logic variable, a state variable, or a tuple of terms.
type Term interface {
	fmt.Stringer
	isTerm()
}

// Var is a local logic variable, fresh per method activation. Its identity
// is the pointer itself; it never carries its own binding, which lives in
// the ambient binding list (see Bindings).
type Var struct {
	id   int64
	name string
}

var varSeq int64

// NewVar allocates a fresh logic variable. name is optional and used only
// for display.
func NewVar(name string) *Var {
	varSeq++
	return &Var{id: varSeq, name: name}
}

func (v *Var) isTerm() {}

func (v *Var) String() string {
	if v.name != "" {
		return "?" + v.name
	}
	return fmt.Sprintf("_G%d", v.id)
}

// ID returns the variable's stable allocation identity.
func (v *Var) ID() int64 { return v.id }

// StateVar is a module-global variable, interned by name: two requests for
// the same name yield the same identity, unlike Var.
type StateVar struct {
	name string
}

var stateVarTable = map[string]*StateVar{}

// Intern returns the StateVar for name, allocating it on first use.
func Intern(name string) *StateVar {
	if sv, ok := stateVarTable[name]; ok {
		return sv
	}
	sv := &StateVar{name: name}
	stateVarTable[name] = sv
	return sv
}

func (sv *StateVar) isTerm() {}

func (sv *StateVar) String() string { return sv.name }

// Name returns the state variable's interned name.
func (sv *StateVar) Name() string { return sv.name }

// String is a ground textual token.
type String string

func (String) isTerm()         {}
func (s String) String() string { return string(s) }

// Bool is a ground boolean value.
type Bool bool

func (Bool) isTerm() {}
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// ListCell is a ground tagged-list cons cell; Empty is the canonical nil
// list. Lists are ground-only: storing a Var inside a ListCell is allowed
// (it is dereferenced at read time like any element), but the cell
// structure itself carries no variables of its own.
type ListCell struct {
	Head Term
	Tail Term // *ListCell, EmptyList, or (transiently) a Var
}

func (*ListCell) isTerm() {}

func (l *ListCell) String() string {
	s := "["
	var cur Term = l
	first := true
	for {
		cell, ok := cur.(*ListCell)
		if !ok {
			break
		}
		if !first {
			s += " "
		}
		first = false
		s += cell.Head.String()
		cur = cell.Tail
	}
	if _, ok := cur.(EmptyList); !ok {
		s += " | " + cur.String()
	}
	return s + "]"
}

// EmptyList is the canonical empty list term.
type EmptyList struct{}

func (EmptyList) isTerm()         {}
func (EmptyList) String() string { return "[]" }

// Native wraps an arbitrary host-side value (a primitive task, most
// commonly) so it can be stored and looked up as an ordinary state
// variable binding; primitives participate in lookup exactly like
// compound tasks. The engine package is what actually populates and
// type-asserts Native.Value; term itself treats it opaquely so the base
// value model has no dependency on the engine.
type Native struct {
	Value any
	Label string
}

func (Native) isTerm() {}

func (n Native) String() string {
	if n.Label != "" {
		return "<" + n.Label + ">"
	}
	return "<native>"
}

// Tuple is an ordered, heterogeneous sequence of terms: argument patterns,
// call argument lists, and compound data all use it.
type Tuple []Term

func (Tuple) isTerm() {}

func (t Tuple) String() string {
	s := "("
	for i, e := range t {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + ")"
}
