package term

// Trail is the local-variable binding list threaded through unification
// and resolution: Bindings instantiated for *Var keys.
type Trail = *Bindings[*Var, Term]

// Deref resolves t one step at a time, following variable bindings in
// trail, until it reaches a ground value, an unbound Var, or a StateVar
// (StateVars are resolved separately, against dynamic state). It is the
// building block Resolve and Unify share.
func Deref(t Term, trail Trail) Term {
	for {
		v, ok := t.(*Var)
		if !ok {
			return t
		}
		bound, ok := trail.Lookup(v)
		if !ok {
			return v
		}
		t = bound
	}
}

// Unify attempts to unify a and b under trail, returning the extended
// trail on success. No occurs check is performed: cyclic terms are
// undefined behavior.
func Unify(a, b Term, trail Trail) (Trail, bool) {
	a = Deref(a, trail)
	b = Deref(b, trail)

	if av, ok := a.(*Var); ok {
		if bv, ok := b.(*Var); ok && av == bv {
			return trail, true
		}
		return trail.Extend(av, b), true
	}
	if bv, ok := b.(*Var); ok {
		return trail.Extend(bv, a), true
	}

	switch at := a.(type) {
	case Tuple:
		bt, ok := b.(Tuple)
		if !ok || len(at) != len(bt) {
			return trail, false
		}
		for i := range at {
			var ok bool
			trail, ok = Unify(at[i], bt[i], trail)
			if !ok {
				return trail, false
			}
		}
		return trail, true
	case *ListCell:
		bl, ok := b.(*ListCell)
		if !ok {
			return trail, false
		}
		trail, ok = Unify(at.Head, bl.Head, trail)
		if !ok {
			return trail, false
		}
		return Unify(at.Tail, bl.Tail, trail)
	case EmptyList:
		_, ok := b.(EmptyList)
		return trail, ok
	case String:
		bt, ok := b.(String)
		return trail, ok && at == bt
	case Bool:
		bt, ok := b.(Bool)
		return trail, ok && at == bt
	case Number:
		bt, ok := b.(Number)
		return trail, ok && at.Cmp(bt) == 0
	case *StateVar:
		bt, ok := b.(*StateVar)
		return trail, ok && at == bt
	default:
		return trail, false
	}
}

// Resolve fully dereferences t: the result is either ground, an unbound
// Var, or a Tuple/ListCell whose elements have themselves been resolved.
// It is idempotent: Resolve(Resolve(t, bs), bs) == Resolve(t, bs).
func Resolve(t Term, trail Trail) Term {
	t = Deref(t, trail)
	switch v := t.(type) {
	case Tuple:
		out := make(Tuple, len(v))
		for i, e := range v {
			out[i] = Resolve(e, trail)
		}
		return out
	case *ListCell:
		return &ListCell{Head: Resolve(v.Head, trail), Tail: Resolve(v.Tail, trail)}
	default:
		return t
	}
}

// ResolveList resolves every term in ts.
func ResolveList(ts []Term, trail Trail) []Term {
	out := make([]Term, len(ts))
	for i, t := range ts {
		out[i] = Resolve(t, trail)
	}
	return out
}

// CopyTerm walks t, dereferencing variables, and returns a term with every
// bound logic variable replaced by its bound value, recursively. A still
// unbound Var reappears as itself; callers treat that as a
// signal that the term is not fully ground.
func CopyTerm(t Term, trail Trail) Term {
	return Resolve(t, trail)
}

// IsGround reports whether t contains no unbound Var, after resolving.
func IsGround(t Term, trail Trail) bool {
	switch v := Resolve(t, trail).(type) {
	case *Var:
		return false
	case Tuple:
		for _, e := range v {
			if !IsGround(e, trail) {
				return false
			}
		}
		return true
	case *ListCell:
		return IsGround(v.Head, trail) && IsGround(v.Tail, trail)
	default:
		return true
	}
}
