package engine

import "github.com/arborstep/step/term"

// dict is the Module's own-dictionary storage: a hash map keyed by
// state-variable identity plus the insertion order of its keys. A plain
// Go map would make state dumps in the REPL and diagnostic listings
// nondeterministic between runs; keeping insertion order makes them
// reproducible.
//
// Initialized instances of dict must not be copied.
type dict struct {
	m     map[*term.StateVar]term.Term
	order []*term.StateVar

	_ noCopy
}

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

func newDict() *dict {
	return &dict{m: make(map[*term.StateVar]term.Term)}
}

func (d *dict) get(sv *term.StateVar) (term.Term, bool) {
	v, ok := d.m[sv]
	return v, ok
}

func (d *dict) set(sv *term.StateVar, v term.Term) {
	if _, exists := d.m[sv]; !exists {
		d.order = append(d.order, sv)
	}
	d.m[sv] = v
}

func (d *dict) has(sv *term.StateVar) bool {
	_, ok := d.m[sv]
	return ok
}

// items returns (name, value) pairs in insertion order.
func (d *dict) items() []struct {
	Name  string
	Value term.Term
} {
	out := make([]struct {
		Name  string
		Value term.Term
	}, 0, len(d.order))
	for _, sv := range d.order {
		out = append(out, struct {
			Name  string
			Value term.Term
		}{Name: sv.Name(), Value: d.m[sv]})
	}
	return out
}
