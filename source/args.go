package source

import "github.com/arborstep/step/term"

// ParseArgTerm converts a single command-line argument string into a
// Term using the same atom grammar as a method body: numbers
// and `true`/`false` parse as their ground forms, everything else is a
// ground String. A leading `?` allocates a fresh, unbound logic
// variable, useful for CallFunction-style driver programs that want the
// engine to bind an output argument.
func ParseArgTerm(s string) term.Term {
	return atomTerm(s, make(map[string]*term.Var))
}
