package source

import (
	"github.com/arborstep/step/stepfail"
	"github.com/arborstep/step/term"
)

// splitDefinitions groups a flat token stream into one slice per method
// definition: a newline at bracket depth 0 ends a definition; an unclosed
// bracket carries the definition across lines.
func splitDefinitions(toks []Token) [][]Token {
	toks = stripBlankLines(toks)
	var defs [][]Token
	var cur []Token
	depth := 0
	for _, t := range toks {
		switch t.Text {
		case "[":
			depth++
		case "]":
			depth--
		}
		if t.Text == "\n" && depth == 0 {
			if len(cur) > 0 {
				defs = append(defs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		defs = append(defs, cur)
	}
	return defs
}

// group is one bracketed or bare token as parsed out of a definition's
// token slice: either a leaf atom or a nested `[...]` sequence of groups.
type group struct {
	Atom     string
	Line     int
	Children []group // non-nil only for a bracketed group
}

func (g group) isGroup() bool { return g.Children != nil }

// parseGroups turns a flat token slice into a sequence of top-level
// groups, recursing into bracket nesting. An unclosed `[` is reported
// here as a SyntaxError; a stray `]` ends the scan and is returned at the
// head of the remaining tokens for the caller to report.
func parseGroups(path string, toks []Token) ([]group, []Token, error) {
	var out []group
	rest := toks
	for len(rest) > 0 {
		t := rest[0]
		if t.Text == "]" {
			return out, rest, nil
		}
		if t.Text == "[" {
			children, after, err := parseGroups(path, rest[1:])
			if err != nil {
				return nil, nil, err
			}
			if len(after) == 0 || after[0].Text != "]" {
				return nil, nil, &stepfail.SyntaxError{Path: path, Line: t.Line, Msg: "unterminated ["}
			}
			out = append(out, group{Line: t.Line, Children: children})
			rest = after[1:]
			continue
		}
		out = append(out, group{Atom: t.Text, Line: t.Line})
		rest = rest[1:]
	}
	return out, rest, nil
}

// termOf converts one parsed group into a term: a bracketed group becomes
// a Tuple of its children's terms; a bare atom becomes a local
// variable (leading `?`), a number, a boolean, or a ground string token.
// locals accumulates every distinct local variable name encountered so
// the caller can build a Method's declared local slots.
func termOf(g group, locals map[string]*term.Var) term.Term {
	if g.isGroup() {
		elems := make(term.Tuple, len(g.Children))
		for i, c := range g.Children {
			elems[i] = termOf(c, locals)
		}
		return elems
	}
	return atomTerm(g.Atom, locals)
}

func atomTerm(atom string, locals map[string]*term.Var) term.Term {
	if len(atom) > 0 && atom[0] == '?' {
		name := atom[1:]
		if v, ok := locals[name]; ok {
			return v
		}
		v := term.NewVar(name)
		locals[name] = v
		return v
	}
	if atom == "true" || atom == "false" {
		return term.Bool(atom == "true")
	}
	if n, err := term.ParseNumber(atom); err == nil {
		return n
	}
	return term.String(atom)
}
