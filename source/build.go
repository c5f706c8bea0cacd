package source

import (
	"strconv"
	"strings"

	"github.com/arborstep/step/engine"
	"github.com/arborstep/step/stepfail"
	"github.com/arborstep/step/term"
)

// BuildDefinitions parses src into method definitions: each is a
// task-name atom, zero or more pattern argument atoms, a `:`, a body
// token/group sequence, and an optional trailing `.`.
func BuildDefinitions(path, src string) ([]engine.MethodDef, error) {
	toks, err := Tokenize(path, src)
	if err != nil {
		return nil, err
	}
	var defs []engine.MethodDef
	for _, line := range splitDefinitions(toks) {
		def, err := buildOne(path, line)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func buildOne(path string, toks []Token) (engine.MethodDef, error) {
	if len(toks) > 0 && toks[len(toks)-1].Text == "." {
		toks = toks[:len(toks)-1]
	}
	if len(toks) == 0 {
		return engine.MethodDef{}, &stepfail.SyntaxError{Path: path, Line: 0, Msg: "empty definition"}
	}

	colon := -1
	depth := 0
	for i, t := range toks {
		switch t.Text {
		case "[":
			depth++
		case "]":
			depth--
		case ":":
			if depth == 0 {
				colon = i
			}
		}
		if colon >= 0 {
			break
		}
	}
	if colon < 0 {
		return engine.MethodDef{}, &stepfail.SyntaxError{Path: path, Line: toks[0].Line, Msg: "missing ':' in definition"}
	}

	head := toks[:colon]
	bodyToks := toks[colon+1:]
	if len(head) == 0 {
		return engine.MethodDef{}, &stepfail.SyntaxError{Path: path, Line: toks[0].Line, Msg: "missing task name"}
	}

	taskName := head[0].Text
	locals := make(map[string]*term.Var)
	pattern := make(term.Tuple, 0, len(head)-1)
	flags, weight, err := parseFlags(path, head[1:])
	if err != nil {
		return engine.MethodDef{}, err
	}
	for _, t := range head[1:] {
		if isFlagAtom(t.Text) {
			continue
		}
		pattern = append(pattern, atomTerm(t.Text, locals))
	}

	groups, rest, err := parseGroups(path, bodyToks)
	if err != nil {
		return engine.MethodDef{}, err
	}
	if len(rest) > 0 {
		return engine.MethodDef{}, &stepfail.SyntaxError{Path: path, Line: rest[0].Line, Msg: "unbalanced ']'"}
	}

	body, err := buildSteps(path, groups, locals)
	if err != nil {
		return engine.MethodDef{}, err
	}

	localVars := make([]*term.Var, 0, len(locals))
	for _, v := range locals {
		localVars = append(localVars, v)
	}

	return engine.MethodDef{
		TaskName: taskName,
		Weight:   weight,
		Pattern:  pattern,
		Locals:   localVars,
		Flags:    flags,
		Body:     body,
		Path:     path,
		Line:     toks[0].Line,
	}, nil
}

// isFlagAtom reports whether tok is one of the reserved method-flag
// markers recognized in a definition's head, rather than a pattern atom.
func isFlagAtom(tok string) bool {
	switch tok {
	case "+shuffle", "+multi", "+fallible", "+main":
		return true
	}
	return strings.HasPrefix(tok, "+weight=")
}

// parseFlags scans a definition's head tokens (everything between the
// task name and the `:`) for flag markers: `+shuffle`, `+multi`,
// `+fallible`, `+main` set the matching Flags field, `+weight=N` sets
// the method's weight for the weighted shuffle. Anything else is an
// ordinary pattern atom and is ignored here. Absent `+weight=N`, weight
// defaults to 1.
func parseFlags(path string, head []Token) (engine.Flags, float64, error) {
	var flags engine.Flags
	weight := 1.0
	for _, t := range head {
		switch {
		case t.Text == "+shuffle":
			flags.Shuffle = true
		case t.Text == "+multi":
			flags.MultipleSolutions = true
		case t.Text == "+fallible":
			flags.Fallible = true
		case t.Text == "+main":
			flags.Main = true
		case strings.HasPrefix(t.Text, "+weight="):
			w, err := strconv.ParseFloat(strings.TrimPrefix(t.Text, "+weight="), 64)
			if err != nil {
				return flags, 0, &stepfail.SyntaxError{Path: path, Line: t.Line, Msg: "invalid +weight=: " + t.Text}
			}
			weight = w
		}
	}
	return flags, weight, nil
}

// splitAlternatives recognizes the branch form `[alt1 | alt2 | ...]`: a
// bracketed group whose top-level children contain one or more bare `|`
// atoms. An optional leading `+shuffle` atom marks the branch as
// order-randomizing (engine.BranchStep.Shuffle), matching the same
// marker spelling used for method flags. isBranch is false (and
// segments/shuffle are meaningless) when children has no top-level `|`,
// so the caller falls through to ordinary call parsing.
func splitAlternatives(children []group) (segments [][]group, shuffle bool, isBranch bool) {
	for _, c := range children {
		if !c.isGroup() && c.Atom == "|" {
			isBranch = true
			break
		}
	}
	if !isBranch {
		return nil, false, false
	}
	if len(children) > 0 && !children[0].isGroup() && children[0].Atom == "+shuffle" {
		shuffle = true
		children = children[1:]
	}
	var cur []group
	for _, c := range children {
		if !c.isGroup() && c.Atom == "|" {
			segments = append(segments, cur)
			cur = nil
			continue
		}
		cur = append(cur, c)
	}
	segments = append(segments, cur)
	return segments, shuffle, true
}

// buildSteps turns a definition's body groups into a step chain. Plain
// atoms coalesce into a single EmitStep; a lone `?var` atom becomes an
// EmitTermStep; a bracketed group with a top-level `|` becomes a
// BranchStep, `[= l r]` a BindStep, a combinator form a PrimitiveStep, and
// any other bracketed group a CallStep whose first child is the task name
// and whose remaining children are argument terms.
func buildSteps(path string, groups []group, locals map[string]*term.Var) (engine.Step, error) {
	type builder func(next engine.Step) engine.Step
	var builders []builder
	var pendingLiterals []string

	flushLiterals := func() {
		if len(pendingLiterals) == 0 {
			return
		}
		toks := pendingLiterals
		pendingLiterals = nil
		builders = append(builders, func(next engine.Step) engine.Step {
			return engine.NewEmit(toks, next)
		})
	}

	for _, g := range groups {
		if g.isGroup() {
			flushLiterals()
			if len(g.Children) == 0 {
				return nil, &stepfail.SyntaxError{Path: path, Line: g.Line, Msg: "empty call"}
			}
			if segments, shuffle, isBranch := splitAlternatives(g.Children); isBranch {
				alts := make([]engine.Step, len(segments))
				for i, seg := range segments {
					alt, err := buildSteps(path, seg, locals)
					if err != nil {
						return nil, err
					}
					alts[i] = alt
				}
				builders = append(builders, func(next engine.Step) engine.Step {
					return engine.NewBranch(alts, shuffle, next)
				})
				continue
			}

			if g.Children[0].isGroup() {
				return nil, &stepfail.SyntaxError{Path: path, Line: g.Line, Msg: "call target must be an atom"}
			}
			head := g.Children[0].Atom

			if head == "=" {
				if len(g.Children) != 3 {
					return nil, &stepfail.SyntaxError{Path: path, Line: g.Line, Msg: "[= left right] takes exactly two operands"}
				}
				left := termOf(g.Children[1], locals)
				right := termOf(g.Children[2], locals)
				builders = append(builders, func(next engine.Step) engine.Step {
					return engine.NewBind(left, right, next)
				})
				continue
			}

			if task, ok, err := buildCombinator(path, g, locals); ok {
				if err != nil {
					return nil, err
				}
				builders = append(builders, func(next engine.Step) engine.Step {
					return engine.NewPrimitive(task, nil, next)
				})
				continue
			}

			taskTerm := atomTerm(head, locals)
			args := make([]term.Term, 0, len(g.Children)-1)
			for _, c := range g.Children[1:] {
				args = append(args, termOf(c, locals))
			}
			builders = append(builders, func(next engine.Step) engine.Step {
				return engine.NewCall(taskTerm, args, next)
			})
			continue
		}
		if len(g.Atom) > 0 && g.Atom[0] == '?' {
			flushLiterals()
			v := atomTerm(g.Atom, locals)
			builders = append(builders, func(next engine.Step) engine.Step {
				return engine.NewEmitTerm(v, next)
			})
			continue
		}
		pendingLiterals = append(pendingLiterals, g.Atom)
	}
	flushLiterals()

	var chain engine.Step
	for i := len(builders) - 1; i >= 0; i-- {
		chain = builders[i](chain)
	}
	return chain, nil
}
