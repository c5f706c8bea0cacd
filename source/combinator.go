package source

import (
	"github.com/arborstep/step/engine"
	"github.com/arborstep/step/stepfail"
	"github.com/arborstep/step/term"
)

// buildCombinator recognizes the five higher-order forms (DoAll, Once,
// ExactlyOnce, Max, Min) and builds the engine.Task each
// one compiles to, capturing its body as a Step chain exactly as a
// bracketed call's children would otherwise become one. ok is false (with
// a nil error) when g's head names none of these forms, so the caller
// falls through to treating it as an ordinary call.
func buildCombinator(path string, g group, locals map[string]*term.Var) (engine.Task, bool, error) {
	if len(g.Children) == 0 || g.Children[0].isGroup() {
		return nil, false, nil
	}
	head := g.Children[0].Atom

	switch head {
	case "DoAll", "Once":
		body, err := buildSteps(path, g.Children[1:], locals)
		if err != nil {
			return nil, true, err
		}
		if head == "DoAll" {
			return engine.DoAll(body), true, nil
		}
		return engine.Once(body), true, nil

	case "ExactlyOnce":
		body, err := buildSteps(path, g.Children[1:], locals)
		if err != nil {
			return nil, true, err
		}
		return engine.ExactlyOnce(body, firstCallName(g.Children[1:])), true, nil

	case "Max", "Min":
		if len(g.Children) < 3 {
			return nil, true, &stepfail.SyntaxError{Path: path, Line: g.Line, Msg: head + " requires a score variable and a body"}
		}
		scoreVar, ok := termOf(g.Children[1], locals).(*term.Var)
		if !ok {
			return nil, true, &stepfail.SyntaxError{Path: path, Line: g.Line, Msg: head + "'s first operand must be a ?variable"}
		}
		body, err := buildSteps(path, g.Children[2:], locals)
		if err != nil {
			return nil, true, err
		}
		if head == "Max" {
			return engine.Max(scoreVar, body), true, nil
		}
		return engine.Min(scoreVar, body), true, nil
	}

	return nil, false, nil
}

// firstCallName finds the task name of the first call-shaped group among
// groups, for ExactlyOnce's CallFailed diagnostic.
func firstCallName(groups []group) string {
	for _, g := range groups {
		if g.isGroup() && len(g.Children) > 0 && !g.Children[0].isGroup() {
			return g.Children[0].Atom
		}
	}
	return ""
}
