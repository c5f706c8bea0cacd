// Package stepfail defines the engine's error kinds: the exceptional
// conditions that unwind out to the nearest top-level Call boundary, as
// distinct from the plain false returns that drive ordinary backtracking.
package stepfail

import (
	"fmt"

	"github.com/arborstep/step/frame"
	"github.com/arborstep/step/term"
)

// SyntaxError is raised by the front end (source package); it is included
// here only because step builders propagate its path:line.
type SyntaxError struct {
	Path string
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: syntax error: %s", e.Path, e.Line, e.Msg)
}

// UndefinedVariable is raised when a state-variable lookup finds no
// binding in the module chain and no bind hook supplies one.
type UndefinedVariable struct {
	Name string
}

func (e *UndefinedVariable) Error() string {
	return fmt.Sprintf("undefined variable: %s", e.Name)
}

// ArgumentCount is raised on an arity mismatch, either at a call site or
// when a method is added to a task with a differently-sized pattern.
type ArgumentCount struct {
	TaskName string
	Want     int
	Got      int
}

func (e *ArgumentCount) Error() string {
	return fmt.Sprintf("%s: expected %d argument(s), got %d", e.TaskName, e.Want, e.Got)
}

// ArgumentType is raised when a primitive or higher-order combinator
// receives an argument of the wrong kind.
type ArgumentType struct {
	Context string
	Want    string
	Got     term.Term
}

func (e *ArgumentType) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Context, e.Want, e.Got.String())
}

// ArgumentInstantiation is raised when an operation requires a ground
// value but received an unbound variable.
type ArgumentInstantiation struct {
	Context string
}

func (e *ArgumentInstantiation) Error() string {
	return fmt.Sprintf("%s: argument not sufficiently instantiated", e.Context)
}

// CallFailed is raised when a must-succeed ("Fallible"-unset, i.e.
// MustSucceed) compound task exhausts every method with zero successes.
type CallFailed struct {
	TaskName string
	Args     []term.Term
	Frame    *frame.Frame
}

// Error returns a one-line message; the frame chain is rendered
// separately via Frame.Backtrace.
func (e *CallFailed) Error() string {
	return fmt.Sprintf("call failed: %s%s", e.TaskName, argsString(e.Args))
}

func argsString(args []term.Term) string {
	if len(args) == 0 {
		return ""
	}
	s := "("
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}

// Thrown wraps an arbitrary payload raised by the `Throw` primitive
//: the payload preserves the argument terms as
// given, unmodified.
type Thrown struct {
	Args []term.Term
}

func (e *Thrown) Error() string {
	return fmt.Sprintf("thrown: %s", argsString(e.Args))
}

// StepBudgetExceeded is raised when a Thread's MaxSteps is reached (or the
// Thread was externally cancelled) partway through a call. It follows the
// same propagation policy as the other error kinds: it unwinds to the
// nearest top-level Call boundary rather than driving backtracking.
type StepBudgetExceeded struct {
	TaskName string
	Reason   string
}

func (e *StepBudgetExceeded) Error() string {
	return fmt.Sprintf("%s: step budget exceeded: %s", e.TaskName, e.Reason)
}
