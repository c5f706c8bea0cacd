// Package repl provides a read/eval/print loop for step programs.
//
// It supports readline-style command editing and interrupts through
// Control-C. Each line (or, for an unbalanced bracket, each run of lines
// up to the one that balances it) is parsed and executed as the body of
// the module's TopLevelCall task via source.ParseAndExecute, and its
// generated text, if any, is printed.
package repl

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"

	"github.com/arborstep/step/engine"
	"github.com/arborstep/step/frame"
	"github.com/arborstep/step/source"
	"github.com/arborstep/step/stepfail"
)

var interrupted = make(chan os.Signal, 1)

// REPL executes a read, eval, print loop against m. thread, if non-nil,
// bounds every top-level call's method-activation count; it is
// not reset between lines, so a MaxSteps budget is shared across the
// whole session.
func REPL(m *engine.Module, thread *engine.Thread) {
	signal.Notify(interrupted, os.Interrupt)
	defer signal.Stop(interrupted)
	go func() {
		for range interrupted {
			if thread != nil {
				thread.Cancel("interrupt")
			}
		}
	}()

	rl, err := readline.New(">>> ")
	if err != nil {
		PrintError(err)
		return
	}
	defer rl.Close()
	for {
		err := rep(rl, m, thread)
		if thread != nil && thread.Cancelled() {
			// A Control-C that landed mid-evaluation has already
			// unwound that call; let the next line run.
			thread.Resume()
		}
		if err != nil {
			if err == readline.ErrInterrupt {
				fmt.Println(err)
				continue
			}
			break
		}
	}
}

// rep reads, evaluates, and prints one entry (a line, or the run of lines
// that balances its brackets), executed as the TopLevelCall body.
//
// It returns an error (possibly readline.ErrInterrupt or io.EOF) only
// when readline itself failed or the user asked to stop; step errors are
// printed and rep returns nil so the loop continues.
func rep(rl *readline.Instance, m *engine.Module, thread *engine.Thread) error {
	rl.SetPrompt(">>> ")
	var lines []string
	depth := 0
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF {
				return io.EOF
			}
			return err
		}
		depth += strings.Count(line, "[") - strings.Count(line, "]")
		lines = append(lines, line)
		if depth <= 0 {
			break
		}
		rl.SetPrompt("... ")
	}

	code := strings.Join(lines, "\n")
	if strings.TrimSpace(code) == "" {
		return nil
	}
	if strings.HasPrefix(strings.TrimSpace(code), ":") {
		command(m, strings.TrimSpace(code))
		return nil
	}

	res, err := source.ParseAndExecuteWithThread(m, thread, "<stdin>", code)
	if err != nil {
		PrintError(err)
		return nil
	}
	if res != nil && res.Text != "" {
		fmt.Println(res.Text)
	}
	return nil
}

// command handles the REPL's colon commands: `:state` lists the module's
// own state bindings.
func command(m *engine.Module, line string) {
	switch line {
	case ":state":
		for _, it := range m.StateItems() {
			fmt.Printf("%s = %s\n", it.Name, it.Value)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %s (try :state)\n", line)
	}
}

// PrintError prints err to stderr, including a method-call backtrace when
// err carries one (CallFailed keeps the frame chain of the failing call).
func PrintError(err error) {
	var fr *frame.Frame
	if cf, ok := err.(*stepfail.CallFailed); ok {
		fr = cf.Frame
	}
	fmt.Fprintln(os.Stderr, err)
	if fr != nil {
		fmt.Fprint(os.Stderr, fr.Backtrace())
	}
}
