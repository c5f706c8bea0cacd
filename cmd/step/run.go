package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arborstep/step/engine"
	"github.com/arborstep/step/repl"
	"github.com/arborstep/step/source"
	"github.com/arborstep/step/term"
)

// newRunCmd builds `step run PATH [args...]`: load PATH (a file or a
// directory of .step files), then call either --task or, absent that,
// the module's task flagged +main, passing the remaining positional
// arguments as call arguments (parsed with the same atom grammar as
// method bodies).
func newRunCmd() *cobra.Command {
	var taskName string

	cmd := &cobra.Command{
		Use:   "run PATH [args...]",
		Short: "Load step sources and call a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			callArgs := args[1:]

			m := engine.NewModule()
			m.Sink = sink
			if err := loadPaths(m, []string{path}); err != nil {
				return fmt.Errorf("load: %w", err)
			}
			logger.Debug("loaded", "path", path)

			name := taskName
			if name == "" {
				task, ok := m.FindMainTask()
				if !ok {
					return fmt.Errorf("no task named with --task and no task flagged +main was found")
				}
				name = task.Name
			}

			terms := make([]term.Term, len(callArgs))
			for i, a := range callArgs {
				terms[i] = source.ParseArgTerm(a)
			}

			thread := newCLIThread(name)
			res, err := m.CallWithThread(thread, name, terms...)
			if err != nil {
				repl.PrintError(err)
				return errSilent
			}
			if res == nil {
				return fmt.Errorf("%s: failed", name)
			}
			fmt.Println(res.Text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&taskName, "task", "t", "", "task to call (default: the task flagged +main)")
	return cmd
}
