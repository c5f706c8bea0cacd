package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arborstep/step/engine"
)

// newLoadCmd builds `step load PATH...`: a dry run that parses and
// defines every method in the given sources, surfacing
// SyntaxError/ArgumentCount failures without needing a task to call. No
// task is called except an `initially` pseudo-task, which loading runs.
func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load PATH...",
		Short: "Parse and define step sources without calling a task (initially still runs)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := engine.NewModule()
			m.Sink = sink
			if err := loadPaths(m, args); err != nil {
				return err
			}
			for _, p := range args {
				logger.Info("loaded", "path", p)
			}
			fmt.Println("ok")
			return nil
		},
	}
}
