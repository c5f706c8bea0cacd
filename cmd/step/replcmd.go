package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arborstep/step/engine"
	"github.com/arborstep/step/repl"
)

// newReplCmd builds `step repl [PATH...]`: optionally preload sources,
// then start an interactive read/eval/print loop (repl package).
func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl [PATH...]",
		Short: "Start an interactive step session",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := engine.NewModule()
			m.Sink = sink
			if err := loadPaths(m, args); err != nil {
				return fmt.Errorf("load: %w", err)
			}
			repl.REPL(m, newCLIThread("repl"))
			return nil
		},
	}
}
