package main

import (
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/arborstep/step/engine"
	"github.com/arborstep/step/source"
	"github.com/arborstep/step/trace"
)

// errSilent is returned by a subcommand that has already printed its own
// diagnostic (via repl.PrintError, which adds the frame backtrace that a
// CallFailed's one-line Error text leaves out); main checks for it
// to avoid printing the error a second time.
var errSilent = errors.New("")

var (
	flagVerbose  bool
	flagSeed     int64
	flagMaxSteps uint64

	logger *log.Logger
	sink   trace.Sink
)

// newRootCmd builds the step CLI's command tree: a root command with
// PersistentPreRunE wiring logging, and leaf commands for each
// operating mode (run, repl, load).
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "step",
		Short:         "Run, load, and interactively drive step programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := log.InfoLevel
			if flagVerbose {
				level = log.DebugLevel
			}
			logger = log.NewWithOptions(os.Stderr, log.Options{Level: level, ReportTimestamp: false})
			if flagVerbose {
				sink = trace.NewSink(os.Stderr, log.DebugLevel)
			} else {
				sink = trace.Discard
			}
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "trace method Enter/Succeed/Fail events")
	root.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "seed the weighted-shuffle RNG for reproducible runs (0: unseeded)")
	root.PersistentFlags().Uint64Var(&flagMaxSteps, "max-steps", 0, "abort a call after this many method activations (0: unlimited)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newReplCmd())
	root.AddCommand(newLoadCmd())

	return root
}

// newCLIThread builds the engine.Thread the --seed and --max-steps flags
// describe, shared by every subcommand.
func newCLIThread(name string) *engine.Thread {
	var thread *engine.Thread
	if flagSeed != 0 {
		thread = engine.NewSeededThread(name, uint64(flagSeed))
	} else {
		thread = engine.NewThread(name)
	}
	thread.MaxSteps = flagMaxSteps
	return thread
}

// loadPaths loads every given .step file or directory (recursively for
// directories) into m.
func loadPaths(m *engine.Module, paths []string) error {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := source.LoadDirectory(m, p, true); err != nil {
				return err
			}
			continue
		}
		if err := source.LoadDefinitions(m, p); err != nil {
			return err
		}
	}
	return nil
}
