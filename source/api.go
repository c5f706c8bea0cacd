package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arborstep/step/engine"
)

// DefaultExtension is the suffix of step source files.
const DefaultExtension = ".step"

// AddDefinitions parses each source string and defines every method it
// contains on m, then runs `initially` if this batch defined it.
func AddDefinitions(m *engine.Module, path string, sources ...string) error {
	ranInitially := false
	for _, src := range sources {
		defs, err := BuildDefinitions(path, src)
		if err != nil {
			return err
		}
		for _, def := range defs {
			if err := m.DefineMethod(def); err != nil {
				return err
			}
			if def.TaskName == "initially" {
				ranInitially = true
			}
		}
	}
	if ranInitially {
		return m.RunInitially()
	}
	return nil
}

// LoadDefinitions reads path and defines its methods on m.
func LoadDefinitions(m *engine.Module, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return AddDefinitions(m, path, string(data))
}

// LoadDirectory loads every DefaultExtension file directly inside path,
// and its subdirectories too when recursive is set.
func LoadDirectory(m *engine.Module, path string, recursive bool) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("load directory %s: %w", path, err)
	}
	for _, entry := range entries {
		full := filepath.Join(path, entry.Name())
		if entry.IsDir() {
			if recursive {
				if err := LoadDirectory(m, full, recursive); err != nil {
					return err
				}
			}
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), DefaultExtension) {
			if err := LoadDefinitions(m, full); err != nil {
				return err
			}
		}
	}
	return nil
}

// topLevelCallTask is the fixed task name ParseAndExecute (re)defines.
const topLevelCallTask = "TopLevelCall"

// ParseAndExecute (re)defines a zero-argument TopLevelCall task from code
// and calls it. Redefining replaces any prior TopLevelCall
// method set and nothing else.
func ParseAndExecute(m *engine.Module, path, code string) (*engine.Result, error) {
	return ParseAndExecuteWithThread(m, nil, path, code)
}

// ParseAndExecuteWithThread is ParseAndExecute, but method activations
// during the call are counted against thread, the way the REPL
// shares a step budget across interactively entered lines. A nil thread
// behaves exactly like ParseAndExecute.
func ParseAndExecuteWithThread(m *engine.Module, thread *engine.Thread, path, code string) (*engine.Result, error) {
	defs, err := BuildDefinitions(path, fmt.Sprintf("%s: %s", topLevelCallTask, code))
	if err != nil {
		return nil, err
	}
	if task, ok := m.FindTask(topLevelCallTask, 0, false); ok {
		task.EraseMethods()
	}
	for _, def := range defs {
		if err := m.DefineMethod(def); err != nil {
			return nil, err
		}
	}
	return m.CallWithThread(thread, topLevelCallTask)
}
