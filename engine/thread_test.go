package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arborstep/step/stepfail"
	"github.com/arborstep/step/term"
)

func TestThreadStepBudgetCancelsSearch(t *testing.T) {
	m := NewModule()
	require.NoError(t, m.DefineMethod(MethodDef{
		TaskName: "Loop",
		Pattern:  term.Tuple{},
		Body:     NewCall(term.String("Loop"), nil, nil),
	}))
	thread := NewThread("budget")
	thread.MaxSteps = 5
	_, err := m.CallWithThread(thread, "Loop")
	require.Error(t, err)
	require.IsType(t, &stepfail.StepBudgetExceeded{}, err)
}

func TestThreadCancelStopsSearchBeforeMaxSteps(t *testing.T) {
	m := NewModule()
	require.NoError(t, m.DefineMethod(MethodDef{
		TaskName: "Loop",
		Pattern:  term.Tuple{},
		Body:     NewCall(term.String("Loop"), nil, nil),
	}))
	thread := NewThread("cancel")
	thread.Cancel("stop")
	_, err := m.CallWithThread(thread, "Loop")
	require.Error(t, err, "a pre-cancelled thread must not let the call proceed")
}

func TestThreadWatchContextCancelsOnTimeout(t *testing.T) {
	thread := NewThread("watched")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	go thread.WatchContext(ctx)
	<-ctx.Done()
	require.Eventually(t, thread.Cancelled, 100*time.Millisecond, 5*time.Millisecond)
}

func TestSeededThreadsReproduceSameOrder(t *testing.T) {
	build := func() *Module {
		m := NewModule()
		for _, w := range []string{"a", "b", "c", "d"} {
			require.NoError(t, m.DefineMethod(MethodDef{
				TaskName: "Pick",
				Pattern:  term.Tuple{},
				Flags:    Flags{Shuffle: true},
				Body:     NewEmit([]string{w}, nil),
			}))
		}
		return m
	}

	m1 := build()
	m2 := build()
	res1, err := m1.CallWithThread(NewSeededThread("a", 42), "Pick")
	require.NoError(t, err)
	res2, err := m2.CallWithThread(NewSeededThread("b", 42), "Pick")
	require.NoError(t, err)
	require.Equal(t, res1.Text, res2.Text, "same seed should pick the same first method")
}
