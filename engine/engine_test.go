package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborstep/step/output"
	"github.com/arborstep/step/stepfail"
	"github.com/arborstep/step/term"
)

func alwaysFail() term.Native {
	return term.Native{
		Value: Task(Predicate(func(args []term.Term, buf *output.Buffer, env Env) bool { return false })),
		Label: "AlwaysFail",
	}
}

func TestBacktrackLeavesBufferClean(t *testing.T) {
	m := NewModule()
	m.Set("AlwaysFail", alwaysFail())

	require.NoError(t, m.DefineMethod(MethodDef{
		TaskName: "Greet",
		Pattern:  term.Tuple{},
		Body:     NewEmit([]string{"hi"}, NewCall(term.String("AlwaysFail"), nil, nil)),
	}))
	require.NoError(t, m.DefineMethod(MethodDef{
		TaskName: "Greet",
		Pattern:  term.Tuple{},
		Body:     NewEmit([]string{"bye"}, nil),
	}))

	res, err := m.Call("Greet")
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, "bye", res.Text, "no trace of the failed first method should survive")
}

func TestDeterministicTaskStopsAtFirstSuccess(t *testing.T) {
	m := NewModule()
	for _, word := range []string{"first", "second"} {
		require.NoError(t, m.DefineMethod(MethodDef{
			TaskName: "Pick",
			Pattern:  term.Tuple{},
			Body:     NewEmit([]string{word}, nil),
		}))
	}
	res, err := m.Call("Pick")
	require.NoError(t, err)
	require.Equal(t, "first", res.Text, "a deterministic task must commit to its first successful method")
}

func TestMultipleSolutionsFlagAllowsSecondMethod(t *testing.T) {
	m := NewModule()
	require.NoError(t, m.DefineMethod(MethodDef{
		TaskName: "Pick",
		Pattern:  term.Tuple{},
		Flags:    Flags{MultipleSolutions: true},
		Body:     NewEmit([]string{"bad"}, NewCall(term.String("AlwaysFail"), nil, nil)),
	}))
	m.Set("AlwaysFail", alwaysFail())
	require.NoError(t, m.DefineMethod(MethodDef{
		TaskName: "Pick",
		Pattern:  term.Tuple{},
		Flags:    Flags{MultipleSolutions: true},
		Body:     NewEmit([]string{"good"}, nil),
	}))
	res, err := m.Call("Pick")
	require.NoError(t, err)
	require.Equal(t, "good", res.Text, "a non-deterministic task must fall through to its next method on failure")
}

func TestArityMismatchRejected(t *testing.T) {
	task := NewCompoundTask("Foo", 1)
	err := task.AddMethod(&Method{
		TaskName: "Foo",
		Pattern:  term.Tuple{term.NewVar("x"), term.NewVar("y")},
	}, Flags{})
	require.Error(t, err)
	require.IsType(t, &stepfail.ArgumentCount{}, err)
}

func TestUndefinedTaskFails(t *testing.T) {
	m := NewModule()
	_, err := m.Call("NoSuchTask")
	require.Error(t, err)
}

func TestMustSucceedRaisesCallFailed(t *testing.T) {
	m := NewModule()
	require.NoError(t, m.DefineMethod(MethodDef{
		TaskName: "Pick",
		Pattern:  term.Tuple{},
		Body:     NewCall(term.String("AlwaysFail"), nil, nil),
	}))
	m.Set("AlwaysFail", alwaysFail())
	_, err := m.Call("Pick")
	require.Error(t, err)
	require.IsType(t, &stepfail.CallFailed{}, err)
}

func TestFallibleTaskReturnsNilResultInsteadOfError(t *testing.T) {
	m := NewModule()
	require.NoError(t, m.DefineMethod(MethodDef{
		TaskName: "Pick",
		Pattern:  term.Tuple{},
		Flags:    Flags{Fallible: true},
		Body:     NewCall(term.String("AlwaysFail"), nil, nil),
	}))
	m.Set("AlwaysFail", alwaysFail())
	res, err := m.Call("Pick")
	require.NoError(t, err, "a +fallible task's failure must not raise an error")
	require.Nil(t, res)
}

func TestDoAllConcatenatesEverySolution(t *testing.T) {
	m := NewModule()
	body := NewBranch([]Step{
		NewEmit([]string{"a"}, nil),
		NewEmit([]string{"b"}, nil),
		NewEmit([]string{"c"}, nil),
	}, false, nil)
	require.NoError(t, m.DefineMethod(MethodDef{
		TaskName: "All",
		Pattern:  term.Tuple{},
		Body:     NewPrimitive(Task(DoAll(body)), nil, nil),
	}))
	res, err := m.Call("All")
	require.NoError(t, err)
	require.Equal(t, "a b c", res.Text, "DoAll must concatenate every solution in search order")
}

func TestOnceCommitsToFirstSolutionOnly(t *testing.T) {
	m := NewModule()
	body := NewBranch([]Step{
		NewEmit([]string{"a"}, nil),
		NewEmit([]string{"b"}, nil),
	}, false, nil)
	require.NoError(t, m.DefineMethod(MethodDef{
		TaskName: "First",
		Pattern:  term.Tuple{},
		Body:     NewPrimitive(Task(Once(body)), nil, nil),
	}))
	res, err := m.Call("First")
	require.NoError(t, err)
	require.Equal(t, "a", res.Text, "Once must commit to the first solution")
}

func TestMaxPicksHighestScore(t *testing.T) {
	m := NewModule()
	score := term.NewVar("score")
	body := NewBranch([]Step{
		NewBind(score, term.Int(1), NewEmit([]string{"low"}, nil)),
		NewBind(score, term.Int(9), NewEmit([]string{"high"}, nil)),
		NewBind(score, term.Int(5), NewEmit([]string{"mid"}, nil)),
	}, false, nil)
	require.NoError(t, m.DefineMethod(MethodDef{
		TaskName: "Best",
		Pattern:  term.Tuple{},
		Body:     NewPrimitive(Task(Max(score, body)), nil, nil),
	}))
	res, err := m.Call("Best")
	require.NoError(t, err)
	require.Equal(t, "high", res.Text, "Max must replay the highest-scoring solution")
}

func TestMinPicksLowestScore(t *testing.T) {
	m := NewModule()
	score := term.NewVar("score")
	body := NewBranch([]Step{
		NewBind(score, term.Int(1), NewEmit([]string{"low"}, nil)),
		NewBind(score, term.Int(9), NewEmit([]string{"high"}, nil)),
		NewBind(score, term.Int(5), NewEmit([]string{"mid"}, nil)),
	}, false, nil)
	require.NoError(t, m.DefineMethod(MethodDef{
		TaskName: "Worst",
		Pattern:  term.Tuple{},
		Body:     NewPrimitive(Task(Min(score, body)), nil, nil),
	}))
	res, err := m.Call("Worst")
	require.NoError(t, err)
	require.Equal(t, "low", res.Text, "Min must replay the lowest-scoring solution")
}

func TestExactlyOnceFailsWithNoSolutions(t *testing.T) {
	m := NewModule()
	body := NewCall(term.String("AlwaysFail"), nil, nil)
	m.Set("AlwaysFail", alwaysFail())
	require.NoError(t, m.DefineMethod(MethodDef{
		TaskName: "Must",
		Pattern:  term.Tuple{},
		Body:     NewPrimitive(Task(ExactlyOnce(body, "AlwaysFail")), nil, nil),
	}))
	_, err := m.Call("Must")
	require.Error(t, err)
	require.IsType(t, &stepfail.CallFailed{}, err)
}
