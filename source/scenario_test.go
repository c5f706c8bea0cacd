package source

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborstep/step/engine"
	"github.com/arborstep/step/output"
	"github.com/arborstep/step/stepfail"
	"github.com/arborstep/step/term"
)

// These tests drive whole programs through the front end and the engine
// together: definitions in .step syntax, a top-level call, and the
// generated text (or raised error) out the other side.

func loadModule(t *testing.T, src string) *engine.Module {
	t.Helper()
	m := engine.NewModule()
	require.NoError(t, AddDefinitions(m, "scenario.step", src))
	return m
}

func TestLiteralEmission(t *testing.T) {
	m := loadModule(t, "Test: hello world.\n")
	res, err := m.Call("Test")
	require.NoError(t, err)
	require.Equal(t, "hello world", res.Text)
}

func TestStringFormBindsItsLastArgument(t *testing.T) {
	m := loadModule(t, "Test: [StringForm 123 ?x] ?x.\n")
	res, err := m.Call("Test")
	require.NoError(t, err)
	require.Equal(t, "123", res.Text)
}

func TestFirstMatchingMethodWins(t *testing.T) {
	m := loadModule(t, "F 1: one.\nF 2: two.\n")

	res, err := m.Call("F", term.Int(1))
	require.NoError(t, err)
	require.Equal(t, "one", res.Text)

	res, err = m.Call("F", term.Int(2))
	require.NoError(t, err)
	require.Equal(t, "two", res.Text)

	_, err = m.Call("F", term.Int(3))
	require.Error(t, err)
	require.IsType(t, &stepfail.CallFailed{}, err)
}

func TestUnificationFlowsUpward(t *testing.T) {
	src := "Up ?y: [= ?y xyz].\n" +
		"Down ?y: ?y matched.\n" +
		"Test: [Up ?z] [Down ?z].\n"
	m := loadModule(t, src)
	res, err := m.Call("Test")
	require.NoError(t, err)
	require.Equal(t, "xyz matched", res.Text)
}

func TestOnceCutsRemainingAlternatives(t *testing.T) {
	src := "Choose ?x: [= ?x a].\n" +
		"Choose ?x: [= ?x b].\n" +
		"Test: [Once [Choose ?x]] ?x.\n"
	m := loadModule(t, src)
	for range 5 {
		res, err := m.Call("Test")
		require.NoError(t, err)
		require.Equal(t, "a", res.Text, "Once must always commit to the first solution")
	}
}

func TestMaxSelectsBestScoringSolution(t *testing.T) {
	src := "S +multi 1 10:.\n" +
		"S +multi 2 20:.\n" +
		"S +multi 3 5:.\n" +
		"Test ?best: [Max ?score [S ?best ?score]].\n"
	m := loadModule(t, src)
	best, err := engine.CallFunction[int](m, "Test")
	require.NoError(t, err)
	require.Equal(t, 2, best)
}

func TestMinSelectsWorstScoringSolution(t *testing.T) {
	src := "S +multi 1 10:.\n" +
		"S +multi 2 20:.\n" +
		"S +multi 3 5:.\n" +
		"Test ?best: [Min ?score [S ?best ?score]].\n"
	m := loadModule(t, src)
	best, err := engine.CallFunction[int](m, "Test")
	require.NoError(t, err)
	require.Equal(t, 3, best)
}

func TestThrowPreservesItsArguments(t *testing.T) {
	m := loadModule(t, "Test: [Throw a b c].\n")
	_, err := m.Call("Test")
	require.Error(t, err)
	thrown, ok := err.(*stepfail.Thrown)
	require.True(t, ok, "Throw must surface as a Thrown error, got %T", err)
	require.Len(t, thrown.Args, 3)
	require.Equal(t, "a", thrown.Args[0].String())
	require.Equal(t, "b", thrown.Args[1].String())
	require.Equal(t, "c", thrown.Args[2].String())
}

func TestDeterministicTaskOffersOnlyItsFirstAnswer(t *testing.T) {
	// Without +multi, a rejected answer must not fall through to the
	// next method: Max sees only the first solution.
	src := "S 1 10:.\n" +
		"S 2 20:.\n" +
		"Test ?best: [Max ?score [S ?best ?score]].\n"
	m := loadModule(t, src)
	best, err := engine.CallFunction[int](m, "Test")
	require.NoError(t, err)
	require.Equal(t, 1, best)
}

func TestDoAllConcatenatesSolutionsInSearchOrder(t *testing.T) {
	src := "Item +multi: a.\n" +
		"Item +multi: b.\n" +
		"Item +multi: c.\n" +
		"Test: [DoAll [Item]].\n"
	m := loadModule(t, src)
	res, err := m.Call("Test")
	require.NoError(t, err)
	require.Equal(t, "a b c", res.Text)
}

func TestRecursiveMethodKeepsItsOwnLocals(t *testing.T) {
	// Each activation must get fresh locals: the outer ?n is still 3
	// after the recursive calls have bound their own ?n to 2 and 1.
	src := "Count 0:.\n" +
		"Count ?n: [Count2 ?n] ?n.\n" +
		"Count2 3: [Count 2].\n" +
		"Count2 2: [Count 1].\n" +
		"Count2 1: [Count 0].\n" +
		"Test: [Count 3].\n"
	m := loadModule(t, src)
	res, err := m.Call("Test")
	require.NoError(t, err)
	require.Equal(t, "1 2 3", res.Text)
}

func TestInitiallySeedsModuleState(t *testing.T) {
	src := "initially: [Set Count 3].\n" +
		"Test: counted [Get Count ?c] ?c.\n"
	m := loadModule(t, src)
	res, err := m.Call("Test")
	require.NoError(t, err)
	require.Equal(t, "counted 3", res.Text)
}

func TestStateThreadsAcrossCalls(t *testing.T) {
	src := "Remember ?v: [Set Name ?v] noted.\n" +
		"Recall: [Get Name ?v] ?v.\n"
	m := loadModule(t, src)

	first, err := m.Call("Remember", term.String("ishtar"))
	require.NoError(t, err)
	require.Equal(t, "noted", first.Text)

	second, err := m.CallWithState(first.State, nil, "Recall")
	require.NoError(t, err)
	require.Equal(t, "ishtar", second.Text)

	// Without the threaded state the name was never bound.
	_, err = m.Call("Recall")
	require.Error(t, err)
	require.IsType(t, &stepfail.UndefinedVariable{}, err)
}

func TestFailedSetLeavesNoStateBehind(t *testing.T) {
	src := "Try +fallible: [Set Name ghost] [Fail].\n" +
		"Test: [DoAll [Try]] done.\n"
	m := loadModule(t, src)
	m.Set("Fail", term.Native{Value: engine.Task(engine.Predicate(
		func(args []term.Term, buf *output.Buffer, env engine.Env) bool { return false })),
		Label: "Fail"})

	res, err := m.Call("Test")
	require.NoError(t, err)
	require.Equal(t, "done", res.Text)
	require.Nil(t, res.State, "a binding made on a failed path must not survive")
}
