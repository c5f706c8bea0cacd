package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborstep/step/term"
)

func TestBindHookCachesInInitiatingModule(t *testing.T) {
	parent := NewModule()
	child := NewChildModule(parent)

	calls := 0
	parent.AddBindHook(func(initiator *Module, name string) (term.Term, bool) {
		if name != "Hooked" {
			return nil, false
		}
		calls++
		return term.String("supplied"), true
	})

	v, ok := child.Get("Hooked")
	require.True(t, ok)
	require.Equal(t, term.String("supplied"), v)

	require.True(t, child.Defines("Hooked"), "the hook's value must be cached where the lookup originated")
	require.False(t, parent.Defines("Hooked"), "the hook's value must not be cached in the hook's own module")

	_, _ = child.Get("Hooked")
	require.Equal(t, 1, calls, "a cached value must not re-invoke the hook")
}

func TestChildShadowsParentBinding(t *testing.T) {
	parent := NewModule()
	parent.Set("Tone", term.String("formal"))
	child := NewChildModule(parent)

	v, ok := child.Get("Tone")
	require.True(t, ok)
	require.Equal(t, term.String("formal"), v)

	child.Set("Tone", term.String("casual"))
	v, _ = child.Get("Tone")
	require.Equal(t, term.String("casual"), v)
	v, _ = parent.Get("Tone")
	require.Equal(t, term.String("formal"), v, "a child Set must not mutate the parent")
}

func TestMentionDefaultsToWrite(t *testing.T) {
	m := NewModule()
	v, ok := m.Get("Mention")
	require.True(t, ok)
	nv, isNative := v.(term.Native)
	require.True(t, isNative)
	require.Equal(t, "Write", nv.Label)
}

func TestMentionDefaultCanBeOverridden(t *testing.T) {
	m := NewModule()
	m.Set("Mention", term.String("custom"))
	v, _ := m.Get("Mention")
	require.Equal(t, term.String("custom"), v)
}

func TestChildModuleFindsParentTasks(t *testing.T) {
	parent := NewModule()
	require.NoError(t, parent.DefineMethod(MethodDef{
		TaskName: "Greet",
		Pattern:  term.Tuple{},
		Body:     NewEmit([]string{"hi"}, nil),
	}))
	child := NewChildModule(parent)
	res, err := child.Call("Greet")
	require.NoError(t, err)
	require.Equal(t, "hi", res.Text)
}

func TestCallPredicate(t *testing.T) {
	m := NewModule()
	require.NoError(t, m.DefineMethod(MethodDef{
		TaskName: "IsTwo",
		Pattern:  term.Tuple{term.Int(2)},
		Flags:    Flags{Fallible: true},
	}))

	ok, err := m.CallPredicate("IsTwo", term.Int(2))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.CallPredicate("IsTwo", term.Int(3))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCallFunctionNarrowsResultTypes(t *testing.T) {
	m := NewModule()
	v := term.NewVar("out")
	require.NoError(t, m.DefineMethod(MethodDef{
		TaskName: "Answer",
		Pattern:  term.Tuple{v},
		Locals:   []*term.Var{v},
		Body:     NewBind(v, term.Int(42), nil),
	}))

	n, err := CallFunction[int](m, "Answer")
	require.NoError(t, err)
	require.Equal(t, 42, n)

	f, err := CallFunction[float64](m, "Answer")
	require.NoError(t, err)
	require.Equal(t, 42.0, f)
}

func TestStateItemsKeepInsertionOrder(t *testing.T) {
	m := NewModule()
	m.Set("Zebra", term.Int(1))
	m.Set("Aard", term.Int(2))
	m.Set("Zebra", term.Int(3))

	items := m.StateItems()
	var names []string
	for _, it := range items {
		if it.Name == "Zebra" || it.Name == "Aard" {
			names = append(names, it.Name)
		}
	}
	require.Equal(t, []string{"Zebra", "Aard"}, names, "re-setting a name must not move it")
}

func TestEraseMethodsResetsFlags(t *testing.T) {
	task := NewCompoundTask("T", 0)
	require.NoError(t, task.AddMethod(&Method{TaskName: "T", Pattern: term.Tuple{}}, Flags{Shuffle: true, Fallible: true}))
	require.True(t, task.Flags.Shuffle)

	task.EraseMethods()
	require.Empty(t, task.Methods)
	require.False(t, task.Flags.Shuffle)
	require.False(t, task.Flags.Fallible)
}
