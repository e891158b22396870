package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rgehrsitz/rexchain/internal/memory"
	"rgehrsitz/rexchain/internal/rules"
	"rgehrsitz/rexchain/internal/testutil"
	"rgehrsitz/rexchain/internal/vocabulary"
)

func newTestEvaluator(t *testing.T) (*Evaluator, *memory.WorkingMemory) {
	t.Helper()
	wm := newTestMemory()
	wm.Put("name", "Rex")
	wm.Put("age", 20)
	wm.Put("colors", "blue,green")
	wm.Put("colors2", "green,yellow")
	wm.Put("owner", "Rex")
	wm.Register(vocabulary.Flag("vip"))
	wm.Register(&testutil.Person{ID: "alice"})
	wm.Register(&testutil.Person{ID: "bob"})
	return NewEvaluator(wm, NewResolver(wm)), wm
}

func TestEvaluate_Operators(t *testing.T) {
	ev, _ := newTestEvaluator(t)

	tests := []struct {
		name string
		a    rules.Assumption
		want bool
	}{
		{"exists flag", rules.Exists("vip"), true},
		{"exists missing", rules.Exists("missing"), false},
		// the resolved value "20" is not itself a key
		{"exists non-flag value", rules.Exists("age"), false},

		{"equal normalized literals", rules.NewAssumption("5.0", "=", "5"), true},
		{"equal key", rules.NewAssumption("age", "=", "20"), true},
		{"equal key mismatch", rules.NewAssumption("age", "=", "21"), false},
		{"equal both null", rules.NewAssumption("alice.getManagerName", "=", "bob.getManagerName"), true},
		{"equal one null", rules.NewAssumption("alice.getManagerName", "=", "x"), false},

		{"not equal", rules.NewAssumption("age", "<>", "21"), true},
		{"not equal same", rules.NewAssumption("age", "<>", "20"), false},
		{"not equal one null", rules.NewAssumption("alice.getManagerName", "<>", "x"), true},
		{"not equal both null", rules.NewAssumption("alice.getManagerName", "<>", "bob.getManagerName"), false},

		{"greater", rules.NewAssumption("age", ">", "17"), true},
		{"greater decimal literal", rules.NewAssumption("age", ">", "19.5"), true},
		{"less", rules.NewAssumption("age", "<", "20"), false},
		{"less or equal", rules.NewAssumption("age", "<=", "20"), true},
		{"greater or equal normalized", rules.NewAssumption("age", ">=", "20.0"), true},
		{"relational null fails", rules.NewAssumption("alice.getManagerName", ">", "3"), false},

		{"contains scalar", rules.NewAssumption("name", "contains", "Re"), true},
		{"contains scalar missing", rules.NewAssumption("name", "contains", "Max"), false},
		{"contains all listed", rules.NewAssumption("colors", "contains", "[blue,green]"), true},
		{"contains not all listed", rules.NewAssumption("colors", "contains", "[blue,red]"), false},
		{"contains null left", rules.NewAssumption("alice.getManagerName", "contains", "x"), false},

		{"at least one listed", rules.NewAssumption("colors", "containsatleastone", "[red,blue]"), true},
		{"none listed", rules.NewAssumption("colors2", "containsatleastone", "[red,blue]"), false},
		{"at least one scalar", rules.NewAssumption("colors", "containsatleastone", "green"), true},

		{"notcontains one missing", rules.NewAssumption("colors", "notcontains", "[blue,red]"), true},
		{"notcontains all present", rules.NewAssumption("colors", "notcontains", "[blue,green]"), false},
		{"notcontains scalar", rules.NewAssumption("colors", "notcontains", "red"), true},
		{"notcontains null right", rules.NewAssumption("colors", "notcontains", "alice.getManagerName"), true},
		{"notcontains null left", rules.NewAssumption("alice.getManagerName", "notcontains", "x"), false},

		{"notcontainsanyone none present", rules.NewAssumption("colors", "notcontainsanyone", "[red,yellow]"), true},
		{"notcontainsanyone one present", rules.NewAssumption("colors", "notcontainsanyone", "[red,green]"), false},
		{"notcontainsanyone scalar", rules.NewAssumption("colors", "notcontainsanyone", "blue"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ev.Evaluate(tt.a, Bindings{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_LargeFloatFacts(t *testing.T) {
	wm := newTestMemory()
	wm.Register(vocabulary.NewClause("count", float64(1000000)))
	wm.Register(vocabulary.NewClause("budget", 2.5e7))
	ev := NewEvaluator(wm, NewResolver(wm))

	tests := []struct {
		a    rules.Assumption
		want bool
	}{
		{rules.NewAssumption("count", "=", "1000000"), true},
		{rules.NewAssumption("count", "=", "1000000.0"), true},
		{rules.NewAssumption("count", "<>", "1000000"), false},
		{rules.NewAssumption("count", ">=", "1000000"), true},
		{rules.NewAssumption("budget", "=", "25000000"), true},
		{rules.NewAssumption("budget", "contains", "2500"), true},
	}
	for _, tt := range tests {
		got, err := ev.Evaluate(tt.a, Bindings{})
		require.NoError(t, err, tt.a.String())
		assert.Equal(t, tt.want, got, tt.a.String())
	}

	v, err := NewResolver(wm).Resolve("count")
	require.NoError(t, err)
	assert.Equal(t, Text("1000000"), v)
}

func TestEvaluate_NumericTypeError(t *testing.T) {
	ev, _ := newTestEvaluator(t)

	_, err := ev.Evaluate(rules.NewAssumption("name", ">", "3"), Bindings{})
	assert.ErrorIs(t, err, ErrNumericType)

	_, err = ev.Evaluate(rules.NewAssumption("age", "<", ""), Bindings{})
	assert.ErrorIs(t, err, ErrNumericType, "Empty operands are not numeric")
}

func TestEvaluate_UnsupportedOperator(t *testing.T) {
	ev, _ := newTestEvaluator(t)
	_, err := ev.Evaluate(rules.NewAssumption("age", "~=", "20"), Bindings{})
	require.ErrorIs(t, err, ErrUnsupportedOperator)
	assert.Equal(t, KindUnsupportedOperator, KindOf(err))
}

func TestEvaluate_VariableBinding(t *testing.T) {
	ev, _ := newTestEvaluator(t)

	b := Bindings{}
	ok, err := ev.Evaluate(rules.NewAssumption(":who", "=", "Rex"), b)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "name", b[":who"], "Expected the first key in insertion order")

	b = Bindings{}
	ok, err = ev.Evaluate(rules.NewAssumption(":who", "=", "Max"), b)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, b)

	// only string values can equal a term
	b = Bindings{}
	ok, err = ev.Evaluate(rules.NewAssumption(":n", "=", "20"), b)
	require.NoError(t, err)
	assert.False(t, ok)

	b = Bindings{}
	ok, err = ev.Evaluate(rules.NewAssumption(":c", "contains", "green"), b)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "colors", b[":c"])
}

func TestEvaluateAll_ShortCircuits(t *testing.T) {
	ev, _ := newTestEvaluator(t)

	ok, err := ev.EvaluateAll([]rules.Assumption{
		rules.NewAssumption("age", ">", "30"),
		rules.NewAssumption("age", "~=", "20"),
	}, Bindings{})
	require.NoError(t, err, "The unsupported operator is never reached")
	assert.False(t, ok)

	ok, err = ev.EvaluateAll([]rules.Assumption{
		rules.NewAssumption("age", ">", "17"),
		rules.NewAssumption("name", "=", "Rex"),
	}, Bindings{})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.EvaluateAll(nil, Bindings{})
	require.NoError(t, err)
	assert.True(t, ok, "An empty conjunction holds")
}

func TestListItems(t *testing.T) {
	tests := []struct {
		in    string
		want  []string
		isSet bool
	}{
		{"[a,b,c]", []string{"a", "b", "c"}, true},
		{"[a]", []string{"a"}, true},
		{"[]", []string{""}, true},
		{"[a,b,]", []string{"a", "b"}, true},
		{"[,]", []string{}, true},
		{"a,b", nil, false},
		{"[a", nil, false},
	}
	for _, tt := range tests {
		got, ok := listItems(Text("x"), Text(tt.in))
		assert.Equal(t, tt.isSet, ok, tt.in)
		if tt.isSet {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
	_, ok := listItems(Null, Text("[a]"))
	assert.False(t, ok)
}
