package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rgehrsitz/rexchain/internal/memory"
	"rgehrsitz/rexchain/internal/testutil"
	"rgehrsitz/rexchain/internal/vocabulary"
)

func TestPut_ReplacesAndKeepsOrder(t *testing.T) {
	wm := memory.New(vocabulary.New())
	wm.Put("a", 1)
	wm.Put("b", 2)
	wm.Put("a", 3)

	assert.Equal(t, []string{"a", "b"}, wm.Keys())
	v, ok := wm.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, []any{3, 2}, wm.Values())
	assert.Equal(t, 2, wm.Len())
}

func TestRegister_Clause(t *testing.T) {
	wm := memory.New(vocabulary.New())
	keys := wm.Register(vocabulary.NewClause("age", 20))
	assert.Equal(t, []string{"age"}, keys)

	v, ok := wm.Get("age")
	require.True(t, ok)
	assert.Equal(t, 20, v, "Expected the clause value, not the clause")

	wm.Register(vocabulary.Clause{Name: "city", Value: "Rome"})
	assert.True(t, wm.ContainsKey("city"))

	wm.Register(vocabulary.Flag("vip"))
	v, _ = wm.Get("vip")
	assert.Equal(t, "vip", v)
}

func TestRegister_NamedFact(t *testing.T) {
	wm := memory.New(testutil.NewVocabulary())
	p := &testutil.Person{ID: "alice", Age: 30}
	keys := wm.Register(p)
	assert.Equal(t, []string{"alice"}, keys)
	assert.False(t, wm.ContainsKey("Person"), "Named facts get no type aliases")
}

func TestRegister_UnnamedFactUsesTypeAndAliases(t *testing.T) {
	wm := memory.New(testutil.NewVocabulary())
	d := &testutil.Dog{Name: "Rex"}
	keys := wm.Register(d)
	assert.Equal(t, []string{"Dog", "Animal", "Pet"}, keys)
	for _, key := range keys {
		v, ok := wm.Get(key)
		require.True(t, ok)
		assert.Same(t, d, v)
	}

	p := &testutil.Person{Age: 3}
	keys = wm.Register(p)
	assert.Equal(t, []string{"Person", "Mammal", "Customer"}, keys, "Empty identifier falls back to the type name")
}

func TestRegister_UnregisteredType(t *testing.T) {
	wm := memory.New(vocabulary.New())
	assert.Equal(t, []string{"string"}, wm.Register("hello"))
	type Sensor struct{ ID int }
	assert.Equal(t, []string{"Sensor"}, wm.Register(&Sensor{ID: 1}))
}

type labelled struct{ label string }

func (l labelled) FactName() string { return l.label }

func TestRegister_NamedInterface(t *testing.T) {
	wm := memory.New(vocabulary.New())
	assert.Equal(t, []string{"door"}, wm.Register(labelled{label: "door"}))
	assert.Equal(t, []string{"labelled"}, wm.Register(labelled{}))
}

func TestRemove_ByValueDropsAliases(t *testing.T) {
	wm := memory.New(testutil.NewVocabulary())
	d := &testutil.Dog{Name: "Rex"}
	wm.Register(d)
	wm.Put("other", "x")

	removed := wm.Remove(d)
	assert.ElementsMatch(t, []string{"Dog", "Animal", "Pet"}, removed)
	assert.Equal(t, []string{"other"}, wm.Keys())
	assert.False(t, wm.ContainsValue(d))
	assert.True(t, wm.ContainsValue("x"))

	assert.Empty(t, wm.Remove("missing"))
}

func TestRemove_ClauseDropsOnlyItsEntry(t *testing.T) {
	wm := memory.New(vocabulary.New())
	c := vocabulary.NewClause("colors", "blue,green")
	wm.Register(c)
	wm.Put("backup", "blue,green")

	assert.True(t, wm.ContainsValue(c))
	assert.True(t, wm.ContainsValue(*c))
	assert.False(t, wm.ContainsValue(vocabulary.NewClause("colors", "red")))

	assert.Equal(t, []string{"colors"}, wm.Remove(c))
	assert.Equal(t, []string{"backup"}, wm.Keys(), "Other keys holding the same value are kept")
	assert.False(t, wm.ContainsValue(c))
	assert.Empty(t, wm.Remove(c))

	wm.Put("colors", "red")
	assert.Empty(t, wm.Remove(c), "A clause no longer matching its entry removes nothing")
	assert.True(t, wm.ContainsKey("colors"))
}

func TestClear(t *testing.T) {
	wm := memory.New(vocabulary.New())
	wm.Put("a", 1)
	wm.Clear()
	assert.Zero(t, wm.Len())
	assert.Empty(t, wm.Entries())
}

func TestEqual(t *testing.T) {
	assert.True(t, memory.Equal("a", "a"))
	assert.False(t, memory.Equal("1", 1))
	assert.True(t, memory.Equal([]int{1, 2}, []int{1, 2}))
	assert.True(t, memory.Equal(nil, nil))
	assert.False(t, memory.Equal(nil, 1))

	a := &testutil.Dog{Name: "Rex"}
	b := &testutil.Dog{Name: "Rex"}
	assert.False(t, memory.Equal(a, b), "Pointers compare by identity")

	c1 := vocabulary.Clause{Name: "x", Value: []int{1}}
	c2 := vocabulary.Clause{Name: "x", Value: []int{1}}
	assert.True(t, memory.Equal(c1, c2))
}
