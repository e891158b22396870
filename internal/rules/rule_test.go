package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSupportedOperator(t *testing.T) {
	for _, op := range SupportedOperators {
		assert.True(t, IsSupportedOperator(op), "Expected %q to be supported", op)
	}
	assert.False(t, IsSupportedOperator("modulo"))
	assert.False(t, IsSupportedOperator("equal"))
}

func TestExists_Assumption(t *testing.T) {
	a := Exists("person")
	assert.Equal(t, OperatorExists, a.Operator)
	assert.Empty(t, a.RightTerm)
	assert.Equal(t, "person exists", a.String())
	assert.Equal(t, "age > 17", NewAssumption("age", ">", "17").String())
}

func TestAction_PathSplitting(t *testing.T) {
	a := Action{Method: "org.example.Person.setAdult", Args: []string{"true"}}
	target, ok := a.Target()
	assert.True(t, ok)
	assert.Equal(t, "org.example.Person", target)
	assert.Equal(t, "setAdult", a.MethodName())

	_, ok = Action{Method: "setAdult"}.Target()
	assert.False(t, ok)
}

func TestRuleSet_DefaultsAndProperties(t *testing.T) {
	rs := NewRuleSet("", "", nil)
	assert.Equal(t, DefaultRuleSetName, rs.Name)
	assert.Equal(t, DefaultRuleSetDescription, rs.Description)
	assert.Empty(t, rs.URI())

	rs.SetURI("promotions")
	rs.SetProperty("owner", "hr")
	v, ok := rs.Property("owner")
	assert.True(t, ok)
	assert.Equal(t, "hr", v)

	props := rs.Properties()
	props["owner"] = "changed"
	v, _ = rs.Property("owner")
	assert.Equal(t, "hr", v, "Properties must return a copy")

	assert.Equal(t, Metadata{URI: "promotions", Name: DefaultRuleSetName, Description: DefaultRuleSetDescription}, rs.Metadata())
}

func TestNewRule_IsEnabled(t *testing.T) {
	r := NewRule("promote", "", nil, nil)
	assert.True(t, r.Enabled)
	_, ok := r.Property("missing")
	assert.False(t, ok)
	r.SetProperty("k", "v")
	v, _ := r.Property("k")
	assert.Equal(t, "v", v)
}
