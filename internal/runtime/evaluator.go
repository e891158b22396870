// internal/runtime/evaluator.go

package runtime

import (
	"strconv"
	"strings"

	"rgehrsitz/rexchain/internal/memory"
	"rgehrsitz/rexchain/internal/rules"
	"rgehrsitz/rexchain/internal/vocabulary"
)

// VariablePrefix marks a term as a variable, e.g. ":who".
const VariablePrefix = ":"

// Bindings maps variables to the working-memory keys they matched.
// It lives for one rule: assumptions bind, actions read.
type Bindings map[string]string

// operatorFunc decides one assumption over resolved operands.
type operatorFunc func(e *Evaluator, t1, t2 Term, b Bindings) (bool, error)

// Evaluator applies assumption operators to resolved terms.
type Evaluator struct {
	wm        *memory.WorkingMemory
	resolver  *Resolver
	operators map[string]operatorFunc
}

// NewEvaluator creates an evaluator with all supported operators.
func NewEvaluator(wm *memory.WorkingMemory, resolver *Resolver) *Evaluator {
	e := &Evaluator{
		wm:        wm,
		resolver:  resolver,
		operators: make(map[string]operatorFunc),
	}

	e.operators[rules.OperatorExists] = operatorExists
	e.operators[rules.OperatorEqual] = operatorEqual
	e.operators[rules.OperatorNotEqual] = operatorNotEqual

	e.operators[rules.OperatorLessThan] = relational(rules.OperatorLessThan, func(a, b float64) bool { return a < b })
	e.operators[rules.OperatorLessThanOrEqual] = relational(rules.OperatorLessThanOrEqual, func(a, b float64) bool { return a <= b })
	e.operators[rules.OperatorGreaterThan] = relational(rules.OperatorGreaterThan, func(a, b float64) bool { return a > b })
	e.operators[rules.OperatorGreaterThanOrEqual] = relational(rules.OperatorGreaterThanOrEqual, func(a, b float64) bool { return a >= b })

	e.operators[rules.OperatorContains] = operatorContains
	e.operators[rules.OperatorNotContains] = operatorNotContains
	e.operators[rules.OperatorContainsAtLeastOne] = operatorContainsAtLeastOne
	e.operators[rules.OperatorNotContainsAnyOne] = operatorNotContainsAnyOne

	return e
}

// Evaluate resolves both terms of a and applies its operator.
func (e *Evaluator) Evaluate(a rules.Assumption, b Bindings) (bool, error) {
	op, ok := e.operators[a.Operator]
	if !ok {
		return false, newError(KindUnsupportedOperator, a.Operator, "", nil)
	}
	t1, err := e.resolver.Resolve(a.LeftTerm)
	if err != nil {
		return false, err
	}
	t2, err := e.resolver.Resolve(a.RightTerm)
	if err != nil {
		return false, err
	}
	return op(e, t1, t2, b)
}

// EvaluateAll is the conjunction of assumptions, stopping at the first failure.
func (e *Evaluator) EvaluateAll(assumptions []rules.Assumption, b Bindings) (bool, error) {
	for _, a := range assumptions {
		ok, err := e.Evaluate(a, b)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// bindFirst binds variable to the first working-memory key whose value matches.
func (e *Evaluator) bindFirst(variable string, b Bindings, match func(v any) bool) bool {
	for _, entry := range e.wm.Entries() {
		if entry.Value != nil && match(entry.Value) {
			b[variable] = entry.Key
			return true
		}
	}
	return false
}

func isVariable(t Term) bool {
	return t.Valid && strings.HasPrefix(t.Value, VariablePrefix)
}

func operatorExists(e *Evaluator, t1, _ Term, _ Bindings) (bool, error) {
	return t1.Valid && e.wm.ContainsKey(t1.Value), nil
}

func operatorEqual(e *Evaluator, t1, t2 Term, b Bindings) (bool, error) {
	if isVariable(t1) && t2.Valid {
		return e.bindFirst(t1.Value, b, func(v any) bool {
			s, ok := v.(string)
			return ok && s == t2.Value
		}), nil
	}
	return termsEqual(t1, t2), nil
}

func operatorNotEqual(_ *Evaluator, t1, t2 Term, _ Bindings) (bool, error) {
	return !termsEqual(t1, t2), nil
}

func termsEqual(t1, t2 Term) bool {
	if !t1.Valid || !t2.Valid {
		return !t1.Valid && !t2.Valid
	}
	return t1.Value == t2.Value
}

func relational(op string, cmp func(a, b float64) bool) operatorFunc {
	return func(_ *Evaluator, t1, t2 Term, _ Bindings) (bool, error) {
		if !t1.Valid || !t2.Valid {
			return false, nil
		}
		a, errA := parseNumber(t1.Value)
		b, errB := parseNumber(t2.Value)
		if errA != nil || errB != nil {
			return false, newError(KindNumericType, op, "'"+t1.Value+"','"+t2.Value+"'", nil)
		}
		return cmp(a, b), nil
	}
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func operatorContains(e *Evaluator, t1, t2 Term, b Bindings) (bool, error) {
	if isVariable(t1) && t2.Valid {
		return e.bindFirst(t1.Value, b, func(v any) bool {
			return strings.Contains(vocabulary.Format(v), t2.Value)
		}), nil
	}
	if items, ok := listItems(t1, t2); ok {
		return containsCount(t1.Value, items) == len(items), nil
	}
	return t1.Valid && t2.Valid && strings.Contains(t1.Value, t2.Value), nil
}

func operatorNotContains(_ *Evaluator, t1, t2 Term, _ Bindings) (bool, error) {
	if items, ok := listItems(t1, t2); ok {
		return containsCount(t1.Value, items) < len(items), nil
	}
	return notContainsScalar(t1, t2), nil
}

func operatorContainsAtLeastOne(_ *Evaluator, t1, t2 Term, _ Bindings) (bool, error) {
	if items, ok := listItems(t1, t2); ok {
		return containsCount(t1.Value, items) > 0, nil
	}
	return t1.Valid && t2.Valid && strings.Contains(t1.Value, t2.Value), nil
}

func operatorNotContainsAnyOne(_ *Evaluator, t1, t2 Term, _ Bindings) (bool, error) {
	if items, ok := listItems(t1, t2); ok {
		return containsCount(t1.Value, items) == 0, nil
	}
	return notContainsScalar(t1, t2), nil
}

func notContainsScalar(t1, t2 Term) bool {
	if !t1.Valid {
		return false
	}
	return !t2.Valid || !strings.Contains(t1.Value, t2.Value)
}

// listItems splits a bracketed right term "[a,b,c]" on bare commas. Elements cannot
// contain commas and trailing empty elements are dropped.
func listItems(t1, t2 Term) ([]string, bool) {
	if !t1.Valid || !t2.Valid {
		return nil, false
	}
	s := t2.Value
	if len(s) < 2 || !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, false
	}
	inner := s[1 : len(s)-1]
	if !strings.Contains(inner, ",") {
		return []string{inner}, true
	}
	items := strings.Split(inner, ",")
	for len(items) > 0 && items[len(items)-1] == "" {
		items = items[:len(items)-1]
	}
	return items, true
}

func containsCount(s string, items []string) int {
	n := 0
	for _, item := range items {
		if strings.Contains(s, item) {
			n++
		}
	}
	return n
}
