// internal/vocabulary/type.go

// Package vocabulary declares the fact types a rule set can reason over.
//
// Rules refer to facts, accessors and methods by name. Instead of inspecting Go types at
// run time, every fact type registers a Type: the names it is known by, a factory for
// fresh instances, its zero-argument accessors and its callable methods with declared
// parameter kinds.
package vocabulary

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrNoValue is returned by an accessor whose underlying value is absent.
// The resolver turns it into a null term instead of failing the run.
var ErrNoValue = errors.New("no value")

// Accessor reads a value from a fact without arguments.
type Accessor func(fact any) (any, error)

// Kind is the semantic type of a method parameter.
type Kind int

const (
	// KindString receives the raw argument text (a generic parameter).
	KindString Kind = iota
	KindInt
	KindInt64
	KindFloat32
	KindFloat64
	KindBool
	// KindRune receives the first code point of the text.
	KindRune
	// KindCustom is built by the parameter's Parse function.
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindRune:
		return "rune"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Param declares one method parameter.
type Param struct {
	Kind Kind
	// TypeName names a custom kind in error messages.
	TypeName string
	// Parse is the single-string constructor of a custom kind.
	Parse func(string) (any, error)
}

// Coerce converts argument text to the parameter's semantic type.
// valid is false when the text came from an absent value.
func (p Param) Coerce(text string, valid bool) (any, error) {
	if !valid {
		if p.Kind == KindString {
			return nil, nil
		}
		return nil, fmt.Errorf("null value for %s parameter", p.name())
	}
	switch p.Kind {
	case KindString:
		return text, nil
	case KindInt:
		return strconv.Atoi(strings.TrimSpace(text))
	case KindInt64:
		return strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	case KindFloat32:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 32)
		return float32(f), err
	case KindFloat64:
		return strconv.ParseFloat(strings.TrimSpace(text), 64)
	case KindBool:
		return strings.EqualFold(text, "true"), nil
	case KindRune:
		r, size := utf8.DecodeRuneInString(text)
		if size == 0 {
			return nil, errors.New("empty value for rune parameter")
		}
		return r, nil
	case KindCustom:
		if p.Parse == nil {
			return nil, fmt.Errorf("type %s has no string constructor", p.name())
		}
		return p.Parse(text)
	default:
		return nil, fmt.Errorf("unknown parameter kind %d", p.Kind)
	}
}

func (p Param) name() string {
	if p.TypeName != "" {
		return p.TypeName
	}
	return p.Kind.String()
}

// Method is a callable member of a fact type, matched by name and arity.
type Method struct {
	Name   string
	Params []Param
	// Call mutates target in place; targets are expected to be pointers.
	Call func(target any, args []any) error
}

// Type is the declaration of a fact type.
type Type struct {
	// Name is the working-memory key of facts of this type.
	Name string
	// Exposes lists ancestor and capability names that alias the fact.
	Exposes []string
	// New returns a fresh zero-value instance, or nil when the type cannot be built by name.
	New func() any
	// NameOf returns a declared identifier of the fact, empty when it has none.
	NameOf    func(fact any) string
	Accessors map[string]Accessor
	Methods   []Method
}

// Method returns the first method with the given name and number of parameters.
func (t *Type) Method(name string, arity int) (Method, bool) {
	for _, m := range t.Methods {
		if m.Name == name && len(m.Params) == arity {
			return m, true
		}
	}
	return Method{}, false
}

// Accessor returns the named zero-argument accessor.
func (t *Type) Accessor(name string) (Accessor, bool) {
	a, ok := t.Accessors[name]
	return a, ok
}

// Named is implemented by facts that carry their own identifier.
type Named interface {
	FactName() string
}
