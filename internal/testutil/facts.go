// internal/testutil/facts.go

// Package testutil provides fact types and vocabularies shared by package tests.
package testutil

import (
	"errors"
	"fmt"

	"rgehrsitz/rexchain/internal/vocabulary"
)

// Person is identified by ID, so working memory keys it by that identifier.
type Person struct {
	ID         string
	Name       string
	Age        int
	Adult      bool
	AdultCalls int
	Manager    *Person
}

// Dog has no identifier and is aliased by the names its type exposes.
type Dog struct {
	Name  string
	Sound string
}

// Level is a custom parameter type built from a single string.
type Level struct {
	Label string
}

// Alarm carries a custom-typed setter.
type Alarm struct {
	Level *Level
}

// PersonType declares Person.
func PersonType() vocabulary.Type {
	return vocabulary.Type{
		Name:    "Person",
		Exposes: []string{"Mammal", "Customer"},
		New:     func() any { return &Person{} },
		NameOf:  func(f any) string { return f.(*Person).ID },
		Accessors: map[string]vocabulary.Accessor{
			"getID":   func(f any) (any, error) { return f.(*Person).ID, nil },
			"getName": func(f any) (any, error) { return f.(*Person).Name, nil },
			"getAge":  func(f any) (any, error) { return f.(*Person).Age, nil },
			"isAdult": func(f any) (any, error) { return f.(*Person).Adult, nil },
			"getManagerName": func(f any) (any, error) {
				p := f.(*Person)
				if p.Manager == nil {
					return nil, vocabulary.ErrNoValue
				}
				return p.Manager.Name, nil
			},
			"explode": func(any) (any, error) { return nil, errors.New("accessor failure") },
		},
		Methods: []vocabulary.Method{
			{Name: "setAdult", Params: []vocabulary.Param{{Kind: vocabulary.KindBool}}, Call: func(f any, args []any) error {
				p := f.(*Person)
				p.Adult = args[0].(bool)
				p.AdultCalls++
				return nil
			}},
			{Name: "setAge", Params: []vocabulary.Param{{Kind: vocabulary.KindInt}}, Call: func(f any, args []any) error {
				f.(*Person).Age = args[0].(int)
				return nil
			}},
			{Name: "setName", Params: []vocabulary.Param{{Kind: vocabulary.KindString}}, Call: func(f any, args []any) error {
				name, _ := args[0].(string)
				f.(*Person).Name = name
				return nil
			}},
			{Name: "birthday", Call: func(f any, _ []any) error {
				f.(*Person).Age++
				return nil
			}},
			{Name: "fail", Call: func(any, []any) error {
				return fmt.Errorf("refused")
			}},
		},
	}
}

// DogType declares Dog with an ancestor and a capability alias.
func DogType() vocabulary.Type {
	return vocabulary.Type{
		Name:    "Dog",
		Exposes: []string{"Animal", "Pet"},
		New:     func() any { return &Dog{} },
		Accessors: map[string]vocabulary.Accessor{
			"getName":  func(f any) (any, error) { return f.(*Dog).Name, nil },
			"getSound": func(f any) (any, error) { return f.(*Dog).Sound, nil },
		},
		Methods: []vocabulary.Method{
			{Name: "setSound", Params: []vocabulary.Param{{Kind: vocabulary.KindString}}, Call: func(f any, args []any) error {
				sound, _ := args[0].(string)
				f.(*Dog).Sound = sound
				return nil
			}},
		},
	}
}

// AlarmType declares Alarm, whose setter takes a Level built from text.
func AlarmType() vocabulary.Type {
	level := vocabulary.Param{
		Kind:     vocabulary.KindCustom,
		TypeName: "Level",
		Parse: func(s string) (any, error) {
			if s == "" {
				return nil, errors.New("empty level")
			}
			return &Level{Label: s}, nil
		},
	}
	return vocabulary.Type{
		Name: "Alarm",
		New:  func() any { return &Alarm{} },
		Accessors: map[string]vocabulary.Accessor{
			"getLevel": func(f any) (any, error) {
				a := f.(*Alarm)
				if a.Level == nil {
					return nil, nil
				}
				return a.Level.Label, nil
			},
		},
		Methods: []vocabulary.Method{
			{Name: "raise", Params: []vocabulary.Param{level}, Call: func(f any, args []any) error {
				f.(*Alarm).Level = args[0].(*Level)
				return nil
			}},
		},
	}
}

// NewVocabulary returns a registry with Clause, Person, Dog and Alarm declared.
func NewVocabulary() *vocabulary.Registry {
	r := vocabulary.New()
	must(vocabulary.Register[*Person](r, PersonType()))
	must(vocabulary.Register[*Dog](r, DogType()))
	must(vocabulary.Register[*Alarm](r, AlarmType()))
	return r
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
