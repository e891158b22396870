// internal/vocabulary/clause.go

package vocabulary

// ClauseTypeName is the name rules use to construct clauses, e.g. "Clause.setClause".
const ClauseTypeName = "Clause"

// Clause is a named property pair. Working memory stores its value under its name,
// which makes a clause the usual way for actions to assert new facts.
type Clause struct {
	Name  string
	Value any
}

// NewClause returns a clause whose value is the given value.
func NewClause(name string, value any) *Clause {
	return &Clause{Name: name, Value: value}
}

// Flag returns a clause whose value is its own name.
func Flag(name string) *Clause {
	return &Clause{Name: name, Value: name}
}

// ClauseType declares Clause to a Registry.
func ClauseType() Type {
	str := Param{Kind: KindString}
	return Type{
		Name: ClauseTypeName,
		New:  func() any { return &Clause{} },
		Accessors: map[string]Accessor{
			"getName":  func(f any) (any, error) { return f.(*Clause).Name, nil },
			"getValue": func(f any) (any, error) { return f.(*Clause).Value, nil },
		},
		Methods: []Method{
			{Name: "setClause", Params: []Param{str}, Call: func(f any, args []any) error {
				c := f.(*Clause)
				c.Name = stringArg(args[0])
				c.Value = c.Name
				return nil
			}},
			{Name: "setClause", Params: []Param{str, str}, Call: func(f any, args []any) error {
				c := f.(*Clause)
				c.Name = stringArg(args[0])
				c.Value = args[1]
				return nil
			}},
			{Name: "setName", Params: []Param{str}, Call: func(f any, args []any) error {
				f.(*Clause).Name = stringArg(args[0])
				return nil
			}},
			{Name: "setValue", Params: []Param{str}, Call: func(f any, args []any) error {
				f.(*Clause).Value = args[0]
				return nil
			}},
		},
	}
}

func stringArg(v any) string {
	s, _ := v.(string)
	return s
}
