// internal/runtime/resolver.go

package runtime

import (
	"errors"
	"strings"

	"rgehrsitz/rexchain/internal/memory"
	"rgehrsitz/rexchain/internal/rules"
	"rgehrsitz/rexchain/internal/vocabulary"
)

// Term is a resolved operand. An invalid term stands for an absent value.
type Term struct {
	Value string
	Valid bool
}

// Text returns a present term.
func Text(s string) Term { return Term{Value: s, Valid: true} }

// Null is the absent term.
var Null = Term{}

func (t Term) String() string {
	if !t.Valid {
		return "null"
	}
	return t.Value
}

// Resolver turns textual terms into the current values of working memory.
type Resolver struct {
	wm    *memory.WorkingMemory
	vocab *vocabulary.Registry
}

func NewResolver(wm *memory.WorkingMemory) *Resolver {
	return &Resolver{wm: wm, vocab: wm.Vocabulary()}
}

// Resolve looks a term up in working memory:
//   - "fact.accessor" calls the accessor on the fact stored under "fact";
//   - a plain working-memory key yields the string form of its value;
//   - anything else is a literal.
//
// A dotted term whose base is not in working memory stays literal, so decimals survive.
func (r *Resolver) Resolve(term string) (Term, error) {
	var t Term
	if i := strings.LastIndex(term, rules.PathSeparator); i >= 0 {
		resolved, found, err := r.access(term[:i], term[i+1:])
		if err != nil {
			return Null, err
		}
		if found {
			t = resolved
		} else {
			t = Text(term)
		}
	} else if v, ok := r.wm.Get(term); ok {
		t = valueTerm(v)
	} else {
		t = Text(term)
	}
	return normalize(t), nil
}

// ResolvePath resolves only dotted terms and leaves every other text as is,
// the treatment action arguments get.
func (r *Resolver) ResolvePath(text string) (Term, error) {
	i := strings.LastIndex(text, rules.PathSeparator)
	if i < 0 {
		return normalize(Text(text)), nil
	}
	resolved, found, err := r.access(text[:i], text[i+1:])
	if err != nil {
		return Null, err
	}
	if !found {
		return normalize(Text(text)), nil
	}
	return normalize(resolved), nil
}

// access calls accessor on the fact stored under base. found is false when base is absent.
func (r *Resolver) access(base, accessor string) (Term, bool, error) {
	fact, ok := r.wm.Get(base)
	if !ok || fact == nil {
		return Null, false, nil
	}
	typ, ok := r.vocab.TypeOf(fact)
	if !ok {
		return Null, true, newError(KindResolution, accessor, "type "+vocabulary.GoTypeName(fact)+" is not registered", nil)
	}
	get, ok := typ.Accessor(accessor)
	if !ok {
		return Null, true, newError(KindResolution, accessor, "type "+typ.Name+" has no such accessor", nil)
	}
	v, err := get(fact)
	if errors.Is(err, vocabulary.ErrNoValue) {
		return Null, true, nil
	}
	if err != nil {
		return Null, true, newError(KindResolution, accessor, "", err)
	}
	return valueTerm(v), true, nil
}

func valueTerm(v any) Term {
	if v == nil {
		return Null
	}
	return Text(vocabulary.Format(v))
}

// normalize collapses whole-valued decimals such as "5.0" to "5".
func normalize(t Term) Term {
	if t.Valid && len(t.Value) > 2 && strings.HasSuffix(t.Value, ".0") {
		t.Value = t.Value[:len(t.Value)-2]
	}
	return t
}
