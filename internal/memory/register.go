// internal/memory/register.go

package memory

import (
	"github.com/rs/zerolog/log"

	"rgehrsitz/rexchain/internal/vocabulary"
)

// Register inserts a fact using the key-derivation policy and returns the keys written:
//
//  1. a Clause is stored as its value under its name;
//  2. a fact with a declared name is stored under that name;
//  3. anything else is stored under its type name, plus one alias entry for every
//     ancestor or capability name its registered type exposes.
func (wm *WorkingMemory) Register(fact any) []string {
	switch c := fact.(type) {
	case *vocabulary.Clause:
		if c != nil {
			wm.Put(c.Name, c.Value)
			return []string{c.Name}
		}
	case vocabulary.Clause:
		wm.Put(c.Name, c.Value)
		return []string{c.Name}
	}

	if name := wm.declaredName(fact); name != "" {
		wm.Put(name, fact)
		return []string{name}
	}

	typ, registered := wm.vocab.TypeOf(fact)
	if !registered {
		key := vocabulary.GoTypeName(fact)
		wm.Put(key, fact)
		return []string{key}
	}

	keys := make([]string, 0, 1+len(typ.Exposes))
	wm.Put(typ.Name, fact)
	keys = append(keys, typ.Name)
	for _, alias := range typ.Exposes {
		wm.Put(alias, fact)
		keys = append(keys, alias)
	}
	log.Debug().Strs("keys", keys).Str("type", typ.Name).Msg("Registered fact")
	return keys
}

func (wm *WorkingMemory) declaredName(fact any) string {
	if named, ok := fact.(vocabulary.Named); ok {
		if name := named.FactName(); name != "" {
			return name
		}
	}
	if typ, ok := wm.vocab.TypeOf(fact); ok && typ.NameOf != nil {
		return typ.NameOf(fact)
	}
	return ""
}
