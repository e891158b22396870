// internal/memory/memory.go

// Package memory holds the working memory of a rule session: the live facts keyed by
// declared name, type name, and every ancestor or capability name their type exposes.
package memory

import (
	"reflect"

	"rgehrsitz/rexchain/internal/vocabulary"
)

// Entry is one key/value pair of working memory.
type Entry struct {
	Key   string
	Value any
}

// WorkingMemory is an insertion-ordered map of facts. It is not safe for concurrent use.
type WorkingMemory struct {
	vocab  *vocabulary.Registry
	values map[string]any
	order  []string
}

// New returns an empty working memory using vocab to derive fact keys.
func New(vocab *vocabulary.Registry) *WorkingMemory {
	return &WorkingMemory{
		vocab:  vocab,
		values: make(map[string]any),
	}
}

// Put inserts or replaces the value under key. A replaced key keeps its position.
func (wm *WorkingMemory) Put(key string, value any) {
	if _, ok := wm.values[key]; !ok {
		wm.order = append(wm.order, key)
	}
	wm.values[key] = value
}

func (wm *WorkingMemory) Get(key string) (any, bool) {
	v, ok := wm.values[key]
	return v, ok
}

func (wm *WorkingMemory) ContainsKey(key string) bool {
	_, ok := wm.values[key]
	return ok
}

// ContainsValue reports whether any entry holds a value equal to v. A Clause matches
// the entry under its name holding its value, the way Register stored it.
func (wm *WorkingMemory) ContainsValue(v any) bool {
	if c, ok := asClause(v); ok {
		stored, found := wm.values[c.Name]
		return found && Equal(stored, c.Value)
	}
	for _, key := range wm.order {
		if Equal(wm.values[key], v) {
			return true
		}
	}
	return false
}

// Remove deletes every entry whose value equals v, alias entries included,
// and returns the removed keys. A Clause removes only the entry under its name,
// and only while it still holds the clause's value.
func (wm *WorkingMemory) Remove(v any) []string {
	if c, ok := asClause(v); ok {
		return wm.removeClause(c)
	}
	var removed []string
	kept := wm.order[:0]
	for _, key := range wm.order {
		if Equal(wm.values[key], v) {
			delete(wm.values, key)
			removed = append(removed, key)
			continue
		}
		kept = append(kept, key)
	}
	wm.order = kept
	return removed
}

func (wm *WorkingMemory) removeClause(c *vocabulary.Clause) []string {
	stored, found := wm.values[c.Name]
	if !found || !Equal(stored, c.Value) {
		return nil
	}
	delete(wm.values, c.Name)
	for i, key := range wm.order {
		if key == c.Name {
			wm.order = append(wm.order[:i], wm.order[i+1:]...)
			break
		}
	}
	return []string{c.Name}
}

func asClause(v any) (*vocabulary.Clause, bool) {
	switch c := v.(type) {
	case *vocabulary.Clause:
		return c, c != nil
	case vocabulary.Clause:
		return &c, true
	}
	return nil, false
}

// Keys returns the keys in insertion order.
func (wm *WorkingMemory) Keys() []string {
	return append([]string(nil), wm.order...)
}

// Values returns one value per key in insertion order; aliased facts appear once per key.
func (wm *WorkingMemory) Values() []any {
	out := make([]any, 0, len(wm.order))
	for _, key := range wm.order {
		out = append(out, wm.values[key])
	}
	return out
}

// Entries returns the key/value pairs in insertion order.
func (wm *WorkingMemory) Entries() []Entry {
	out := make([]Entry, 0, len(wm.order))
	for _, key := range wm.order {
		out = append(out, Entry{Key: key, Value: wm.values[key]})
	}
	return out
}

func (wm *WorkingMemory) Len() int { return len(wm.order) }

func (wm *WorkingMemory) Clear() {
	wm.values = make(map[string]any)
	wm.order = nil
}

// Vocabulary returns the registry used for key derivation.
func (wm *WorkingMemory) Vocabulary() *vocabulary.Registry { return wm.vocab }

// Equal compares fact values. Comparable values use ==, anything else deep equality.
func Equal(a, b any) (eq bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		// structs holding uncomparable interface values panic on ==
		defer func() {
			if recover() != nil {
				eq = reflect.DeepEqual(a, b)
			}
		}()
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
