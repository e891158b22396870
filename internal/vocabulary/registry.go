// internal/vocabulary/registry.go

package vocabulary

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"sync"
)

// Registry maps Go types and names to their fact declarations, and names to object filters.
type Registry struct {
	mu      sync.RWMutex
	byGo    map[reflect.Type]*Type
	byName  map[string]*Type
	filters map[string]Filter
}

// New returns a registry that already knows the Clause fact type.
func New() *Registry {
	r := &Registry{
		byGo:    make(map[reflect.Type]*Type),
		byName:  make(map[string]*Type),
		filters: make(map[string]Filter),
	}
	if err := Register[*Clause](r, ClauseType()); err != nil {
		panic(err)
	}
	return r
}

// Register declares the fact type T.
func Register[T any](r *Registry, t Type) error {
	return r.RegisterType(reflect.TypeOf((*T)(nil)).Elem(), t)
}

// RegisterType declares goType under t. Names must be unique.
func (r *Registry) RegisterType(goType reflect.Type, t Type) error {
	if t.Name == "" {
		return fmt.Errorf("fact type %s: empty name", goType)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[t.Name]; ok {
		return fmt.Errorf("fact type %q already registered", t.Name)
	}
	if _, ok := r.byGo[goType]; ok {
		return fmt.Errorf("go type %s already registered", goType)
	}
	decl := t
	decl.Exposes = append([]string(nil), t.Exposes...)
	r.byGo[goType] = &decl
	r.byName[t.Name] = &decl
	return nil
}

// TypeOf returns the declaration for the dynamic type of fact.
func (r *Registry) TypeOf(fact any) (*Type, bool) {
	if fact == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byGo[reflect.TypeOf(fact)]
	return t, ok
}

// Lookup returns the declaration registered under name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// NewInstance builds a fresh fact of the named type.
func (r *Registry) NewInstance(name string) (any, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown fact type %q", name)
	}
	if t.New == nil {
		return nil, fmt.Errorf("fact type %q has no constructor", name)
	}
	return t.New(), nil
}

// TypeName returns the registered name of fact's type, or its Go type name.
func (r *Registry) TypeName(fact any) string {
	if t, ok := r.TypeOf(fact); ok {
		return t.Name
	}
	return GoTypeName(fact)
}

// Names lists the registered type names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GoTypeName names an unregistered value by its Go type, without pointer markers.
func GoTypeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// Format returns the string form of a fact value used by term comparison. Floats are
// written without an exponent, so 1000000.0 formats as "1000000".
func Format(v any) string {
	switch f := v.(type) {
	case float64:
		return strconv.FormatFloat(f, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(f), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}
