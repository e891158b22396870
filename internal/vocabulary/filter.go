// internal/vocabulary/filter.go

package vocabulary

import (
	"fmt"
	"sort"
)

// Filter transforms a fact on read-out. Returning nil drops the fact.
type Filter interface {
	Filter(fact any) any
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(fact any) any

func (f FilterFunc) Filter(fact any) any { return f(fact) }

// Identity keeps every fact unchanged.
var Identity Filter = FilterFunc(func(fact any) any { return fact })

// RegisterFilter makes f resolvable by name from a rule set's default filter.
func (r *Registry) RegisterFilter(name string, f Filter) error {
	if name == "" || f == nil {
		return fmt.Errorf("invalid filter registration %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[name] = f
	return nil
}

// ResolveFilter returns the named filter; an empty name resolves to Identity.
func (r *Registry) ResolveFilter(name string) (Filter, error) {
	if name == "" {
		return Identity, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.filters[name]
	if !ok {
		return nil, fmt.Errorf("unknown object filter %q", name)
	}
	return f, nil
}

// Filters lists registered filter names in sorted order.
func (r *Registry) Filters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
