// internal/registry/registry.go

// Package registry binds rule sets to URIs for the lifetime of the process.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"rgehrsitz/rexchain/internal/rules"
)

// ErrNotFound is returned when no rule set is bound to a URI.
var ErrNotFound = errors.New("rule execution set not registered")

// Registry maps URIs to rule sets. A single mutex serializes every operation.
type Registry struct {
	mu   sync.Mutex
	sets map[string]*rules.RuleSet
}

// Default is the process-wide registry, empty at start.
var Default = New()

func New() *Registry {
	return &Registry{sets: make(map[string]*rules.RuleSet)}
}

// Register binds rs to uri, replacing any set already bound there.
func (r *Registry) Register(uri string, rs *rules.RuleSet) error {
	if uri == "" {
		return errors.New("register: empty uri")
	}
	if rs == nil {
		return fmt.Errorf("register %s: nil rule set", uri)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.sets[uri]; ok && old != rs {
		old.SetURI("")
	}
	rs.SetURI(uri)
	r.sets[uri] = rs
	log.Info().Str("uri", uri).Str("ruleset", rs.Name).Int("rules", len(rs.Rules)).Msg("Rule set registered")
	return nil
}

// Deregister unbinds uri and clears the set's URI.
func (r *Registry) Deregister(uri string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rs, ok := r.sets[uri]
	if !ok {
		return fmt.Errorf("deregister %s: %w", uri, ErrNotFound)
	}
	delete(r.sets, uri)
	rs.SetURI("")
	log.Info().Str("uri", uri).Msg("Rule set deregistered")
	return nil
}

func (r *Registry) Lookup(uri string) (*rules.RuleSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rs, ok := r.sets[uri]
	if !ok {
		return nil, fmt.Errorf("lookup %s: %w", uri, ErrNotFound)
	}
	return rs, nil
}

// Registrations returns the bound URIs in sorted order.
func (r *Registry) Registrations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	uris := make([]string, 0, len(r.sets))
	for uri := range r.sets {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}
