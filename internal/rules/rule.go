// internal/rules/rule.go

package rules

import (
	"strings"
	"sync"
)

// PathSeparator splits a term or method path into its base and member parts.
const PathSeparator = "."

// Action is a single effect of a rule: a method invocation on a target fact.
type Action struct {
	Method string   `json:"method"`
	Args   []string `json:"args,omitempty"`
}

// Target returns the part of Method before the last separator.
func (a Action) Target() (string, bool) {
	i := strings.LastIndex(a.Method, PathSeparator)
	if i < 0 {
		return "", false
	}
	return a.Method[:i], true
}

// MethodName returns the part of Method after the last separator.
func (a Action) MethodName() string {
	return a.Method[strings.LastIndex(a.Method, PathSeparator)+1:]
}

// Rule is a named conjunction of assumptions with the actions run when it fires.
type Rule struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Enabled     bool         `json:"enabled"`
	Assumptions []Assumption `json:"assumptions"`
	Actions     []Action     `json:"actions"`

	mu    sync.RWMutex
	props map[string]string
}

// NewRule returns an enabled rule.
func NewRule(name, description string, assumptions []Assumption, actions []Action) *Rule {
	return &Rule{
		Name:        name,
		Description: description,
		Enabled:     true,
		Assumptions: assumptions,
		Actions:     actions,
	}
}

func (r *Rule) Property(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.props[name]
	return v, ok
}

func (r *Rule) SetProperty(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.props == nil {
		r.props = make(map[string]string)
	}
	r.props[name] = value
}

// RuleSet is an ordered list of rules. Declaration order is firing priority.
// Only the URI and the properties change after construction.
type RuleSet struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Rules         []*Rule `json:"rules"`
	DefaultFilter string  `json:"defaultFilter,omitempty"`

	mu    sync.RWMutex
	uri   string
	props map[string]string
}

const (
	DefaultRuleSetName        = "Untitled"
	DefaultRuleSetDescription = "Generic rule execution set"
)

// NewRuleSet builds a rule set; empty name and description fall back to defaults.
func NewRuleSet(name, description string, rules []*Rule) *RuleSet {
	if name == "" {
		name = DefaultRuleSetName
	}
	if description == "" {
		description = DefaultRuleSetDescription
	}
	return &RuleSet{Name: name, Description: description, Rules: rules}
}

// URI returns the binding key the set is registered under, empty when unbound.
func (rs *RuleSet) URI() string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.uri
}

// SetURI is called by the registry on register and deregister.
func (rs *RuleSet) SetURI(uri string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.uri = uri
}

func (rs *RuleSet) Property(name string) (string, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	v, ok := rs.props[name]
	return v, ok
}

func (rs *RuleSet) SetProperty(name, value string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.props == nil {
		rs.props = make(map[string]string)
	}
	rs.props[name] = value
}

// Properties returns a copy of the property map.
func (rs *RuleSet) Properties() map[string]string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make(map[string]string, len(rs.props))
	for k, v := range rs.props {
		out[k] = v
	}
	return out
}

// Metadata describes a rule set to session callers.
type Metadata struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (rs *RuleSet) Metadata() Metadata {
	return Metadata{URI: rs.URI(), Name: rs.Name, Description: rs.Description}
}
