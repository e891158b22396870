// pkg/rex/rex.go

// Package rex is the public entry point for loading rule documents, registering
// rule sets and running sessions over facts.
package rex

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"rgehrsitz/rexchain/internal/config"
	"rgehrsitz/rexchain/internal/preprocessor"
	"rgehrsitz/rexchain/internal/registry"
	"rgehrsitz/rexchain/internal/rules"
	"rgehrsitz/rexchain/internal/runtime"
	"rgehrsitz/rexchain/internal/session"
	"rgehrsitz/rexchain/internal/vocabulary"
)

type (
	RuleSet    = rules.RuleSet
	Rule       = rules.Rule
	Assumption = rules.Assumption
	Action     = rules.Action
	Metadata   = rules.Metadata

	Vocabulary = vocabulary.Registry
	Type       = vocabulary.Type
	Method     = vocabulary.Method
	Param      = vocabulary.Param
	Clause     = vocabulary.Clause
	Filter     = vocabulary.Filter
	FilterFunc = vocabulary.FilterFunc

	Registry  = registry.Registry
	Stateful  = session.Stateful
	Stateless = session.Stateless
	Handle    = session.Handle
	Kind      = session.Kind

	Report = runtime.Report
	Error  = runtime.Error
)

const (
	KindStateful  = session.KindStateful
	KindStateless = session.KindStateless
)

// ErrTooManyRules is returned when a loaded rule set exceeds the configured limit.
var ErrTooManyRules = errors.New("rule set exceeds max rules")

// NewVocabulary returns a vocabulary that knows only Clause.
func NewVocabulary() *Vocabulary { return vocabulary.New() }

// RegisterType declares T to v.
func RegisterType[T any](v *Vocabulary, t Type) error { return vocabulary.Register[T](v, t) }

// NewRegistry returns an empty rule-set registry.
func NewRegistry() *Registry { return registry.New() }

// LoadRuleSet reads a rule document, rejects it when it holds more than maxRules
// rules (zero or a negative limit such as config.MaxRulesUnlimited disables the
// check) and drops repeated assumptions.
func LoadRuleSet(path, format string, props map[string]string, maxRules int) (*RuleSet, error) {
	var f preprocessor.Format
	if format != "" {
		var err error
		if f, err = preprocessor.ParseFormat(format); err != nil {
			return nil, err
		}
	}
	rs, err := preprocessor.LoadRuleSet(path, f, props)
	if err != nil {
		return nil, err
	}
	if maxRules > 0 && len(rs.Rules) > maxRules {
		return nil, fmt.Errorf("%s: %w: %d > %d", path, ErrTooManyRules, len(rs.Rules), maxRules)
	}
	preprocessor.Optimize(rs)
	return rs, nil
}

// LoadConfigured loads one configured rule set and registers it under its URI.
func LoadConfigured(reg *Registry, rsc config.RuleSetConfig, maxRules int) (*RuleSet, error) {
	rs, err := LoadRuleSet(rsc.Path, rsc.Format, rsc.Properties, maxRules)
	if err != nil {
		return nil, err
	}
	if err := reg.Register(rsc.URI, rs); err != nil {
		return nil, err
	}
	return rs, nil
}

// RegisterAll loads and registers every rule set in cfg, stopping at the first failure.
func RegisterAll(reg *Registry, cfg *config.Config) error {
	for _, rsc := range cfg.RuleSets {
		if _, err := LoadConfigured(reg, rsc, cfg.MaxRules); err != nil {
			return err
		}
	}
	log.Info().Strs("uris", reg.Registrations()).Msg("Rule sets registered")
	return nil
}

// Run executes facts through the rule set at uri in a stateless session and returns
// the resulting facts.
func Run(reg *Registry, uri string, vocab *Vocabulary, facts []any, opts ...session.Option) ([]any, error) {
	s, err := session.Open(reg, uri, KindStateless, vocab, opts...)
	if err != nil {
		return nil, err
	}
	defer s.Release()
	return s.(*Stateless).Execute(facts)
}
