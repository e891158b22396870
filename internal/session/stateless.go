// internal/session/stateless.go

package session

import (
	"rgehrsitz/rexchain/internal/rules"
	"rgehrsitz/rexchain/internal/runtime"
	"rgehrsitz/rexchain/internal/vocabulary"
)

// Stateless runs each call against a fresh working memory.
type Stateless struct {
	session *Stateful
}

func NewStateless(rs *rules.RuleSet, vocab *vocabulary.Registry, opts ...Option) *Stateless {
	return &Stateless{session: NewStateful(rs, vocab, opts...)}
}

func (s *Stateless) ID() string { return s.session.ID() }

// Execute runs facts through the rule set and returns them through the default filter.
func (s *Stateless) Execute(facts []any) ([]any, error) {
	if err := s.session.check("Execute"); err != nil {
		return nil, err
	}
	f, err := s.session.vocab.ResolveFilter(s.session.ruleSet.DefaultFilter)
	if err != nil {
		return nil, runtime.SessionStateError("Execute", err.Error())
	}
	return s.ExecuteFiltered(facts, f)
}

// ExecuteFiltered resets working memory, adds facts, runs to a fixpoint and returns
// the resulting facts through f.
func (s *Stateless) ExecuteFiltered(facts []any, f vocabulary.Filter) ([]any, error) {
	if err := s.session.Reset(); err != nil {
		return nil, err
	}
	if _, err := s.session.AddFacts(facts); err != nil {
		return nil, err
	}
	if _, err := s.session.Execute(); err != nil {
		return nil, err
	}
	return s.session.FilteredFacts(f)
}

func (s *Stateless) Metadata() (rules.Metadata, error) { return s.session.Metadata() }

func (s *Stateless) Release() error { return s.session.Release() }

func (s *Stateless) Kind() (Kind, error) {
	if err := s.session.check("Kind"); err != nil {
		return 0, err
	}
	return KindStateless, nil
}
