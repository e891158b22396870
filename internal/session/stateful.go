// internal/session/stateful.go

package session

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rgehrsitz/rexchain/internal/memory"
	"rgehrsitz/rexchain/internal/rules"
	"rgehrsitz/rexchain/internal/runtime"
	"rgehrsitz/rexchain/internal/vocabulary"
)

// Stateful keeps its working memory between runs until Reset or Release.
// It is not safe for concurrent use.
type Stateful struct {
	id      string
	ruleSet *rules.RuleSet
	vocab   *vocabulary.Registry
	wm      *memory.WorkingMemory
	engine  *runtime.Engine
	logger  zerolog.Logger
}

// NewStateful creates a session bound to rs with an empty working memory.
func NewStateful(rs *rules.RuleSet, vocab *vocabulary.Registry, opts ...Option) *Stateful {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	id := uuid.NewString()
	s := &Stateful{
		id:      id,
		ruleSet: rs,
		vocab:   vocab,
		wm:      memory.New(vocab),
		engine:  runtime.NewEngine(runtime.WithMetrics(o.metrics)),
		logger:  log.With().Str("session", id).Str("ruleset", rs.Name).Logger(),
	}
	s.logger.Debug().Str("uri", rs.URI()).Msg("Stateful session opened")
	return s
}

func (s *Stateful) ID() string { return s.id }

func (s *Stateful) check(operation string) error {
	if s.ruleSet == nil {
		return runtime.SessionStateError(operation, "session released")
	}
	return nil
}

// AddFact registers fact in working memory and returns a handle to it.
func (s *Stateful) AddFact(fact any) (*Handle, error) {
	if err := s.check("AddFact"); err != nil {
		return nil, err
	}
	keys := s.wm.Register(fact)
	s.logger.Debug().Strs("keys", keys).Msg("Fact added")
	return &Handle{value: fact}, nil
}

func (s *Stateful) AddFacts(facts []any) ([]*Handle, error) {
	if err := s.check("AddFacts"); err != nil {
		return nil, err
	}
	handles := make([]*Handle, 0, len(facts))
	for _, fact := range facts {
		h, err := s.AddFact(fact)
		if err != nil {
			return handles, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// UpdateFact replaces the handle's fact with fact and rebinds the handle to it.
func (s *Stateful) UpdateFact(h *Handle, fact any) error {
	if err := s.check("UpdateFact"); err != nil {
		return err
	}
	if h == nil {
		return runtime.SessionStateError("UpdateFact", "nil handle")
	}
	s.wm.Remove(h.value)
	s.wm.Register(fact)
	h.value = fact
	return nil
}

// RemoveFact removes every entry holding the handle's value.
func (s *Stateful) RemoveFact(h *Handle) error {
	if err := s.check("RemoveFact"); err != nil {
		return err
	}
	if h == nil {
		return runtime.SessionStateError("RemoveFact", "nil handle")
	}
	keys := s.wm.Remove(h.value)
	s.logger.Debug().Strs("keys", keys).Msg("Fact removed")
	return nil
}

func (s *Stateful) ContainsFact(h *Handle) (bool, error) {
	if err := s.check("ContainsFact"); err != nil {
		return false, err
	}
	if h == nil {
		return false, nil
	}
	return s.wm.ContainsValue(h.value), nil
}

// Fact returns the value a handle refers to.
func (s *Stateful) Fact(h *Handle) (any, error) {
	if err := s.check("Fact"); err != nil {
		return nil, err
	}
	if h == nil {
		return nil, runtime.SessionStateError("Fact", "nil handle")
	}
	return h.value, nil
}

// Facts lists working memory through the rule set's default filter.
func (s *Stateful) Facts() ([]any, error) {
	if err := s.check("Facts"); err != nil {
		return nil, err
	}
	f, err := s.vocab.ResolveFilter(s.ruleSet.DefaultFilter)
	if err != nil {
		return nil, runtime.SessionStateError("Facts", err.Error())
	}
	return s.FilteredFacts(f)
}

// FilteredFacts lists one value per working-memory key, in insertion order, after
// applying f. A fact registered under several keys appears once per key.
func (s *Stateful) FilteredFacts(f vocabulary.Filter) ([]any, error) {
	if err := s.check("FilteredFacts"); err != nil {
		return nil, err
	}
	if f == nil {
		f = vocabulary.Identity
	}
	var out []any
	for _, v := range s.wm.Values() {
		if v = f.Filter(v); v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

// Handles returns a handle to each working-memory value.
func (s *Stateful) Handles() ([]*Handle, error) {
	if err := s.check("Handles"); err != nil {
		return nil, err
	}
	values := s.wm.Values()
	handles := make([]*Handle, len(values))
	for i, v := range values {
		handles[i] = &Handle{value: v}
	}
	return handles, nil
}

// Execute runs the bound rule set to a fixpoint over the current working memory.
func (s *Stateful) Execute() (*runtime.Report, error) {
	if err := s.check("Execute"); err != nil {
		return nil, err
	}
	report, err := s.engine.Run(s.ruleSet, s.wm)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Rule session run failed")
		return report, err
	}
	s.logger.Info().Strs("fired", report.Fired).Int("facts", s.wm.Len()).Msg("Rule session executed")
	return report, nil
}

// Reset empties working memory.
func (s *Stateful) Reset() error {
	if err := s.check("Reset"); err != nil {
		return err
	}
	s.wm.Clear()
	return nil
}

// Release clears working memory and unbinds the rule set. Later calls fail.
func (s *Stateful) Release() error {
	if err := s.check("Release"); err != nil {
		return err
	}
	s.wm.Clear()
	s.ruleSet = nil
	s.logger.Debug().Msg("Stateful session released")
	return nil
}

func (s *Stateful) Metadata() (rules.Metadata, error) {
	if err := s.check("Metadata"); err != nil {
		return rules.Metadata{}, err
	}
	return s.ruleSet.Metadata(), nil
}

func (s *Stateful) Kind() (Kind, error) {
	if err := s.check("Kind"); err != nil {
		return 0, err
	}
	return KindStateful, nil
}

// Memory exposes the session's working memory.
func (s *Stateful) Memory() *memory.WorkingMemory { return s.wm }
