// internal/runtime/engine.go

// Package runtime runs rule sets over working memory by forward chaining.
package runtime

import (
	"time"

	"github.com/rs/zerolog/log"

	"rgehrsitz/rexchain/internal/memory"
	"rgehrsitz/rexchain/internal/rules"
)

// Engine drives rule sets to a fixpoint. It keeps no per-run state and may be shared.
type Engine struct {
	metrics *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records runs into m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates a new forward-chaining engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Report summarizes one run.
type Report struct {
	RuleSet  string
	Fired    []string
	Scans    int
	Duration time.Duration
}

// Run fires rules of rs against wm until a scan fires nothing or every rule has fired.
//
// Each scan walks the rules in declaration order, skipping disabled rules and rules
// already fired in this run. The first rule whose assumptions all hold has its actions
// executed in order and the scan restarts from the top, so a rule fires at most once and
// a run takes at most len(rs.Rules)+1 scans. The first error aborts the run; actions
// already applied are kept.
func (e *Engine) Run(rs *rules.RuleSet, wm *memory.WorkingMemory) (*Report, error) {
	start := time.Now()
	report := &Report{RuleSet: rs.Name}

	resolver := NewResolver(wm)
	r := &run{
		engine:     e,
		ruleSet:    rs,
		evaluator:  NewEvaluator(wm, resolver),
		dispatcher: NewDispatcher(wm, resolver),
		fired:      make(map[int]bool, len(rs.Rules)),
	}

	var err error
	for {
		report.Scans++
		var idx int
		idx, err = r.scan()
		if err != nil || idx < 0 {
			break
		}
		report.Fired = append(report.Fired, rs.Rules[idx].Name)
		if len(r.fired) == len(rs.Rules) {
			break
		}
	}

	report.Duration = time.Since(start)
	e.metrics.recordRun(rs.Name, report, err)
	if err != nil {
		log.Error().Err(err).Str("ruleset", rs.Name).Strs("fired", report.Fired).Msg("Rule run aborted")
		return report, err
	}
	log.Debug().
		Str("ruleset", rs.Name).
		Strs("fired", report.Fired).
		Int("scans", report.Scans).
		Dur("duration", report.Duration).
		Msg("Rule run reached fixpoint")
	return report, nil
}

// run is the state of one Engine.Run call.
type run struct {
	engine     *Engine
	ruleSet    *rules.RuleSet
	evaluator  *Evaluator
	dispatcher *Dispatcher
	fired      map[int]bool
}

// scan fires the first eligible satisfied rule and returns its index, or -1.
func (r *run) scan() (int, error) {
	for i, rule := range r.ruleSet.Rules {
		if !rule.Enabled || r.fired[i] {
			continue
		}
		bindings := make(Bindings)
		ok, err := r.evaluator.EvaluateAll(rule.Assumptions, bindings)
		if err != nil {
			return -1, withRule(err, rule.Name)
		}
		r.engine.metrics.recordEvaluation(r.ruleSet.Name, ok)
		if !ok {
			continue
		}

		for _, action := range rule.Actions {
			if err := r.dispatcher.Dispatch(action, bindings); err != nil {
				return -1, withRule(err, rule.Name)
			}
		}
		r.fired[i] = true
		r.engine.metrics.recordFired(r.ruleSet.Name, rule.Name)
		log.Debug().Str("rule", rule.Name).Interface("bindings", bindings).Msg("Rule fired")
		return i, nil
	}
	return -1, nil
}
