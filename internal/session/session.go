// internal/session/session.go

// Package session binds a registered rule set to a working memory and exposes
// stateful and stateless rule sessions over it.
package session

import (
	"fmt"

	"rgehrsitz/rexchain/internal/memory"
	"rgehrsitz/rexchain/internal/registry"
	"rgehrsitz/rexchain/internal/rules"
	"rgehrsitz/rexchain/internal/runtime"
	"rgehrsitz/rexchain/internal/vocabulary"
)

// Kind distinguishes stateful from stateless sessions.
type Kind int

const (
	KindStateful Kind = iota + 1
	KindStateless
)

func (k Kind) String() string {
	switch k {
	case KindStateful:
		return "stateful"
	case KindStateless:
		return "stateless"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Session is what both session kinds have in common.
type Session interface {
	ID() string
	Kind() (Kind, error)
	Metadata() (rules.Metadata, error)
	Release() error
}

// Handle refers to the current value of a fact added to a stateful session.
// Two handles are equal when their values are equal, even if they are distinct facts.
type Handle struct {
	value any
}

func (h *Handle) Value() any { return h.value }

// Equal compares the referenced values, not the handles.
func (h *Handle) Equal(other *Handle) bool {
	if h == nil || other == nil {
		return h == other
	}
	return memory.Equal(h.value, other.value)
}

// Option configures a session.
type Option func(*options)

type options struct {
	metrics *runtime.Metrics
}

// WithMetrics records the session's runs into m.
func WithMetrics(m *runtime.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Open creates a session of the given kind over the rule set registered at uri.
func Open(reg *registry.Registry, uri string, kind Kind, vocab *vocabulary.Registry, opts ...Option) (Session, error) {
	rs, err := reg.Lookup(uri)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindStateful:
		return NewStateful(rs, vocab, opts...), nil
	case KindStateless:
		return NewStateless(rs, vocab, opts...), nil
	default:
		return nil, fmt.Errorf("open %s: unsupported session kind %s", uri, kind)
	}
}
