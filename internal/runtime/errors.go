// internal/runtime/errors.go

package runtime

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed run.
type ErrorKind int

const (
	KindResolution ErrorKind = iota + 1
	KindNumericType
	KindUnsupportedOperator
	KindBinding
	KindTargetConstruction
	KindMethodResolution
	KindArgumentCoercion
	KindInvocation
	KindSessionState
)

func (k ErrorKind) String() string {
	switch k {
	case KindResolution:
		return "resolution"
	case KindNumericType:
		return "numeric_type"
	case KindUnsupportedOperator:
		return "unsupported_operator"
	case KindBinding:
		return "binding"
	case KindTargetConstruction:
		return "target_construction"
	case KindMethodResolution:
		return "method_resolution"
	case KindArgumentCoercion:
		return "argument_coercion"
	case KindInvocation:
		return "invocation"
	case KindSessionState:
		return "session_state"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrResolution          = errors.New("accessor not found")
	ErrNumericType         = errors.New("numeric type expected")
	ErrUnsupportedOperator = errors.New("operator not supported")
	ErrBinding             = errors.New("variable not bound")
	ErrTargetConstruction  = errors.New("class not found")
	ErrMethodResolution    = errors.New("method not found")
	ErrArgumentCoercion    = errors.New("argument coercion failed")
	ErrInvocation          = errors.New("method invocation failed")
	ErrSessionState        = errors.New("invalid rule session")
)

var sentinels = map[ErrorKind]error{
	KindResolution:          ErrResolution,
	KindNumericType:         ErrNumericType,
	KindUnsupportedOperator: ErrUnsupportedOperator,
	KindBinding:             ErrBinding,
	KindTargetConstruction:  ErrTargetConstruction,
	KindMethodResolution:    ErrMethodResolution,
	KindArgumentCoercion:    ErrArgumentCoercion,
	KindInvocation:          ErrInvocation,
	KindSessionState:        ErrSessionState,
}

// Error describes why a rule run failed.
type Error struct {
	Kind ErrorKind
	// Rule is the rule being evaluated or fired, empty outside a run.
	Rule string
	// Subject is the term, operator, variable, class or method at fault.
	Subject string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: '%s'", sentinels[e.Kind], e.Subject)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Rule != "" {
		msg = fmt.Sprintf("rule '%s': %s", e.Rule, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

func newError(kind ErrorKind, subject, message string, err error) *Error {
	return &Error{Kind: kind, Subject: subject, Message: message, Err: err}
}

// SessionStateError reports an operation on a released or unbound session.
func SessionStateError(operation, message string) error {
	return newError(KindSessionState, operation, message, nil)
}

// KindOf returns the kind of a run error, zero when err is not one.
func KindOf(err error) ErrorKind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}

// withRule tags err with the rule name when it is a run error without one.
func withRule(err error, rule string) error {
	var re *Error
	if errors.As(err, &re) && re.Rule == "" {
		re.Rule = rule
	}
	return err
}
