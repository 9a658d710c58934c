package errors

import (
	// Go Internal Packages
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind classifies an error so callers can decide how to recover from it.
type Kind uint8

const (
	Other         Kind = iota // Unclassified error
	Invalid                   // Invalid input or configuration
	Fetch                     // Network or HTTP failure talking to a source
	DataIntegrity             // Record is missing a field the core depends on
	RaceNoOp                  // Request ignored because an identical one is in flight
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case Fetch:
		return "fetch"
	case DataIntegrity:
		return "data_integrity"
	case RaceNoOp:
		return "race_noop"
	default:
		return "other"
	}
}

// Error is the error type shared by every package of this module.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		if e.Message != "" {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds an *Error of the given kind wrapping err (which may be nil).
func E(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Op is E with the operation name recorded.
func Op(op string, kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Op: op, Message: msg, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or Other.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

func New(text string) error {
	return stderrors.New(text)
}

func Errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
