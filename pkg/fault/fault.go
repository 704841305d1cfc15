// Package fault classifies the errors produced by the luar pipeline.
//
// Every stage reports problems as a *fault.Error tagged with the stage that
// raised it. Library code never terminates the process; the caller decides
// what a fault means for its exit status.
package fault

import (
	"errors"
	"fmt"
)

// Kind identifies the pipeline stage that raised a fault.
type Kind uint8

const (
	// Unknown is the zero Kind, used for errors that did not come from the pipeline.
	Unknown Kind = iota

	// Lexical faults are raised while scanning source text.
	Lexical

	// Syntax faults abort compilation.
	Syntax

	// Runtime faults abort execution.
	Runtime
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case Lexical:
		return "lexical"
	case Syntax:
		return "syntax"
	case Runtime:
		return "runtime"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Position is a location in source text.
type Position struct {
	Offset int // byte offset, 0-based
	Line   int // 1-based
	Column int // 1-based, counted in runes
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position refers to a real source location.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Error is a classified pipeline fault.
type Error struct {
	Kind Kind
	Pos  Position // zero when the fault has no source location
	Msg  string
	Err  error // optional cause
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s error at %s: %s", e.Kind, e.Pos, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FaultKind implements Classified.
func (e *Error) FaultKind() Kind {
	return e.Kind
}

// Classified is implemented by errors that carry a fault kind, including
// error types that embed Error.
type Classified interface {
	error
	FaultKind() Kind
}

// New creates a fault of the given kind.
func New(kind Kind, pos Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates a fault of the given kind around a cause.
func Wrap(kind Kind, pos Position, err error, msg string) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: msg, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain, or
// Unknown.
func KindOf(err error) Kind {
	var c Classified
	if errors.As(err, &c) {
		return c.FaultKind()
	}
	return Unknown
}

// Is reports whether err carries a fault of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
