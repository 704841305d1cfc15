package vm

import (
	"errors"

	"github.com/chazu/luar/pkg/fault"
)

// Sentinel causes of runtime faults. Match them with errors.Is.
var (
	ErrNotCallable         = errors.New("value is not callable")
	ErrInvalidGlobalKey    = errors.New("global name constant is not a string")
	ErrUnimplementedOpcode = errors.New("opcode not implemented")
	ErrRegisterRange       = errors.New("register out of range")
	ErrMalformedCode       = errors.New("malformed bytecode")
)

// RuntimeError aborts execution of a chunk.
type RuntimeError struct {
	Offset int            // bytecode offset of the faulting instruction, -1 if unknown
	Pos    fault.Position // source position from the chunk's source map, if any
	Msg    string
	Err    error // sentinel cause
}

func (e *RuntimeError) Error() string {
	return (&fault.Error{Kind: fault.Runtime, Pos: e.Pos, Msg: e.Msg, Err: e.Err}).Error()
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// FaultKind implements fault.Classified.
func (e *RuntimeError) FaultKind() fault.Kind {
	return fault.Runtime
}
