package vm

import (
	"errors"
	"fmt"

	"github.com/chazu/luar/pkg/bytecode"
	"github.com/chazu/luar/pkg/fault"
	"github.com/chazu/luar/pkg/value"
)

// ---------------------------------------------------------------------------
// Dispatch loop
// ---------------------------------------------------------------------------

// Execute runs chunk from its first instruction to the end of its code. The
// first fault stops execution and is returned as a *RuntimeError.
func (s *ExeState) Execute(chunk *bytecode.Chunk) error {
	s.log.Debugf("run %s: executing %d bytes, %d constants", s.runID, chunk.CodeLen(), chunk.ConstantCount())

	for ip := 0; ip < len(chunk.Code); {
		op := bytecode.Opcode(chunk.Code[ip])
		if info, ok := bytecode.LookupOpcode(op); !ok || info.Reserved {
			return s.fault(chunk, ip, ErrUnimplementedOpcode, "cannot execute %s", bytecode.GetOpcodeInfo(op).Name)
		}

		in, n, err := chunk.DecodeAt(ip)
		if err != nil {
			return s.fault(chunk, ip, ErrMalformedCode, "%v", err)
		}
		if s.trace {
			s.log.Debugf("run %s: %04X  %s", s.runID, ip, in)
		}

		if err := s.step(chunk, in); err != nil {
			var rt *RuntimeError
			if errors.As(err, &rt) && rt.Offset < 0 {
				rt.Offset = ip
				rt.Pos = s.position(chunk, ip)
			}
			return err
		}
		ip += n
	}
	return nil
}

// step executes one decoded instruction. Faults it returns carry no
// location yet.
func (s *ExeState) step(chunk *bytecode.Chunk, in bytecode.Instruction) error {
	switch in.Op {
	case bytecode.OpLoadNil:
		s.registers.Set(in.A, value.Nil)

	case bytecode.OpLoadBool:
		s.registers.Set(in.A, value.Bool(in.B != 0))

	case bytecode.OpLoadInt:
		s.registers.Set(in.A, value.Int(int64(in.B)))

	case bytecode.OpLoadConst:
		s.registers.Set(in.A, chunk.GetConstant(uint16(in.B)))

	case bytecode.OpGetGlobal:
		key := chunk.GetConstant(uint16(in.B))
		name, ok := key.AsString()
		if !ok {
			return &RuntimeError{
				Offset: -1,
				Msg:    fmt.Sprintf("global name must be a string, got %s %s", key.Kind(), key),
				Err:    ErrInvalidGlobalKey,
			}
		}
		s.registers.Set(in.A, s.globals[name])

	case bytecode.OpCall:
		return s.call(in.A, in.B)

	default:
		return &RuntimeError{
			Offset: -1,
			Msg:    fmt.Sprintf("cannot execute %s", bytecode.GetOpcodeInfo(in.Op).Name),
			Err:    ErrUnimplementedOpcode,
		}
	}
	return nil
}

// call invokes the native in register fn. The callee reads its argument
// from register 1.
func (s *ExeState) call(fn, argc int) error {
	callee, err := s.registers.Get(fn)
	if err != nil {
		return err
	}

	native, ok := callee.AsFunction()
	if !ok {
		return &RuntimeError{
			Offset: -1,
			Msg:    fmt.Sprintf("attempt to call a %s value", callee.Kind()),
			Err:    ErrNotCallable,
		}
	}

	if status := native(s); status != 0 {
		s.log.Debugf("run %s: native call with %d argument(s) returned status %d", s.runID, argc, status)
	}
	return nil
}

// fault builds a located runtime fault for the instruction at offset.
func (s *ExeState) fault(chunk *bytecode.Chunk, offset int, cause error, format string, args ...any) error {
	return &RuntimeError{
		Offset: offset,
		Pos:    s.position(chunk, offset),
		Msg:    fmt.Sprintf(format, args...),
		Err:    cause,
	}
}

// position maps a bytecode offset to the statement it was compiled from.
func (s *ExeState) position(chunk *bytecode.Chunk, offset int) (pos fault.Position) {
	line, col := chunk.GetSourceLocation(uint32(offset))
	pos.Line = int(line)
	pos.Column = int(col)
	return pos
}
