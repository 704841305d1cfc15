package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/chazu/luar/pkg/value"
)

// BytecodeVersion is the current bytecode format version.
// Increment when making incompatible changes to the format.
const BytecodeVersion uint16 = 1

// MaxConstants is the capacity of a chunk's constant pool (u16 operands).
const MaxConstants = 1 << 16

// ErrTooManyConstants is returned when the constant pool is full.
var ErrTooManyConstants = errors.New("constant pool overflow")

// SourceLocation maps bytecode position to source location for debugging.
type SourceLocation struct {
	BytecodeOffset uint32 // Offset in code section
	Line           uint32 // Source line number (1-based)
	Column         uint16 // Source column number (1-based)
}

// Chunk is a compiled unit: a deduplicated constant pool plus the bytecode
// that references it. The compiler hands a finished Chunk to its caller and
// nothing mutates it afterwards.
type Chunk struct {
	Version uint16 // Bytecode format version

	// Constant pool, insertion ordered, unique by value.Equal
	Constants []value.Value

	// Code section
	Code []byte

	// Debug information
	SourceMap []SourceLocation
}

// NewChunk creates a new empty chunk with the current version.
func NewChunk() *Chunk {
	return &Chunk{
		Version:   BytecodeVersion,
		Code:      make([]byte, 0, 64),
		Constants: make([]value.Value, 0, 8),
	}
}

// AddConstant adds a value to the pool and returns its index.
// If an equal value already exists, returns the existing index.
func (c *Chunk) AddConstant(v value.Value) (uint16, error) {
	for i, k := range c.Constants {
		if k.Equal(v) {
			return uint16(i), nil
		}
	}
	if len(c.Constants) >= MaxConstants {
		return 0, ErrTooManyConstants
	}
	idx := uint16(len(c.Constants))
	c.Constants = append(c.Constants, v)
	return idx, nil
}

// GetConstant returns the constant at the given index.
// Panics if the index is out of bounds.
func (c *Chunk) GetConstant(index uint16) value.Value {
	return c.Constants[index]
}

// ConstantCount returns the number of constants in the pool.
func (c *Chunk) ConstantCount() int {
	return len(c.Constants)
}

// CodeLen returns the length of the code section.
func (c *Chunk) CodeLen() int {
	return len(c.Code)
}

// ---------------------------------------------------------------------------
// Emission
// ---------------------------------------------------------------------------

// Emit appends an instruction and returns its offset. Operands are encoded
// according to the opcode's info table entry; a count mismatch is a
// programming error and panics.
func (c *Chunk) Emit(op Opcode, operands ...int) int {
	info, ok := LookupOpcode(op)
	if !ok {
		panic(fmt.Sprintf("bytecode: emit of undefined opcode 0x%02X", byte(op)))
	}
	if len(operands) != len(info.Operands) {
		panic(fmt.Sprintf("bytecode: %s takes %d operands, got %d", info.Name, len(info.Operands), len(operands)))
	}

	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	for i, kind := range info.Operands {
		switch kind {
		case OperandReg, OperandByte:
			c.Code = append(c.Code, byte(operands[i]))
		case OperandConst:
			c.Code = binary.BigEndian.AppendUint16(c.Code, uint16(operands[i]))
		case OperandImm:
			c.Code = binary.BigEndian.AppendUint16(c.Code, uint16(int16(operands[i])))
		}
	}
	return offset
}

func (c *Chunk) EmitLoadNil(dst uint8) int {
	return c.Emit(OpLoadNil, int(dst))
}

func (c *Chunk) EmitLoadBool(dst uint8, b bool) int {
	flag := 0
	if b {
		flag = 1
	}
	return c.Emit(OpLoadBool, int(dst), flag)
}

func (c *Chunk) EmitLoadInt(dst uint8, imm int16) int {
	return c.Emit(OpLoadInt, int(dst), int(imm))
}

func (c *Chunk) EmitLoadConst(dst uint8, k uint16) int {
	return c.Emit(OpLoadConst, int(dst), int(k))
}

func (c *Chunk) EmitGetGlobal(dst uint8, name uint16) int {
	return c.Emit(OpGetGlobal, int(dst), int(name))
}

func (c *Chunk) EmitCall(fn uint8, argc uint8) int {
	return c.Emit(OpCall, int(fn), int(argc))
}

// AddSourceLocation adds a debug source location mapping.
func (c *Chunk) AddSourceLocation(bytecodeOffset uint32, line uint32, column uint16) {
	c.SourceMap = append(c.SourceMap, SourceLocation{
		BytecodeOffset: bytecodeOffset,
		Line:           line,
		Column:         column,
	})
}

// GetSourceLocation returns the source location for a bytecode offset.
// Returns line 0, column 0 if no mapping exists.
func (c *Chunk) GetSourceLocation(offset uint32) (line uint32, column uint16) {
	// Find the nearest mapping at or before the offset
	for i := len(c.SourceMap) - 1; i >= 0; i-- {
		if c.SourceMap[i].BytecodeOffset <= offset {
			return c.SourceMap[i].Line, c.SourceMap[i].Column
		}
	}
	return 0, 0
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// Instruction is a decoded instruction. Unused operands are zero.
type Instruction struct {
	Op Opcode
	A  int
	B  int
}

func (in Instruction) String() string {
	info := GetOpcodeInfo(in.Op)
	switch len(info.Operands) {
	case 0:
		return info.Name
	case 1:
		return fmt.Sprintf("%s(%d)", info.Name, in.A)
	default:
		return fmt.Sprintf("%s(%d, %d)", info.Name, in.A, in.B)
	}
}

// DecodeAt decodes the instruction at offset and returns it with its length.
func (c *Chunk) DecodeAt(offset int) (Instruction, int, error) {
	if offset < 0 || offset >= len(c.Code) {
		return Instruction{}, 0, fmt.Errorf("offset %d outside code section of %d bytes", offset, len(c.Code))
	}
	op := Opcode(c.Code[offset])
	info, ok := LookupOpcode(op)
	if !ok {
		return Instruction{Op: op}, 1, fmt.Errorf("unknown opcode 0x%02X at offset %d", byte(op), offset)
	}

	length := 1 + info.OperandLen()
	if offset+length > len(c.Code) {
		return Instruction{Op: op}, 0, fmt.Errorf("truncated %s at offset %d", info.Name, offset)
	}

	in := Instruction{Op: op}
	pos := offset + 1
	for i, kind := range info.Operands {
		var v int
		switch kind {
		case OperandReg, OperandByte:
			v = int(c.Code[pos])
		case OperandConst:
			v = int(binary.BigEndian.Uint16(c.Code[pos:]))
		case OperandImm:
			v = int(int16(binary.BigEndian.Uint16(c.Code[pos:])))
		}
		pos += kind.Size()
		if i == 0 {
			in.A = v
		} else {
			in.B = v
		}
	}
	return in, length, nil
}

// Instructions decodes the whole code section.
func (c *Chunk) Instructions() ([]Instruction, error) {
	var out []Instruction
	for offset := 0; offset < len(c.Code); {
		in, n, err := c.DecodeAt(offset)
		if err != nil {
			return out, err
		}
		out = append(out, in)
		offset += n
	}
	return out, nil
}

// InstructionCount returns the number of decodable instructions.
func (c *Chunk) InstructionCount() int {
	ins, _ := c.Instructions()
	return len(ins)
}

// Validate checks that the code section decodes cleanly and that every
// constant operand refers to an existing pool entry. Chunks loaded from
// outside the compiler must pass Validate before execution.
func (c *Chunk) Validate() error {
	if c.Version > BytecodeVersion {
		return fmt.Errorf("bytecode version %d is newer than supported version %d", c.Version, BytecodeVersion)
	}
	for offset := 0; offset < len(c.Code); {
		in, n, err := c.DecodeAt(offset)
		if err != nil {
			return err
		}
		info := GetOpcodeInfo(in.Op)
		for i, kind := range info.Operands {
			if kind != OperandConst {
				continue
			}
			idx := in.A
			if i == 1 {
				idx = in.B
			}
			if idx >= len(c.Constants) {
				return fmt.Errorf("%s at offset %d references constant %d of %d", info.Name, offset, idx, len(c.Constants))
			}
		}
		offset += n
	}
	return nil
}
