package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// ========================================================================
	// Loads (0x00-0x0F)
	// ========================================================================

	OpLoadNil   Opcode = 0x00 // R[dst] = nil: OpLoadNil <dst:u8>
	OpLoadBool  Opcode = 0x01 // R[dst] = b: OpLoadBool <dst:u8> <b:u8>
	OpLoadInt   Opcode = 0x02 // R[dst] = imm: OpLoadInt <dst:u8> <imm:i16>
	OpLoadConst Opcode = 0x03 // R[dst] = K[k]: OpLoadConst <dst:u8> <k:u16>

	// ========================================================================
	// Globals (0x10-0x1F)
	// ========================================================================

	OpGetGlobal Opcode = 0x10 // R[dst] = G[K[name]]: OpGetGlobal <dst:u8> <name:u16>

	// ========================================================================
	// Registers (0x20-0x2F)
	// ========================================================================

	OpMove Opcode = 0x20 // Reserved: R[dst] = R[src]

	// ========================================================================
	// Control flow (0x80-0x8F)
	// ========================================================================

	OpJump Opcode = 0x80 // Reserved: unconditional jump <offset:i16>

	// ========================================================================
	// Calls (0x90-0x9F)
	// ========================================================================

	OpCall Opcode = 0x90 // Call native in R[fn]: OpCall <fn:u8> <argc:u8>

	// ========================================================================
	// Return (0xF0-0xFF)
	// ========================================================================

	OpReturn Opcode = 0xF0 // Reserved: return from the current chunk
)

// OperandKind describes how an operand is encoded.
type OperandKind uint8

const (
	OperandReg   OperandKind = iota // register index, u8
	OperandByte                     // small unsigned count or flag, u8
	OperandConst                    // constant pool index, u16 big-endian
	OperandImm                      // signed immediate, i16 big-endian
)

// Size returns the encoded width of the operand in bytes.
func (k OperandKind) Size() int {
	switch k {
	case OperandConst, OperandImm:
		return 2
	default:
		return 1
	}
}

// OpcodeInfo provides metadata about each opcode for decoding and validation.
type OpcodeInfo struct {
	Name     string        // Human-readable name
	Operands []OperandKind // Operand encodings, in order
	Reserved bool          // Declared for future grammar, not executable yet
}

// OperandLen returns the number of operand bytes following the opcode.
func (i OpcodeInfo) OperandLen() int {
	n := 0
	for _, k := range i.Operands {
		n += k.Size()
	}
	return n
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpLoadNil:   {Name: "LOADNIL", Operands: []OperandKind{OperandReg}},
	OpLoadBool:  {Name: "LOADBOOL", Operands: []OperandKind{OperandReg, OperandByte}},
	OpLoadInt:   {Name: "LOADINT", Operands: []OperandKind{OperandReg, OperandImm}},
	OpLoadConst: {Name: "LOADK", Operands: []OperandKind{OperandReg, OperandConst}},

	OpGetGlobal: {Name: "GETGLOBAL", Operands: []OperandKind{OperandReg, OperandConst}},

	OpMove: {Name: "MOVE", Operands: []OperandKind{OperandReg, OperandReg}, Reserved: true},
	OpJump: {Name: "JMP", Operands: []OperandKind{OperandImm}, Reserved: true},

	OpCall: {Name: "CALL", Operands: []OperandKind{OperandReg, OperandByte}},

	OpReturn: {Name: "RETURN", Reserved: true},
}

// LookupOpcode returns metadata for an opcode and whether it is defined.
func LookupOpcode(op Opcode) (OpcodeInfo, bool) {
	info, ok := opcodeInfoTable[op]
	return info, ok
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns an OpcodeInfo named "UNKNOWN(0x..)" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// InstructionLen returns the total length of an instruction (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + GetOpcodeInfo(op).OperandLen()
}

// IsReserved reports whether the opcode is declared but not yet executable.
func (op Opcode) IsReserved() bool {
	return GetOpcodeInfo(op).Reserved
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}
