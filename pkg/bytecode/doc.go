// Package bytecode defines the compiled form of a luar program and the
// instruction encoding shared by the compiler and the virtual machine.
//
// The bytecode format is designed for:
//   - Compact representation (1 to 4 bytes per instruction)
//   - Fast decoding (one opcode byte, operand widths fixed per opcode)
//   - Easy serialization (chunk images can be cached or written by luarc)
//
// # Architecture Overview
//
// The package consists of several components:
//
//   - Opcodes: a small register-based instruction set. Every opcode has an
//     entry in the info table naming its operands; LOADNIL, LOADBOOL,
//     LOADINT, LOADK, GETGLOBAL and CALL are executed today, while MOVE,
//     JMP and RETURN are reserved.
//
//   - Chunk: a constant pool deduplicated by value equality, the code
//     section, and a source map from bytecode offsets to statement
//     positions.
//
//   - Disassembler: a human-readable listing of a chunk.
//
//   - Images: a chunk serialized as the "\x1bLuaR" signature followed by
//     canonical CBOR. Loading an image validates it before use.
//
// # Operand Encoding
//
// Register operands and byte flags are one byte. Constant indices are
// unsigned and immediates signed, both 16 bits big-endian:
//
//	LOADINT   dst:u8 imm:i16
//	LOADK     dst:u8 k:u16
//	GETGLOBAL dst:u8 name:u16
//	CALL      fn:u8  argc:u8
//
// A chunk holds at most 65536 constants.
package bytecode
