package bytecode

import (
	"fmt"
	"strings"

	"github.com/chazu/luar/pkg/value"
)

// Disassemble returns a human-readable bytecode listing for the chunk.
func (c *Chunk) Disassemble() string {
	return c.DisassembleWithName("")
}

// DisassembleWithName returns a human-readable bytecode listing with a name header.
func (c *Chunk) DisassembleWithName(name string) string {
	var sb strings.Builder

	// Header
	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; luar bytecode v%d, %d bytes, %d constants\n\n", c.Version, len(c.Code), len(c.Constants)))

	// Constants
	if len(c.Constants) > 0 {
		sb.WriteString("; Constants:\n")
		for i, k := range c.Constants {
			sb.WriteString(fmt.Sprintf(";   [%3d] %-8s %s\n", i, k.Kind(), displayConstant(k)))
		}
		sb.WriteString("\n")
	}

	// Code section
	sb.WriteString("; Code:\n")
	for offset := 0; offset < len(c.Code); {
		line, instrLen := c.disassembleInstruction(offset)

		if srcLine, srcCol := c.GetSourceLocation(uint32(offset)); srcLine > 0 {
			sb.WriteString(fmt.Sprintf("%04X  %-30s ; line %d:%d\n", offset, line, srcLine, srcCol))
		} else {
			sb.WriteString(fmt.Sprintf("%04X  %s\n", offset, line))
		}

		if instrLen == 0 {
			break
		}
		offset += instrLen
	}

	return sb.String()
}

// disassembleInstruction disassembles a single instruction at the given offset.
// Returns the formatted string and the instruction length.
func (c *Chunk) disassembleInstruction(offset int) (string, int) {
	in, n, err := c.DecodeAt(offset)
	if err != nil {
		return fmt.Sprintf("<%v>", err), n
	}

	info := GetOpcodeInfo(in.Op)
	switch in.Op {
	case OpLoadNil:
		return fmt.Sprintf("%-10s R%d", info.Name, in.A), n
	case OpLoadBool:
		return fmt.Sprintf("%-10s R%d %t", info.Name, in.A, in.B != 0), n
	case OpLoadInt:
		return fmt.Sprintf("%-10s R%d %d", info.Name, in.A, in.B), n
	case OpLoadConst, OpGetGlobal:
		return fmt.Sprintf("%-10s R%d K%d ; %s", info.Name, in.A, in.B, c.constantComment(in.B)), n
	case OpCall:
		return fmt.Sprintf("%-10s R%d %d", info.Name, in.A, in.B), n
	default:
		return in.String(), n
	}
}

// DisassembleInstruction returns the listing for the instruction at offset.
func (c *Chunk) DisassembleInstruction(offset int) string {
	line, _ := c.disassembleInstruction(offset)
	return line
}

// DisassembleToLines returns the code listing one instruction per line,
// without offsets or header.
func (c *Chunk) DisassembleToLines() []string {
	var lines []string
	for offset := 0; offset < len(c.Code); {
		line, n := c.disassembleInstruction(offset)
		lines = append(lines, line)
		if n == 0 {
			break
		}
		offset += n
	}
	return lines
}

func (c *Chunk) constantComment(idx int) string {
	if idx < 0 || idx >= len(c.Constants) {
		return "<bad constant>"
	}
	return displayConstant(c.Constants[idx])
}

func displayConstant(v value.Value) string {
	s, ok := v.AsString()
	if !ok {
		return v.String()
	}
	// Truncate long strings for readability
	if len(s) > 40 {
		s = s[:37] + "..."
	}
	return fmt.Sprintf("%q", s)
}
