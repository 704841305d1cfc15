package bytecode

import (
	"errors"
	"reflect"
	"testing"

	"github.com/chazu/luar/pkg/value"
)

func TestNewChunk(t *testing.T) {
	c := NewChunk()

	if c.Version != BytecodeVersion {
		t.Errorf("Version = %d, want %d", c.Version, BytecodeVersion)
	}
	if c.Code == nil {
		t.Error("Code is nil")
	}
	if c.Constants == nil {
		t.Error("Constants is nil")
	}
}

func TestChunkAddConstant(t *testing.T) {
	c := NewChunk()

	idx0, _ := c.AddConstant(value.String("hello"))
	if idx0 != 0 {
		t.Errorf("First constant index = %d, want 0", idx0)
	}

	idx1, _ := c.AddConstant(value.String("world"))
	if idx1 != 1 {
		t.Errorf("Second constant index = %d, want 1", idx1)
	}

	// Add duplicate - should return existing index
	idx2, _ := c.AddConstant(value.String("hello"))
	if idx2 != 0 {
		t.Errorf("Duplicate constant index = %d, want 0", idx2)
	}

	if c.ConstantCount() != 2 {
		t.Errorf("ConstantCount() = %d, want 2", c.ConstantCount())
	}

	if got := c.GetConstant(1); !got.Equal(value.String("world")) {
		t.Errorf("GetConstant(1) = %v, want world", got)
	}
}

func TestChunkAddConstantDedupAcrossKinds(t *testing.T) {
	values := []value.Value{
		value.String("x"),
		value.Int(70000),
		value.Float(70000),
		value.Float(2.5),
		value.String("70000"),
		value.Nil,
		value.Bool(true),
	}

	c := NewChunk()
	first := make([]uint16, len(values))
	for i, v := range values {
		idx, err := c.AddConstant(v)
		if err != nil {
			t.Fatalf("AddConstant(%v): %v", v, err)
		}
		first[i] = idx
	}
	if c.ConstantCount() != len(values) {
		t.Fatalf("ConstantCount() = %d, want %d (distinct values)", c.ConstantCount(), len(values))
	}

	// Re-inserting every value returns the original index and does not grow the pool.
	for i, v := range values {
		idx, err := c.AddConstant(v)
		if err != nil {
			t.Fatalf("re-AddConstant(%v): %v", v, err)
		}
		if idx != first[i] {
			t.Errorf("re-AddConstant(%v) = %d, want %d", v, idx, first[i])
		}
	}
	if c.ConstantCount() != len(values) {
		t.Errorf("ConstantCount() after re-insert = %d, want %d", c.ConstantCount(), len(values))
	}
}

func TestChunkAddConstantOverflow(t *testing.T) {
	c := NewChunk()
	c.Constants = make([]value.Value, MaxConstants)
	for i := range c.Constants {
		c.Constants[i] = value.Int(int64(i))
	}

	// An existing value still resolves.
	if idx, err := c.AddConstant(value.Int(12)); err != nil || idx != 12 {
		t.Errorf("AddConstant(existing) = %d, %v", idx, err)
	}

	_, err := c.AddConstant(value.String("one too many"))
	if !errors.Is(err, ErrTooManyConstants) {
		t.Errorf("AddConstant on full pool error = %v, want ErrTooManyConstants", err)
	}
}

func TestChunkEmitAndDecode(t *testing.T) {
	c := NewChunk()

	offsets := []int{
		c.EmitGetGlobal(0, 3),
		c.EmitLoadInt(1, -32768),
		c.EmitLoadInt(1, 32767),
		c.EmitLoadConst(1, 300),
		c.EmitLoadNil(2),
		c.EmitLoadBool(1, true),
		c.EmitLoadBool(1, false),
		c.EmitCall(0, 1),
	}
	wantOffsets := []int{0, 4, 8, 12, 16, 18, 21, 24}
	if !reflect.DeepEqual(offsets, wantOffsets) {
		t.Errorf("offsets = %v, want %v", offsets, wantOffsets)
	}
	if c.CodeLen() != 27 {
		t.Errorf("CodeLen() = %d, want 27", c.CodeLen())
	}

	got, err := c.Instructions()
	if err != nil {
		t.Fatalf("Instructions(): %v", err)
	}
	want := []Instruction{
		{Op: OpGetGlobal, A: 0, B: 3},
		{Op: OpLoadInt, A: 1, B: -32768},
		{Op: OpLoadInt, A: 1, B: 32767},
		{Op: OpLoadConst, A: 1, B: 300},
		{Op: OpLoadNil, A: 2},
		{Op: OpLoadBool, A: 1, B: 1},
		{Op: OpLoadBool, A: 1, B: 0},
		{Op: OpCall, A: 0, B: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Instructions() = %v, want %v", got, want)
	}
	if c.InstructionCount() != len(want) {
		t.Errorf("InstructionCount() = %d, want %d", c.InstructionCount(), len(want))
	}
}

func TestChunkEmitPanicsOnOperandMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Emit with wrong operand count did not panic")
		}
	}()
	NewChunk().Emit(OpCall, 0)
}

func TestChunkDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		code []byte
	}{
		{"unknown opcode", []byte{0x7F}},
		{"truncated operand", []byte{byte(OpGetGlobal), 0, 0}},
	}

	for _, tc := range tests {
		c := &Chunk{Code: tc.code}
		if _, _, err := c.DecodeAt(0); err == nil {
			t.Errorf("%s: DecodeAt(0) returned nil error", tc.name)
		}
		if err := c.Validate(); err == nil {
			t.Errorf("%s: Validate() returned nil error", tc.name)
		}
	}

	c := NewChunk()
	if _, _, err := c.DecodeAt(0); err == nil {
		t.Error("DecodeAt on empty code returned nil error")
	}
}

func TestChunkValidate(t *testing.T) {
	c := NewChunk()
	k, _ := c.AddConstant(value.String("print"))
	c.EmitGetGlobal(0, k)
	c.EmitLoadInt(1, 1)
	c.EmitCall(0, 1)
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() on well-formed chunk: %v", err)
	}

	c.EmitLoadConst(1, 5)
	if err := c.Validate(); err == nil {
		t.Error("Validate() accepted out-of-range constant index")
	}

	newer := NewChunk()
	newer.Version = BytecodeVersion + 1
	if err := newer.Validate(); err == nil {
		t.Error("Validate() accepted a newer bytecode version")
	}
}

func TestChunkSourceLocations(t *testing.T) {
	c := NewChunk()
	c.AddSourceLocation(0, 1, 1)
	c.AddSourceLocation(10, 3, 5)

	tests := []struct {
		offset uint32
		line   uint32
		col    uint16
	}{
		{0, 1, 1},
		{9, 1, 1},
		{10, 3, 5},
		{200, 3, 5},
	}
	for _, tc := range tests {
		line, col := c.GetSourceLocation(tc.offset)
		if line != tc.line || col != tc.col {
			t.Errorf("GetSourceLocation(%d) = %d:%d, want %d:%d", tc.offset, line, col, tc.line, tc.col)
		}
	}

	if line, _ := NewChunk().GetSourceLocation(0); line != 0 {
		t.Errorf("GetSourceLocation on empty map = %d, want 0", line)
	}
}

func TestInstructionString(t *testing.T) {
	tests := []struct {
		in   Instruction
		want string
	}{
		{Instruction{Op: OpGetGlobal, A: 0, B: 2}, "GETGLOBAL(0, 2)"},
		{Instruction{Op: OpLoadNil, A: 1}, "LOADNIL(1)"},
		{Instruction{Op: OpReturn}, "RETURN"},
	}
	for _, tc := range tests {
		if got := tc.in.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
