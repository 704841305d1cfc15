package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/luar/pkg/bytecode"
	"github.com/chazu/luar/pkg/fault"
	"github.com/chazu/luar/pkg/value"
)

func mustCompile(t *testing.T, src string) *bytecode.Chunk {
	t.Helper()
	chunk, err := Compile(src)
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", src, err)
	}
	return chunk
}

func instructions(t *testing.T, chunk *bytecode.Chunk) []bytecode.Instruction {
	t.Helper()
	ins, err := chunk.Instructions()
	if err != nil {
		t.Fatalf("Instructions() error: %v", err)
	}
	return ins
}

func assertInstructions(t *testing.T, src string, got, want []bytecode.Instruction) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%q: got %d instructions %v, want %v", src, len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%q: instruction[%d] = %v, want %v", src, i, got[i], want[i])
		}
	}
}

func assertConstants(t *testing.T, chunk *bytecode.Chunk, want ...value.Value) {
	t.Helper()
	if len(chunk.Constants) != len(want) {
		t.Fatalf("constants = %v, want %v", chunk.Constants, want)
	}
	for i, v := range want {
		if !chunk.Constants[i].Equal(v) {
			t.Errorf("constant[%d] = %v (%v), want %v (%v)", i, chunk.Constants[i], chunk.Constants[i].Kind(), v, v.Kind())
		}
	}
}

func getGlobal(k int) bytecode.Instruction { return bytecode.Instruction{Op: bytecode.OpGetGlobal, A: 0, B: k} }
func loadConst(k int) bytecode.Instruction { return bytecode.Instruction{Op: bytecode.OpLoadConst, A: 1, B: k} }
func loadInt(n int) bytecode.Instruction   { return bytecode.Instruction{Op: bytecode.OpLoadInt, A: 1, B: n} }
func call() bytecode.Instruction           { return bytecode.Instruction{Op: bytecode.OpCall, A: 0, B: 1} }

func TestCompileHelloWorld(t *testing.T) {
	src := `print "hello world"`
	chunk := mustCompile(t, src)

	assertConstants(t, chunk, value.String("print"), value.String("hello world"))
	assertInstructions(t, src, instructions(t, chunk), []bytecode.Instruction{
		getGlobal(0),
		loadConst(1),
		call(),
	})
}

func TestCompileParenthesizedString(t *testing.T) {
	src := `print("hello world")`
	chunk := mustCompile(t, src)

	assertConstants(t, chunk, value.String("print"), value.String("hello world"))
	assertInstructions(t, src, instructions(t, chunk), []bytecode.Instruction{
		getGlobal(0),
		loadConst(1),
		call(),
	})
}

func TestCompileSmallInteger(t *testing.T) {
	src := "print(42)"
	chunk := mustCompile(t, src)

	assertConstants(t, chunk, value.String("print"))
	assertInstructions(t, src, instructions(t, chunk), []bytecode.Instruction{
		getGlobal(0),
		loadInt(42),
		call(),
	})
}

func TestCompileIntegerRange(t *testing.T) {
	tests := []struct {
		src    string
		inline bool
		want   value.Value
	}{
		{"print(0)", true, value.Int(0)},
		{"print(32767)", true, value.Int(32767)},
		{"print(32768)", false, value.Int(32768)},
		{"print(9223372036854775807)", false, value.Int(9223372036854775807)},
	}

	for _, tc := range tests {
		chunk := mustCompile(t, tc.src)
		ins := instructions(t, chunk)
		if len(ins) != 3 {
			t.Fatalf("%q: got %v", tc.src, ins)
		}
		arg := ins[1]
		if tc.inline {
			n, _ := tc.want.AsInt()
			if arg != loadInt(int(n)) {
				t.Errorf("%q: argument = %v, want LOADINT", tc.src, arg)
			}
			assertConstants(t, chunk, value.String("print"))
			continue
		}
		if arg != loadConst(1) {
			t.Errorf("%q: argument = %v, want LOADK(1, 1)", tc.src, arg)
		}
		assertConstants(t, chunk, value.String("print"), tc.want)
	}
}

func TestCompileFloat(t *testing.T) {
	src := "print(3.5)"
	chunk := mustCompile(t, src)

	assertConstants(t, chunk, value.String("print"), value.Float(3.5))
	assertInstructions(t, src, instructions(t, chunk), []bytecode.Instruction{
		getGlobal(0),
		loadConst(1),
		call(),
	})
}

func TestCompileNilAndBooleans(t *testing.T) {
	tests := []struct {
		src  string
		want bytecode.Instruction
	}{
		{"print(nil)", bytecode.Instruction{Op: bytecode.OpLoadNil, A: 1}},
		{"print(true)", bytecode.Instruction{Op: bytecode.OpLoadBool, A: 1, B: 1}},
		{"print(false)", bytecode.Instruction{Op: bytecode.OpLoadBool, A: 1, B: 0}},
	}

	for _, tc := range tests {
		chunk := mustCompile(t, tc.src)
		assertConstants(t, chunk, value.String("print"))
		assertInstructions(t, tc.src, instructions(t, chunk), []bytecode.Instruction{
			getGlobal(0),
			tc.want,
			call(),
		})
	}
}

func TestCompileDeduplicatesConstants(t *testing.T) {
	src := `print("x") print("x")`
	chunk := mustCompile(t, src)

	assertConstants(t, chunk, value.String("print"), value.String("x"))
	assertInstructions(t, src, instructions(t, chunk), []bytecode.Instruction{
		getGlobal(0), loadConst(1), call(),
		getGlobal(0), loadConst(1), call(),
	})
}

func TestCompileIntegerAndFloatStayDistinct(t *testing.T) {
	chunk := mustCompile(t, "print(40000) print(40000.0) print(40000)")
	assertConstants(t, chunk, value.String("print"), value.Int(40000), value.Float(40000))
}

func TestCompileEmptyInput(t *testing.T) {
	for _, src := range []string{"", "   \n\t", "-- only a comment"} {
		chunk := mustCompile(t, src)
		if chunk.CodeLen() != 0 || chunk.ConstantCount() != 0 {
			t.Errorf("Compile(%q) = %d bytes, %d constants, want empty", src, chunk.CodeLen(), chunk.ConstantCount())
		}
	}
}

func TestCompileMultipleStatements(t *testing.T) {
	src := "print 'a'\n-- comment\nprint(1); print(nil)"
	_, err := Compile(src)
	// ';' is not a statement.
	if err == nil {
		t.Fatalf("Compile(%q) succeeded, want syntax error at ';'", src)
	}

	src = "print 'a'\n-- comment\nprint(1) print(nil)"
	chunk := mustCompile(t, src)
	if got := chunk.InstructionCount(); got != 9 {
		t.Errorf("InstructionCount() = %d, want 9", got)
	}
}

func TestCompileSourceMap(t *testing.T) {
	chunk := mustCompile(t, "print(1)\n  print(2)")
	if len(chunk.SourceMap) != 2 {
		t.Fatalf("len(SourceMap) = %d, want 2", len(chunk.SourceMap))
	}
	second := chunk.SourceMap[1]
	if second.Line != 2 || second.Column != 3 {
		t.Errorf("second statement at %d:%d, want 2:3", second.Line, second.Column)
	}
	line, _ := chunk.GetSourceLocation(second.BytecodeOffset + 4)
	if line != 2 {
		t.Errorf("GetSourceLocation() line = %d, want 2", line)
	}
}

func TestCompileOtherGlobalNames(t *testing.T) {
	chunk := mustCompile(t, "foo(1) bar 'x'")
	assertConstants(t, chunk, value.String("foo"), value.String("bar"), value.String("x"))
}

func TestCompileSyntaxErrors(t *testing.T) {
	tests := []struct {
		src     string
		line    int
		column  int
		message string
	}{
		{"42", 1, 1, "expected a function name"},
		{"(", 1, 1, "expected a function name"},
		{"print", 1, 6, "expected '(' or a string after print"},
		{"print 42", 1, 7, "expected '(' or a string after print"},
		{"print(", 1, 7, "expected a literal argument"},
		{"print(x)", 1, 7, "expected a literal argument"},
		{"print()", 1, 7, "expected a literal argument"},
		{"print(1", 1, 8, "expected ')'"},
		{"print(1 2)", 1, 9, "expected ')'"},
		{"print(1, 2)", 1, 8, "expected ')'"},
		{"print 'a'\nend", 2, 1, "expected a function name"},
		{"print(99999999999999999999)", 1, 27, "expected a literal argument"},
	}

	for _, tc := range tests {
		chunk, err := Compile(tc.src)
		if err == nil {
			t.Errorf("Compile(%q) succeeded, want error", tc.src)
			continue
		}
		if chunk != nil {
			t.Errorf("Compile(%q) returned a chunk alongside an error", tc.src)
		}

		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("Compile(%q) error %T, want *SyntaxError", tc.src, err)
			continue
		}
		if se.Pos.Line != tc.line || se.Pos.Column != tc.column {
			t.Errorf("Compile(%q) error at %s, want %d:%d", tc.src, se.Pos, tc.line, tc.column)
		}
		if !strings.Contains(se.Msg, tc.message) {
			t.Errorf("Compile(%q) message = %q, want it to contain %q", tc.src, se.Msg, tc.message)
		}
		if fault.KindOf(err) != fault.Syntax {
			t.Errorf("Compile(%q) fault kind = %v, want syntax", tc.src, fault.KindOf(err))
		}
	}
}

func TestSyntaxErrorMessage(t *testing.T) {
	_, err := Compile("print(x)")
	want := `syntax error at 1:7: expected a literal argument, got NAME("x")`
	if err == nil || err.Error() != want {
		t.Errorf("error = %v, want %s", err, want)
	}
}

func TestLoadUsesGivenLexer(t *testing.T) {
	l := NewLexer("print(1)")
	first, err := Load(l)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// The lexer is exhausted; a second Load sees only EOS.
	second, err := Load(l)
	if err != nil {
		t.Fatalf("second Load() error: %v", err)
	}
	if second.CodeLen() != 0 {
		t.Errorf("second Load() emitted %d bytes, want 0", second.CodeLen())
	}

	l.Reset()
	third, err := Load(l)
	if err != nil {
		t.Fatalf("Load() after Reset error: %v", err)
	}
	if string(third.Code) != string(first.Code) {
		t.Errorf("Load() after Reset = % x, want % x", third.Code, first.Code)
	}
}

func TestCompiledChunkValidates(t *testing.T) {
	chunk := mustCompile(t, `print "a" print(1.5) print(nil) print(70000) print(true)`)
	if err := chunk.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}
